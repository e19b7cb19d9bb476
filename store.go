package txlcn

// 事务组维度的并发 kv 存储模块
// key 分两种形态：全局命名空间的扁平 key，以及 (groupId, key) 复合 key
// 要求多线程并发访问同一事务组或不同事务组时都是安全的
type GroupStore interface {
	// 全局命名空间
	Exists(key interface{}) bool
	Put(key, value interface{})
	Get(key interface{}) (interface{}, bool)
	// LoadOrCreate 原子化的 get-or-insert：同一 key 的并发调用只会执行一次 create，
	// 各调用方拿到同一个创建结果；create 失败不落存储，错误抛给调用方
	LoadOrCreate(key interface{}, create func() (interface{}, error)) (interface{}, error)
	Remove(key interface{})

	// 事务组命名空间
	GroupExists(groupID string, key interface{}) bool
	GroupPut(groupID string, key, value interface{})
	GroupGet(groupID string, key interface{}) (interface{}, bool)
	GroupLoadOrCreate(groupID string, key interface{}, create func() (interface{}, error)) (interface{}, error)
	GroupRemove(groupID string, key interface{})
	// GroupEntries 返回事务组名下全部条目的快照
	GroupEntries(groupID string) map[interface{}]interface{}
	// RemoveGroup 移除事务组名下的全部条目，是事务组状态的终态事件
	RemoveGroup(groupID string)
}
