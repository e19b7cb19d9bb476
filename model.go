package txlcn

import (
	"context"
	"database/sql"
	"sync"
	"time"
)

// 事务参与方视角下的一笔分布式事务
type TxContext struct {
	// 事务组全局唯一标识
	GroupID string `json:"groupId"`
	// 当前进程是否为事务发起方
	OriginalBranch bool `json:"originalBranch"`
	// 事务上下文在本进程的创建时间
	CreateTime time.Time `json:"createTime"`
}

// 事务组表决状态
type TransactionState string

const (
	// 可以参与表决
	StateVotable TransactionState = "votable"
	// 已被标记为仅回滚
	StateRollbackOnly TransactionState = "rollback-only"
)

func (t TransactionState) String() string {
	return string(t)
}

// 数据源句柄，*sql.DB 天然实现
type DataSource interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// 底层连接句柄，*sql.Conn 天然实现
type Connection interface {
	Close() error
}

// 数据源的代理包装层，注册前先还原出底层数据源
type DataSourceWrapper interface {
	UnwrapDataSource() DataSource
}

// lcn 模式下的代理连接，在事务组决议前保持打开
type LCNConnectionProxy struct {
	GroupID string
	Conn    Connection
}

// txc 模式下 (groupId, unitId) 维度持有的乐观锁集合
// 同一维度重复登记做并集，除事务组清理外不会收缩
type LockSet struct {
	mux sync.Mutex
	ids map[string]struct{}
}

func newLockSet() *LockSet {
	return &LockSet{
		ids: make(map[string]struct{}),
	}
}

// Add 并入一批锁 id，并发调用安全
func (l *LockSet) Add(lockIDs ...string) {
	l.mux.Lock()
	defer l.mux.Unlock()
	for _, lockID := range lockIDs {
		l.ids[lockID] = struct{}{}
	}
}

// Contains 锁 id 是否已被登记
func (l *LockSet) Contains(lockID string) bool {
	l.mux.Lock()
	defer l.mux.Unlock()
	_, ok := l.ids[lockID]
	return ok
}

// IDs 返回当前已登记锁 id 的快照
func (l *LockSet) IDs() []string {
	l.mux.Lock()
	defer l.mux.Unlock()
	lockIDs := make([]string, 0, len(l.ids))
	for lockID := range l.ids {
		lockIDs = append(lockIDs, lockID)
	}
	return lockIDs
}

func (l *LockSet) Size() int {
	l.mux.Lock()
	defer l.mux.Unlock()
	return len(l.ids)
}

// 表结构元数据，进程级缓存，与具体事务组无关
type TableStruct struct {
	// 表名
	Table string
	// 列名 -> 列类型
	Columns map[string]string
	// 主键列，保持建表声明的顺序
	PrimaryKeys []string
}

// 主键补充提供方，在表结构首次缓存时生效一次
type PrimaryKeysProvider interface {
	// 返回表名 -> 候选主键列的映射
	Provide() map[string][]string
}

// 事务模式属性，构造 BranchContext 时写入属性缓存
type ModeProperties interface {
	Provide() map[string]interface{}
}
