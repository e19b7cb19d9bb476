package txlcn

import "sync"

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// 存储条目。创建中的条目先占位，create 完成后关闭 done
type storeEntry struct {
	done chan struct{}
	val  interface{}
	err  error
}

func completedEntry(val interface{}) *storeEntry {
	return &storeEntry{done: closedChan, val: val}
}

// 创建中的条目对查询不可见
func (e *storeEntry) completed() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// MemStore GroupStore 的进程内默认实现
// 所有操作在同一把锁上串行，RemoveGroup 与同组的写入因此有全序：
// 清理之后才开始的写入属于新一轮事务组状态，由下一次清理负责
type MemStore struct {
	mux    sync.Mutex
	flat   map[interface{}]*storeEntry
	groups map[string]map[interface{}]*storeEntry
}

func NewMemStore() *MemStore {
	return &MemStore{
		flat:   make(map[interface{}]*storeEntry),
		groups: make(map[string]map[interface{}]*storeEntry),
	}
}

func (m *MemStore) Exists(key interface{}) bool {
	m.mux.Lock()
	defer m.mux.Unlock()
	entry, ok := m.flat[key]
	return ok && entry.completed()
}

func (m *MemStore) Put(key, value interface{}) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.flat[key] = completedEntry(value)
}

func (m *MemStore) Get(key interface{}) (interface{}, bool) {
	m.mux.Lock()
	defer m.mux.Unlock()
	entry, ok := m.flat[key]
	if !ok || !entry.completed() {
		return nil, false
	}
	return entry.val, true
}

func (m *MemStore) LoadOrCreate(key interface{}, create func() (interface{}, error)) (interface{}, error) {
	m.mux.Lock()
	if entry, ok := m.flat[key]; ok {
		m.mux.Unlock()
		return waitEntry(entry)
	}

	entry := &storeEntry{done: make(chan struct{})}
	m.flat[key] = entry
	// create 可能有阻塞 io，不能占着锁执行
	m.mux.Unlock()

	val, err := create()

	m.mux.Lock()
	if err != nil {
		// 创建失败不落存储，之后的调用方可以重新发起创建
		if cur, ok := m.flat[key]; ok && cur == entry {
			delete(m.flat, key)
		}
		entry.err = err
	} else {
		entry.val = val
	}
	m.mux.Unlock()
	close(entry.done)

	if err != nil {
		return nil, err
	}
	return val, nil
}

func (m *MemStore) Remove(key interface{}) {
	m.mux.Lock()
	defer m.mux.Unlock()
	delete(m.flat, key)
}

func (m *MemStore) GroupExists(groupID string, key interface{}) bool {
	m.mux.Lock()
	defer m.mux.Unlock()
	entry, ok := m.groups[groupID][key]
	return ok && entry.completed()
}

func (m *MemStore) GroupPut(groupID string, key, value interface{}) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.group(groupID)[key] = completedEntry(value)
}

func (m *MemStore) GroupGet(groupID string, key interface{}) (interface{}, bool) {
	m.mux.Lock()
	defer m.mux.Unlock()
	entry, ok := m.groups[groupID][key]
	if !ok || !entry.completed() {
		return nil, false
	}
	return entry.val, true
}

func (m *MemStore) GroupLoadOrCreate(groupID string, key interface{}, create func() (interface{}, error)) (interface{}, error) {
	m.mux.Lock()
	if entry, ok := m.groups[groupID][key]; ok {
		m.mux.Unlock()
		return waitEntry(entry)
	}

	entry := &storeEntry{done: make(chan struct{})}
	m.group(groupID)[key] = entry
	m.mux.Unlock()

	val, err := create()

	m.mux.Lock()
	if err != nil {
		if cur, ok := m.groups[groupID][key]; ok && cur == entry {
			delete(m.groups[groupID], key)
		}
		entry.err = err
	} else {
		// 创建期间事务组被清理时，条目已随之失效，这里只是填充给等待方
		entry.val = val
	}
	m.mux.Unlock()
	close(entry.done)

	if err != nil {
		return nil, err
	}
	return val, nil
}

func (m *MemStore) GroupRemove(groupID string, key interface{}) {
	m.mux.Lock()
	defer m.mux.Unlock()
	delete(m.groups[groupID], key)
}

func (m *MemStore) GroupEntries(groupID string) map[interface{}]interface{} {
	m.mux.Lock()
	defer m.mux.Unlock()
	entries := make(map[interface{}]interface{}, len(m.groups[groupID]))
	for key, entry := range m.groups[groupID] {
		if !entry.completed() {
			continue
		}
		entries[key] = entry.val
	}
	return entries
}

func (m *MemStore) RemoveGroup(groupID string) {
	m.mux.Lock()
	defer m.mux.Unlock()
	delete(m.groups, groupID)
}

// 须在持锁状态下调用
func (m *MemStore) group(groupID string) map[interface{}]*storeEntry {
	group, ok := m.groups[groupID]
	if !ok {
		group = make(map[interface{}]*storeEntry)
		m.groups[groupID] = group
	}
	return group
}

func waitEntry(entry *storeEntry) (interface{}, error) {
	<-entry.done
	if entry.err != nil {
		return nil, entry.err
	}
	return entry.val, nil
}
