package txlcn

import (
	"context"
	"errors"
	"fmt"

	"github.com/ho000easy/tx-lcn/log"

	"github.com/demdxx/gocast"
)

var (
	// 调用方未在 context 中绑定事务组
	ErrNoGroup = errors.New("no group bound to context")
	// 当前没有存活的事务上下文
	ErrNoTxContext = errors.New("non TxContext")
	// 指定 (groupId, unitId) 维度不存在锁集合
	ErrLockSetNotFound = errors.New("non exists lock id")
)

// 事务组命名空间下的结构化 key，取代字符串后缀拼接，规避 key 碰撞
type (
	txContextKey    struct{}
	rollbackOnlyKey struct{}
	lockSetKey      struct{ unitID string }
	// 全局命名空间下的表结构 key
	tableStructKey struct{ table string }
)

const maxUnwrapDepth = 16

// BranchContext 事务参与方的本地上下文管理模块
// 1. 事务上下文生命周期
// 2. lcn 代理连接与表结构的 get-or-create 缓存
// 3. txc 锁集合聚合
// 4. 静态数据源注册表与属性缓存
type BranchContext struct {
	opts  *Options
	store GroupStore
	attrs *AttributeRegistry
	// 静态数据源注册表，启动时一次性写入，之后只读
	modDataSources []DataSource
}

func NewBranchContext(store GroupStore, opts ...Option) *BranchContext {
	branchContext := BranchContext{
		opts:  &Options{},
		store: store,
		attrs: NewAttributeRegistry(),
	}

	for _, opt := range opts {
		opt(branchContext.opts)
	}

	repair(branchContext.opts)

	branchContext.cacheModeProperties(branchContext.opts.modeProperties)
	return &branchContext
}

func (b *BranchContext) cacheModeProperties(propertiesList []ModeProperties) {
	for _, properties := range propertiesList {
		for key, value := range properties.Provide() {
			b.CacheIfAbsentProperty(key, value)
		}
	}
}

// StartTx 在用户业务前创建事务上下文，业务结束后由 DestroyTx 销毁
// context 未绑定事务组属于调用方使用错误，直接拒绝
func (b *BranchContext) StartTx(ctx context.Context, originalBranch bool) (*TxContext, error) {
	groupID, ok := GroupFromContext(ctx)
	if !ok {
		return nil, ErrNoGroup
	}

	txContext := TxContext{
		GroupID:        groupID,
		OriginalBranch: originalBranch,
		CreateTime:     b.opts.NowFunc(),
	}
	b.store.GroupPut(groupID, txContextKey{}, &txContext)
	log.Debugf("start TxContext[%s]", groupID)
	return &txContext, nil
}

// DestroyTx 销毁指定事务组的事务上下文
func (b *BranchContext) DestroyTx(groupID string) {
	b.store.GroupRemove(groupID, txContextKey{})
	log.Debugf("destroy TxContext[%s]", groupID)
}

// DestroyCurrentTx 销毁当前 context 绑定的事务上下文
// 不存在存活的上下文时属于调用方使用错误，不做静默兜底
func (b *BranchContext) DestroyCurrentTx(ctx context.Context) error {
	txContext, ok := b.CurrentTxContext(ctx)
	if !ok {
		return ErrNoTxContext
	}
	b.DestroyTx(txContext.GroupID)
	return nil
}

// TxContext 查询指定事务组的事务上下文，不存在时返回 false 而非报错
func (b *BranchContext) TxContext(groupID string) (*TxContext, bool) {
	value, ok := b.store.GroupGet(groupID, txContextKey{})
	if !ok {
		return nil, false
	}
	return value.(*TxContext), true
}

// CurrentTxContext 查询当前 context 绑定事务组的事务上下文
func (b *BranchContext) CurrentTxContext(ctx context.Context) (*TxContext, bool) {
	groupID, ok := GroupFromContext(ctx)
	if !ok {
		return nil, false
	}
	return b.TxContext(groupID)
}

// HasTxContext 当前 context 绑定了事务组且其事务上下文存活
func (b *BranchContext) HasTxContext(ctx context.Context) bool {
	_, ok := b.CurrentTxContext(ctx)
	return ok
}

// IsTransactionTimeout 轮询式的超时判断，不做抢占
// 是否触发回滚由协调方决定，这里没有任何定时任务
func (b *BranchContext) IsTransactionTimeout(ctx context.Context) (bool, error) {
	txContext, ok := b.CurrentTxContext(ctx)
	if !ok {
		return false, ErrNoTxContext
	}
	return b.opts.NowFunc().Sub(txContext.CreateTime) >= b.opts.Timeout, nil
}

// TransactionState 根据 rollback-only 标记推断事务组当前的表决状态
func (b *BranchContext) TransactionState(groupID string) TransactionState {
	if b.store.GroupExists(groupID, rollbackOnlyKey{}) {
		return StateRollbackOnly
	}
	return StateVotable
}

// SetRollbackOnly 将事务组标记为仅回滚，重复调用幂等
func (b *BranchContext) SetRollbackOnly(groupID string) {
	b.store.GroupPut(groupID, rollbackOnlyKey{}, true)
}

// LCNConnection 以 (groupId, dataSource) 维度对代理连接做 get-or-create
// 同一维度的并发调用只会执行一次 create，各调用方拿到同一个代理连接；
// create 失败不落缓存，错误原样抛给调用方
func (b *BranchContext) LCNConnection(groupID string, dataSource DataSource, create func() (*LCNConnectionProxy, error)) (*LCNConnectionProxy, error) {
	value, err := b.store.GroupLoadOrCreate(groupID, dataSource, func() (interface{}, error) {
		return create()
	})
	if err != nil {
		return nil, err
	}
	return value.(*LCNConnectionProxy), nil
}

// LCNConnections 返回事务组下缓存的全部代理连接
// 同一命名空间下还存着锁集合、标记位等条目，按 key 是否为数据源句柄过滤
func (b *BranchContext) LCNConnections(groupID string) []*LCNConnectionProxy {
	entries := b.store.GroupEntries(groupID)
	connections := make([]*LCNConnectionProxy, 0, len(entries))
	for key, value := range entries {
		if _, ok := key.(DataSource); !ok {
			continue
		}
		connections = append(connections, value.(*LCNConnectionProxy))
	}
	return connections
}

// PrepareTxcLocks 登记 (groupId, unitId) 维度的乐观锁，重复登记做并集
func (b *BranchContext) PrepareTxcLocks(groupID string, unitID string, lockIDs []string) error {
	value, err := b.store.GroupLoadOrCreate(groupID, lockSetKey{unitID: unitID}, func() (interface{}, error) {
		return newLockSet(), nil
	})
	if err != nil {
		return err
	}
	value.(*LockSet).Add(lockIDs...)
	return nil
}

// TxcLockSet 查询已登记的锁集合
// 未登记过视为 NotFound，调用方需要区分 "未登记" 与 "空集合"
func (b *BranchContext) TxcLockSet(groupID string, unitID string) (*LockSet, error) {
	value, ok := b.store.GroupGet(groupID, lockSetKey{unitID: unitID})
	if !ok {
		return nil, fmt.Errorf("%w, groupId: %s, unitId: %s", ErrLockSetNotFound, groupID, unitID)
	}
	return value.(*LockSet), nil
}

// TableStruct 以表名维度对表结构做进程级 get-or-create
// 首次创建后对主键列表做一次性补充：只追加未收录且确为该表列的候选主键，
// 保持原有主键顺序；命中缓存后不会重算
func (b *BranchContext) TableStruct(table string, create func() (*TableStruct, error)) (*TableStruct, error) {
	value, err := b.store.LoadOrCreate(tableStructKey{table: table}, func() (interface{}, error) {
		tableStruct, err := create()
		if err != nil {
			return nil, err
		}
		b.augmentPrimaryKeys(table, tableStruct)
		log.Debugf("cache table[%s] struct", table)
		return tableStruct, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*TableStruct), nil
}

func (b *BranchContext) augmentPrimaryKeys(table string, tableStruct *TableStruct) {
	for _, provider := range b.opts.primaryKeysProviders {
		for _, key := range provider.Provide()[table] {
			if containsKey(tableStruct.PrimaryKeys, key) {
				continue
			}
			if _, ok := tableStruct.Columns[key]; !ok {
				continue
			}
			tableStruct.PrimaryKeys = append(tableStruct.PrimaryKeys, key)
		}
	}
}

// LinkDataSource 登记事务组内连接到数据源的反查关系
// 连接对象可能从代理层被拆包出来，丢失来源信息，需要这份索引找回
func (b *BranchContext) LinkDataSource(groupID string, connection Connection, dataSource DataSource) {
	b.store.GroupPut(groupID, connection, dataSource)
}

// DataSourceByConnection 由连接反查其所属数据源
func (b *BranchContext) DataSourceByConnection(groupID string, connection Connection) (DataSource, bool) {
	value, ok := b.store.GroupGet(groupID, connection)
	if !ok {
		return nil, false
	}
	return value.(DataSource), true
}

// MapDataSources 启动时一次性注册静态数据源，按注册顺序分配稳定下标，
// 作为取模分发的 key。入参为空时告警后直接返回；
// 代理拆包失败视为启动期的致命配置错误，注册整体失败
func (b *BranchContext) MapDataSources(dataSources []DataSource) error {
	if len(dataSources) == 0 {
		log.Warnf("mod non exists dataSource")
		return nil
	}

	mapped := make([]DataSource, 0, len(dataSources))
	for _, dataSource := range dataSources {
		target, err := unwrapDataSource(dataSource)
		if err != nil {
			return err
		}
		mapped = append(mapped, target)
	}
	b.modDataSources = mapped
	return nil
}

// DataSource 按注册下标查询静态数据源，未注册返回 false
func (b *BranchContext) DataSource(key int) (DataSource, bool) {
	if key < 0 || key >= len(b.modDataSources) {
		return nil, false
	}
	return b.modDataSources[key], true
}

// CacheIfAbsentProperty 属性缓存 insert-if-absent
// 启动期用来写入配置推导的默认值，不覆盖更高优先级来源已写入的值
func (b *BranchContext) CacheIfAbsentProperty(key string, value interface{}) {
	_, _ = b.store.LoadOrCreate(key, func() (interface{}, error) {
		return value, nil
	})
}

// IsProxyConnection 指定事务模式是否启用连接代理，只认 "true"
func (b *BranchContext) IsProxyConnection(transactionType string) bool {
	value, ok := b.store.Get(transactionType + ".connection.proxy")
	return ok && gocast.ToString(value) == "true"
}

// ClearGroup 事务组清理的唯一入口，移除该组名下的全部状态：
// 事务上下文、锁集合、连接缓存、反查索引和回滚标记
func (b *BranchContext) ClearGroup(groupID string) {
	b.store.RemoveGroup(groupID)
	log.Debugf("clear group[%s]", groupID)
}

// CacheTransactionAttribute 登记方法维度的事务属性，供脱离容器托管的调用链回查
func (b *BranchContext) CacheTransactionAttribute(methodKey string, attrs map[string]interface{}) {
	b.attrs.Cache(methodKey, attrs)
}

// GetTransactionAttribute 按方法标识查询事务属性
func (b *BranchContext) GetTransactionAttribute(methodKey string) (*TransactionAttribute, bool) {
	return b.attrs.Get(methodKey)
}

// GetTransactionAttributeByInvocation 按调用描述信息查询事务属性
func (b *BranchContext) GetTransactionAttributeByInvocation(info InvocationInfo) (*TransactionAttribute, bool) {
	return b.attrs.GetByInvocation(info)
}

// UpdateTransactionAttribute 更新已登记的事务属性
func (b *BranchContext) UpdateTransactionAttribute(methodKey string, attrs map[string]interface{}) {
	b.attrs.Update(methodKey, attrs)
}

// AttributeRegistry 返回注册表本体，供需要独立持有的调用链使用
func (b *BranchContext) AttributeRegistry() *AttributeRegistry {
	return b.attrs
}

func unwrapDataSource(dataSource DataSource) (DataSource, error) {
	for depth := 0; depth < maxUnwrapDepth; depth++ {
		wrapper, ok := dataSource.(DataSourceWrapper)
		if !ok {
			return dataSource, nil
		}
		dataSource = wrapper.UnwrapDataSource()
		if dataSource == nil {
			return nil, errors.New("unwrap datasource failed: nil target")
		}
	}
	return nil, fmt.Errorf("unwrap datasource failed: wrapper depth exceeds %d", maxUnwrapDepth)
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
