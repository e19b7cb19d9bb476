package txlcn

import (
	"fmt"
	"sync"

	"github.com/demdxx/gocast"
)

const (
	attrKeyTransactionType = "transactionType"
	attrKeyPropagation     = "propagation"
)

// 非容器托管调用链回查用的事务属性元数据
type TransactionAttribute struct {
	// 方法标识
	MethodKey string
	// 事务模式，如 lcn、txc
	TransactionType string
	// 传播行为
	Propagation string
	// 原始属性
	Attrs map[string]interface{}
}

// 一次方法调用的标识信息
type InvocationInfo struct {
	// 目标类型名
	Receiver string
	// 方法名
	Method string
}

func (i InvocationInfo) MethodKey() string {
	return fmt.Sprintf("%s#%s", i.Receiver, i.Method)
}

// AttributeRegistry 方法维度的事务属性注册表
// 显式构造、显式持有，随持有方生命周期创建和销毁，不做进程级单例
type AttributeRegistry struct {
	mux   sync.RWMutex
	attrs map[string]*TransactionAttribute
}

func NewAttributeRegistry() *AttributeRegistry {
	return &AttributeRegistry{
		attrs: make(map[string]*TransactionAttribute),
	}
}

// Cache 登记一份事务属性
func (r *AttributeRegistry) Cache(methodKey string, attrs map[string]interface{}) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.attrs[methodKey] = newTransactionAttribute(methodKey, attrs)
}

// Get 按方法标识查询事务属性
func (r *AttributeRegistry) Get(methodKey string) (*TransactionAttribute, bool) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	attribute, ok := r.attrs[methodKey]
	return attribute, ok
}

// GetByInvocation 按调用描述信息查询事务属性
func (r *AttributeRegistry) GetByInvocation(info InvocationInfo) (*TransactionAttribute, bool) {
	return r.Get(info.MethodKey())
}

// Update 更新已登记的事务属性，新属性并入旧属性；未登记过时等价于 Cache
func (r *AttributeRegistry) Update(methodKey string, attrs map[string]interface{}) {
	r.mux.Lock()
	defer r.mux.Unlock()
	attribute, ok := r.attrs[methodKey]
	if !ok {
		r.attrs[methodKey] = newTransactionAttribute(methodKey, attrs)
		return
	}

	merged := make(map[string]interface{}, len(attribute.Attrs)+len(attrs))
	for key, value := range attribute.Attrs {
		merged[key] = value
	}
	for key, value := range attrs {
		merged[key] = value
	}
	r.attrs[methodKey] = newTransactionAttribute(methodKey, merged)
}

func newTransactionAttribute(methodKey string, attrs map[string]interface{}) *TransactionAttribute {
	return &TransactionAttribute{
		MethodKey:       methodKey,
		TransactionType: gocast.ToString(attrs[attrKeyTransactionType]),
		Propagation:     gocast.ToString(attrs[attrKeyPropagation]),
		Attrs:           attrs,
	}
}
