package txlcn

import "context"

// 事务组标识以显式 context value 透传，取代隐式的调用栈绑定传播
type groupKey struct{}

// WithGroup 将事务组 id 绑定到 context，同一事务组内的各分支调用共享该 ctx
func WithGroup(ctx context.Context, groupID string) context.Context {
	return context.WithValue(ctx, groupKey{}, groupID)
}

// GroupFromContext 取出当前 context 绑定的事务组 id
func GroupFromContext(ctx context.Context) (string, bool) {
	groupID, ok := ctx.Value(groupKey{}).(string)
	if !ok || groupID == "" {
		return "", false
	}
	return groupID, true
}

// HasGroup 当前 context 是否绑定了事务组
func HasGroup(ctx context.Context) bool {
	_, ok := GroupFromContext(ctx)
	return ok
}
