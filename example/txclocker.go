package example

import (
	"context"
	"time"

	txlcn "github.com/ho000easy/tx-lcn"
	"github.com/ho000easy/tx-lcn/example/pkg"

	"github.com/xiaoxuxiansheng/redis_lock"
)

// TxcLockExecutor txc 模式下按锁集合逐个取分布式锁，事务组决议后释放
type TxcLockExecutor struct {
	branchContext *txlcn.BranchContext
	client        *redis_lock.Client
}

func NewTxcLockExecutor(branchContext *txlcn.BranchContext, client *redis_lock.Client) *TxcLockExecutor {
	return &TxcLockExecutor{
		branchContext: branchContext,
		client:        client,
	}
}

// AcquireLocks 取出 (groupId, unitId) 维度已登记的锁集合并逐一加锁
// 任何一把锁取不到就回退已取得的部分，整体视为失败
func (t *TxcLockExecutor) AcquireLocks(ctx context.Context, groupID, unitID string, expire time.Duration) error {
	lockSet, err := t.branchContext.TxcLockSet(groupID, unitID)
	if err != nil {
		return err
	}

	acquired := make([]*redis_lock.RedisLock, 0, lockSet.Size())
	for _, lockID := range lockSet.IDs() {
		lock := redis_lock.NewRedisLock(pkg.BuildTxcLockKey(groupID, lockID), t.client,
			redis_lock.WithExpireSeconds(int64(expire.Seconds())))
		if err := lock.Lock(ctx); err != nil {
			for _, locked := range acquired {
				_ = locked.Unlock(ctx)
			}
			return err
		}
		acquired = append(acquired, lock)
	}
	return nil
}

// ReleaseLocks 事务组决议后释放该维度此前取得的全部锁
func (t *TxcLockExecutor) ReleaseLocks(ctx context.Context, groupID, unitID string) error {
	lockSet, err := t.branchContext.TxcLockSet(groupID, unitID)
	if err != nil {
		return err
	}

	var firstErr error
	for _, lockID := range lockSet.IDs() {
		lock := redis_lock.NewRedisLock(pkg.BuildTxcLockKey(groupID, lockID), t.client)
		if err := lock.Unlock(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
