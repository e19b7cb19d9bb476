package pkg

import (
	"fmt"
	"sync"

	"github.com/xiaoxuxiansheng/redis_lock"
)

const (
	network  = "tcp"
	address  = ""
	password = ""
)

var (
	redisClient *redis_lock.Client
	once        sync.Once
)

func NewRedisClient(network, address, password string) *redis_lock.Client {
	return redis_lock.NewClient(network, address, password)
}

func GetRedisClient() *redis_lock.Client {
	once.Do(func() {
		redisClient = redis_lock.NewClient(network, address, password)
	})
	return redisClient
}

// 构造 txc 模式下单个乐观锁资源的分布式锁 key
func BuildTxcLockKey(groupID, lockID string) string {
	return fmt.Sprintf("txcLockKey:%s:%s", groupID, lockID)
}

// 构造事务组维度的互斥 key，用于组内决议动作去重
func BuildGroupLockKey(groupID string) string {
	return fmt.Sprintf("groupLockKey:%s", groupID)
}
