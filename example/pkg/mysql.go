package pkg

import (
	"fmt"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// 分支事务记录库的默认 dsn，使用方也可以通过 NewDB 自行指定
const defaultDSN = ""

var (
	defaultDB     *gorm.DB
	defaultDBOnce sync.Once
)

func NewDB(dsn string, opts ...gorm.Option) (*gorm.DB, error) {
	return gorm.Open(mysql.Open(dsn), opts...)
}

// GetDefaultDB 获取默认的分支事务记录库连接，单例
func GetDefaultDB() *gorm.DB {
	defaultDBOnce.Do(func() {
		var err error
		if defaultDB, err = NewDB(defaultDSN, &gorm.Config{}); err != nil {
			panic(fmt.Errorf("connect branch record database failed, err: %w", err))
		}
	})
	return defaultDB
}
