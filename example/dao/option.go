package dao

import (
	txlcn "github.com/ho000easy/tx-lcn"
	"gorm.io/gorm"
)

type QueryOption func(db *gorm.DB) *gorm.DB

func WithID(id uint) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}

func WithGroupID(groupID string) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("group_id = ?", groupID)
	}
}

func WithState(state txlcn.TransactionState) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("state = ?", state.String())
	}
}
