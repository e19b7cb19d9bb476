package dao

import (
	"context"
	"fmt"

	txlcn "github.com/ho000easy/tx-lcn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 分支事务审计记录
type BranchRecordPO struct {
	gorm.Model
	GroupID        string `gorm:"group_id"`
	UnitID         string `gorm:"unit_id"`
	State          string `gorm:"state"`
	OriginalBranch bool   `gorm:"original_branch"`
}

func (b BranchRecordPO) TableName() string {
	return "branch_record"
}

type BranchRecordDAO struct {
	db *gorm.DB
}

func NewBranchRecordDAO(db *gorm.DB) *BranchRecordDAO {
	return &BranchRecordDAO{
		db: db,
	}
}

func (b *BranchRecordDAO) GetBranchRecords(ctx context.Context, opts ...QueryOption) ([]*BranchRecordPO, error) {
	db := b.db.WithContext(ctx).Model(&BranchRecordPO{})
	for _, opt := range opts {
		db = opt(db)
	}

	var records []*BranchRecordPO
	return records, db.Scan(&records).Error
}

func (b *BranchRecordDAO) CreateBranchRecord(ctx context.Context, record *BranchRecordPO) (uint, error) {
	return record.ID, b.db.WithContext(ctx).Model(&BranchRecordPO{}).Create(record).Error
}

// UpdateState 将指定记录的表决状态推进到终态，只允许从 votable 状态出发
func (b *BranchRecordDAO) UpdateState(ctx context.Context, id uint, state string) error {
	return b.LockAndDo(ctx, id, func(ctx context.Context, dao *BranchRecordDAO, record *BranchRecordPO) error {
		if record.State == state {
			return nil
		}

		if record.State == txlcn.StateVotable.String() {
			record.State = state
			return dao.UpdateBranchRecord(ctx, record)
		}

		return fmt.Errorf("invalid state: %s of record: %d", record.State, id)
	})
}

func (b *BranchRecordDAO) UpdateBranchRecord(ctx context.Context, record *BranchRecordPO) error {
	return b.db.WithContext(ctx).Updates(record).Error
}

func (b *BranchRecordDAO) LockAndDo(ctx context.Context, id uint, do func(ctx context.Context, dao *BranchRecordDAO, record *BranchRecordPO) error) error {
	return b.db.Transaction(func(tx *gorm.DB) error {
		// 加写锁
		var record BranchRecordPO
		if err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, id).Error; err != nil {
			return err
		}

		txDAO := NewBranchRecordDAO(tx)
		return do(ctx, txDAO, &record)
	})
}
