package example

import (
	"context"

	txlcn "github.com/ho000easy/tx-lcn"
	expdao "github.com/ho000easy/tx-lcn/example/dao"

	"github.com/demdxx/gocast"
)

// BranchRecordDAO 分支事务记录存储层抽象
type BranchRecordDAO interface {
	CreateBranchRecord(ctx context.Context, record *expdao.BranchRecordPO) (uint, error)
	UpdateState(ctx context.Context, id uint, state string) error
}

// BranchRecorder 在事务上下文生命周期节点落一条审计记录
// 记录本身不参与表决，仅用于事后追查分支事务的走向
type BranchRecorder struct {
	dao BranchRecordDAO
}

func NewBranchRecorder(dao BranchRecordDAO) *BranchRecorder {
	return &BranchRecorder{
		dao: dao,
	}
}

// RecordStart 在 StartTx 之后登记一条 votable 状态的记录，返回记录 id
func (b *BranchRecorder) RecordStart(ctx context.Context, txContext *txlcn.TxContext, unitID string) (string, error) {
	id, err := b.dao.CreateBranchRecord(ctx, &expdao.BranchRecordPO{
		GroupID:        txContext.GroupID,
		UnitID:         unitID,
		State:          txlcn.StateVotable.String(),
		OriginalBranch: txContext.OriginalBranch,
	})
	if err != nil {
		return "", err
	}
	return gocast.ToString(id), nil
}

// RecordResolved 事务组决议后把记录推进到终态
func (b *BranchRecorder) RecordResolved(ctx context.Context, recordID string, state txlcn.TransactionState) error {
	return b.dao.UpdateState(ctx, gocast.ToUint(recordID), state.String())
}
