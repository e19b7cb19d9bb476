package example

import (
	"context"
	"errors"
	"testing"

	txlcn "github.com/ho000easy/tx-lcn"
	expdao "github.com/ho000easy/tx-lcn/example/dao"

	"github.com/stretchr/testify/assert"
)

type mockBranchRecordDAO struct {
	createdRecords []*expdao.BranchRecordPO
	updatedStates  map[uint]string
}

func newMockBranchRecordDAO() *mockBranchRecordDAO {
	return &mockBranchRecordDAO{
		updatedStates: make(map[uint]string),
	}
}

func (m *mockBranchRecordDAO) CreateBranchRecord(ctx context.Context, record *expdao.BranchRecordPO) (uint, error) {
	if record.GroupID == "" {
		return 0, errors.New("invalid group id")
	}
	m.createdRecords = append(m.createdRecords, record)
	return uint(len(m.createdRecords)), nil
}

func (m *mockBranchRecordDAO) UpdateState(ctx context.Context, id uint, state string) error {
	// 已推进到终态的记录不允许再次推进
	if _, ok := m.updatedStates[id]; ok {
		return errors.New("invalid state")
	}
	m.updatedStates[id] = state
	return nil
}

func Test_BranchRecorder_RecordStart(t *testing.T) {
	mockDAO := newMockBranchRecordDAO()
	recorder := NewBranchRecorder(mockDAO)

	ctx := context.Background()
	_, err := recorder.RecordStart(ctx, &txlcn.TxContext{}, "unit_0")
	assert.Equal(t, true, err != nil)

	recordID, err := recorder.RecordStart(ctx, &txlcn.TxContext{GroupID: "group_0", OriginalBranch: true}, "unit_0")
	assert.Equal(t, nil, err)
	assert.Equal(t, "1", recordID)

	assert.Equal(t, 1, len(mockDAO.createdRecords))
	record := mockDAO.createdRecords[0]
	assert.Equal(t, "group_0", record.GroupID)
	assert.Equal(t, "unit_0", record.UnitID)
	assert.Equal(t, txlcn.StateVotable.String(), record.State)
	assert.Equal(t, true, record.OriginalBranch)
}

func Test_BranchRecorder_RecordResolved(t *testing.T) {
	mockDAO := newMockBranchRecordDAO()
	recorder := NewBranchRecorder(mockDAO)

	ctx := context.Background()
	err := recorder.RecordResolved(ctx, "1", txlcn.StateRollbackOnly)
	assert.Equal(t, nil, err)
	assert.Equal(t, txlcn.StateRollbackOnly.String(), mockDAO.updatedStates[1])

	err = recorder.RecordResolved(ctx, "1", txlcn.StateVotable)
	assert.Equal(t, true, err != nil)
}
