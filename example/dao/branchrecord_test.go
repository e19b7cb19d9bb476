package dao

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	txlcn "github.com/ho000easy/tx-lcn"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func Test_GetBranchRecords(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Error(err)
		return
	}
	defer db.Close()
	mock.ExpectQuery("SELECT VERSION()").WillReturnRows(sqlmock.NewRows([]string{"VERSION"}).AddRow("1"))

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn: db,
	}), &gorm.Config{
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Error(err)
		return
	}

	ctx := context.Background()
	branchRecordDAO := NewBranchRecordDAO(gdb)

	tests := []struct {
		name string
		f    func()
	}{
		{
			name: "GetBranchRecords",
			f: func() {
				now := time.Now()
				rows := sqlmock.NewRows([]string{"id", "created_at", "deleted_at", "updated_at", "group_id", "unit_id", "state", "original_branch"}).
					AddRow(1, now, nil, now, "group_0", "unit_0", txlcn.StateVotable.String(), true)
				mock.ExpectQuery("SELECT \\* FROM `branch_record` WHERE id = \\? AND state = \\? AND `branch_record`.`deleted_at` IS NULL").
					WithArgs(1, txlcn.StateVotable.String()).WillReturnRows(rows)
				records, err := branchRecordDAO.GetBranchRecords(ctx, WithID(1), WithState(txlcn.StateVotable))
				if err != nil {
					t.Error(err)
					return
				}
				assert.Equal(t, 1, len(records))
				assert.Equal(t, uint(1), records[0].ID)
				assert.Equal(t, "group_0", records[0].GroupID)
				assert.Equal(t, txlcn.StateVotable.String(), records[0].State)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.f()
		})
	}
}

func Test_CreateBranchRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Error(err)
		return
	}
	defer db.Close()
	mock.ExpectQuery("SELECT VERSION()").WillReturnRows(sqlmock.NewRows([]string{"VERSION"}).AddRow("1"))

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn: db,
	}), &gorm.Config{
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Error(err)
		return
	}

	ctx := context.Background()
	branchRecordDAO := NewBranchRecordDAO(gdb)

	tests := []struct {
		name string
		f    func()
	}{
		{
			name: "CreateBranchRecord",
			f: func() {
				now := time.Now()
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO `branch_record`").
					WithArgs(now, now, nil, "group_0", "unit_0", txlcn.StateVotable.String(), true).
					WillReturnResult(driver.ResultNoRows)
				mock.ExpectCommit()
				_, err := branchRecordDAO.CreateBranchRecord(ctx, &BranchRecordPO{
					GroupID:        "group_0",
					UnitID:         "unit_0",
					State:          txlcn.StateVotable.String(),
					OriginalBranch: true,
					Model: gorm.Model{
						CreatedAt: now,
						UpdatedAt: now,
					},
				})
				assert.Equal(t, nil, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.f()
		})
	}
}

func Test_UpdateState(t *testing.T) {
	now := time.Now()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Error(err)
		return
	}
	defer db.Close()
	mock.ExpectQuery("SELECT VERSION()").WillReturnRows(sqlmock.NewRows([]string{"VERSION"}).AddRow("1"))

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn: db,
	}), &gorm.Config{
		DisableAutomaticPing: true,
		NowFunc: func() time.Time {
			return now
		},
	})
	if err != nil {
		t.Error(err)
		return
	}

	ctx := context.Background()
	branchRecordDAO := NewBranchRecordDAO(gdb)

	tests := []struct {
		name string
		f    func()
	}{
		{
			name: "UpdateStateSuccess",
			f: func() {
				mock.ExpectBegin()

				rows := sqlmock.NewRows([]string{"id", "created_at", "deleted_at", "updated_at", "group_id", "unit_id", "state", "original_branch"}).
					AddRow(1, now, nil, now, "group_0", "unit_0", txlcn.StateVotable.String(), true)
				mock.ExpectQuery("SELECT \\* FROM `branch_record` WHERE `branch_record`.`id` = \\? AND `branch_record`.`deleted_at` IS NULL ORDER BY `branch_record`.`id` LIMIT 1 FOR UPDATE").
					WithArgs(1).WillReturnRows(rows)

				mock.ExpectExec("UPDATE `branch_record` SET `updated_at`=\\?,`group_id`=\\?,`unit_id`=\\?,`state`=\\?,`original_branch`=\\? WHERE `branch_record`.`deleted_at` IS NULL AND `id` = \\?").
					WithArgs(now, "group_0", "unit_0", txlcn.StateRollbackOnly.String(), true, 1).
					WillReturnResult(driver.ResultNoRows)
				mock.ExpectCommit()
				err := branchRecordDAO.UpdateState(ctx, 1, txlcn.StateRollbackOnly.String())
				assert.Equal(t, nil, err)
			},
		},
		{
			name: "UpdateStateInvalidFromState",
			f: func() {
				mock.ExpectBegin()

				rows := sqlmock.NewRows([]string{"id", "created_at", "deleted_at", "updated_at", "group_id", "unit_id", "state", "original_branch"}).
					AddRow(1, now, nil, now, "group_0", "unit_0", txlcn.StateRollbackOnly.String(), true)
				mock.ExpectQuery("SELECT \\* FROM `branch_record` WHERE `branch_record`.`id` = \\? AND `branch_record`.`deleted_at` IS NULL ORDER BY `branch_record`.`id` LIMIT 1 FOR UPDATE").
					WithArgs(1).WillReturnRows(rows)

				mock.ExpectRollback()
				err := branchRecordDAO.UpdateState(ctx, 1, txlcn.StateVotable.String())
				assert.Equal(t, true, err != nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.f()
		})
	}
}
