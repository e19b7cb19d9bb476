package example

import (
	"context"
	"fmt"
	"time"

	txlcn "github.com/ho000easy/tx-lcn"
	"github.com/ho000easy/tx-lcn/example/dao"
	"github.com/ho000easy/tx-lcn/example/pkg"

	"github.com/google/uuid"
)

const (
	dsn      = "请输入 mysql dsn"
	network  = "tcp"
	address  = "请输入 redis ip:port"
	password = "请输入 redis 密码"

	unitID = "unit_order_create"
)

func main() {
	redisClient := pkg.NewRedisClient(network, address, password)
	mysqlDB, err := pkg.NewDB(dsn)
	if err != nil {
		fmt.Println(err)
		return
	}

	// 构造分支上下文管理模块
	branchContext := txlcn.NewBranchContext(txlcn.NewMemStore(),
		txlcn.WithTimeout(8*time.Second),
		txlcn.WithPrimaryKeysProviders(NewStaticPrimaryKeysProvider(map[string][]string{
			"orders": {"region"},
		})),
		txlcn.WithModeProperties(StaticModeProperties{
			"lcn.connection.proxy": "true",
		}),
	)

	// 注册静态数据源，供取模分发使用
	sqlDB, err := mysqlDB.DB()
	if err != nil {
		fmt.Println(err)
		return
	}
	if err := branchContext.MapDataSources([]txlcn.DataSource{sqlDB}); err != nil {
		fmt.Println(err)
		return
	}

	recorder := NewBranchRecorder(dao.NewBranchRecordDAO(mysqlDB))
	locker := NewTxcLockExecutor(branchContext, redisClient)

	// 事务组 id 由发起方生成，经 context 显式透传给组内各分支
	ctx := txlcn.WithGroup(context.Background(), uuid.NewString())
	txContext, err := branchContext.StartTx(ctx, true)
	if err != nil {
		fmt.Println(err)
		return
	}

	recordID, err := recorder.RecordStart(ctx, txContext, unitID)
	if err != nil {
		fmt.Println(err)
		return
	}

	// lcn 模式：组内首次触达该数据源时创建代理连接，之后一直复用
	if branchContext.IsProxyConnection("lcn") {
		connection, err := branchContext.LCNConnection(txContext.GroupID, sqlDB, func() (*txlcn.LCNConnectionProxy, error) {
			conn, err := sqlDB.Conn(ctx)
			if err != nil {
				return nil, err
			}
			branchContext.LinkDataSource(txContext.GroupID, conn, sqlDB)
			return &txlcn.LCNConnectionProxy{GroupID: txContext.GroupID, Conn: conn}, nil
		})
		if err != nil {
			fmt.Println(err)
			return
		}
		defer func() {
			_ = connection.Conn.Close()
		}()
	}

	// txc 模式：登记乐观锁并取分布式锁
	if err := branchContext.PrepareTxcLocks(txContext.GroupID, unitID, []string{"orders:1001", "orders:1002"}); err != nil {
		fmt.Println(err)
		return
	}
	if err := locker.AcquireLocks(ctx, txContext.GroupID, unitID, 8*time.Second); err != nil {
		fmt.Println(err)
		return
	}

	// 此处执行业务逻辑。业务失败时标记仅回滚：
	// branchContext.SetRollbackOnly(txContext.GroupID)

	state := branchContext.TransactionState(txContext.GroupID)
	if err := recorder.RecordResolved(ctx, recordID, state); err != nil {
		fmt.Println(err)
		return
	}

	if err := locker.ReleaseLocks(ctx, txContext.GroupID, unitID); err != nil {
		fmt.Println(err)
		return
	}

	// 决议完成后销毁上下文并清理事务组名下的全部状态
	if err := branchContext.DestroyCurrentTx(ctx); err != nil {
		fmt.Println(err)
		return
	}
	branchContext.ClearGroup(txContext.GroupID)

	fmt.Println("state: ", state)
}
