package executor

import (
	"sync"
	"time"

	"github.com/cjbester78/h2h/server/logger"
	"github.com/cjbester78/h2h/server/model"
	"github.com/cjbester78/h2h/server/persistence"
	"github.com/cjbester78/h2h/server/pool"
	"github.com/cjbester78/h2h/server/util"
	"go.uber.org/zap"
)

var _ Executor = new(MonitorExecutor)

// MonitorExecutor polls execution state on the monitoring pool. The work is
// disposable: when the pool is saturated the snapshot is dropped.
type MonitorExecutor struct {
	executions persistence.ExecutionStorage
	pools      *pool.Pools
	stop       chan struct{}
	wg         *sync.WaitGroup
}

func NewMonitorExecutor(executions persistence.ExecutionStorage, pools *pool.Pools, wg *sync.WaitGroup) *MonitorExecutor {
	return &MonitorExecutor{
		executions: executions,
		pools:      pools,
		stop:       make(chan struct{}),
		wg:         wg,
	}
}

func (ex *MonitorExecutor) Name() string {
	return "monitor-executor"
}

func (ex *MonitorExecutor) Start() error {
	tw := util.NewTickWorker("monitor", 30*time.Second, ex.stop, func() {
		ex.pools.Monitoring.Submit(ex.snapshot)
	}, ex.wg)
	tw.Start()
	logger.Info("monitor executor started")
	return nil
}

func (ex *MonitorExecutor) Stop() error {
	ex.stop <- struct{}{}
	return nil
}

func (ex *MonitorExecutor) snapshot() {
	executions, err := ex.executions.ListExecutions("", 200)
	if err != nil {
		logger.Error("error polling executions", zap.Error(err))
		return
	}
	var running, pending int
	for _, e := range executions {
		switch e.Status {
		case model.EXECUTION_RUNNING:
			running++
		case model.EXECUTION_PENDING:
			pending++
		}
	}
	logger.Info("execution snapshot",
		zap.Int("running", running),
		zap.Int("pending", pending),
		zap.Int64("monitoringDropped", ex.pools.Monitoring.Dropped()))
}
