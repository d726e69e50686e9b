package executor

import (
	"sync"
	"time"

	"github.com/cjbester78/h2h/server/engine"
	"github.com/cjbester78/h2h/server/logger"
	"github.com/cjbester78/h2h/server/model"
	"github.com/cjbester78/h2h/server/persistence"
	"github.com/cjbester78/h2h/server/timers"
	"github.com/cjbester78/h2h/server/util"
	"go.uber.org/zap"
)

var _ Executor = new(ScheduleExecutor)

// ScheduleExecutor arms scheduled flows on a timing wheel. A tick worker
// rescans flow definitions so schedule edits take effect without restart;
// each firing submits an execution with TriggeredBy "scheduler" and re-arms
// the flow.
type ScheduleExecutor struct {
	metadata persistence.MetadataStorage
	engine   *engine.FlowEngine
	timers   *timers.TimerManager
	interval time.Duration
	stop     chan struct{}
	wg       *sync.WaitGroup
	mu       sync.Mutex
	armed    map[string]bool
}

func NewScheduleExecutor(metadata persistence.MetadataStorage, eng *engine.FlowEngine,
	maxDelaySeconds int64, interval time.Duration, wg *sync.WaitGroup) *ScheduleExecutor {
	return &ScheduleExecutor{
		metadata: metadata,
		engine:   eng,
		timers:   timers.NewTimerManager(maxDelaySeconds),
		interval: interval,
		stop:     make(chan struct{}),
		wg:       wg,
		armed:    make(map[string]bool),
	}
}

func (ex *ScheduleExecutor) Name() string {
	return "schedule-executor"
}

func (ex *ScheduleExecutor) Start() error {
	ex.timers.Init()
	tw := util.NewTickWorker("schedule-scan", ex.interval, ex.stop, ex.scan, ex.wg)
	tw.Start()
	logger.Info("schedule executor started")
	return nil
}

func (ex *ScheduleExecutor) Stop() error {
	ex.stop <- struct{}{}
	ex.timers.Stop()
	return nil
}

func (ex *ScheduleExecutor) scan() {
	flows, err := ex.metadata.ListFlows()
	if err != nil {
		logger.Error("error scanning flow schedules", zap.Error(err))
		return
	}
	for _, f := range flows {
		if !f.Active || f.ScheduleSeconds <= 0 {
			continue
		}
		ex.arm(f.Id, time.Duration(f.ScheduleSeconds)*time.Second)
	}
}

func (ex *ScheduleExecutor) arm(flowId string, delay time.Duration) {
	ex.mu.Lock()
	if ex.armed[flowId] {
		ex.mu.Unlock()
		return
	}
	ex.armed[flowId] = true
	ex.mu.Unlock()

	ex.timers.AddTask(func() {
		ex.mu.Lock()
		delete(ex.armed, flowId)
		ex.mu.Unlock()
		ex.fire(flowId)
	}, delay)
}

func (ex *ScheduleExecutor) fire(flowId string) {
	flow, err := ex.metadata.GetFlow(flowId)
	if err != nil || !flow.Active || flow.ScheduleSeconds <= 0 {
		// schedule removed since arming
		return
	}
	_, err = ex.engine.SubmitExecution(model.FlowExecutionRequest{
		FlowId:      flowId,
		TriggeredBy: "scheduler",
	})
	if err != nil {
		logger.Error("error triggering scheduled flow", zap.String("flowId", flowId), zap.Error(err))
	}
}
