package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/cjbester78/h2h/server/adapter"
	"github.com/cjbester78/h2h/server/diag"
	"github.com/cjbester78/h2h/server/logger"
	"github.com/cjbester78/h2h/server/model"
	"github.com/cjbester78/h2h/server/notifier"
	"github.com/cjbester78/h2h/server/persistence"
	"github.com/cjbester78/h2h/server/pool"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FlowEngine turns a trigger into a pipeline run: it creates the execution
// record, runs the pipeline on the flow pool, and propagates every status
// transition to storage and the notifier.
type FlowEngine struct {
	metadata   persistence.MetadataStorage
	executions persistence.ExecutionStorage
	factory    *adapter.Factory
	notifier   notifier.Notifier
	pools      *pool.Pools
}

func NewFlowEngine(metadata persistence.MetadataStorage, executions persistence.ExecutionStorage,
	factory *adapter.Factory, n notifier.Notifier, pools *pool.Pools) *FlowEngine {
	return &FlowEngine{
		metadata:   metadata,
		executions: executions,
		factory:    factory,
		notifier:   n,
		pools:      pools,
	}
}

// SubmitExecution accepts a trigger and schedules the run. The returned
// execution is PENDING; RUNNING is entered only when the pipeline starts on
// the flow pool.
func (e *FlowEngine) SubmitExecution(req model.FlowExecutionRequest) (*model.FlowExecution, error) {
	flow, err := e.metadata.GetFlow(req.FlowId)
	if err != nil {
		return nil, fmt.Errorf("flow %s not found: %w", req.FlowId, err)
	}
	if !flow.Active {
		return nil, fmt.Errorf("flow %s is not active", req.FlowId)
	}
	execution := &model.FlowExecution{
		Id:            uuid.New().String(),
		FlowId:        flow.Id,
		FlowName:      flow.Name,
		CorrelationId: uuid.New().String(),
		TriggeredBy:   req.TriggeredBy,
		Status:        model.EXECUTION_PENDING,
		Steps: []model.ExecutionStep{
			{Name: STEP_DISCOVER, Type: "sender", Status: model.STEP_PENDING},
			{Name: STEP_PROCESS, Type: "sender", Status: model.STEP_PENDING},
			{Name: STEP_TRANSFER, Type: "receiver", Status: model.STEP_PENDING},
		},
	}
	if err := e.executions.CreateExecution(execution); err != nil {
		return nil, err
	}
	e.notifier.NotifyExecution(execution)
	logger.Info("execution accepted",
		zap.String("executionId", execution.Id),
		zap.String("flowId", flow.Id),
		zap.String("triggeredBy", req.TriggeredBy))

	id := execution.Id
	e.pools.Flow.Submit(func() {
		e.runExecution(id)
	})
	return execution, nil
}

func (e *FlowEngine) runExecution(executionId string) {
	execution, err := e.executions.GetExecution(executionId)
	if err != nil {
		logger.Error("execution disappeared before start", zap.String("executionId", executionId), zap.Error(err))
		return
	}
	if execution.Status != model.EXECUTION_PENDING {
		// cancelled administratively before the pool picked it up
		logger.Info("skipping execution, no longer pending",
			zap.String("executionId", executionId), zap.String("status", string(execution.Status)))
		return
	}

	pipeline, err := e.buildPipeline(execution)
	if err != nil {
		e.finish(execution, nil, err)
		return
	}

	execution.Status = model.EXECUTION_RUNNING
	execution.StartedAt = time.Now()
	if err := e.persist(execution); err != nil {
		return
	}
	e.notifier.NotifyExecution(execution)

	summary, runErr := pipeline.Run(context.Background(), diag.NewContext(), execution.Id)
	e.finish(execution, summary, runErr)
}

func (e *FlowEngine) buildPipeline(execution *model.FlowExecution) (*Pipeline, error) {
	flow, err := e.metadata.GetFlow(execution.FlowId)
	if err != nil {
		return nil, fmt.Errorf("flow %s not found: %w", execution.FlowId, err)
	}
	sender, err := e.metadata.GetAdapter(flow.SenderAdapterId)
	if err != nil {
		return nil, fmt.Errorf("sender adapter %s not found: %w", flow.SenderAdapterId, err)
	}
	receiver, err := e.metadata.GetAdapter(flow.ReceiverAdapterId)
	if err != nil {
		return nil, fmt.Errorf("receiver adapter %s not found: %w", flow.ReceiverAdapterId, err)
	}
	senderExec, err := e.factory.CreateForAdapter(sender)
	if err != nil {
		return nil, fmt.Errorf("resolving sender executor: %w", err)
	}
	receiverExec, err := e.factory.CreateForAdapter(receiver)
	if err != nil {
		return nil, fmt.Errorf("resolving receiver executor: %w", err)
	}
	return &Pipeline{
		FlowId:      flow.Id,
		FlowName:    flow.Name,
		Sender:      senderExec,
		SenderCfg:   sender.Config,
		Receiver:    receiverExec,
		ReceiverCfg: receiver.Config,
		Observe:     e.stepObserver(execution),
		Dispatch:    e.dispatchToAdapterPool,
	}, nil
}

// dispatchToAdapterPool runs one blocking adapter stage on the adapter pool
// and waits for it. Stages stay sequential within a run; across runs they
// share the pool's bounded concurrency.
func (e *FlowEngine) dispatchToAdapterPool(fn func()) {
	done := make(chan struct{})
	submitted := e.pools.Adapter.Submit(func() {
		defer close(done)
		fn()
	})
	if !submitted {
		// adapter pool is shutting down, run inline so the flow can finish
		fn()
		return
	}
	<-done
}

func (e *FlowEngine) stepObserver(execution *model.FlowExecution) StageObserver {
	return func(stepName string, status model.StepStatus, errMsg string) {
		step := execution.Step(stepName)
		if step == nil {
			return
		}
		step.Status = status
		step.Error = errMsg
		switch status {
		case model.STEP_RUNNING:
			step.StartedAt = time.Now()
		case model.STEP_COMPLETED, model.STEP_FAILED:
			if step.StartedAt.IsZero() {
				step.StartedAt = time.Now()
			}
			step.EndedAt = time.Now()
		}
		if err := e.persist(execution); err != nil {
			return
		}
		e.notifier.NotifyStep(execution, *step)
	}
}

// finish drives the terminal transition: FAILED only for pipeline-level
// errors, COMPLETED otherwise, including runs with per-file failures.
func (e *FlowEngine) finish(execution *model.FlowExecution, summary *model.FlowSummary, runErr error) {
	execution.EndedAt = time.Now()
	execution.Summary = summary
	if runErr != nil {
		execution.Status = model.EXECUTION_FAILED
		execution.Error = runErr.Error()
		logger.Error("execution failed",
			zap.String("executionId", execution.Id),
			zap.String("flowId", execution.FlowId),
			zap.Error(runErr))
	} else {
		execution.Status = model.EXECUTION_COMPLETED
		logger.Info("execution completed",
			zap.String("executionId", execution.Id),
			zap.String("flowId", execution.FlowId),
			zap.String("duration", execution.FormattedDuration()))
	}
	if err := e.persist(execution); err != nil {
		return
	}
	e.notifier.NotifyExecution(execution)
}

func (e *FlowEngine) persist(execution *model.FlowExecution) error {
	if err := e.executions.UpdateExecution(execution); err != nil {
		logger.Error("error persisting execution",
			zap.String("executionId", execution.Id), zap.Error(err))
		return err
	}
	return nil
}
