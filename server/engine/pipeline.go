package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cjbester78/h2h/server/adapter"
	"github.com/cjbester78/h2h/server/diag"
	"github.com/cjbester78/h2h/server/logger"
	"github.com/cjbester78/h2h/server/model"
	"go.uber.org/zap"
)

const STEP_DISCOVER = "discover"
const STEP_PROCESS = "process"
const STEP_TRANSFER = "transfer"

// StageObserver receives step transitions as the pipeline advances. The
// engine wires it to persistence and push; a nil observer is valid.
type StageObserver func(step string, status model.StepStatus, errMsg string)

// Pipeline is the fixed two-stage shape every flow run follows: the sender
// discovers and processes files, the receiver transfers every successfully
// processed file. Per-file transfer failures are tolerated; stage-level
// errors abort the run. Every adapter pairing executes through this one
// template, the sender executor decides where discovery and staging happen.
type Pipeline struct {
	FlowId      string
	FlowName    string
	Sender      adapter.AdapterExecutor
	SenderCfg   model.AdapterConfig
	Receiver    adapter.AdapterExecutor
	ReceiverCfg model.AdapterConfig
	Observe     StageObserver
	// Dispatch runs one blocking adapter stage; the engine points it at the
	// adapter pool. Nil means run inline.
	Dispatch func(func())
}

func (p *Pipeline) observe(step string, status model.StepStatus, errMsg string) {
	if p.Observe != nil {
		p.Observe(step, status, errMsg)
	}
}

func (p *Pipeline) dispatch(fn func()) {
	if p.Dispatch != nil {
		p.Dispatch(fn)
		return
	}
	fn()
}

// Run executes the pipeline for one execution. The returned summary is nil
// exactly when the error is non-nil; a zero-success processing batch is a
// logged abort, not an error. The diagnostic context is cleared on every
// exit path.
func (p *Pipeline) Run(ctx context.Context, dc *diag.Context, executionId string) (*model.FlowSummary, error) {
	defer dc.Clear()
	dc.Set(diag.KeyExecutionId, executionId)
	dc.Set(diag.KeyFlowId, p.FlowId)
	dc.Set(diag.KeyFlowName, p.FlowName)

	// sender stage: discovery
	dc.Set(diag.KeyStep, STEP_DISCOVER)
	p.observe(STEP_DISCOVER, model.STEP_RUNNING, "")
	var files []string
	var err error
	p.dispatch(func() {
		files, err = p.Sender.DiscoverFiles(ctx, p.SenderCfg, executionId)
	})
	if err != nil {
		p.observe(STEP_DISCOVER, model.STEP_FAILED, err.Error())
		return nil, fmt.Errorf("pipeline discovery failed: %w", err)
	}
	p.observe(STEP_DISCOVER, model.STEP_COMPLETED, "")
	summary := &model.FlowSummary{DiscoveredCount: len(files)}
	if len(files) == 0 {
		logger.Info("no files discovered, nothing to do", dc.Fields()...)
		p.observe(STEP_PROCESS, model.STEP_COMPLETED, "")
		p.observe(STEP_TRANSFER, model.STEP_COMPLETED, "")
		return summary, nil
	}

	// sender stage: processing, partial failures tolerated
	dc.Set(diag.KeyStep, STEP_PROCESS)
	p.observe(STEP_PROCESS, model.STEP_RUNNING, "")
	var results []model.FileProcessingResult
	p.dispatch(func() {
		results, err = p.Sender.ProcessFiles(ctx, p.SenderCfg, files, executionId)
	})
	if err != nil {
		p.observe(STEP_PROCESS, model.STEP_FAILED, err.Error())
		return nil, fmt.Errorf("pipeline processing failed: %w", err)
	}
	aggregate := model.AggregateResults(results)
	summary.ProcessedCount = aggregate.TotalCount
	summary.ProcessedSuccess = aggregate.SuccessCount
	summary.ProcessedFailed = aggregate.FailedCount
	p.observe(STEP_PROCESS, model.STEP_COMPLETED, "")

	if aggregate.SuccessCount == 0 {
		// all files failed sender-side, abort before any receiver work
		logger.Error("no files processed successfully, aborting pipeline", dc.Fields()...)
		p.observe(STEP_TRANSFER, model.STEP_FAILED, "no successfully processed files")
		return summary, nil
	}

	// receiver stage
	dc.Set(diag.KeyStep, STEP_TRANSFER)
	p.observe(STEP_TRANSFER, model.STEP_RUNNING, "")
	conn, err := p.Receiver.Initialize(ctx, p.ReceiverCfg)
	if err != nil {
		// no resource was acquired, cleanup is not attempted
		p.observe(STEP_TRANSFER, model.STEP_FAILED, err.Error())
		return nil, fmt.Errorf("pipeline receiver initialization failed: %w", err)
	}

	transferErrs := 0
	p.dispatch(func() {
		for _, r := range results {
			if !r.IsSuccess() {
				continue
			}
			remotePath := filepath.Base(r.FilePath)
			res := p.Receiver.UploadFile(ctx, conn, r.FilePath, remotePath, executionId)
			if res.IsSuccess() {
				summary.UploadedCount++
				summary.TransferredBytes += res.ByteCount
			} else {
				summary.UploadFailedCount++
				transferErrs++
				logger.Error("file transfer failed",
					append(dc.Fields(), zap.String("file", r.FilePath), zap.String("error", res.Error))...)
			}
		}
	})

	if err := p.Receiver.Cleanup(conn); err != nil {
		// best effort, never overrides the pipeline outcome
		logger.Warn("receiver cleanup failed", append(dc.Fields(), zap.Error(err))...)
	}

	if transferErrs > 0 {
		p.observe(STEP_TRANSFER, model.STEP_COMPLETED, fmt.Sprintf("%d of %d transfers failed", transferErrs, summary.ProcessedSuccess))
	} else {
		p.observe(STEP_TRANSFER, model.STEP_COMPLETED, "")
	}
	logger.Info("pipeline finished",
		append(dc.Fields(),
			zap.Int("discovered", summary.DiscoveredCount),
			zap.Int("processed", summary.ProcessedSuccess),
			zap.Int("uploaded", summary.UploadedCount))...)
	return summary, nil
}
