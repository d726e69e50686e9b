package notifier

import (
	"time"

	"github.com/cjbester78/h2h/server/model"
)

// ExecutionUpdate is the wire payload pushed on every execution status
// transition.
type ExecutionUpdate struct {
	ExecutionId string                `json:"executionId"`
	FlowId      string                `json:"flowId"`
	FlowName    string                `json:"flowName"`
	Status      model.ExecutionStatus `json:"status"`
	Percentage  float64               `json:"percentage"`
	Summary     *model.FlowSummary    `json:"summary,omitempty"`
	Error       string                `json:"error,omitempty"`
	Timestamp   time.Time             `json:"timestamp"`
}

type StepUpdate struct {
	ExecutionId string              `json:"executionId"`
	FlowId      string              `json:"flowId"`
	Step        model.ExecutionStep `json:"step"`
	Timestamp   time.Time           `json:"timestamp"`
}

// Notifier pushes status transitions to interested subscribers. Calls are
// fire-and-forget: the engine never blocks on subscriber presence and a
// missed update has no effect on the execution itself.
type Notifier interface {
	NotifyExecution(e *model.FlowExecution)
	NotifyStep(e *model.FlowExecution, step model.ExecutionStep)
}

type NoopNotifier struct{}

var _ Notifier = new(NoopNotifier)

func (NoopNotifier) NotifyExecution(e *model.FlowExecution) {}

func (NoopNotifier) NotifyStep(e *model.FlowExecution, step model.ExecutionStep) {}
