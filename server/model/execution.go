package model

import (
	"fmt"
	"time"
)

type ExecutionStatus string

const EXECUTION_PENDING ExecutionStatus = "PENDING"
const EXECUTION_RUNNING ExecutionStatus = "RUNNING"
const EXECUTION_COMPLETED ExecutionStatus = "COMPLETED"
const EXECUTION_FAILED ExecutionStatus = "FAILED"
const EXECUTION_CANCELLED ExecutionStatus = "CANCELLED"

func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case EXECUTION_COMPLETED, EXECUTION_FAILED, EXECUTION_CANCELLED:
		return true
	}
	return false
}

// CanTransitionTo enforces the monotonic lifecycle
// PENDING -> RUNNING -> {COMPLETED, FAILED, CANCELLED}.
func (s ExecutionStatus) CanTransitionTo(next ExecutionStatus) bool {
	if s == next {
		return false
	}
	switch s {
	case EXECUTION_PENDING:
		return next == EXECUTION_RUNNING || next == EXECUTION_FAILED || next == EXECUTION_CANCELLED
	case EXECUTION_RUNNING:
		return next.IsTerminal()
	}
	return false
}

type StepStatus string

const STEP_PENDING StepStatus = "PENDING"
const STEP_RUNNING StepStatus = "RUNNING"
const STEP_COMPLETED StepStatus = "COMPLETED"
const STEP_FAILED StepStatus = "FAILED"

type ExecutionStep struct {
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Status    StepStatus `json:"status"`
	StartedAt time.Time  `json:"startedAt,omitempty"`
	EndedAt   time.Time  `json:"endedAt,omitempty"`
	Error     string     `json:"error,omitempty"`
}

func (s *ExecutionStep) Duration() time.Duration {
	if s.StartedAt.IsZero() || s.EndedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

type FlowExecution struct {
	Id            string          `json:"id"`
	FlowId        string          `json:"flowId"`
	FlowName      string          `json:"flowName"`
	CorrelationId string          `json:"correlationId"`
	TriggeredBy   string          `json:"triggeredBy"`
	Status        ExecutionStatus `json:"status"`
	Steps         []ExecutionStep `json:"steps"`
	Summary       *FlowSummary    `json:"summary,omitempty"`
	Error         string          `json:"error,omitempty"`
	StartedAt     time.Time       `json:"startedAt,omitempty"`
	EndedAt       time.Time       `json:"endedAt,omitempty"`
}

func (e *FlowExecution) Duration() time.Duration {
	if e.StartedAt.IsZero() || e.EndedAt.IsZero() {
		return 0
	}
	return e.EndedAt.Sub(e.StartedAt)
}

// FormattedDuration buckets the run time into a human readable string.
func (e *FlowExecution) FormattedDuration() string {
	d := e.Duration()
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1fm", d.Minutes())
	default:
		return fmt.Sprintf("%.1fh", d.Hours())
	}
}

// CompletionPercentage is 0 for an execution without steps, never NaN.
func (e *FlowExecution) CompletionPercentage() float64 {
	if len(e.Steps) == 0 {
		return 0.0
	}
	completed := 0
	for _, s := range e.Steps {
		if s.Status == STEP_COMPLETED {
			completed++
		}
	}
	return float64(completed) / float64(len(e.Steps)) * 100
}

// CurrentStep returns the first step that has not completed, in sequence
// order, or nil when every step is done.
func (e *FlowExecution) CurrentStep() *ExecutionStep {
	for i := range e.Steps {
		if e.Steps[i].Status != STEP_COMPLETED {
			return &e.Steps[i]
		}
	}
	return nil
}

func (e *FlowExecution) Step(name string) *ExecutionStep {
	for i := range e.Steps {
		if e.Steps[i].Name == name {
			return &e.Steps[i]
		}
	}
	return nil
}
