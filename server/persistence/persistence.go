package persistence

import (
	"errors"
	"fmt"

	"github.com/cjbester78/h2h/server/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

var ErrNotFound = errors.New("record not found")

// ErrTerminalState is returned when an update would rewrite an execution
// that already reached COMPLETED, FAILED or CANCELLED.
var ErrTerminalState = errors.New("execution already in terminal state")

// ErrInvalidTransition is returned when an update would move an execution
// backwards in its lifecycle, e.g. RUNNING back to PENDING.
var ErrInvalidTransition = errors.New("invalid execution status transition")

type MetadataStorage interface {
	SaveAdapter(a model.Adapter) error
	DeleteAdapter(id string) error
	GetAdapter(id string) (*model.Adapter, error)
	ListAdapters() ([]model.Adapter, error)

	SaveFlow(f model.Flow) error
	DeleteFlow(id string) error
	GetFlow(id string) (*model.Flow, error)
	ListFlows() ([]model.Flow, error)
}

type ExecutionStorage interface {
	CreateExecution(e *model.FlowExecution) error
	// UpdateExecution persists the record unless the stored copy is already
	// terminal or the status change is not a legal lifecycle transition.
	UpdateExecution(e *model.FlowExecution) error
	GetExecution(id string) (*model.FlowExecution, error)
	ListExecutions(flowId string, limit int) ([]model.FlowExecution, error)
	// CancelExecution marks a non-terminal execution CANCELLED. This is the
	// administrative path; the engine never drives this transition.
	CancelExecution(id string) error
}
