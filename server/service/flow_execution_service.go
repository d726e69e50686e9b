package service

import (
	"fmt"

	"github.com/cjbester78/h2h/server/engine"
	"github.com/cjbester78/h2h/server/model"
	"github.com/cjbester78/h2h/server/persistence"
	"github.com/google/uuid"
)

type FlowExecutionService struct {
	engine     *engine.FlowEngine
	metadata   persistence.MetadataStorage
	executions persistence.ExecutionStorage
}

func NewFlowExecutionService(eng *engine.FlowEngine, metadata persistence.MetadataStorage,
	executions persistence.ExecutionStorage) *FlowExecutionService {
	return &FlowExecutionService{
		engine:     eng,
		metadata:   metadata,
		executions: executions,
	}
}

func (s *FlowExecutionService) StartFlow(flowId string, triggeredBy string) (*model.FlowExecution, error) {
	if triggeredBy == "" {
		triggeredBy = "manual"
	}
	return s.engine.SubmitExecution(model.FlowExecutionRequest{
		FlowId:      flowId,
		TriggeredBy: triggeredBy,
	})
}

func (s *FlowExecutionService) GetExecution(id string) (*model.FlowExecution, error) {
	return s.executions.GetExecution(id)
}

func (s *FlowExecutionService) ListExecutions(flowId string, limit int) ([]model.FlowExecution, error) {
	return s.executions.ListExecutions(flowId, limit)
}

func (s *FlowExecutionService) CancelExecution(id string) error {
	return s.executions.CancelExecution(id)
}

func (s *FlowExecutionService) SaveFlow(f model.Flow) (model.Flow, error) {
	if f.Id == "" {
		f.Id = uuid.New().String()
	}
	if f.Name == "" {
		return f, fmt.Errorf("flow name is required")
	}
	if _, err := s.metadata.GetAdapter(f.SenderAdapterId); err != nil {
		return f, fmt.Errorf("sender adapter %s: %w", f.SenderAdapterId, err)
	}
	if _, err := s.metadata.GetAdapter(f.ReceiverAdapterId); err != nil {
		return f, fmt.Errorf("receiver adapter %s: %w", f.ReceiverAdapterId, err)
	}
	return f, s.metadata.SaveFlow(f)
}

func (s *FlowExecutionService) GetFlow(id string) (*model.Flow, error) {
	return s.metadata.GetFlow(id)
}

func (s *FlowExecutionService) ListFlows() ([]model.Flow, error) {
	return s.metadata.ListFlows()
}

func (s *FlowExecutionService) DeleteFlow(id string) error {
	return s.metadata.DeleteFlow(id)
}
