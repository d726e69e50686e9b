package inmem

import (
	"sort"
	"sync"

	"github.com/cjbester78/h2h/server/model"
	"github.com/cjbester78/h2h/server/persistence"
)

// Storage keeps everything in process memory. Used by tests and single-node
// development setups.
type Storage struct {
	mu         sync.RWMutex
	adapters   map[string]model.Adapter
	flows      map[string]model.Flow
	executions map[string]model.FlowExecution
}

var _ persistence.MetadataStorage = new(Storage)
var _ persistence.ExecutionStorage = new(Storage)

func NewStorage() *Storage {
	return &Storage{
		adapters:   make(map[string]model.Adapter),
		flows:      make(map[string]model.Flow),
		executions: make(map[string]model.FlowExecution),
	}
}

func (s *Storage) SaveAdapter(a model.Adapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adapters[a.Id] = a
	return nil
}

func (s *Storage) DeleteAdapter(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.adapters, id)
	return nil
}

func (s *Storage) GetAdapter(id string) (*model.Adapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.adapters[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return &a, nil
}

func (s *Storage) ListAdapters() ([]model.Adapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Adapter, 0, len(s.adapters))
	for _, a := range s.adapters {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (s *Storage) SaveFlow(f model.Flow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[f.Id] = f
	return nil
}

func (s *Storage) DeleteFlow(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, id)
	return nil
}

func (s *Storage) GetFlow(id string) (*model.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.flows[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return &f, nil
}

func (s *Storage) ListFlows() ([]model.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Flow, 0, len(s.flows))
	for _, f := range s.flows {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (s *Storage) CreateExecution(e *model.FlowExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions[e.Id] = copyExecution(e)
	return nil
}

func (s *Storage) UpdateExecution(e *model.FlowExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.executions[e.Id]
	if !ok {
		return persistence.ErrNotFound
	}
	if stored.Status.IsTerminal() {
		return persistence.ErrTerminalState
	}
	if stored.Status != e.Status && !stored.Status.CanTransitionTo(e.Status) {
		return persistence.ErrInvalidTransition
	}
	s.executions[e.Id] = copyExecution(e)
	return nil
}

func (s *Storage) GetExecution(id string) (*model.FlowExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.executions[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	out := copyExecution(&e)
	return &out, nil
}

func (s *Storage) ListExecutions(flowId string, limit int) ([]model.FlowExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.FlowExecution, 0)
	for _, e := range s.executions {
		if flowId == "" || e.FlowId == flowId {
			out = append(out, copyExecution(&e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Storage) CancelExecution(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.executions[id]
	if !ok {
		return persistence.ErrNotFound
	}
	if e.Status.IsTerminal() {
		return persistence.ErrTerminalState
	}
	e.Status = model.EXECUTION_CANCELLED
	s.executions[id] = e
	return nil
}

func copyExecution(e *model.FlowExecution) model.FlowExecution {
	out := *e
	out.Steps = append([]model.ExecutionStep(nil), e.Steps...)
	if e.Summary != nil {
		sum := *e.Summary
		out.Summary = &sum
	}
	return out
}
