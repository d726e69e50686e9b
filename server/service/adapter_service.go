package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cjbester78/h2h/server/adapter"
	"github.com/cjbester78/h2h/server/model"
	"github.com/cjbester78/h2h/server/persistence"
	"github.com/google/uuid"
)

type AdapterService struct {
	metadata persistence.MetadataStorage
	factory  *adapter.Factory
}

func NewAdapterService(metadata persistence.MetadataStorage, factory *adapter.Factory) *AdapterService {
	return &AdapterService{metadata: metadata, factory: factory}
}

func (s *AdapterService) SaveAdapter(a model.Adapter) (model.Adapter, error) {
	if a.Id == "" {
		a.Id = uuid.New().String()
	}
	a.Type = model.ParseAdapterType(string(a.Type))
	a.Direction = model.ParseAdapterDirection(string(a.Direction))
	if _, err := s.factory.CreateAdapter(string(a.Type), string(a.Direction)); err != nil {
		return a, fmt.Errorf("adapter %s/%s: %w", a.Type, a.Direction, err)
	}
	return a, s.metadata.SaveAdapter(a)
}

func (s *AdapterService) GetAdapter(id string) (*model.Adapter, error) {
	return s.metadata.GetAdapter(id)
}

func (s *AdapterService) ListAdapters() ([]model.Adapter, error) {
	return s.metadata.ListAdapters()
}

func (s *AdapterService) DeleteAdapter(id string) error {
	return s.metadata.DeleteAdapter(id)
}

func (s *AdapterService) SupportedAdapters() []adapter.SupportedAdapter {
	return s.factory.SupportedAdapters()
}

// TestAdapter verifies the stored configuration against the live endpoint.
func (s *AdapterService) TestAdapter(id string) error {
	a, err := s.metadata.GetAdapter(id)
	if err != nil {
		return err
	}
	executor, err := s.factory.CreateForAdapter(a)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return executor.TestConnection(ctx, a.Config)
}
