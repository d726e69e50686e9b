package agent

import (
	"fmt"
	"sync"

	"github.com/cjbester78/h2h/server/adapter"
	"github.com/cjbester78/h2h/server/config"
	"github.com/cjbester78/h2h/server/engine"
	"github.com/cjbester78/h2h/server/executor"
	"github.com/cjbester78/h2h/server/logger"
	"github.com/cjbester78/h2h/server/notifier"
	"github.com/cjbester78/h2h/server/persistence"
	"github.com/cjbester78/h2h/server/persistence/inmem"
	rd "github.com/cjbester78/h2h/server/persistence/redis"
	"github.com/cjbester78/h2h/server/pool"
	"github.com/cjbester78/h2h/server/rest"
	"github.com/cjbester78/h2h/server/service"
)

type Agent struct {
	Config           config.Config
	metadata         persistence.MetadataStorage
	executions       persistence.ExecutionStorage
	factory          *adapter.Factory
	hub              *notifier.Hub
	pools            *pool.Pools
	engine           *engine.FlowEngine
	executionService *service.FlowExecutionService
	adapterService   *service.AdapterService
	scheduleExecutor *executor.ScheduleExecutor
	monitorExecutor  *executor.MonitorExecutor
	httpServer       *rest.Server
	shutdown         bool
	shutdownLock     sync.Mutex
	wg               sync.WaitGroup
}

func New(conf config.Config) (*Agent, error) {
	a := &Agent{
		Config: conf,
	}
	setup := []func() error{
		a.setupStorage,
		a.setupAdapterFactory,
		a.setupPush,
		a.setupEngine,
		a.setupServices,
		a.setupExecutors,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupStorage() error {
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		rdConf := rd.Config{
			Addrs:     a.Config.RedisConfig.Addrs,
			Namespace: a.Config.RedisConfig.Namespace,
		}
		a.metadata = rd.NewRedisMetadataStorage(rdConf)
		a.executions = rd.NewRedisExecutionStorage(rdConf)
	case config.STORAGE_TYPE_INMEM:
		store := inmem.NewStorage()
		a.metadata = store
		a.executions = store
	default:
		return fmt.Errorf("unknown storage type %s", a.Config.StorageType)
	}
	return nil
}

func (a *Agent) setupAdapterFactory() error {
	a.factory = adapter.NewDefaultFactory(a.Config.WorkDir)
	return nil
}

func (a *Agent) setupPush() error {
	a.hub = notifier.NewHub()
	return nil
}

func (a *Agent) setupEngine() error {
	a.pools = pool.NewPools(a.Config.Pools)
	a.engine = engine.NewFlowEngine(a.metadata, a.executions, a.factory, a.hub, a.pools)
	return nil
}

func (a *Agent) setupServices() error {
	a.executionService = service.NewFlowExecutionService(a.engine, a.metadata, a.executions)
	a.adapterService = service.NewAdapterService(a.metadata, a.factory)
	return nil
}

func (a *Agent) setupExecutors() error {
	a.scheduleExecutor = executor.NewScheduleExecutor(a.metadata, a.engine,
		a.Config.MaxScheduleDelaySeconds, a.Config.ScheduleTick, &a.wg)
	a.monitorExecutor = executor.NewMonitorExecutor(a.executions, a.pools, &a.wg)
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.executionService, a.adapterService, a.hub)
	return err
}

func (a *Agent) Start() error {
	if err := a.scheduleExecutor.Start(); err != nil {
		return err
	}
	if err := a.monitorExecutor.Start(); err != nil {
		return err
	}
	go func() {
		if err := a.httpServer.Start(); err != nil {
			_ = a.Shutdown()
			panic(err)
		}
	}()
	logger.Info("h2h agent started")
	return nil
}

func (a *Agent) Shutdown() error {
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true

	shutdown := []func() error{
		a.httpServer.Stop,
		a.scheduleExecutor.Stop,
		a.monitorExecutor.Stop,
		func() error {
			a.pools.Shutdown()
			return nil
		},
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	a.wg.Wait()
	logger.Info("h2h agent stopped")
	return nil
}
