package adapter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cjbester78/h2h/server/logger"
	"github.com/cjbester78/h2h/server/model"
	c "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var ErrUnsupportedAdapter = fmt.Errorf("no executor registered for adapter type/direction")

type SupportedAdapter struct {
	Type      model.AdapterType      `json:"type"`
	Direction model.AdapterDirection `json:"direction"`
}

// Factory resolves (type, direction) to an executor. The registry is built
// once at startup and read-only afterwards; resolved executors are memoized
// so repeat lookups return the same shared instance. Callers must not keep
// per-call mutable state on the executor.
type Factory struct {
	registry map[string]func() AdapterExecutor
	cache    *c.Cache
}

func NewFactory() *Factory {
	return &Factory{
		registry: make(map[string]func() AdapterExecutor),
		cache:    c.New(c.NoExpiration, 0),
	}
}

// NewDefaultFactory registers every built-in executor. EMAIL has no sender
// side; mailbox polling is not implemented.
func NewDefaultFactory(workDir string) *Factory {
	f := NewFactory()
	f.Register(model.ADAPTER_TYPE_FILE, model.DIRECTION_SENDER, func() AdapterExecutor {
		return NewFileAdapter(model.DIRECTION_SENDER, workDir)
	})
	f.Register(model.ADAPTER_TYPE_FILE, model.DIRECTION_RECEIVER, func() AdapterExecutor {
		return NewFileAdapter(model.DIRECTION_RECEIVER, workDir)
	})
	f.Register(model.ADAPTER_TYPE_SFTP, model.DIRECTION_SENDER, func() AdapterExecutor {
		return NewSftpAdapter(model.DIRECTION_SENDER, workDir)
	})
	f.Register(model.ADAPTER_TYPE_SFTP, model.DIRECTION_RECEIVER, func() AdapterExecutor {
		return NewSftpAdapter(model.DIRECTION_RECEIVER, workDir)
	})
	f.Register(model.ADAPTER_TYPE_EMAIL, model.DIRECTION_RECEIVER, func() AdapterExecutor {
		return NewEmailAdapter()
	})
	return f
}

func (f *Factory) Register(t model.AdapterType, d model.AdapterDirection, constructor func() AdapterExecutor) {
	f.registry[cacheKey(t, d)] = constructor
}

// CreateAdapter resolves case-insensitively and memoizes the executor under
// "{TYPE}_{DIRECTION}". Blank arguments or an unregistered pair return
// ErrUnsupportedAdapter.
func (f *Factory) CreateAdapter(t string, d string) (AdapterExecutor, error) {
	if strings.TrimSpace(t) == "" || strings.TrimSpace(d) == "" {
		return nil, ErrUnsupportedAdapter
	}
	key := cacheKey(model.ParseAdapterType(t), model.ParseAdapterDirection(d))
	if cached, found := f.cache.Get(key); found {
		return cached.(AdapterExecutor), nil
	}
	constructor, ok := f.registry[key]
	if !ok {
		logger.Debug("no executor registered", zap.String("key", key))
		return nil, ErrUnsupportedAdapter
	}
	executor := constructor()
	f.cache.Set(key, executor, c.NoExpiration)
	return executor, nil
}

func (f *Factory) CreateForAdapter(a *model.Adapter) (AdapterExecutor, error) {
	return f.CreateAdapter(string(a.Type), string(a.Direction))
}

// SupportedAdapters enumerates the registered combinations in stable order.
func (f *Factory) SupportedAdapters() []SupportedAdapter {
	keys := make([]string, 0, len(f.registry))
	for k := range f.registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]SupportedAdapter, 0, len(keys))
	for _, k := range keys {
		parts := strings.SplitN(k, "_", 2)
		out = append(out, SupportedAdapter{
			Type:      model.AdapterType(parts[0]),
			Direction: model.AdapterDirection(parts[1]),
		})
	}
	return out
}

// ClearCache drops all memoized executors. The next lookup re-runs the
// constructor.
func (f *Factory) ClearCache() {
	f.cache.Flush()
}

func cacheKey(t model.AdapterType, d model.AdapterDirection) string {
	return fmt.Sprintf("%s_%s", t, d)
}
