package diag

import (
	"sync"

	"go.uber.org/zap"
)

// Context carries the execution-scoped diagnostic keys (execution id, flow
// id/name, current step) through a pipeline run. It is an explicit value
// threaded through calls, never ambient state, so concurrent runs on pooled
// workers cannot leak keys into each other.
type Context struct {
	mu     sync.RWMutex
	values map[string]string
}

const KeyExecutionId = "executionId"
const KeyFlowId = "flowId"
const KeyFlowName = "flowName"
const KeyStep = "step"

func NewContext() *Context {
	return &Context{values: make(map[string]string)}
}

func (c *Context) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

func (c *Context) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Clear drops every key. Pipelines must call it on all exit paths.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[string]string)
}

func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Fields renders the current keys as zap fields for log statements inside
// the pipeline.
func (c *Context) Fields() []zap.Field {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fields := make([]zap.Field, 0, len(c.values))
	for k, v := range c.values {
		fields = append(fields, zap.String(k, v))
	}
	return fields
}
