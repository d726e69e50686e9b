package pool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cjbester78/h2h/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultPoolsConfig() config.PoolsConfig {
	return config.PoolsConfig{PrimarySize: 2, AdapterSize: 2, FlowSize: 2, MonitoringSize: 1}
}

func TestPoolRunsTasks(t *testing.T) {
	p := New("test", 2, 4, CALLER_RUNS, time.Second)
	defer p.Shutdown()

	var count int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		ok := p.Submit(func() {
			defer wg.Done()
			atomic.AddInt32(&count, 1)
		})
		require.True(t, ok)
	}
	wg.Wait()
	assert.Equal(t, int32(10), atomic.LoadInt32(&count))
}

// saturate occupies the pool's single worker and fills its single queue
// slot, so the next submission hits the overflow policy.
func saturate(p *Pool, gate chan struct{}) {
	started := make(chan struct{})
	p.Submit(func() {
		close(started)
		<-gate
	})
	<-started
	p.Submit(func() { <-gate })
}

func TestCallerRunsOverflow(t *testing.T) {
	gate := make(chan struct{})
	p := New("test", 1, 1, CALLER_RUNS, time.Second)
	saturate(p, gate)

	// the pool is saturated: this submission must run on the caller
	ran := false
	ok := p.Submit(func() { ran = true })
	assert.True(t, ok)
	assert.True(t, ran, "caller-runs policy must execute overflow inline")

	close(gate)
	p.Shutdown()
	assert.Equal(t, int64(0), p.Dropped())
}

func TestDiscardOverflow(t *testing.T) {
	gate := make(chan struct{})
	p := New("test", 1, 1, DISCARD, 0)
	saturate(p, gate)

	ran := false
	ok := p.Submit(func() { ran = true })
	assert.False(t, ok, "discard policy must drop overflow")
	assert.False(t, ran)
	assert.Equal(t, int64(1), p.Dropped())

	close(gate)
	p.Shutdown()
}

func TestSubmitAfterShutdown(t *testing.T) {
	p := New("test", 1, 1, CALLER_RUNS, time.Second)
	p.Shutdown()
	ok := p.Submit(func() {})
	assert.False(t, ok)
}

func TestShutdownWaitsForInFlight(t *testing.T) {
	p := New("test", 1, 1, CALLER_RUNS, 5*time.Second)

	var done int32
	p.Submit(func() {
		time.Sleep(50 * time.Millisecond)
		atomic.StoreInt32(&done, 1)
	})
	p.Shutdown()
	assert.Equal(t, int32(1), atomic.LoadInt32(&done), "shutdown must wait for the in-flight task")
}

func TestSubmitShutdownRace(t *testing.T) {
	for i := 0; i < 20; i++ {
		p := New("test", 2, 1, CALLER_RUNS, time.Second)
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					// must never panic with "send on closed channel"
					p.Submit(func() {})
				}
			}()
		}
		p.Shutdown()
		wg.Wait()
	}
}

func TestPoolsShutdownDrainsFlowBeforeAdapter(t *testing.T) {
	pools := NewPools(defaultPoolsConfig())

	// an in-flight flow task dispatches to the adapter pool mid-shutdown;
	// the adapter pool must still accept it
	dispatched := make(chan bool, 1)
	ok := pools.Flow.Submit(func() {
		time.Sleep(50 * time.Millisecond)
		dispatched <- pools.Adapter.Submit(func() {})
	})
	require.True(t, ok)

	pools.Shutdown()
	assert.True(t, <-dispatched, "adapter pool refused a dispatch from a draining flow")
}

func TestPoolsShapes(t *testing.T) {
	pools := NewPools(defaultPoolsConfig())
	defer pools.Shutdown()

	assert.Equal(t, CALLER_RUNS, pools.Primary.policy)
	assert.Equal(t, CALLER_RUNS, pools.Adapter.policy)
	assert.Equal(t, CALLER_RUNS, pools.Flow.policy)
	assert.Equal(t, DISCARD, pools.Monitoring.policy)

	assert.Equal(t, 30*time.Second, pools.Primary.grace)
	assert.Equal(t, 60*time.Second, pools.Adapter.grace)
	assert.Equal(t, 120*time.Second, pools.Flow.grace)
	assert.Equal(t, time.Duration(0), pools.Monitoring.grace)
}
