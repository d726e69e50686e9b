package pool

import (
	"time"

	"github.com/cjbester78/h2h/server/config"
)

// Pools segregates work by latency and criticality class. Flow and adapter
// pools get long shutdown grace so in-flight transfers are not severed;
// monitoring work is disposable.
type Pools struct {
	Primary    *Pool
	Adapter    *Pool
	Flow       *Pool
	Monitoring *Pool
}

func NewPools(conf config.PoolsConfig) *Pools {
	return &Pools{
		Primary:    New("primary", conf.PrimarySize, conf.PrimarySize*4, CALLER_RUNS, 30*time.Second),
		Adapter:    New("adapter", conf.AdapterSize, conf.AdapterSize*4, CALLER_RUNS, 60*time.Second),
		Flow:       New("flow", conf.FlowSize, conf.FlowSize*4, CALLER_RUNS, 120*time.Second),
		Monitoring: New("monitoring", conf.MonitoringSize, conf.MonitoringSize*2, DISCARD, 0),
	}
}

// Shutdown drains the flow pool before the adapter pool: flow tasks dispatch
// their stages to the adapter pool, so closing adapter intake first would
// strand every in-flight execution.
func (p *Pools) Shutdown() {
	p.Monitoring.Shutdown()
	p.Flow.Shutdown()
	p.Adapter.Shutdown()
	p.Primary.Shutdown()
}
