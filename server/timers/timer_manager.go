package timers

import (
	"time"

	"github.com/RussellLuo/timingwheel"
)

// TimerManager wraps a hashed timing wheel used to arm flow schedules.
type TimerManager struct {
	wheel *timingwheel.TimingWheel
}

func NewTimerManager(maxDelayInSeconds int64) *TimerManager {
	return &TimerManager{
		wheel: timingwheel.NewTimingWheel(time.Second, maxDelayInSeconds),
	}
}

func (m *TimerManager) AddTask(task func(), delay time.Duration) {
	m.wheel.AfterFunc(delay, task)
}

func (m *TimerManager) Init() {
	m.wheel.Start()
}

func (m *TimerManager) Stop() {
	m.wheel.Stop()
}
