// Package clock abstracts wall-clock reads so that timers and decaying
// samples can be driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// System is the process wall clock.
var System Clock = systemClock{}

// Manual is a Clock that only moves when told to. It is safe for concurrent
// use.
type Manual struct {
	mutex sync.Mutex
	now   time.Time
}

// NewManual returns a clock frozen at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.now
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.now = m.now.Add(d)
}

func (m *Manual) Set(t time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.now = t
}
