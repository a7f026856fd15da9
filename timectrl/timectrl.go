package timectrl

import (
	"sync"
	"time"
)

// Clock is the source of "now" for components that compare file or payload
// ages. Production code uses System; tests pin time with a Controller.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the wall clock.
func System() Clock { return systemClock{} }

// Controller is a manually driven Clock.
type Controller struct {
	mu          sync.RWMutex
	currentTime time.Time
}

// NewController returns a Controller reading start until changed.
func NewController(start time.Time) *Controller {
	return &Controller{currentTime: start}
}

// Now returns the controller's current time. Implements Clock.
func (tc *Controller) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// SetTime jumps the controller to t.
func (tc *Controller) SetTime(t time.Time) {
	tc.mu.Lock()
	tc.currentTime = t
	tc.mu.Unlock()
}

// Advance moves the controller forward by d and returns the new time.
func (tc *Controller) Advance(d time.Duration) time.Time {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.currentTime = tc.currentTime.Add(d)
	return tc.currentTime
}

// Or returns c, or the wall clock when c is nil.
func Or(c Clock) Clock {
	if c == nil {
		return System()
	}
	return c
}
