// Package timeutil provides a stoppable one-shot timer that reports its state.
package timeutil

import (
	"sync"
	"time"
)

// TimerState is the state of a [Timer].
type TimerState string

const (
	TimerStateRunning TimerState = "running"
	TimerStateStopped TimerState = "stopped"
	TimerStateExpired TimerState = "expired"
)

// Timer calls its callback once after the duration unless stopped before.
// Unlike [time.Timer] it tells whether the callback already ran.
type Timer struct {
	start    time.Time
	duration time.Duration

	mu    sync.Mutex
	state TimerState
	timer *time.Timer
}

// AfterFunc starts a timer that calls f in its own goroutine after d.
func AfterFunc(d time.Duration, f func()) *Timer {
	t := &Timer{
		start:    time.Now(),
		duration: d,
		state:    TimerStateRunning,
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.state != TimerStateRunning {
			t.mu.Unlock()
			return
		}
		t.state = TimerStateExpired
		t.mu.Unlock()

		f()
	})
	return t
}

// Stop prevents the callback from running.
// It returns false if the timer already expired or was stopped.
func (t *Timer) Stop() bool {
	if t == nil {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TimerStateRunning {
		return false
	}
	t.state = TimerStateStopped
	t.timer.Stop()
	return true
}

// State returns the current state.
func (t *Timer) State() TimerState {
	if t == nil {
		return ""
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Left returns the time left until expiration, zero for a stopped or expired timer.
func (t *Timer) Left() time.Duration {
	if t == nil {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TimerStateRunning {
		return 0
	}
	return max(t.duration-time.Since(t.start), 0)
}
