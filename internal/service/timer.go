package service

import (
	"sync"
	"time"
)

// Timer tracks elapsed consultation time. Stopping is a one-way gate: once the
// doctor finishes writing, the timer never restarts automatically.
type Timer interface {
	Stop()
	Elapsed() time.Duration
	Running() bool
}

// consultationTimer is the default wall-clock timer.
type consultationTimer struct {
	mu      sync.Mutex
	started time.Time
	stopped time.Time
	running bool
}

// NewTimer starts a consultation timer.
func NewTimer() Timer {
	return &consultationTimer{
		started: time.Now(),
		running: true,
	}
}

// Stop halts the timer. Stopping an already-stopped timer is a no-op.
func (t *consultationTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.stopped = time.Now()
	t.running = false
}

// Elapsed returns the consultation duration so far.
func (t *consultationTimer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return time.Since(t.started)
	}
	return t.stopped.Sub(t.started)
}

// Running reports whether the timer is still counting.
func (t *consultationTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
