// Package timer provides keyed one-shot timers for lifecycle deadlines.
//
// The engine holds no durable state: after a restart every timer is
// re-armed from persisted deadlines by the recovery scan, so losing the
// in-memory schedule can never lose a transition.
package timer

import (
	"sync"
	"time"
)

// Callback runs when a timer fires. Callbacks must re-validate current
// state themselves: cancellation is advisory and a callback may fire for
// a giveaway that was retired after the timer was armed.
type Callback func()

type keyState struct {
	timer *time.Timer // nil when nothing is pending
	gen   uint64      // bumped on every arm/cancel; stale fires check it
	runMu sync.Mutex  // serializes callback runs for the key
	runs  int         // claimed fires not yet finished
}

// Engine schedules callbacks at absolute instants, one pending timer per
// key. For a given key at most one callback invocation is in flight at a
// time.
type Engine struct {
	mu      sync.Mutex
	keys    map[string]*keyState
	wg      sync.WaitGroup
	stopped bool
}

func New() *Engine {
	return &Engine{keys: make(map[string]*keyState)}
}

// Arm schedules fn to run at or after the target instant. A target in
// the past fires as soon as possible. Re-arming an existing key replaces
// its pending timer; this happens only during recovery, never in steady
// state.
func (e *Engine) Arm(key string, at time.Time, fn Callback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}

	ks := e.keys[key]
	if ks == nil {
		ks = &keyState{}
		e.keys[key] = ks
	}
	if ks.timer != nil {
		ks.timer.Stop()
	}
	ks.gen++
	gen := ks.gen

	d := time.Until(at)
	if d < 0 {
		d = 0
	}
	ks.timer = time.AfterFunc(d, func() { e.fire(key, gen, fn) })
}

// Cancel drops the pending timer for key, if any. Best-effort: a
// callback that already began executing is not preempted.
func (e *Engine) Cancel(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ks := e.keys[key]
	if ks == nil {
		return
	}
	if ks.timer != nil {
		ks.timer.Stop()
		ks.timer = nil
	}
	ks.gen++
	if ks.runs == 0 {
		delete(e.keys, key)
	}
}

// Pending reports whether a timer is armed for key.
func (e *Engine) Pending(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ks := e.keys[key]
	return ks != nil && ks.timer != nil
}

// Stop drops all pending timers and waits for in-flight callbacks to
// finish. The engine accepts no arms afterwards.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopped = true
	for _, ks := range e.keys {
		if ks.timer != nil {
			ks.timer.Stop()
			ks.timer = nil
		}
	}
	e.mu.Unlock()
	e.wg.Wait()
}

func (e *Engine) fire(key string, gen uint64, fn Callback) {
	e.mu.Lock()
	ks := e.keys[key]
	if e.stopped || ks == nil || ks.gen != gen {
		// Replaced or canceled while the runtime timer was firing.
		e.mu.Unlock()
		return
	}
	ks.timer = nil
	ks.runs++
	e.wg.Add(1)
	e.mu.Unlock()

	defer e.wg.Done()

	ks.runMu.Lock()
	fn()
	ks.runMu.Unlock()

	e.mu.Lock()
	ks.runs--
	if ks.runs == 0 && ks.timer == nil && e.keys[key] == ks {
		delete(e.keys, key)
	}
	e.mu.Unlock()
}
