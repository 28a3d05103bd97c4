package hotkey

import (
	"context"
	"sync"
	"sync/atomic"
)

// Watcher registers one-shot chord callbacks.
type Watcher interface {
	// Watch arranges for fire to run at most once when chord is observed. The
	// registration ends when the chord fires, Stop is called, or ctx is done.
	Watch(ctx context.Context, chord Chord, fire func()) (Registration, error)
}

// Registration is a live chord subscription.
type Registration interface {
	// Stop deregisters the callback. It is safe to call more than once.
	Stop()
}

type registration struct {
	done     atomic.Bool
	stopOnce sync.Once
	fire     func()
	release  func()

	mu     sync.Mutex
	detach func() bool
}

// newRegistration returns an unarmed registration. Callers publish it
// wherever release expects to find it, then call arm.
func newRegistration(fire func(), release func()) *registration {
	return &registration{fire: fire, release: release}
}

// arm stops the registration when ctx is done. A ctx that is already done
// stops it right away.
func (r *registration) arm(ctx context.Context) {
	detach := context.AfterFunc(ctx, r.Stop)
	r.mu.Lock()
	r.detach = detach
	r.mu.Unlock()
	if r.done.Load() {
		detach()
	}
}

func (r *registration) finish() {
	r.mu.Lock()
	detach := r.detach
	r.mu.Unlock()
	if detach != nil {
		detach()
	}
	if r.release != nil {
		r.release()
	}
}

// trigger runs fire if the registration is still live, then releases it.
func (r *registration) trigger() bool {
	if !r.done.CompareAndSwap(false, true) {
		return false
	}
	if r.fire != nil {
		r.fire()
	}
	r.stopOnce.Do(r.finish)
	return true
}

func (r *registration) Stop() {
	r.done.Store(true)
	r.stopOnce.Do(r.finish)
}

func (r *registration) active() bool {
	return !r.done.Load()
}
