package hotkey

import (
	"context"
	"errors"
	"sync"
)

// Multi fans one registration out to several watchers; the first to fire wins.
type Multi struct {
	Watchers []Watcher
}

// NewMulti combines watchers. Nil entries are ignored.
func NewMulti(watchers ...Watcher) *Multi {
	m := &Multi{}
	for _, w := range watchers {
		if w != nil {
			m.Watchers = append(m.Watchers, w)
		}
	}
	return m
}

type multiRegistration struct {
	mu      sync.Mutex
	inner   []Registration
	stopped bool
}

func (m *multiRegistration) add(reg Registration) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		reg.Stop()
		return
	}
	m.inner = append(m.inner, reg)
	m.mu.Unlock()
}

func (m *multiRegistration) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	inner := m.inner
	m.inner = nil
	m.mu.Unlock()

	for _, reg := range inner {
		reg.Stop()
	}
}

// Watch succeeds when at least one underlying watcher accepts the registration.
func (m *Multi) Watch(ctx context.Context, chord Chord, fire func()) (Registration, error) {
	out := &multiRegistration{}
	var fireOnce sync.Once
	wrapped := func() {
		fireOnce.Do(func() {
			if fire != nil {
				fire()
			}
			out.Stop()
		})
	}

	var errs []error
	accepted := 0
	for _, w := range m.Watchers {
		reg, err := w.Watch(ctx, chord, wrapped)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		accepted++
		out.add(reg)
	}

	if accepted == 0 {
		if len(errs) == 0 {
			return nil, ErrNoKeyboards
		}
		return nil, errors.Join(errs...)
	}
	return out, nil
}
