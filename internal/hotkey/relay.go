package hotkey

import (
	"context"
	"sync"
)

// Relay is an in-process watcher fired by external requests, such as a
// compositor keybind that runs `eyra switch`.
type Relay struct {
	mu   sync.Mutex
	next uint64
	regs map[uint64]relayEntry
}

type relayEntry struct {
	chord Chord
	reg   *registration
}

// NewRelay returns an empty relay.
func NewRelay() *Relay {
	return &Relay{regs: make(map[uint64]relayEntry)}
}

func (r *Relay) Watch(ctx context.Context, chord Chord, fire func()) (Registration, error) {
	r.mu.Lock()
	id := r.next
	r.next++
	r.mu.Unlock()

	reg := newRegistration(fire, func() {
		r.mu.Lock()
		delete(r.regs, id)
		r.mu.Unlock()
	})

	r.mu.Lock()
	r.regs[id] = relayEntry{chord: chord, reg: reg}
	r.mu.Unlock()
	reg.arm(ctx)
	return reg, nil
}

// TriggerAll fires every live registration and returns how many fired.
func (r *Relay) TriggerAll() int {
	return r.trigger(func(Chord) bool { return true })
}

// Trigger fires registrations whose chord equals chord.
func (r *Relay) Trigger(chord Chord) int {
	return r.trigger(chord.Equal)
}

// Registered returns the chords currently awaited.
func (r *Relay) Registered() []Chord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Chord, 0, len(r.regs))
	for _, entry := range r.regs {
		out = append(out, entry.chord)
	}
	return out
}

func (r *Relay) trigger(match func(Chord) bool) int {
	r.mu.Lock()
	pending := make([]*registration, 0, len(r.regs))
	for _, entry := range r.regs {
		if match(entry.chord) {
			pending = append(pending, entry.reg)
		}
	}
	r.mu.Unlock()

	fired := 0
	for _, reg := range pending {
		if reg.trigger() {
			fired++
		}
	}
	return fired
}
