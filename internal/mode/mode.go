// Package mode runs the Manual and Live loops and hands the shared
// conversation between them.
package mode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rbright/eyra/internal/capture"
	"github.com/rbright/eyra/internal/completion"
	"github.com/rbright/eyra/internal/config"
	"github.com/rbright/eyra/internal/console"
	"github.com/rbright/eyra/internal/conversation"
	"github.com/rbright/eyra/internal/hotkey"
	"github.com/rbright/eyra/internal/indicator"
	"github.com/rbright/eyra/internal/logging"
	"github.com/rbright/eyra/internal/speech"
)

// Kind identifies one of the two modes.
type Kind string

const (
	KindManual Kind = "manual"
	KindLive   Kind = "live"
)

// Other returns the mode a switch leads to.
func (k Kind) Other() Kind {
	if k == KindLive {
		return KindManual
	}
	return KindLive
}

// Label is the display name used in banners and notifications.
func (k Kind) Label() string {
	if k == KindLive {
		return "Live"
	}
	return "Manual"
}

// ParseKind accepts "manual", "live", "1" or "2".
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", string(KindManual):
		return KindManual, nil
	case "2", string(KindLive):
		return KindLive, nil
	default:
		return "", fmt.Errorf("unknown mode %q", raw)
	}
}

// Signal is the outcome of one Run.
type Signal int

const (
	SignalTerminate Signal = iota + 1
	SignalSwitch
)

func (s Signal) String() string {
	switch s {
	case SignalTerminate:
		return "terminate"
	case SignalSwitch:
		return "switch"
	default:
		return "unknown"
	}
}

// Mode is one interactive loop over the shared store.
type Mode interface {
	Kind() Kind
	// Run blocks until the user quits, a switch is requested, or ctx is done.
	// The chord registration is released before Run returns.
	Run(ctx context.Context) (Signal, error)
	// SwitchRequested reports whether the last Run observed its switch chord.
	SwitchRequested() bool
}

// Journal receives every appended turn and every hand-off.
type Journal interface {
	RecordTurn(ctx context.Context, mode string, turn conversation.Turn) error
	RecordHandoff(ctx context.Context, from string, to string) error
}

type nopJournal struct{}

func (nopJournal) RecordTurn(context.Context, string, conversation.Turn) error { return nil }
func (nopJournal) RecordHandoff(context.Context, string, string) error          { return nil }

// Settings are the mode-level knobs taken from config.
type Settings struct {
	ToLive       hotkey.Chord
	ToManual     hotkey.Chord
	LivePrompt   string
	LiveInterval time.Duration
}

// SettingsFromConfig resolves chords and live settings from cfg.
func SettingsFromConfig(cfg config.Config) (Settings, error) {
	toLive, err := hotkey.ParseChord(cfg.Hotkeys.ToLive)
	if err != nil {
		return Settings{}, fmt.Errorf("hotkeys.to_live: %w", err)
	}
	toManual, err := hotkey.ParseChord(cfg.Hotkeys.ToManual)
	if err != nil {
		return Settings{}, fmt.Errorf("hotkeys.to_manual: %w", err)
	}
	return Settings{
		ToLive:       toLive,
		ToManual:     toManual,
		LivePrompt:   cfg.Live.Prompt,
		LiveInterval: time.Duration(cfg.Live.IntervalMS) * time.Millisecond,
	}, nil
}

// Deps are the collaborators every mode shares. Store is handed between
// modes by pointer and is never replaced.
type Deps struct {
	Store     *conversation.Store
	Completer completion.Completer
	Capturer  capture.Capturer
	Speaker   speech.Speaker
	Watcher   hotkey.Watcher
	Console   *console.Console
	Journal   Journal
	Indicator indicator.Controller
	Logger    *slog.Logger
	Settings  Settings

	// Now is swapped in tests.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Speaker == nil {
		d.Speaker = speech.None{}
	}
	if d.Watcher == nil {
		d.Watcher = hotkey.NewRelay()
	}
	if d.Journal == nil {
		d.Journal = nopJournal{}
	}
	if d.Indicator == nil {
		d.Indicator = indicator.Nop{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	d.Logger = logging.OrDiscard(d.Logger)
	return d
}

// AdapterError wraps a failed capture, completion, or speech call.
type AdapterError struct {
	Op  string
	Err error
	// Dropped is typed text taken back out of the store because the call failed.
	Dropped string
}

func (e *AdapterError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// session is the per-Run state. It is discarded when Run returns.
type session struct {
	switchRequested atomic.Bool
	switched        chan struct{}
	once            sync.Once
}

func newSession() *session {
	return &session{switched: make(chan struct{})}
}

func (s *session) requestSwitch() {
	s.once.Do(func() {
		s.switchRequested.Store(true)
		close(s.switched)
	})
}

// base carries what Manual and Live share.
type base struct {
	kind    Kind
	deps    Deps
	current atomic.Pointer[session]
}

func newBase(kind Kind, deps Deps) base {
	return base{kind: kind, deps: deps.withDefaults()}
}

func (b *base) Kind() Kind {
	return b.kind
}

func (b *base) SwitchRequested() bool {
	s := b.current.Load()
	return s != nil && s.switchRequested.Load()
}

// begin creates the run session and registers the one-shot switch chord.
// The returned release must be deferred by the caller.
func (b *base) begin(ctx context.Context, chord hotkey.Chord) (*session, func()) {
	s := newSession()
	b.current.Store(s)

	reg, err := b.deps.Watcher.Watch(ctx, chord, s.requestSwitch)
	if err != nil {
		b.deps.Logger.Warn("switch chord unavailable", "mode", string(b.kind), "chord", chord.String(), "error", err.Error())
		b.deps.Console.Printf("(switch shortcut unavailable: %v)\n", err)
		return s, func() {}
	}
	b.deps.Logger.Debug("switch chord registered", "mode", string(b.kind), "chord", chord.String())
	return s, reg.Stop
}

// complete runs one single-flight completion over the current transcript.
func (b *base) complete(ctx context.Context, spinner bool) (string, error) {
	b.deps.Indicator.ShowThinking(ctx)
	defer b.deps.Indicator.Hide(context.WithoutCancel(ctx))

	if spinner {
		s := b.deps.Console.StartSpinner("Thinking")
		defer s.Stop()
	}

	started := b.deps.Now()
	reply, err := b.deps.Completer.Complete(ctx, b.deps.Store.Turns())
	if err != nil {
		return "", &AdapterError{Op: "completion", Err: err}
	}
	b.deps.Logger.Debug("completion finished",
		"mode", string(b.kind),
		"turns", b.deps.Store.Len(),
		"elapsed_ms", b.deps.Now().Sub(started).Milliseconds(),
	)
	return reply, nil
}

func (b *base) capture(ctx context.Context, source capture.Source) (conversation.Image, error) {
	if b.deps.Capturer == nil {
		return conversation.Image{}, &AdapterError{Op: "capture", Err: fmt.Errorf("no capturer configured")}
	}
	img, err := b.deps.Capturer.Capture(ctx, source)
	if err != nil {
		return conversation.Image{}, &AdapterError{Op: "capture", Err: err}
	}
	return img, nil
}

// appendTurn appends to the store and mirrors the turn into the journal.
func (b *base) appendTurn(ctx context.Context, turn conversation.Turn) error {
	if err := b.deps.Store.Append(turn); err != nil {
		return err
	}
	b.record(ctx)
	return nil
}

func (b *base) record(ctx context.Context) {
	if err := b.deps.Journal.RecordTurn(context.WithoutCancel(ctx), string(b.kind), b.deps.Store.Last()); err != nil {
		b.deps.Logger.Warn("journal write failed", "mode", string(b.kind), "error", err.Error())
	}
}

// report shows an adapter failure without leaving the loop.
func (b *base) report(ctx context.Context, err error) {
	b.deps.Logger.Warn("adapter failure", "mode", string(b.kind), "error", err.Error())
	b.deps.Console.Printf("\n[Error] %v\n", err)
	var adapterErr *AdapterError
	if errors.As(err, &adapterErr) && adapterErr.Dropped != "" {
		b.deps.Console.Printf("Not kept in history: %q. Send it again to retry.\n", adapterErr.Dropped)
	}
	b.deps.Indicator.CueError(ctx)
	b.deps.Indicator.ShowError(ctx, err.Error())
}
