package mode

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/eyra/internal/capture"
	"github.com/rbright/eyra/internal/completion"
	"github.com/rbright/eyra/internal/console"
	"github.com/rbright/eyra/internal/conversation"
	"github.com/rbright/eyra/internal/hotkey"
)

var (
	toLive   = hotkey.MustParseChord("shift+ctrl+m")
	toManual = hotkey.MustParseChord("shift+ctrl+l")
)

type fakeCapturer struct {
	mu      sync.Mutex
	calls   []capture.Source
	failOn  map[int]error
	payload []byte
}

func (f *fakeCapturer) Capture(_ context.Context, source capture.Source) (conversation.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, source)
	if err, ok := f.failOn[len(f.calls)]; ok {
		return conversation.Image{}, err
	}
	payload := f.payload
	if payload == nil {
		payload = []byte("mock-image")
	}
	return conversation.Image{MIMEType: "image/jpeg", Data: payload, Path: "/tmp/eyra-capture.jpg"}, nil
}

func (f *fakeCapturer) Calls() []capture.Source {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]capture.Source(nil), f.calls...)
}

type fakeSpeaker struct {
	mu     sync.Mutex
	spoken []string
	err    error
}

func (f *fakeSpeaker) Speak(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
	return f.err
}

func (f *fakeSpeaker) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.spoken)
}

type fakeJournal struct {
	mu       sync.Mutex
	turns    []conversation.Turn
	handoffs []string
}

func (f *fakeJournal) RecordTurn(_ context.Context, _ string, turn conversation.Turn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, turn)
	return nil
}

func (f *fakeJournal) RecordHandoff(_ context.Context, from string, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handoffs = append(f.handoffs, from+"->"+to)
	return nil
}

// blockingCompleter waits for release before replying.
type blockingCompleter struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingCompleter) Complete(ctx context.Context, _ []conversation.Turn) (string, error) {
	b.calls.Add(1)
	close(b.started)
	select {
	case <-b.release:
		return "finished", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type harness struct {
	deps      Deps
	out       *bytes.Buffer
	capturer  *fakeCapturer
	speaker   *fakeSpeaker
	journal   *fakeJournal
	relay     *hotkey.Relay
	completer *completion.Mock
}

func newHarness(t *testing.T, input io.Reader, completer completion.Completer) *harness {
	t.Helper()
	out := &bytes.Buffer{}
	h := &harness{
		out:      out,
		capturer: &fakeCapturer{failOn: map[int]error{}},
		speaker:  &fakeSpeaker{},
		journal:  &fakeJournal{},
		relay:    hotkey.NewRelay(),
	}
	if completer == nil {
		h.completer = completion.NewMock()
		completer = h.completer
	} else if mock, ok := completer.(*completion.Mock); ok {
		h.completer = mock
	}
	h.deps = Deps{
		Store:     conversation.NewStore("You are Eyra."),
		Completer: completer,
		Capturer:  h.capturer,
		Speaker:   h.speaker,
		Watcher:   h.relay,
		Console:   console.New(input, out),
		Journal:   h.journal,
		Settings: Settings{
			ToLive:       toLive,
			ToManual:     toManual,
			LivePrompt:   "Tell me what you see generally in the photo. Keep it short. Max 20 words.",
			LiveInterval: 5 * time.Millisecond,
		},
		Now: func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) },
	}
	return h
}

func runAsync(ctx context.Context, m Mode) <-chan runResult {
	done := make(chan runResult, 1)
	go func() {
		signal, err := m.Run(ctx)
		done <- runResult{signal: signal, err: err}
	}()
	return done
}

type runResult struct {
	signal Signal
	err    error
}

func waitResult(t *testing.T, done <-chan runResult) runResult {
	t.Helper()
	select {
	case res := <-done:
		return res
	case <-time.After(3 * time.Second):
		t.Fatal("mode did not return")
		return runResult{}
	}
}

func TestParseKindAndOther(t *testing.T) {
	kind, err := ParseKind("1")
	require.NoError(t, err)
	require.Equal(t, KindManual, kind)

	kind, err = ParseKind(" Live ")
	require.NoError(t, err)
	require.Equal(t, KindLive, kind)
	require.Equal(t, KindManual, kind.Other())
	require.Equal(t, KindLive, KindManual.Other())

	_, err = ParseKind("3")
	require.Error(t, err)

	require.Equal(t, "switch", SignalSwitch.String())
	require.Equal(t, "terminate", SignalTerminate.String())
}

func TestAdapterErrorUnwraps(t *testing.T) {
	cause := errors.New("no camera")
	err := error(&AdapterError{Op: "capture", Err: cause})
	require.ErrorIs(t, err, cause)
	require.Equal(t, "capture: no camera", err.Error())
}

func TestSessionSwitchIsOneShot(t *testing.T) {
	s := newSession()
	s.requestSwitch()
	s.requestSwitch()
	require.True(t, s.switchRequested.Load())
	select {
	case <-s.switched:
	default:
		t.Fatal("switched channel not closed")
	}
}
