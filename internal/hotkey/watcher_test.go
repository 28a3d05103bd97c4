package hotkey

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func encodeEvent(typ, code uint16, value int32) []byte {
	buf := make([]byte, inputEventSize)
	binary.LittleEndian.PutUint16(buf[16:18], typ)
	binary.LittleEndian.PutUint16(buf[18:20], code)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(value))
	return buf
}

func TestDecodeEvent(t *testing.T) {
	ev := decodeEvent(encodeEvent(evKey, keyLeftShift, keyValuePress))
	require.Equal(t, inputEvent{Type: evKey, Code: keyLeftShift, Value: keyValuePress}, ev)
}

type pipeDevice struct {
	*io.PipeReader
	closed atomic.Bool
}

func (p *pipeDevice) Close() error {
	p.closed.Store(true)
	return p.PipeReader.Close()
}

func newFakeEvdev(t *testing.T) (*Evdev, *io.PipeWriter, *pipeDevice) {
	t.Helper()
	r, w := io.Pipe()
	dev := &pipeDevice{PipeReader: r}
	e := NewEvdev([]string{"/dev/input/event-test"}, nil)
	e.open = func(string) (io.ReadCloser, error) { return dev, nil }
	return e, w, dev
}

func TestEvdevFiresOnceOnFullChord(t *testing.T) {
	e, w, dev := newFakeEvdev(t)

	var fired atomic.Int32
	firedCh := make(chan struct{}, 1)
	reg, err := e.Watch(context.Background(), MustParseChord("shift+ctrl+m"), func() {
		fired.Add(1)
		firedCh <- struct{}{}
	})
	require.NoError(t, err)
	defer reg.Stop()

	go func() {
		for _, ev := range [][]byte{
			encodeEvent(evKey, keyLeftShift, keyValuePress),
			encodeEvent(0, 0, 0),
			encodeEvent(evKey, keyLeftCtrl, keyValuePress),
			encodeEvent(evKey, keyCodes["m"], keyValuePress),
			encodeEvent(evKey, keyCodes["m"], keyValueRelease),
			encodeEvent(evKey, keyCodes["m"], keyValuePress),
		} {
			if _, err := w.Write(ev); err != nil {
				return
			}
		}
	}()

	select {
	case <-firedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("chord did not fire")
	}
	require.Eventually(t, dev.closed.Load, time.Second, 10*time.Millisecond)
	require.Equal(t, int32(1), fired.Load())
}

func TestEvdevStopClosesDevicesWithoutFiring(t *testing.T) {
	e, _, dev := newFakeEvdev(t)

	var fired atomic.Int32
	reg, err := e.Watch(context.Background(), MustParseChord("shift+ctrl+l"), func() { fired.Add(1) })
	require.NoError(t, err)

	reg.Stop()
	reg.Stop()
	require.True(t, dev.closed.Load())
	require.Zero(t, fired.Load())
}

func TestEvdevContextCancelReleasesDevices(t *testing.T) {
	e, _, dev := newFakeEvdev(t)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := e.Watch(ctx, MustParseChord("shift+ctrl+l"), func() {})
	require.NoError(t, err)
	cancel()
	require.Eventually(t, dev.closed.Load, time.Second, 10*time.Millisecond)
}

func TestEvdevNoReadableDevices(t *testing.T) {
	e := NewEvdev([]string{"/dev/input/event-denied"}, nil)
	e.open = func(string) (io.ReadCloser, error) { return nil, errors.New("permission denied") }
	_, err := e.Watch(context.Background(), MustParseChord("shift+ctrl+m"), func() {})
	require.ErrorIs(t, err, ErrNoKeyboards)

	e = NewEvdev(nil, nil)
	e.glob = func(string) ([]string, error) { return nil, nil }
	_, err = e.Discover()
	require.ErrorIs(t, err, ErrNoKeyboards)
}

func TestRelayTriggerFiresMatchingRegistrationOnce(t *testing.T) {
	relay := NewRelay()
	var live, manual atomic.Int32

	_, err := relay.Watch(context.Background(), MustParseChord("shift+ctrl+m"), func() { live.Add(1) })
	require.NoError(t, err)
	_, err = relay.Watch(context.Background(), MustParseChord("shift+ctrl+l"), func() { manual.Add(1) })
	require.NoError(t, err)
	require.Len(t, relay.Registered(), 2)

	require.Equal(t, 1, relay.Trigger(MustParseChord("ctrl+shift+m")))
	require.Equal(t, 0, relay.Trigger(MustParseChord("ctrl+shift+m")))
	require.Equal(t, int32(1), live.Load())
	require.Zero(t, manual.Load())

	require.Equal(t, 1, relay.TriggerAll())
	require.Equal(t, int32(1), manual.Load())
	require.Empty(t, relay.Registered())
}

func TestRelayStoppedRegistrationNeverFires(t *testing.T) {
	relay := NewRelay()
	var fired atomic.Int32
	reg, err := relay.Watch(context.Background(), MustParseChord("shift+ctrl+m"), func() { fired.Add(1) })
	require.NoError(t, err)

	reg.Stop()
	require.Equal(t, 0, relay.TriggerAll())
	require.Zero(t, fired.Load())
}

func TestRelayWatchWithCancelledContextReleasesEntry(t *testing.T) {
	relay := NewRelay()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var fired atomic.Int32
	regs := make([]Registration, 0, 200)
	for range 200 {
		reg, err := relay.Watch(ctx, MustParseChord("shift+ctrl+m"), func() { fired.Add(1) })
		require.NoError(t, err)
		regs = append(regs, reg)
	}

	require.Eventually(t, func() bool { return len(relay.Registered()) == 0 }, time.Second, 5*time.Millisecond)
	require.Equal(t, 0, relay.TriggerAll())
	for _, reg := range regs {
		reg.Stop()
	}
	require.Zero(t, fired.Load())
}

func TestEvdevWatchWithCancelledContextClosesDevices(t *testing.T) {
	e, _, dev := newFakeEvdev(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reg, err := e.Watch(ctx, MustParseChord("shift+ctrl+l"), func() { t.Error("chord fired after cancel") })
	require.NoError(t, err)
	require.Eventually(t, dev.closed.Load, time.Second, 10*time.Millisecond)
	reg.Stop()
}

type failingWatcher struct{ err error }

func (f failingWatcher) Watch(context.Context, Chord, func()) (Registration, error) {
	return nil, f.err
}

func TestMultiFirstFireWinsAndStopsOthers(t *testing.T) {
	a, b := NewRelay(), NewRelay()
	multi := NewMulti(a, nil, b, failingWatcher{err: ErrNoKeyboards})

	var fired atomic.Int32
	reg, err := multi.Watch(context.Background(), MustParseChord("shift+ctrl+m"), func() { fired.Add(1) })
	require.NoError(t, err)
	require.NotNil(t, reg)

	require.Equal(t, 1, b.TriggerAll())
	require.Equal(t, 0, a.TriggerAll())
	require.Equal(t, int32(1), fired.Load())
	require.Empty(t, a.Registered())
}

func TestMultiAllWatchersFail(t *testing.T) {
	multi := NewMulti(failingWatcher{err: ErrNoKeyboards})
	_, err := multi.Watch(context.Background(), MustParseChord("shift+ctrl+m"), func() {})
	require.ErrorIs(t, err, ErrNoKeyboards)

	_, err = NewMulti().Watch(context.Background(), MustParseChord("shift+ctrl+m"), func() {})
	require.ErrorIs(t, err, ErrNoKeyboards)
}
