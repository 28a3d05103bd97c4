package hotkey

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/rbright/eyra/internal/logging"
)

// ErrNoKeyboards is returned when no keyboard event device could be opened.
var ErrNoKeyboards = errors.New("no readable keyboard devices")

const (
	evKey = 1

	// struct input_event on 64-bit Linux: timeval (16) + type (2) + code (2) + value (4).
	inputEventSize = 24

	keyValueRelease = 0
	keyValuePress   = 1
	keyValueRepeat  = 2
)

// DefaultDeviceGlob matches keyboard event nodes exposed by udev.
const DefaultDeviceGlob = "/dev/input/by-path/*-event-kbd"

type inputEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

func decodeEvent(buf []byte) inputEvent {
	return inputEvent{
		Type:  binary.LittleEndian.Uint16(buf[16:18]),
		Code:  binary.LittleEndian.Uint16(buf[18:20]),
		Value: int32(binary.LittleEndian.Uint32(buf[20:24])),
	}
}

// Evdev watches raw Linux keyboard devices for chords. Reading requires
// membership in the input group.
type Evdev struct {
	Devices []string
	Logger  *slog.Logger

	open func(string) (io.ReadCloser, error)
	glob func(string) ([]string, error)
}

// NewEvdev returns an evdev watcher. An empty devices list means every
// keyboard under DefaultDeviceGlob.
func NewEvdev(devices []string, logger *slog.Logger) *Evdev {
	return &Evdev{Devices: devices, Logger: logger}
}

// Discover returns the keyboard device paths the watcher would open.
func (e *Evdev) Discover() ([]string, error) {
	if len(e.Devices) > 0 {
		return append([]string(nil), e.Devices...), nil
	}
	glob := e.glob
	if glob == nil {
		glob = filepath.Glob
	}
	paths, err := glob(DefaultDeviceGlob)
	if err != nil {
		return nil, fmt.Errorf("glob keyboards: %w", err)
	}
	if len(paths) == 0 {
		return nil, ErrNoKeyboards
	}
	return paths, nil
}

// Watch opens every keyboard and fires once when chord is fully held.
func (e *Evdev) Watch(ctx context.Context, chord Chord, fire func()) (Registration, error) {
	paths, err := e.Discover()
	if err != nil {
		return nil, err
	}

	open := e.open
	if open == nil {
		open = func(path string) (io.ReadCloser, error) { return os.Open(path) }
	}

	devices := make([]io.ReadCloser, 0, len(paths))
	for _, path := range paths {
		dev, err := open(path)
		if err != nil {
			e.logger().Debug("skip keyboard device", "path", path, "error", err.Error())
			continue
		}
		devices = append(devices, dev)
	}
	if len(devices) == 0 {
		return nil, ErrNoKeyboards
	}

	var closeOnce sync.Once
	closeAll := func() {
		closeOnce.Do(func() {
			for _, dev := range devices {
				_ = dev.Close()
			}
		})
	}

	reg := newRegistration(fire, closeAll)
	reg.arm(ctx)

	var mu sync.Mutex
	keys := NewKeySet()
	for _, dev := range devices {
		go e.read(dev, reg, chord, &mu, keys)
	}
	return reg, nil
}

func (e *Evdev) read(dev io.Reader, reg *registration, chord Chord, mu *sync.Mutex, keys *KeySet) {
	buf := make([]byte, inputEventSize)
	for reg.active() {
		if _, err := io.ReadFull(dev, buf); err != nil {
			if reg.active() {
				e.logger().Debug("keyboard read ended", "error", err.Error())
			}
			return
		}
		ev := decodeEvent(buf)
		if ev.Type != evKey {
			continue
		}

		mu.Lock()
		switch ev.Value {
		case keyValuePress, keyValueRepeat:
			keys.Press(ev.Code)
		case keyValueRelease:
			keys.Release(ev.Code)
		}
		matched := ev.Value == keyValuePress && keys.Matches(chord)
		mu.Unlock()

		if matched {
			reg.trigger()
			return
		}
	}
}

func (e *Evdev) logger() *slog.Logger {
	return logging.OrDiscard(e.Logger)
}
