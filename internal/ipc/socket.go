package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rbright/eyra/internal/logging"
)

// ErrAlreadyRunning is returned when a responsive owner already holds the socket.
var ErrAlreadyRunning = errors.New("eyra is already running")

const socketName = "eyra.sock"

// RuntimeSocketPath returns $XDG_RUNTIME_DIR/eyra.sock, or a per-user
// directory under the temp dir where no runtime dir exists (macOS).
func RuntimeSocketPath() (string, error) {
	if runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR")); runtimeDir != "" {
		return filepath.Join(runtimeDir, socketName), nil
	}
	uid := os.Getuid()
	if uid < 0 {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(os.TempDir(), "eyra-"+strconv.Itoa(uid), socketName), nil
}

// AcquireOptions tunes single-owner socket acquisition.
type AcquireOptions struct {
	// ProbeTimeout bounds the status round trip used to detect a live owner.
	ProbeTimeout time.Duration
	// Retries is how many extra listen attempts follow a stale-socket removal.
	Retries int
	Logger  *slog.Logger
}

// Acquire makes the caller the single owner of path. A socket left by a dead
// owner is removed; a responsive owner yields ErrAlreadyRunning.
func Acquire(ctx context.Context, path string, opts AcquireOptions) (net.Listener, error) {
	logger := logging.OrDiscard(opts.Logger)
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultTimeout
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		listener, err := net.Listen("unix", path)
		if err == nil {
			_ = os.Chmod(path, 0o600)
			logger.Debug("ipc socket acquired", "path", path, "attempt", attempt)
			return listener, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("listen unix %s: %w", path, err)
		}
		lastErr = err

		if err := removeStale(ctx, path, opts.ProbeTimeout); err != nil {
			return nil, err
		}
		logger.Info("removed stale ipc socket", "path", path)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(25*(attempt+1)) * time.Millisecond):
		}
	}

	return nil, fmt.Errorf("acquire socket %s after %d retries: %w", path, opts.Retries, lastErr)
}

// removeStale unlinks path only when no owner answers on it.
func removeStale(ctx context.Context, path string, probeTimeout time.Duration) error {
	alive, err := Probe(ctx, path, probeTimeout)
	if alive {
		return ErrAlreadyRunning
	}
	if err != nil {
		return fmt.Errorf("probe existing socket %s: %w", path, err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket %s: %w", path, err)
	}
	return nil
}
