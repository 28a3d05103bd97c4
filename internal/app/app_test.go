package app

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rbright/eyra/internal/audio"
	"github.com/rbright/eyra/internal/config"
	"github.com/rbright/eyra/internal/doctor"
	"github.com/rbright/eyra/internal/hotkey"
	"github.com/rbright/eyra/internal/ipc"
	"github.com/rbright/eyra/internal/logging"
	"github.com/rbright/eyra/internal/mode"
	"github.com/stretchr/testify/require"
)

func TestExecuteHelp(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"--help"}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "eyra")
	require.Contains(t, stdout.String(), "switch")
	require.Empty(t, stderr.String())
}

func TestExecuteVersion(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"version"}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.True(t, strings.HasPrefix(stdout.String(), "eyra "))
	require.Empty(t, stderr.String())
}

func TestExecuteUnknownCommand(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"definitely-not-a-command"}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, 2, exitCode)
	require.Contains(t, stderr.String(), "error:")
	require.Contains(t, stderr.String(), "eyra --help")
}

func TestRunnerStatusIdleWhenSocketUnavailable(t *testing.T) {
	paths := setupRunnerEnv(t, "{}")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "status"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "idle\n", stdout.String())
}

func TestRunnerSwitchWithoutOwnerFails(t *testing.T) {
	paths := setupRunnerEnv(t, "{}")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "switch"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "eyra is not running")
}

func TestRunnerForwardsCommandsToOwner(t *testing.T) {
	paths := setupRunnerEnv(t, "{}")
	requests := make(chan ipc.Request, 8)

	shutdown := startIPCServerForRunnerTest(t, filepath.Join(paths.runtimeDir, "eyra.sock"), func(_ context.Context, req ipc.Request) ipc.Response {
		requests <- req
		switch req.Command {
		case ipc.CommandStatus:
			return ipc.Response{OK: true, Mode: "live"}
		case ipc.CommandSwitch, ipc.CommandChord:
			return ipc.Response{OK: true, Fired: 1, Message: req.Command + " handled"}
		default:
			return ipc.Response{OK: false, Error: "unsupported"}
		}
	})
	defer shutdown()

	cases := []struct {
		args []string
		want string
	}{
		{args: []string{"status"}, want: "live\n"},
		{args: []string{"switch"}, want: "switch handled\n"},
		{args: []string{"chord", "ctrl+shift+l"}, want: "chord handled\n"},
	}
	for _, tc := range cases {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		runner := Runner{Stdout: stdout, Stderr: stderr}

		exitCode := runner.Execute(context.Background(), append([]string{"--config", paths.configPath}, tc.args...))
		require.Equal(t, 0, exitCode, tc.args)
		require.Equal(t, tc.want, stdout.String(), tc.args)
		require.Empty(t, stderr.String(), tc.args)
	}

	require.Equal(t, ipc.CommandStatus, (<-requests).Command)
	require.Equal(t, ipc.CommandSwitch, (<-requests).Command)
	chord := <-requests
	require.Equal(t, ipc.CommandChord, chord.Command)
	require.Equal(t, "ctrl+shift+l", chord.Chord)
}

func TestRunnerStatusReportsStartingWhenModeEmpty(t *testing.T) {
	paths := setupRunnerEnv(t, "{}")

	shutdown := startIPCServerForRunnerTest(t, filepath.Join(paths.runtimeDir, "eyra.sock"), func(context.Context, ipc.Request) ipc.Response {
		return ipc.Response{OK: true}
	})
	defer shutdown()

	var stdout bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &bytes.Buffer{}}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "status"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "starting\n", stdout.String())
}

func TestRunnerDoctorCommandDispatchesAndPrintsReport(t *testing.T) {
	paths := setupRunnerEnv(t, `{"provider": "gemini"}`)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	var stdout bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &bytes.Buffer{}, Probes: doctor.Probes{
		Keyboards: func() ([]string, error) { return nil, hotkey.ErrNoKeyboards },
		Sinks: func(context.Context) ([]audio.Device, error) {
			return []audio.Device{{ID: "speakers", Default: true}}, nil
		},
		HTTP: &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusNotFound, Body: http.NoBody}, nil
		})},
	}}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "doctor"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stdout.String(), "config: loaded")
	require.Contains(t, stdout.String(), "[FAIL] credentials")
	require.Contains(t, stdout.String(), "[OK] provider.endpoint")
	require.Contains(t, stdout.String(), `default sink "speakers"`)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestRunnerDevicesCommandDispatches(t *testing.T) {
	paths := setupRunnerEnv(t, "{}")
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	var stderr bytes.Buffer
	runner := Runner{Stdout: &bytes.Buffer{}, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "devices"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "error:")
}

func TestRunnerRunRequiresCredentials(t *testing.T) {
	paths := setupRunnerEnv(t, `{"provider": "openai"}`)
	t.Setenv("OPENAI_API_KEY", "")

	var stderr bytes.Buffer
	runner := Runner{Stdin: strings.NewReader(""), Stdout: &bytes.Buffer{}, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "OPENAI_API_KEY")
}

func TestRunnerRunRefusesSecondOwner(t *testing.T) {
	paths := setupRunnerEnv(t, mockConfig(t))

	shutdown := startIPCServerForRunnerTest(t, filepath.Join(paths.runtimeDir, "eyra.sock"), func(context.Context, ipc.Request) ipc.Response {
		return ipc.Response{OK: true, Mode: "manual"}
	})
	defer shutdown()

	var stderr bytes.Buffer
	runner := Runner{Stdin: strings.NewReader("1\n"), Stdout: &bytes.Buffer{}, Stderr: &stderr}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "eyra is already running")
}

func TestRunnerRunManualSessionWithMockProvider(t *testing.T) {
	paths := setupRunnerEnv(t, mockConfig(t))

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner := Runner{
		Stdin:  strings.NewReader("1\nhello\n/history\n/quit\n"),
		Stdout: &stdout,
		Stderr: &stderr,
	}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath})
	require.Equal(t, 0, exitCode, stderr.String())
	require.Contains(t, stdout.String(), "Eyra: This is a mock response.")
	require.Contains(t, stdout.String(), "user: hello")
	require.Contains(t, stdout.String(), "Goodbye!")

	_, statErr := os.Stat(filepath.Join(paths.runtimeDir, "eyra.sock"))
	require.ErrorIs(t, statErr, os.ErrNotExist)

	var sessions bytes.Buffer
	runner = Runner{Stdout: &sessions, Stderr: &bytes.Buffer{}}
	exitCode = runner.Execute(context.Background(), []string{"--config", paths.configPath, "sessions", "--limit", "5"})
	require.Equal(t, 0, exitCode)
	lines := strings.Split(strings.TrimSpace(sessions.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "HANDOFFS")
	require.Regexp(t, `\s2\s+0$`, lines[1])
}

func TestRunnerSessionsEmpty(t *testing.T) {
	paths := setupRunnerEnv(t, mockConfig(t))

	var stdout bytes.Buffer
	runner := Runner{Stdout: &stdout, Stderr: &bytes.Buffer{}}

	exitCode := runner.Execute(context.Background(), []string{"--config", paths.configPath, "sessions"})
	require.Equal(t, 0, exitCode)
	require.Equal(t, "No sessions found.\n", stdout.String())
}

func TestControlMuxRoutesSwitchAndChord(t *testing.T) {
	relay := hotkey.NewRelay()
	controller := mode.NewController(mode.Deps{})
	mux := newControlMux(controller, relay)

	resp := mux.Handle(context.Background(), ipc.Request{Command: ipc.CommandSwitch})
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "no mode is waiting")

	fired := make(chan struct{}, 1)
	_, err := relay.Watch(context.Background(), hotkey.MustParseChord("shift+ctrl+m"), func() { fired <- struct{}{} })
	require.NoError(t, err)

	resp = mux.Handle(context.Background(), ipc.Request{Command: ipc.CommandChord, Chord: "ctrl+shift+l"})
	require.True(t, resp.OK)
	require.Zero(t, resp.Fired)
	require.Contains(t, resp.Message, "is not bound")

	resp = mux.Handle(context.Background(), ipc.Request{Command: ipc.CommandChord, Chord: "nonsense+"})
	require.False(t, resp.OK)

	resp = mux.Handle(context.Background(), ipc.Request{Command: ipc.CommandChord, Chord: "ctrl+shift+m"})
	require.True(t, resp.OK)
	require.Equal(t, 1, resp.Fired)
	<-fired

	resp = mux.Handle(context.Background(), ipc.Request{Command: ipc.CommandStatus})
	require.True(t, resp.OK)
	require.Empty(t, resp.Mode)
}

func TestBindChordsInstallsAndRemovesBinds(t *testing.T) {
	binder := &fakeBinder{failOn: "ctrl+shift+l"}
	runner := Runner{Binder: binder}
	cfg := config.Default()
	cfg.Hotkeys.Backend = "ipc"

	chords := []hotkey.Chord{hotkey.MustParseChord("shift+ctrl+m"), hotkey.MustParseChord("shift+ctrl+l")}
	unbind := runner.bindChords(context.Background(), cfg, chords, logging.Discard())

	require.Len(t, binder.bound, 1)
	require.True(t, strings.HasSuffix(binder.bound[0], " chord ctrl+shift+m"))

	unbind()
	require.Equal(t, []string{"ctrl+shift+m"}, binder.unbound)

	cfg.Hotkeys.Backend = "evdev"
	runner.bindChords(context.Background(), cfg, chords, logging.Discard())()
	require.Len(t, binder.bound, 1)
}

type fakeBinder struct {
	mu      sync.Mutex
	failOn  string
	bound   []string
	unbound []string
}

func (b *fakeBinder) BindExec(_ context.Context, chord hotkey.Chord, command string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if chord.String() == b.failOn {
		return os.ErrPermission
	}
	b.bound = append(b.bound, command)
	return nil
}

func (b *fakeBinder) Unbind(_ context.Context, chord hotkey.Chord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unbound = append(b.unbound, chord.String())
	return nil
}

type runnerPaths struct {
	configPath string
	runtimeDir string
}

func setupRunnerEnv(t *testing.T, content string) runnerPaths {
	t.Helper()

	xdgStateHome := t.TempDir()
	runtimeDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", xdgStateHome)
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "")
	t.Setenv("EYRA_PROVIDER", "")
	t.Setenv("USE_MOCK_CLIENT", "")

	configPath := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	return runnerPaths{configPath: configPath, runtimeDir: runtimeDir}
}

func mockConfig(t *testing.T) string {
	t.Helper()
	return `{
  // canned completions, no devices
  "provider": "mock",
  "speech": {"backend": "none"},
  "hotkeys": {"backend": "ipc"},
  "indicator": {"enable": false, "sound_enable": false},
  "journal": {"path": "` + filepath.Join(t.TempDir(), "journal.db") + `"},
}`
}

func startIPCServerForRunnerTest(t *testing.T, socketPath string, handler func(context.Context, ipc.Request) ipc.Response) func() {
	t.Helper()

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ipc.Serve(ctx, listener, ipc.HandlerFunc(handler))
	}()

	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}
