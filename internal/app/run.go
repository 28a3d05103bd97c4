package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rbright/eyra/internal/capture"
	"github.com/rbright/eyra/internal/cli"
	"github.com/rbright/eyra/internal/completion"
	"github.com/rbright/eyra/internal/config"
	"github.com/rbright/eyra/internal/console"
	"github.com/rbright/eyra/internal/conversation"
	"github.com/rbright/eyra/internal/hotkey"
	"github.com/rbright/eyra/internal/hypr"
	"github.com/rbright/eyra/internal/indicator"
	"github.com/rbright/eyra/internal/ipc"
	"github.com/rbright/eyra/internal/journal"
	"github.com/rbright/eyra/internal/mode"
	"github.com/rbright/eyra/internal/speech"
)

const (
	socketProbeTimeout = 180 * time.Millisecond
	socketRetries      = 8
)

// commandRun owns the runtime socket for the lifetime of one interactive session.
func (r Runner) commandRun(ctx context.Context, cfg config.Config, parsed cli.Parsed, logger *slog.Logger) int {
	if err := config.RequireCredentials(cfg); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	settings, err := mode.SettingsFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	var opts []mode.Option
	if parsed.Mode != "" {
		kind, err := mode.ParseKind(parsed.Mode)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 2
		}
		opts = append(opts, mode.WithInitial(kind))
	}

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	listener, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{
		ProbeTimeout: socketProbeTimeout,
		Retries:      socketRetries,
		Logger:       logger,
	})
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintf(r.Stderr, "error: %v; use `eyra switch` to change its mode\n", err)
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	completer, err := completion.New(ctx, completion.SettingsFromConfig(cfg))
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	speaker, err := speech.New(cfg.Speech, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	ind := indicator.New(cfg.Indicator, logger)
	defer ind.Wait()

	capturer := capture.New(cfg, logger)
	capturer.Shutter = ind.CueShutter
	if hypr.Available() {
		capturer.Monitor = hypr.QueryFocusedMonitor
	}

	relay := hotkey.NewRelay()
	watcher := r.watcher(cfg, relay, logger)

	unbind := r.bindChords(ctx, cfg, []hotkey.Chord{settings.ToLive, settings.ToManual}, logger)
	defer unbind()

	journalSession, closeJournal := r.openJournal(ctx, cfg, logger)
	defer closeJournal()

	deps := mode.Deps{
		Store:     conversation.NewStore(cfg.SystemPrompt),
		Completer: completer,
		Capturer:  capturer,
		Speaker:   speaker,
		Watcher:   watcher,
		Console:   console.New(r.Stdin, r.Stdout),
		Indicator: ind,
		Logger:    logger,
		Settings:  settings,
	}
	if journalSession != nil {
		deps.Journal = journalSession
	}
	controller := mode.NewController(deps, opts...)

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		server := &ipc.Server{Handler: newControlMux(controller, relay), Logger: logger}
		serverErrCh <- server.Serve(serverCtx, listener)
	}()

	runErr := controller.Run(ctx)
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	if runErr != nil {
		logger.Error("session failed", "error", runErr.Error())
		fmt.Fprintf(r.Stderr, "error: %v\n", runErr)
		return 1
	}
	logger.Info("session complete", "turns", deps.Store.Len()-1)
	return 0
}

// newControlMux exposes the running controller to `eyra status|switch|chord`.
func newControlMux(controller *mode.Controller, relay *hotkey.Relay) *ipc.Mux {
	mux := ipc.NewMux()
	mux.HandleFunc(ipc.CommandStatus, func(context.Context, ipc.Request) ipc.Response {
		return ipc.Response{OK: true, Mode: string(controller.Active())}
	})
	mux.HandleFunc(ipc.CommandSwitch, func(context.Context, ipc.Request) ipc.Response {
		fired := relay.TriggerAll()
		if fired == 0 {
			return ipc.Response{OK: false, Error: "no mode is waiting for a switch"}
		}
		return ipc.Response{OK: true, Fired: fired, Message: "switching from " + string(controller.Active())}
	})
	mux.HandleFunc(ipc.CommandChord, func(_ context.Context, req ipc.Request) ipc.Response {
		chord, err := hotkey.ParseChord(req.Chord)
		if err != nil {
			return ipc.Response{OK: false, Error: err.Error()}
		}
		fired := relay.Trigger(chord)
		if fired == 0 {
			return ipc.Response{OK: true, Message: fmt.Sprintf("%s is not bound in %s mode", chord, controller.Active())}
		}
		return ipc.Response{OK: true, Fired: fired, Message: "switching from " + string(controller.Active())}
	})
	return mux
}

func (r Runner) watcher(cfg config.Config, relay *hotkey.Relay, logger *slog.Logger) hotkey.Watcher {
	switch cfg.Hotkeys.Backend {
	case "evdev":
		return hotkey.NewEvdev(cfg.Hotkeys.Devices, logger)
	case "both":
		return hotkey.NewMulti(relay, hotkey.NewEvdev(cfg.Hotkeys.Devices, logger))
	default:
		return relay
	}
}

// bindChords routes compositor keybinds to `eyra chord` so chords work
// without evdev access. The returned func removes the binds.
func (r Runner) bindChords(ctx context.Context, cfg config.Config, chords []hotkey.Chord, logger *slog.Logger) func() {
	if cfg.Hotkeys.Backend == "evdev" {
		return func() {}
	}
	binder := r.Binder
	if binder == nil {
		if !hypr.Available() {
			return func() {}
		}
		binder = hypr.CLIBinder{}
	}
	exe, err := os.Executable()
	if err != nil {
		logger.Warn("resolve executable for keybinds failed", "error", err.Error())
		return func() {}
	}

	bound := make([]hotkey.Chord, 0, len(chords))
	for _, chord := range chords {
		if err := binder.BindExec(ctx, chord, exe+" chord "+chord.String()); err != nil {
			logger.Warn("bind chord failed", "chord", chord.String(), "error", err.Error())
			continue
		}
		bound = append(bound, chord)
	}
	return func() {
		unbindCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for _, chord := range bound {
			if err := binder.Unbind(unbindCtx, chord); err != nil {
				logger.Warn("unbind chord failed", "chord", chord.String(), "error", err.Error())
			}
		}
	}
}

// openJournal starts a journal session. Journal failures only disable
// journaling; they never stop the run.
func (r Runner) openJournal(ctx context.Context, cfg config.Config, logger *slog.Logger) (*journal.Session, func()) {
	if !cfg.Journal.Enable {
		return nil, func() {}
	}
	path, err := journalPath(cfg)
	if err != nil {
		logger.Warn("journal disabled", "error", err.Error())
		return nil, func() {}
	}
	store, err := journal.Open(path)
	if err != nil {
		fmt.Fprintf(r.Stderr, "warning: journal disabled: %v\n", err)
		logger.Warn("journal disabled", "path", path, "error", err.Error())
		return nil, func() {}
	}
	sess, err := store.StartSession(ctx)
	if err != nil {
		_ = store.Close()
		fmt.Fprintf(r.Stderr, "warning: journal disabled: %v\n", err)
		logger.Warn("journal disabled", "path", path, "error", err.Error())
		return nil, func() {}
	}
	logger.Debug("journal session started", "path", path, "session", sess.ID)
	return sess, func() {
		if err := sess.End(context.Background()); err != nil {
			logger.Warn("journal end failed", "error", err.Error())
		}
		_ = store.Close()
	}
}
