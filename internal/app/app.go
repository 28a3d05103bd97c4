// Package app dispatches parsed CLI commands onto the eyra runtime.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/rbright/eyra/internal/audio"
	"github.com/rbright/eyra/internal/cli"
	"github.com/rbright/eyra/internal/config"
	"github.com/rbright/eyra/internal/doctor"
	"github.com/rbright/eyra/internal/hypr"
	"github.com/rbright/eyra/internal/ipc"
	"github.com/rbright/eyra/internal/journal"
	"github.com/rbright/eyra/internal/logging"
	"github.com/rbright/eyra/internal/version"
)

const dotenvPath = ".env"

// Runner executes one CLI invocation against injectable streams.
type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// Binder installs compositor keybinds for the mode-switch chords. Nil
	// selects hyprctl when a Hyprland session is detected.
	Binder hypr.Binder
	// Probes overrides doctor's environment lookups.
	Probes doctor.Probes
}

// Execute runs args with process-level streams and returns the exit code.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	r := Runner{Stdin: stdin, Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(ctx, args, r.Stdout, r.Stderr)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		fmt.Fprintln(r.Stderr, "Run 'eyra --help' for usage.")
		return 2
	}

	if parsed.ShowHelp {
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New(logging.Options{Debug: parsed.Debug})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath, config.Sources{Dotenv: dotenvPath})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
		"provider", cfgLoaded.Config.Provider,
	)

	switch parsed.Command {
	case cli.CommandRun:
		return r.commandRun(ctx, cfgLoaded.Config, parsed, logger)
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded, r.Probes)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandSessions:
		return r.commandSessions(ctx, cfgLoaded.Config, parsed.Limit)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandSwitch:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandSwitch})
	case cli.CommandChord:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandChord, Chord: parsed.Chord})
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListSinks(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio output devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandSessions(ctx context.Context, cfg config.Config, limit int) int {
	path, err := journalPath(cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	store, err := journal.Open(path)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer store.Close()

	list, err := store.RecentSessions(ctx, limit)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: list sessions: %v\n", err)
		return 1
	}
	if len(list) == 0 {
		fmt.Fprintln(r.Stdout, "No sessions found.")
		return 0
	}

	w := tabwriter.NewWriter(r.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tENDED\tTURNS\tHANDOFFS")
	for _, s := range list {
		ended := "-"
		if s.EndedAt != nil {
			ended = s.EndedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
			s.ID,
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			ended,
			s.Turns,
			s.Handoffs,
		)
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	resp, err := ipc.Call(ctx, ipc.Request{Command: ipc.CommandStatus})
	if errors.Is(err, ipc.ErrNotRunning) {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Mode == "" {
		resp.Mode = "starting"
	}
	fmt.Fprintln(r.Stdout, resp.Mode)
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, req ipc.Request) int {
	resp, err := ipc.Call(ctx, req)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func journalPath(cfg config.Config) (string, error) {
	if cfg.Journal.Path != "" {
		return cfg.Journal.Path, nil
	}
	return journal.DefaultPath()
}
