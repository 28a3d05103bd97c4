// Package cli parses eyra's command line into a Parsed invocation.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/rbright/eyra/internal/hotkey"
)

type Command string

const (
	CommandRun      Command = "run"
	CommandSwitch   Command = "switch"
	CommandChord    Command = "chord"
	CommandStatus   Command = "status"
	CommandDevices  Command = "devices"
	CommandSessions Command = "sessions"
	CommandDoctor   Command = "doctor"
	CommandVersion  Command = "version"
	CommandHelp     Command = "help"
)

const defaultSessionLimit = 10

// Parsed is one resolved invocation.
type Parsed struct {
	Command    Command
	ConfigPath string
	Debug      bool
	Mode       string
	Chord      string
	Limit      int
	ShowHelp   bool
}

// Parse resolves args (without the program name). Help output goes to stdout
// and usage diagnostics to stderr; any returned error is a usage error.
func Parse(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}
	root := NewRootCommand(&parsed)
	root.Writer = stdout
	root.ErrWriter = stderr

	if err := root.Run(ctx, append([]string{"eyra"}, args...)); err != nil {
		return Parsed{}, err
	}
	return parsed, nil
}

// NewRootCommand builds the command tree. Actions only record the selected
// command into parsed; the app layer executes it.
func NewRootCommand(parsed *Parsed) *cli.Command {
	set := func(command Command, cmd *cli.Command) {
		parsed.Command = command
		parsed.ShowHelp = false
		parsed.ConfigPath = cmd.String("config")
		parsed.Debug = cmd.Bool("debug")
	}
	record := func(command Command) cli.ActionFunc {
		return func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() > 0 {
				return fmt.Errorf("unexpected arguments after command %q: %s", command, strings.Join(cmd.Args().Slice(), " "))
			}
			set(command, cmd)
			return nil
		}
	}

	runAction := func(ctx context.Context, cmd *cli.Command) error {
		if cmd.Args().Len() > 0 {
			return fmt.Errorf("unknown command: %s", cmd.Args().First())
		}
		if err := record(CommandRun)(ctx, cmd); err != nil {
			return err
		}
		parsed.Mode = strings.ToLower(strings.TrimSpace(cmd.String("mode")))
		switch parsed.Mode {
		case "", "manual", "live":
			return nil
		default:
			return fmt.Errorf("--mode must be one of: manual, live")
		}
	}

	return &cli.Command{
		Name:        "eyra",
		Usage:       "Screen-aware chat assistant with manual and live modes",
		HideVersion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: $XDG_CONFIG_HOME/eyra/config.jsonc)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			modeFlag(),
		},
		Action:         runAction,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Commands: []*cli.Command{
			{
				Name:   string(CommandRun),
				Usage:  "Start a session (default when no command is given)",
				Flags:  []cli.Flag{modeFlag()},
				Action: runAction,
			},
			{
				Name:   string(CommandSwitch),
				Usage:  "Ask the running session to switch modes",
				Action: record(CommandSwitch),
			},
			{
				Name:      string(CommandChord),
				Usage:     "Deliver a shortcut chord to the running session",
				ArgsUsage: "<chord>",
				Action: func(_ context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("usage: eyra chord <chord>")
					}
					raw := cmd.Args().First()
					if _, err := hotkey.ParseChord(raw); err != nil {
						return err
					}
					set(CommandChord, cmd)
					parsed.Chord = raw
					return nil
				},
			},
			{
				Name:   string(CommandStatus),
				Usage:  "Print the running session's mode",
				Action: record(CommandStatus),
			},
			{
				Name:   string(CommandDevices),
				Usage:  "List audio output devices",
				Action: record(CommandDevices),
			},
			{
				Name:  string(CommandSessions),
				Usage: "List recent journaled sessions",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of sessions to show",
						Value: defaultSessionLimit,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := record(CommandSessions)(ctx, cmd); err != nil {
						return err
					}
					parsed.Limit = int(cmd.Int("limit"))
					if parsed.Limit <= 0 {
						return fmt.Errorf("--limit must be > 0")
					}
					return nil
				},
			},
			{
				Name:   string(CommandDoctor),
				Usage:  "Run configuration and environment checks",
				Action: record(CommandDoctor),
			},
			{
				Name:   string(CommandVersion),
				Usage:  "Print version information",
				Action: record(CommandVersion),
			},
		},
	}
}

func modeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "mode",
		Usage: "Start in `MODE` (manual or live) instead of prompting",
	}
}
