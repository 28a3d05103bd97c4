// Package hypr wraps the hyprctl calls eyra makes against a running Hyprland session.
package hypr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rbright/eyra/internal/hotkey"
)

// Binder installs and removes runtime keybinds.
type Binder interface {
	BindExec(ctx context.Context, chord hotkey.Chord, command string) error
	Unbind(ctx context.Context, chord hotkey.Chord) error
}

// CLIBinder drives keybinds through `hyprctl keyword`.
type CLIBinder struct{}

// BindExec binds chord to run command for the lifetime of the compositor session.
func (CLIBinder) BindExec(ctx context.Context, chord hotkey.Chord, command string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return errors.New("bind command must not be empty")
	}
	mods, key := BindKeys(chord)
	return runHyprctl(ctx, "--quiet", "keyword", "bind", mods+", "+key+", exec, "+command)
}

// Unbind removes a keybind previously installed with BindExec.
func (CLIBinder) Unbind(ctx context.Context, chord hotkey.Chord) error {
	mods, key := BindKeys(chord)
	return runHyprctl(ctx, "--quiet", "keyword", "unbind", mods+", "+key)
}

// BindKeys renders chord in Hyprland's `MODS, key` bind syntax.
func BindKeys(chord hotkey.Chord) (string, string) {
	var mods []string
	if chord.Mods&hotkey.ModShift != 0 {
		mods = append(mods, "SHIFT")
	}
	if chord.Mods&hotkey.ModCtrl != 0 {
		mods = append(mods, "CTRL")
	}
	if chord.Mods&hotkey.ModAlt != 0 {
		mods = append(mods, "ALT")
	}
	if chord.Mods&hotkey.ModSuper != 0 {
		mods = append(mods, "SUPER")
	}
	return strings.Join(mods, " "), strings.ToUpper(chord.Key)
}

// Available reports whether a Hyprland session and hyprctl are reachable.
func Available() bool {
	if strings.TrimSpace(os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")) == "" {
		return false
	}
	_, err := exec.LookPath("hyprctl")
	return err == nil
}

func runHyprctl(ctx context.Context, args ...string) error {
	_, err := runHyprctlOutput(ctx, args...)
	return err
}

func runHyprctlOutput(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "hyprctl", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return nil, fmt.Errorf("hyprctl %v failed: %w", args, err)
		}
		return nil, fmt.Errorf("hyprctl %v failed: %w (%s)", args, err, trimmed)
	}
	return out, nil
}
