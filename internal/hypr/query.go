package hypr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoMonitors is returned when Hyprland reports no enabled outputs.
var ErrNoMonitors = errors.New("hyprctl monitors returned no outputs")

// DefaultNotifyColor is used when Notify is given no color.
const DefaultNotifyColor = "rgb(89b4fa)"

// Monitor is the subset of `hyprctl -j monitors` eyra reads.
type Monitor struct {
	Name     string `json:"name"`
	Focused  bool   `json:"focused"`
	Disabled bool   `json:"disabled"`
}

// Monitors lists the outputs known to the running compositor.
func Monitors(ctx context.Context) ([]Monitor, error) {
	raw, err := runHyprctlOutput(ctx, "-j", "monitors")
	if err != nil {
		return nil, err
	}
	var monitors []Monitor
	if err := json.Unmarshal(raw, &monitors); err != nil {
		return nil, fmt.Errorf("decode hyprctl monitors: %w", err)
	}
	for i := range monitors {
		monitors[i].Name = strings.TrimSpace(monitors[i].Name)
	}
	return monitors, nil
}

// PickCaptureMonitor prefers the focused output and otherwise falls back to
// the first enabled one. Disabled outputs are never picked.
func PickCaptureMonitor(monitors []Monitor) (string, error) {
	first := ""
	for _, mon := range monitors {
		if mon.Disabled || mon.Name == "" {
			continue
		}
		if mon.Focused {
			return mon.Name, nil
		}
		if first == "" {
			first = mon.Name
		}
	}
	if first == "" {
		return "", ErrNoMonitors
	}
	return first, nil
}

// QueryFocusedMonitor names the output a screenshot should be taken from.
func QueryFocusedMonitor(ctx context.Context) (string, error) {
	monitors, err := Monitors(ctx)
	if err != nil {
		return "", err
	}
	return PickCaptureMonitor(monitors)
}

// Notify shows a compositor notification. icon follows hyprctl's numbering.
func Notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if strings.TrimSpace(color) == "" {
		color = DefaultNotifyColor
	}
	args := []string{"--quiet", "dispatch", "notify", strconv.Itoa(icon), strconv.Itoa(timeoutMS), color, text}
	return runHyprctl(ctx, args...)
}

// DismissNotify clears every visible compositor notification.
func DismissNotify(ctx context.Context) error {
	return runHyprctl(ctx, "--quiet", "dispatch", "dismissnotify")
}
