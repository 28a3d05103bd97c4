// Package indicator handles visual state notifications and audio cue playback.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/eyra/internal/config"
	"github.com/rbright/eyra/internal/hypr"
)

// Controller is the mode-facing indicator contract.
type Controller interface {
	ShowMode(ctx context.Context, label string)
	ShowThinking(ctx context.Context)
	ShowError(ctx context.Context, text string)
	Hide(ctx context.Context)
	CueShutter(ctx context.Context)
	CueSwitch(ctx context.Context)
	CueError(ctx context.Context)
}

// Nop satisfies Controller without side effects.
type Nop struct{}

func (Nop) ShowMode(context.Context, string)  {}
func (Nop) ShowThinking(context.Context)      {}
func (Nop) ShowError(context.Context, string) {}
func (Nop) Hide(context.Context)              {}
func (Nop) CueShutter(context.Context)        {}
func (Nop) CueSwitch(context.Context)         {}
func (Nop) CueError(context.Context)          {}

// Notifier routes notifications via Hyprland or desktop DBus based on config
// backend, and plays cues through PipeWire/PulseAudio.
type Notifier struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages
	goos     string

	mu                    sync.Mutex
	desktopNotificationID uint32
	soundMu               sync.Mutex
	cues                  sync.WaitGroup
}

// New creates an indicator controller from config.
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		cfg:      cfg,
		logger:   logger,
		messages: messagesFor(cfg.DesktopAppName),
		goos:     currentGOOS,
	}
}

// ShowMode announces the mode that just became active.
func (n *Notifier) ShowMode(ctx context.Context, label string) {
	if !n.visible() {
		return
	}
	text := n.messages.modePrefix + label
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, 1, 2500, "rgb(89b4fa)", text)
	})
}

// ShowThinking signals that a completion request is in flight.
func (n *Notifier) ShowThinking(ctx context.Context) {
	if !n.visible() {
		return
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, 1, 300000, "rgb(cba6f7)", n.messages.thinking)
	})
}

// ShowError displays an error-state indicator message.
func (n *Notifier) ShowError(ctx context.Context, text string) {
	if !n.visible() {
		return
	}
	if text == "" {
		text = n.messages.errorText
	}
	timeout := n.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 1200
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, 3, timeout, "rgb(f38ba8)", text)
	})
}

// Hide dismisses the active indicator surface.
func (n *Notifier) Hide(ctx context.Context) {
	if !n.visible() {
		return
	}
	n.run(ctx, n.dismiss)
}

// CueShutter emits the camera shutter cue played before every capture.
func (n *Notifier) CueShutter(context.Context) {
	n.playCue(cueShutter)
}

// CueSwitch emits the mode hand-off cue.
func (n *Notifier) CueSwitch(context.Context) {
	n.playCue(cueSwitch)
}

// CueError emits the failure cue.
func (n *Notifier) CueError(context.Context) {
	n.playCue(cueError)
}

// Wait blocks until queued cues finish playing.
func (n *Notifier) Wait() {
	n.cues.Wait()
}

func (n *Notifier) visible() bool {
	if !n.cfg.Enable {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(n.cfg.Backend), "none")
}

// notify dispatches indicator output through the configured backend.
func (n *Notifier) notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if strings.EqualFold(strings.TrimSpace(n.cfg.Backend), "desktop") {
		return n.notifyDesktop(ctx, timeoutMS, text)
	}
	return hypr.Notify(ctx, icon, timeoutMS, color, text)
}

// dismiss removes indicator output from the configured backend.
func (n *Notifier) dismiss(ctx context.Context) error {
	if strings.EqualFold(strings.TrimSpace(n.cfg.Backend), "desktop") {
		return n.dismissDesktop(ctx)
	}
	return hypr.DismissNotify(ctx)
}

// notifyDesktop sends a replaceable desktop notification and stores its ID.
func (n *Notifier) notifyDesktop(ctx context.Context, timeoutMS int, text string) error {
	n.mu.Lock()
	replaceID := n.desktopNotificationID
	n.mu.Unlock()

	appName := strings.TrimSpace(n.cfg.DesktopAppName)
	if appName == "" {
		appName = "eyra"
	}

	id, err := desktopNotify(ctx, appName, replaceID, text, timeoutMS)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.desktopNotificationID = id
	n.mu.Unlock()
	return nil
}

// dismissDesktop closes the current desktop notification ID when present.
func (n *Notifier) dismissDesktop(ctx context.Context) error {
	n.mu.Lock()
	id := n.desktopNotificationID
	n.desktopNotificationID = 0
	n.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run executes an indicator operation with a bounded timeout.
func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (n *Notifier) playCue(kind cueKind) {
	if !n.cfg.SoundEnable {
		return
	}
	n.cues.Add(1)
	go func() {
		defer n.cues.Done()
		n.soundMu.Lock()
		defer n.soundMu.Unlock()
		if err := emitCue(kind, n.cfg, n.goos); err != nil {
			n.log("indicator audio cue failed", err)
		}
	}()
}

// log emits debug-only indicator failures to the runtime logger.
func (n *Notifier) log(message string, err error) {
	if n.logger == nil || err == nil {
		return
	}
	n.logger.Debug(message, "error", err.Error())
}
