package mode

import (
	"context"
	"errors"
	"time"

	"github.com/rbright/eyra/internal/capture"
	"github.com/rbright/eyra/internal/conversation"
)

const timestampLayout = "2006-01-02 15:04:05"

// Live repeatedly captures the screen, describes it, and speaks the reply.
type Live struct {
	base
}

// NewLive builds a Live mode over deps.Store.
func NewLive(deps Deps) Mode {
	return &Live{base: newBase(KindLive, deps)}
}

func (l *Live) Run(ctx context.Context) (Signal, error) {
	chord := l.deps.Settings.ToManual
	sess, release := l.begin(ctx, chord)
	defer release()

	out := l.deps.Console
	if chord.Key != "" {
		out.Printf("Live mode started. Press Ctrl+C to exit or %s for manual mode.\n", chord)
	} else {
		out.Println("Live mode started. Press Ctrl+C to exit.")
	}

	for {
		if ctx.Err() != nil {
			return l.interrupted()
		}
		if sess.switchRequested.Load() {
			l.deps.Logger.Info("mode exiting", "mode", string(l.kind), "signal", SignalSwitch.String(), "turns", l.deps.Store.Len())
			return SignalSwitch, nil
		}

		if err := l.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return l.interrupted()
			}
			var adapterErr *AdapterError
			if !errors.As(err, &adapterErr) {
				return SignalTerminate, err
			}
			l.report(ctx, err)
		}

		select {
		case <-ctx.Done():
		case <-sess.switched:
		case <-time.After(l.deps.Settings.LiveInterval):
		}
	}
}

// cycle is one capture, describe, speak round. Capture and completion
// failures leave the store as it was.
func (l *Live) cycle(ctx context.Context) error {
	stamp := l.deps.Now().Format(timestampLayout)
	out := l.deps.Console
	out.Printf("\n[%s] Capturing screenshot...\n", stamp)

	img, err := l.capture(ctx, capture.SourceScreen)
	if err != nil {
		return err
	}

	if err := l.appendTurn(ctx, conversation.Turn{
		Role:  conversation.RoleUser,
		Text:  l.deps.Settings.LivePrompt,
		Image: &img,
	}); err != nil {
		return err
	}

	reply, err := l.complete(ctx, false)
	if err != nil {
		l.deps.Store.RemoveLast()
		return err
	}
	if err := l.appendTurn(ctx, conversation.Turn{Role: conversation.RoleAssistant, Text: reply}); err != nil {
		return err
	}
	out.Printf("[%s] Eyra: %s\n", stamp, reply)

	out.Println("[Speaking...]")
	if err := l.deps.Speaker.Speak(ctx, reply); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.report(ctx, &AdapterError{Op: "speech", Err: err})
	}
	out.Println("[Speech completed]")
	return nil
}

func (l *Live) interrupted() (Signal, error) {
	l.deps.Console.Println("\nExiting live mode...")
	l.deps.Logger.Info("mode exiting", "mode", string(l.kind), "signal", SignalTerminate.String(), "turns", l.deps.Store.Len())
	return SignalTerminate, nil
}
