package mode

import (
	"context"
	"errors"
	"strings"

	"github.com/rbright/eyra/internal/capture"
	"github.com/rbright/eyra/internal/conversation"
	"github.com/rbright/eyra/internal/fsm"
)

const (
	commandQuit    = "/quit"
	commandHistory = "/history"
)

const manualBanner = "Manual mode started. Commands:\n" +
	"- '#image': Capture and include a new screenshot\n" +
	"- '#selfie': Capture and include webcam image\n" +
	"- '/history': Show chat history\n" +
	"- '/quit': Exit"

// Manual is the typed chat loop.
type Manual struct {
	base
}

// NewManual builds a Manual mode over deps.Store.
func NewManual(deps Deps) Mode {
	return &Manual{base: newBase(KindManual, deps)}
}

func (m *Manual) Run(ctx context.Context) (Signal, error) {
	chord := m.deps.Settings.ToLive
	sess, release := m.begin(ctx, chord)
	defer release()

	out := m.deps.Console
	out.Println(manualBanner)
	if chord.Key != "" {
		out.Printf("- '%s': Switch to live mode\n", chord)
	}

	state := fsm.StateAwaitingInput
	lines := out.In.Lines()
	prompted := false

	for {
		if sess.switchRequested.Load() {
			return m.exit(state, fsm.EventSwitch, SignalSwitch)
		}

		if lines != nil && !prompted {
			out.Printf("\nYou: ")
			prompted = true
		}

		select {
		case <-ctx.Done():
			out.Println()
			return SignalTerminate, nil
		case <-sess.switched:
			out.Println()
		case line, ok := <-lines:
			prompted = false
			if !ok {
				if err := out.In.Err(); err != nil {
					return SignalTerminate, err
				}
				// Input is exhausted; only a switch or cancellation can end the loop now.
				m.deps.Logger.Info("input closed", "mode", string(m.kind))
				lines = nil
				continue
			}

			next, signal, done, err := m.handle(ctx, state, line)
			if err != nil {
				return SignalTerminate, err
			}
			state = next
			if done {
				return signal, nil
			}
		}
	}
}

// handle runs one AwaitingInput -> ... -> AwaitingInput exchange.
func (m *Manual) handle(ctx context.Context, state fsm.State, line string) (fsm.State, Signal, bool, error) {
	switch strings.ToLower(line) {
	case "":
		return state, 0, false, nil
	case commandQuit:
		if _, err := fsm.Transition(state, fsm.EventQuit); err != nil {
			return state, 0, false, err
		}
		m.deps.Console.Println("\nEyra: Goodbye! Have a great day!")
		return fsm.StateExiting, SignalTerminate, true, nil
	case commandHistory:
		next, err := fsm.Transition(state, fsm.EventHistory)
		if err != nil {
			return state, 0, false, err
		}
		if err := m.deps.Store.Transcript(m.deps.Console.Writer()); err != nil {
			return next, 0, false, err
		}
		return next, 0, false, nil
	}

	processing, err := fsm.Transition(state, fsm.EventSubmit)
	if err != nil {
		return state, 0, false, err
	}

	event := fsm.EventReply
	if err := m.exchange(ctx, line); err != nil {
		var adapterErr *AdapterError
		if !errors.As(err, &adapterErr) {
			return processing, 0, false, err
		}
		event = fsm.EventFail
		if ctx.Err() != nil {
			return fsm.StateExiting, SignalTerminate, true, nil
		}
		m.report(ctx, err)
	}

	next, err := fsm.Transition(processing, event)
	if err != nil {
		return processing, 0, false, err
	}
	return next, 0, false, nil
}

// exchange appends the user turn, completes, and appends the reply. On any
// adapter failure the store is left as it was before the line was typed.
func (m *Manual) exchange(ctx context.Context, line string) error {
	turn := conversation.Turn{Role: conversation.RoleUser, Text: line}

	source, wantsImage := imageSource(line)
	if wantsImage {
		img, err := m.capture(ctx, source)
		if err != nil {
			return err
		}
		turn.Text = conversation.StripMarkers(line)
		turn.Image = &img
	}

	if err := m.appendTurn(ctx, turn); err != nil {
		return err
	}

	reply, err := m.complete(ctx, true)
	if err != nil {
		var adapterErr *AdapterError
		if last, ok := m.deps.Store.RemoveLast(); ok && errors.As(err, &adapterErr) {
			adapterErr.Dropped = last.Text
		}
		return err
	}

	if err := m.appendTurn(ctx, conversation.Turn{Role: conversation.RoleAssistant, Text: reply}); err != nil {
		return err
	}
	m.deps.Console.Printf("\nEyra: %s\n", reply)
	return nil
}

func (m *Manual) exit(state fsm.State, event fsm.Event, signal Signal) (Signal, error) {
	if _, err := fsm.Transition(state, event); err != nil {
		return SignalTerminate, err
	}
	m.deps.Logger.Info("mode exiting", "mode", string(m.kind), "signal", signal.String(), "turns", m.deps.Store.Len())
	return signal, nil
}

// imageSource picks the capture device requested by markers in line.
// The selfie marker wins when both are present.
func imageSource(line string) (capture.Source, bool) {
	switch {
	case conversation.WantsSelfie(line):
		return capture.SourceWebcam, true
	case conversation.WantsScreenshot(line):
		return capture.SourceScreen, true
	default:
		return "", false
	}
}
