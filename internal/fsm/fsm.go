// Package fsm holds the Manual mode state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateAwaitingInput State = "awaiting_input"
	StateProcessing    State = "processing"
	StateExiting       State = "exiting"
)

const (
	EventSubmit  Event = "submit"
	EventHistory Event = "history"
	EventReply   Event = "reply"
	EventFail    Event = "fail"
	EventQuit    Event = "quit"
	EventSwitch  Event = "switch"
)

// Transition returns the next state for event. Exiting is terminal.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateAwaitingInput:
		switch event {
		case EventSubmit:
			return StateProcessing, nil
		case EventHistory:
			return StateAwaitingInput, nil
		case EventQuit, EventSwitch:
			return StateExiting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateProcessing:
		switch event {
		case EventReply, EventFail:
			return StateAwaitingInput, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateExiting:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
