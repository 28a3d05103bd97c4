package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateAwaitingInput

	next, err := Transition(s, EventSubmit)
	require.NoError(t, err)
	require.Equal(t, StateProcessing, next)

	next, err = Transition(next, EventReply)
	require.NoError(t, err)
	require.Equal(t, StateAwaitingInput, next)

	next, err = Transition(next, EventQuit)
	require.NoError(t, err)
	require.Equal(t, StateExiting, next)
}

func TestTransitionFailReturnsToAwaitingInput(t *testing.T) {
	next, err := Transition(StateProcessing, EventFail)
	require.NoError(t, err)
	require.Equal(t, StateAwaitingInput, next)
}

func TestTransitionExitingIsTerminal(t *testing.T) {
	events := []Event{EventSubmit, EventHistory, EventReply, EventFail, EventQuit, EventSwitch}
	for _, event := range events {
		next, err := Transition(StateExiting, event)
		require.Error(t, err)
		require.Equal(t, StateExiting, next)
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "awaiting reply invalid", state: StateAwaitingInput, event: EventReply, want: StateAwaitingInput, wantErr: true},
		{name: "awaiting fail invalid", state: StateAwaitingInput, event: EventFail, want: StateAwaitingInput, wantErr: true},
		{name: "awaiting history stays", state: StateAwaitingInput, event: EventHistory, want: StateAwaitingInput, wantErr: false},
		{name: "awaiting switch exits", state: StateAwaitingInput, event: EventSwitch, want: StateExiting, wantErr: false},
		{name: "processing submit invalid", state: StateProcessing, event: EventSubmit, want: StateProcessing, wantErr: true},
		{name: "processing switch invalid", state: StateProcessing, event: EventSwitch, want: StateProcessing, wantErr: true},
		{name: "processing quit invalid", state: StateProcessing, event: EventQuit, want: StateProcessing, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.want, next)
			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "invalid transition")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventSubmit)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}
