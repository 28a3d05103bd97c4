// Package ipc carries control requests between eyra CLI invocations and the
// running owner process over a unix socket.
package ipc

// Commands understood by the owner process.
const (
	CommandStatus = "status"
	CommandSwitch = "switch"
	CommandChord  = "chord"
)

type Request struct {
	Command string `json:"command"`
	Chord   string `json:"chord,omitempty"`
}

type Response struct {
	OK      bool   `json:"ok"`
	Mode    string `json:"mode,omitempty"`
	Fired   int    `json:"fired,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
