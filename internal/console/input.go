// Package console owns terminal line input, prompts, and the thinking spinner.
package console

import (
	"bufio"
	"io"
	"strings"
	"sync"
)

// Input pumps lines from a reader into an unbuffered channel. A line is
// consumed only when a receiver takes it, so abandoning a wait never drops input.
type Input struct {
	lines chan string

	mu  sync.Mutex
	err error
}

// NewInput starts the pump goroutine. Lines closes at EOF or on a read error.
func NewInput(r io.Reader) *Input {
	in := &Input{lines: make(chan string)}
	go in.pump(r)
	return in
}

// Lines delivers trimmed input lines in order.
func (in *Input) Lines() <-chan string {
	return in.lines
}

// Err returns the read error that ended the pump, nil for a clean EOF.
func (in *Input) Err() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.err
}

func (in *Input) pump(r io.Reader) {
	defer close(in.lines)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		in.lines <- strings.TrimSpace(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		in.mu.Lock()
		in.err = err
		in.mu.Unlock()
	}
}
