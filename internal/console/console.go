package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// Console is the shared terminal surface every mode prints to.
type Console struct {
	In  *Input
	out io.Writer

	mu          sync.Mutex
	interactive bool
}

// New wires a console over r and w. Spinner animation is enabled only when w
// is a terminal.
func New(r io.Reader, w io.Writer) *Console {
	return &Console{In: NewInput(r), out: w, interactive: isTerminal(w)}
}

// Printf writes formatted output.
func (c *Console) Printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.out, format, args...)
}

// Println writes a line of output.
func (c *Console) Println(args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, args...)
}

// Writer exposes the output stream for bulk renders such as the transcript.
func (c *Console) Writer() io.Writer {
	return lockedWriter{c}
}

// Interactive reports whether output is attached to a terminal.
func (c *Console) Interactive() bool {
	return c.interactive
}

// Prompt prints question and waits for the next line. It returns io.EOF once
// input is exhausted.
func (c *Console) Prompt(ctx context.Context, question string) (string, error) {
	c.Printf("%s", question)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.In.Lines():
		if !ok {
			if err := c.In.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return line, nil
	}
}

type lockedWriter struct{ c *Console }

func (w lockedWriter) Write(p []byte) (int, error) {
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	return w.c.out.Write(p)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
