package console

import (
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 100 * time.Millisecond

// Spinner animates a label on the current line while a request is in flight.
type Spinner struct {
	c     *Console
	label string

	once sync.Once
	stop chan struct{}
	done chan struct{}
}

// StartSpinner begins animating label. It is a no-op on non-terminal output.
func (c *Console) StartSpinner(label string) *Spinner {
	s := &Spinner{c: c, label: label, stop: make(chan struct{}), done: make(chan struct{})}
	if !c.interactive {
		close(s.done)
		return s
	}
	go s.run()
	return s
}

// Stop halts the animation and clears the line. It is safe to call more than once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		close(s.stop)
		<-s.done
	})
}

func (s *Spinner) run() {
	defer close(s.done)

	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	frame := 0
	for {
		s.c.Printf("\r%s %s", s.label, spinnerFrames[frame])
		frame = (frame + 1) % len(spinnerFrames)

		select {
		case <-s.stop:
			s.c.Printf("\r%s\r", strings.Repeat(" ", len(s.label)+2))
			return
		case <-ticker.C:
		}
	}
}
