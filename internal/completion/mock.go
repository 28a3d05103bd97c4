package completion

import (
	"context"
	"fmt"
	"sync"

	"github.com/rbright/eyra/internal/conversation"
)

// MockResponse is the canned reply used when no script is configured.
const MockResponse = "This is a mock response. This is a test. Hahah!!"

// Mock is an offline completer for development and tests.
type Mock struct {
	mu        sync.Mutex
	responses []string
	failOn    map[int]error
	calls     int
	seen      [][]conversation.Turn
}

// NewMock returns a mock that replies with responses in order, then MockResponse.
func NewMock(responses ...string) *Mock {
	return &Mock{responses: responses, failOn: map[int]error{}}
}

// FailOn makes the nth call (1-based) return err.
func (m *Mock) FailOn(call int, err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn[call] = err
	return m
}

// Complete records the transcript and returns the next scripted reply.
func (m *Mock) Complete(ctx context.Context, turns []conversation.Turn) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	snapshot := make([]conversation.Turn, len(turns))
	copy(snapshot, turns)
	m.seen = append(m.seen, snapshot)

	if err, ok := m.failOn[m.calls]; ok {
		if err == nil {
			err = fmt.Errorf("mock failure on call %d", m.calls)
		}
		return "", err
	}
	if len(m.responses) == 0 {
		return MockResponse, nil
	}
	reply := m.responses[0]
	m.responses = m.responses[1:]
	return reply, nil
}

// Calls returns how many completions were requested.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Seen returns the transcript passed to call n (1-based).
func (m *Mock) Seen(n int) []conversation.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 1 || n > len(m.seen) {
		return nil
	}
	return m.seen[n-1]
}
