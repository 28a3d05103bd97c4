// Package completion sends the conversation to a multimodal chat API.
package completion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/rbright/eyra/internal/config"
	"github.com/rbright/eyra/internal/conversation"
)

// ErrEmptyResponse is returned when the provider answers without any text.
var ErrEmptyResponse = errors.New("completion returned no text")

// Completer turns the full transcript into one assistant reply.
type Completer interface {
	Complete(ctx context.Context, turns []conversation.Turn) (string, error)
}

// Settings is the provider-facing subset of config.
type Settings struct {
	Provider  string
	Model     string
	MaxTokens int
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
}

// SettingsFromConfig extracts completion settings from cfg.
func SettingsFromConfig(cfg config.Config) Settings {
	return Settings{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout(),
	}
}

// New builds the completer for s.Provider.
func New(ctx context.Context, s Settings) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case config.ProviderOpenAI:
		return NewOpenAI(ctx, s)
	case config.ProviderGemini:
		return NewGemini(ctx, s)
	case config.ProviderMock:
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", s.Provider)
	}
}

// HandleError converts SDK errors to user-facing categories. The HTTP status
// carried by the error decides first; message phrases are only consulted
// when no status is available.
func HandleError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrEmptyResponse) {
		return err
	}

	if status, ok := statusCode(err); ok {
		switch {
		case status == http.StatusUnauthorized, status == http.StatusForbidden:
			return fmt.Errorf("authentication failed: %w", err)
		case status == http.StatusTooManyRequests:
			return fmt.Errorf("rate limited: %w", err)
		case status == http.StatusNotFound:
			return fmt.Errorf("model not found: %w", err)
		case status == http.StatusBadRequest && mentionsContextLimit(strings.ToLower(err.Error())):
			return fmt.Errorf("context too long: %w", err)
		case status >= http.StatusInternalServerError:
			return fmt.Errorf("provider unavailable: %w", err)
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("connection error: %w", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("connection error: %w", err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "unauthorized", "invalid api key", "incorrect api key", "api key not valid"):
		return fmt.Errorf("authentication failed: %w", err)
	case containsAny(msg, "rate limit", "too many requests", "resource_exhausted", "quota exceeded"):
		return fmt.Errorf("rate limited: %w", err)
	case mentionsContextLimit(msg):
		return fmt.Errorf("context too long: %w", err)
	case containsAny(msg, "model not found", "model_not_found"):
		return fmt.Errorf("model not found: %w", err)
	case containsAny(msg, "connection refused", "connection reset", "no such host"):
		return fmt.Errorf("connection error: %w", err)
	}
	return err
}

// statusPattern matches the status rendered by the OpenAI client's error
// strings, e.g. "error, status code: 429, status: 429 Too Many Requests".
var statusPattern = regexp.MustCompile(`\bstatus(?: code)?:? (\d{3})\b`)

func statusCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return apiErr.Code, true
	}
	m := statusPattern.FindStringSubmatch(strings.ToLower(err.Error()))
	if m == nil {
		return 0, false
	}
	code, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return 0, false
	}
	return code, true
}

func mentionsContextLimit(msg string) bool {
	return containsAny(msg, "context length", "context_length_exceeded", "maximum context", "too many tokens", "token limit")
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
