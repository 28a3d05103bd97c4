package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rbright/eyra/internal/audio"
	"github.com/rbright/eyra/internal/config"
	"github.com/rbright/eyra/internal/logging"
)

const (
	DefaultCartesiaBaseURL = "https://api.cartesia.ai"
	cartesiaVersion        = "2025-04-16"
	cartesiaSampleRate     = 24000
)

// Cartesia synthesizes raw PCM over HTTP and plays it through PulseAudio.
type Cartesia struct {
	BaseURL string
	APIKey  string
	Model   string
	Voice   string
	Client  *http.Client
	Logger  *slog.Logger

	// play is swapped in tests.
	play func(context.Context, audio.Clip) error
}

// NewCartesia creates a Cartesia speaker from speech config.
func NewCartesia(cfg config.SpeechConfig, logger *slog.Logger) *Cartesia {
	return &Cartesia{
		BaseURL: DefaultCartesiaBaseURL,
		APIKey:  cfg.CartesiaAPIKey,
		Model:   cfg.CartesiaModel,
		Voice:   cfg.Voice,
		Client:  &http.Client{Timeout: 60 * time.Second},
		Logger:  logger,
		play:    audio.Play,
	}
}

type cartesiaVoice struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type cartesiaOutputFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

type cartesiaRequest struct {
	ModelID      string               `json:"model_id"`
	Transcript   string               `json:"transcript"`
	Voice        cartesiaVoice        `json:"voice"`
	OutputFormat cartesiaOutputFormat `json:"output_format"`
	Language     string               `json:"language,omitempty"`
}

// Speak fetches the synthesized clip and blocks until playback drains.
func (c *Cartesia) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	started := time.Now()
	pcm, err := c.synthesize(ctx, text)
	if err != nil {
		return err
	}
	logging.OrDiscard(c.Logger).Debug("cartesia synthesis complete",
		"bytes", len(pcm),
		"elapsed_ms", time.Since(started).Milliseconds(),
	)

	play := c.play
	if play == nil {
		play = audio.Play
	}
	return play(ctx, audio.ClipFromS16LE(pcm, cartesiaSampleRate, "eyra speech"))
}

func (c *Cartesia) synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(cartesiaRequest{
		ModelID:    c.Model,
		Transcript: text,
		Voice:      cartesiaVoice{Mode: "id", ID: c.Voice},
		OutputFormat: cartesiaOutputFormat{
			Container:  "raw",
			Encoding:   "pcm_s16le",
			SampleRate: cartesiaSampleRate,
		},
		Language: "en",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal cartesia request: %w", err)
	}

	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = DefaultCartesiaBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/tts/bytes", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build cartesia request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Cartesia-Version", cartesiaVersion)
	req.Header.Set("Content-Type", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cartesia request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read cartesia response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(payload))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, fmt.Errorf("cartesia returned %s: %s", resp.Status, msg)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("cartesia returned no audio")
	}
	return payload, nil
}
