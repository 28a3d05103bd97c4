package completion

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/rbright/eyra/internal/conversation"
)

// Gemini completes through the Gemini API.
type Gemini struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// NewGemini creates a Gemini completer.
func NewGemini(ctx context.Context, s Settings) (*Gemini, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  s.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if s.BaseURL != "" {
		clientConfig.HTTPOptions.BaseURL = s.BaseURL
	}
	if s.Timeout > 0 {
		timeout := s.Timeout
		clientConfig.HTTPOptions.Timeout = &timeout
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: s.Model, maxTokens: s.MaxTokens}, nil
}

// Complete maps the system turn to the system instruction and the rest to contents.
func (g *Gemini) Complete(ctx context.Context, turns []conversation.Turn) (string, error) {
	system, contents := toGeminiContents(turns)

	generateConfig := &genai.GenerateContentConfig{SystemInstruction: system}
	if g.maxTokens > 0 {
		generateConfig.MaxOutputTokens = int32(g.maxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, generateConfig)
	if err != nil {
		return "", HandleError(err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func toGeminiContents(turns []conversation.Turn) (*genai.Content, []*genai.Content) {
	var system *genai.Content
	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case conversation.RoleSystem:
			system = genai.NewContentFromText(turn.Text, genai.RoleUser)
		case conversation.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(turn.Text, genai.RoleModel))
		default:
			parts := []*genai.Part{}
			if turn.Text != "" {
				parts = append(parts, genai.NewPartFromText(turn.Text))
			}
			if turn.HasImage() {
				mime := turn.Image.MIMEType
				if mime == "" {
					mime = "image/jpeg"
				}
				parts = append(parts, genai.NewPartFromBytes(turn.Image.Data, mime))
			}
			if len(parts) == 0 {
				parts = append(parts, genai.NewPartFromText(""))
			}
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
		}
	}
	return system, contents
}
