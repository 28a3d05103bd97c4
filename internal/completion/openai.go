package completion

import (
	"context"
	"fmt"
	"strings"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/rbright/eyra/internal/conversation"
)

// OpenAI completes through an eino chat model backed by the OpenAI API.
type OpenAI struct {
	model model.BaseChatModel
}

// NewOpenAI creates an OpenAI completer.
func NewOpenAI(ctx context.Context, s Settings) (*OpenAI, error) {
	modelConfig := &einoopenai.ChatModelConfig{
		APIKey: s.APIKey,
		Model:  s.Model,
	}
	if s.BaseURL != "" {
		modelConfig.BaseURL = s.BaseURL
	}
	if s.MaxTokens > 0 {
		maxTokens := s.MaxTokens
		modelConfig.MaxCompletionTokens = &maxTokens
	}
	if s.Timeout > 0 {
		modelConfig.Timeout = s.Timeout
	}

	chatModel, err := einoopenai.NewChatModel(ctx, modelConfig)
	if err != nil {
		return nil, fmt.Errorf("create openai chat model: %w", err)
	}
	return &OpenAI{model: chatModel}, nil
}

// Complete sends every turn, including the image part of the newest user turn.
func (o *OpenAI) Complete(ctx context.Context, turns []conversation.Turn) (string, error) {
	out, err := o.model.Generate(ctx, toSchemaMessages(turns))
	if err != nil {
		return "", HandleError(err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(out.Content), nil
}

func toSchemaMessages(turns []conversation.Turn) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		msg := &schema.Message{Role: schemaRole(turn.Role)}
		if !turn.HasImage() {
			msg.Content = turn.Text
			msgs = append(msgs, msg)
			continue
		}

		msg.MultiContent = []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeText, Text: turn.Text},
			{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL:    turn.Image.DataURL(),
					Detail: schema.ImageURLDetailAuto,
				},
			},
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

func schemaRole(role conversation.Role) schema.RoleType {
	switch role {
	case conversation.RoleSystem:
		return schema.System
	case conversation.RoleAssistant:
		return schema.Assistant
	default:
		return schema.User
	}
}
