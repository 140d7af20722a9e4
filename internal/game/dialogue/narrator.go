package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/emberworks/arena/internal/game/combat"
)

const narratorSystemPrompt = `You are the arena announcer for a dark fantasy
combat game. Given a combat event, respond with exactly one short line of
in-world commentary, at most 20 words. No quotes, no markdown, no
explanations.`

// ModelNarrator generates flavor text through the Anthropic Messages API.
type ModelNarrator struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	logger    *zap.Logger
}

// NewModelNarrator creates a narrator for the given model. The API key is
// read from the ANTHROPIC_API_KEY environment variable unless apiKey is set.
//
// Precondition: model must be non-empty; maxTokens must be > 0.
func NewModelNarrator(apiKey, model string, maxTokens int, logger *zap.Logger) *ModelNarrator {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &ModelNarrator{
		client:    anthropic.NewClient(opts...),
		model:     anthropic.Model(model),
		maxTokens: int64(maxTokens),
		logger:    logger,
	}
}

// Narrate asks the model for one line of commentary on the event.
//
// Postcondition: Returns a single trimmed line, or an error if the API call
// fails or produces no text.
func (n *ModelNarrator) Narrate(ctx context.Context, ev combat.Event) (string, error) {
	prompt := eventPrompt(ev)

	msg, err := n.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     n.model,
		MaxTokens: n.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: narratorSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("narrating %s event: %w", ev.Type, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	line := strings.TrimSpace(sb.String())
	if line == "" {
		return "", fmt.Errorf("narrating %s event: model returned no text", ev.Type)
	}
	// Keep only the first line if the model ignores the single-line rule.
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
	}
	return line, nil
}

func eventPrompt(ev combat.Event) string {
	var sb strings.Builder
	sb.WriteString("Event: ")
	sb.WriteString(string(ev.Type))
	if ev.Detail != "" {
		sb.WriteString("\nDetail: ")
		sb.WriteString(ev.Detail)
	}
	return sb.String()
}
