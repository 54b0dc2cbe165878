package script

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// implements Writer using Anthropic Claude
type AnthropicWriter struct {
	client  anthropic.Client
	model   anthropic.Model
	options Options
}

func NewAnthropicWriter(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*AnthropicWriter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	model := anthropic.Model(opts.Model)
	if opts.Model == "" {
		model = anthropic.ModelClaudeSonnet4_5
	}

	return &AnthropicWriter{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (w *AnthropicWriter) Draft(ctx context.Context, subject Subject) (*Script, error) {
	if subject.Title == "" {
		return nil, fmt.Errorf("subject title is required")
	}

	prompt := BuildPrompt(subject, w.options)

	text, err := w.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if words := CountWords(text); words < w.options.minWords() {
		expanded, err := w.complete(ctx, prompt+expandNudge(w.options, words))
		if err == nil && CountWords(expanded) > words {
			text = expanded
		}
	}

	return newScript(subject, text), nil
}

func (w *AnthropicWriter) complete(ctx context.Context, prompt string) (string, error) {
	message, err := w.client.Messages.New(
		ctx,
		anthropic.MessageNewParams{
			Model:     w.model,
			MaxTokens: int64(w.options.maxTokens()),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(
					anthropic.NewTextBlock(prompt),
				),
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("script drafting failed: %w", err)
	}

	if message == nil || len(message.Content) == 0 {
		return "", fmt.Errorf("empty response from Anthropic")
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	if text == "" {
		return "", fmt.Errorf("no text in Anthropic response")
	}

	return text, nil
}
