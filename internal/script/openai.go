package script

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// implements Writer using OpenAI Chat Completions
type OpenAIWriter struct {
	client  openai.Client
	model   string
	options Options
}

func NewOpenAIWriter(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAIWriter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	model := opts.Model
	if model == "" {
		model = "gpt-4"
	}

	return &OpenAIWriter{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (w *OpenAIWriter) Draft(ctx context.Context, subject Subject) (*Script, error) {
	if subject.Title == "" {
		return nil, fmt.Errorf("subject title is required")
	}

	prompt := BuildPrompt(subject, w.options)

	text, err := w.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	// one expansion pass for drafts that come back short
	if words := CountWords(text); words < w.options.minWords() {
		expanded, err := w.complete(ctx, prompt+expandNudge(w.options, words))
		if err == nil && CountWords(expanded) > words {
			text = expanded
		}
	}

	return newScript(subject, text), nil
}

func (w *OpenAIWriter) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := w.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(w.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You write narration scripts for movie essay videos."),
			openai.UserMessage(prompt),
		},
		Temperature:         openai.Float(w.options.temperature()),
		MaxCompletionTokens: openai.Int(int64(w.options.maxTokens())),
	})
	if err != nil {
		return "", fmt.Errorf("script drafting failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}
