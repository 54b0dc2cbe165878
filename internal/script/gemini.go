package script

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// implements Writer using Google Gemini
type GeminiWriter struct {
	client  *genai.Client
	model   string
	options Options
}

func NewGeminiWriter(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*GeminiWriter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiWriter{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (w *GeminiWriter) Draft(ctx context.Context, subject Subject) (*Script, error) {
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

func (w *GeminiWriter) complete(ctx context.Context, prompt string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := w.client.Models.GenerateContent(ctx, w.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("script drafting failed: %w", err)
	}

	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var text string
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				text += part.Text
			}
		}
		if text != "" {
			break
		}
	}

	if text == "" {
		return "", fmt.Errorf("no text in Gemini response")
	}

	return text, nil
}
