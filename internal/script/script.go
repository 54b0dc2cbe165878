package script

import (
	"context"
	"fmt"
	"strings"
)

// Subject is the movie a script is written about.
type Subject struct {
	Title       string
	ReleaseYear string
	Overview    string
	Tagline     string
	Genres      []string
	Runtime     int // minutes
}

// Script is a drafted narration essay.
type Script struct {
	Subject   Subject
	Text      string
	WordCount int
}

// interface for script drafting
type Writer interface {
	Draft(ctx context.Context, subject Subject) (*Script, error)
}

// script drafting provider
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

type Options struct {
	Model       string
	MinWords    int
	MaxWords    int
	Temperature float64
	MaxTokens   int
}

func (o Options) minWords() int {
	if o.MinWords > 0 {
		return o.MinWords
	}
	return 1500
}

func (o Options) maxWords() int {
	if o.MaxWords > 0 {
		return o.MaxWords
	}
	return 2500
}

func (o Options) maxTokens() int {
	if o.MaxTokens > 0 {
		return o.MaxTokens
	}
	return 4000
}

func (o Options) temperature() float64 {
	if o.Temperature > 0 {
		return o.Temperature
	}
	return 0.7
}

// creates Writer based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Writer, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIWriter(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicWriter(ctx, apiKey, opts)
	case ProviderGemini:
		return NewGeminiWriter(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported script provider: %s", provider)
	}
}

var breakdownSections = []string{
	"The Hook - a gripping opening that makes the viewer stay",
	"The Setup - world, premise, and where the story begins",
	"The Characters - who matters and what drives them",
	"The Conflict - the central tension of the film",
	"The Turning Point - the moment everything changes",
	"The Climax - how the tension peaks",
	"The Resolution - how it all lands, spoilers included",
	"Themes and Verdict - what the film is really about and whether it works",
}

// BuildPrompt creates the drafting prompt shared by all providers.
func BuildPrompt(subject Subject, opts Options) string {
	var sb strings.Builder

	sb.WriteString("You are writing the narration script for a YouTube movie breakdown video.\n\n")
	sb.WriteString(fmt.Sprintf("Movie: %s", subject.Title))
	if subject.ReleaseYear != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", subject.ReleaseYear))
	}
	sb.WriteString("\n")
	if len(subject.Genres) > 0 {
		sb.WriteString(fmt.Sprintf("Genres: %s\n", strings.Join(subject.Genres, ", ")))
	}
	if subject.Runtime > 0 {
		sb.WriteString(fmt.Sprintf("Runtime: %d minutes\n", subject.Runtime))
	}
	if subject.Tagline != "" {
		sb.WriteString(fmt.Sprintf("Tagline: %s\n", subject.Tagline))
	}
	if subject.Overview != "" {
		sb.WriteString(fmt.Sprintf("Synopsis: %s\n", subject.Overview))
	}

	sb.WriteString("\nWrite the script as a continuous spoken essay covering these sections in order:\n")
	for i, section := range breakdownSections {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, section))
	}

	sb.WriteString("\nREQUIREMENTS:\n")
	sb.WriteString(fmt.Sprintf(
		"- Length: %d to %d words.\n",
		opts.minWords(),
		opts.maxWords(),
	))
	sb.WriteString("- Conversational, energetic tone meant to be read aloud.\n")
	sb.WriteString("- No section headings, bullet points, or markdown in the output.\n")
	sb.WriteString("- Separate sections with a blank line.\n")
	sb.WriteString("- Do not mention that you are an AI or that this is a script.\n")

	return sb.String()
}

// CountWords reports the number of whitespace separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

func newScript(subject Subject, text string) *Script {
	text = strings.TrimSpace(text)
	return &Script{
		Subject:   subject,
		Text:      text,
		WordCount: CountWords(text),
	}
}

// expandNudge is appended to the prompt when a draft comes back short.
func expandNudge(opts Options, gotWords int) string {
	return fmt.Sprintf(
		"\n\nYour previous draft was only %d words. Expand every section with more detail until the script is between %d and %d words.",
		gotWords,
		opts.minWords(),
		opts.maxWords(),
	)
}
