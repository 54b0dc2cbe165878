package script

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func testSubject() Subject {
	return Subject{
		Title:       "Night Harvest",
		ReleaseYear: "2023",
		Overview:    "A small town hides a seasonal secret.",
		Genres:      []string{"Horror", "Thriller"},
		Runtime:     104,
	}
}

func TestFactoryReturnsOpenAIWriter(t *testing.T) {
	ctx := context.Background()
	writer, err := Factory(ctx, ProviderOpenAI, "fake-key", Options{})
	if err != nil {
		t.Fatalf("Factory(ProviderOpenAI) returned error: %v", err)
	}
	if _, ok := writer.(*OpenAIWriter); !ok {
		t.Errorf("expected *OpenAIWriter, got %T", writer)
	}
}

func TestFactoryReturnsAnthropicWriter(t *testing.T) {
	ctx := context.Background()
	writer, err := Factory(ctx, ProviderAnthropic, "fake-key", Options{})
	if err != nil {
		t.Fatalf("Factory(ProviderAnthropic) returned error: %v", err)
	}
	if _, ok := writer.(*AnthropicWriter); !ok {
		t.Errorf("expected *AnthropicWriter, got %T", writer)
	}
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	ctx := context.Background()
	if _, err := Factory(ctx, Provider("unknown"), "fake-key", Options{}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	ctx := context.Background()
	if _, err := Factory(ctx, ProviderOpenAI, "", Options{}); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestBuildPromptIncludesSubjectAndSections(t *testing.T) {
	prompt := BuildPrompt(testSubject(), Options{MinWords: 1500, MaxWords: 2500})

	if !strings.Contains(prompt, "Night Harvest") {
		t.Error("prompt missing movie title")
	}
	if !strings.Contains(prompt, "Horror, Thriller") {
		t.Error("prompt missing genres")
	}
	if !strings.Contains(prompt, "1500 to 2500 words") {
		t.Error("prompt missing word range")
	}
	for i := 1; i <= 8; i++ {
		if !strings.Contains(prompt, fmt.Sprintf("%d. ", i)) {
			t.Errorf("prompt missing section %d", i)
		}
	}
}

func TestNarrationTextInsertsPauses(t *testing.T) {
	s := newScript(testSubject(), "First paragraph here.\n\nSecond paragraph here.")
	got := NarrationText(s)
	want := "First paragraph here. ... Second paragraph here."
	if got != want {
		t.Errorf("NarrationText = %q, want %q", got, want)
	}
}

func TestNarrationTextStripsMarkdown(t *testing.T) {
	s := newScript(testSubject(), "# The Hook\nThis **movie** is *wild*.")
	got := NarrationText(s)
	if strings.Contains(got, "#") || strings.Contains(got, "*") {
		t.Errorf("NarrationText kept markdown: %q", got)
	}
	if !strings.Contains(got, "This movie is wild.") {
		t.Errorf("NarrationText lost content: %q", got)
	}
}

func TestNarrationTextEmptyScript(t *testing.T) {
	if got := NarrationText(nil); got != "" {
		t.Errorf("NarrationText(nil) = %q, want empty", got)
	}
}

func TestBuildMetadataTitleAndCategory(t *testing.T) {
	meta := BuildMetadata(testSubject(), "")
	if meta.Title != "Night Harvest (2023) | Full Movie Breakdown" {
		t.Errorf("Title = %q", meta.Title)
	}
	if meta.CategoryID != "24" {
		t.Errorf("CategoryID = %q, want 24", meta.CategoryID)
	}
	if !strings.Contains(meta.Description, "A small town hides a seasonal secret.") {
		t.Error("Description missing overview")
	}
}

func TestBuildMetadataTagCapAndDedup(t *testing.T) {
	subject := testSubject()
	for i := 0; i < 60; i++ {
		subject.Genres = append(subject.Genres, strings.Repeat("g", i+1))
	}
	meta := BuildMetadata(subject, "24")
	if len(meta.Tags) > 50 {
		t.Errorf("tag count = %d, want <= 50", len(meta.Tags))
	}

	seen := make(map[string]bool)
	for _, tag := range meta.Tags {
		if seen[tag] {
			t.Errorf("duplicate tag %q", tag)
		}
		seen[tag] = true
	}
	if !seen["night harvest explained"] {
		t.Error("missing title-derived tag")
	}
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"one", 1},
		{"two  spaced   words here", 4},
		{"line\nbreaks\ncount", 3},
	}
	for _, tt := range tests {
		if got := CountWords(tt.text); got != tt.want {
			t.Errorf("CountWords(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
