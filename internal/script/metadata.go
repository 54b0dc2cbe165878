package script

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	maxTitleChars = 100
	maxTags       = 50
)

// Metadata is what the publisher needs to describe the video.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
	CategoryID  string
}

// NarrationText converts a drafted script into text suitable for
// speech synthesis: markdown remnants stripped, paragraph breaks
// replaced with spoken pauses.
func NarrationText(s *Script) string {
	if s == nil || s.Text == "" {
		return ""
	}

	var paragraphs []string
	for _, block := range strings.Split(s.Text, "\n\n") {
		var lines []string
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			// drop heading lines the model sometimes sneaks in
			if strings.HasPrefix(line, "#") {
				continue
			}
			line = strings.ReplaceAll(line, "**", "")
			line = strings.ReplaceAll(line, "*", "")
			lines = append(lines, line)
		}
		if len(lines) > 0 {
			paragraphs = append(paragraphs, strings.Join(lines, " "))
		}
	}

	return strings.Join(paragraphs, " ... ")
}

// BuildMetadata derives the upload title, description, and tags.
func BuildMetadata(subject Subject, categoryID string) *Metadata {
	title := subject.Title
	if subject.ReleaseYear != "" {
		title = fmt.Sprintf("%s (%s)", title, subject.ReleaseYear)
	}
	title = truncateRunes(title+" | Full Movie Breakdown", maxTitleChars)

	var desc strings.Builder
	desc.WriteString(fmt.Sprintf("The complete breakdown of %s", subject.Title))
	if subject.ReleaseYear != "" {
		desc.WriteString(fmt.Sprintf(" (%s)", subject.ReleaseYear))
	}
	desc.WriteString(": story, characters, themes, and ending explained.\n\n")
	if subject.Overview != "" {
		desc.WriteString(subject.Overview)
		desc.WriteString("\n\n")
	}
	desc.WriteString("⚠️ Full spoilers ahead.\n\n")
	for _, g := range subject.Genres {
		desc.WriteString("#" + strings.ReplaceAll(g, " ", ""))
		desc.WriteString(" ")
	}
	desc.WriteString("#MovieBreakdown #EndingExplained")

	tags := buildTags(subject)

	if categoryID == "" {
		categoryID = "24" // Entertainment
	}

	return &Metadata{
		Title:       title,
		Description: strings.TrimSpace(desc.String()),
		Tags:        tags,
		CategoryID:  categoryID,
	}
}

func buildTags(subject Subject) []string {
	base := []string{
		"movie breakdown",
		"movie explained",
		"ending explained",
		"movie recap",
		"film analysis",
		"movie review",
	}

	var candidates []string
	candidates = append(candidates, base...)
	if subject.Title != "" {
		lower := strings.ToLower(subject.Title)
		candidates = append(candidates,
			lower,
			lower+" explained",
			lower+" breakdown",
			lower+" ending explained",
		)
	}
	for _, g := range subject.Genres {
		lower := strings.ToLower(g)
		candidates = append(candidates, lower, lower+" movies")
	}

	seen := make(map[string]bool, len(candidates))
	tags := make([]string, 0, len(candidates))
	for _, tag := range candidates {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
		if len(tags) == maxTags {
			break
		}
	}

	return tags
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}
