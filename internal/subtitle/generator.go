package subtitle

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Generator packs narration into caption cues. All thresholds are
// injected; NewGenerator gives the standard defaults.
type Generator struct {
	MaxLineChars   int
	MaxLines       int
	MinDuration    time.Duration
	MaxDuration    time.Duration
	WordsPerMinute int
}

func NewGenerator() *Generator {
	return &Generator{
		MaxLineChars:   60,
		MaxLines:       2,
		MinDuration:    time.Second,
		MaxDuration:    5 * time.Second,
		WordsPerMinute: 150,
	}
}

func (g *Generator) maxCueChars() int {
	return g.MaxLineChars * g.MaxLines
}

// FromWords builds cues from word timestamps. Words are packed until
// the character budget or MaxDuration would be exceeded; a cue also
// closes early after a sentence-ending word once it has grown past
// half the character budget. Cue durations are clamped afterwards.
func (g *Generator) FromWords(words []Word) (*Subtitle, error) {
	if g.MaxLineChars <= 0 || g.MaxLines <= 0 {
		return nil, fmt.Errorf("line budget must be positive")
	}

	var (
		entries []Entry
		current []Word
		length  int
	)

	flush := func() {
		if len(current) == 0 {
			return
		}
		text := joinWords(current)
		entries = append(entries, Entry{
			Index:     len(entries) + 1,
			StartTime: current[0].Start,
			EndTime:   current[len(current)-1].End,
			Text:      g.formatText(text),
		})
		current = nil
		length = 0
	}

	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		w.Text = text

		n := utf8.RuneCountInString(text)
		if len(current) > 0 {
			overBudget := length+n+1 > g.maxCueChars()
			overTime := g.MaxDuration > 0 && w.End-current[0].Start > g.MaxDuration
			if overBudget || overTime {
				flush()
			}
		}

		current = append(current, w)
		if length > 0 {
			length++
		}
		length += n

		// prefer breaking after a full sentence
		if endsSentence(text) && length >= g.maxCueChars()/2 {
			flush()
		}
	}
	flush()

	g.clampDurations(entries)

	return &Subtitle{
		Entries: entries,
		Format:  string(FormatSRT),
	}, nil
}

// Estimate builds cues for narration without word timestamps. Cue text
// is packed from the script words; timing is distributed at
// WordsPerMinute, scaled to the measured audio duration when known.
func (g *Generator) Estimate(text string, audioDuration time.Duration) (*Subtitle, error) {
	if g.WordsPerMinute <= 0 {
		return nil, fmt.Errorf("words per minute must be positive")
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return &Subtitle{Entries: []Entry{}, Format: string(FormatSRT)}, nil
	}

	secondsPerWord := 60.0 / float64(g.WordsPerMinute)
	if audioDuration > 0 {
		secondsPerWord = audioDuration.Seconds() / float64(len(words))
	}

	// how many words fit in MaxDuration at the estimated pace
	maxWords := 0
	if g.MaxDuration > 0 && secondsPerWord > 0 {
		maxWords = int(g.MaxDuration.Seconds() / secondsPerWord)
		if maxWords < 1 {
			maxWords = 1
		}
	}

	// pack words into cue texts under the character and duration budgets
	var (
		cues    [][]string
		current []string
		length  int
	)
	flush := func() {
		if len(current) > 0 {
			cues = append(cues, current)
			current = nil
			length = 0
		}
	}
	for _, w := range words {
		n := utf8.RuneCountInString(w)
		if len(current) > 0 {
			overBudget := length+n+1 > g.maxCueChars()
			overTime := maxWords > 0 && len(current) >= maxWords
			if overBudget || overTime {
				flush()
			}
		}
		current = append(current, w)
		if length > 0 {
			length++
		}
		length += n
		if endsSentence(w) && length >= g.maxCueChars()/2 {
			flush()
		}
	}
	flush()

	var (
		entries []Entry
		cursor  time.Duration
	)
	for i, cue := range cues {
		duration := time.Duration(float64(len(cue)) * secondsPerWord * float64(time.Second))
		if g.MinDuration > 0 && duration < g.MinDuration {
			duration = g.MinDuration
		}
		if g.MaxDuration > 0 && duration > g.MaxDuration {
			duration = g.MaxDuration
		}

		entries = append(entries, Entry{
			Index:     i + 1,
			StartTime: cursor,
			EndTime:   cursor + duration,
			Text:      g.formatText(strings.Join(cue, " ")),
		})
		cursor += duration
	}

	return &Subtitle{
		Entries: entries,
		Format:  string(FormatSRT),
	}, nil
}

// clampDurations enforces MinDuration and MaxDuration without letting
// a cue overlap its successor.
func (g *Generator) clampDurations(entries []Entry) {
	for i := range entries {
		e := &entries[i]

		if g.MaxDuration > 0 && e.EndTime-e.StartTime > g.MaxDuration {
			e.EndTime = e.StartTime + g.MaxDuration
		}
		if g.MinDuration > 0 && e.EndTime-e.StartTime < g.MinDuration {
			e.EndTime = e.StartTime + g.MinDuration
			if i+1 < len(entries) && e.EndTime > entries[i+1].StartTime {
				e.EndTime = entries[i+1].StartTime
			}
		}
	}
}

// formatText wraps text across lines, breaking as close to the line
// midpoint as possible.
func (g *Generator) formatText(text string) string {
	text = strings.TrimSpace(text)
	runeCount := utf8.RuneCountInString(text)

	if runeCount <= g.MaxLineChars {
		return text
	}

	words := strings.Fields(text)
	if len(words) < 2 {
		return text
	}

	middle := runeCount / 2
	bestSplit := 0
	bestDiff := runeCount

	currentLen := 0
	for i, word := range words[:len(words)-1] {
		currentLen += utf8.RuneCountInString(word)
		if i > 0 {
			currentLen++ // space
		}

		diff := abs(currentLen - middle)
		if diff < bestDiff {
			bestDiff = diff
			bestSplit = i + 1
		}
	}

	if bestSplit > 0 && bestSplit < len(words) {
		line1 := strings.Join(words[:bestSplit], " ")
		line2 := strings.Join(words[bestSplit:], " ")
		return line1 + "\n" + line2
	}

	return text
}

func joinWords(words []Word) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

func endsSentence(word string) bool {
	return strings.HasSuffix(word, ".") ||
		strings.HasSuffix(word, "!") ||
		strings.HasSuffix(word, "?")
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
