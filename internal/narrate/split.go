package narrate

import (
	"strings"
	"unicode/utf8"
)

// SplitText breaks text into chunks of at most maxChars characters,
// preferring sentence boundaries. A single sentence longer than
// maxChars is split at word boundaries.
func SplitText(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return []string{text}
	}

	sentences := splitSentences(text)

	var (
		chunks  []string
		current strings.Builder
		length  int
	)

	flush := func() {
		if length == 0 {
			return
		}
		chunks = append(chunks, strings.TrimSpace(current.String()))
		current.Reset()
		length = 0
	}

	appendPiece := func(piece string) {
		n := utf8.RuneCountInString(piece)
		if length > 0 && length+n+1 > maxChars {
			flush()
		}
		if length > 0 {
			current.WriteString(" ")
			length++
		}
		current.WriteString(piece)
		length += n
	}

	for _, sentence := range sentences {
		if utf8.RuneCountInString(sentence) > maxChars {
			for _, word := range strings.Fields(sentence) {
				appendPiece(word)
			}
			continue
		}
		appendPiece(sentence)
	}
	flush()

	return chunks
}

// splitSentences cuts on sentence-ending punctuation followed by a space.
func splitSentences(text string) []string {
	var (
		sentences []string
		start     int
	)

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if !isSentenceEnd(runes[i]) {
			continue
		}
		// consume runs of terminators, e.g. "..." or "?!"
		j := i
		for j+1 < len(runes) && isSentenceEnd(runes[j+1]) {
			j++
		}
		if j+1 >= len(runes) || runes[j+1] == ' ' || runes[j+1] == '\n' {
			sentence := strings.TrimSpace(string(runes[start : j+1]))
			if sentence != "" {
				sentences = append(sentences, sentence)
			}
			start = j + 1
		}
		i = j
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}

	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
