package subtitle

import (
	"time"
)

// represents single caption cue
type Entry struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// represents complete caption track
type Subtitle struct {
	Entries  []Entry
	Language string
	Format   string
}

// represents supported subtitle formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// Word is one spoken word anchored on the narration timeline.
type Word struct {
	Text  string
	Start time.Duration
	End   time.Duration
}

// interface for writing subtitles to files
type Writer interface {
	Write(subtitle *Subtitle, path string) error
}

// interface for parsing subtitle files
type Parser interface {
	Parse(path string) (*Subtitle, error)
}
