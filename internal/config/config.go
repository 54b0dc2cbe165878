package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every pipeline setting. It is built by Load and passed
// down explicitly; nothing reads it from package state.
type Config struct {
	Movies    MoviesConfig    `yaml:"movies"`
	Script    ScriptConfig    `yaml:"script"`
	Narration NarrationConfig `yaml:"narration"`
	Visuals   VisualsConfig   `yaml:"visuals"`
	Captions  CaptionsConfig  `yaml:"captions"`
	Video     VideoConfig     `yaml:"video"`
	Upload    UploadConfig    `yaml:"upload"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Paths     PathsConfig     `yaml:"paths"`
}

type MoviesConfig struct {
	APIKey         string  `yaml:"-"`
	BaseURL        string  `yaml:"base_url"`
	MinVoteAverage float64 `yaml:"min_vote_average"`
	MinReleaseDate string  `yaml:"min_release_date"`
}

type ScriptConfig struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"-"`
	Model       string  `yaml:"model"`
	MinWords    int     `yaml:"min_words"`
	MaxWords    int     `yaml:"max_words"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type NarrationConfig struct {
	APIKey          string  `yaml:"-"`
	BaseURL         string  `yaml:"base_url"`
	VoiceID         string  `yaml:"voice_id"`
	Model           string  `yaml:"model"`
	Stability       float64 `yaml:"stability"`
	SimilarityBoost float64 `yaml:"similarity_boost"`
	Style           float64 `yaml:"style"`
	MaxChunkChars   int     `yaml:"max_chunk_chars"`
}

type VisualsConfig struct {
	APIKey          string  `yaml:"-"`
	BaseURL         string  `yaml:"base_url"`
	BackgroundCount int     `yaml:"background_count"`
	PhotoCount      int     `yaml:"photo_count"`
	PerQuery        int     `yaml:"per_query"`
	RequestDelayMS  int     `yaml:"request_delay_ms"`
	MinVideoSeconds float64 `yaml:"min_video_seconds"`
}

// CaptionsConfig holds the cue building heuristics. The zero value is
// not usable; start from Default().
type CaptionsConfig struct {
	MaxLineChars   int     `yaml:"max_line_chars"`
	MaxLines       int     `yaml:"max_lines"`
	MinCueSeconds  float64 `yaml:"min_cue_seconds"`
	MaxCueSeconds  float64 `yaml:"max_cue_seconds"`
	WordsPerMinute int     `yaml:"words_per_minute"`
}

func (c CaptionsConfig) MinCue() time.Duration {
	return time.Duration(c.MinCueSeconds * float64(time.Second))
}

func (c CaptionsConfig) MaxCue() time.Duration {
	return time.Duration(c.MaxCueSeconds * float64(time.Second))
}

type VideoConfig struct {
	Width             int     `yaml:"width"`
	Height            int     `yaml:"height"`
	FPS               int     `yaml:"fps"`
	MaxSegmentSeconds float64 `yaml:"max_segment_seconds"`
	TitleSeconds      float64 `yaml:"title_seconds"`
	FadeSeconds       float64 `yaml:"fade_seconds"`
	ThumbnailWidth    int     `yaml:"thumbnail_width"`
	ThumbnailHeight   int     `yaml:"thumbnail_height"`
}

func (c VideoConfig) MaxSegment() time.Duration {
	return time.Duration(c.MaxSegmentSeconds * float64(time.Second))
}

type UploadConfig struct {
	ClientID     string `yaml:"-"`
	ClientSecret string `yaml:"-"`
	RefreshToken string `yaml:"-"`
	Privacy      string `yaml:"privacy"`
	CategoryID   string `yaml:"category_id"`
	Playlist     string `yaml:"playlist"`
	MaxAttempts  int    `yaml:"max_attempts"`
}

type ScheduleConfig struct {
	EveryHours int `yaml:"every_hours"`
}

type PathsConfig struct {
	WorkDir   string `yaml:"work_dir"`
	OutputDir string `yaml:"output_dir"`
}

func Default() *Config {
	return &Config{
		Movies: MoviesConfig{
			BaseURL:        "https://api.themoviedb.org/3",
			MinVoteAverage: 6.0,
			MinReleaseDate: "2020-01-01",
		},
		Script: ScriptConfig{
			Provider:    "openai",
			Model:       "gpt-4",
			MinWords:    1500,
			MaxWords:    2500,
			Temperature: 0.7,
			MaxTokens:   4000,
		},
		Narration: NarrationConfig{
			BaseURL:         "https://api.elevenlabs.io",
			VoiceID:         "EXAVITQu4vr4xnSDxMaL",
			Model:           "eleven_multilingual_v2",
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Style:           0.0,
			MaxChunkChars:   2500,
		},
		Visuals: VisualsConfig{
			BaseURL:         "https://api.pexels.com",
			BackgroundCount: 3,
			PhotoCount:      3,
			PerQuery:        2,
			RequestDelayMS:  500,
			MinVideoSeconds: 5,
		},
		Captions: CaptionsConfig{
			MaxLineChars:   60,
			MaxLines:       2,
			MinCueSeconds:  1,
			MaxCueSeconds:  5,
			WordsPerMinute: 150,
		},
		Video: VideoConfig{
			Width:             1920,
			Height:            1080,
			FPS:               24,
			MaxSegmentSeconds: 8,
			TitleSeconds:      3,
			FadeSeconds:       1,
			ThumbnailWidth:    1280,
			ThumbnailHeight:   720,
		},
		Upload: UploadConfig{
			Privacy:     "public",
			CategoryID:  "24",
			Playlist:    "Movie Breakdowns",
			MaxAttempts: 6,
		},
		Schedule: ScheduleConfig{
			EveryHours: 24,
		},
		Paths: PathsConfig{
			WorkDir:   "work",
			OutputDir: "output",
		},
	}
}

// Load reads a YAML config over the defaults and applies env overlays
// for secrets. A missing file is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv fills secrets from the environment. YAML never carries keys.
func (c *Config) ApplyEnv() {
	setIfEnv(&c.Movies.APIKey, "TMDB_API_KEY")
	setIfEnv(&c.Script.APIKey, "OPENAI_API_KEY")
	switch c.Script.Provider {
	case "anthropic":
		setIfEnv(&c.Script.APIKey, "ANTHROPIC_API_KEY")
	case "gemini":
		setIfEnv(&c.Script.APIKey, "GEMINI_API_KEY")
	}
	setIfEnv(&c.Narration.APIKey, "ELEVENLABS_API_KEY")
	setIfEnv(&c.Visuals.APIKey, "PEXELS_API_KEY")
	setIfEnv(&c.Upload.ClientID, "YOUTUBE_CLIENT_ID")
	setIfEnv(&c.Upload.ClientSecret, "YOUTUBE_CLIENT_SECRET")
	setIfEnv(&c.Upload.RefreshToken, "YOUTUBE_REFRESH_TOKEN")
}

func setIfEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) Validate() error {
	if c.Captions.MaxLineChars <= 0 {
		return fmt.Errorf("captions.max_line_chars must be positive, got %d", c.Captions.MaxLineChars)
	}
	if c.Captions.MaxLines <= 0 {
		return fmt.Errorf("captions.max_lines must be positive, got %d", c.Captions.MaxLines)
	}
	if c.Captions.MinCueSeconds <= 0 {
		return fmt.Errorf("captions.min_cue_seconds must be positive, got %v", c.Captions.MinCueSeconds)
	}
	if c.Captions.MaxCueSeconds < c.Captions.MinCueSeconds {
		return fmt.Errorf(
			"captions.max_cue_seconds (%v) must be >= min_cue_seconds (%v)",
			c.Captions.MaxCueSeconds,
			c.Captions.MinCueSeconds,
		)
	}
	if c.Captions.WordsPerMinute <= 0 {
		return fmt.Errorf("captions.words_per_minute must be positive, got %d", c.Captions.WordsPerMinute)
	}
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		return fmt.Errorf("video dimensions must be positive, got %dx%d", c.Video.Width, c.Video.Height)
	}
	if c.Video.FPS <= 0 {
		return fmt.Errorf("video.fps must be positive, got %d", c.Video.FPS)
	}
	if c.Video.MaxSegmentSeconds <= 0 {
		return fmt.Errorf("video.max_segment_seconds must be positive, got %v", c.Video.MaxSegmentSeconds)
	}
	if c.Schedule.EveryHours <= 0 {
		return fmt.Errorf("schedule.every_hours must be positive, got %d", c.Schedule.EveryHours)
	}
	return nil
}
