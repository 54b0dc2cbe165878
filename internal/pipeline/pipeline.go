package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stillmote/reelsmith/internal/compose"
	"github.com/stillmote/reelsmith/internal/config"
	"github.com/stillmote/reelsmith/internal/logging"
	"github.com/stillmote/reelsmith/internal/media"
	"github.com/stillmote/reelsmith/internal/narrate"
	"github.com/stillmote/reelsmith/internal/publish"
	"github.com/stillmote/reelsmith/internal/retry"
	"github.com/stillmote/reelsmith/internal/script"
	"github.com/stillmote/reelsmith/internal/stock"
	"github.com/stillmote/reelsmith/internal/subtitle"
	"github.com/stillmote/reelsmith/internal/tmdb"
)

// how long a still photo stays on screen when used as a segment source
const stillDuration = 5 * time.Second

// MovieSelector picks the movie for the next video.
type MovieSelector interface {
	SelectForBreakdown(ctx context.Context, filter tmdb.Filter) (*tmdb.Details, error)
}

// Narrator renders narration text to speech.
type Narrator interface {
	Synthesize(ctx context.Context, text string) (*narrate.Speech, error)
	Voices(ctx context.Context) ([]narrate.Voice, error)
}

// FootageGatherer downloads background footage for a genre set.
type FootageGatherer interface {
	Gather(ctx context.Context, genres []string, dir string, opts stock.GatherOptions) (*stock.Collection, error)
	SearchVideos(ctx context.Context, query string, perPage int) ([]stock.Video, error)
}

// Publisher uploads the finished video.
type Publisher interface {
	Upload(ctx context.Context, req publish.UploadRequest) (*publish.Upload, error)
	Channel(ctx context.Context) (*publish.Channel, error)
}

// Runner executes the whole production pipeline. Every stage is an
// injected dependency so tests can swap in fakes.
type Runner struct {
	cfg *config.Config
	log *logging.Logger

	movies    MovieSelector
	writer    script.Writer
	narrator  Narrator
	footage   FootageGatherer
	publisher Publisher // nil disables the upload stage

	composeFn   func(ctx context.Context, in compose.BuildInput) (*compose.Result, error)
	thumbnailFn func(ctx context.Context, in compose.ThumbnailInput) (string, error)
	probeFn     func(path string) (time.Duration, error)

	rng *rand.Rand
}

// New wires a Runner from config. With skipUpload set the publish stage
// is left out and YouTube credentials are not required.
func New(ctx context.Context, cfg *config.Config, log *logging.Logger, skipUpload bool) (*Runner, error) {
	movies, err := tmdb.NewClient(cfg.Movies.APIKey, cfg.Movies.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("movie client: %w", err)
	}

	writer, err := script.Factory(ctx, script.Provider(cfg.Script.Provider), cfg.Script.APIKey, script.Options{
		Model:       cfg.Script.Model,
		MinWords:    cfg.Script.MinWords,
		MaxWords:    cfg.Script.MaxWords,
		Temperature: cfg.Script.Temperature,
		MaxTokens:   cfg.Script.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("script writer: %w", err)
	}

	narrator, err := narrate.NewClient(cfg.Narration.APIKey, narrate.Options{
		BaseURL: cfg.Narration.BaseURL,
		VoiceID: cfg.Narration.VoiceID,
		Model:   cfg.Narration.Model,
		Settings: narrate.VoiceSettings{
			Stability:       cfg.Narration.Stability,
			SimilarityBoost: cfg.Narration.SimilarityBoost,
			Style:           cfg.Narration.Style,
		},
		MaxChunkChars: cfg.Narration.MaxChunkChars,
	})
	if err != nil {
		return nil, fmt.Errorf("narration client: %w", err)
	}

	footage, err := stock.NewClient(cfg.Visuals.APIKey, stock.Options{
		BaseURL:      cfg.Visuals.BaseURL,
		RequestDelay: time.Duration(cfg.Visuals.RequestDelayMS) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("stock footage client: %w", err)
	}

	var publisher Publisher
	if !skipUpload {
		policy := retry.DefaultPolicy()
		if cfg.Upload.MaxAttempts > 0 {
			policy.MaxAttempts = cfg.Upload.MaxAttempts
		}
		uploader, err := publish.NewUploader(ctx, publish.Credentials{
			ClientID:     cfg.Upload.ClientID,
			ClientSecret: cfg.Upload.ClientSecret,
			RefreshToken: cfg.Upload.RefreshToken,
		}, policy)
		if err != nil {
			return nil, fmt.Errorf("uploader: %w", err)
		}
		publisher = uploader
	}

	return &Runner{
		cfg:         cfg,
		log:         log,
		movies:      movies,
		writer:      writer,
		narrator:    narrator,
		footage:     footage,
		publisher:   publisher,
		composeFn:   compose.Build,
		thumbnailFn: compose.Thumbnail,
		probeFn:     media.Duration,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// StageTiming records how long one stage took.
type StageTiming struct {
	Stage   string
	Elapsed time.Duration
}

// Outcome is the result of one full pipeline run.
type Outcome struct {
	RunID         string
	MovieTitle    string
	ScriptWords   int
	AudioDuration time.Duration
	VideoPath     string
	ThumbnailPath string
	CaptionsSRT   string
	CaptionsVTT   string
	Captions      int
	Upload        *publish.Upload
	Timings       []StageTiming
}

// Run produces one video end to end. The per-run work directory is
// removed only after everything, upload included, has succeeded.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	runID := shortID()
	runDir := filepath.Join(r.cfg.Paths.WorkDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	outcome := &Outcome{RunID: runID}
	r.log.Infow("pipeline run starting", "run_id", runID, "work_dir", runDir)

	// movie selection
	var details *tmdb.Details
	err := r.stage(outcome, "select movie", func() error {
		var err error
		details, err = r.movies.SelectForBreakdown(ctx, tmdb.Filter{
			MinVoteAverage: r.cfg.Movies.MinVoteAverage,
			MinReleaseDate: r.cfg.Movies.MinReleaseDate,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	outcome.MovieTitle = details.Title
	r.log.Infow("movie selected",
		"title", details.Title,
		"release", details.ReleaseDate,
		"vote_average", details.VoteAverage,
	)

	subject := script.Subject{
		Title:       details.Title,
		ReleaseYear: details.ReleaseYear(),
		Overview:    details.Overview,
		Tagline:     details.Tagline,
		Genres:      details.GenreNames(),
		Runtime:     details.Runtime,
	}

	// script drafting
	var draft *script.Script
	err = r.stage(outcome, "draft script", func() error {
		var err error
		draft, err = r.writer.Draft(ctx, subject)
		return err
	})
	if err != nil {
		return nil, err
	}
	outcome.ScriptWords = draft.WordCount
	r.log.Infow("script drafted", "words", draft.WordCount)

	narration := script.NarrationText(draft)
	if narration == "" {
		return nil, fmt.Errorf("drafted script produced no narration text")
	}

	// narration synthesis
	var speech *narrate.Speech
	audioPath := filepath.Join(runDir, "narration.mp3")
	err = r.stage(outcome, "synthesize narration", func() error {
		var err error
		speech, err = r.narrator.Synthesize(ctx, narration)
		if err != nil {
			return err
		}
		return os.WriteFile(audioPath, speech.Audio, 0644)
	})
	if err != nil {
		return nil, err
	}

	audioDuration := speech.Duration
	if audioDuration <= 0 {
		audioDuration, err = r.probeFn(audioPath)
		if err != nil {
			return nil, fmt.Errorf("failed to measure narration duration: %w", err)
		}
	}
	outcome.AudioDuration = audioDuration
	r.log.Infow("narration synthesized",
		"duration", audioDuration.Round(time.Second),
		"timestamps", speech.HasTimestamps,
	)

	// stock footage
	var footage *stock.Collection
	err = r.stage(outcome, "gather footage", func() error {
		var err error
		footage, err = r.footage.Gather(ctx, subject.Genres, filepath.Join(runDir, "footage"), stock.GatherOptions{
			BackgroundCount: r.cfg.Visuals.BackgroundCount,
			PhotoCount:      r.cfg.Visuals.PhotoCount,
			PerQuery:        r.cfg.Visuals.PerQuery,
			MaxWidth:        r.cfg.Video.Width,
			MinSeconds:      int(r.cfg.Visuals.MinVideoSeconds),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	r.log.Infow("footage gathered", "videos", len(footage.Videos), "photos", len(footage.Photos))

	sources := make([]compose.ClipSource, 0, len(footage.Videos)+len(footage.Photos))
	for _, path := range footage.Videos {
		d, err := r.probeFn(path)
		if err != nil {
			r.log.Warnw("skipping unreadable clip", "path", path, "error", err)
			continue
		}
		sources = append(sources, compose.ClipSource{Path: path, Duration: d})
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no usable background clips")
	}
	// stills join the rotation as fixed-length sources
	for _, path := range footage.Photos {
		sources = append(sources, compose.ClipSource{Path: path, Duration: stillDuration})
	}

	// captions
	baseName := fmt.Sprintf("%s-%s", slug(details.Title), runID)
	srtPath := filepath.Join(r.cfg.Paths.OutputDir, baseName+".srt")
	vttPath := filepath.Join(r.cfg.Paths.OutputDir, baseName+".vtt")
	err = r.stage(outcome, "generate captions", func() error {
		gen := &subtitle.Generator{
			MaxLineChars:   r.cfg.Captions.MaxLineChars,
			MaxLines:       r.cfg.Captions.MaxLines,
			MinDuration:    r.cfg.Captions.MinCue(),
			MaxDuration:    r.cfg.Captions.MaxCue(),
			WordsPerMinute: r.cfg.Captions.WordsPerMinute,
		}

		var (
			sub *subtitle.Subtitle
			err error
		)
		if speech.HasTimestamps {
			sub, err = gen.FromWords(timestampWords(speech.Words))
		} else {
			sub, err = gen.Estimate(narration, audioDuration)
		}
		if err != nil {
			return err
		}
		if len(sub.Entries) == 0 {
			return fmt.Errorf("no caption cues generated")
		}
		outcome.Captions = len(sub.Entries)

		if err := (&subtitle.SRTWriter{}).Write(sub, srtPath); err != nil {
			return fmt.Errorf("failed to write SRT captions: %w", err)
		}
		if err := (&subtitle.VTTWriter{}).Write(sub, vttPath); err != nil {
			return fmt.Errorf("failed to write VTT captions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	outcome.CaptionsSRT = srtPath
	outcome.CaptionsVTT = vttPath
	r.log.Infow("captions written", "cues", outcome.Captions, "timed", speech.HasTimestamps)

	// composition
	videoPath := filepath.Join(r.cfg.Paths.OutputDir, baseName+".mp4")
	thumbPath := filepath.Join(r.cfg.Paths.OutputDir, baseName+".jpg")
	err = r.stage(outcome, "compose video", func() error {
		segments, err := compose.PlanSegments(sources, audioDuration, r.cfg.Video.MaxSegment(), r.rng)
		if err != nil {
			return err
		}

		result, err := r.composeFn(ctx, compose.BuildInput{
			Segments:      segments,
			AudioPath:     audioPath,
			AudioDuration: audioDuration,
			CaptionsPath:  srtPath,
			Title:         details.Title,
			OutputPath:    videoPath,
			WorkDir:       filepath.Join(runDir, "clips"),
			Width:         r.cfg.Video.Width,
			Height:        r.cfg.Video.Height,
			FPS:           r.cfg.Video.FPS,
			TitleDuration: time.Duration(r.cfg.Video.TitleSeconds * float64(time.Second)),
			Fade:          time.Duration(r.cfg.Video.FadeSeconds * float64(time.Second)),
		})
		if err != nil {
			return err
		}

		_, err = r.thumbnailFn(ctx, compose.ThumbnailInput{
			VideoPath:     result.VideoPath,
			VideoDuration: result.Duration,
			Title:         details.Title,
			OutputPath:    thumbPath,
			Width:         r.cfg.Video.ThumbnailWidth,
			Height:        r.cfg.Video.ThumbnailHeight,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	outcome.VideoPath = videoPath
	outcome.ThumbnailPath = thumbPath
	r.log.Infow("video composed", "path", videoPath)

	// publish
	if r.publisher != nil {
		meta := script.BuildMetadata(subject, r.cfg.Upload.CategoryID)
		err = r.stage(outcome, "publish", func() error {
			upload, err := r.publisher.Upload(ctx, publish.UploadRequest{
				VideoPath:     videoPath,
				ThumbnailPath: thumbPath,
				Title:         meta.Title,
				Description:   meta.Description,
				Tags:          meta.Tags,
				CategoryID:    meta.CategoryID,
				Privacy:       r.cfg.Upload.Privacy,
				Playlist:      r.cfg.Upload.Playlist,
			})
			if err != nil {
				return err
			}
			outcome.Upload = upload
			return nil
		})
		if err != nil {
			return nil, err
		}
		r.log.Infow("video published", "video_id", outcome.Upload.VideoID, "url", outcome.Upload.URL)
	} else {
		r.log.Infow("upload skipped")
	}

	if err := os.RemoveAll(runDir); err != nil {
		r.log.Warnw("failed to clean work directory", "path", runDir, "error", err)
	}

	r.log.Infow("pipeline run finished", "run_id", runID, "video", videoPath)
	return outcome, nil
}

func (r *Runner) stage(outcome *Outcome, name string, fn func() error) error {
	started := time.Now()
	err := fn()
	elapsed := time.Since(started)
	outcome.Timings = append(outcome.Timings, StageTiming{Stage: name, Elapsed: elapsed})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	r.log.Debugw("stage finished", "stage", name, "elapsed", elapsed.Round(time.Millisecond))
	return nil
}

func timestampWords(words []narrate.WordTimestamp) []subtitle.Word {
	out := make([]subtitle.Word, len(words))
	for i, w := range words {
		out[i] = subtitle.Word{Text: w.Word, Start: w.Start, End: w.End}
	}
	return out
}

func shortID() string {
	return uuid.NewString()[:8]
}

// slug turns a movie title into a filesystem friendly base name.
func slug(s string) string {
	var sb strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(sb.String(), "-")
	if out == "" {
		return "video"
	}
	return out
}
