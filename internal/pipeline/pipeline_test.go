package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stillmote/reelsmith/internal/compose"
	"github.com/stillmote/reelsmith/internal/config"
	"github.com/stillmote/reelsmith/internal/logging"
	"github.com/stillmote/reelsmith/internal/narrate"
	"github.com/stillmote/reelsmith/internal/publish"
	"github.com/stillmote/reelsmith/internal/script"
	"github.com/stillmote/reelsmith/internal/stock"
	"github.com/stillmote/reelsmith/internal/tmdb"
)

type fakeSelector struct {
	details *tmdb.Details
	err     error
}

func (f *fakeSelector) SelectForBreakdown(context.Context, tmdb.Filter) (*tmdb.Details, error) {
	return f.details, f.err
}

type fakeWriter struct {
	text string
	err  error
}

func (f *fakeWriter) Draft(_ context.Context, subject script.Subject) (*script.Script, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &script.Script{
		Subject:   subject,
		Text:      f.text,
		WordCount: script.CountWords(f.text),
	}, nil
}

type fakeNarrator struct {
	speech *narrate.Speech
	voices []narrate.Voice
	err    error
}

func (f *fakeNarrator) Synthesize(context.Context, string) (*narrate.Speech, error) {
	return f.speech, f.err
}

func (f *fakeNarrator) Voices(context.Context) ([]narrate.Voice, error) {
	return f.voices, f.err
}

type fakeFootage struct {
	clips int
	err   error
}

func (f *fakeFootage) Gather(_ context.Context, _ []string, dir string, _ stock.GatherOptions) (*stock.Collection, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := &stock.Collection{}
	for i := 0; i < f.clips; i++ {
		path := filepath.Join(dir, fmt.Sprintf("background_%02d.mp4", i))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, []byte("clip"), 0644); err != nil {
			return nil, err
		}
		c.Videos = append(c.Videos, path)
	}
	return c, nil
}

func (f *fakeFootage) SearchVideos(context.Context, string, int) ([]stock.Video, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []stock.Video{{ID: 1}}, nil
}

type fakePublisher struct {
	req publish.UploadRequest
	err error
}

func (f *fakePublisher) Upload(_ context.Context, req publish.UploadRequest) (*publish.Upload, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &publish.Upload{VideoID: "vid123", URL: "https://www.youtube.com/watch?v=vid123"}, nil
}

func (f *fakePublisher) Channel(context.Context) (*publish.Channel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &publish.Channel{Title: "Test Channel"}, nil
}

func timedSpeech() *narrate.Speech {
	words := []narrate.WordTimestamp{
		{Word: "The", Start: 0, End: 300 * time.Millisecond},
		{Word: "story", Start: 300 * time.Millisecond, End: 800 * time.Millisecond},
		{Word: "begins.", Start: 800 * time.Millisecond, End: 1400 * time.Millisecond},
		{Word: "Everything", Start: 1400 * time.Millisecond, End: 2 * time.Second},
		{Word: "changes.", Start: 2 * time.Second, End: 2600 * time.Millisecond},
	}
	return &narrate.Speech{
		Audio:         []byte("mp3 bytes"),
		Words:         words,
		HasTimestamps: true,
		Duration:      2600 * time.Millisecond,
	}
}

func testRunner(t *testing.T, pub Publisher) (*Runner, *config.Config) {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(t.TempDir(), "work")
	cfg.Paths.OutputDir = filepath.Join(t.TempDir(), "output")

	r := &Runner{
		cfg: cfg,
		log: logging.NewNop(),
		movies: &fakeSelector{details: &tmdb.Details{
			ID:          42,
			Title:       "Night Harvest",
			Overview:    "A farmer discovers something in the field.",
			ReleaseDate: "2023-09-01",
			VoteAverage: 7.4,
			Runtime:     112,
			Genres:      []tmdb.Genre{{ID: 27, Name: "Horror"}},
		}},
		writer:    &fakeWriter{text: "The story begins.\n\nEverything changes."},
		narrator:  &fakeNarrator{speech: timedSpeech()},
		footage:   &fakeFootage{clips: 2},
		publisher: pub,
		composeFn: func(_ context.Context, in compose.BuildInput) (*compose.Result, error) {
			if err := os.MkdirAll(filepath.Dir(in.OutputPath), 0755); err != nil {
				return nil, err
			}
			if err := os.WriteFile(in.OutputPath, []byte("video"), 0644); err != nil {
				return nil, err
			}
			return &compose.Result{VideoPath: in.OutputPath, Duration: in.AudioDuration}, nil
		},
		thumbnailFn: func(_ context.Context, in compose.ThumbnailInput) (string, error) {
			if err := os.WriteFile(in.OutputPath, []byte("jpg"), 0644); err != nil {
				return "", err
			}
			return in.OutputPath, nil
		},
		probeFn: func(string) (time.Duration, error) { return 10 * time.Second, nil },
		rng:     rand.New(rand.NewSource(1)),
	}
	return r, cfg
}

func TestRunProducesVideoAndUploads(t *testing.T) {
	pub := &fakePublisher{}
	r, cfg := testRunner(t, pub)

	outcome, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if outcome.MovieTitle != "Night Harvest" {
		t.Errorf("MovieTitle = %q", outcome.MovieTitle)
	}
	if outcome.ScriptWords == 0 {
		t.Error("ScriptWords not recorded")
	}
	if outcome.AudioDuration != 2600*time.Millisecond {
		t.Errorf("AudioDuration = %v", outcome.AudioDuration)
	}
	if outcome.Captions == 0 {
		t.Error("no captions generated")
	}
	if outcome.Upload == nil || outcome.Upload.VideoID != "vid123" {
		t.Errorf("Upload = %+v", outcome.Upload)
	}

	for _, path := range []string{outcome.VideoPath, outcome.ThumbnailPath, outcome.CaptionsSRT, outcome.CaptionsVTT} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected output %s: %v", path, err)
		}
	}

	if !strings.Contains(filepath.Base(outcome.VideoPath), "night-harvest") {
		t.Errorf("video name %q not derived from title", outcome.VideoPath)
	}

	if pub.req.Title == "" || !strings.Contains(pub.req.Title, "Night Harvest") {
		t.Errorf("upload title = %q", pub.req.Title)
	}
	if pub.req.Playlist != cfg.Upload.Playlist {
		t.Errorf("upload playlist = %q", pub.req.Playlist)
	}

	// successful runs clean their scratch space
	entries, err := os.ReadDir(cfg.Paths.WorkDir)
	if err != nil {
		t.Fatalf("reading work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("work dir not cleaned: %d entries left", len(entries))
	}
}

func TestRunWithoutPublisherSkipsUpload(t *testing.T) {
	r, _ := testRunner(t, nil)

	outcome, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if outcome.Upload != nil {
		t.Errorf("Upload = %+v, want nil", outcome.Upload)
	}
}

func TestRunEstimatesCaptionsWithoutTimestamps(t *testing.T) {
	r, _ := testRunner(t, nil)
	r.narrator = &fakeNarrator{speech: &narrate.Speech{
		Audio:         []byte("mp3 bytes"),
		HasTimestamps: false,
	}}

	outcome, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if outcome.Captions == 0 {
		t.Error("expected estimated captions")
	}
	// duration falls back to probing the written audio file
	if outcome.AudioDuration != 10*time.Second {
		t.Errorf("AudioDuration = %v, want probed 10s", outcome.AudioDuration)
	}
}

func TestRunStageErrorsNameTheStage(t *testing.T) {
	stageErr := errors.New("service down")

	tests := []struct {
		name   string
		mutate func(r *Runner)
		stage  string
	}{
		{"selection", func(r *Runner) { r.movies = &fakeSelector{err: stageErr} }, "select movie"},
		{"drafting", func(r *Runner) { r.writer = &fakeWriter{err: stageErr} }, "draft script"},
		{"narration", func(r *Runner) { r.narrator = &fakeNarrator{err: stageErr} }, "synthesize narration"},
		{"footage", func(r *Runner) { r.footage = &fakeFootage{err: stageErr} }, "gather footage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := testRunner(t, nil)
			tt.mutate(r)

			_, err := r.Run(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, stageErr) {
				t.Errorf("error %v does not wrap the stage error", err)
			}
			if !strings.Contains(err.Error(), tt.stage) {
				t.Errorf("error %q does not name stage %q", err, tt.stage)
			}
		})
	}
}

func TestCheckModules(t *testing.T) {
	pub := &fakePublisher{}
	r, _ := testRunner(t, pub)
	r.narrator = &fakeNarrator{voices: []narrate.Voice{{VoiceID: "v1", Name: "Bella"}}}

	results := r.CheckModules(context.Background())
	if len(results) != 5 {
		t.Fatalf("got %d results, want 5", len(results))
	}
	for _, res := range results {
		if !res.OK() {
			t.Errorf("check %s failed: %v", res.Name, res.Err)
		}
	}
}

func TestCheckModulesReportsFailures(t *testing.T) {
	r, _ := testRunner(t, nil)
	r.narrator = &fakeNarrator{err: errors.New("unauthorized")}

	results := r.CheckModules(context.Background())

	byName := make(map[string]CheckResult)
	for _, res := range results {
		byName[res.Name] = res
	}

	if byName["narration"].OK() {
		t.Error("narration check should fail")
	}
	if byName["upload"].OK() {
		t.Error("upload check should fail without a publisher")
	}
	if !byName["movies"].OK() {
		t.Errorf("movies check failed: %v", byName["movies"].Err)
	}
}

func TestScheduleRejectsNonPositiveInterval(t *testing.T) {
	r, _ := testRunner(t, nil)
	if err := r.Schedule(context.Background(), 0); err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Night Harvest", "night-harvest"},
		{"Mad Max: Fury Road", "mad-max-fury-road"},
		{"  WALL·E  ", "wall-e"},
		{"!!!", "video"},
	}
	for _, tt := range tests {
		if got := slug(tt.in); got != tt.want {
			t.Errorf("slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
