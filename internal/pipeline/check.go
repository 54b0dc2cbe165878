package pipeline

import (
	"context"
	"fmt"

	"github.com/stillmote/reelsmith/internal/tmdb"
)

// CheckResult is the outcome of one connectivity probe.
type CheckResult struct {
	Name string
	Err  error
}

func (c CheckResult) OK() bool { return c.Err == nil }

// CheckModules probes each external service with a cheap read-only
// call. Every module is checked even when earlier ones fail.
func (r *Runner) CheckModules(ctx context.Context) []CheckResult {
	var results []CheckResult

	check := func(name string, fn func() error) {
		err := fn()
		if err != nil {
			r.log.Warnw("module check failed", "module", name, "error", err)
		} else {
			r.log.Infow("module check passed", "module", name)
		}
		results = append(results, CheckResult{Name: name, Err: err})
	}

	check("movies", func() error {
		movies, err := r.movies.SelectForBreakdown(ctx, tmdb.Filter{
			MinVoteAverage: r.cfg.Movies.MinVoteAverage,
			MinReleaseDate: r.cfg.Movies.MinReleaseDate,
		})
		if err != nil {
			return err
		}
		r.log.Infow("movie selection reachable", "current_pick", movies.Title)
		return nil
	})

	check("script", func() error {
		if r.writer == nil {
			return fmt.Errorf("no script writer configured")
		}
		return nil
	})

	check("narration", func() error {
		voices, err := r.narrator.Voices(ctx)
		if err != nil {
			return err
		}
		if len(voices) == 0 {
			return fmt.Errorf("no voices available")
		}
		return nil
	})

	check("footage", func() error {
		videos, err := r.footage.SearchVideos(ctx, "cinematic", 1)
		if err != nil {
			return err
		}
		if len(videos) == 0 {
			return fmt.Errorf("search returned no results")
		}
		return nil
	})

	check("upload", func() error {
		if r.publisher == nil {
			return fmt.Errorf("upload disabled or credentials missing")
		}
		ch, err := r.publisher.Channel(ctx)
		if err != nil {
			return err
		}
		r.log.Infow("channel reachable", "channel", ch.Title, "subscribers", ch.Subscribers)
		return nil
	})

	return results
}
