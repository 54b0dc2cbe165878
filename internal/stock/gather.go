package stock

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// genreQueries maps TMDb genre names to evocative stock search terms.
var genreQueries = map[string][]string{
	"Action":          {"city night traffic timelapse", "explosion slow motion"},
	"Adventure":       {"mountain landscape aerial", "ocean waves drone"},
	"Animation":       {"colorful abstract motion", "neon lights bokeh"},
	"Comedy":          {"people laughing", "colorful city street"},
	"Crime":           {"police lights night", "urban rain night"},
	"Drama":           {"rain on window", "city street dusk"},
	"Fantasy":         {"misty mountains", "enchanted forest light"},
	"Horror":          {"dark forest fog", "abandoned building interior"},
	"Mystery":         {"foggy street lamp", "dim hallway shadows"},
	"Romance":         {"couple silhouette sunset", "city lights bokeh"},
	"Science Fiction": {"futuristic city night", "stars space timelapse"},
	"Thriller":        {"dark alley night", "silhouette walking night"},
}

// cinematicQueries pad out the search list regardless of genre.
var cinematicQueries = []string{
	"cinematic dark moody",
	"dramatic clouds timelapse",
	"film set lights",
}

// QueriesForGenres expands genre names into stock search queries,
// always ending with the generic cinematic terms.
func QueriesForGenres(genres []string) []string {
	var queries []string
	seen := make(map[string]bool)

	add := func(q string) {
		if !seen[q] {
			seen[q] = true
			queries = append(queries, q)
		}
	}

	for _, genre := range genres {
		for _, q := range genreQueries[genre] {
			add(q)
		}
	}
	for _, q := range cinematicQueries {
		add(q)
	}

	return queries
}

// GatherOptions bound how much footage a run collects.
type GatherOptions struct {
	BackgroundCount int // background videos to download
	PhotoCount      int // still photos to download
	PerQuery        int // best renditions taken per query
	MaxWidth        int // widest acceptable rendition
	MinSeconds      int // skip clips shorter than this
}

func (o GatherOptions) withDefaults() GatherOptions {
	if o.BackgroundCount <= 0 {
		o.BackgroundCount = 3
	}
	if o.PhotoCount <= 0 {
		o.PhotoCount = 3
	}
	if o.PerQuery <= 0 {
		o.PerQuery = 2
	}
	if o.MaxWidth <= 0 {
		o.MaxWidth = 1920
	}
	return o
}

// Collection is the downloaded footage for one run.
type Collection struct {
	Videos []string // local paths
	Photos []string // local paths
}

// Gather searches and downloads background footage for the given
// genres into dir. It stops as soon as the requested counts are met
// and pauses between API calls.
func (c *Client) Gather(
	ctx context.Context,
	genres []string,
	dir string,
	opts GatherOptions,
) (*Collection, error) {
	opts = opts.withDefaults()
	queries := QueriesForGenres(genres)

	collection := &Collection{}

	for _, query := range queries {
		if len(collection.Videos) >= opts.BackgroundCount {
			break
		}

		videos, err := c.SearchVideos(ctx, query, 10)
		if err != nil {
			return nil, err
		}

		taken := 0
		for _, v := range videos {
			if taken >= opts.PerQuery || len(collection.Videos) >= opts.BackgroundCount {
				break
			}
			if opts.MinSeconds > 0 && v.Duration < opts.MinSeconds {
				continue
			}

			file, ok := bestFile(v.Files, opts.MaxWidth)
			if !ok {
				continue
			}

			dest := filepath.Join(dir, fmt.Sprintf("background_%02d%s", len(collection.Videos), extensionFor(file)))
			if err := c.Download(ctx, file.Link, dest); err != nil {
				return nil, err
			}

			collection.Videos = append(collection.Videos, dest)
			taken++
		}

		if err := c.pause(ctx); err != nil {
			return nil, err
		}
	}

	if len(collection.Videos) == 0 {
		return nil, fmt.Errorf("no background footage found for genres %v", genres)
	}

	// one photo per leading query until the photo budget is met
	for i, query := range queries {
		if i >= opts.PhotoCount || len(collection.Photos) >= opts.PhotoCount {
			break
		}

		photos, err := c.SearchPhotos(ctx, query, 1)
		if err != nil {
			return nil, err
		}
		if len(photos) == 0 {
			continue
		}

		src := photos[0].Src.Large2X
		if src == "" {
			src = photos[0].Src.Original
		}
		if src == "" {
			continue
		}

		dest := filepath.Join(dir, fmt.Sprintf("photo_%02d.jpg", len(collection.Photos)))
		if err := c.Download(ctx, src, dest); err != nil {
			return nil, err
		}
		collection.Photos = append(collection.Photos, dest)

		if err := c.pause(ctx); err != nil {
			return nil, err
		}
	}

	return collection, nil
}

func extensionFor(file VideoFile) string {
	if strings.Contains(file.FileType, "quicktime") {
		return ".mov"
	}
	return ".mp4"
}
