package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// Client is a minimal TMDb v3 API client.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Movie is a list entry from trending/popular results.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	GenreIDs    []int   `json:"genre_ids"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Details is the full record for a single movie.
type Details struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	Runtime     int     `json:"runtime"`
	Tagline     string  `json:"tagline"`
	Genres      []Genre `json:"genres"`
}

func (d *Details) GenreNames() []string {
	names := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		names = append(names, g.Name)
	}
	return names
}

// ReleaseYear returns the four digit year, or "" for malformed dates.
func (d *Details) ReleaseYear() string {
	if len(d.ReleaseDate) < 4 {
		return ""
	}
	return d.ReleaseDate[:4]
}

type listResponse struct {
	Results []Movie `json:"results"`
}

func (c *Client) Trending(ctx context.Context) ([]Movie, error) {
	var resp listResponse
	if err := c.get(ctx, "/trending/movie/week", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch trending movies: %w", err)
	}
	return resp.Results, nil
}

func (c *Client) Popular(ctx context.Context) ([]Movie, error) {
	var resp listResponse
	if err := c.get(ctx, "/movie/popular", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch popular movies: %w", err)
	}
	return resp.Results, nil
}

func (c *Client) Details(ctx context.Context, id int) (*Details, error) {
	var details Details
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), nil, &details); err != nil {
		return nil, fmt.Errorf("failed to fetch movie details: %w", err)
	}
	return &details, nil
}

// Filter gates which movies qualify for a breakdown video.
type Filter struct {
	MinVoteAverage float64
	MinReleaseDate string // ISO date, inclusive
}

func (f Filter) matches(m Movie) bool {
	if m.VoteAverage < f.MinVoteAverage {
		return false
	}
	// ISO dates compare lexicographically
	if f.MinReleaseDate != "" && m.ReleaseDate < f.MinReleaseDate {
		return false
	}
	return true
}

// SelectForBreakdown picks the movie for the next video: the first
// trending movie passing the filter, then the first popular movie
// passing it, then the first trending movie regardless. Full details
// are fetched for the pick.
func (c *Client) SelectForBreakdown(ctx context.Context, filter Filter) (*Details, error) {
	trending, err := c.Trending(ctx)
	if err != nil {
		return nil, err
	}

	pick, ok := firstMatch(trending, filter)
	if !ok {
		popular, err := c.Popular(ctx)
		if err != nil {
			return nil, err
		}
		pick, ok = firstMatch(popular, filter)
	}

	if !ok {
		if len(trending) == 0 {
			return nil, fmt.Errorf("no movies available for selection")
		}
		pick = trending[0]
	}

	return c.Details(ctx, pick.ID)
}

func firstMatch(movies []Movie, filter Filter) (Movie, bool) {
	for _, m := range movies {
		if filter.matches(m) {
			return m, true
		}
	}
	return Movie{}, false
}

func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)

	reqURL := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
