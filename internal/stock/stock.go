package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

const defaultBaseURL = "https://api.pexels.com"

// Client talks to the Pexels API.
type Client struct {
	apiKey  string
	baseURL string
	delay   time.Duration
	http    *http.Client
}

type Options struct {
	BaseURL      string
	RequestDelay time.Duration // politeness delay between API calls
}

func NewClient(apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		delay:   opts.RequestDelay,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

type VideoFile struct {
	ID       int    `json:"id"`
	Quality  string `json:"quality"`
	FileType string `json:"file_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Link     string `json:"link"`
}

type Video struct {
	ID       int         `json:"id"`
	Duration int         `json:"duration"`
	Files    []VideoFile `json:"video_files"`
}

type Photo struct {
	ID  int `json:"id"`
	Src struct {
		Original string `json:"original"`
		Large2X  string `json:"large2x"`
	} `json:"src"`
}

func (c *Client) SearchVideos(ctx context.Context, query string, perPage int) ([]Video, error) {
	var resp struct {
		Videos []Video `json:"videos"`
	}
	params := url.Values{
		"query":    {query},
		"per_page": {fmt.Sprintf("%d", perPage)},
	}
	if err := c.get(ctx, "/videos/search", params, &resp); err != nil {
		return nil, fmt.Errorf("video search %q failed: %w", query, err)
	}
	return resp.Videos, nil
}

func (c *Client) SearchPhotos(ctx context.Context, query string, perPage int) ([]Photo, error) {
	var resp struct {
		Photos []Photo `json:"photos"`
	}
	params := url.Values{
		"query":    {query},
		"per_page": {fmt.Sprintf("%d", perPage)},
	}
	if err := c.get(ctx, "/v1/search", params, &resp); err != nil {
		return nil, fmt.Errorf("photo search %q failed: %w", query, err)
	}
	return resp.Photos, nil
}

// Download fetches a media URL to dest, creating parent directories.
func (c *Client) Download(ctx context.Context, mediaURL, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: unexpected status %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

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

func (c *Client) pause(ctx context.Context) error {
	if c.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(c.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// bestFile picks the highest resolution rendition no wider than maxWidth,
// falling back to the smallest one when everything is wider.
func bestFile(files []VideoFile, maxWidth int) (VideoFile, bool) {
	if len(files) == 0 {
		return VideoFile{}, false
	}

	var (
		best      VideoFile
		bestArea  int
		small     VideoFile
		smallArea int
	)

	for _, f := range files {
		area := f.Width * f.Height
		if f.Width <= maxWidth && area > bestArea {
			best = f
			bestArea = area
		}
		if smallArea == 0 || area < smallArea {
			small = f
			smallArea = area
		}
	}

	if bestArea > 0 {
		return best, true
	}
	return small, true
}
