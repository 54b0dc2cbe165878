package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/stillmote/reelsmith/internal/retry"
)

// Credentials is the OAuth refresh-token triplet for a channel.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

func (c Credentials) validate() error {
	if c.ClientID == "" || c.ClientSecret == "" || c.RefreshToken == "" {
		return fmt.Errorf("client ID, client secret, and refresh token are all required")
	}
	return nil
}

// Uploader publishes videos to YouTube.
type Uploader struct {
	service *youtube.Service
	policy  retry.Policy
}

func NewUploader(ctx context.Context, creds Credentials, policy retry.Policy) (*Uploader, error) {
	if err := creds.validate(); err != nil {
		return nil, err
	}

	config := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			youtube.YoutubeUploadScope,
			youtube.YoutubeScope,
		},
	}
	client := config.Client(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})

	service, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	if policy.MaxAttempts <= 0 {
		policy = retry.DefaultPolicy()
	}

	return &Uploader{
		service: service,
		policy:  policy,
	}, nil
}

// UploadRequest describes one video to publish.
type UploadRequest struct {
	VideoPath     string
	ThumbnailPath string
	Title         string
	Description   string
	Tags          []string
	CategoryID    string
	Privacy       string
	Playlist      string // playlist title; created if missing
}

func (r UploadRequest) validate() error {
	if r.VideoPath == "" {
		return fmt.Errorf("video path is required")
	}
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	return nil
}

// Upload is the outcome of a successful publish.
type Upload struct {
	VideoID    string
	URL        string
	PlaylistID string
}

// Upload performs the resumable insert under the retry policy, then
// sets the thumbnail and files the video into the playlist. Thumbnail
// and playlist failures do not fail the upload itself.
func (u *Uploader) Upload(ctx context.Context, req UploadRequest) (*Upload, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(req.VideoPath); err != nil {
		return nil, fmt.Errorf("video file not found: %s", req.VideoPath)
	}

	privacy := req.Privacy
	if privacy == "" {
		privacy = "private"
	}
	categoryID := req.CategoryID
	if categoryID == "" {
		categoryID = "24"
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       req.Title,
			Description: req.Description,
			Tags:        req.Tags,
			CategoryId:  categoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           privacy,
			SelfDeclaredMadeForKids: false,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}

	var inserted *youtube.Video
	err := u.policy.Do(ctx, func(ctx context.Context) error {
		file, err := os.Open(req.VideoPath)
		if err != nil {
			return err
		}
		defer func() { _ = file.Close() }()

		inserted, err = u.service.Videos.
			Insert([]string{"snippet", "status"}, video).
			Media(file).
			Context(ctx).
			Do()
		return err
	}, Retriable)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	result := &Upload{
		VideoID: inserted.Id,
		URL:     "https://www.youtube.com/watch?v=" + inserted.Id,
	}

	if req.ThumbnailPath != "" {
		if err := u.SetThumbnail(ctx, inserted.Id, req.ThumbnailPath); err != nil {
			return result, fmt.Errorf("video uploaded but thumbnail failed: %w", err)
		}
	}

	if req.Playlist != "" {
		playlistID, err := u.EnsurePlaylist(ctx, req.Playlist)
		if err != nil {
			return result, fmt.Errorf("video uploaded but playlist lookup failed: %w", err)
		}
		if err := u.AddToPlaylist(ctx, playlistID, inserted.Id); err != nil {
			return result, fmt.Errorf("video uploaded but playlist insert failed: %w", err)
		}
		result.PlaylistID = playlistID
	}

	return result, nil
}

func (u *Uploader) SetThumbnail(ctx context.Context, videoID, thumbnailPath string) error {
	return u.policy.Do(ctx, func(ctx context.Context) error {
		file, err := os.Open(thumbnailPath)
		if err != nil {
			return err
		}
		defer func() { _ = file.Close() }()

		_, err = u.service.Thumbnails.
			Set(videoID).
			Media(file).
			Context(ctx).
			Do()
		return err
	}, Retriable)
}

// EnsurePlaylist returns the ID of the channel playlist with the given
// title, creating it when absent.
func (u *Uploader) EnsurePlaylist(ctx context.Context, title string) (string, error) {
	resp, err := u.service.Playlists.
		List([]string{"snippet"}).
		Mine(true).
		MaxResults(50).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to list playlists: %w", err)
	}

	for _, p := range resp.Items {
		if p.Snippet != nil && p.Snippet.Title == title {
			return p.Id, nil
		}
	}

	created, err := u.service.Playlists.
		Insert([]string{"snippet", "status"}, &youtube.Playlist{
			Snippet: &youtube.PlaylistSnippet{Title: title},
			Status:  &youtube.PlaylistStatus{PrivacyStatus: "public"},
		}).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to create playlist %q: %w", title, err)
	}

	return created.Id, nil
}

func (u *Uploader) AddToPlaylist(ctx context.Context, playlistID, videoID string) error {
	_, err := u.service.PlaylistItems.
		Insert([]string{"snippet"}, &youtube.PlaylistItem{
			Snippet: &youtube.PlaylistItemSnippet{
				PlaylistId: playlistID,
				ResourceId: &youtube.ResourceId{
					Kind:    "youtube#video",
					VideoId: videoID,
				},
			},
		}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to add video to playlist: %w", err)
	}
	return nil
}

// Channel is a summary of the authenticated channel.
type Channel struct {
	ID          string
	Title       string
	Subscribers uint64
	Videos      uint64
}

func (u *Uploader) Channel(ctx context.Context) (*Channel, error) {
	resp, err := u.service.Channels.
		List([]string{"snippet", "statistics"}).
		Mine(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("no channel for authenticated account")
	}

	item := resp.Items[0]
	ch := &Channel{ID: item.Id}
	if item.Snippet != nil {
		ch.Title = item.Snippet.Title
	}
	if item.Statistics != nil {
		ch.Subscribers = item.Statistics.SubscriberCount
		ch.Videos = item.Statistics.VideoCount
	}
	return ch, nil
}

// Retriable reports whether an upload error is worth another attempt:
// transient server statuses are, client errors and local file problems
// are not.
func Retriable(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return retry.RetriableStatus(apiErr.Code)
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return false
	}

	// network hiccups and other transport errors
	return true
}
