package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/stillmote/reelsmith/internal/ffmpeg"
)

// ThumbnailInput selects the frame and the overlaid title.
type ThumbnailInput struct {
	VideoPath     string
	VideoDuration time.Duration
	Title         string
	OutputPath    string
	Width         int
	Height        int
}

// Thumbnail grabs the frame at the video midpoint, scales it to the
// thumbnail frame, and stamps the outlined title across it.
func Thumbnail(ctx context.Context, in ThumbnailInput) (string, error) {
	if in.VideoPath == "" {
		return "", fmt.Errorf("video path is required")
	}
	if in.OutputPath == "" {
		return "", fmt.Errorf("output path is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(in.OutputPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	midpoint := in.VideoDuration / 2

	vf := scaleCropFilter(in.Width, in.Height)
	if in.Title != "" {
		vf += fmt.Sprintf(
			",drawtext=text='%s':fontsize=64:fontcolor=white:borderw=5:bordercolor=black:"+
				"x=(w-text_w)/2:y=h-text_h-60",
			escapeDrawtext(in.Title),
		)
	}

	err = ffmpeg.Input(in.VideoPath, ffmpeg.KwArgs{
		"ss": midpoint.Seconds(),
	}).
		Output(in.OutputPath, ffmpeg.KwArgs{
			"vframes": 1,
			"vf":      vf,
			"q:v":     2,
		}).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Run()
	if err != nil {
		return "", fmt.Errorf("failed to render thumbnail: %w", err)
	}

	return in.OutputPath, nil
}
