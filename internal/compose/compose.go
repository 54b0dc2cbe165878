package compose

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/stillmote/reelsmith/internal/ffmpeg"
	"github.com/stillmote/reelsmith/internal/media"
	"github.com/stillmote/reelsmith/internal/subtitle"
)

// BuildInput is everything needed to assemble the final video.
type BuildInput struct {
	Segments      []Segment
	AudioPath     string
	AudioDuration time.Duration
	CaptionsPath  string // SRT to burn in; optional
	Title         string
	OutputPath    string
	WorkDir       string // scratch space for intermediate clips

	Width         int
	Height        int
	FPS           int
	TitleDuration time.Duration
	Fade          time.Duration
}

// Result describes the assembled video.
type Result struct {
	VideoPath string
	Duration  time.Duration
	Cues      int
}

// Build renders the background segments, concatenates them, then burns
// captions and the title overlay while muxing the narration audio.
func Build(ctx context.Context, in BuildInput) (*Result, error) {
	if len(in.Segments) == 0 {
		return nil, fmt.Errorf("no segments to compose")
	}
	if in.AudioPath == "" {
		return nil, fmt.Errorf("audio path is required")
	}
	if in.OutputPath == "" {
		return nil, fmt.Errorf("output path is required")
	}

	cues := 0
	if in.CaptionsPath != "" {
		sub, err := (&subtitle.SRTParser{}).Parse(in.CaptionsPath)
		if err != nil {
			return nil, fmt.Errorf("caption file unusable: %w", err)
		}
		if len(sub.Entries) == 0 {
			return nil, fmt.Errorf("caption file %s has no cues", in.CaptionsPath)
		}
		cues = len(sub.Entries)
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(in.WorkDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(in.OutputPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	// pass 1: normalize each segment to the target frame
	clipPaths := make([]string, len(in.Segments))
	for i, seg := range in.Segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		clipPath := filepath.Join(in.WorkDir, fmt.Sprintf("segment_%03d.mp4", i))

		// stills are looped for the segment length instead of seeked
		inputArgs := ffmpeg.KwArgs{
			"ss": seg.Offset.Seconds(),
			"t":  seg.Length.Seconds(),
		}
		if media.IsImageFile(seg.Source) {
			inputArgs = ffmpeg.KwArgs{
				"loop":      1,
				"t":         seg.Length.Seconds(),
				"framerate": in.FPS,
			}
		}

		err := ffmpeg.Input(seg.Source, inputArgs).
			Output(clipPath, ffmpeg.KwArgs{
				"vf":      scaleCropFilter(in.Width, in.Height),
				"r":       in.FPS,
				"an":      "",
				"c:v":     "libx264",
				"preset":  "fast",
				"pix_fmt": "yuv420p",
			}).
			OverWriteOutput().
			SetFfmpegPath(ffmpegPath).
			Run()
		if err != nil {
			return nil, fmt.Errorf("failed to render segment %d: %w", i, err)
		}
		clipPaths[i] = clipPath
	}

	// pass 2: concatenate
	concatPath := filepath.Join(in.WorkDir, "background.mp4")
	listPath := filepath.Join(in.WorkDir, "segments.txt")
	if err := writeConcatList(listPath, clipPaths); err != nil {
		return nil, err
	}

	err = ffmpeg.Input(listPath, ffmpeg.KwArgs{
		"f":    "concat",
		"safe": 0,
	}).
		Output(concatPath, ffmpeg.KwArgs{"c": "copy"}).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Run()
	if err != nil {
		return nil, fmt.Errorf("failed to concatenate segments: %w", err)
	}

	// pass 3: overlays, captions, fades, narration audio
	total := in.AudioDuration
	if total <= 0 {
		total = totalLength(in.Segments)
	}

	videoIn := ffmpeg.Input(concatPath)
	audioIn := ffmpeg.Input(in.AudioPath)

	err = ffmpeg.Output(
		[]*ffmpeg.Stream{videoIn, audioIn},
		in.OutputPath,
		ffmpeg.KwArgs{
			"vf":       overlayChain(in, total),
			"c:v":      "libx264",
			"preset":   "medium",
			"crf":      23,
			"c:a":      "aac",
			"b:a":      "192k",
			"pix_fmt":  "yuv420p",
			"shortest": "",
		},
	).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Run()
	if err != nil {
		return nil, fmt.Errorf("failed to compose final video: %w", err)
	}

	return &Result{
		VideoPath: in.OutputPath,
		Duration:  total,
		Cues:      cues,
	}, nil
}

func totalLength(segments []Segment) time.Duration {
	var total time.Duration
	for _, s := range segments {
		total += s.Length
	}
	return total
}

func writeConcatList(path string, clips []string) error {
	var sb strings.Builder
	for _, clip := range clips {
		sb.WriteString(fmt.Sprintf("file '%s'\n", clip))
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}
	return nil
}

// overlayChain builds the -vf chain for the final pass.
func overlayChain(in BuildInput, total time.Duration) string {
	var filters []string

	if in.CaptionsPath != "" {
		filters = append(filters, captionFilter(in.CaptionsPath))
	}
	if in.Title != "" && in.TitleDuration > 0 {
		filters = append(filters, titleFilter(in.Title, in.TitleDuration))
	}
	if in.Fade > 0 && total > 2*in.Fade {
		filters = append(filters, fadeFilter(in.Fade, total))
	}

	if len(filters) == 0 {
		return "null"
	}
	return strings.Join(filters, ",")
}

func captionFilter(srtPath string) string {
	style := "FontSize=22,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000,Outline=2,Alignment=2,MarginV=50"
	return fmt.Sprintf("subtitles='%s':force_style='%s'", escapeFilterPath(srtPath), style)
}

func titleFilter(title string, duration time.Duration) string {
	secs := duration.Seconds()
	return fmt.Sprintf(
		"drawtext=text='%s':fontsize=72:fontcolor=white:borderw=4:bordercolor=black:"+
			"x=(w-text_w)/2:y=(h-text_h)/3:enable='lt(t,%g)':alpha='min(1,(%g-t)*2)'",
		escapeDrawtext(title),
		secs,
		secs,
	)
}

func fadeFilter(fade, total time.Duration) string {
	return fmt.Sprintf(
		"fade=t=in:st=0:d=%g,fade=t=out:st=%g:d=%g",
		fade.Seconds(),
		(total - fade).Seconds(),
		fade.Seconds(),
	)
}

func scaleCropFilter(width, height int) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d",
		width, height, width, height,
	)
}

// escapeDrawtext quotes characters drawtext treats specially.
func escapeDrawtext(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, `:`, `\:`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return s
}

// escapeFilterPath quotes a filename inside a filter argument.
func escapeFilterPath(s string) string {
	s = strings.ReplaceAll(s, `\`, `/`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, `:`, `\:`)
	return s
}
