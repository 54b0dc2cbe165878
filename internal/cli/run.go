package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stillmote/reelsmith/internal/config"
	"github.com/stillmote/reelsmith/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Produce and upload one breakdown video",
	Long: `Run the full pipeline once: pick a movie, draft the script,
synthesize narration, gather footage, render the video, and upload it.

Examples:
  reelsmith run
  reelsmith run --skip-upload
  reelsmith run --config channel.yaml --verbose`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().
		Bool("skip-upload", false, "Render the video but do not upload it")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	skipUpload, _ := cmd.Flags().GetBool("skip-upload")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	runner, err := pipeline.New(ctx, cfg, logger, skipUpload)
	if err != nil {
		return err
	}

	outcome, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Video produced: %s\n", outcome.VideoPath)
	fmt.Printf("  Movie: %s\n", outcome.MovieTitle)
	fmt.Printf("  Script: %d words\n", outcome.ScriptWords)
	fmt.Printf("  Narration: %s\n", outcome.AudioDuration.Round(time.Second))
	fmt.Printf("  Captions: %d cues\n", outcome.Captions)
	fmt.Printf("  Thumbnail: %s\n", outcome.ThumbnailPath)
	if outcome.Upload != nil {
		fmt.Printf("  Published: %s\n", outcome.Upload.URL)
	}

	return nil
}
