package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stillmote/reelsmith/internal/config"
	"github.com/stillmote/reelsmith/internal/pipeline"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Produce videos on a fixed interval",
	Long: `Run the pipeline immediately and then repeat it on a fixed
interval until interrupted. An in-flight run is never interrupted by
the next slot; that slot is skipped instead.

Examples:
  reelsmith schedule
  reelsmith schedule --every 12
  reelsmith schedule --skip-upload --every 6`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().
		Int("every", 0, "Hours between runs (overrides the config value)")
	scheduleCmd.Flags().
		Bool("skip-upload", false, "Render videos but do not upload them")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	every, _ := cmd.Flags().GetInt("every")
	skipUpload, _ := cmd.Flags().GetBool("skip-upload")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if every <= 0 {
		every = cfg.Schedule.EveryHours
	}

	runner, err := pipeline.New(ctx, cfg, logger, skipUpload)
	if err != nil {
		return err
	}

	err = runner.Schedule(ctx, every)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
