package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stillmote/reelsmith/internal/config"
	"github.com/stillmote/reelsmith/internal/pipeline"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify connectivity to every external service",
	Long: `Probe each pipeline dependency with a cheap read-only call:
movie selection, the script provider, speech synthesis, stock footage
search, and the YouTube channel.

Examples:
  reelsmith check
  reelsmith check --config channel.yaml`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	runner, err := pipeline.New(ctx, cfg, logger, false)
	if err != nil {
		// still check the other modules when upload credentials are absent
		logger.Warnw("Upload unavailable", "error", err)
		runner, err = pipeline.New(ctx, cfg, logger, true)
		if err != nil {
			return err
		}
	}

	results := runner.CheckModules(ctx)

	failed := 0
	for _, res := range results {
		if res.OK() {
			fmt.Printf("  [ok]   %s\n", res.Name)
		} else {
			fmt.Printf("  [fail] %s: %v\n", res.Name, res.Err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d module checks failed", failed, len(results))
	}
	fmt.Printf("All %d modules reachable\n", len(results))
	return nil
}
