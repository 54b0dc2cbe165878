package cli

import (
	"github.com/spf13/cobra"
	"github.com/stillmote/reelsmith/internal/logging"
)

var (
	configPath string
	verbose    bool
	logger     *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "reelsmith",
	Short: "Automated movie breakdown video pipeline",
	Long: `Reelsmith turns trending movies into narrated breakdown videos.

It selects a movie, drafts a narration script with an LLM, synthesizes
the voiceover, gathers stock footage, generates captions, renders the
final video with a thumbnail, and uploads the result to YouTube.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "reelsmith.yaml", "Path to the config file")
}
