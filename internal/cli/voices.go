package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stillmote/reelsmith/internal/config"
	"github.com/stillmote/reelsmith/internal/narrate"
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the available narration voices",
	Long: `List every voice the speech synthesis account offers, with the
voice ID to put under narration.voice_id in the config file.

Examples:
  reelsmith voices`,
	Args: cobra.NoArgs,
	RunE: runVoices,
}

func init() {
	rootCmd.AddCommand(voicesCmd)
}

func runVoices(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := narrate.NewClient(cfg.Narration.APIKey, narrate.Options{
		BaseURL: cfg.Narration.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("narration client: %w", err)
	}

	voices, err := client.Voices(ctx)
	if err != nil {
		return err
	}

	for _, v := range voices {
		marker := " "
		if v.VoiceID == cfg.Narration.VoiceID {
			marker = "*"
		}
		fmt.Printf("%s %-24s %-12s %s\n", marker, v.Name, v.Category, v.VoiceID)
	}
	fmt.Printf("%d voices available\n", len(voices))

	return nil
}
