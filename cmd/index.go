// index.go runs a foreground indexing session with terminal progress.

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/boswecw/cortex/internal/indexer"
	"github.com/boswecw/cortex/internal/progress"
)

var indexCmd = &cobra.Command{
	Use:   "index <path>...",
	Short: "Index one or more directories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		dir, err := cfg.EffectiveDataDir()
		if err != nil {
			return err
		}

		ix := indexer.New(s, indexer.Config{
			MaxFileSize:  cfg.EffectiveMaxFileSize(),
			ExcludeGlobs: cfg.ExcludePatterns,
			DataDir:      dir,
		}, progress.New())

		if err := ix.Start(cmd.Context(), args); err != nil {
			return err
		}
		ix.Wait()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
