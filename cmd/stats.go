// stats.go prints aggregate index statistics.

package cmd

import (
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate index statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, _, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		st, err := s.Stats(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(map[string]any{
			"total_files":      st.TotalFiles,
			"indexed_files":    st.IndexedFiles,
			"total_size_bytes": st.TotalSizeBytes,
		})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
