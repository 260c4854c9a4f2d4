// detail.go prints one document's record.

package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/boswecw/cortex/internal/search"
)

var detailFullContent bool

var detailCmd = &cobra.Command{
	Use:   "detail <file_id>",
	Short: "Show a document's metadata and content preview",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fileID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}

		s, _, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		detail, err := search.New(s, s).Detail(cmd.Context(), fileID, detailFullContent)
		if err != nil {
			return err
		}
		return printJSON(detail.ToJSON())
	},
}

func init() {
	detailCmd.Flags().BoolVar(&detailFullContent, "full", false, "include the full extracted text")
	rootCmd.AddCommand(detailCmd)
}
