// serve.go runs the MCP stdio server, the command/event transport the
// desktop shell connects to.

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/boswecw/cortex/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	Long:  `Exposes indexing and search operations as MCP tools and streams indexing progress as notifications. The front end owns the transport lifecycle.`,
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return mcp.Serve(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
