// db.go groups store maintenance: purge, vacuum, integrity check, and the
// one-shot corruption recovery. These are deliberate operations, kept out of
// the indexing and query hot paths.

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boswecw/cortex/internal/store"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Store maintenance operations",
}

var dbPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Permanently remove soft-deleted documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, _, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		purged, err := s.PurgeDeleted(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"purged": purged})
	},
}

var dbVacuumCmd = &cobra.Command{
	Use:   "vacuum",
	Short: "Rebuild the database file to reclaim space",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, _, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		return s.Vacuum(cmd.Context())
	},
}

var dbCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Run an integrity check",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, _, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		err = s.IntegrityCheck(cmd.Context())
		var corrupt *store.CorruptionError
		if errors.As(err, &corrupt) {
			return fmt.Errorf("%w\n\nRun: cortex db recover", err)
		}
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"integrity": "ok"})
	},
}

var dbRecoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Rewrite a corrupted store through the journal",
	Long:  `Reads every salvageable page into a fresh database file and atomically swaps it into place. One-shot; run after "cortex db check" reports corruption.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dbPath, err := cfg.DBPath()
		if err != nil {
			return err
		}

		if err := store.Recover(cmd.Context(), dbPath); err != nil {
			return err
		}
		return printJSON(map[string]any{"recovered": dbPath})
	},
}

func init() {
	dbCmd.AddCommand(dbPurgeCmd, dbVacuumCmd, dbCheckCmd, dbRecoverCmd)
	rootCmd.AddCommand(dbCmd)
}
