// root.go defines the root command and CLI execution entry point.
//
// Design: commands open the store lazily via openStore so `cortex serve` and
// maintenance commands control the store lifecycle themselves, and bare
// `cortex` prints help without touching the data directory.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boswecw/cortex/internal/config"
	"github.com/boswecw/cortex/internal/store"
)

// dataDir is the --data-dir override; empty means ~/.cortex.
var dataDir string

var rootCmd = &cobra.Command{
	Use:   "cortex",
	Short: "Local file indexing and full-text search core",
	Long:  `Cortex discovers files on disk, extracts text from documents, maintains a persistent full-text index, and answers ranked search queries with highlighted snippets.`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.cortex)")
}

// Execute runs the root command. Exit code 1 indicates error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the effective configuration for this invocation.
func loadConfig() (*config.Config, error) {
	return config.Load(dataDir)
}

// openStore loads config and opens an initialised store. Callers own Close.
func openStore() (*store.SQLiteStore, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	dbPath, err := cfg.DBPath()
	if err != nil {
		return nil, nil, err
	}
	dir, err := cfg.EffectiveDataDir()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	if err := s.Init(); err != nil {
		s.Close()
		return nil, nil, err
	}
	return s, cfg, nil
}

// printJSON renders a value as indented JSON on stdout.
func printJSON(v any) error {
	data, err := store.MarshalJSON(v)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
