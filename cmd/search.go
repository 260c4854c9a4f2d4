// search.go answers ranked queries from the command line, printing the same
// JSON shape the façade returns.

package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/boswecw/cortex/internal/search"
	"github.com/boswecw/cortex/internal/store"
)

var (
	searchFileType string
	searchMinSize  int64
	searchMaxSize  int64
	searchDateFrom string
	searchDateTo   string
	searchLimit    int
	searchOffset   int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over indexed files",
	Long:  `Query syntax: terms are AND-ed implicitly; OR, NOT, "phrase" and prefix* are supported. Matches are stemmed, so "run" finds "running".`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		filters := store.Filters{
			FileType: searchFileType,
			MinSize:  searchMinSize,
			MaxSize:  searchMaxSize,
		}
		if searchDateFrom != "" {
			if filters.DateFrom, err = parseCLIDate(searchDateFrom, false); err != nil {
				return err
			}
		}
		if searchDateTo != "" {
			if filters.DateTo, err = parseCLIDate(searchDateTo, true); err != nil {
				return err
			}
		}

		engine := search.New(s, s)
		res, err := engine.Search(cmd.Context(), search.Request{
			Query:   args[0],
			Filters: filters,
			Limit:   searchLimit,
			Offset:  searchOffset,
		})
		if err != nil {
			return err
		}

		hits := make([]store.HitJSON, 0, len(res.Results))
		for i := range res.Results {
			hits = append(hits, res.Results[i].ToJSON())
		}
		return printJSON(map[string]any{
			"results":       hits,
			"total":         res.Total,
			"query_time_ms": res.QueryTimeMs,
		})
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchFileType, "type", "", "filter by extension (e.g. md)")
	searchCmd.Flags().Int64Var(&searchMinSize, "min-size", 0, "inclusive lower size bound in bytes")
	searchCmd.Flags().Int64Var(&searchMaxSize, "max-size", 0, "inclusive upper size bound in bytes (0 = unbounded)")
	searchCmd.Flags().StringVar(&searchDateFrom, "from", "", "inclusive modification date lower bound (ISO-8601)")
	searchCmd.Flags().StringVar(&searchDateTo, "to", "", "inclusive modification date upper bound (ISO-8601)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", search.DefaultLimit, "page size")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "page start")
	rootCmd.AddCommand(searchCmd)
}

// parseCLIDate accepts RFC3339 timestamps or bare dates; a bare date used as
// an upper bound covers the whole day.
func parseCLIDate(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.New("invalid date, expected ISO-8601: " + s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t.UTC(), nil
}
