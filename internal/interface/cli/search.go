package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neilberkman/vigil/internal/core/search"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search your prayer journal",
	Long: `Search intentions, reflections, insights, gratitudes and tags (case-insensitive).

Filters can be mixed into the query:
  kind:<type>            rosary, chaplet, novena, 54-day, or a novena name (st-jude)
  after:<date>           sessions on or after a date
  before:<date>          sessions on or before a date
  date:<date>            sessions on a single date
  done                   completed sessions only

Dates accept YYYY-MM-DD or natural language (yesterday, 3-days-ago).

Examples:
  vigil search healing
  vigil search "healing after:2024-01-01 kind:chaplet"
  vigil search "date:yesterday"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 50, "Maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	query := strings.Join(args, " ")
	filters := search.ParseQuery(query, a.Clock.Now())
	filters.Limit = searchLimit
	if filters.IsZero() {
		return fmt.Errorf("search query cannot be empty")
	}

	results := a.Sessions.Query(filters)
	if len(results) == 0 {
		fmt.Printf("No sessions match %q\n", query)
		return nil
	}

	fmt.Printf("Found %d session(s)\n\n", len(results))
	for _, s := range results {
		printSession(s, false)
	}
	return nil
}
