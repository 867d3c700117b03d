package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/neilberkman/vigil/internal/core/export"
	"github.com/neilberkman/vigil/internal/core/models"
	"github.com/neilberkman/vigil/internal/core/search"
)

var (
	listLimit int
	listDays  int
	listKind  string
	listDone  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List prayer sessions",
	Long: `List prayer sessions, newest first.

By default shows the trailing window configured by recent_days (7 days).

Examples:
  vigil list
  vigil list --days 30 --kind chaplet
  vigil list --days 0 --limit 50`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum number of sessions to display")
	listCmd.Flags().IntVar(&listDays, "days", -1, "Only sessions from the last N days, today included (0 for all; default from config)")
	listCmd.Flags().StringVar(&listKind, "kind", "", "Filter by kind (rosary, chaplet, novena, 54-day, or a novena name)")
	listCmd.Flags().BoolVar(&listDone, "done", false, "Only completed sessions")
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	days := listDays
	if days < 0 {
		days = a.Config.RecentDays
	}

	filters := search.Filters{Kind: listKind, CompletedOnly: listDone, Limit: listLimit}
	if days > 0 {
		today := a.Today()
		filters.After = today.AddDays(-(days - 1))
		filters.Before = today
	}
	sessions := a.Sessions.Query(filters)

	if len(sessions) == 0 {
		fmt.Println("No sessions found. Run 'vigil pray rosary' to log one.")
		return nil
	}

	fmt.Printf("Showing %d session(s)\n\n", len(sessions))
	for _, s := range sessions {
		printSession(s, false)
	}
	return nil
}

// printSession writes a session summary; full includes every journal field.
func printSession(s models.PrayerSession, full bool) {
	status := dimStyle.Render("open")
	if s.Completed {
		status = doneStyle.Render("done")
	}
	fmt.Printf("%s  %s  %s  %s\n", dimStyle.Render(shortID(s.ID)), s.Date, status, titleStyle.Render(export.Label(s.Kind)))

	if d := export.FormatDuration(s.Duration); d != "" {
		fmt.Println("    " + row("Duration", d))
	}
	if s.Intention != "" {
		fmt.Println("    " + row("Intention", truncate(s.Intention, 80, full)))
	}
	if s.Mood != "" {
		fmt.Println("    " + row("Mood", string(s.Mood)))
	}
	if s.Reflection != "" {
		fmt.Println("    " + row("Reflection", truncate(s.Reflection, 80, full)))
	}
	if full {
		if s.Insights != "" {
			fmt.Println("    " + row("Insights", s.Insights))
		}
		if len(s.Gratitudes) > 0 {
			fmt.Println("    " + row("Grateful for", strings.Join(s.Gratitudes, ", ")))
		}
		fmt.Println("    " + row("Updated", humanize.Time(s.UpdatedAt)))
		fmt.Println("    " + row("Version", fmt.Sprintf("%d (%s)", s.Version, s.SyncStatus)))
	}
	if len(s.Tags) > 0 {
		fmt.Println("    " + row("Tags", strings.Join(s.Tags, ", ")))
	}
	fmt.Println()
}

// truncate shortens long text for display
func truncate(text string, maxLen int, full bool) string {
	// Remove newlines and excessive whitespace
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if full || len(runes) <= maxLen {
		return text
	}

	// Find a good break point (end of word)
	truncated := string(runes[:maxLen])
	lastSpace := strings.LastIndex(truncated, " ")
	if lastSpace > 0 && lastSpace > maxLen-20 {
		truncated = truncated[:lastSpace]
	}

	return truncated + "..."
}
