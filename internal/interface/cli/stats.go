package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/neilberkman/vigil/internal/core/calendar"
	"github.com/neilberkman/vigil/internal/core/models"
	"github.com/neilberkman/vigil/internal/core/streak"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show your streak and journal statistics",
	Long: `Display your current and longest streak, how many days you have prayed,
active novenas, and storage info.

The streak shown is computed for today; it is only saved when you complete a
session.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	all := a.Sessions.All()
	today := a.Today()
	state := a.Streak.Preview(all, today)

	fmt.Println(titleStyle.Render("Prayer Statistics"))
	fmt.Println()
	fmt.Println(streakStyle.Render(fmt.Sprintf("%d day streak", state.CurrentStreak)))
	fmt.Println()

	fmt.Println(row("Longest streak", fmt.Sprintf("%d days", max(state.LongestStreak, streak.Longest(all)))))
	fmt.Println(row("Days prayed", humanize.Comma(int64(state.TotalPrayers))))
	if state.LastPrayerDate != "" {
		fmt.Println(row("Last prayed", string(state.LastPrayerDate)))
	}

	completed := 0
	var seconds int
	for _, s := range all {
		if s.Completed {
			completed++
			seconds += s.Duration
		}
	}
	fmt.Println(row("Sessions", fmt.Sprintf("%s (%s completed)", humanize.Comma(int64(len(all))), humanize.Comma(int64(completed)))))
	if seconds > 0 {
		fmt.Println(row("Time in prayer", fmt.Sprintf("%.1f hours", float64(seconds)/3600)))
	}
	fmt.Println(row("Today", todaySummary(all, today)))
	fmt.Println()

	novenas := a.Novenas.List()
	active := 0
	for _, n := range novenas {
		if !n.IsCompleted {
			active++
		}
	}
	if len(novenas) > 0 {
		fmt.Println(titleStyle.Render("Novenas"))
		fmt.Println(row("Active", fmt.Sprintf("%d", active)))
		fmt.Println(row("Completed", fmt.Sprintf("%d", len(novenas)-active)))
		for _, n := range novenas {
			if n.IsCompleted {
				continue
			}
			if day, ok := a.Novenas.NextAvailableDay(n); ok {
				fmt.Println(row("", fmt.Sprintf("%s: %s day is ready", novenaTitle(n.Kind), humanize.Ordinal(day))))
			}
		}
		fmt.Println()
	}

	storage, err := a.DB.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read storage stats: %w", err)
	}
	fmt.Println(titleStyle.Render("Storage"))
	fmt.Println(row("Database", a.DB.Path()))
	fmt.Println(row("Size", humanize.IBytes(uint64(storage.SizeOnDiskKiB)*1024)))
	if !storage.LastWrite.IsZero() {
		fmt.Println(row("Last write", humanize.Time(storage.LastWrite)))
	}
	if storage.Quarantined > 0 {
		fmt.Println(row("Quarantined", warnStyle.Render(fmt.Sprintf("%d unreadable record set(s) kept aside", storage.Quarantined))))
	}
	return nil
}

func todaySummary(all []models.PrayerSession, today calendar.Date) string {
	open, done := 0, 0
	for _, s := range all {
		if s.Date != today {
			continue
		}
		if s.Completed {
			done++
		} else {
			open++
		}
	}
	if done == 0 && open == 0 {
		return dimStyle.Render("nothing yet")
	}
	return fmt.Sprintf("%d completed, %d open", done, open)
}

func novenaTitle(kind models.NovenaKind) string {
	if info, ok := models.LookupNovena(kind); ok {
		return info.Title
	}
	return string(kind)
}
