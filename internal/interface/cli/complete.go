package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neilberkman/vigil/internal/core/models"
)

var completeOpts journalFlags

var completeCmd = &cobra.Command{
	Use:   "complete <session-id>",
	Short: "Mark a session completed",
	Long: `Mark a session completed, optionally recording how long it took and a
journal entry. Fields you do not pass keep their current values.

Examples:
  vigil complete 3f2a
  vigil complete 3f2a --duration 25m --mood peaceful --gratitude "quiet morning"`,
	Args: cobra.ExactArgs(1),
	RunE: runComplete,
}

func init() {
	rootCmd.AddCommand(completeCmd)
	completeOpts.register(completeCmd)
}

func runComplete(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	id, err := resolveSession(a, args[0])
	if err != nil {
		return err
	}

	patch := completeOpts.patch(cmd)
	before := a.Streak.State()
	session, err := a.Sessions.Complete(id, patch.Duration, patch)
	if err := persisted(err); err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}

	printSession(session, false)
	printStreakChange(before, a.Streak.State())
	return nil
}

func printStreakChange(before, after models.StreakState) {
	if after.CurrentStreak == before.CurrentStreak && after.TotalPrayers == before.TotalPrayers {
		return
	}
	msg := fmt.Sprintf("%d day streak", after.CurrentStreak)
	if after.CurrentStreak > 1 && after.CurrentStreak >= after.LongestStreak {
		msg += " (your longest yet)"
	}
	fmt.Println(streakStyle.Render(msg))
}
