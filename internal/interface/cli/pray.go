package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/neilberkman/vigil/internal/core/journal"
	"github.com/neilberkman/vigil/internal/core/models"
)

var (
	prayMystery string
	prayDone    bool
	prayOpts    journalFlags
)

var prayCmd = &cobra.Command{
	Use:   "pray <rosary|chaplet|54-day> [chaplet-id|day]",
	Short: "Log a prayer session",
	Long: `Start a prayer session dated today. Use --done to mark it completed right away,
or finish it later with 'vigil complete'.

The rosary defaults to the mysteries of the day (Mon/Sat joyful, Tue/Fri
sorrowful, Thu luminous, Wed/Sun glorious).

Examples:
  vigil pray rosary --done --duration 20m --intention "for my family"
  vigil pray rosary --mystery luminous
  vigil pray chaplet divine-mercy --done
  vigil pray 54-day 12 --done`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPray,
}

func init() {
	rootCmd.AddCommand(prayCmd)
	prayCmd.Flags().StringVar(&prayMystery, "mystery", "", "Rosary mysteries: joyful, sorrowful, glorious, luminous (default: today's)")
	prayCmd.Flags().BoolVar(&prayDone, "done", false, "Mark the session completed")
	prayOpts.register(prayCmd)
}

func runPray(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	kind, err := parseKind(args, a.Today().Weekday())
	if err != nil {
		return err
	}

	patch := prayOpts.patch(cmd)
	session, err := a.Sessions.Create(kind, patch)
	if err := persisted(err); err != nil {
		return fmt.Errorf("failed to log session: %w", err)
	}

	if prayDone {
		before := a.Streak.State()
		session, err = a.Sessions.Complete(session.ID, nil, journal.Patch{})
		if err := persisted(err); err != nil {
			return fmt.Errorf("failed to complete session: %w", err)
		}
		printSession(session, false)
		printStreakChange(before, a.Streak.State())
		return nil
	}

	printSession(session, false)
	fmt.Printf("Finish it with: vigil complete %s\n", shortID(session.ID))
	return nil
}

func parseKind(args []string, weekday time.Weekday) (models.Kind, error) {
	switch strings.ToLower(args[0]) {
	case "rosary":
		if len(args) > 1 {
			return models.Kind{}, fmt.Errorf("rosary takes no extra argument; use --mystery")
		}
		mystery := models.Mystery(strings.ToLower(prayMystery))
		if mystery == "" {
			mystery = models.MysteryForWeekday(weekday)
		}
		return models.DailyRosary(mystery), nil
	case "chaplet":
		if len(args) < 2 {
			return models.Kind{}, fmt.Errorf("chaplet requires a chaplet id, e.g. divine-mercy")
		}
		return models.Chaplet(args[1]), nil
	case "54-day", "54":
		if len(args) < 2 {
			return models.Kind{}, fmt.Errorf("54-day requires a day number between 1 and %d", models.FiftyFourDayLength)
		}
		day, err := strconv.Atoi(args[1])
		if err != nil {
			return models.Kind{}, fmt.Errorf("invalid day %q: %w", args[1], err)
		}
		return models.FiftyFourDay(day)
	case "novena":
		return models.Kind{}, fmt.Errorf("novena days are logged with 'vigil novena complete'")
	default:
		return models.Kind{}, fmt.Errorf("unknown prayer %q: expected rosary, chaplet or 54-day", args[0])
	}
}
