package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/neilberkman/vigil/internal/core/errvalues"
	"github.com/neilberkman/vigil/internal/core/models"
	"github.com/neilberkman/vigil/internal/core/novena"
)

var (
	novenaIntention string
	novenaAll       bool
	novenaOpts      journalFlags
)

var novenaCmd = &cobra.Command{
	Use:   "novena",
	Short: "Start and follow nine-day novenas",
	Long: `Novenas run for nine days. Day N opens N-1 full days after you start, and
missed days can be caught up at any time.

Examples:
  vigil novena catalog
  vigil novena start st-jude --intention "for a new job"
  vigil novena complete 7c1e
  vigil novena complete 7c1e 3 --reflection "caught up after travelling"`,
}

var novenaStartCmd = &cobra.Command{
	Use:   "start <novena>",
	Short: "Start a novena from the catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runNovenaStart,
}

var novenaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List novenas in progress",
	RunE:  runNovenaList,
}

var novenaCompleteCmd = &cobra.Command{
	Use:   "complete <novena-id> [day]",
	Short: "Pray a novena day (default: the next available day)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runNovenaComplete,
}

var novenaNextCmd = &cobra.Command{
	Use:   "next <novena-id>",
	Short: "Show which day can be prayed now",
	Args:  cobra.ExactArgs(1),
	RunE:  runNovenaNext,
}

var novenaRemoveCmd = &cobra.Command{
	Use:   "remove <novena-id>",
	Short: "Remove a novena and the sessions logged for it",
	Args:  cobra.ExactArgs(1),
	RunE:  runNovenaRemove,
}

var novenaCatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the novenas you can start",
	Args:  cobra.NoArgs,
	RunE:  runNovenaCatalog,
}

func init() {
	rootCmd.AddCommand(novenaCmd)
	novenaCmd.AddCommand(novenaStartCmd, novenaListCmd, novenaCompleteCmd, novenaNextCmd, novenaRemoveCmd, novenaCatalogCmd)

	novenaStartCmd.Flags().StringVar(&novenaIntention, "intention", "", "Intention for the whole novena")
	novenaListCmd.Flags().BoolVar(&novenaAll, "all", false, "Include finished novenas")
	novenaOpts.register(novenaCompleteCmd)
}

func runNovenaStart(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	n, err := a.Novenas.Start(models.NovenaKind(strings.ToLower(args[0])), novenaIntention)
	if errors.Is(err, errvalues.ErrValidation) {
		return fmt.Errorf("%w (see 'vigil novena catalog')", err)
	}
	if err := persisted(err); err != nil {
		return fmt.Errorf("failed to start novena: %w", err)
	}

	printNovena(a.Novenas, n)
	return nil
}

func runNovenaList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	shown := 0
	for _, n := range a.Novenas.List() {
		if n.IsCompleted && !novenaAll {
			continue
		}
		printNovena(a.Novenas, n)
		shown++
	}
	if shown == 0 {
		fmt.Println("No novenas in progress. Run 'vigil novena catalog' to pick one.")
	}
	return nil
}

func runNovenaComplete(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	id, err := resolveNovena(a, args[0])
	if err != nil {
		return err
	}
	n, err := a.Novenas.Get(id)
	if err != nil {
		return err
	}

	var day int
	if len(args) > 1 {
		day, err = strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid day %q: %w", args[1], err)
		}
	} else {
		next, ok := a.Novenas.NextAvailableDay(n)
		if !ok {
			return fmt.Errorf("no day of this novena can be prayed right now%s", nextOpening(n))
		}
		day = next
	}

	before := a.Streak.State()
	n, session, err := a.Novenas.CompleteDay(id, day, novenaOpts.patch(cmd))
	if err := persisted(err); err != nil {
		return fmt.Errorf("failed to complete day %d: %w", day, err)
	}

	printSession(session, false)
	printNovena(a.Novenas, n)
	printStreakChange(before, a.Streak.State())
	return nil
}

func runNovenaNext(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	id, err := resolveNovena(a, args[0])
	if err != nil {
		return err
	}
	n, err := a.Novenas.Get(id)
	if err != nil {
		return err
	}

	if day, ok := a.Novenas.NextAvailableDay(n); ok {
		fmt.Printf("The %s day of %s is ready.\n", humanize.Ordinal(day), novenaTitle(n.Kind))
		return nil
	}
	if n.IsCompleted {
		fmt.Printf("%s is complete.\n", novenaTitle(n.Kind))
		return nil
	}
	fmt.Printf("Nothing to pray yet%s.\n", nextOpening(n))
	return nil
}

func runNovenaRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	id, err := resolveNovena(a, args[0])
	if err != nil {
		return err
	}
	removed, err := a.Novenas.Remove(id)
	if err := persisted(err); err != nil {
		return fmt.Errorf("failed to remove novena: %w", err)
	}
	if !removed {
		return fmt.Errorf("novena %s: %w", args[0], errvalues.ErrNotFound)
	}
	fmt.Printf("Removed novena %s and its sessions\n", shortID(id))
	return nil
}

func runNovenaCatalog(cmd *cobra.Command, args []string) error {
	for _, info := range models.NovenaCatalog() {
		fmt.Printf("%s  %s\n", titleStyle.Render(string(info.Kind)), info.Title)
		fmt.Println("    " + row("Patron", info.Patron))
		fmt.Println("    " + dimStyle.Render(info.Description))
		fmt.Println()
	}
	return nil
}

func printNovena(s *novena.Scheduler, n models.ActiveNovena) {
	fmt.Printf("%s  %s\n", dimStyle.Render(shortID(n.ID)), titleStyle.Render(novenaTitle(n.Kind)))
	fmt.Println("    " + row("Started", humanize.Time(n.StartDate)))
	fmt.Println("    " + row("Progress", progressBar(n)))
	if n.Intention != "" {
		fmt.Println("    " + row("Intention", n.Intention))
	}
	switch day, ok := s.NextAvailableDay(n); {
	case n.IsCompleted:
		fmt.Println("    " + doneStyle.Render("Completed"))
	case ok:
		fmt.Println("    " + row("Next", fmt.Sprintf("%s day is ready", humanize.Ordinal(day))))
	default:
		fmt.Println("    " + row("Next", "day "+strconv.Itoa(n.CurrentDay)+nextOpening(n)))
	}
	fmt.Println()
}

// progressBar renders one cell per day: ● done, ○ pending
func progressBar(n models.ActiveNovena) string {
	var b strings.Builder
	for day := 1; day <= models.NovenaLength; day++ {
		if n.HasCompleted(day) {
			b.WriteString(doneStyle.Render("●"))
		} else {
			b.WriteString(dimStyle.Render("○"))
		}
	}
	return fmt.Sprintf("%s %d/%d", b.String(), len(n.CompletedDays), models.NovenaLength)
}

// nextOpening describes when the next uncompleted day opens
func nextOpening(n models.ActiveNovena) string {
	for day := 1; day <= models.NovenaLength; day++ {
		if n.HasCompleted(day) {
			continue
		}
		opens := n.StartDate.Add(novena.DayOffset(day))
		return fmt.Sprintf(" (day %d opens %s)", day, humanize.Time(opens))
	}
	return ""
}
