package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/neilberkman/vigil/internal/core/journal"
	"github.com/neilberkman/vigil/internal/core/models"
)

// journalFlags holds the journal fields a command accepts. Only flags the
// user actually passed end up in the patch, so omitted fields stay untouched
// and `--intention ""` clears.
type journalFlags struct {
	duration   time.Duration
	intention  string
	reflection string
	mood       string
	gratitudes []string
	insights   string
	tags       []string
}

func (f *journalFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.duration, "duration", 0, "How long you prayed (e.g. 20m)")
	cmd.Flags().StringVar(&f.intention, "intention", "", "Intention")
	cmd.Flags().StringVar(&f.reflection, "reflection", "", "Reflection")
	cmd.Flags().StringVar(&f.mood, "mood", "", "Mood: "+moodNames())
	cmd.Flags().StringArrayVar(&f.gratitudes, "gratitude", nil, "Something you are grateful for (repeatable, up to 5)")
	cmd.Flags().StringVar(&f.insights, "insights", "", "Insights")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "Tag (repeatable or comma-separated, up to 5)")
}

func (f *journalFlags) patch(cmd *cobra.Command) journal.Patch {
	changed := cmd.Flags().Changed
	var p journal.Patch
	if changed("duration") {
		p.Duration = journal.Int(int(f.duration / time.Second))
	}
	if changed("intention") {
		p.Intention = journal.String(f.intention)
	}
	if changed("reflection") {
		p.Reflection = journal.String(f.reflection)
	}
	if changed("mood") {
		p.Mood = journal.MoodOf(models.Mood(strings.ToLower(f.mood)))
	}
	if changed("gratitude") {
		p.Gratitudes = journal.Strings(f.gratitudes...)
	}
	if changed("insights") {
		p.Insights = journal.String(f.insights)
	}
	if changed("tag") {
		p.Tags = journal.Strings(f.tags...)
	}
	return p
}

func moodNames() string {
	names := make([]string, len(models.Moods))
	for i, m := range models.Moods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

var journalOpts journalFlags

var journalCmd = &cobra.Command{
	Use:   "journal <session-id>",
	Short: "Add to or edit a session's journal",
	Long: `Update the journal of a session without changing whether it is completed.

Only the fields you pass are changed. Pass an empty value to clear a field.

Examples:
  vigil journal 3f2a --reflection "Felt at peace during the third decade"
  vigil journal 3f2a --tag family --tag healing
  vigil journal 3f2a --intention ""`,
	Args: cobra.ExactArgs(1),
	RunE: runJournal,
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalOpts.register(journalCmd)
}

func runJournal(cmd *cobra.Command, args []string) error {
	patch := journalOpts.patch(cmd)
	if patch.IsEmpty() {
		return fmt.Errorf("nothing to update: pass at least one journal flag")
	}

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
	session, err := a.Sessions.UpdateJournal(id, patch)
	if err := persisted(err); err != nil {
		return fmt.Errorf("failed to update journal: %w", err)
	}

	printSession(session, true)
	return nil
}
