package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neilberkman/vigil/internal/core/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <file-or-directory>",
	Short: "Import sessions from a JSON backup",
	Long: `Import prayer sessions from a backup file, or from every .json and .jsonl
file under a directory.

Accepted formats: a JSON array (as written by 'vigil export --format json'),
an object holding the array under "sessions" or "prayer_sessions", or JSONL
with one session per line.

Records without sync metadata are upgraded on the way in: they get a stable
id, a creation time on their date at legacy_time_of_day (default 12:00), and
this device's id. Sessions already in the journal are skipped, and files
imported before are not read again.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	imp := importer.New(a.DB, a.Sessions)

	if info.IsDir() {
		if _, err := imp.ImportDirectory(path, importer.NewProgressReporter(os.Stderr)); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		return nil
	}

	result, err := imp.ImportFile(path)
	if err := persisted(err); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	if result.Skipped {
		fmt.Printf("%s was already imported\n", path)
		return nil
	}
	fmt.Printf("Imported %d of %d session(s)\n", result.Added, result.Records)
	return nil
}
