package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/neilberkman/vigil/internal/core/export"
	"github.com/neilberkman/vigil/internal/core/models"
	"github.com/neilberkman/vigil/internal/core/search"
)

var (
	exportOutput    string
	exportFormat    string
	exportClipboard bool
	exportDays      int
)

var exportCmd = &cobra.Command{
	Use:   "export [query]",
	Short: "Export your journal to markdown or JSON",
	Long: `Export prayer sessions to markdown (rendered with a mustache template) or
JSON (the stored record format, readable by 'vigil import').

The markdown template can be customised at ~/.config/vigil/export_template.md.
By default the export is written to stdout. An optional query accepts the
same filters as 'vigil search'.

Examples:
  vigil export --days 30 -o ~/journal.md
  vigil export "kind:st-jude" --clipboard
  vigil export --format json -o backup.json`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: stdout)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "markdown", "Output format: markdown or json")
	exportCmd.Flags().BoolVar(&exportClipboard, "clipboard", false, "Copy the export to the clipboard")
	exportCmd.Flags().IntVar(&exportDays, "days", 0, "Only sessions from the last N days (0 for all)")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	filters := search.ParseQuery(strings.Join(args, " "), a.Clock.Now())
	if exportDays > 0 {
		today := a.Today()
		filters.After = today.AddDays(-(exportDays - 1))
		filters.Before = today
	}
	sessions := a.Sessions.Query(filters)

	var content string
	switch strings.ToLower(exportFormat) {
	case "markdown", "md":
		state := a.Streak.Preview(a.Sessions.All(), a.Today())
		content, err = export.Markdown(a.Config.ExportTemplate, sessions, &state)
	case "json":
		var data []byte
		data, err = export.JSON(sessions)
		content = string(data)
	default:
		return fmt.Errorf("unknown format %q: expected markdown or json", exportFormat)
	}
	if err != nil {
		return err
	}

	if exportClipboard {
		if err := clipboard.WriteAll(content); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Copied %d session(s) to clipboard\n", len(sessions))
	}

	if exportOutput == "" {
		if !exportClipboard {
			fmt.Print(content)
		}
		return nil
	}

	outputPath := exportOutput
	if !filepath.IsAbs(outputPath) {
		// Make relative paths absolute to current directory
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		outputPath = filepath.Join(cwd, outputPath)
	}
	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Exported %s to %s\n", sessionCount(sessions), outputPath)
	return nil
}

func sessionCount(sessions []models.PrayerSession) string {
	if len(sessions) == 1 {
		return "1 session"
	}
	return fmt.Sprintf("%d sessions", len(sessions))
}
