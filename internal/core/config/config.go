package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const DefaultExportTemplate = `# Prayer journal
{{#streak}}

Current streak: {{current}} · Longest: {{longest}} · Days prayed: {{total}}
{{/streak}}
{{#sessions}}

## {{date}}: {{{label}}}{{#completed}} ✓{{/completed}}
{{#duration}}
*{{duration}}*
{{/duration}}
{{#intention}}

**Intention:** {{{intention}}}
{{/intention}}
{{#mood}}
**Mood:** {{mood}}
{{/mood}}
{{#reflection}}

{{{reflection}}}
{{/reflection}}
{{#insights}}

> {{{insights}}}
{{/insights}}
{{#has_gratitudes}}

Grateful for:
{{#gratitudes}}
- {{{.}}}
{{/gratitudes}}
{{/has_gratitudes}}
{{#tags}}

Tags: {{{tags}}}
{{/tags}}
{{/sessions}}
`

const (
	DefaultLegacyTimeOfDay = "12:00"
	DefaultRecentDays      = 7
)

type Config struct {
	DBPath         string
	Location       *time.Location
	LegacyHour     int // time of day assigned to records migrated without timestamps
	LegacyMinute   int
	LogLevel       slog.Level
	RecentDays     int
	ExportTemplate string
}

type tomlConfig struct {
	DBPath          string `toml:"db_path"`
	Timezone        string `toml:"timezone"`
	LegacyTimeOfDay string `toml:"legacy_time_of_day"`
	LogLevel        string `toml:"log_level"`
	RecentDays      int    `toml:"recent_days"`
}

// Dir returns ~/.config/vigil
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "vigil"), nil
}

// DefaultDBPath returns ~/.config/vigil/vigil.db
func DefaultDBPath() string {
	dir, err := Dir()
	if err != nil {
		return "vigil.db"
	}
	return filepath.Join(dir, "vigil.db")
}

// Default returns the configuration used when no config file exists
func Default() *Config {
	return &Config{
		DBPath:         DefaultDBPath(),
		Location:       time.Local,
		LegacyHour:     12,
		LogLevel:       slog.LevelWarn,
		RecentDays:     DefaultRecentDays,
		ExportTemplate: DefaultExportTemplate,
	}
}

// Load reads config from ~/.config/vigil/
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return Default(), nil // Use defaults
	}
	return LoadFrom(dir)
}

// LoadFrom reads config.toml and export_template.md from dir. Missing files
// leave the defaults in place; a config file that exists but is invalid is an
// error.
func LoadFrom(dir string) (*Config, error) {
	cfg := Default()

	tomlPath := filepath.Join(dir, "config.toml")
	templatePath := filepath.Join(dir, "export_template.md")

	if _, err := os.Stat(tomlPath); err == nil {
		var tc tomlConfig
		if _, err := toml.DecodeFile(tomlPath, &tc); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", tomlPath, err)
		}
		if err := tc.apply(cfg); err != nil {
			return cfg, fmt.Errorf("invalid config %s: %w", tomlPath, err)
		}
	}

	// If custom template exists, use it
	if data, err := os.ReadFile(templatePath); err == nil {
		cfg.ExportTemplate = string(data)
	}

	return cfg, nil
}

func (tc tomlConfig) apply(cfg *Config) error {
	if tc.DBPath != "" {
		cfg.DBPath = expandHome(tc.DBPath)
	}
	if tc.Timezone != "" {
		loc, err := time.LoadLocation(tc.Timezone)
		if err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
		cfg.Location = loc
	}
	if tc.LegacyTimeOfDay != "" {
		hour, minute, err := ParseTimeOfDay(tc.LegacyTimeOfDay)
		if err != nil {
			return err
		}
		cfg.LegacyHour, cfg.LegacyMinute = hour, minute
	}
	if tc.LogLevel != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(tc.LogLevel)); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}
	if tc.RecentDays < 0 {
		return fmt.Errorf("recent_days must be positive, got %d", tc.RecentDays)
	}
	if tc.RecentDays > 0 {
		cfg.RecentDays = tc.RecentDays
	}
	return nil
}

// ParseTimeOfDay parses "HH:MM" in 24-hour form
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("legacy_time_of_day %q: expected HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
