// Package export renders the session collection for reading outside vigil.
// It never mutates the sessions it is given.
package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cbroglie/mustache"
	"github.com/dustin/go-humanize"

	"github.com/neilberkman/vigil/internal/core/models"
	"github.com/neilberkman/vigil/internal/core/search"
)

// Markdown renders sessions, newest first, through a mustache template.
// streak may be nil to omit the summary.
func Markdown(template string, sessions []models.PrayerSession, streak *models.StreakState) (string, error) {
	ordered := append([]models.PrayerSession(nil), sessions...)
	search.SortNewestFirst(ordered)

	entries := make([]map[string]interface{}, 0, len(ordered))
	for _, s := range ordered {
		entries = append(entries, entry(s))
	}

	templateData := map[string]interface{}{
		"sessions": entries,
		"count":    len(entries),
	}
	if streak != nil {
		templateData["streak"] = map[string]interface{}{
			"current": streak.CurrentStreak,
			"longest": streak.LongestStreak,
			"total":   streak.TotalPrayers,
			"last":    string(streak.LastPrayerDate),
		}
	}

	out, err := mustache.Render(template, templateData)
	if err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return out, nil
}

func entry(s models.PrayerSession) map[string]interface{} {
	return map[string]interface{}{
		"id":             s.ID,
		"date":           string(s.Date),
		"label":          Label(s.Kind),
		"completed":      s.Completed,
		"duration":       FormatDuration(s.Duration),
		"intention":      s.Intention,
		"reflection":     s.Reflection,
		"mood":           string(s.Mood),
		"insights":       s.Insights,
		"gratitudes":     s.Gratitudes,
		"has_gratitudes": len(s.Gratitudes) > 0,
		"tags":           strings.Join(s.Tags, ", "),
	}
}

// Label describes a session kind, using ordinals for novena days.
func Label(k models.Kind) string {
	if k.Type != models.KindNovenaDay {
		return k.Label()
	}
	title := string(k.NovenaKind)
	if info, ok := models.LookupNovena(k.NovenaKind); ok {
		title = info.Title
	}
	return fmt.Sprintf("%s, %s day", title, humanize.Ordinal(k.Day))
}

// FormatDuration renders a duration in seconds as "20 min" or "1 hr 5 min".
// Zero renders as the empty string.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	d := time.Duration(seconds) * time.Second
	if d < time.Minute {
		return fmt.Sprintf("%d sec", seconds)
	}
	minutes := int(d.Round(time.Minute) / time.Minute)
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%d hr %d min", minutes/60, minutes%60)
}

// JSON writes the sessions in the same shape they are stored in, suitable for
// `vigil import`.
func JSON(sessions []models.PrayerSession) ([]byte, error) {
	if sessions == nil {
		sessions = []models.PrayerSession{}
	}
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode sessions: %w", err)
	}
	return append(data, '\n'), nil
}
