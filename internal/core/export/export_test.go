package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neilberkman/vigil/internal/core/config"
	"github.com/neilberkman/vigil/internal/core/models"
)

func sampleSessions() []models.PrayerSession {
	created := time.Date(2024, 2, 1, 7, 0, 0, 0, time.UTC)
	return []models.PrayerSession{
		{
			ID: "older", Date: "2024-02-01", CreatedAt: created, Completed: true,
			Kind:    models.DailyRosary(models.MysteryJoyful),
			Journal: models.Journal{Duration: 1260, Intention: "Mom's surgery", Gratitudes: []string{"doctors", "friends"}},
		},
		{
			ID: "newer", Date: "2024-02-02", CreatedAt: created.Add(24 * time.Hour),
			Kind:    models.NovenaDay("n1", "st-jude", 2),
			Journal: models.Journal{Reflection: "hard to focus", Mood: models.MoodDistracted, Tags: []string{"work", "exam"}},
		},
	}
}

func TestMarkdownDefaultTemplate(t *testing.T) {
	streak := &models.StreakState{CurrentStreak: 2, LongestStreak: 5, TotalPrayers: 9}
	out, err := Markdown(config.DefaultExportTemplate, sampleSessions(), streak)
	require.NoError(t, err)

	assert.Contains(t, out, "Current streak: 2 · Longest: 5 · Days prayed: 9")
	assert.Contains(t, out, "## 2024-02-01: Rosary (joyful mysteries) ✓")
	assert.Contains(t, out, "*21 min*")
	assert.Contains(t, out, "**Intention:** Mom's surgery")
	assert.Contains(t, out, "- doctors")
	assert.Contains(t, out, "Novena to St. Jude, 2nd day")
	assert.Contains(t, out, "**Mood:** distracted")
	assert.Contains(t, out, "Tags: work, exam")

	// Newest first.
	assert.Less(t, strings.Index(out, "2024-02-02"), strings.Index(out, "2024-02-01"))
}

func TestMarkdownCustomTemplate(t *testing.T) {
	out, err := Markdown("{{count}}:{{#sessions}}[{{id}}]{{/sessions}}", sampleSessions(), nil)
	require.NoError(t, err)
	assert.Equal(t, "2:[newer][older]", out)
}

func TestMarkdownDoesNotReorderInput(t *testing.T) {
	in := sampleSessions()
	_, err := Markdown(config.DefaultExportTemplate, in, nil)
	require.NoError(t, err)
	assert.Equal(t, "older", in[0].ID)
}

func TestMarkdownBadTemplate(t *testing.T) {
	_, err := Markdown("{{#sessions}}", sampleSessions(), nil)
	assert.Error(t, err)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "", FormatDuration(0))
	assert.Equal(t, "45 sec", FormatDuration(45))
	assert.Equal(t, "20 min", FormatDuration(1200))
	assert.Equal(t, "1 hr 5 min", FormatDuration(3900))
}

func TestJSONRoundTrip(t *testing.T) {
	data, err := JSON(sampleSessions())
	require.NoError(t, err)

	var back []models.PrayerSession
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, sampleSessions(), back)

	empty, err := JSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(empty))
}
