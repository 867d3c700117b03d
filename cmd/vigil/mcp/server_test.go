package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neilberkman/vigil/internal/core/app"
	"github.com/neilberkman/vigil/internal/core/clock"
	"github.com/neilberkman/vigil/internal/core/config"
)

type testApp struct {
	*app.App
	now time.Time
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "vigil.db")

	ta := &testApp{now: time.Date(2024, 3, 18, 7, 30, 0, 0, time.UTC)} // a Monday
	a, err := app.Open(cfg, clock.Func(func() time.Time { return ta.now }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	ta.App = a
	return ta
}

func call(t *testing.T, h handler, args map[string]interface{}) map[string]interface{} {
	t.Helper()
	request := mcp.CallToolRequest{}
	request.Params.Arguments = args

	result, err := h(context.Background(), request)
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	if result.IsError {
		return map[string]interface{}{"error": text.Text}
	}

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	return payload
}

func resultMap(t *testing.T, payload map[string]interface{}) map[string]interface{} {
	t.Helper()
	m, ok := payload["result"].(map[string]interface{})
	require.True(t, ok, "payload: %v", payload)
	return m
}

func TestLogPrayerAndComplete(t *testing.T) {
	a := newTestApp(t)

	logged := resultMap(t, call(t, makeLogPrayerHandler(a.App), map[string]interface{}{
		"kind":      "rosary",
		"intention": "for peace",
	}))
	assert.Equal(t, "Rosary (joyful mysteries)", logged["label"])
	assert.Equal(t, false, logged["completed"])
	id := logged["id"].(string)

	completed := resultMap(t, call(t, makeCompleteSessionHandler(a.App), map[string]interface{}{
		"session_id":       id,
		"duration_minutes": 20,
		"intention":        nil,
		"tags":             []string{"lent"},
	}))
	session := completed["session"].(map[string]interface{})
	assert.Equal(t, true, session["completed"])
	assert.Equal(t, "for peace", session["intention"])
	assert.Equal(t, float64(1200), session["duration"])
	assert.Equal(t, float64(2), session["version"])

	streak := completed["streak"].(map[string]interface{})
	assert.Equal(t, float64(1), streak["currentStreak"])
}

func TestLogPrayerErrors(t *testing.T) {
	a := newTestApp(t)
	h := makeLogPrayerHandler(a.App)

	assert.Contains(t, call(t, h, map[string]interface{}{"kind": "litany"}), "error")
	assert.Contains(t, call(t, h, map[string]interface{}{"kind": "chaplet"}), "error")
	assert.Contains(t, call(t, h, map[string]interface{}{"kind": "54-day", "day": 60}), "error")
	assert.Contains(t, call(t, h, map[string]interface{}{"kind": "rosary", "tags": []string{"1", "2", "3", "4", "5", "6"}}), "error")
}

func TestCompleteSessionNotFound(t *testing.T) {
	a := newTestApp(t)
	payload := call(t, makeCompleteSessionHandler(a.App), map[string]interface{}{"session_id": "nope"})
	assert.Contains(t, payload["error"], "not found")
}

func TestUpdateJournalPatch(t *testing.T) {
	a := newTestApp(t)
	logged := resultMap(t, call(t, makeLogPrayerHandler(a.App), map[string]interface{}{
		"kind": "chaplet", "chaplet_id": "divine-mercy", "completed": true, "reflection": "mercy",
	}))

	updated := resultMap(t, call(t, makeUpdateJournalHandler(a.App), map[string]interface{}{
		"session_id": logged["id"],
		"mood":       "Grateful",
	}))
	assert.Equal(t, "mercy", updated["reflection"])
	assert.Equal(t, "grateful", updated["mood"])
	assert.Equal(t, true, updated["completed"])
}

func TestSearchAndRecent(t *testing.T) {
	a := newTestApp(t)
	log := makeLogPrayerHandler(a.App)
	call(t, log, map[string]interface{}{"kind": "rosary", "intention": "Healing for Anna"})
	call(t, log, map[string]interface{}{"kind": "chaplet", "chaplet_id": "st-michael", "tags": []string{"protection"}})

	found := resultMap(t, call(t, makeSearchSessionsHandler(a.App), map[string]interface{}{"query": "healing"}))
	assert.Len(t, found["sessions"], 1)

	found = resultMap(t, call(t, makeSearchSessionsHandler(a.App), map[string]interface{}{"query": "kind:chaplet"}))
	assert.Len(t, found["sessions"], 1)

	recent := resultMap(t, call(t, makeRecentSessionsHandler(a.App), map[string]interface{}{"days": 1}))
	assert.Len(t, recent["sessions"], 2)
}

func TestNegativeLimitFallsBackToDefault(t *testing.T) {
	a := newTestApp(t)
	call(t, makeLogPrayerHandler(a.App), map[string]interface{}{"kind": "rosary", "completed": true, "intention": "healing"})

	recent := resultMap(t, call(t, makeRecentSessionsHandler(a.App), map[string]interface{}{"limit": -1}))
	assert.Len(t, recent["sessions"], 1)

	found := resultMap(t, call(t, makeSearchSessionsHandler(a.App), map[string]interface{}{"query": "healing", "limit": -1}))
	assert.Len(t, found["sessions"], 1)
}

func TestNovenaTools(t *testing.T) {
	a := newTestApp(t)

	started := resultMap(t, call(t, makeStartNovenaHandler(a.App), map[string]interface{}{"novena": "st-jude"}))
	id := started["id"].(string)
	assert.Equal(t, "Novena to St. Jude", started["title"])
	assert.Equal(t, float64(1), started["nextAvailableDay"])

	done := resultMap(t, call(t, makeCompleteNovenaDayHandler(a.App), map[string]interface{}{
		"novena_id": id, "intention": "a job",
	}))
	novena := done["novena"].(map[string]interface{})
	assert.Equal(t, "a job", novena["intention"])
	assert.Equal(t, []interface{}{float64(1)}, novena["completedDays"])
	assert.NotEmpty(t, novena["nextDayOpens"])

	tooEarly := call(t, makeCompleteNovenaDayHandler(a.App), map[string]interface{}{"novena_id": id, "day": 2})
	assert.Contains(t, tooEarly["error"], "not available yet")

	a.now = a.now.Add(24 * time.Hour)
	listed := resultMap(t, call(t, makeListNovenasHandler(a.App), map[string]interface{}{}))
	novenas := listed["novenas"].([]interface{})
	require.Len(t, novenas, 1)
	assert.Equal(t, float64(2), novenas[0].(map[string]interface{})["nextAvailableDay"])

	removed := resultMap(t, call(t, makeRemoveNovenaHandler(a.App), map[string]interface{}{"novena_id": id}))
	assert.Equal(t, true, removed["removed"])
	assert.Empty(t, a.Sessions.All())

	removed = resultMap(t, call(t, makeRemoveNovenaHandler(a.App), map[string]interface{}{"novena_id": id}))
	assert.Equal(t, false, removed["removed"])
}

func TestGetStreak(t *testing.T) {
	a := newTestApp(t)
	call(t, makeLogPrayerHandler(a.App), map[string]interface{}{"kind": "rosary", "completed": true})

	streak := call(t, makeGetStreakHandler(a.App), map[string]interface{}{})["result"].(map[string]interface{})
	assert.Equal(t, float64(1), streak["currentStreak"])
	assert.Equal(t, "2024-03-18", streak["lastPrayerDate"])

	a.now = a.now.Add(48 * time.Hour)
	streak = call(t, makeGetStreakHandler(a.App), map[string]interface{}{})["result"].(map[string]interface{})
	assert.Equal(t, float64(0), streak["currentStreak"])
	assert.Equal(t, float64(1), streak["longestStreak"])
}

func TestNewServerRegistersTools(t *testing.T) {
	a := newTestApp(t)
	s := NewServer(a.App)

	msg := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(data, &resp))

	var names []string
	for _, tool := range resp.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"log_prayer", "complete_session", "update_journal", "search_sessions", "recent_sessions",
		"get_streak", "start_novena", "complete_novena_day", "list_novenas", "remove_novena",
	}, names)
}
