package sessions

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neilberkman/vigil/internal/core/calendar"
	"github.com/neilberkman/vigil/internal/core/clock"
	"github.com/neilberkman/vigil/internal/core/db"
	"github.com/neilberkman/vigil/internal/core/errvalues"
	"github.com/neilberkman/vigil/internal/core/journal"
	"github.com/neilberkman/vigil/internal/core/models"
	"github.com/neilberkman/vigil/internal/core/streak"
)

type fixedDevice string

func (d fixedDevice) ID() string { return string(d) }

type fakeClock struct{ now time.Time }

func (c *fakeClock) clock() clock.Clock { return clock.Func(func() time.Time { return c.now }) }

type env struct {
	db      *db.DB
	clock   *fakeClock
	tracker *streak.Tracker
	store   *Store
}

func newEnv(t *testing.T) *env {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "vigil.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	e := &env{db: database, clock: &fakeClock{now: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}}
	e.tracker = streak.NewTracker(database)
	e.store = e.open()
	return e
}

func (e *env) open() *Store {
	return New(e.db, Options{
		Clock:      e.clock.clock(),
		Device:     fixedDevice("device-1"),
		Streak:     e.tracker,
		LegacyHour: 12,
	})
}

func TestCreate(t *testing.T) {
	e := newEnv(t)

	session, err := e.store.Create(models.DailyRosary(models.MysteryJoyful), journal.Patch{Intention: journal.String("peace")})
	require.NoError(t, err)

	_, err = uuid.Parse(session.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, session.Version)
	assert.Equal(t, models.SyncPending, session.SyncStatus)
	assert.False(t, session.Completed)
	assert.Equal(t, calendar.Date("2024-01-15"), session.Date)
	assert.Equal(t, "device-1", session.DeviceID)
	assert.Equal(t, "peace", session.Intention)
	assert.NoError(t, models.Validate(session))
}

func TestCreateRejectsInvalidKind(t *testing.T) {
	e := newEnv(t)
	_, err := e.store.Create(models.Kind{Type: models.KindChaplet}, journal.Patch{})
	assert.True(t, errors.Is(err, errvalues.ErrValidation))
	assert.Empty(t, e.store.All())
}

func TestCompleteBumpsVersionOnce(t *testing.T) {
	e := newEnv(t)
	created, err := e.store.Create(models.Chaplet("divine-mercy"), journal.Patch{})
	require.NoError(t, err)

	e.clock.now = e.clock.now.Add(20 * time.Minute)
	completed, err := e.store.Complete(created.ID, journal.Int(1200), journal.Patch{Reflection: journal.String("still")})
	require.NoError(t, err)

	assert.True(t, completed.Completed)
	assert.Equal(t, created.Version+1, completed.Version)
	assert.Equal(t, 1200, completed.Duration)
	assert.Equal(t, "still", completed.Reflection)
	assert.Equal(t, e.clock.now, completed.UpdatedAt)
	assert.Equal(t, created.CreatedAt, completed.CreatedAt)
	assert.Equal(t, created.Date, completed.Date)
}

func TestCompleteNotFound(t *testing.T) {
	e := newEnv(t)
	_, err := e.store.Complete("missing", nil, journal.Patch{})
	assert.True(t, errors.Is(err, errvalues.ErrNotFound))
}

func TestCompleteTwiceReappliesPatch(t *testing.T) {
	e := newEnv(t)
	created, _ := e.store.Create(models.DailyRosary(""), journal.Patch{})

	first, err := e.store.Complete(created.ID, nil, journal.Patch{Mood: journal.MoodOf(models.MoodJoyful)})
	require.NoError(t, err)
	second, err := e.store.Complete(created.ID, nil, journal.Patch{})
	require.NoError(t, err)

	assert.Equal(t, first.Version+1, second.Version)
	assert.Equal(t, models.MoodJoyful, second.Mood)
	assert.Equal(t, 1, e.tracker.State().TotalPrayers)
}

// Patch semantics: a skip action carrying no fields must not erase the
// reflection stored at completion.
func TestUpdateJournalKeepsOmittedFields(t *testing.T) {
	e := newEnv(t)
	created, _ := e.store.Create(models.DailyRosary(""), journal.Patch{Intention: journal.String("family")})
	_, err := e.store.Complete(created.ID, nil, journal.Patch{Reflection: journal.String("grace")})
	require.NoError(t, err)

	updated, err := e.store.UpdateJournal(created.ID, journal.Patch{Tags: journal.Strings("advent")})
	require.NoError(t, err)

	assert.True(t, updated.Completed)
	assert.Equal(t, "family", updated.Intention)
	assert.Equal(t, "grace", updated.Reflection)
	assert.Equal(t, []string{"advent"}, updated.Tags)
	assert.Equal(t, 3, updated.Version)
}

func TestUpdateJournalValidation(t *testing.T) {
	e := newEnv(t)
	created, _ := e.store.Create(models.DailyRosary(""), journal.Patch{})
	_, err := e.store.UpdateJournal(created.ID, journal.Patch{Tags: journal.Strings("1", "2", "3", "4", "5", "6")})
	assert.True(t, errors.Is(err, errvalues.ErrValidation))

	got, err := e.store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
}

func TestTotalPrayersCountsDistinctDates(t *testing.T) {
	e := newEnv(t)
	for range 3 {
		created, err := e.store.Create(models.DailyRosary(""), journal.Patch{})
		require.NoError(t, err)
		_, err = e.store.Complete(created.ID, nil, journal.Patch{})
		require.NoError(t, err)
	}
	state := e.tracker.State()
	assert.Equal(t, 1, state.TotalPrayers)
	assert.Equal(t, 1, state.CurrentStreak)

	e.clock.now = e.clock.now.AddDate(0, 0, 1)
	created, _ := e.store.Create(models.DailyRosary(""), journal.Patch{})
	_, err := e.store.Complete(created.ID, nil, journal.Patch{})
	require.NoError(t, err)

	state = e.tracker.State()
	assert.Equal(t, 2, state.TotalPrayers)
	assert.Equal(t, 2, state.CurrentStreak)
	assert.Equal(t, calendar.Date("2024-01-16"), state.LastPrayerDate)
}

func TestPersistsAcrossReload(t *testing.T) {
	e := newEnv(t)
	created, _ := e.store.Create(models.DailyRosary(models.MysteryGlorious), journal.Patch{Gratitudes: journal.Strings("rain")})
	_, err := e.store.Complete(created.ID, nil, journal.Patch{})
	require.NoError(t, err)

	reloaded := e.open()
	got, err := reloaded.Get(created.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, []string{"rain"}, got.Gratitudes)
	assert.Equal(t, 2, got.Version)
}

func TestLoadFallsBackOnMalformedPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `[{"id":`},
		{"wrong shape", `{"id":"x"}`},
		{"fails validation", `[{"id":"6f1c1e8e-3d0a-4b4c-9a57-2e1f0b6c2d11","deviceId":"d","createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z","syncStatus":"pending","version":0,"date":"2024-01-01","kind":{"type":"daily-rosary"},"completed":false}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			require.NoError(t, e.db.Put(db.KeySessions, []byte(tt.payload)))

			store := e.open()
			assert.Empty(t, store.All())

			count, err := e.db.QuarantineCount(db.KeySessions)
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestSearchAndRecent(t *testing.T) {
	e := newEnv(t)
	a, _ := e.store.Create(models.DailyRosary(""), journal.Patch{Intention: journal.String("Healing for Dad")})
	e.clock.now = e.clock.now.AddDate(0, 0, 3)
	b, _ := e.store.Create(models.Chaplet("st-michael"), journal.Patch{Tags: journal.Strings("healing")})
	_, _ = e.store.Create(models.DailyRosary(""), journal.Patch{Reflection: journal.String("distracted")})

	found := e.store.Search("HEALING")
	require.Len(t, found, 2)
	assert.Equal(t, b.ID, found[0].ID)
	assert.Equal(t, a.ID, found[1].ID)

	assert.Len(t, e.store.Recent(1), 2)
	assert.Len(t, e.store.Recent(4), 3)
}

func TestRemoveByNovena(t *testing.T) {
	e := newEnv(t)
	_, _ = e.store.Create(models.NovenaDay("nov-a", "st-jude", 1), journal.Patch{})
	_, _ = e.store.Create(models.NovenaDay("nov-b", "st-jude", 1), journal.Patch{})
	keep, _ := e.store.Create(models.DailyRosary(""), journal.Patch{})

	removed, err := e.store.RemoveByNovena("nov-a")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = e.store.RemoveByNovena("nov-a")
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	all := e.open().All()
	require.Len(t, all, 2)
	for _, s := range all {
		assert.NotEqual(t, "nov-a", s.Kind.NovenaID)
	}
	_, err = e.store.Get(keep.ID)
	assert.NoError(t, err)
}

type failingKV struct{ *db.DB }

func (f failingKV) Put(string, []byte) error { return errors.New("quota exceeded") }

func TestPersistenceFailureKeepsInMemoryRecord(t *testing.T) {
	e := newEnv(t)
	store := New(failingKV{e.db}, Options{Clock: e.clock.clock(), Device: fixedDevice("d")})

	created, err := store.Create(models.DailyRosary(""), journal.Patch{})
	assert.True(t, errors.Is(err, errvalues.ErrPersistence))
	require.NotEmpty(t, created.ID)

	got, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func legacyPayload(t *testing.T) []byte {
	t.Helper()
	records := []map[string]any{
		{"id": "1705312800000", "date": "2024-01-10", "kind": map[string]any{"type": "daily-rosary"}, "completed": true, "intention": "old"},
		{"id": "6f1c1e8e-3d0a-4b4c-9a57-2e1f0b6c2d11", "date": "2024-01-11", "kind": map[string]any{"type": "chaplet", "chapletId": "divine-mercy"}, "completed": false},
	}
	data, err := json.Marshal(records)
	require.NoError(t, err)
	return data
}

func TestLoadMigratesLegacyRecords(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.db.Put(db.KeySessions, legacyPayload(t)))

	store := e.open()
	all := store.All()
	require.Len(t, all, 2)

	first := all[0]
	assert.NotEqual(t, "1705312800000", first.ID)
	_, err := uuid.Parse(first.ID)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC), first.CreatedAt)
	assert.Equal(t, e.clock.now, first.UpdatedAt)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, models.SyncPending, first.SyncStatus)
	assert.Equal(t, "device-1", first.DeviceID)
	assert.Equal(t, "old", first.Intention)

	assert.Equal(t, "6f1c1e8e-3d0a-4b4c-9a57-2e1f0b6c2d11", all[1].ID)

	// Written back, so a later reload sees no legacy records.
	e.clock.now = e.clock.now.Add(time.Hour)
	assert.Equal(t, all, e.open().All())
}

func TestMigrateLegacyIsIdempotent(t *testing.T) {
	e := newEnv(t)
	var records []models.PrayerSession
	require.NoError(t, json.Unmarshal(legacyPayload(t), &records))

	once, changed := e.store.MigrateLegacy(records)
	assert.True(t, changed)
	twice, changed := e.store.MigrateLegacy(once)
	assert.False(t, changed)
	assert.Equal(t, once, twice)
}

func TestMigrateLegacyUndatableRecord(t *testing.T) {
	e := newEnv(t)
	records := []models.PrayerSession{{ID: "legacy-1", Kind: models.DailyRosary(models.MysteryJoyful)}}

	once, changed := e.store.MigrateLegacy(records)
	require.True(t, changed)
	assert.Equal(t, e.clock.now, once[0].CreatedAt)

	e.clock.now = e.clock.now.Add(time.Hour)
	twice, changed := e.store.MigrateLegacy(once)
	assert.False(t, changed)
	assert.Equal(t, once, twice)
}

func TestImportSkipsKnownIDs(t *testing.T) {
	e := newEnv(t)
	var records []models.PrayerSession
	require.NoError(t, json.Unmarshal(legacyPayload(t), &records))

	added, err := e.store.Import(records)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = e.store.Import(records)
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Len(t, e.store.All(), 2)
}

func TestCanonicalID(t *testing.T) {
	id := "6f1c1e8e-3d0a-4b4c-9a57-2e1f0b6c2d11"
	assert.Equal(t, id, CanonicalID(id))
	assert.Equal(t, CanonicalID("42"), CanonicalID("42"))
	assert.NotEqual(t, "42", CanonicalID("42"))
	assert.NotEqual(t, CanonicalID("{6F1C1E8E-3D0A-4B4C-9A57-2E1F0B6C2D11}"), "{6F1C1E8E-3D0A-4B4C-9A57-2E1F0B6C2D11}")
	assert.NotEmpty(t, CanonicalID(""))
}
