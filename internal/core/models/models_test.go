package models

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neilberkman/vigil/internal/core/errvalues"
)

func validSession() PrayerSession {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	return PrayerSession{
		ID:         uuid.NewString(),
		DeviceID:   "device-1",
		CreatedAt:  now,
		UpdatedAt:  now,
		SyncStatus: SyncPending,
		Version:    1,
		Date:       "2024-01-15",
		Kind:       DailyRosary(MysteryJoyful),
	}
}

func TestSessionValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *PrayerSession)
		wantErr bool
	}{
		{"valid session", func(s *PrayerSession) {}, false},
		{"non-uuid id", func(s *PrayerSession) { s.ID = "1699999999999" }, true},
		{"missing createdAt", func(s *PrayerSession) { s.CreatedAt = time.Time{} }, true},
		{"zero version", func(s *PrayerSession) { s.Version = 0 }, true},
		{"bad date", func(s *PrayerSession) { s.Date = "Jan 15" }, true},
		{"unknown kind", func(s *PrayerSession) { s.Kind.Type = "litany" }, true},
		{"chaplet without id", func(s *PrayerSession) { s.Kind = Kind{Type: KindChaplet} }, true},
		{"novena day without novena id", func(s *PrayerSession) { s.Kind = Kind{Type: KindNovenaDay, Day: 2} }, true},
		{"unknown mood", func(s *PrayerSession) { s.Mood = "sleepy" }, true},
		{"six tags", func(s *PrayerSession) { s.Tags = []string{"a", "b", "c", "d", "e", "f"} }, true},
		{"unknown sync status", func(s *PrayerSession) { s.SyncStatus = "lost" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSession()
			tt.mutate(&s)
			err := Validate(s)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errvalues.ErrValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestWithCompletedDayDoesNotAlias(t *testing.T) {
	n := ActiveNovena{CompletedDays: []int{1, 2}, CurrentDay: 3}
	next := n.WithCompletedDay(4)

	assert.Equal(t, []int{1, 2}, n.CompletedDays)
	assert.Equal(t, []int{1, 2, 4}, next.CompletedDays)
	assert.Equal(t, 3, next.CurrentDay)

	next.CompletedDays[0] = 9
	assert.Equal(t, 1, n.CompletedDays[0])
}

func TestWithCompletedDayIsIdempotent(t *testing.T) {
	n := ActiveNovena{}.WithCompletedDay(1).WithCompletedDay(1)
	assert.Equal(t, []int{1}, n.CompletedDays)
	assert.Equal(t, 2, n.CurrentDay)
}

func TestCompletingAllDays(t *testing.T) {
	n := ActiveNovena{CurrentDay: 1}
	for _, day := range []int{3, 1, 9, 2, 5, 4, 8, 6, 7} {
		n = n.WithCompletedDay(day)
	}
	assert.True(t, n.IsCompleted)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, n.CompletedDays)
	assert.Equal(t, NovenaLength, n.CurrentDay)
}

func TestDaysSinceStart(t *testing.T) {
	start := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
	n := ActiveNovena{StartDate: start}
	assert.Equal(t, 0, n.DaysSinceStart(start))
	assert.Equal(t, 0, n.DaysSinceStart(start.Add(23*time.Hour)))
	assert.Equal(t, 1, n.DaysSinceStart(start.Add(24*time.Hour)))
	assert.Equal(t, -1, n.DaysSinceStart(start.Add(-time.Minute)))
}

func TestFiftyFourDaySchedule(t *testing.T) {
	phase, mystery, err := FiftyFourDaySchedule(1)
	require.NoError(t, err)
	assert.Equal(t, PhasePetition, phase)
	assert.Equal(t, MysteryJoyful, mystery)

	phase, mystery, err = FiftyFourDaySchedule(28)
	require.NoError(t, err)
	assert.Equal(t, PhaseThanksgiving, phase)
	assert.Equal(t, MysteryJoyful, mystery)

	_, mystery, err = FiftyFourDaySchedule(54)
	require.NoError(t, err)
	assert.Equal(t, MysteryGlorious, mystery)

	_, _, err = FiftyFourDaySchedule(55)
	assert.Error(t, err)
}

func TestMysteryForWeekday(t *testing.T) {
	assert.Equal(t, MysteryJoyful, MysteryForWeekday(time.Monday))
	assert.Equal(t, MysterySorrowful, MysteryForWeekday(time.Friday))
	assert.Equal(t, MysteryLuminous, MysteryForWeekday(time.Thursday))
	assert.Equal(t, MysteryGlorious, MysteryForWeekday(time.Sunday))
}

func TestNovenaCatalog(t *testing.T) {
	catalog := NovenaCatalog()
	require.NotEmpty(t, catalog)
	for i := 1; i < len(catalog); i++ {
		assert.Less(t, catalog[i-1].Kind, catalog[i].Kind)
	}
	_, ok := LookupNovena("st-jude")
	assert.True(t, ok)
	_, ok = LookupNovena("st-nobody")
	assert.False(t, ok)
}
