// Package streak derives the daily prayer streak from the session collection.
package streak

import (
	"sort"

	"github.com/neilberkman/vigil/internal/core/calendar"
	"github.com/neilberkman/vigil/internal/core/models"
)

// CompletedDates returns the distinct dates that have at least one completed
// session, most recent first.
func CompletedDates(sessions []models.PrayerSession) []calendar.Date {
	seen := make(map[calendar.Date]struct{})
	var dates []calendar.Date
	for _, s := range sessions {
		if !s.Completed || !s.Date.Valid() {
			continue
		}
		if _, ok := seen[s.Date]; ok {
			continue
		}
		seen[s.Date] = struct{}{}
		dates = append(dates, s.Date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] > dates[j] })
	return dates
}

// Recompute derives a fresh StreakState. The current streak counts
// consecutive days ending today; a day without prayer today yields zero even
// if yesterday had one. LongestStreak never decreases below prev.
func Recompute(prev models.StreakState, sessions []models.PrayerSession, today calendar.Date) models.StreakState {
	dates := CompletedDates(sessions)

	current := 0
	for i, d := range dates {
		if d != today.AddDays(-i) {
			break
		}
		current++
	}

	next := models.StreakState{
		CurrentStreak: current,
		LongestStreak: max(prev.LongestStreak, current),
		TotalPrayers:  len(dates),
	}
	if len(dates) > 0 {
		next.LastPrayerDate = dates[0]
	}
	return next
}

// Longest returns the longest run of consecutive dates anywhere in the
// history, independent of today.
func Longest(sessions []models.PrayerSession) int {
	dates := CompletedDates(sessions)
	best, run := 0, 0
	for i, d := range dates {
		if i > 0 && dates[i-1].AddDays(-1) == d {
			run++
		} else {
			run = 1
		}
		best = max(best, run)
	}
	return best
}
