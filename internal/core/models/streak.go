package models

import "github.com/neilberkman/vigil/internal/core/calendar"

// StreakState is the derived streak aggregate over the session collection
type StreakState struct {
	CurrentStreak  int           `json:"currentStreak" validate:"min=0"`
	LongestStreak  int           `json:"longestStreak" validate:"min=0,gtefield=CurrentStreak"`
	LastPrayerDate calendar.Date `json:"lastPrayerDate,omitempty" validate:"omitempty,calendar_date"`
	TotalPrayers   int           `json:"totalPrayers" validate:"min=0"`
}
