package models

import (
	"sort"
	"time"
)

// NovenaLength is the number of days in a novena.
const NovenaLength = 9

// NovenaKind identifies an entry in the novena catalog
type NovenaKind string

// NovenaInfo describes a catalog entry
type NovenaInfo struct {
	Kind        NovenaKind
	Title       string
	Patron      string
	Description string
}

var novenaCatalog = map[NovenaKind]NovenaInfo{
	"divine-mercy": {
		Kind:        "divine-mercy",
		Title:       "Divine Mercy Novena",
		Patron:      "Divine Mercy",
		Description: "Begun on Good Friday and prayed through the Saturday before Divine Mercy Sunday.",
	},
	"sacred-heart": {
		Kind:        "sacred-heart",
		Title:       "Sacred Heart Novena",
		Patron:      "Sacred Heart of Jesus",
		Description: "Nine days of trust in the Sacred Heart.",
	},
	"holy-spirit": {
		Kind:        "holy-spirit",
		Title:       "Novena to the Holy Spirit",
		Patron:      "Holy Spirit",
		Description: "The original novena, prayed between Ascension and Pentecost.",
	},
	"st-joseph": {
		Kind:        "st-joseph",
		Title:       "Novena to St. Joseph",
		Patron:      "St. Joseph",
		Description: "Traditionally prayed from March 10 to the feast on March 19.",
	},
	"st-jude": {
		Kind:        "st-jude",
		Title:       "Novena to St. Jude",
		Patron:      "St. Jude Thaddeus",
		Description: "For difficult and desperate cases.",
	},
	"st-therese": {
		Kind:        "st-therese",
		Title:       "Rose Novena to St. Thérèse",
		Patron:      "St. Thérèse of Lisieux",
		Description: "The little way of confidence and love.",
	},
	"immaculate-conception": {
		Kind:        "immaculate-conception",
		Title:       "Immaculate Conception Novena",
		Patron:      "Our Lady",
		Description: "Prayed November 29 through December 7.",
	},
	"undoer-of-knots": {
		Kind:        "undoer-of-knots",
		Title:       "Mary, Undoer of Knots",
		Patron:      "Our Lady Undoer of Knots",
		Description: "Entrusting the knots of life to Mary.",
	},
}

// LookupNovena returns the catalog entry for kind.
func LookupNovena(kind NovenaKind) (NovenaInfo, bool) {
	info, ok := novenaCatalog[kind]
	return info, ok
}

// NovenaCatalog returns every catalog entry sorted by kind.
func NovenaCatalog() []NovenaInfo {
	out := make([]NovenaInfo, 0, len(novenaCatalog))
	for _, info := range novenaCatalog {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// ActiveNovena is one in-progress or completed nine-day devotion.
//
// CompletedDays is authoritative. CurrentDay and IsCompleted are caches
// derived from it and are rewritten on every transition.
type ActiveNovena struct {
	ID            string     `json:"id" validate:"required,uuid"`
	Kind          NovenaKind `json:"type" validate:"required,novena_kind"`
	StartDate     time.Time  `json:"startDate" validate:"required"`
	CompletedDays []int      `json:"completedDays" validate:"max=9,dive,min=1,max=9"`
	CurrentDay    int        `json:"currentDay" validate:"min=1,max=9"`
	IsCompleted   bool       `json:"isCompleted"`
	Intention     string     `json:"intention,omitempty"`
	DeviceID      string     `json:"deviceId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt,omitempty"`
	UpdatedAt     time.Time  `json:"updatedAt,omitempty"`
	Version       int        `json:"version,omitempty" validate:"min=0"`
	SyncStatus    SyncStatus `json:"syncStatus,omitempty" validate:"omitempty,oneof=pending synced conflict"`
}

// HasCompleted reports whether day is already recorded.
func (n ActiveNovena) HasCompleted(day int) bool {
	for _, d := range n.CompletedDays {
		if d == day {
			return true
		}
	}
	return false
}

// WithCompletedDay returns a copy of n with day added. n itself is not
// modified and the returned value shares no slice with it.
func (n ActiveNovena) WithCompletedDay(day int) ActiveNovena {
	days := make([]int, 0, len(n.CompletedDays)+1)
	days = append(days, n.CompletedDays...)
	if !n.HasCompleted(day) {
		days = append(days, day)
		sort.Ints(days)
	}
	n.CompletedDays = days
	n.CurrentDay = DeriveCurrentDay(days)
	n.IsCompleted = len(days) >= NovenaLength
	return n
}

// DeriveCurrentDay returns the lowest day not yet completed, or the final
// day once all are done.
func DeriveCurrentDay(completed []int) int {
	done := make(map[int]bool, len(completed))
	for _, d := range completed {
		done[d] = true
	}
	for day := 1; day <= NovenaLength; day++ {
		if !done[day] {
			return day
		}
	}
	return NovenaLength
}

// DaysSinceStart is the number of whole 24-hour periods elapsed since StartDate.
func (n ActiveNovena) DaysSinceStart(now time.Time) int {
	elapsed := now.Sub(n.StartDate)
	if elapsed < 0 {
		return -1
	}
	return int(elapsed / (24 * time.Hour))
}

// Touch records a local mutation
func (n *ActiveNovena) Touch(now time.Time) {
	n.Version++
	n.UpdatedAt = now
	n.SyncStatus = SyncPending
}
