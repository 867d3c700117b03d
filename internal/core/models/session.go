package models

import (
	"fmt"
	"time"

	"github.com/neilberkman/vigil/internal/core/calendar"
)

// SyncStatus is reserved for a future reconciliation pass; every local
// mutation resets it to SyncPending.
type SyncStatus string

const (
	SyncPending  SyncStatus = "pending"
	SyncSynced   SyncStatus = "synced"
	SyncConflict SyncStatus = "conflict"
)

// KindType discriminates the PrayerSession variants
type KindType string

const (
	KindDailyRosary  KindType = "daily-rosary"
	KindFiftyFourDay KindType = "54-day-novena"
	KindChaplet      KindType = "chaplet"
	KindNovenaDay    KindType = "novena-day"
)

// Kind is the tagged variant describing what was prayed.
// Only the fields relevant to Type are populated.
type Kind struct {
	Type       KindType   `json:"type" validate:"required,oneof=daily-rosary 54-day-novena chaplet novena-day"`
	Mystery    Mystery    `json:"mystery,omitempty" validate:"omitempty,oneof=joyful sorrowful glorious luminous"`
	ChapletID  string     `json:"chapletId,omitempty" validate:"required_if=Type chaplet"`
	NovenaID   string     `json:"novenaId,omitempty" validate:"required_if=Type novena-day"`
	NovenaKind NovenaKind `json:"novenaType,omitempty"`
	Day        int        `json:"day,omitempty" validate:"omitempty,min=1,max=54"`
}

func DailyRosary(m Mystery) Kind {
	return Kind{Type: KindDailyRosary, Mystery: m}
}

func Chaplet(chapletID string) Kind {
	return Kind{Type: KindChaplet, ChapletID: chapletID}
}

// NovenaDay tags a session with the novena instance it belongs to.
func NovenaDay(novenaID string, kind NovenaKind, day int) Kind {
	return Kind{Type: KindNovenaDay, NovenaID: novenaID, NovenaKind: kind, Day: day}
}

// FiftyFourDay builds the kind for one day of the 54-day rosary novena,
// filling in that day's mystery.
func FiftyFourDay(day int) (Kind, error) {
	_, mystery, err := FiftyFourDaySchedule(day)
	if err != nil {
		return Kind{}, err
	}
	return Kind{Type: KindFiftyFourDay, Mystery: mystery, Day: day}, nil
}

// Label is a short human-readable description of the kind
func (k Kind) Label() string {
	switch k.Type {
	case KindDailyRosary:
		if k.Mystery != "" {
			return fmt.Sprintf("Rosary (%s mysteries)", k.Mystery)
		}
		return "Rosary"
	case KindFiftyFourDay:
		phase, _, err := FiftyFourDaySchedule(k.Day)
		if err != nil {
			return "54-day novena"
		}
		return fmt.Sprintf("54-day novena, day %d (%s)", k.Day, phase)
	case KindChaplet:
		return fmt.Sprintf("Chaplet: %s", k.ChapletID)
	case KindNovenaDay:
		title := string(k.NovenaKind)
		if info, ok := LookupNovena(k.NovenaKind); ok {
			title = info.Title
		}
		return fmt.Sprintf("%s, day %d", title, k.Day)
	default:
		return string(k.Type)
	}
}

// Mood is the optional self-reported state attached to a journal entry
type Mood string

const (
	MoodPeaceful   Mood = "peaceful"
	MoodGrateful   Mood = "grateful"
	MoodJoyful     Mood = "joyful"
	MoodHopeful    Mood = "hopeful"
	MoodAnxious    Mood = "anxious"
	MoodSorrowful  Mood = "sorrowful"
	MoodStruggling Mood = "struggling"
	MoodDistracted Mood = "distracted"
)

// Moods lists every accepted mood in display order.
var Moods = []Mood{MoodPeaceful, MoodGrateful, MoodJoyful, MoodHopeful, MoodAnxious, MoodSorrowful, MoodStruggling, MoodDistracted}

// MaxListEntries bounds gratitudes and tags.
const MaxListEntries = 5

// Journal holds the free-text reflection attached to a session.
type Journal struct {
	Duration   int      `json:"duration,omitempty" validate:"min=0"` // seconds
	Intention  string   `json:"intention,omitempty"`
	Reflection string   `json:"reflection,omitempty"`
	Mood       Mood     `json:"mood,omitempty" validate:"omitempty,oneof=peaceful grateful joyful hopeful anxious sorrowful struggling distracted"`
	Gratitudes []string `json:"gratitudes,omitempty" validate:"max=5"`
	Insights   string   `json:"insights,omitempty"`
	Tags       []string `json:"tags,omitempty" validate:"max=5"`
}

// PrayerSession is one recorded instance of a prayer practice
type PrayerSession struct {
	ID         string        `json:"id" validate:"required,uuid"`
	DeviceID   string        `json:"deviceId" validate:"required"`
	CreatedAt  time.Time     `json:"createdAt" validate:"required"`
	UpdatedAt  time.Time     `json:"updatedAt" validate:"required"`
	SyncStatus SyncStatus    `json:"syncStatus" validate:"oneof=pending synced conflict"`
	Version    int           `json:"version" validate:"min=1"`
	Date       calendar.Date `json:"date" validate:"calendar_date"`
	Kind       Kind          `json:"kind"`
	Completed  bool          `json:"completed"`
	Journal
}

// Touch records a local mutation: bumps the version, stamps updatedAt and
// marks the record for sync.
func (s *PrayerSession) Touch(now time.Time) {
	s.Version++
	s.UpdatedAt = now
	s.SyncStatus = SyncPending
}

// IsLegacy reports whether the record predates sync metadata.
func (s PrayerSession) IsLegacy() bool {
	return s.CreatedAt.IsZero() || s.UpdatedAt.IsZero()
}

// Clone returns a copy that shares no slices with s.
func (s PrayerSession) Clone() PrayerSession {
	c := s
	if s.Gratitudes != nil {
		c.Gratitudes = append([]string(nil), s.Gratitudes...)
	}
	if s.Tags != nil {
		c.Tags = append([]string(nil), s.Tags...)
	}
	return c
}
