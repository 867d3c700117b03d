// Package search filters and orders the prayer session collection.
package search

import (
	"sort"
	"strings"

	"github.com/neilberkman/vigil/internal/core/calendar"
	"github.com/neilberkman/vigil/internal/core/models"
)

// Filters narrows a session listing. Zero values disable a filter.
type Filters struct {
	Query         string        // case-insensitive substring over journal text
	After         calendar.Date // inclusive lower bound on the session date
	Before        calendar.Date // inclusive upper bound on the session date
	Kind          string        // kind type, alias or novena catalog key
	CompletedOnly bool
	Limit         int
}

// IsZero reports whether no filter is set
func (f Filters) IsZero() bool {
	return f.Query == "" && f.After == "" && f.Before == "" && f.Kind == "" && !f.CompletedOnly
}

// Sessions returns the sessions whose journal text contains query, most
// recent first. An empty query matches everything.
func Sessions(sessions []models.PrayerSession, query string) []models.PrayerSession {
	return Filter(sessions, Filters{Query: query})
}

// Recent returns the sessions dated within the last days calendar days,
// today included: (today - days, today].
func Recent(sessions []models.PrayerSession, today calendar.Date, days int) []models.PrayerSession {
	if days <= 0 {
		return nil
	}
	return Filter(sessions, Filters{After: today.AddDays(-(days - 1)), Before: today})
}

// Filter applies f and sorts the result by date, newest first, breaking ties
// on creation time.
func Filter(sessions []models.PrayerSession, f Filters) []models.PrayerSession {
	needle := strings.ToLower(strings.TrimSpace(f.Query))

	var out []models.PrayerSession
	for _, s := range sessions {
		if f.CompletedOnly && !s.Completed {
			continue
		}
		if f.After != "" && s.Date < f.After {
			continue
		}
		if f.Before != "" && s.Date > f.Before {
			continue
		}
		if f.Kind != "" && !KindMatches(s.Kind, f.Kind) {
			continue
		}
		if needle != "" && !Matches(s.Journal, needle) {
			continue
		}
		out = append(out, s.Clone())
	}

	SortNewestFirst(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// SortNewestFirst orders sessions by date descending, then createdAt descending.
func SortNewestFirst(sessions []models.PrayerSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].Date != sessions[j].Date {
			return sessions[i].Date > sessions[j].Date
		}
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
}

// Matches reports whether the lower-cased needle occurs in any text field
// of j.
func Matches(j models.Journal, needle string) bool {
	fields := []string{j.Intention, j.Reflection, j.Insights}
	fields = append(fields, j.Gratitudes...)
	fields = append(fields, j.Tags...)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

var kindAliases = map[string]models.KindType{
	"rosary":  models.KindDailyRosary,
	"54-day":  models.KindFiftyFourDay,
	"54":      models.KindFiftyFourDay,
	"novena":  models.KindNovenaDay,
	"chaplet": models.KindChaplet,
}

// KindMatches accepts a kind type ("chaplet"), a short alias ("rosary"),
// a novena catalog key ("st-jude") or a chaplet id.
func KindMatches(k models.Kind, want string) bool {
	want = strings.ToLower(strings.TrimSpace(want))
	if want == "" {
		return true
	}
	if string(k.Type) == want {
		return true
	}
	if alias, ok := kindAliases[want]; ok && alias == k.Type {
		return true
	}
	if k.Type == models.KindNovenaDay && string(k.NovenaKind) == want {
		return true
	}
	return k.Type == models.KindChaplet && strings.EqualFold(k.ChapletID, want)
}
