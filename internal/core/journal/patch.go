// Package journal implements the merge rule for reflection data attached to
// a prayer session: a Patch only overwrites the fields it carries.
package journal

import (
	"fmt"

	"github.com/neilberkman/vigil/internal/core/errvalues"
	"github.com/neilberkman/vigil/internal/core/models"
)

// Patch is a partial journal update. A nil field leaves the stored value
// untouched; a non-nil field overwrites it, so an empty string or empty
// slice clears the stored value. A JSON null decodes to nil and is
// treated as absent.
type Patch struct {
	Duration   *int         `json:"duration,omitempty"`
	Intention  *string      `json:"intention,omitempty"`
	Reflection *string      `json:"reflection,omitempty"`
	Mood       *models.Mood `json:"mood,omitempty"`
	Gratitudes *[]string    `json:"gratitudes,omitempty"`
	Insights   *string      `json:"insights,omitempty"`
	Tags       *[]string    `json:"tags,omitempty"`
}

// IsEmpty reports whether the patch carries no fields
func (p Patch) IsEmpty() bool {
	return p.Duration == nil && p.Intention == nil && p.Reflection == nil && p.Mood == nil &&
		p.Gratitudes == nil && p.Insights == nil && p.Tags == nil
}

// Validate checks the fields that are present
func (p Patch) Validate() error {
	if p.Duration != nil && *p.Duration < 0 {
		return fmt.Errorf("%w: duration must be non-negative", errvalues.ErrValidation)
	}
	if p.Mood != nil && *p.Mood != "" && !knownMood(*p.Mood) {
		return fmt.Errorf("%w: unknown mood %q", errvalues.ErrValidation, *p.Mood)
	}
	if p.Gratitudes != nil && len(*p.Gratitudes) > models.MaxListEntries {
		return fmt.Errorf("%w: at most %d gratitudes", errvalues.ErrValidation, models.MaxListEntries)
	}
	if p.Tags != nil && len(*p.Tags) > models.MaxListEntries {
		return fmt.Errorf("%w: at most %d tags", errvalues.ErrValidation, models.MaxListEntries)
	}
	return nil
}

// Apply merges p into j. Slices are copied so the journal never aliases
// the caller's patch.
func Apply(j *models.Journal, p Patch) {
	if p.Duration != nil {
		j.Duration = *p.Duration
	}
	if p.Intention != nil {
		j.Intention = *p.Intention
	}
	if p.Reflection != nil {
		j.Reflection = *p.Reflection
	}
	if p.Mood != nil {
		j.Mood = *p.Mood
	}
	if p.Gratitudes != nil {
		j.Gratitudes = copyList(*p.Gratitudes)
	}
	if p.Insights != nil {
		j.Insights = *p.Insights
	}
	if p.Tags != nil {
		j.Tags = copyList(*p.Tags)
	}
}

func copyList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	return append([]string(nil), in...)
}

func knownMood(m models.Mood) bool {
	for _, known := range models.Moods {
		if m == known {
			return true
		}
	}
	return false
}

// String, Strings and MoodOf build patch fields inline.
func String(s string) *string { return &s }

func Strings(s ...string) *[]string {
	if s == nil {
		s = []string{}
	}
	return &s
}

func MoodOf(m models.Mood) *models.Mood { return &m }

func Int(i int) *int { return &i }
