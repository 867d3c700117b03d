package streak

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/neilberkman/vigil/internal/core/calendar"
	"github.com/neilberkman/vigil/internal/core/db"
	"github.com/neilberkman/vigil/internal/core/errvalues"
	"github.com/neilberkman/vigil/internal/core/models"
)

// Store is the persistence the tracker needs
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Quarantine(key string, value []byte, reason string) error
}

// Tracker holds the persisted StreakState. The previous longest streak
// survives restarts through it.
type Tracker struct {
	mu    sync.Mutex
	store Store
	state models.StreakState
}

// NewTracker loads the stored state. A missing or malformed state falls back
// to the zero state; malformed payloads are quarantined.
func NewTracker(store Store) *Tracker {
	t := &Tracker{store: store}
	t.state = t.load()
	return t
}

func (t *Tracker) load() models.StreakState {
	raw, err := t.store.Get(db.KeyStreakState)
	if err != nil {
		if !errors.Is(err, errvalues.ErrNotFound) {
			slog.Warn("loading streak state failed, starting from zero", slog.String("error", err.Error()))
		}
		return models.StreakState{}
	}

	var state models.StreakState
	if err := json.Unmarshal(raw, &state); err == nil {
		err = models.Validate(state)
	}
	if err != nil {
		slog.Warn("stored streak state is invalid, starting from zero", slog.String("error", err.Error()))
		if qerr := t.store.Quarantine(db.KeyStreakState, raw, err.Error()); qerr != nil {
			slog.Error("quarantining streak state failed", slog.String("error", qerr.Error()))
		}
		return models.StreakState{}
	}
	return state
}

// State returns the last recorded streak
func (t *Tracker) State() models.StreakState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Preview computes what the streak would be for today without recording it.
func (t *Tracker) Preview(sessions []models.PrayerSession, today calendar.Date) models.StreakState {
	return Recompute(t.State(), sessions, today)
}

// Record recomputes the streak and persists it. The new state is kept in
// memory even when the write fails.
func (t *Tracker) Record(sessions []models.PrayerSession, today calendar.Date) (models.StreakState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = Recompute(t.state, sessions, today)
	data, err := json.Marshal(t.state)
	if err != nil {
		return t.state, fmt.Errorf("%w: encode streak state: %v", errvalues.ErrPersistence, err)
	}
	if err := t.store.Put(db.KeyStreakState, data); err != nil {
		return t.state, fmt.Errorf("%w: %v", errvalues.ErrPersistence, err)
	}
	return t.state, nil
}
