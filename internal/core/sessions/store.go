// Package sessions owns the prayer session collection: creation, completion,
// journal updates, legacy migration and cascading deletes. Every mutation is
// written to the database before the call returns.
package sessions

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neilberkman/vigil/internal/core/calendar"
	"github.com/neilberkman/vigil/internal/core/clock"
	"github.com/neilberkman/vigil/internal/core/db"
	"github.com/neilberkman/vigil/internal/core/errvalues"
	"github.com/neilberkman/vigil/internal/core/journal"
	"github.com/neilberkman/vigil/internal/core/models"
	"github.com/neilberkman/vigil/internal/core/search"
)

// KV is the persistence the store needs
type KV interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Quarantine(key string, value []byte, reason string) error
}

// Device supplies the process-wide device id
type Device interface {
	ID() string
}

// StreakRecorder is notified when a calendar date gets its first completion
type StreakRecorder interface {
	Record(sessions []models.PrayerSession, today calendar.Date) (models.StreakState, error)
}

type Options struct {
	Clock  clock.Clock
	Device Device
	Streak StreakRecorder // optional

	// Time of day given to legacy records that only carry a date
	LegacyHour   int
	LegacyMinute int
}

type Store struct {
	mu       sync.Mutex
	kv       KV
	opts     Options
	sessions []models.PrayerSession
}

// New loads the session collection. Legacy records are migrated and written
// back; a payload that cannot be decoded or validated is quarantined and the
// store starts empty.
func New(kv KV, opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	s := &Store{kv: kv, opts: opts}
	s.sessions = s.load()
	return s
}

func (s *Store) load() []models.PrayerSession {
	raw, err := s.kv.Get(db.KeySessions)
	if err != nil {
		if !errors.Is(err, errvalues.ErrNotFound) {
			slog.Warn("loading sessions failed, starting empty", slog.String("error", err.Error()))
		}
		return nil
	}

	var records []models.PrayerSession
	if err := json.Unmarshal(raw, &records); err != nil {
		s.quarantine(raw, err)
		return nil
	}

	migrated, changed := s.MigrateLegacy(records)
	if err := models.ValidateAll(migrated); err != nil {
		s.quarantine(raw, err)
		return nil
	}

	if changed {
		slog.Info("migrated legacy sessions", slog.Int("count", len(migrated)))
		if err := s.put(migrated); err != nil {
			slog.Error("persisting migrated sessions failed", slog.String("error", err.Error()))
		}
	}
	return migrated
}

func (s *Store) quarantine(raw []byte, cause error) {
	slog.Warn("stored sessions are invalid, starting empty", slog.String("error", cause.Error()))
	if err := s.kv.Quarantine(db.KeySessions, raw, cause.Error()); err != nil {
		slog.Error("quarantining sessions failed", slog.String("error", err.Error()))
	}
}

func (s *Store) put(records []models.PrayerSession) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: encode sessions: %v", errvalues.ErrPersistence, err)
	}
	if err := s.kv.Put(db.KeySessions, data); err != nil {
		return fmt.Errorf("%w: %v", errvalues.ErrPersistence, err)
	}
	return nil
}

// flush writes the collection; callers hold s.mu.
func (s *Store) flush() error {
	err := s.put(s.sessions)
	if err != nil {
		slog.Error("persisting sessions failed", slog.String("error", err.Error()))
	}
	return err
}

func (s *Store) now() time.Time {
	return s.opts.Clock.Now()
}

func (s *Store) deviceID() string {
	if s.opts.Device == nil {
		return ""
	}
	return s.opts.Device.ID()
}

func (s *Store) indexOf(id string) int {
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// Create records a new, not yet completed session dated today. A persistence
// failure still returns the in-memory record alongside an
// errvalues.ErrPersistence error.
func (s *Store) Create(kind models.Kind, patch journal.Patch) (models.PrayerSession, error) {
	if err := models.Validate(kind); err != nil {
		return models.PrayerSession{}, fmt.Errorf("invalid kind: %w", err)
	}
	if err := patch.Validate(); err != nil {
		return models.PrayerSession{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	session := models.PrayerSession{
		ID:         uuid.NewString(),
		DeviceID:   s.deviceID(),
		CreatedAt:  now,
		UpdatedAt:  now,
		SyncStatus: models.SyncPending,
		Version:    1,
		Date:       calendar.Today(now),
		Kind:       kind,
	}
	journal.Apply(&session.Journal, patch)

	s.sessions = append(s.sessions, session)
	return session.Clone(), s.flush()
}

// Complete marks the session completed and merges the patch. A non-nil
// duration overrides patch.Duration. Completing an already completed session
// re-applies the patch and bumps the version again; only the first completion
// of a calendar date recomputes the streak.
func (s *Store) Complete(id string, duration *int, patch journal.Patch) (models.PrayerSession, error) {
	if duration != nil {
		patch.Duration = duration
	}
	if err := patch.Validate(); err != nil {
		return models.PrayerSession{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.PrayerSession{}, fmt.Errorf("session %s: %w", id, errvalues.ErrNotFound)
	}

	session := &s.sessions[i]
	firstForDate := !session.Completed && !s.dateHasCompletion(session.Date, id)

	session.Completed = true
	journal.Apply(&session.Journal, patch)
	session.Touch(s.now())
	result := session.Clone()

	err := s.flush()
	if firstForDate && s.opts.Streak != nil {
		if _, serr := s.opts.Streak.Record(s.snapshot(), calendar.Today(s.now())); serr != nil {
			slog.Error("recording streak failed", slog.String("error", serr.Error()))
			err = errors.Join(err, serr)
		}
	}
	return result, err
}

func (s *Store) dateHasCompletion(date calendar.Date, except string) bool {
	for _, other := range s.sessions {
		if other.ID != except && other.Completed && other.Date == date {
			return true
		}
	}
	return false
}

// UpdateJournal merges the patch without changing the completion flag.
func (s *Store) UpdateJournal(id string, patch journal.Patch) (models.PrayerSession, error) {
	if err := patch.Validate(); err != nil {
		return models.PrayerSession{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.PrayerSession{}, fmt.Errorf("session %s: %w", id, errvalues.ErrNotFound)
	}
	session := &s.sessions[i]
	journal.Apply(&session.Journal, patch)
	session.Touch(s.now())
	return session.Clone(), s.flush()
}

// Get returns a copy of the session with the given id
func (s *Store) Get(id string) (models.PrayerSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.PrayerSession{}, fmt.Errorf("session %s: %w", id, errvalues.ErrNotFound)
	}
	return s.sessions[i].Clone(), nil
}

// All returns a copy of the collection in storage order
func (s *Store) All() []models.PrayerSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) snapshot() []models.PrayerSession {
	out := make([]models.PrayerSession, len(s.sessions))
	for i := range s.sessions {
		out[i] = s.sessions[i].Clone()
	}
	return out
}

// Search returns sessions whose journal text contains query, newest first.
func (s *Store) Search(query string) []models.PrayerSession {
	return search.Sessions(s.All(), query)
}

// Query applies structured filters, newest first.
func (s *Store) Query(filters search.Filters) []models.PrayerSession {
	return search.Filter(s.All(), filters)
}

// Recent returns sessions dated within the trailing window of days, today
// included.
func (s *Store) Recent(days int) []models.PrayerSession {
	return search.Recent(s.All(), calendar.Today(s.now()), days)
}

// RemoveByNovena deletes every session tagged with novenaID and reports how
// many were removed.
func (s *Store) RemoveByNovena(novenaID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.sessions[:0:0]
	for _, session := range s.sessions {
		if session.Kind.Type == models.KindNovenaDay && session.Kind.NovenaID == novenaID {
			continue
		}
		kept = append(kept, session)
	}
	removed := len(s.sessions) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	s.sessions = kept
	return removed, s.flush()
}

// Import migrates records and appends those whose id is not already stored.
// It returns the number of records added.
func (s *Store) Import(records []models.PrayerSession) (int, error) {
	migrated, _ := s.MigrateLegacy(records)
	if err := models.ValidateAll(migrated); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[string]struct{}, len(s.sessions))
	for _, session := range s.sessions {
		known[session.ID] = struct{}{}
	}

	added := 0
	for _, record := range migrated {
		if _, ok := known[record.ID]; ok {
			continue
		}
		known[record.ID] = struct{}{}
		s.sessions = append(s.sessions, record.Clone())
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, s.flush()
}
