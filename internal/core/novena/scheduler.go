// Package novena drives active nine-day devotions. CompletedDays is the only
// source of truth for progress; eligibility of a day is decided by CanPlayDay
// from CompletedDays and the elapsed calendar time.
package novena

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neilberkman/vigil/internal/core/clock"
	"github.com/neilberkman/vigil/internal/core/db"
	"github.com/neilberkman/vigil/internal/core/errvalues"
	"github.com/neilberkman/vigil/internal/core/journal"
	"github.com/neilberkman/vigil/internal/core/models"
)

// KV is the persistence the scheduler needs
type KV interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Quarantine(key string, value []byte, reason string) error
}

// Sessions is the slice of the session store used to record novena days
type Sessions interface {
	Create(kind models.Kind, patch journal.Patch) (models.PrayerSession, error)
	Complete(id string, duration *int, patch journal.Patch) (models.PrayerSession, error)
	RemoveByNovena(novenaID string) (int, error)
}

type Device interface {
	ID() string
}

type Scheduler struct {
	mu       sync.Mutex
	kv       KV
	sessions Sessions
	clock    clock.Clock
	device   Device
	novenas  []models.ActiveNovena
}

// New loads the active novenas. Records written before sync metadata existed
// are backfilled; a payload that fails to decode or validate is quarantined
// and the scheduler starts empty.
func New(kv KV, sessions Sessions, clk clock.Clock, device Device) *Scheduler {
	if clk == nil {
		clk = clock.System{}
	}
	s := &Scheduler{kv: kv, sessions: sessions, clock: clk, device: device}
	s.novenas = s.load()
	return s
}

func (s *Scheduler) load() []models.ActiveNovena {
	raw, err := s.kv.Get(db.KeyNovenas)
	if err != nil {
		if !errors.Is(err, errvalues.ErrNotFound) {
			slog.Warn("loading novenas failed, starting empty", slog.String("error", err.Error()))
		}
		return nil
	}

	var records []models.ActiveNovena
	if err := json.Unmarshal(raw, &records); err != nil {
		s.quarantine(raw, err)
		return nil
	}

	changed := false
	for i := range records {
		if s.backfill(&records[i]) {
			changed = true
		}
	}
	if err := models.ValidateAll(records); err != nil {
		s.quarantine(raw, err)
		return nil
	}

	if changed {
		if err := s.put(records); err != nil {
			slog.Error("persisting backfilled novenas failed", slog.String("error", err.Error()))
		}
	}
	return records
}

// backfill fills sync metadata missing from older records and re-derives the
// cached fields from CompletedDays.
func (s *Scheduler) backfill(n *models.ActiveNovena) bool {
	before, _ := json.Marshal(n)

	days := dedupe(n.CompletedDays)
	n.CompletedDays = days
	n.CurrentDay = models.DeriveCurrentDay(days)
	n.IsCompleted = len(days) >= models.NovenaLength

	if n.Version == 0 {
		n.Version = 1
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = n.StartDate
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = s.clock.Now()
	}
	if n.SyncStatus == "" {
		n.SyncStatus = models.SyncPending
	}
	if n.DeviceID == "" && s.device != nil {
		n.DeviceID = s.device.ID()
	}

	after, _ := json.Marshal(n)
	return string(before) != string(after)
}

func dedupe(days []int) []int {
	out := make([]int, 0, len(days))
	seen := make(map[int]bool, len(days))
	for _, d := range days {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out
}

func (s *Scheduler) quarantine(raw []byte, cause error) {
	slog.Warn("stored novenas are invalid, starting empty", slog.String("error", cause.Error()))
	if err := s.kv.Quarantine(db.KeyNovenas, raw, cause.Error()); err != nil {
		slog.Error("quarantining novenas failed", slog.String("error", err.Error()))
	}
}

func (s *Scheduler) put(records []models.ActiveNovena) error {
	if records == nil {
		records = []models.ActiveNovena{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: encode novenas: %v", errvalues.ErrPersistence, err)
	}
	if err := s.kv.Put(db.KeyNovenas, data); err != nil {
		return fmt.Errorf("%w: %v", errvalues.ErrPersistence, err)
	}
	return nil
}

func (s *Scheduler) flush() error {
	err := s.put(s.novenas)
	if err != nil {
		slog.Error("persisting novenas failed", slog.String("error", err.Error()))
	}
	return err
}

func (s *Scheduler) indexOf(id string) int {
	for i := range s.novenas {
		if s.novenas[i].ID == id {
			return i
		}
	}
	return -1
}

// Start begins a novena of the given catalog kind now, on day 1.
func (s *Scheduler) Start(kind models.NovenaKind, intention string) (models.ActiveNovena, error) {
	if _, ok := models.LookupNovena(kind); !ok {
		return models.ActiveNovena{}, fmt.Errorf("%w: unknown novena %q", errvalues.ErrValidation, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	n := models.ActiveNovena{
		ID:            uuid.NewString(),
		Kind:          kind,
		StartDate:     now,
		CompletedDays: []int{},
		CurrentDay:    1,
		Intention:     strings.TrimSpace(intention),
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
		SyncStatus:    models.SyncPending,
	}
	if s.device != nil {
		n.DeviceID = s.device.ID()
	}

	s.novenas = append(s.novenas, n)
	return clone(n), s.flush()
}

// DayOffset is how long after the start a given day opens
func DayOffset(day int) time.Duration {
	return time.Duration(day-1) * 24 * time.Hour
}

// CanPlayDay reports whether day may be completed now: the novena is not
// finished, day is in [1,9] and not yet done, and at least day-1 whole days
// have passed since the start. Missed days can be caught up later.
func (s *Scheduler) CanPlayDay(n models.ActiveNovena, day int) bool {
	return s.blockReason(n, day, s.clock.Now()) == ""
}

func (s *Scheduler) blockReason(n models.ActiveNovena, day int, now time.Time) string {
	switch {
	case day < 1 || day > models.NovenaLength:
		return fmt.Sprintf("day %d is outside 1-%d", day, models.NovenaLength)
	case n.IsCompleted:
		return "novena is already completed"
	case n.HasCompleted(day):
		return fmt.Sprintf("day %d is already completed", day)
	case n.DaysSinceStart(now) < day-1:
		return fmt.Sprintf("day %d is not available yet", day)
	}
	return ""
}

// NextAvailableDay returns the first uncompleted day that can be played now.
func (s *Scheduler) NextAvailableDay(n models.ActiveNovena) (int, bool) {
	now := s.clock.Now()
	for day := 1; day <= models.NovenaLength; day++ {
		if s.blockReason(n, day, now) == "" {
			return day, true
		}
	}
	return 0, false
}

// CompleteDay records day for the novena and logs a completed novena-day
// session carrying the patch. The day-1 intention is stored on the novena
// only if none was set.
func (s *Scheduler) CompleteDay(id string, day int, patch journal.Patch) (models.ActiveNovena, models.PrayerSession, error) {
	if err := patch.Validate(); err != nil {
		return models.ActiveNovena{}, models.PrayerSession{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.ActiveNovena{}, models.PrayerSession{}, fmt.Errorf("novena %s: %w", id, errvalues.ErrNotFound)
	}

	now := s.clock.Now()
	current := s.novenas[i]
	if reason := s.blockReason(current, day, now); reason != "" {
		return clone(current), models.PrayerSession{}, fmt.Errorf("%w: %s", errvalues.ErrInvalidState, reason)
	}

	updated := current.WithCompletedDay(day)
	if day == 1 && updated.Intention == "" && patch.Intention != nil {
		updated.Intention = strings.TrimSpace(*patch.Intention)
	}
	updated.Touch(now)
	s.novenas[i] = updated

	var errs []error
	if err := s.flush(); err != nil {
		errs = append(errs, err)
	}

	kind := models.NovenaDay(updated.ID, updated.Kind, day)
	session, err := s.sessions.Create(kind, journal.Patch{})
	if err != nil && !errors.Is(err, errvalues.ErrPersistence) {
		return clone(updated), models.PrayerSession{}, fmt.Errorf("recording novena day: %w", err)
	}
	errs = append(errs, err)

	session, err = s.sessions.Complete(session.ID, nil, patch)
	if err != nil && !errors.Is(err, errvalues.ErrPersistence) {
		return clone(updated), session, fmt.Errorf("completing novena day: %w", err)
	}
	errs = append(errs, err)

	return clone(updated), session, errors.Join(errs...)
}

// Remove deletes the novena and every session tagged with it. It returns
// false when no such novena exists.
func (s *Scheduler) Remove(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.novenas = append(s.novenas[:i:i], s.novenas[i+1:]...)

	err := s.flush()
	if removed, rerr := s.sessions.RemoveByNovena(id); rerr != nil {
		err = errors.Join(err, rerr)
	} else {
		slog.Debug("removed novena sessions", slog.String("novena", id), slog.Int("count", removed))
	}
	return true, err
}

// Get returns the novena with the given id
func (s *Scheduler) Get(id string) (models.ActiveNovena, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.ActiveNovena{}, fmt.Errorf("novena %s: %w", id, errvalues.ErrNotFound)
	}
	return clone(s.novenas[i]), nil
}

// List returns every novena, most recently started first
func (s *Scheduler) List() []models.ActiveNovena {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ActiveNovena, len(s.novenas))
	for i := range s.novenas {
		out[i] = clone(s.novenas[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out
}

func clone(n models.ActiveNovena) models.ActiveNovena {
	n.CompletedDays = append([]int{}, n.CompletedDays...)
	return n
}
