package sessions

import (
	"github.com/google/uuid"

	"github.com/neilberkman/vigil/internal/core/models"
)

// legacyNamespace derives stable ids for legacy records, so migrating or
// importing the same record twice yields the same id.
var legacyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/neilberkman/vigil/legacy-session"))

// MigrateLegacy upgrades records that predate sync metadata (no createdAt or
// updatedAt). Records that already carry both are returned unchanged, which
// makes the migration idempotent. changed reports whether anything was
// rewritten. The input slice is not modified.
func (s *Store) MigrateLegacy(records []models.PrayerSession) (out []models.PrayerSession, changed bool) {
	out = make([]models.PrayerSession, len(records))
	now := s.now()
	loc := now.Location()

	for i, record := range records {
		record = record.Clone()
		if !record.IsLegacy() {
			out[i] = record
			continue
		}

		changed = true
		record.ID = CanonicalID(record.ID)
		if record.CreatedAt.IsZero() {
			record.CreatedAt = record.Date.At(s.opts.LegacyHour, s.opts.LegacyMinute, loc)
		}
		// undatable record
		if record.CreatedAt.IsZero() {
			record.CreatedAt = now
		}
		record.UpdatedAt = now
		record.Version = 1
		record.SyncStatus = models.SyncPending
		if record.DeviceID == "" {
			record.DeviceID = s.deviceID()
		}
		out[i] = record
	}
	return out, changed
}

// CanonicalID returns id when it already is a UUID in canonical form, and a
// UUID derived from it otherwise. An empty id gets a fresh random UUID.
func CanonicalID(id string) string {
	if parsed, err := uuid.Parse(id); err == nil && parsed.String() == id {
		return id
	}
	if id == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(legacyNamespace, []byte(id)).String()
}
