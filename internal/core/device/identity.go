package device

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/neilberkman/vigil/internal/core/db"
	"github.com/neilberkman/vigil/internal/core/errvalues"
)

// Store is the slice of the key/value database the identity needs
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}

// Identity is the process-wide device id. It is read from (or written to)
// the store exactly once, on first use.
type Identity struct {
	store Store
	once  sync.Once
	id    string
}

func New(store Store) *Identity {
	return &Identity{store: store}
}

// ID returns the device id, generating and persisting one if none exists.
// A failed write is logged and the generated id is still used for this process.
func (i *Identity) ID() string {
	i.once.Do(func() {
		raw, err := i.store.Get(db.KeyDeviceID)
		if err == nil {
			if id := strings.TrimSpace(string(raw)); id != "" {
				i.id = id
				return
			}
		} else if !errors.Is(err, errvalues.ErrNotFound) {
			slog.Warn("reading device id failed, generating a new one", slog.String("error", err.Error()))
		}
		i.id = uuid.NewString()
		if err := i.store.Put(db.KeyDeviceID, []byte(i.id)); err != nil {
			slog.Error("persisting device id failed", slog.String("error", err.Error()))
		}
	})
	return i.id
}
