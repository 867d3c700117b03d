package cli

import (
	"fmt"
	"strings"

	"github.com/neilberkman/vigil/internal/core/app"
	"github.com/neilberkman/vigil/internal/core/errvalues"
)

// minPrefix is the shortest id prefix accepted on the command line
const minPrefix = 4

// resolveSession expands a unique id prefix to a full session id
func resolveSession(a *app.App, prefix string) (string, error) {
	var ids []string
	for _, s := range a.Sessions.All() {
		ids = append(ids, s.ID)
	}
	return resolve("session", ids, prefix)
}

// resolveNovena expands a unique id prefix to a full novena id
func resolveNovena(a *app.App, prefix string) (string, error) {
	var ids []string
	for _, n := range a.Novenas.List() {
		ids = append(ids, n.ID)
	}
	return resolve("novena", ids, prefix)
}

func resolve(what string, ids []string, prefix string) (string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	var matches []string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if len(prefix) >= minPrefix && strings.HasPrefix(id, prefix) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s %q: %w", what, prefix, errvalues.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s id %q is ambiguous (%d matches)", what, prefix, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
