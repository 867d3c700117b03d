package importer

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neilberkman/vigil/internal/core/clock"
	"github.com/neilberkman/vigil/internal/core/db"
	"github.com/neilberkman/vigil/internal/core/sessions"
)

const legacyArray = `[
  {"id": 1705312800000, "date": "2024-01-15", "kind": {"type": "daily-rosary"}, "completed": true, "intention": "healing"},
  {"id": "abc", "date": "2024-01-16", "kind": {"type": "chaplet", "chapletId": "divine-mercy"}, "completed": false}
]`

const jsonl = `{"id": "6f1c1e8e-3d0a-4b4c-9a57-2e1f0b6c2d11", "date": "2024-02-01", "kind": {"type": "daily-rosary"}, "completed": true}

{"id": "x2", "date": "2024-02-02", "kind": {"type": "daily-rosary"}, "completed": true}
`

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"array", legacyArray, 2},
		{"wrapped", `{"sessions": ` + legacyArray + `}`, 2},
		{"kv dump", `{"prayer_sessions": ` + legacyArray + `}`, 2},
		{"jsonl", jsonl, 2},
		{"single object", `{"id": "one", "date": "2024-02-01", "kind": {"type": "daily-rosary"}}`, 1},
		{"pretty single object", "{\n  \"id\": \"one\",\n  \"date\": \"2024-02-01\",\n  \"kind\": {\"type\": \"daily-rosary\"}\n}\n", 1},
		{"empty", "  \n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
		})
	}
}

func TestParseNumericID(t *testing.T) {
	records, err := Parse([]byte(legacyArray))
	require.NoError(t, err)
	assert.Equal(t, "1705312800000", records[0].ID)
	assert.Equal(t, "healing", records[0].Intention)
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{"nonsense", `[{"id": }]`, "{\"id\": \"a\"}\n{broken"} {
		_, err := Parse([]byte(input))
		assert.Error(t, err, input)
	}
}

type fixedDevice string

func (d fixedDevice) ID() string { return string(d) }

func newImporter(t *testing.T) (*Importer, *sessions.Store) {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "vigil.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store := sessions.New(database, sessions.Options{
		Clock:      clock.Func(func() time.Time { return now }),
		Device:     fixedDevice("dev"),
		LegacyHour: 12,
	})
	return New(database, store), store
}

func TestImportFileSkipsRepeats(t *testing.T) {
	imp, store := newImporter(t)
	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, os.WriteFile(path, []byte(legacyArray), 0644))

	result, err := imp.ImportFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Records)
	assert.Equal(t, 2, result.Added)
	assert.False(t, result.Skipped)

	result, err = imp.ImportFile(path)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Len(t, store.All(), 2)

	// The same records under a different file are deduplicated by id.
	copyPath := filepath.Join(t.TempDir(), "copy.json")
	require.NoError(t, os.WriteFile(copyPath, []byte(`{"sessions": `+legacyArray+`}`), 0644))
	result, err = imp.ImportFile(copyPath)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Added)
	assert.Len(t, store.All(), 2)
}

func TestImportDirectory(t *testing.T) {
	imp, store := newImporter(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(legacyArray), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "b.jsonl"), []byte(jsonl), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644))

	var out bytes.Buffer
	results, err := imp.ImportDirectory(dir, NewProgressReporter(&out))
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Len(t, store.All(), 4)
	assert.Contains(t, out.String(), "imported 4 sessions from 2 files")
}
