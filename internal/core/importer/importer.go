// Package importer reads journal backups (JSON arrays, JSONL, or a raw
// collection dump) and feeds them to the session store.
package importer

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/neilberkman/vigil/internal/core/models"
)

// Log remembers which files were already imported
type Log interface {
	WasImported(hash string) (bool, error)
	RecordImport(path, hash string, sessions int) error
}

// Target receives parsed records; it is expected to migrate legacy records
// and skip ids it already holds.
type Target interface {
	Import(records []models.PrayerSession) (int, error)
}

// Importer handles importing backup files into the session store
type Importer struct {
	log    Log
	target Target
}

// New creates a new importer
func New(log Log, target Target) *Importer {
	return &Importer{log: log, target: target}
}

// Result summarises one imported file
type Result struct {
	Path    string
	Records int
	Added   int
	Skipped bool // file content was imported before
}

// ImportFile imports a single backup file. A file whose content was imported
// before is skipped without parsing.
func (i *Importer) ImportFile(path string) (Result, error) {
	result := Result{Path: path}

	hash, err := computeFileHash(path)
	if err != nil {
		return result, fmt.Errorf("failed to hash file: %w", err)
	}
	seen, err := i.log.WasImported(hash)
	if err != nil {
		return result, err
	}
	if seen {
		result.Skipped = true
		return result, nil
	}

	records, err := ParseFile(path)
	if err != nil {
		return result, err
	}
	result.Records = len(records)

	added, err := i.target.Import(records)
	result.Added = added
	if err != nil {
		return result, err
	}

	if err := i.log.RecordImport(path, hash, added); err != nil {
		return result, err
	}
	return result, nil
}

// ImportDirectory imports every .json and .jsonl file under dirPath
func (i *Importer) ImportDirectory(dirPath string, progress ProgressCallback) ([]Result, error) {
	// Find all backup files
	var files []string
	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		ext := filepath.Ext(path)
		if !info.IsDir() && (ext == ".json" || ext == ".jsonl") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	if progress != nil {
		progress.Start(len(files))
	}

	var results []Result
	for _, file := range files {
		result, err := i.ImportFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to import %s: %v\n", file, err)
			continue
		}
		results = append(results, result)

		// Update progress
		if progress != nil {
			progress.Update(filepath.Base(file), result)
		}
	}
	if progress != nil {
		progress.Finish()
	}
	return results, nil
}

// ParseFile reads session records from path. It accepts a JSON array, an
// object wrapping the array under "sessions" or "prayer_sessions", a single
// record object, or JSONL with one record per line. Numeric ids from older
// exports are kept as their decimal string.
func ParseFile(path string) ([]models.PrayerSession, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes session records from any of the formats ParseFile accepts
func Parse(data []byte) ([]models.PrayerSession, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON array: %w", err)
		}
		return decodeAll(raw)
	case '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			// more than one value: JSONL
			return parseLines(trimmed)
		}
		for _, key := range []string{"sessions", "prayer_sessions"} {
			if inner, ok := wrapper[key]; ok {
				return Parse(inner)
			}
		}
		return decodeAll([]json.RawMessage{trimmed})
	default:
		return nil, fmt.Errorf("unrecognised backup format")
	}
}

func parseLines(data []byte) ([]models.PrayerSession, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)

	var raw []json.RawMessage
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			return nil, fmt.Errorf("line %d: invalid JSON", lineNum)
		}
		raw = append(raw, append(json.RawMessage(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}
	return decodeAll(raw)
}

func decodeAll(raw []json.RawMessage) ([]models.PrayerSession, error) {
	records := make([]models.PrayerSession, 0, len(raw))
	for n, entry := range raw {
		record, err := decode(entry)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", n+1, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// decode unmarshals one record, turning a numeric id into a string first
func decode(entry json.RawMessage) (models.PrayerSession, error) {
	var record models.PrayerSession

	dec := json.NewDecoder(bytes.NewReader(entry))
	dec.UseNumber()
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return record, err
	}
	if id, ok := fields["id"].(json.Number); ok {
		fields["id"] = strings.TrimSpace(id.String())
		normalised, err := json.Marshal(fields)
		if err != nil {
			return record, err
		}
		entry = normalised
	}

	if err := json.Unmarshal(entry, &record); err != nil {
		return record, err
	}
	return record, nil
}

func computeFileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
	}()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
