package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	appLog "webregcal/internal/log"
)

// Entry is the metadata stored beside each archived calendar.
type Entry struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	SHA256    string    `json:"sha256"`
	CreatedAt time.Time `json:"created_at"`
}

// Store keeps generated calendars on disk so a conversion can be
// downloaded again later. Each entry is a payload file plus a JSON
// meta file, both named by the entry's UUID.
type Store struct {
	baseDir string
	now     func() time.Time
}

// NewStore creates a Store rooted at baseDir.
func NewStore(baseDir string) *Store {
	if baseDir == "" {
		// Relative fallback so development runs without root permissions.
		baseDir = "./var/calendars"
	}
	return &Store{baseDir: baseDir, now: time.Now}
}

// Put stores a serialized calendar and returns its entry.
func (s *Store) Put(body []byte, filename string) (Entry, error) {
	if len(body) == 0 {
		return Entry{}, errors.New("archive: empty calendar body")
	}
	if err := os.MkdirAll(s.baseDir, 0o700); err != nil {
		return Entry{}, err
	}

	sum := sha256.Sum256(body)
	entry := Entry{
		ID:        uuid.New().String(),
		Filename:  filename,
		SHA256:    hex.EncodeToString(sum[:]),
		CreatedAt: s.now(),
	}

	if err := os.WriteFile(s.bodyPath(entry.ID), body, 0o600); err != nil {
		return Entry{}, err
	}
	meta, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, err
	}
	if err := os.WriteFile(s.metaPath(entry.ID), meta, 0o600); err != nil {
		// Keep the store consistent: no meta, no entry.
		_ = os.Remove(s.bodyPath(entry.ID))
		return Entry{}, err
	}

	appLog.Debug("archived calendar", "id", entry.ID, "bytes", len(body))
	return entry, nil
}

// ErrNotFound is returned by Get for unknown or expired entries.
var ErrNotFound = errors.New("archive: entry not found")

// Get returns an archived calendar by ID.
func (s *Store) Get(id string) ([]byte, Entry, error) {
	// IDs are always our own UUIDs; anything else never names an
	// entry and must not reach the filesystem.
	if _, err := uuid.Parse(id); err != nil {
		return nil, Entry{}, ErrNotFound
	}

	meta, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Entry{}, ErrNotFound
		}
		return nil, Entry{}, err
	}
	var entry Entry
	if err := json.Unmarshal(meta, &entry); err != nil {
		return nil, Entry{}, err
	}

	body, err := os.ReadFile(s.bodyPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Entry{}, ErrNotFound
		}
		return nil, Entry{}, err
	}
	return body, entry, nil
}

// Prune removes entries older than maxAge and returns how many were
// removed.
func (s *Store) Prune(maxAge time.Duration) (int, error) {
	dirents, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := s.now().Add(-maxAge)
	removed := 0
	for _, de := range dirents {
		name := de.Name()
		if filepath.Ext(name) != ".json" {
			continue
		}
		id := name[:len(name)-len(".json")]

		meta, err := os.ReadFile(s.metaPath(id))
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(meta, &entry); err != nil {
			continue
		}
		if entry.CreatedAt.After(cutoff) {
			continue
		}

		_ = os.Remove(s.bodyPath(id))
		_ = os.Remove(s.metaPath(id))
		removed++
	}

	if removed > 0 {
		appLog.Info("pruned archived calendars", "removed", removed)
	}
	return removed, nil
}

// StartJanitor runs Prune on the given cron schedule until Stop is
// called on the returned cron instance.
func (s *Store) StartJanitor(spec string, maxAge time.Duration) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := s.Prune(maxAge); err != nil {
			appLog.Error("archive prune failed", err)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	appLog.Info("archive janitor started", "cron", spec, "max_age", maxAge)
	return c, nil
}

func (s *Store) bodyPath(id string) string {
	return filepath.Join(s.baseDir, id+".ics")
}

func (s *Store) metaPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}
