package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const (
	historyDirName  = "history"
	selectionsFile  = "selections.jsonl"
	lockFile        = "selections.lock"
	maxScanLineSize = 1 << 20 // generous per-line cap for large header maps
)

// record is the JSONL envelope. Selections and outcome attachments share one
// log so the file stays strictly append-only.
type record struct {
	Kind      string   `json:"kind"` // "selection" or "outcome"
	Selection *Entry   `json:"selection,omitempty"`
	EntryID   string   `json:"entry_id,omitempty"`
	Outcome   *Outcome `json:"outcome,omitempty"`
}

// LocalStore is a file-backed selection log. Appends are serialized with an
// in-process mutex plus a cross-process file lock.
type LocalStore struct {
	path     string
	lockPath string

	mu     sync.Mutex
	closed bool
}

// NewLocalStore creates the selection log under <workspace>/history.
func NewLocalStore(_ context.Context, cfg *Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dir := filepath.Join(cfg.WorkspaceRoot, historyDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	return &LocalStore{
		path:     filepath.Join(dir, selectionsFile),
		lockPath: filepath.Join(dir, lockFile),
	}, nil
}

// Append writes one selection record to the log.
func (s *LocalStore) Append(_ context.Context, entry Entry) error {
	if entry.Target == "" {
		return &InvalidInputError{Field: "target", Reason: "must not be empty"}
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	return s.appendRecord(record{Kind: "selection", Selection: &entry})
}

// AttachOutcome appends an outcome record keyed by entry ID. The original
// selection record is never rewritten.
func (s *LocalStore) AttachOutcome(_ context.Context, entryID string, outcome Outcome) error {
	if entryID == "" {
		return &InvalidInputError{Field: "entry_id", Reason: "must not be empty"}
	}
	found, err := s.hasEntry(entryID)
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{EntryID: entryID}
	}
	if outcome.ObservedAt.IsZero() {
		outcome.ObservedAt = time.Now().UTC()
	}
	return s.appendRecord(record{Kind: "outcome", EntryID: entryID, Outcome: &outcome})
}

// hasEntry streams the log looking for a selection with the given ID,
// stopping at the first hit so the scan stays bounded by the entry's
// position instead of materializing the whole history.
func (s *LocalStore) hasEntry(entryID string) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrClosed
	}
	s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("open selection log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxScanLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if rec.Kind == "selection" && rec.Selection != nil && rec.Selection.ID == entryID {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("scan selection log: %w", err)
	}
	return false, nil
}

func (s *LocalStore) appendRecord(rec record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	fileLock := flock.New(s.lockPath)
	if err := fileLock.Lock(); err != nil {
		return fmt.Errorf("lock selection log: %w", err)
	}
	defer fileLock.Unlock() //nolint:errcheck

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open selection log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(rec); err != nil {
		return fmt.Errorf("write selection record: %w", err)
	}
	return nil
}

// Search streams the log, merges outcome attachments onto their entries, and
// returns matching entries most recent first. A missing log file is an empty
// result, not an error.
func (s *LocalStore) Search(_ context.Context, q Query) ([]Entry, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open selection log: %w", err)
	}
	defer f.Close()

	var cutoff time.Time
	if q.DaysBack > 0 {
		cutoff = time.Now().UTC().AddDate(0, 0, -q.DaysBack)
	}

	var entries []Entry
	outcomes := map[string]*Outcome{}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxScanLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			// A torn write must not poison the whole history.
			continue
		}
		switch rec.Kind {
		case "selection":
			if rec.Selection == nil {
				continue
			}
			if !cutoff.IsZero() && rec.Selection.Timestamp.Before(cutoff) {
				continue
			}
			if q.Matches(rec.Selection) {
				entries = append(entries, *rec.Selection)
			}
		case "outcome":
			if rec.Outcome != nil && rec.EntryID != "" {
				outcomes[rec.EntryID] = rec.Outcome
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan selection log: %w", err)
	}

	for i := range entries {
		if o, ok := outcomes[entries[i].ID]; ok {
			entries[i].Outcome = o
		}
	}

	// Log order is chronological; callers want most recent first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if q.Limit > 0 && len(entries) > q.Limit {
		entries = entries[:q.Limit]
	}
	return entries, nil
}

// Close marks the store closed. Subsequent operations return ErrClosed.
func (s *LocalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
