package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store is the selection log every consumer programs against.
//
// Append and AttachOutcome are best-effort from the caller's point of view:
// the scoring path logs a failed write and still returns its result.
// Search treats an unavailable store as "no data".
type Store interface {
	// Append records a scoring decision.
	Append(ctx context.Context, entry Entry) error

	// AttachOutcome attaches a scan outcome to a previously appended entry.
	AttachOutcome(ctx context.Context, entryID string, outcome Outcome) error

	// Search returns entries matching the query, most recent first.
	Search(ctx context.Context, q Query) ([]Entry, error)

	// Close releases store resources.
	Close() error
}

// Config holds store configuration.
type Config struct {
	// WorkspaceRoot is the root directory for the file-based selection log.
	WorkspaceRoot string `koanf:"workspace_root"`
}

// Validate checks the configuration and normalizes the workspace root.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.WorkspaceRoot) == "" {
		return &InvalidInputError{Field: "workspace_root", Reason: "must not be empty"}
	}
	if strings.HasPrefix(c.WorkspaceRoot, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		c.WorkspaceRoot = filepath.Join(home, strings.TrimPrefix(c.WorkspaceRoot, "~"))
	}
	return nil
}

// Factory is a function that creates a Store instance. The default points at
// the local JSONL store; alternative backends can swap it out.
type Factory func(ctx context.Context, cfg *Config) (Store, error)

// DefaultFactory is the store factory used by NewStore.
var DefaultFactory Factory = NewLocalStore

// NewStore creates a selection store using the current DefaultFactory.
// Configuration is validated before the store is created.
func NewStore(ctx context.Context, cfg *Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid history configuration: %w", err)
	}
	if DefaultFactory == nil {
		return nil, fmt.Errorf("no history store factory registered")
	}
	store, err := DefaultFactory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create history store: %w", err)
	}
	return store, nil
}
