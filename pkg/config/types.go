// pkg/config/types.go
package config

import "time"

// Config is the root configuration structure for wordpick.
// It aggregates all other specific configuration structs.
type Config struct {
	Log       LogConfig       `description:"Logging configuration" koanf:"log"`
	History   HistoryConfig   `description:"Selection history configuration" koanf:"history"`
	Frequency FrequencyConfig `description:"Frequency adjustment configuration" koanf:"frequency"`
	Diversity DiversityConfig `description:"Diversity analyzer configuration" koanf:"diversity"`
	Catalog   CatalogConfig   `description:"Wordlist catalog configuration" koanf:"catalog"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level  string `description:"Log level" koanf:"level"`                 // e.g. "debug", "info", "warn", "error"
	Format string `description:"Log format: json | text" koanf:"format"` // e.g. "json", "text"
	File   string `description:"Log file path" koanf:"file"`             // optional
}

// HistoryConfig holds selection-log configuration.
type HistoryConfig struct {
	WorkspaceRoot string `description:"Workspace root for the selection log" koanf:"workspace_root"`
}

// FrequencyConfig tunes the rule-frequency adjustment cache.
type FrequencyConfig struct {
	TTL      time.Duration `description:"Frequency cache refresh interval" koanf:"ttl"`
	DaysBack int           `description:"Historical window in days" koanf:"days_back"`
	Limit    int           `description:"Maximum history entries per refresh" koanf:"limit"`
}

// DiversityConfig tunes the entropy analyzer.
type DiversityConfig struct {
	EntropyWarnThreshold    float64 `description:"Warn when entropy drops below this" koanf:"entropy_warn_threshold"`
	ClusteringWarnThreshold float64 `description:"Warn when top-3 clustering exceeds this percentage" koanf:"clustering_warn_threshold"`
	DaysBack                int     `description:"Historical window in days" koanf:"days_back"`
	Limit                   int     `description:"Maximum history entries per analysis" koanf:"limit"`
}

// CatalogConfig points at a site-local wordlist inventory.
type CatalogConfig struct {
	Path  string `description:"Catalog file path (empty: embedded default)" koanf:"path"`
	Watch bool   `description:"Reload the catalog file on change" koanf:"watch"`
}
