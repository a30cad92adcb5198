// pkg/config/config.go
package config

import (
	"fmt"
	"sync"
	"time"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
)

// Global Koanf instance, initialized once at startup.
var (
	k    *koanf.Koanf
	once sync.Once
)

// InitGlobalConfig initializes the global Koanf instance.
// This should be called early in the application lifecycle, before Load.
func InitGlobalConfig() {
	once.Do(func() {
		k = koanf.New(".")
	})
}

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex // To protect currentConfig during runtime updates
}

// NewManager creates a new Manager.
// It initializes the global Koanf instance if not already done.
func NewManager() *Manager {
	InitGlobalConfig()
	return &Manager{
		koanfInstance: k,
	}
}

// DefaultConfig returns a new Config struct populated with hardcoded default
// values. These serve as the baseline if no other sources override them.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
		History: HistoryConfig{
			WorkspaceRoot: "~/.local/share/wordpick",
		},
		Frequency: FrequencyConfig{
			TTL:      time.Hour,
			DaysBack: 30,
			Limit:    500,
		},
		Diversity: DiversityConfig{
			EntropyWarnThreshold:    0.7,
			ClusteringWarnThreshold: 30,
			DaysBack:                30,
			Limit:                   200,
		},
	}
}

// DefaultConfigAsMap flattens the defaults for the confmap provider.
func DefaultConfigAsMap() map[string]interface{} {
	d := DefaultConfig()
	return map[string]interface{}{
		"log.level":                           d.Log.Level,
		"log.format":                          d.Log.Format,
		"log.file":                            d.Log.File,
		"history.workspace_root":              d.History.WorkspaceRoot,
		"frequency.ttl":                       d.Frequency.TTL.String(),
		"frequency.days_back":                 d.Frequency.DaysBack,
		"frequency.limit":                     d.Frequency.Limit,
		"diversity.entropy_warn_threshold":    d.Diversity.EntropyWarnThreshold,
		"diversity.clustering_warn_threshold": d.Diversity.ClusteringWarnThreshold,
		"diversity.days_back":                 d.Diversity.DaysBack,
		"diversity.limit":                     d.Diversity.Limit,
		"catalog.path":                        "",
		"catalog.watch":                       false,
	}
}

// Load loads configuration from the various sources in precedence order:
// hardcoded defaults, then an optional YAML file, then command-line flags.
func (m *Manager) Load(flags *pflag.FlagSet, customConfigFilePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.koanfInstance.Load(confmap.Provider(DefaultConfigAsMap(), "."), nil); err != nil {
		return fmt.Errorf("error loading hardcoded defaults into koanf: %w", err)
	}

	if customConfigFilePath != "" {
		if err := m.koanfInstance.Load(file.Provider(customConfigFilePath), koanfyaml.Parser()); err != nil {
			return fmt.Errorf("error loading config file %q: %w", customConfigFilePath, err)
		}
	}

	// Command-line flags take the highest precedence.
	if flags != nil {
		if err := m.koanfInstance.Load(posflag.Provider(flags, ".", m.koanfInstance), nil); err != nil {
			return fmt.Errorf("error loading command-line flags: %w", err)
		}

		debugFlag := flags.Lookup("debug")
		if debugFlag != nil && debugFlag.Value.String() == "true" {
			_ = m.koanfInstance.Set("log.level", "debug")
		}
	}

	var newCfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}
	m.currentConfig = newCfg

	m.postProcessConfig()

	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfgCopy := m.currentConfig
	return cfgCopy
}

// BindFlags registers the configuration flags shared by every command.
// Dotted flag names map straight onto koanf keys via the posflag provider.
func BindFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig()

	flags.String("log.level", defaults.Log.Level, "Log level (debug, info, warn, error)")
	flags.String("log.format", defaults.Log.Format, "Log format (text, json)")
	flags.String("log.file", defaults.Log.File, "Path to log file (optional, leave empty for stderr)")
	flags.Bool("debug", false, "Enable debug logging")

	// The main --config / -c flag for the config file path is defined
	// directly on the root command's PersistentFlags.
}

// postProcessConfig handles adjustments after loading and unmarshaling.
// Durations may arrive as strings from YAML or flags; cast handles both.
func (m *Manager) postProcessConfig() {
	if raw := m.koanfInstance.Get("frequency.ttl"); raw != nil {
		if ttl := cast.ToDuration(raw); ttl > 0 {
			m.currentConfig.Frequency.TTL = ttl
		}
	}
	if m.currentConfig.Frequency.TTL <= 0 {
		m.currentConfig.Frequency.TTL = time.Hour
	}
}
