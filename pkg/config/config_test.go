package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Load(nil, ""))

	cfg := m.Get()
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, time.Hour, cfg.Frequency.TTL)
	require.Equal(t, 30, cfg.Frequency.DaysBack)
	require.Equal(t, 500, cfg.Frequency.Limit)
	require.InDelta(t, 0.7, cfg.Diversity.EntropyWarnThreshold, 1e-9)
	require.InDelta(t, 30, cfg.Diversity.ClusteringWarnThreshold, 1e-9)
	require.NotEmpty(t, cfg.History.WorkspaceRoot)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wordpick.yaml")
	yaml := `
log:
  level: debug
frequency:
  ttl: 30m
  days_back: 7
diversity:
  entropy_warn_threshold: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	m := NewManager()
	require.NoError(t, m.Load(nil, path))

	cfg := m.Get()
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 30*time.Minute, cfg.Frequency.TTL)
	require.Equal(t, 7, cfg.Frequency.DaysBack)
	require.InDelta(t, 0.5, cfg.Diversity.EntropyWarnThreshold, 1e-9)
	// Untouched keys keep their defaults.
	require.Equal(t, 500, cfg.Frequency.Limit)
}

func TestLoad_FlagsTakePrecedence(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log.level", "", "")
	flags.Bool("debug", false, "")
	require.NoError(t, flags.Parse([]string{"--log.level=warn"}))

	m := NewManager()
	require.NoError(t, m.Load(flags, ""))
	require.Equal(t, "warn", m.Get().Log.Level)
}

func TestLoad_DebugFlagForcesDebugLevel(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("debug", false, "")
	require.NoError(t, flags.Parse([]string{"--debug"}))

	m := NewManager()
	require.NoError(t, m.Load(flags, ""))
	require.Equal(t, "debug", m.Get().Log.Level)
}
