package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedInventory(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)
	require.True(t, cat.Available())
	require.Greater(t, cat.Len(), 0)
}

func TestEntryRelevance(t *testing.T) {
	e := Entry{
		Name:  "wp-plugins.txt",
		Tags:  []string{"wordpress", "plugins"},
		Techs: []string{"wordpress"},
		Ports: []int{80, 443},
	}

	tests := []struct {
		name string
		tech string
		port int
		want float64
	}{
		{name: "no context", tech: "", port: 0, want: 0.1},
		{name: "port only", tech: "", port: 443, want: 0.4},
		{name: "tech membership", tech: "wordpress", port: 0, want: 0.1 + 0.5 + 0.1},
		{name: "tech plus port clamps", tech: "wordpress", port: 443, want: 1.0},
		{name: "unrelated tech", tech: "tomcat", port: 22, want: 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, e.Relevance(tt.tech, tt.port), 1e-9)
		})
	}
}

func TestEntryRelevance_NameSubstring(t *testing.T) {
	e := Entry{Name: "wordpress-https.txt"}
	// Name substring match without techs membership.
	require.InDelta(t, 0.1+0.15, e.Relevance("wordpress", 0), 1e-9)
}

func TestResolve(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	entries := cat.Resolve([]string{"wp-plugins.txt", "no-such-list.txt", "common.txt"}, "wordpress", 443, 10)
	require.Len(t, entries, 2)
	// Ranked by relevance: the wordpress list outranks the generic one.
	require.Equal(t, "wp-plugins.txt", entries[0].Name)
	require.Equal(t, "common.txt", entries[1].Name)
}

func TestResolve_CaseInsensitiveNames(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	entries := cat.Resolve([]string{"WP-Plugins.TXT"}, "", 0, 10)
	require.Len(t, entries, 1)
	require.Equal(t, "wp-plugins.txt", entries[0].Name)
}

func TestSearchByContext(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	entries := cat.SearchByContext("", 3306, 10)
	require.NotEmpty(t, entries)
	for _, e := range entries {
		require.Greater(t, e.Relevance("", 3306), 0.1)
	}

	// An unknown context matches nothing above the baseline.
	require.Empty(t, cat.SearchByContext("", 31337, 10))
}

func TestSearchByContext_MaxCaps(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	entries := cat.SearchByContext("wordpress", 443, 2)
	require.Len(t, entries, 2)
}

func TestCompatibleWith(t *testing.T) {
	constrained := Entry{Name: "api-endpoints.txt", MinToolVersion: "1.3.0"}

	require.True(t, constrained.CompatibleWith("1.3.0"))
	require.True(t, constrained.CompatibleWith("2.0.1"))
	require.False(t, constrained.CompatibleWith("1.2.9"))

	// No constraint, no tool version, or garbage versions all fail open.
	require.True(t, Entry{}.CompatibleWith("0.0.1"))
	require.True(t, constrained.CompatibleWith(""))
	require.True(t, constrained.CompatibleWith("not-a-version"))
	require.True(t, Entry{MinToolVersion: "garbage"}.CompatibleWith("1.0.0"))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	data := []byte(`wordlists:
  - name: custom.txt
    path: /opt/lists/custom.txt
    category: generic
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cat, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, cat.Len())

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestParseCatalog_Invalid(t *testing.T) {
	_, err := parseCatalog(nil)
	require.Error(t, err)

	_, err = parseCatalog([]byte("wordlists: [not a mapping"))
	require.Error(t, err)

	_, err = parseCatalog([]byte("wordlists:\n  - name: missing-path.txt\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "name and path are required")
}

func TestReplaceFromFile(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`wordlists:
  - name: only.txt
    path: /opt/lists/only.txt
`), 0o644))

	require.NoError(t, cat.ReplaceFromFile(path))
	require.Equal(t, 1, cat.Len())

	// A parse failure leaves the current inventory untouched.
	require.NoError(t, os.WriteFile(path, []byte("wordlists: ["), 0o644))
	require.Error(t, cat.ReplaceFromFile(path))
	require.Equal(t, 1, cat.Len())
}

func TestValidateCustomPath(t *testing.T) {
	dir := t.TempDir()

	file := filepath.Join(dir, "list.txt")
	require.NoError(t, os.WriteFile(file, []byte("admin\n"), 0o644))
	require.NoError(t, ValidateCustomPath(file))

	require.Error(t, ValidateCustomPath(filepath.Join(dir, "absent.txt")))
	require.Error(t, ValidateCustomPath(dir))
}
