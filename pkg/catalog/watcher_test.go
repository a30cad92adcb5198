package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`wordlists:
  - name: one.txt
    path: /opt/lists/one.txt
`), 0o644))

	cat, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, cat.Len())

	w, err := NewWatcher(cat, path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(`wordlists:
  - name: one.txt
    path: /opt/lists/one.txt
  - name: two.txt
    path: /opt/lists/two.txt
`), 0o644))

	require.Eventually(t, func() bool {
		return cat.Len() == 2
	}, 3*time.Second, 50*time.Millisecond)
}

func TestWatcher_KeepsInventoryOnBadReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`wordlists:
  - name: one.txt
    path: /opt/lists/one.txt
`), 0o644))

	cat, err := LoadFile(path)
	require.NoError(t, err)

	w, err := NewWatcher(cat, path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("wordlists: ["), 0o644))

	// Give the debounce and reload time to fire, then confirm the previous
	// inventory survived.
	time.Sleep(500 * time.Millisecond)
	require.Equal(t, 1, cat.Len())
}
