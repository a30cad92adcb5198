package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wordpick/wordpick/pkg/recommend"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func workspaceArgs(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "wordpick.yaml")
	yaml := "history:\n  workspace_root: " + filepath.Join(dir, "ws") + "\n"
	require.NoError(t, os.WriteFile(cfg, []byte(yaml), 0o644))
	return []string{"--config", cfg}
}

func TestRecommendCommand_JSONOutput(t *testing.T) {
	args := append(workspaceArgs(t),
		"recommend",
		"--target", "example.com",
		"--port", "443",
		"--service", "Apache httpd 2.4.41",
		"--tech", "wordpress",
		"--output", "json",
	)
	out, err := execute(t, args...)
	require.NoError(t, err)

	var result recommend.CatalogResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Equal(t, recommend.ConfidenceHigh, result.Confidence)
	require.Contains(t, result.MatchedRules, "exact:wordpress:443")
	require.NotEmpty(t, result.Wordlists)
	require.NotEmpty(t, result.Candidates)
	require.NotEmpty(t, result.EntryID)

	// The selection was persisted to the configured workspace.
	historyOut, err := execute(t, append(workspaceArgs(t), "diversity", "--output", "json")...)
	require.NoError(t, err)
	require.NotEmpty(t, historyOut)
}

func TestRecommendCommand_WatchedSiteCatalogIsUsed(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(`wordlists:
  - name: wordpress-https.txt
    path: /srv/lists/wp-custom.txt
    techs: [wordpress]
    ports: [443]
`), 0o644))

	cfg := filepath.Join(dir, "wordpick.yaml")
	yaml := "history:\n  workspace_root: " + filepath.Join(dir, "ws") + "\n" +
		"catalog:\n  path: " + catalogPath + "\n  watch: true\n"
	require.NoError(t, os.WriteFile(cfg, []byte(yaml), 0o644))

	out, err := execute(t,
		"--config", cfg,
		"recommend",
		"--target", "example.com",
		"--port", "443",
		"--service", "Apache httpd 2.4.41",
		"--tech", "wordpress",
		"--output", "json",
	)
	require.NoError(t, err)

	// Candidates resolve against the configured inventory, not the
	// embedded default.
	var result recommend.CatalogResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Candidates, 1)
	require.Equal(t, "/srv/lists/wp-custom.txt", result.Candidates[0].Path)
}

func TestRootCommand_BadCatalogPathFails(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "wordpick.yaml")
	yaml := "history:\n  workspace_root: " + filepath.Join(dir, "ws") + "\n" +
		"catalog:\n  path: " + filepath.Join(dir, "absent.yaml") + "\n"
	require.NoError(t, os.WriteFile(cfg, []byte(yaml), 0o644))

	_, err := execute(t, "--config", cfg, "recommend", "--target", "x", "--port", "80")
	require.Error(t, err)
}

func TestRecommendCommand_RequiresTarget(t *testing.T) {
	_, err := execute(t, append(workspaceArgs(t), "recommend", "--port", "443")...)
	require.Error(t, err)
}

func TestRecommendCommand_RejectsBadOutputMode(t *testing.T) {
	args := append(workspaceArgs(t),
		"recommend", "--target", "example.com", "--port", "443", "--output", "xml",
	)
	_, err := execute(t, args...)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid output mode")
}

func TestRecommendCommand_MissingCustomWordlistFails(t *testing.T) {
	args := append(workspaceArgs(t),
		"recommend", "--target", "example.com", "--port", "443",
		"--custom-wordlist", filepath.Join(t.TempDir(), "absent.txt"),
	)
	_, err := execute(t, args...)
	require.Error(t, err)
}

func TestAuditCommand_EmbeddedTablesClean(t *testing.T) {
	out, err := execute(t, append(workspaceArgs(t), "audit")...)
	require.NoError(t, err)
	require.Contains(t, out, "clean")
}

func TestDiversityCommand_NeedsHistory(t *testing.T) {
	_, err := execute(t, append(workspaceArgs(t), "diversity", "--no-history")...)
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, append(workspaceArgs(t), "version")...)
	require.NoError(t, err)
	require.Contains(t, out, "wordpick")
}
