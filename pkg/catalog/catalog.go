// Package catalog maps symbolic wordlist names to real files and metadata.
// The scoring engine works without one; when present, the catalog enriches
// recommendations with concrete paths and relevance-ranked candidates.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.yaml
var embeddedCatalogYAML []byte

// Entry is one wordlist in the inventory.
type Entry struct {
	Name     string   `yaml:"name" json:"name"`
	Path     string   `yaml:"path" json:"path"`
	Category string   `yaml:"category" json:"category"`
	Tags     []string `yaml:"tags" json:"tags"`
	SizeKB   int      `yaml:"size_kb" json:"size_kb"`
	Techs    []string `yaml:"techs" json:"techs"`
	Ports    []int    `yaml:"ports" json:"ports"`

	// MinToolVersion is the lowest fuzzer release this list's syntax is
	// known to work with. Empty means no constraint.
	MinToolVersion string `yaml:"min_tool_version" json:"min_tool_version,omitempty"`
}

// Relevance scores how well the entry fits a (tech, port) context in
// [0,1]. Deterministic; used to rank catalog candidates.
func (e Entry) Relevance(tech string, port int) float64 {
	score := 0.1 // any inventory entry is a weak candidate

	if tech != "" {
		tech = strings.ToLower(tech)
		for _, t := range e.Techs {
			if strings.ToLower(t) == tech {
				score += 0.5
				break
			}
		}
		if strings.Contains(strings.ToLower(e.Name), tech) {
			score += 0.15
		}
		for _, tag := range e.Tags {
			if strings.Contains(strings.ToLower(tag), tech) {
				score += 0.1
				break
			}
		}
	}

	for _, p := range e.Ports {
		if p == port {
			score += 0.3
			break
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// CompatibleWith reports whether the entry works with the given tool
// version. Unparseable versions fail open.
func (e Entry) CompatibleWith(toolVersion string) bool {
	if e.MinToolVersion == "" || toolVersion == "" {
		return true
	}
	min, err := semver.NewVersion(e.MinToolVersion)
	if err != nil {
		return true
	}
	v, err := semver.NewVersion(toolVersion)
	if err != nil {
		return true
	}
	return !v.LessThan(min)
}

// Resolver is the catalog capability the scoring orchestrator consumes.
// Implementations must be safe for concurrent use.
type Resolver interface {
	// Available reports whether the catalog holds any entries.
	Available() bool

	// Resolve maps symbolic wordlist names to catalog entries, ranked by
	// relevance to (tech, port). Unknown names are skipped.
	Resolve(names []string, tech string, port int, max int) []Entry

	// SearchByContext returns entries relevant to (tech, port)
	// independently of any rule-based names.
	SearchByContext(tech string, port int, max int) []Entry
}

// FileCatalog is a YAML-backed Resolver. The zero value is an empty,
// unavailable catalog.
type FileCatalog struct {
	mu      sync.RWMutex
	entries []Entry
}

// Load parses the embedded default inventory.
func Load() (*FileCatalog, error) {
	return parseCatalog(embeddedCatalogYAML)
}

// LoadFile parses an inventory from disk, for deployments that maintain
// their own wordlist collections.
func LoadFile(path string) (*FileCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) (*FileCatalog, error) {
	if len(data) == 0 {
		return nil, errors.New("catalog data is empty")
	}
	var doc struct {
		Wordlists []Entry `yaml:"wordlists"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}
	for i, e := range doc.Wordlists {
		if e.Name == "" || e.Path == "" {
			return nil, fmt.Errorf("catalog entry %d: name and path are required", i)
		}
	}
	return &FileCatalog{entries: doc.Wordlists}, nil
}

// ReplaceFromFile atomically swaps the inventory with the contents of the
// given file. Used by the watcher; a parse failure leaves the current
// inventory untouched.
func (c *FileCatalog) ReplaceFromFile(path string) error {
	next, err := LoadFile(path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries = next.entries
	c.mu.Unlock()
	return nil
}

// Available implements Resolver.
func (c *FileCatalog) Available() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries) > 0
}

// Len returns the inventory size.
func (c *FileCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Resolve implements Resolver.
func (c *FileCatalog) Resolve(names []string, tech string, port int, max int) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	byName := make(map[string]Entry, len(c.entries))
	for _, e := range c.entries {
		byName[strings.ToLower(e.Name)] = e
	}

	var out []Entry
	for _, name := range names {
		if e, ok := byName[strings.ToLower(name)]; ok {
			out = append(out, e)
		}
	}
	sortByRelevance(out, tech, port)
	return capEntries(out, max)
}

// SearchByContext implements Resolver.
func (c *FileCatalog) SearchByContext(tech string, port int, max int) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Entry
	for _, e := range c.entries {
		if e.Relevance(tech, port) > 0.1 {
			out = append(out, e)
		}
	}
	sortByRelevance(out, tech, port)
	return capEntries(out, max)
}

func sortByRelevance(entries []Entry, tech string, port int) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Relevance(tech, port) > entries[j].Relevance(tech, port)
	})
}

func capEntries(entries []Entry, max int) []Entry {
	if max > 0 && len(entries) > max {
		return entries[:max]
	}
	return entries
}

// ValidateCustomPath checks an explicitly supplied wordlist file. Unlike
// every other failure mode in this system, a missing custom list is a hard
// error: it is a caller configuration mistake, not a data-quality issue.
func ValidateCustomPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("custom wordlist %q: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("custom wordlist %q is a directory", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("custom wordlist %q is not readable: %w", path, err)
	}
	return f.Close()
}
