package recommend

import (
	"context"
	"sort"
	"strings"

	"github.com/wordpick/wordpick/pkg/catalog"
)

const (
	catalogMaxCandidates = 10
	catalogBoostCap      = 0.20
	catalogBoostSample   = 5
)

// CatalogResult is a recommendation enriched with resolved catalog entries.
type CatalogResult struct {
	Result

	// Candidates are the top catalog entries for this context, rule-resolved
	// entries first on name collision, ranked by relevance.
	Candidates []catalog.Entry `json:"candidates,omitempty"`
}

// ScoreWithCatalog runs the rule-based scoring and, when a catalog is
// available, merges rule-resolved entries with context-searched candidates
// and boosts the score by the quality of the catalog matches. Without a
// catalog this degrades transparently to the pure rule-based result; the
// caller never needs to branch on availability.
func (s *Scorer) ScoreWithCatalog(ctx context.Context, c Context, resolver catalog.Resolver) CatalogResult {
	base := s.Score(ctx, c)
	out := CatalogResult{Result: base}

	if resolver == nil || !resolver.Available() {
		return out
	}

	resolved := resolver.Resolve(base.Wordlists, c.Tech, c.Port, catalogMaxCandidates)
	contextual := resolver.SearchByContext(c.Tech, c.Port, catalogMaxCandidates)

	// Rule-resolved entries take priority on name collision.
	merged := make([]catalog.Entry, 0, len(resolved)+len(contextual))
	seen := make(map[string]struct{}, len(resolved))
	for _, e := range resolved {
		seen[strings.ToLower(e.Name)] = struct{}{}
		merged = append(merged, e)
	}
	for _, e := range contextual {
		if _, ok := seen[strings.ToLower(e.Name)]; ok {
			continue
		}
		merged = append(merged, e)
	}

	rank(merged, c.Tech, c.Port)
	if len(merged) > catalogMaxCandidates {
		merged = merged[:catalogMaxCandidates]
	}
	out.Candidates = merged

	if len(merged) > 0 {
		n := len(merged)
		if n > catalogBoostSample {
			n = catalogBoostSample
		}
		sum := 0.0
		for _, e := range merged[:n] {
			sum += e.Relevance(c.Tech, c.Port)
		}
		avg := sum / float64(n)
		out.Score = round3(out.Score + catalogBoostCap*avg)
	}
	return out
}

// rank orders candidates by relevance, keeping the merge order for ties so
// rule-resolved entries stay ahead of context hits.
func rank(entries []catalog.Entry, tech string, port int) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Relevance(tech, port) > entries[j].Relevance(tech, port)
	})
}
