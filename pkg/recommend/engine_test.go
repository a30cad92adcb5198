package recommend

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/wordpick/wordpick/pkg/rules"
)

// mapFrequencies is a fixed FrequencyProvider for deterministic tests.
type mapFrequencies map[string]float64

func (m mapFrequencies) Frequency(ruleID string) float64 {
	if f, ok := m[ruleID]; ok {
		return f
	}
	return 0.5
}

func testRuleset(t *testing.T) *rules.Ruleset {
	t.Helper()
	rs, err := rules.Load()
	require.NoError(t, err)
	return rs
}

func mustContext(t *testing.T, target string, port int, service string, opts ...ContextOption) Context {
	t.Helper()
	c, err := NewContext(target, port, service, opts...)
	require.NoError(t, err)
	return c
}

func TestEvalExact(t *testing.T) {
	e := NewEngine(testRuleset(t), nil, zerolog.Nop())

	res := e.evalExact(mustContext(t, "example.com", 443, "", WithTech("wordpress")))
	require.True(t, res.fired())
	require.Equal(t, []string{"exact:wordpress:443"}, res.ruleIDs)
	require.Equal(t, []string{"wordpress-https.txt", "wp-plugins.txt", "wp-themes.txt"}, res.wordlists)
	require.InDelta(t, 1.0, res.score, 1e-9)

	// No tech, no exact level.
	require.False(t, e.evalExact(mustContext(t, "example.com", 443, "")).fired())

	// Unknown pair.
	require.False(t, e.evalExact(mustContext(t, "example.com", 21, "", WithTech("wordpress"))).fired())
}

func TestEvalTechCategory_MembershipBeatsPattern(t *testing.T) {
	e := NewEngine(testRuleset(t), nil, zerolog.Nop())

	// Membership path uses the full category weight.
	res := e.evalTechCategory(mustContext(t, "h", 80, "irrelevant banner", WithTech("drupal")))
	require.True(t, res.fired())
	require.Equal(t, []string{"tech_category:cms"}, res.ruleIDs)
	// Weight 0.85 at neutral frequency; no cms wordlist name carries a
	// drupal synergy term, so no bonus.
	require.InDelta(t, 0.85, res.score, 1e-9)
}

func TestEvalTechCategory_PatternFallbackDiscounted(t *testing.T) {
	e := NewEngine(testRuleset(t), nil, zerolog.Nop())

	res := e.evalTechCategory(mustContext(t, "h", 80, "Some CMS system v2.1", WithTech("unknowncms")))
	require.True(t, res.fired())
	require.Equal(t, []string{"tech_pattern:cms"}, res.ruleIDs)
	require.InDelta(t, 0.85*0.75, res.score, 1e-9)

	// Nothing matches at all.
	require.False(t, e.evalTechCategory(mustContext(t, "h", 80, "Unknown service")).fired())
}

func TestEvalPortCategory_SingleRuleFires(t *testing.T) {
	e := NewEngine(testRuleset(t), nil, zerolog.Nop())

	res := e.evalPortCategory(mustContext(t, "db.local", 3306, ""))
	require.True(t, res.fired())
	require.Equal(t, []string{"port:database"}, res.ruleIDs)
	require.Equal(t, []string{"database-common.txt", "db-admin.txt"}, res.wordlists)
	require.InDelta(t, 0.7, res.score, 1e-9)

	require.False(t, e.evalPortCategory(mustContext(t, "x", 9999, "")).fired())
}

func TestEvalKeywords_UnionWordlistsMaxScore(t *testing.T) {
	e := NewEngine(testRuleset(t), mapFrequencies{"keyword:admin": 0.1}, zerolog.Nop())

	res := e.evalKeywords(mustContext(t, "h", 80, "Admin API gateway login"))
	require.True(t, res.fired())
	require.ElementsMatch(t, []string{"keyword:admin", "keyword:api", "keyword:login"}, res.ruleIDs)
	// All matched keyword wordlists are unioned.
	require.Contains(t, res.wordlists, "admin-panels.txt")
	require.Contains(t, res.wordlists, "api-endpoints.txt")
	require.Contains(t, res.wordlists, "auth-paths.txt")
	// Best single keyword wins: admin is rare (0.1) so 0.5+0.1.
	require.InDelta(t, 0.6, res.score, 1e-9)

	require.False(t, e.evalKeywords(mustContext(t, "h", 80, "")).fired())
}

func TestSynergyBonus_AppliedOnce(t *testing.T) {
	e := NewEngine(testRuleset(t), nil, zerolog.Nop())

	// cms category wordlists include cms-plugins.txt and cms-admin.txt;
	// "plugin" is a wordpress synergy term, and the bonus lands once no
	// matter how many list names align.
	res := e.evalTechCategory(mustContext(t, "h", 8081, "", WithTech("wordpress")))
	require.True(t, res.fired())
	require.InDelta(t, 0.85+0.05, res.score, 1e-9)
}

func TestSynergyBonus_ClampedToOne(t *testing.T) {
	e := NewEngine(testRuleset(t), nil, zerolog.Nop())

	res := e.evalExact(mustContext(t, "h", 8080, "", WithTech("tomcat")))
	require.True(t, res.fired())
	require.InDelta(t, 1.0, res.score, 1e-9)
}

func TestDedupe(t *testing.T) {
	in := []string{"a.txt", "b.txt", "a.txt", "c.txt", "b.txt"}
	require.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, Dedupe(in))
	require.Empty(t, Dedupe(nil))
}

func TestRulePriority(t *testing.T) {
	tests := []struct {
		ruleID   string
		priority int
	}{
		{"exact:wordpress:443", 1},
		{"tech_category:cms", 2},
		{"tech_pattern:cms", 3},
		{"port:web", 4},
		{"keyword:admin", 5},
		{"generic_fallback", 99},
		{"bogus", 99},
	}
	for _, tt := range tests {
		require.Equal(t, tt.priority, RulePriority(tt.ruleID), tt.ruleID)
	}
}
