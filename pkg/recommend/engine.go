package recommend

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wordpick/wordpick/pkg/rules"
)

// Rule identifier prefixes, also used for priority ordering and the
// confidence model's exact-match check.
const (
	ruleIDExactPrefix        = "exact:"
	ruleIDTechCategoryPrefix = "tech_category:"
	ruleIDTechPatternPrefix  = "tech_pattern:"
	ruleIDPortPrefix         = "port:"
	ruleIDKeywordPrefix      = "keyword:"
	ruleIDGenericFallback    = "generic_fallback"
)

const (
	// patternDiscount scales a tech category's weight when the match came
	// from the banner pattern instead of an exact technology tag.
	patternDiscount = 0.75

	keywordBaseScore = 0.5

	synergyBonus = 0.05
)

// RulePriority orders rule identifiers for display and tie-breaks.
// Lower is higher precedence.
func RulePriority(ruleID string) int {
	switch {
	case strings.HasPrefix(ruleID, ruleIDExactPrefix):
		return 1
	case strings.HasPrefix(ruleID, ruleIDTechCategoryPrefix):
		return 2
	case strings.HasPrefix(ruleID, ruleIDTechPatternPrefix):
		return 3
	case strings.HasPrefix(ruleID, ruleIDPortPrefix):
		return 4
	case strings.HasPrefix(ruleID, ruleIDKeywordPrefix):
		return 5
	default:
		return 99
	}
}

// levelResult is one rule level's contribution to a recommendation.
// Wordlists may contain duplicates; the orchestrator deduplicates once.
type levelResult struct {
	wordlists []string
	ruleIDs   []string
	score     float64
}

func (r levelResult) fired() bool { return len(r.ruleIDs) > 0 }

// Engine evaluates the rule levels against a query context. It holds the
// immutable rule tables and an injected frequency provider.
type Engine struct {
	rules  *rules.Ruleset
	freq   FrequencyProvider
	logger zerolog.Logger
}

// NewEngine creates a rule engine. A nil frequency provider defaults to
// neutral frequencies.
func NewEngine(rs *rules.Ruleset, freq FrequencyProvider, logger zerolog.Logger) *Engine {
	if freq == nil {
		freq = neutralFrequencies{}
	}
	return &Engine{rules: rs, freq: freq, logger: logger}
}

// Rules exposes the engine's rule tables for audit tooling.
func (e *Engine) Rules() *rules.Ruleset { return e.rules }

// evalExact looks up the (tech, port) pair in the exact table. Contexts
// without a detected technology never hit this level.
func (e *Engine) evalExact(c Context) levelResult {
	if c.Tech == "" {
		return levelResult{}
	}
	rule, ok := e.rules.ExactLookup(c.Tech, c.Port)
	if !ok {
		return levelResult{}
	}

	ruleID := fmt.Sprintf("%s%s:%d", ruleIDExactPrefix, c.Tech, c.Port)
	score := adjustScore(1.0, e.freq.Frequency(ruleID))
	score = e.applySynergy(c.Tech, rule.Wordlists, score)

	return levelResult{
		wordlists: rule.Wordlists,
		ruleIDs:   []string{ruleID},
		score:     score,
	}
}

// evalTechCategory tries exact technology membership first, then falls back
// to the category banner patterns. A pattern match is inherently less
// certain than an exact technology tag, so it scores at a discount.
func (e *Engine) evalTechCategory(c Context) levelResult {
	if cat, ok := e.rules.TechCategoryByMembership(c.Tech); ok {
		ruleID := ruleIDTechCategoryPrefix + cat.Name
		score := adjustScore(cat.Weight, e.freq.Frequency(ruleID))
		score = e.applySynergy(c.Tech, cat.Wordlists, score)
		return levelResult{wordlists: cat.Wordlists, ruleIDs: []string{ruleID}, score: score}
	}

	if cat, ok := e.rules.TechCategoryByPattern(c.Service); ok {
		ruleID := ruleIDTechPatternPrefix + cat.Name
		score := adjustScore(cat.Weight*patternDiscount, e.freq.Frequency(ruleID))
		score = e.applySynergy(c.Tech, cat.Wordlists, score)
		return levelResult{wordlists: cat.Wordlists, ruleIDs: []string{ruleID}, score: score}
	}

	return levelResult{}
}

// evalPortCategory fires the first port category covering the context port.
// Only one port rule fires per query.
func (e *Engine) evalPortCategory(c Context) levelResult {
	cat, ok := e.rules.PortCategoryFor(c.Port)
	if !ok {
		return levelResult{}
	}

	ruleID := ruleIDPortPrefix + cat.Name
	score := adjustScore(cat.Weight, e.freq.Frequency(ruleID))
	score = e.applySynergy(c.Tech, cat.Wordlists, score)

	return levelResult{wordlists: cat.Wordlists, ruleIDs: []string{ruleID}, score: score}
}

// evalKeywords unions the wordlists of every keyword found in the banner.
// The level score is the best single adjusted keyword score, not a sum.
func (e *Engine) evalKeywords(c Context) levelResult {
	if c.Service == "" {
		return levelResult{}
	}
	banner := strings.ToLower(c.Service)

	var result levelResult
	for _, kw := range e.rules.Keywords {
		if !strings.Contains(banner, kw.Keyword) {
			continue
		}
		ruleID := ruleIDKeywordPrefix + kw.Keyword
		score := adjustScore(keywordBaseScore, e.freq.Frequency(ruleID))
		if score > result.score {
			result.score = score
		}
		result.wordlists = append(result.wordlists, kw.Wordlists...)
		result.ruleIDs = append(result.ruleIDs, ruleID)
	}
	if result.fired() {
		result.score = e.applySynergy(c.Tech, result.wordlists, result.score)
	}
	return result
}

// applySynergy adds a flat bonus, once, when any candidate wordlist name
// contains one of the detected technology's synergy terms.
func (e *Engine) applySynergy(tech string, wordlists []string, score float64) float64 {
	terms := e.rules.SynergyTerms(tech)
	if len(terms) == 0 {
		return score
	}
	for _, wl := range wordlists {
		name := strings.ToLower(wl)
		for _, term := range terms {
			if strings.Contains(name, term) {
				if score += synergyBonus; score > 1.0 {
					score = 1.0
				}
				return score
			}
		}
	}
	return score
}

// Dedupe removes repeated wordlist names preserving first-seen order.
func Dedupe(wordlists []string) []string {
	seen := make(map[string]struct{}, len(wordlists))
	out := make([]string, 0, len(wordlists))
	for _, wl := range wordlists {
		if _, ok := seen[wl]; ok {
			continue
		}
		seen[wl] = struct{}{}
		out = append(out, wl)
	}
	return out
}
