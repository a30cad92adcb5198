package recommend

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wordpick/wordpick/pkg/history"
	"github.com/wordpick/wordpick/pkg/rules"
)

// Confidence classifies how trustworthy a recommendation is. It is a pure
// function of (fallback used, matched rules, score), recomputed per result
// and immutable thereafter.
type Confidence string

// Confidence tiers.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

const (
	genericFallbackScore = 0.4

	highScoreThreshold   = 0.8
	mediumScoreThreshold = 0.6
)

// Breakdown carries the five independent component scores. Every component
// is always populated: 0.0 means the level did not fire.
type Breakdown struct {
	ExactMatch      float64 `json:"exact_match"`
	TechCategory    float64 `json:"tech_category"`
	PortContext     float64 `json:"port_context"`
	ServiceKeywords float64 `json:"service_keywords"`
	GenericFallback float64 `json:"generic_fallback"`
}

// Max returns the strongest component score.
func (b Breakdown) Max() float64 {
	max := b.ExactMatch
	for _, v := range []float64{b.TechCategory, b.PortContext, b.ServiceKeywords, b.GenericFallback} {
		if v > max {
			max = v
		}
	}
	return max
}

// Result is a scored wordlist recommendation.
type Result struct {
	Score        float64    `json:"score"`
	Explanation  Breakdown  `json:"explanation"`
	Wordlists    []string   `json:"wordlists"`
	MatchedRules []string   `json:"matched_rules"`
	FallbackUsed bool       `json:"fallback_used"`
	CacheKey     string     `json:"cache_key"`
	Confidence   Confidence `json:"confidence"`

	// EntryID identifies the persisted history record, when persistence
	// succeeded. Callers use it to attach scan outcomes later.
	EntryID string `json:"entry_id,omitempty"`
}

// Scorer composes the rule levels into one unified recommendation and
// persists the outcome to the selection log.
type Scorer struct {
	engine *Engine
	store  history.Store
	logger zerolog.Logger
}

// ScorerOption customizes a Scorer.
type ScorerOption func(*Scorer)

// WithStore wires in the selection log. Persistence is best-effort; a nil
// store disables it.
func WithStore(store history.Store) ScorerOption {
	return func(s *Scorer) { s.store = store }
}

// NewScorer creates a scoring orchestrator over the given rule tables.
func NewScorer(rs *rules.Ruleset, freq FrequencyProvider, logger zerolog.Logger, opts ...ScorerOption) *Scorer {
	s := &Scorer{
		engine: NewEngine(rs, freq, logger),
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine exposes the underlying rule engine.
func (s *Scorer) Engine() *Engine { return s.engine }

// Score produces a recommendation for a validated Context. It always
// succeeds: the generic fallback guarantees a non-empty wordlist set, and a
// failed history write is logged, not propagated.
func (s *Scorer) Score(ctx context.Context, c Context) Result {
	var (
		breakdown Breakdown
		wordlists []string
		ruleIDs   []string
	)

	// Level order is fixed: exact first so its wordlists sort first after
	// deduplication.
	exact := s.engine.evalExact(c)
	breakdown.ExactMatch = round3(exact.score)
	wordlists = append(wordlists, exact.wordlists...)
	ruleIDs = append(ruleIDs, exact.ruleIDs...)

	tech := s.engine.evalTechCategory(c)
	breakdown.TechCategory = round3(tech.score)
	wordlists = append(wordlists, tech.wordlists...)
	ruleIDs = append(ruleIDs, tech.ruleIDs...)

	port := s.engine.evalPortCategory(c)
	breakdown.PortContext = round3(port.score)
	wordlists = append(wordlists, port.wordlists...)
	ruleIDs = append(ruleIDs, port.ruleIDs...)

	keywords := s.engine.evalKeywords(c)
	breakdown.ServiceKeywords = round3(keywords.score)
	wordlists = append(wordlists, keywords.wordlists...)
	ruleIDs = append(ruleIDs, keywords.ruleIDs...)

	fallbackUsed := false
	if len(wordlists) == 0 {
		// Fallback is a normal path, not an error path, and it is never
		// confident.
		breakdown.GenericFallback = genericFallbackScore
		wordlists = append(wordlists, s.engine.rules.GenericFallback...)
		ruleIDs = append(ruleIDs, ruleIDGenericFallback)
		fallbackUsed = true
	}

	result := Result{
		Score:        round3(breakdown.Max()),
		Explanation:  breakdown,
		Wordlists:    Dedupe(wordlists),
		MatchedRules: ruleIDs,
		FallbackUsed: fallbackUsed,
		CacheKey:     c.CacheKey(),
	}
	result.Confidence = confidenceFor(result)

	s.persist(ctx, c, &result)
	return result
}

// confidenceFor derives the confidence tier. Fallback forces LOW and an
// exact-match rule forces HIGH, both regardless of the numeric score.
func confidenceFor(r Result) Confidence {
	if r.FallbackUsed {
		return ConfidenceLow
	}
	for _, id := range r.MatchedRules {
		if strings.HasPrefix(id, ruleIDExactPrefix) {
			return ConfidenceHigh
		}
	}
	switch {
	case r.Score >= highScoreThreshold:
		return ConfidenceHigh
	case r.Score >= mediumScoreThreshold:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// persist appends the decision to the selection log. Fire-and-forget: the
// computed result is returned whether or not the write lands.
func (s *Scorer) persist(ctx context.Context, c Context, r *Result) {
	if s.store == nil {
		return
	}
	entry := history.Entry{
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		CacheKey:     r.CacheKey,
		Target:       c.Target,
		Port:         c.Port,
		Service:      c.Service,
		Tech:         c.Tech,
		Wordlists:    r.Wordlists,
		MatchedRules: r.MatchedRules,
		Score:        r.Score,
		Confidence:   string(r.Confidence),
		FallbackUsed: r.FallbackUsed,
	}
	if err := s.store.Append(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("cache_key", r.CacheKey).Msg("failed to persist selection, result still returned")
		return
	}
	r.EntryID = entry.ID
}

func round3(v float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return math.Round(v*1000) / 1000
}
