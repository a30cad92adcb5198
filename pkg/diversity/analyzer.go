// Package diversity detects when the recommendation engine converges on a
// small set of wordlists for dissimilar services. It computes Shannon
// entropy and clustering statistics over the selection log and proposes
// diversified substitutes when repetition crosses a threshold.
package diversity

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/wordpick/wordpick/pkg/history"
	"github.com/wordpick/wordpick/pkg/rules"
)

// Quality classifies how healthy the recommendation distribution looks.
type Quality string

// Quality tiers.
const (
	QualityInsufficientData Quality = "insufficient_data"
	QualityPoor             Quality = "poor"
	QualityAcceptable       Quality = "acceptable"
	QualityGood             Quality = "good"
	QualityExcellent        Quality = "excellent"
)

const (
	defaultEntropyWarnThreshold    = 0.7
	defaultClusteringWarnThreshold = 30.0

	defaultMetricsDaysBack = 30
	defaultMetricsLimit    = 200

	topWordlistCount   = 10
	clusteringTopCount = 3
)

// WordlistCount pairs a wordlist name with its recommendation count.
type WordlistCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Metrics is the computed diversity report. Never persisted.
type Metrics struct {
	EntropyScore          float64         `json:"entropy_score"`
	TotalRecommendations  int             `json:"total_recommendations"`
	UniqueWordlists       int             `json:"unique_wordlists"`
	MostCommonWordlists   []WordlistCount `json:"most_common_wordlists"`
	ClusteringPercentage  float64         `json:"clustering_percentage"`
	ContextDiversity      float64         `json:"context_diversity"`
	RecommendationQuality Quality         `json:"recommendation_quality"`
	WarningMessage        string          `json:"warning_message,omitempty"`
}

// ContextCluster groups historical entries that share a
// (technology, port category) key and recommends suspiciously uniform
// wordlists.
type ContextCluster struct {
	Tech         string          `json:"tech"`
	PortCategory string          `json:"port_category"`
	Size         int             `json:"size"`
	TopWordlists []WordlistCount `json:"top_wordlists"`
}

// Analyzer computes diversity statistics over a selection log.
type Analyzer struct {
	store  history.Store
	rules  *rules.Ruleset
	logger zerolog.Logger

	entropyWarnThreshold    float64
	clusteringWarnThreshold float64
	daysBack                int
	limit                   int
}

// AnalyzerOption customizes an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithThresholds overrides the warning thresholds: entropy below
// entropyWarn or clustering above clusteringWarn (percent) produces a
// warning message.
func WithThresholds(entropyWarn, clusteringWarn float64) AnalyzerOption {
	return func(a *Analyzer) {
		a.entropyWarnThreshold = entropyWarn
		a.clusteringWarnThreshold = clusteringWarn
	}
}

// WithWindow overrides the historical window under analysis.
func WithWindow(daysBack, limit int) AnalyzerOption {
	return func(a *Analyzer) {
		a.daysBack = daysBack
		a.limit = limit
	}
}

// NewAnalyzer creates a diversity analyzer. The ruleset is used to bucket
// ports into categories for context grouping.
func NewAnalyzer(store history.Store, rs *rules.Ruleset, logger zerolog.Logger, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		store:                   store,
		rules:                   rs,
		logger:                  logger,
		entropyWarnThreshold:    defaultEntropyWarnThreshold,
		clusteringWarnThreshold: defaultClusteringWarnThreshold,
		daysBack:                defaultMetricsDaysBack,
		limit:                   defaultMetricsLimit,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Metrics computes the diversity report for the recent window. A cold or
// unavailable store reports insufficient data, never a false positive.
func (a *Analyzer) Metrics(ctx context.Context) Metrics {
	entries := a.recent(ctx, a.limit)
	if len(entries) < 2 {
		return Metrics{
			EntropyScore:          1.0,
			TotalRecommendations:  len(entries),
			UniqueWordlists:       countUnique(entries),
			RecommendationQuality: QualityInsufficientData,
		}
	}

	counts := map[string]int{}
	totalOccurrences := 0
	for i := range entries {
		for _, wl := range entries[i].Wordlists {
			counts[wl]++
			totalOccurrences++
		}
	}

	m := Metrics{
		TotalRecommendations: len(entries),
		UniqueWordlists:      len(counts),
		EntropyScore:         normalizedEntropy(counts, totalOccurrences),
		MostCommonWordlists:  topCounts(counts, topWordlistCount),
		ClusteringPercentage: clusteringPercentage(counts, totalOccurrences),
		ContextDiversity:     a.contextDiversity(entries),
	}
	m.RecommendationQuality = assessQuality(m.EntropyScore, m.ClusteringPercentage)
	m.WarningMessage = a.warning(m)
	return m
}

// ShouldDiversify reports whether corrective diversification is warranted:
// entropy below the threshold with at least 5 samples, so sparse data never
// triggers an overreaction.
func (a *Analyzer) ShouldDiversify(ctx context.Context) bool {
	m := a.Metrics(ctx)
	return m.EntropyScore < a.entropyWarnThreshold && m.TotalRecommendations >= 5
}

// ContextClusters groups the recent window by (tech, port category),
// keeping groups of at least two entries. High cluster sizes with uniform
// top wordlists indicate "every tomcat-on-8080 scan gets the same lists".
func (a *Analyzer) ContextClusters(ctx context.Context) []ContextCluster {
	entries := a.recent(ctx, a.limit)

	type group struct {
		tech, portCat string
		counts        map[string]int
		size          int
	}
	groups := map[string]*group{}
	var order []string
	for i := range entries {
		tech := entries[i].Tech
		if tech == "" {
			tech = "unknown"
		}
		portCat := a.rules.PortCategoryName(entries[i].Port)
		key := tech + "|" + portCat
		g, ok := groups[key]
		if !ok {
			g = &group{tech: tech, portCat: portCat, counts: map[string]int{}}
			groups[key] = g
			order = append(order, key)
		}
		g.size++
		for _, wl := range entries[i].Wordlists {
			g.counts[wl]++
		}
	}

	var clusters []ContextCluster
	for _, key := range order {
		g := groups[key]
		if g.size < 2 {
			continue
		}
		clusters = append(clusters, ContextCluster{
			Tech:         g.tech,
			PortCategory: g.portCat,
			Size:         g.size,
			TopWordlists: topCounts(g.counts, 5),
		})
	}
	sort.SliceStable(clusters, func(i, j int) bool { return clusters[i].Size > clusters[j].Size })
	return clusters
}

// recent fetches the analysis window, treating store failure as no data.
func (a *Analyzer) recent(ctx context.Context, limit int) []history.Entry {
	if a.store == nil {
		return nil
	}
	entries, err := a.store.Search(ctx, history.Query{DaysBack: a.daysBack, Limit: limit})
	if err != nil {
		a.logger.Warn().Err(err).Msg("history unavailable for diversity analysis")
		return nil
	}
	return entries
}

func (a *Analyzer) warning(m Metrics) string {
	switch {
	case m.EntropyScore < a.entropyWarnThreshold && m.ClusteringPercentage > a.clusteringWarnThreshold:
		return fmt.Sprintf("low recommendation diversity (entropy %.2f) with %.0f%% of picks concentrated in the top %d wordlists; review rule tables",
			m.EntropyScore, m.ClusteringPercentage, clusteringTopCount)
	case m.EntropyScore < a.entropyWarnThreshold:
		return fmt.Sprintf("recommendation entropy %.2f is below the %.2f warning threshold", m.EntropyScore, a.entropyWarnThreshold)
	case m.ClusteringPercentage > a.clusteringWarnThreshold:
		return fmt.Sprintf("%.0f%% of recommendations concentrated in the top %d wordlists", m.ClusteringPercentage, clusteringTopCount)
	default:
		return ""
	}
}

// normalizedEntropy computes Shannon entropy over the wordlist frequency
// distribution, normalized by log2 of the distinct count so the result sits
// in [0,1]. A single distinct wordlist normalizes against 1.0.
func normalizedEntropy(counts map[string]int, total int) float64 {
	if total == 0 || len(counts) == 0 {
		return 1.0
	}
	h := 0.0
	for _, n := range counts {
		p := float64(n) / float64(total)
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	norm := 1.0
	if len(counts) > 1 {
		norm = math.Log2(float64(len(counts)))
	}
	score := h / norm
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// clusteringPercentage is the share of all occurrences attributable to the
// three most frequent wordlists.
func clusteringPercentage(counts map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}
	top := topCounts(counts, clusteringTopCount)
	sum := 0
	for _, wc := range top {
		sum += wc.Count
	}
	return float64(sum) / float64(total) * 100
}

// contextDiversity is the ratio of distinct (tech, port category)
// combinations to total entries. A narrow window tempers how alarming a low
// entropy score should be read.
func (a *Analyzer) contextDiversity(entries []history.Entry) float64 {
	if len(entries) == 0 {
		return 0
	}
	combos := map[string]struct{}{}
	for i := range entries {
		tech := entries[i].Tech
		if tech == "" {
			tech = "unknown"
		}
		combos[tech+"|"+a.rules.PortCategoryName(entries[i].Port)] = struct{}{}
	}
	return float64(len(combos)) / float64(len(entries))
}

func assessQuality(entropy, clustering float64) Quality {
	switch {
	case entropy >= 0.9 && clustering <= 20:
		return QualityExcellent
	case entropy >= 0.8 && clustering <= 30:
		return QualityGood
	case entropy >= 0.6 && clustering <= 50:
		return QualityAcceptable
	default:
		return QualityPoor
	}
}

func topCounts(counts map[string]int, n int) []WordlistCount {
	out := make([]WordlistCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, WordlistCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func countUnique(entries []history.Entry) int {
	seen := map[string]struct{}{}
	for i := range entries {
		for _, wl := range entries[i].Wordlists {
			seen[wl] = struct{}{}
		}
	}
	return len(seen)
}
