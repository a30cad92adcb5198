package recommend

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wordpick/wordpick/pkg/history"
)

const (
	// neutralFrequency is assumed when no historical data is available.
	neutralFrequency = 0.5

	rareThreshold     = 0.20
	overusedThreshold = 0.80
	frequencyNudge    = 0.10

	// adjustedFloor is the lower clamp for frequency-adjusted scores.
	adjustedFloor = 0.10

	defaultFrequencyTTL      = time.Hour
	defaultFrequencyDaysBack = 30
	defaultFrequencyLimit    = 500
)

// FrequencyProvider supplies the historical usage frequency of a rule ID:
// the fraction of recent selections in which the rule appeared.
type FrequencyProvider interface {
	Frequency(ruleID string) float64
}

// FrequencyCache computes rule usage frequencies from the selection log and
// caches them, refreshing at most once per TTL. It is the only shared
// mutable state in the scoring path; refreshes replace the whole map and a
// failed refresh keeps the last known frequencies.
type FrequencyCache struct {
	store    history.Store
	ttl      time.Duration
	daysBack int
	limit    int
	logger   zerolog.Logger

	// now is swappable so tests can freeze the refresh boundary.
	now func() time.Time

	mu          sync.RWMutex
	freqs       map[string]float64
	lastRefresh time.Time
}

// FrequencyCacheOption customizes a FrequencyCache.
type FrequencyCacheOption func(*FrequencyCache)

// WithFrequencyTTL overrides the refresh interval.
func WithFrequencyTTL(ttl time.Duration) FrequencyCacheOption {
	return func(c *FrequencyCache) { c.ttl = ttl }
}

// WithFrequencyWindow overrides the historical window the frequencies are
// computed over.
func WithFrequencyWindow(daysBack, limit int) FrequencyCacheOption {
	return func(c *FrequencyCache) {
		c.daysBack = daysBack
		c.limit = limit
	}
}

// WithFrequencyClock injects a clock. Test hook.
func WithFrequencyClock(now func() time.Time) FrequencyCacheOption {
	return func(c *FrequencyCache) { c.now = now }
}

// NewFrequencyCache creates a frequency cache over the given store. A nil
// store is valid and yields neutral frequencies for every rule.
func NewFrequencyCache(store history.Store, logger zerolog.Logger, opts ...FrequencyCacheOption) *FrequencyCache {
	c := &FrequencyCache{
		store:    store,
		ttl:      defaultFrequencyTTL,
		daysBack: defaultFrequencyDaysBack,
		limit:    defaultFrequencyLimit,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Frequency returns the cached usage frequency for a rule ID, refreshing
// the cache first if it is stale. Unknown rules and store failures yield
// the neutral 0.5.
func (c *FrequencyCache) Frequency(ruleID string) float64 {
	c.refreshIfStale()

	c.mu.RLock()
	defer c.mu.RUnlock()
	if f, ok := c.freqs[ruleID]; ok {
		return f
	}
	return neutralFrequency
}

func (c *FrequencyCache) refreshIfStale() {
	if c.store == nil {
		return
	}

	c.mu.RLock()
	stale := c.now().Sub(c.lastRefresh) >= c.ttl
	c.mu.RUnlock()
	if !stale {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now().Sub(c.lastRefresh) < c.ttl {
		return // another caller refreshed while we waited
	}

	entries, err := c.store.Search(context.Background(), history.Query{
		DaysBack: c.daysBack,
		Limit:    c.limit,
	})
	// Back off until the next interval either way; a down store must not be
	// re-queried on every scoring call.
	c.lastRefresh = c.now()
	if err != nil {
		c.logger.Warn().Err(err).Msg("frequency refresh failed, keeping last known frequencies")
		return
	}
	if len(entries) == 0 {
		c.freqs = map[string]float64{}
		return
	}

	// Frequency is the fraction of selections a rule appeared in, so an
	// entry counts at most once per rule no matter how its matched list is
	// shaped.
	ids := map[string]struct{}{}
	for i := range entries {
		for _, id := range entries[i].MatchedRules {
			ids[id] = struct{}{}
		}
	}
	next := make(map[string]float64, len(ids))
	total := float64(len(entries))
	for id := range ids {
		n := 0
		for i := range entries {
			if entries[i].MatchedRule(id) {
				n++
			}
		}
		next[id] = float64(n) / total
	}
	c.freqs = next
}

// adjustScore applies the frequency nudge to a base score: rare rules get a
// boost, overused rules get dampened. The result is clamped to
// [adjustedFloor, 1.0].
func adjustScore(base, frequency float64) float64 {
	adjusted := base
	switch {
	case frequency < rareThreshold:
		adjusted += frequencyNudge
	case frequency > overusedThreshold:
		adjusted -= frequencyNudge
	}
	if adjusted < adjustedFloor {
		adjusted = adjustedFloor
	}
	if adjusted > 1.0 {
		adjusted = 1.0
	}
	return adjusted
}

// neutralFrequencies is a FrequencyProvider that always returns the neutral
// value. Used when no history store is wired in.
type neutralFrequencies struct{}

func (neutralFrequencies) Frequency(string) float64 { return neutralFrequency }
