// Package history persists every scoring decision as an append-only
// selection log and serves the aggregate queries the rule engine
// (frequency stats) and the diversity analyzer (entropy stats) run
// against it.
package history

import (
	"strings"
	"time"
)

// Entry is one recorded scoring decision. Entries are never mutated after
// being appended; a later-observed outcome is attached as a separate keyed
// record and merged back at read time.
type Entry struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	CacheKey     string    `json:"cache_key"`
	Target       string    `json:"target"`
	Port         int       `json:"port"`
	Service      string    `json:"service,omitempty"`
	Tech         string    `json:"tech,omitempty"`
	Wordlists    []string  `json:"wordlists"`
	MatchedRules []string  `json:"matched_rules"`
	Score        float64   `json:"score"`
	Confidence   string    `json:"confidence"`
	FallbackUsed bool      `json:"fallback_used"`
	Outcome      *Outcome  `json:"outcome,omitempty"`
}

// MatchedRule reports whether the entry's matched rule list contains the
// given rule identifier.
func (e *Entry) MatchedRule(ruleID string) bool {
	for _, id := range e.MatchedRules {
		if id == ruleID {
			return true
		}
	}
	return false
}

// Outcome captures what the scan that used this recommendation found.
// Attached after the fact via Store.AttachOutcome.
type Outcome struct {
	HitCount   int       `json:"hit_count"`
	Successful bool      `json:"successful"`
	Notes      string    `json:"notes,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// Query filters a Search. Zero values mean "no filter"; multiple filters
// are ANDed. DaysBack bounds recency and Limit bounds the result count.
type Query struct {
	Tech     string
	Port     int
	DaysBack int
	Limit    int
}

// Matches reports whether an entry satisfies the query's tech/port filters.
// Recency and limit are enforced by the store.
func (q Query) Matches(e *Entry) bool {
	if q.Tech != "" && !strings.EqualFold(q.Tech, e.Tech) {
		return false
	}
	if q.Port != 0 && q.Port != e.Port {
		return false
	}
	return true
}
