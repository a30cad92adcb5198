package diversity

import (
	"context"
	"time"

	"github.com/wordpick/wordpick/pkg/history"
)

const (
	// overuseCount is how many recent same-context uses of a wordlist
	// trigger substitution.
	overuseCount = 3

	diversifyWindowLimit = 50
)

// Diversify replaces overused wordlists in a recommendation with
// registered alternatives. Overuse is judged against entries sharing the
// given context, the same technology and port category, so a wordlist
// popular on tomcat-on-8080 scans is still fresh for a database service. A
// wordlist used at least three times in that slice of the recent window is
// swapped for its least-recently-used alternative, ties broken by lowest
// usage count; wordlists without an alternative, or not overused, pass
// through unchanged.
//
// This is a corrective post-process invoked when ShouldDiversify reports
// true, not part of normal scoring.
func (a *Analyzer) Diversify(ctx context.Context, tech string, port int, current []string, alternatives map[string][]string) []string {
	entries := a.sameContext(a.recent(ctx, diversifyWindowLimit), tech, port)

	usage := map[string]int{}
	lastUsed := map[string]time.Time{}
	for i := range entries {
		for _, wl := range entries[i].Wordlists {
			usage[wl]++
			if entries[i].Timestamp.After(lastUsed[wl]) {
				lastUsed[wl] = entries[i].Timestamp
			}
		}
	}

	out := make([]string, 0, len(current))
	for _, wl := range current {
		if usage[wl] < overuseCount {
			out = append(out, wl)
			continue
		}
		alts := alternatives[wl]
		if len(alts) == 0 {
			out = append(out, wl)
			continue
		}
		out = append(out, pickAlternative(alts, usage, lastUsed))
	}
	return out
}

// sameContext keeps the entries matching the context key Diversify judges
// overuse against.
func (a *Analyzer) sameContext(entries []history.Entry, tech string, port int) []history.Entry {
	if tech == "" {
		tech = "unknown"
	}
	portCat := a.rules.PortCategoryName(port)

	out := entries[:0:0]
	for i := range entries {
		entryTech := entries[i].Tech
		if entryTech == "" {
			entryTech = "unknown"
		}
		if entryTech == tech && a.rules.PortCategoryName(entries[i].Port) == portCat {
			out = append(out, entries[i])
		}
	}
	return out
}

// pickAlternative chooses the least-recently-used alternative. Never-used
// alternatives win outright; among equally stale candidates the least-used
// one is taken.
func pickAlternative(alts []string, usage map[string]int, lastUsed map[string]time.Time) string {
	best := alts[0]
	for _, alt := range alts[1:] {
		bestAt, bestSeen := lastUsed[best]
		altAt, altSeen := lastUsed[alt]

		switch {
		case !altSeen && bestSeen:
			best = alt
		case altSeen && !bestSeen:
			// keep best
		case altAt.Before(bestAt):
			best = alt
		case altAt.Equal(bestAt) && usage[alt] < usage[best]:
			best = alt
		}
	}
	return best
}
