package rules

import (
	"fmt"
	"sort"
	"strings"
)

// AuditReport carries the findings of a rule table self-audit. Errors are
// defects that change scoring behavior (port conflicts, bad weights);
// warnings are hygiene issues (name collisions across categories).
type AuditReport struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Clean reports whether the audit found nothing at all.
func (r AuditReport) Clean() bool {
	return len(r.Errors) == 0 && len(r.Warnings) == 0
}

// Audit scans the tables for configuration defects: wordlist names shared by
// multiple tech categories (case-insensitive), ports claimed by more than one
// port category, and weights outside [0,1]. Intended for offline use; a live
// scoring call never runs this.
func (rs *Ruleset) Audit() AuditReport {
	var report AuditReport

	// Wordlist name collisions across tech categories.
	seen := map[string][]string{}
	for _, c := range rs.TechCategories {
		for _, wl := range c.Wordlists {
			key := strings.ToLower(wl)
			seen[key] = append(seen[key], c.Name)
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if cats := seen[name]; len(cats) > 1 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("wordlist %q appears in categories: %s", name, strings.Join(cats, ", ")))
		}
	}

	// Port conflicts: first category wins at runtime, so a shared port means
	// the later category can never fire for it.
	portOwner := map[int]string{}
	for _, c := range rs.PortCategories {
		for _, p := range c.Ports {
			if owner, ok := portOwner[p]; ok {
				report.Errors = append(report.Errors,
					fmt.Sprintf("port %d declared in both %q and %q", p, owner, c.Name))
				continue
			}
			portOwner[p] = c.Name
		}
	}

	// Out-of-range weights.
	for _, c := range rs.TechCategories {
		if c.Weight < 0 || c.Weight > 1 {
			report.Errors = append(report.Errors,
				fmt.Sprintf("tech category %q has out-of-range weight %.3f", c.Name, c.Weight))
		}
	}
	for _, c := range rs.PortCategories {
		if c.Weight < 0 || c.Weight > 1 {
			report.Errors = append(report.Errors,
				fmt.Sprintf("port category %q has out-of-range weight %.3f", c.Name, c.Weight))
		}
	}

	return report
}
