// Package rules holds the static recommendation tables consumed by the
// scoring engine: exact (tech, port) rules, technology categories with
// pattern fallbacks, port categories, service keywords, the generic
// fallback list, and the tech synergy map.
//
// Tables are evaluated in declared order. Slices are used everywhere so
// "first match wins" is an explicit property of the data file, not an
// accident of map iteration.
package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/rules.yaml
var embeddedRulesYAML []byte

// ExactRule maps a known (technology, port) pair to curated wordlists.
type ExactRule struct {
	Tech      string   `yaml:"tech"`
	Port      int      `yaml:"port"`
	Wordlists []string `yaml:"wordlists"`
}

// TechCategory groups related technologies under one rule. Match lists the
// technology identifiers that belong to the category; Pattern is a fallback
// regex evaluated against the service banner when no exact membership hit
// occurred. Weight is the category's base score in [0,1].
type TechCategory struct {
	Name      string   `yaml:"name"`
	Match     []string `yaml:"match"`
	Pattern   string   `yaml:"pattern"`
	Weight    float64  `yaml:"weight"`
	Wordlists []string `yaml:"wordlists"`

	// Compiled expression (not serialized)
	patternRegex *regexp.Regexp
}

// PatternMatches reports whether the category's fallback pattern matches the
// given service banner. Categories without a pattern never match.
func (c *TechCategory) PatternMatches(service string) bool {
	if c.patternRegex == nil || service == "" {
		return false
	}
	return c.patternRegex.MatchString(service)
}

// PortCategory maps a set of ports to wordlists with a base weight.
type PortCategory struct {
	Name      string   `yaml:"name"`
	Ports     []int    `yaml:"ports"`
	Weight    float64  `yaml:"weight"`
	Wordlists []string `yaml:"wordlists"`
}

// Contains reports whether the category covers the given port.
func (c *PortCategory) Contains(port int) bool {
	for _, p := range c.Ports {
		if p == port {
			return true
		}
	}
	return false
}

// KeywordRule maps a banner keyword to wordlists.
type KeywordRule struct {
	Keyword   string   `yaml:"keyword"`
	Wordlists []string `yaml:"wordlists"`
}

// Ruleset is the immutable rule table bundle. Load it once at startup and
// share it by reference; it is never mutated after Load returns.
type Ruleset struct {
	Exact           []ExactRule         `yaml:"exact"`
	TechCategories  []TechCategory      `yaml:"tech_categories"`
	PortCategories  []PortCategory      `yaml:"port_categories"`
	Keywords        []KeywordRule       `yaml:"keywords"`
	GenericFallback []string            `yaml:"generic_fallback"`
	Synergy         map[string][]string `yaml:"synergy"`
}

// Load parses and prepares the embedded rule tables.
func Load() (*Ruleset, error) {
	return parse(embeddedRulesYAML)
}

// LoadFile parses rule tables from an external YAML file, overriding the
// embedded defaults. Used by offline tooling.
func LoadFile(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Ruleset, error) {
	if len(data) == 0 {
		return nil, errors.New("rules data is empty")
	}

	var rs Ruleset
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("unmarshal rules: %w", err)
	}
	if len(rs.GenericFallback) == 0 {
		return nil, errors.New("rules: generic_fallback must not be empty")
	}
	if err := rs.compile(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// compile pre-compiles category fallback patterns once at load time.
// Patterns are matched case-insensitively against raw banners.
func (rs *Ruleset) compile() error {
	for i := range rs.TechCategories {
		c := &rs.TechCategories[i]
		if c.Pattern == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + c.Pattern)
		if err != nil {
			return fmt.Errorf("compile pattern for category %q: %w", c.Name, err)
		}
		c.patternRegex = re
	}
	return nil
}

// ExactLookup returns the first exact rule matching (tech, port).
func (rs *Ruleset) ExactLookup(tech string, port int) (ExactRule, bool) {
	for _, r := range rs.Exact {
		if r.Tech == tech && r.Port == port {
			return r, true
		}
	}
	return ExactRule{}, false
}

// TechCategoryByMembership returns the first category whose match list
// contains the given technology.
func (rs *Ruleset) TechCategoryByMembership(tech string) (*TechCategory, bool) {
	if tech == "" {
		return nil, false
	}
	for i := range rs.TechCategories {
		for _, m := range rs.TechCategories[i].Match {
			if m == tech {
				return &rs.TechCategories[i], true
			}
		}
	}
	return nil, false
}

// TechCategoryByPattern returns the first category whose fallback pattern
// matches the service banner.
func (rs *Ruleset) TechCategoryByPattern(service string) (*TechCategory, bool) {
	for i := range rs.TechCategories {
		if rs.TechCategories[i].PatternMatches(service) {
			return &rs.TechCategories[i], true
		}
	}
	return nil, false
}

// PortCategoryFor returns the first category covering the given port.
// Only one port rule ever fires per query.
func (rs *Ruleset) PortCategoryFor(port int) (*PortCategory, bool) {
	for i := range rs.PortCategories {
		if rs.PortCategories[i].Contains(port) {
			return &rs.PortCategories[i], true
		}
	}
	return nil, false
}

// PortCategoryName returns the name of the category covering port, or
// "other" when no category claims it. Used for context grouping.
func (rs *Ruleset) PortCategoryName(port int) string {
	if c, ok := rs.PortCategoryFor(port); ok {
		return c.Name
	}
	return "other"
}

// SynergyTerms returns the synergy terms registered for a technology.
func (rs *Ruleset) SynergyTerms(tech string) []string {
	if tech == "" {
		return nil
	}
	return rs.Synergy[strings.ToLower(tech)]
}
