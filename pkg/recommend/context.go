// Package recommend implements the wordlist scoring engine: a layered
// rule evaluation pipeline (exact match, tech category, port category,
// service keywords, generic fallback) with frequency-based score
// adjustment, tech/wordlist synergy bonuses, and a confidence tier model.
package recommend

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Context describes the scanned service a recommendation is requested for.
// Construct it with NewContext; a Context that passed validation is treated
// as immutable.
type Context struct {
	Target  string `validate:"required"`
	Port    int    `validate:"min=1,max=65535"`
	Service string
	Tech    string
	OS      string
	Version string
	Headers map[string]string
}

// ContextOption sets an optional Context field.
type ContextOption func(*Context)

// WithTech sets the detected technology. Normalized to lowercase.
func WithTech(tech string) ContextOption {
	return func(c *Context) { c.Tech = strings.ToLower(strings.TrimSpace(tech)) }
}

// WithOS sets the detected operating system.
func WithOS(os string) ContextOption {
	return func(c *Context) { c.OS = os }
}

// WithVersion sets the detected service version.
func WithVersion(version string) ContextOption {
	return func(c *Context) { c.Version = version }
}

// WithHeaders sets observed HTTP response headers.
func WithHeaders(headers map[string]string) ContextOption {
	return func(c *Context) { c.Headers = headers }
}

// NewContext builds and validates a query context. Structurally invalid
// input (empty target, port outside 1-65535) is rejected here so the
// scoring engine never sees a malformed Context.
func NewContext(target string, port int, service string, opts ...ContextOption) (Context, error) {
	c := Context{
		Target:  strings.TrimSpace(target),
		Port:    port,
		Service: service,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if err := validate.Struct(c); err != nil {
		return Context{}, fmt.Errorf("invalid context: %w", err)
	}
	return c, nil
}

// CacheKey derives the deterministic correlation key for this context:
// {tech-or-unknown}_{port}_{first-50-service-chars}_{8-hex-hash}, with
// spaces and slashes normalized. Identical inputs always produce the
// identical key.
func (c Context) CacheKey() string {
	tech := c.Tech
	if tech == "" {
		tech = "unknown"
	}

	// Truncate on a rune boundary so a multibyte banner never embeds
	// invalid UTF-8 in the key.
	service := c.Service
	if runes := []rune(service); len(runes) > 50 {
		service = string(runes[:50])
	}
	service = strings.ReplaceAll(service, " ", "_")
	service = strings.ReplaceAll(service, "/", "_")

	h := fnv.New32a()
	h.Write([]byte(c.Target + c.Service)) //nolint:errcheck

	return fmt.Sprintf("%s_%d_%s_%08x", tech, c.Port, service, h.Sum32())
}
