package recommend

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestNewContext_Validation(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		port    int
		wantErr bool
	}{
		{"valid", "example.com", 443, false},
		{"empty target", "", 443, true},
		{"whitespace target", "   ", 443, true},
		{"port zero", "example.com", 0, true},
		{"port too high", "example.com", 70000, true},
		{"port floor", "example.com", 1, false},
		{"port ceiling", "example.com", 65535, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewContext(tt.target, tt.port, "")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNewContext_TechNormalized(t *testing.T) {
	c, err := NewContext("example.com", 443, "", WithTech("  WordPress "))
	require.NoError(t, err)
	require.Equal(t, "wordpress", c.Tech)
}

func TestCacheKey_Deterministic(t *testing.T) {
	a, err := NewContext("example.com", 443, "Apache/2.4.41", WithTech("wordpress"))
	require.NoError(t, err)
	b, err := NewContext("example.com", 443, "Apache/2.4.41", WithTech("wordpress"))
	require.NoError(t, err)

	require.Equal(t, a.CacheKey(), b.CacheKey())
	require.Equal(t, a.CacheKey(), a.CacheKey())
}

func TestCacheKey_Format(t *testing.T) {
	c, err := NewContext("example.com", 443, "Apache/2.4.41 (Ubuntu)", WithTech("wordpress"))
	require.NoError(t, err)

	key := c.CacheKey()
	require.True(t, strings.HasPrefix(key, "wordpress_443_Apache_2.4.41_(Ubuntu)_"), key)

	// 8 hex digits at the tail.
	parts := strings.Split(key, "_")
	hash := parts[len(parts)-1]
	require.Len(t, hash, 8)
}

func TestCacheKey_UnknownTechAndTruncation(t *testing.T) {
	long := strings.Repeat("abcde ", 20) // well over 50 chars
	c, err := NewContext("x.local", 80, long)
	require.NoError(t, err)

	key := c.CacheKey()
	require.True(t, strings.HasPrefix(key, "unknown_80_"), key)

	// Distinct targets with the same banner must not collide.
	c2, err := NewContext("y.local", 80, long)
	require.NoError(t, err)
	require.NotEqual(t, key, c2.CacheKey())
}

func TestCacheKey_MultibyteBannerStaysValidUTF8(t *testing.T) {
	// 60 two-byte runes; a byte-wise cut at 50 would land mid-rune.
	banner := strings.Repeat("é", 60)
	c, err := NewContext("x.local", 80, banner)
	require.NoError(t, err)

	key := c.CacheKey()
	require.True(t, utf8.ValidString(key), "cache key contains invalid UTF-8: %q", key)
	require.Contains(t, key, strings.Repeat("é", 50))
	require.NotContains(t, key, strings.Repeat("é", 51))
}
