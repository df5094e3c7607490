package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSource(t *testing.T) {
	env := map[string]any{
		"system": map[string]any{
			"default": map[string]any{
				"web": map[string]any{"secure": map[string]any{"use_in_frontend": float64(1)}},
			},
		},
	}
	app := map[string]any{
		"system": map[string]any{
			"default": map[string]any{
				"dev": map[string]any{"js": map[string]any{"merge_files": "0"}},
			},
			"stores": map[string]any{
				"de": map[string]any{"general": map[string]any{"locale": map[string]any{"code": "de_DE"}}},
			},
		},
	}
	codes := ScopeCodes{"stores/2": "de"}

	tests := []struct {
		name       string
		entry      ConfigEntry
		source     string
		final      string
		overridden bool
	}{
		{
			name:       "env wins",
			entry:      ConfigEntry{Path: "web/secure/use_in_frontend", Value: "0", Scope: "default"},
			source:     SourceEnv,
			final:      "1",
			overridden: true,
		},
		{
			name:   "config.php with same value is not overridden",
			entry:  ConfigEntry{Path: "dev/js/merge_files", Value: "0", Scope: "default"},
			source: SourceConfig,
			final:  "0",
		},
		{
			name:       "store scope by code",
			entry:      ConfigEntry{Path: "general/locale/code", Value: "en_US", Scope: "stores", ScopeID: 2},
			source:     SourceConfig,
			final:      "de_DE",
			overridden: true,
		},
		{
			name:   "unknown store code stays database",
			entry:  ConfigEntry{Path: "general/locale/code", Value: "en_US", Scope: "stores", ScopeID: 9},
			source: SourceDatabase,
			final:  "en_US",
		},
		{
			name:   "plain database value",
			entry:  ConfigEntry{Path: "catalog/seo/product_url_suffix", Value: ".html", Scope: "default"},
			source: SourceDatabase,
			final:  ".html",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.entry
			ResolveSource(&e, env, app, codes)
			assert.Equal(t, tt.source, e.Source)
			assert.Equal(t, tt.final, e.FinalValue)
			assert.Equal(t, tt.overridden, e.Overridden)
		})
	}
}

func TestFilterConfig(t *testing.T) {
	entries := []ConfigEntry{
		{Path: "web/unsecure/base_url", Value: "http://shop.test/"},
		{Path: "web/secure/base_url", Value: "https://shop.test/"},
		{Path: "general/locale/code", Value: "en_US"},
	}

	assert.Len(t, FilterConfig(entries, ""), 3)
	assert.Len(t, FilterConfig(entries, "BASE_URL"), 2)
	got := FilterConfig(entries, "en_us")
	require.Len(t, got, 1)
	assert.Equal(t, "general/locale/code", got[0].Path)
	assert.Empty(t, FilterConfig(entries, "nothing"))
}

func TestConfigRequiresDatabase(t *testing.T) {
	svc := &ConfigService{base: newTestBase(newFakeMagento(t))}

	_, err := svc.List(context.Background())
	assert.True(t, errors.Is(err, ErrNoDatabase))

	err = svc.Save(context.Background(), "web/seo/use_rewrites", "1", "default", 0)
	assert.True(t, errors.Is(err, ErrNoDatabase))
}
