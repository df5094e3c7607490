package services

import (
	"bufio"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tidycode/magetui/internal/logging"
)

// CacheType is one Magento cache type.
type CacheType struct {
	ID      string
	Label   string
	Enabled bool
}

var cacheLabels = map[string]string{
	"config":                        "Configuration",
	"layout":                        "Layouts",
	"block_html":                    "Blocks HTML output",
	"collections":                   "Collections Data",
	"reflection":                    "Reflection Data",
	"db_ddl":                        "Database DDL operations",
	"compiled_config":               "Compiled Config",
	"eav":                           "EAV types and attributes",
	"customer_notification":         "Customer Notification",
	"config_integration":            "Integrations Configuration",
	"config_integration_api":        "Integrations API Configuration",
	"graphql_query_resolver_result": "GraphQL Query Resolver Results",
	"full_page":                     "Page Cache",
	"config_webservice":             "Web Services Configuration",
	"translate":                     "Translations",
}

// CacheLabel returns the admin label for a cache type id.
func CacheLabel(id string) string {
	if l, ok := cacheLabels[id]; ok {
		return l
	}
	return id
}

// CacheService toggles and flushes cache types through bin/magento.
type CacheService struct {
	*base
}

// List reads cache_types from env.php, falling back to cache:status.
func (s *CacheService) List(ctx context.Context) ([]CacheType, error) {
	return cached(s.cache, "cache:types", func() ([]CacheType, error) {
		if env, err := s.env(ctx); err == nil {
			if m, ok := env["cache_types"].(map[string]any); ok && len(m) > 0 {
				types := make([]CacheType, 0, len(m))
				for id, v := range m {
					types = append(types, CacheType{ID: id, Label: CacheLabel(id), Enabled: truthy(v)})
				}
				sortCacheTypes(types)
				return types, nil
			}
		}

		out, err := s.mage.Run(ctx, "cache:status")
		if err != nil {
			return nil, fmt.Errorf("cache status: %w", err)
		}
		return ParseCacheStatus(out), nil
	})
}

// ParseCacheStatus reads `bin/magento cache:status` output lines such as
// "                        config: 1".
func ParseCacheStatus(out string) []CacheType {
	var types []CacheType
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		id, val, ok := strings.Cut(strings.TrimSpace(sc.Text()), ":")
		if !ok {
			continue
		}
		id = strings.TrimSpace(id)
		val = strings.TrimSpace(val)
		if id == "" || strings.Contains(id, " ") || (val != "0" && val != "1") {
			continue
		}
		types = append(types, CacheType{ID: id, Label: CacheLabel(id), Enabled: val == "1"})
	}
	sortCacheTypes(types)
	return types
}

func sortCacheTypes(types []CacheType) {
	sort.Slice(types, func(i, j int) bool { return types[i].ID < types[j].ID })
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != "" && t != "0"
	}
	return false
}

// Stats returns enabled and disabled counts.
func (s *CacheService) Stats(ctx context.Context) (enabled, disabled int, err error) {
	types, err := s.List(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, t := range types {
		if t.Enabled {
			enabled++
		} else {
			disabled++
		}
	}
	return enabled, disabled, nil
}

func (s *CacheService) run(ctx context.Context, action, target string, args ...string) error {
	_, err := s.mage.Run(ctx, args...)
	s.cache.Delete("cache:types")
	s.cache.Delete("file:env.php")
	s.record(ctx, "cache", action, target, err)
	if err != nil {
		return fmt.Errorf("%s %s: %w", action, target, err)
	}
	return nil
}

func (s *CacheService) Enable(ctx context.Context, id string) error {
	return s.run(ctx, "enable", id, "cache:enable", id)
}

func (s *CacheService) Disable(ctx context.Context, id string) error {
	return s.run(ctx, "disable", id, "cache:disable", id)
}

// Flush cleans one cache type.
func (s *CacheService) Flush(ctx context.Context, id string) error {
	return s.run(ctx, "flush", id, "cache:clean", id)
}

// Toggle flips one cache type and reports the new state.
func (s *CacheService) Toggle(ctx context.Context, id string) (bool, error) {
	types, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range types {
		if t.ID != id {
			continue
		}
		if t.Enabled {
			return false, s.Disable(ctx, id)
		}
		return true, s.Enable(ctx, id)
	}
	return false, fmt.Errorf("cache type %s: %w", id, ErrNotFound)
}

func (s *CacheService) EnableAll(ctx context.Context) error {
	return s.run(ctx, "enable_all", "", "cache:enable")
}

func (s *CacheService) DisableAll(ctx context.Context) error {
	return s.run(ctx, "disable_all", "", "cache:disable")
}

// FlushAll flushes every cache storage.
func (s *CacheService) FlushAll(ctx context.Context) error {
	return s.run(ctx, "flush_all", "", "cache:flush")
}

// cleanConfig drops the config cache after a configuration write.
func (b *base) cleanConfig(ctx context.Context) {
	if _, err := b.mage.Run(ctx, "cache:clean", "config"); err != nil {
		logging.Warn("cache", "clean config cache: %v", err)
	}
}
