package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidycode/magetui/internal/magento"
)

const (
	pathBaseURL       = "web/unsecure/base_url"
	pathSecureBaseURL = "web/secure/base_url"
)

// StoreURL is one store view (admin included) with its effective URLs.
// Empty URLs mean nothing is configured at any scope.
type StoreURL struct {
	StoreID   int
	WebsiteID int
	Code      string
	Name      string
	BaseURL   string
	SecureURL string
}

// URLResult reports the outcome of an update.
type URLResult struct {
	Success bool
	Message string
}

// URLService reads and updates base URLs per store.
type URLService struct {
	*base
}

type scopeKey struct {
	scope string
	id    int
	path  string
}

// List returns every store with base and secure base URL, resolving the
// store, website and default scopes in that order.
func (s *URLService) List(ctx context.Context) ([]StoreURL, error) {
	if err := s.requireDB(); err != nil {
		return nil, err
	}
	return cached(s.cache, "urls:stores", func() ([]StoreURL, error) {
		stores, err := s.stores(ctx)
		if err != nil {
			return nil, err
		}
		values, err := s.urlValues(ctx)
		if err != nil {
			return nil, err
		}
		websiteCodes := s.websiteCodes(ctx)
		env, _ := s.env(ctx)
		app, _ := s.appConfig(ctx)

		for i := range stores {
			st := &stores[i]
			levels := []struct {
				scope, code string
				id          int
			}{
				{"stores", st.Code, st.StoreID},
				{"websites", websiteCodes[st.WebsiteID], st.WebsiteID},
				{"default", "", 0},
			}
			resolve := func(path string) string {
				parts := strings.Split(path, "/")
				for _, lv := range levels {
					keys := []string{"system", lv.scope}
					if lv.scope != "default" {
						if lv.code == "" {
							continue
						}
						keys = append(keys, lv.code)
					}
					keys = append(keys, parts...)
					if v := magento.LookupString(env, keys...); v != "" {
						return v
					}
					if v := magento.LookupString(app, keys...); v != "" {
						return v
					}
					if v := values[scopeKey{lv.scope, lv.id, path}]; v != "" {
						return v
					}
				}
				return ""
			}
			st.BaseURL = resolve(pathBaseURL)
			st.SecureURL = resolve(pathSecureBaseURL)
		}
		return stores, nil
	})
}

func (s *URLService) stores(ctx context.Context) ([]StoreURL, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT store_id, website_id, code, name FROM %s ORDER BY store_id", s.table("store")))
	if err != nil {
		return nil, fmt.Errorf("query stores: %w", err)
	}
	defer rows.Close()

	var stores []StoreURL
	for rows.Next() {
		var st StoreURL
		if err := rows.Scan(&st.StoreID, &st.WebsiteID, &st.Code, &st.Name); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		stores = append(stores, st)
	}
	return stores, rows.Err()
}

func (s *URLService) urlValues(ctx context.Context) (map[scopeKey]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT scope, scope_id, path, value FROM %s WHERE path IN (?, ?)", s.table("core_config_data")),
		pathBaseURL, pathSecureBaseURL)
	if err != nil {
		return nil, fmt.Errorf("query base urls: %w", err)
	}
	defer rows.Close()

	out := map[scopeKey]string{}
	for rows.Next() {
		var k scopeKey
		var v *string
		if err := rows.Scan(&k.scope, &k.id, &k.path, &v); err != nil {
			return nil, fmt.Errorf("scan base url: %w", err)
		}
		if v != nil {
			out[k] = *v
		}
	}
	return out, rows.Err()
}

func (s *URLService) websiteCodes(ctx context.Context) map[int]string {
	out := map[int]string{}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT website_id, code FROM %s", s.table("store_website")))
	if err != nil {
		return out
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		var code string
		if rows.Scan(&id, &code) == nil {
			out[id] = code
		}
	}
	return out
}

// ValidURL accepts absolute http and https URLs with a host.
func ValidURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// NormalizeURL trims whitespace and guarantees exactly one trailing slash.
func NormalizeURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/") + "/"
}

// Update saves both URLs at the stores scope of storeID and cleans the
// config cache.
func (s *URLService) Update(ctx context.Context, storeID int, base, secure string) URLResult {
	if !ValidURL(base) {
		return URLResult{Message: "Invalid base URL format"}
	}
	if !ValidURL(secure) {
		return URLResult{Message: "Invalid secure base URL format"}
	}
	if err := s.requireDB(); err != nil {
		return URLResult{Message: "Error: " + err.Error()}
	}

	base, secure = NormalizeURL(base), NormalizeURL(secure)
	err := s.upsertConfig(ctx, pathBaseURL, base, "stores", storeID)
	if err == nil {
		err = s.upsertConfig(ctx, pathSecureBaseURL, secure, "stores", storeID)
	}
	s.record(ctx, "urls", "update", "store "+strconv.Itoa(storeID), err)
	s.cache.Delete("urls:stores")
	s.cache.Delete("config:entries")
	if err != nil {
		return URLResult{Message: "Error: " + err.Error()}
	}
	s.cleanConfig(ctx)
	return URLResult{Success: true, Message: "URLs updated successfully"}
}
