package services

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidycode/magetui/internal/magento"
)

// Config value sources, highest priority first.
const (
	SourceEnv      = "env.php"
	SourceConfig   = "config.php"
	SourceDatabase = "database"
)

// ConfigEntry is one core_config_data row with its effective value.
type ConfigEntry struct {
	Path       string
	Value      string
	Scope      string
	ScopeID    int
	Source     string
	FinalValue string
	Overridden bool
}

// ConfigService reads and writes core_config_data.
type ConfigService struct {
	*base
}

// List returns every stored value ordered by path, resolved against the
// system sections of env.php and config.php.
func (s *ConfigService) List(ctx context.Context) ([]ConfigEntry, error) {
	if err := s.requireDB(); err != nil {
		return nil, err
	}
	return cached(s.cache, "config:entries", func() ([]ConfigEntry, error) {
		rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
			"SELECT scope, scope_id, path, value FROM %s ORDER BY path, scope, scope_id",
			s.table("core_config_data")))
		if err != nil {
			return nil, fmt.Errorf("query config: %w", err)
		}
		defer rows.Close()

		var entries []ConfigEntry
		for rows.Next() {
			var e ConfigEntry
			var value sql.NullString
			if err := rows.Scan(&e.Scope, &e.ScopeID, &e.Path, &value); err != nil {
				return nil, fmt.Errorf("scan config: %w", err)
			}
			e.Value = value.String
			entries = append(entries, e)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		env, _ := s.env(ctx)
		app, _ := s.appConfig(ctx)
		codes := s.scopeCodes(ctx)
		for i := range entries {
			ResolveSource(&entries[i], env, app, codes)
		}
		return entries, nil
	})
}

// ScopeCodes maps "websites/1" and "stores/1" to their codes.
type ScopeCodes map[string]string

func (s *ConfigService) scopeCodes(ctx context.Context) ScopeCodes {
	codes := ScopeCodes{}
	queries := map[string]string{
		"websites": fmt.Sprintf("SELECT website_id, code FROM %s", s.table("store_website")),
		"stores":   fmt.Sprintf("SELECT store_id, code FROM %s", s.table("store")),
	}
	for scope, q := range queries {
		rows, err := s.db.QueryContext(ctx, q)
		if err != nil {
			continue
		}
		for rows.Next() {
			var id int
			var code string
			if rows.Scan(&id, &code) == nil {
				codes[scope+"/"+strconv.Itoa(id)] = code
			}
		}
		rows.Close()
	}
	return codes
}

// ResolveSource fills Source, FinalValue and Overridden. env.php wins over
// config.php which wins over the database row.
func ResolveSource(e *ConfigEntry, env, app map[string]any, codes ScopeCodes) {
	keys := systemKeys(e, codes)
	e.Source = SourceDatabase
	e.FinalValue = e.Value

	if keys != nil {
		if v, ok := magento.Lookup(env, keys...); ok && v != nil {
			e.Source = SourceEnv
			e.FinalValue = magento.Scalar(v)
		} else if v, ok := magento.Lookup(app, keys...); ok && v != nil {
			e.Source = SourceConfig
			e.FinalValue = magento.Scalar(v)
		}
	}
	e.Overridden = e.Source != SourceDatabase && e.FinalValue != e.Value
}

func systemKeys(e *ConfigEntry, codes ScopeCodes) []string {
	parts := strings.Split(e.Path, "/")
	switch e.Scope {
	case "default":
		return append([]string{"system", "default"}, parts...)
	case "websites", "stores":
		code, ok := codes[e.Scope+"/"+strconv.Itoa(e.ScopeID)]
		if !ok {
			return nil
		}
		return append([]string{"system", e.Scope, code}, parts...)
	}
	return nil
}

// Save writes value at path for the scope and cleans the config cache.
func (s *ConfigService) Save(ctx context.Context, path, value, scope string, scopeID int) error {
	if err := s.requireDB(); err != nil {
		return err
	}
	err := s.upsertConfig(ctx, path, value, scope, scopeID)
	s.record(ctx, "config", "save", fmt.Sprintf("%s [%s:%d]", path, scope, scopeID), err)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	s.cache.Delete("config:entries")
	s.cache.Delete("urls:stores")
	s.cleanConfig(ctx)
	return nil
}

// upsertConfig writes one core_config_data row the way the config writer
// does, relying on the (scope, scope_id, path) unique key.
func (b *base) upsertConfig(ctx context.Context, path, value, scope string, scopeID int) error {
	_, err := b.db.ExecContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (scope, scope_id, path, value) VALUES (?, ?, ?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value)",
		b.table("core_config_data")), scope, scopeID, path, value)
	return err
}

// FilterConfig keeps entries whose path or value contains needle,
// ignoring case. An empty needle keeps everything.
func FilterConfig(entries []ConfigEntry, needle string) []ConfigEntry {
	needle = strings.ToLower(needle)
	if needle == "" {
		return entries
	}
	out := make([]ConfigEntry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Path), needle) || strings.Contains(strings.ToLower(e.Value), needle) {
			out = append(out, e)
		}
	}
	return out
}
