package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Module is one entry of config.php's modules map.
type Module struct {
	Name    string
	Version string
	Enabled bool
}

// ToggleResult describes the outcome of module:enable / module:disable.
type ToggleResult struct {
	Success    bool
	Message    string
	FullOutput string
	HasDetails bool
}

// ModuleCounts aggregates enabled state.
type ModuleCounts struct {
	Total, Enabled, Disabled int
}

// ModuleService lists and toggles modules.
type ModuleService struct {
	*base
	hosting string
}

// Hosting is the module that must never be disabled.
func (s *ModuleService) Hosting() string { return s.hosting }

// List reads config.php and setup_module, sorted by name.
func (s *ModuleService) List(ctx context.Context) ([]Module, error) {
	return cached(s.cache, "modules:list", func() ([]Module, error) {
		app, err := s.appConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("read modules: %w", err)
		}
		raw, ok := app["modules"].(map[string]any)
		if !ok {
			return nil, nil
		}
		versions := s.versions(ctx)

		mods := make([]Module, 0, len(raw))
		for name, v := range raw {
			version := versions[name]
			if version == "" {
				version = "N/A"
			}
			mods = append(mods, Module{Name: name, Version: version, Enabled: truthy(v)})
		}
		sort.Slice(mods, func(i, j int) bool { return mods[i].Name < mods[j].Name })
		return mods, nil
	})
}

func (s *ModuleService) versions(ctx context.Context) map[string]string {
	out := map[string]string{}
	if s.db == nil {
		return out
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT module, schema_version FROM %s", s.table("setup_module")))
	if err != nil {
		return out
	}
	defer rows.Close()
	for rows.Next() {
		var name, version string
		if rows.Scan(&name, &version) == nil {
			out[name] = version
		}
	}
	return out
}

// CountModules tallies the module list.
func CountModules(mods []Module) ModuleCounts {
	c := ModuleCounts{Total: len(mods)}
	for _, m := range mods {
		if m.Enabled {
			c.Enabled++
		} else {
			c.Disabled++
		}
	}
	return c
}

// Enable runs module:enable and verifies config.php afterwards.
func (s *ModuleService) Enable(ctx context.Context, name string) ToggleResult {
	return s.toggle(ctx, name, "enable")
}

// Disable runs module:disable unless name is the hosting module.
func (s *ModuleService) Disable(ctx context.Context, name string) ToggleResult {
	if name == s.hosting {
		s.record(ctx, "modules", "disable", name, ErrProtectedModule)
		return ToggleResult{Message: fmt.Sprintf("Cannot disable %s module", name)}
	}
	return s.toggle(ctx, name, "disable")
}

func (s *ModuleService) toggle(ctx context.Context, name, action string) ToggleResult {
	out, err := s.mage.Run(ctx, "module:"+action, name)
	out = strings.TrimSpace(out)
	s.cache.Delete("modules:list")
	s.cache.Delete("file:config.php")

	if err != nil {
		res := ToggleResult{
			Message:    ParseModuleError(out, name, action),
			FullOutput: out,
			HasDetails: true,
		}
		s.record(ctx, "modules", action, name, errors.New(res.Message))
		return res
	}

	want := action == "enable"
	mods, lerr := s.List(ctx)
	actual, found := false, false
	if lerr == nil {
		for _, m := range mods {
			if m.Name == name {
				actual, found = m.Enabled, true
				break
			}
		}
	}
	if !found || actual != want {
		res := ToggleResult{
			Message:    fmt.Sprintf("Module '%s' %s failed - config.php not updated", name, action),
			FullOutput: out,
		}
		s.record(ctx, "modules", action, name, errors.New(res.Message))
		return res
	}

	s.record(ctx, "modules", action, name, nil)
	return ToggleResult{
		Success:    true,
		Message:    fmt.Sprintf("Module '%s' %sd successfully", name, action),
		FullOutput: out,
	}
}

var (
	moduleToken  = regexp.MustCompile(`[A-Za-z0-9_]+`)
	bracketsOnly = regexp.MustCompile(`^[\[\]]+$`)
)

// ParseModuleError turns bin/magento module output into a one-line reason.
func ParseModuleError(output, name, action string) string {
	lower := strings.ToLower(output)

	if strings.Contains(lower, "depend") || strings.Contains(lower, "require") {
		var deps []string
		seen := map[string]bool{}
		for _, tok := range moduleToken.FindAllString(output, -1) {
			if tok == name || !strings.Contains(tok, "_") || seen[tok] {
				continue
			}
			seen[tok] = true
			deps = append(deps, tok)
		}
		if len(deps) > 0 {
			list := strings.Join(deps, ", ")
			if action == "enable" {
				return fmt.Sprintf("Cannot enable '%s': missing dependencies: %s", name, list)
			}
			return fmt.Sprintf("Cannot disable '%s': required by: %s", name, list)
		}
		return "Dependency error - check module dependencies"
	}

	if strings.Contains(lower, "already enabled") {
		return fmt.Sprintf("Module '%s' is already enabled", name)
	}
	if strings.Contains(lower, "already disabled") {
		return fmt.Sprintf("Module '%s' is already disabled", name)
	}
	if strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist") {
		return fmt.Sprintf("Module '%s' not found", name)
	}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || bracketsOnly.MatchString(line) {
			continue
		}
		if len(line) > 100 {
			line = line[:100]
		}
		return line
	}
	return fmt.Sprintf("Error %sing module - see details", strings.TrimSuffix(action, "e"))
}

// FilterModules applies the name filter and the enabled/disabled toggles.
func FilterModules(mods []Module, needle string, enabledOnly, disabledOnly bool) []Module {
	needle = strings.ToLower(needle)
	out := make([]Module, 0, len(mods))
	for _, m := range mods {
		if enabledOnly && !m.Enabled {
			continue
		}
		if disabledOnly && m.Enabled {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(m.Name), needle) {
			continue
		}
		out = append(out, m)
	}
	return out
}
