package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/tidycode/magetui/internal/input"
	"github.com/tidycode/magetui/internal/services"
)

// --- Collaborator Fakes ---

type fakeCache struct {
	types      []services.CacheType
	flushed    []string
	flushedAll int
	failAll    error
}

func newFakeCache(ids ...string) *fakeCache {
	f := &fakeCache{}
	for _, id := range ids {
		f.types = append(f.types, services.CacheType{ID: id, Enabled: true})
	}
	return f
}

func (f *fakeCache) List(context.Context) ([]services.CacheType, error) {
	out := make([]services.CacheType, len(f.types))
	copy(out, f.types)
	return out, nil
}

func (f *fakeCache) Stats(context.Context) (int, int, error) {
	on := 0
	for _, t := range f.types {
		if t.Enabled {
			on++
		}
	}
	return on, len(f.types) - on, nil
}

func (f *fakeCache) set(id string, on bool) error {
	for i := range f.types {
		if f.types[i].ID == id {
			f.types[i].Enabled = on
			return nil
		}
	}
	return services.ErrNotFound
}

func (f *fakeCache) Toggle(_ context.Context, id string) (bool, error) {
	for _, t := range f.types {
		if t.ID == id {
			return !t.Enabled, f.set(id, !t.Enabled)
		}
	}
	return false, services.ErrNotFound
}

func (f *fakeCache) Enable(_ context.Context, id string) error { return f.set(id, true) }
func (f *fakeCache) Disable(_ context.Context, id string) error { return f.set(id, false) }

func (f *fakeCache) Flush(_ context.Context, id string) error {
	f.flushed = append(f.flushed, id)
	return nil
}

func (f *fakeCache) FlushAll(context.Context) error {
	if f.failAll != nil {
		return f.failAll
	}
	f.flushedAll++
	return nil
}

func (f *fakeCache) all(on bool) error {
	if f.failAll != nil {
		return f.failAll
	}
	for i := range f.types {
		f.types[i].Enabled = on
	}
	return nil
}

func (f *fakeCache) EnableAll(context.Context) error { return f.all(true) }
func (f *fakeCache) DisableAll(context.Context) error { return f.all(false) }

type savedConfig struct {
	Path, Value, Scope string
	ScopeID            int
}

type fakeConfig struct {
	entries []services.ConfigEntry
	saves   []savedConfig
	err     error
}

func (f *fakeConfig) List(context.Context) ([]services.ConfigEntry, error) {
	return f.entries, f.err
}

func (f *fakeConfig) Save(_ context.Context, path, value, scope string, scopeID int) error {
	f.saves = append(f.saves, savedConfig{path, value, scope, scopeID})
	for i := range f.entries {
		if f.entries[i].Path == path {
			f.entries[i].Value = value
		}
	}
	return nil
}

type fakeLogs struct {
	dir      string
	files    []services.LogFile
	tailing  bool
	tailed   string
	lines    []string
	includes []string
	excludes []string
	results  []services.SearchResult
	searched string
}

func (f *fakeLogs) Dir() string { return f.dir }
func (f *fakeLogs) Files() ([]services.LogFile, error) { return f.files, nil }
func (f *fakeLogs) StopTail() { f.tailing = false }
func (f *fakeLogs) IsTailing() bool { return f.tailing }
func (f *fakeLogs) ClearBuffer() { f.lines = nil }
func (f *fakeLogs) AddInclude(p string) { f.includes = append(f.includes, p) }
func (f *fakeLogs) AddExclude(p string) { f.excludes = append(f.excludes, p) }
func (f *fakeLogs) Includes() []string { return f.includes }
func (f *fakeLogs) Excludes() []string { return f.excludes }
func (f *fakeLogs) ClearFilters() { f.includes, f.excludes = nil, nil }
func (f *fakeLogs) Lines() []string { return services.ApplyFilters(f.lines, f.includes, f.excludes) }
func (f *fakeLogs) StartTail(name string, _ int) error {
	f.tailing, f.tailed = true, name
	return nil
}
func (f *fakeLogs) Search(p string, _ int) ([]services.SearchResult, error) {
	f.searched = p
	return f.results, nil
}

type fakeMaintenance struct {
	enabled bool
	ips     []string
	current string
}

func (f *fakeMaintenance) IsEnabled() bool { return f.enabled }

func (f *fakeMaintenance) Status() services.MaintenanceStatus {
	return services.MaintenanceStatus{Enabled: f.enabled, AllowedIP: append([]string(nil), f.ips...), CurrentIP: f.current}
}

func (f *fakeMaintenance) Toggle(context.Context) (bool, error) {
	f.enabled = !f.enabled
	return f.enabled, nil
}

func (f *fakeMaintenance) AddIP(_ context.Context, ip string) error {
	if !services.ValidIP(ip) {
		return services.ErrInvalidIP
	}
	f.ips = append(f.ips, ip)
	return nil
}

func (f *fakeMaintenance) RemoveIP(_ context.Context, ip string) error {
	for i, v := range f.ips {
		if v == ip {
			f.ips = append(f.ips[:i], f.ips[i+1:]...)
			return nil
		}
	}
	return services.ErrNotFound
}

func (f *fakeMaintenance) ClearIPs(context.Context) error {
	f.ips = nil
	return nil
}

type fakeIndexer struct {
	list      []services.Indexer
	busy      bool
	output    string
	reindexed []string
	modes     map[string]bool
}

func (f *fakeIndexer) List(context.Context) ([]services.Indexer, error) { return f.list, nil }
func (f *fakeIndexer) IsReindexing() bool { return f.busy }
func (f *fakeIndexer) Output() string { return f.output }
func (f *fakeIndexer) ClearOutput() { f.output = "" }

func (f *fakeIndexer) Reindex(_ context.Context, id string) error {
	f.reindexed = append(f.reindexed, id)
	f.busy = true
	return nil
}

func (f *fakeIndexer) ReindexAll(context.Context) error {
	f.reindexed = append(f.reindexed, "*")
	f.busy = true
	return nil
}

func (f *fakeIndexer) Invalidate(_ context.Context, id string) error {
	for i := range f.list {
		if f.list[i].ID == id {
			f.list[i].Status = services.IndexInvalid
		}
	}
	return nil
}

func (f *fakeIndexer) SetMode(_ context.Context, id string, scheduled bool) error {
	if f.modes == nil {
		f.modes = map[string]bool{}
	}
	f.modes[id] = scheduled
	for i := range f.list {
		if f.list[i].ID == id {
			f.list[i].Scheduled = scheduled
		}
	}
	return nil
}

type fakeDeploy struct {
	mode     string
	status   services.DeployStatus
	ops      []services.Operation
	running  bool
	current  string
	output   string
	executed []string
	toggled  int
}

func (f *fakeDeploy) Mode(context.Context) string { return f.mode }
func (f *fakeDeploy) Status(context.Context) services.DeployStatus {
	st := f.status
	st.Mode = f.mode
	return st
}
func (f *fakeDeploy) Operations() []services.Operation { return f.ops }
func (f *fakeDeploy) IsExecuting() bool { return f.running }
func (f *fakeDeploy) Current() string { return f.current }
func (f *fakeDeploy) Output() string { return f.output }
func (f *fakeDeploy) ClearOutput() { f.output = "" }

func (f *fakeDeploy) Execute(_ context.Context, op services.Operation) error {
	f.executed = append(f.executed, op.ID)
	f.running, f.current = true, op.Title
	return nil
}

func (f *fakeDeploy) ToggleMaintenance(context.Context) (bool, error) {
	f.toggled++
	f.status.Maintenance = !f.status.Maintenance
	return f.status.Maintenance, nil
}

type fakeModules struct {
	mods    []services.Module
	hosting string
	fail    *services.ToggleResult
	calls   []string
}

func (f *fakeModules) List(context.Context) ([]services.Module, error) {
	out := make([]services.Module, len(f.mods))
	copy(out, f.mods)
	return out, nil
}

func (f *fakeModules) Hosting() string { return f.hosting }

func (f *fakeModules) toggle(name string, on bool) services.ToggleResult {
	f.calls = append(f.calls, name)
	if f.fail != nil {
		return *f.fail
	}
	for i := range f.mods {
		if f.mods[i].Name == name {
			f.mods[i].Enabled = on
		}
	}
	return services.ToggleResult{Success: true, Message: "Module " + name + " updated"}
}

func (f *fakeModules) Enable(_ context.Context, name string) services.ToggleResult {
	return f.toggle(name, true)
}

func (f *fakeModules) Disable(_ context.Context, name string) services.ToggleResult {
	return f.toggle(name, false)
}

type urlUpdate struct {
	StoreID      int
	Base, Secure string
}

type fakeURLs struct {
	stores  []services.StoreURL
	updates []urlUpdate
}

func (f *fakeURLs) List(context.Context) ([]services.StoreURL, error) { return f.stores, nil }

func (f *fakeURLs) Update(_ context.Context, storeID int, base, secure string) services.URLResult {
	if !services.ValidURL(base) {
		return services.URLResult{Message: "Invalid base URL format"}
	}
	f.updates = append(f.updates, urlUpdate{storeID, base, secure})
	return services.URLResult{Success: true, Message: "URLs updated successfully"}
}

type fakeDatabase struct {
	info       services.DBInfo
	backups    []services.Backup
	processing bool
	op         string
	output     string
	dumps      []string
	restores   []string
}

func (f *fakeDatabase) Info() services.DBInfo { return f.info }
func (f *fakeDatabase) BackupDir() string { return "/srv/magento/var/backups" }
func (f *fakeDatabase) DumpPath(now time.Time) string {
	return f.BackupDir() + "/db_backup_" + now.Format("2006-01-02_15-04-05") + ".sql.gz"
}
func (f *fakeDatabase) Backups() ([]services.Backup, error) { return f.backups, nil }
func (f *fakeDatabase) IsProcessing() bool { return f.processing }
func (f *fakeDatabase) Operation() string { return f.op }
func (f *fakeDatabase) Output() string { return f.output }
func (f *fakeDatabase) LastExit() int { return 0 }
func (f *fakeDatabase) Clear() { f.output, f.op = "", "" }

func (f *fakeDatabase) StartDump(_ context.Context, path string) error {
	f.dumps = append(f.dumps, path)
	return nil
}

func (f *fakeDatabase) StartRestore(_ context.Context, path string) error {
	f.restores = append(f.restores, path)
	return nil
}

type fakeStats struct {
	snapshots  int
	dashboards int
	snap       services.StatsSnapshot
	dash       services.Dashboard
}

func (f *fakeStats) Snapshot(context.Context) services.StatsSnapshot {
	f.snapshots++
	return f.snap
}

func (f *fakeStats) Dashboard(context.Context) services.Dashboard {
	f.dashboards++
	return f.dash
}

type fakeHost struct{ m services.HostMetrics }

func (f fakeHost) Sample() services.HostMetrics { return f.m }

// --- Helpers ---

var errBoom = errors.New("boom")

var testNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

// fakes bundles every collaborator so tests can reach the concrete fake.
type fakes struct {
	cache       *fakeCache
	config      *fakeConfig
	logs        *fakeLogs
	maintenance *fakeMaintenance
	indexer     *fakeIndexer
	deploy      *fakeDeploy
	modules     *fakeModules
	urls        *fakeURLs
	database    *fakeDatabase
	stats       *fakeStats
}

func newTestContext() (*Context, *fakes) {
	f := &fakes{
		cache:       newFakeCache(),
		config:      &fakeConfig{},
		logs:        &fakeLogs{dir: "/srv/magento/var/log"},
		maintenance: &fakeMaintenance{current: "Unknown"},
		indexer:     &fakeIndexer{},
		deploy:      &fakeDeploy{mode: "production"},
		modules:     &fakeModules{hosting: "Tidycode_TUI"},
		urls:        &fakeURLs{},
		database:    &fakeDatabase{},
		stats:       &fakeStats{},
	}
	now := testNow
	c := &Context{
		Ctx:         context.Background(),
		Cache:       f.cache,
		Config:      f.config,
		Logs:        f.logs,
		Maintenance: f.maintenance,
		Indexer:     f.indexer,
		Deploy:      f.deploy,
		Modules:     f.modules,
		URLs:        f.urls,
		Database:    f.database,
		Stats:       f.stats,
		System:      fakeHost{m: services.HostMetrics{CPUPercent: 12.5, MemTotal: 8 << 30, MemUsed: 2 << 30}},
		Now:         func() time.Time { return now },
	}
	return c, f
}

// press feeds keys to a screen and returns the last navigation result.
func press(s Screen, c *Context, keys ...input.Key) ScreenID {
	var next ScreenID
	for _, k := range keys {
		next = s.HandleInput(k, c)
	}
	return next
}

// typeText turns s into rune keys.
func typeText(s string) []input.Key {
	keys := make([]input.Key, 0, len(s))
	for _, r := range s {
		keys = append(keys, input.Rune(r))
	}
	return keys
}

var (
	keyUp    = input.KeyOf(input.RawUp)
	keyDown  = input.KeyOf(input.RawDown)
	keyEnter = input.KeyOf(input.RawEnter)
	keyEsc   = input.KeyOf(input.RawEscape)
	keyBack  = input.KeyOf(input.RawBack)
	keyPgUp  = input.KeyOf(input.RawPageUp)
	keyPgDn  = input.KeyOf(input.RawPageDown)
)

// plain strips ANSI styling so assertions can match rendered text.
func plain(s string) string {
	return ansi.Strip(s)
}

func lines(s string) []string {
	return strings.Split(plain(s), "\n")
}
