package ui

import (
	"context"
	"time"

	"github.com/tidycode/magetui/internal/services"
)

// --- Collaborators ---

// CacheManager toggles and flushes cache types.
type CacheManager interface {
	List(ctx context.Context) ([]services.CacheType, error)
	Stats(ctx context.Context) (enabled, disabled int, err error)
	Toggle(ctx context.Context, id string) (bool, error)
	Enable(ctx context.Context, id string) error
	Disable(ctx context.Context, id string) error
	Flush(ctx context.Context, id string) error
	FlushAll(ctx context.Context) error
	EnableAll(ctx context.Context) error
	DisableAll(ctx context.Context) error
}

// ConfigStore lists resolved configuration and saves database values.
type ConfigStore interface {
	List(ctx context.Context) ([]services.ConfigEntry, error)
	Save(ctx context.Context, path, value, scope string, scopeID int) error
}

// LogMonitor lists, tails, filters and searches log files.
type LogMonitor interface {
	Dir() string
	Files() ([]services.LogFile, error)
	StartTail(name string, n int) error
	StopTail()
	IsTailing() bool
	Lines() []string
	ClearBuffer()
	AddInclude(pattern string)
	AddExclude(pattern string)
	Includes() []string
	Excludes() []string
	ClearFilters()
	Search(pattern string, limit int) ([]services.SearchResult, error)
}

// MaintenanceManager controls the maintenance flag and IP allow list.
type MaintenanceManager interface {
	IsEnabled() bool
	Status() services.MaintenanceStatus
	Toggle(ctx context.Context) (bool, error)
	AddIP(ctx context.Context, ip string) error
	RemoveIP(ctx context.Context, ip string) error
	ClearIPs(ctx context.Context) error
}

// IndexerManager lists indexers and runs reindexes in the background.
type IndexerManager interface {
	List(ctx context.Context) ([]services.Indexer, error)
	Reindex(ctx context.Context, id string) error
	ReindexAll(ctx context.Context) error
	IsReindexing() bool
	Output() string
	ClearOutput()
	Invalidate(ctx context.Context, id string) error
	SetMode(ctx context.Context, id string, scheduled bool) error
}

// DeployManager reports deploy state and runs deploy operations.
type DeployManager interface {
	Mode(ctx context.Context) string
	Status(ctx context.Context) services.DeployStatus
	Operations() []services.Operation
	Execute(ctx context.Context, op services.Operation) error
	IsExecuting() bool
	Current() string
	Output() string
	ClearOutput()
	ToggleMaintenance(ctx context.Context) (bool, error)
}

// ModuleManager lists and toggles modules.
type ModuleManager interface {
	List(ctx context.Context) ([]services.Module, error)
	Enable(ctx context.Context, name string) services.ToggleResult
	Disable(ctx context.Context, name string) services.ToggleResult
	Hosting() string
}

// URLManager lists and updates store base URLs.
type URLManager interface {
	List(ctx context.Context) ([]services.StoreURL, error)
	Update(ctx context.Context, storeID int, base, secure string) services.URLResult
}

// DatabaseManager runs dumps and restores in the background.
type DatabaseManager interface {
	Info() services.DBInfo
	BackupDir() string
	DumpPath(now time.Time) string
	Backups() ([]services.Backup, error)
	StartDump(ctx context.Context, path string) error
	StartRestore(ctx context.Context, path string) error
	IsProcessing() bool
	Operation() string
	Output() string
	LastExit() int
	Clear()
}

// StatsProvider collects read-only snapshots.
type StatsProvider interface {
	Snapshot(ctx context.Context) services.StatsSnapshot
	Dashboard(ctx context.Context) services.Dashboard
}

// HostMonitor samples CPU and memory for the main menu footer.
type HostMonitor interface {
	Sample() services.HostMetrics
}

// --- Context ---

// Context is the dependency bundle passed to every screen call. Screens
// never keep a reference to it between calls.
type Context struct {
	Ctx         context.Context
	Cache       CacheManager
	Config      ConfigStore
	Logs        LogMonitor
	Maintenance MaintenanceManager
	Indexer     IndexerManager
	Deploy      DeployManager
	Modules     ModuleManager
	URLs        URLManager
	Database    DatabaseManager
	Stats       StatsProvider
	System      HostMonitor

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// NewContext wires a Context to the concrete services.
func NewContext(ctx context.Context, reg *services.Registry) *Context {
	return &Context{
		Ctx:         ctx,
		Cache:       reg.Cache,
		Config:      reg.Config,
		Logs:        reg.Logs,
		Maintenance: reg.Maintenance,
		Indexer:     reg.Indexer,
		Deploy:      reg.Deploy,
		Modules:     reg.Modules,
		URLs:        reg.URLs,
		Database:    reg.Database,
		Stats:       reg.Stats,
		System:      reg.System,
	}
}

func (c *Context) ctx() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

func (c *Context) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
