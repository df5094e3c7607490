// Package services implements the Magento collaborators the terminal UI
// calls: cache, configuration, logs, maintenance, indexers, deployment,
// modules, URLs, database dumps and statistics.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/tidycode/magetui/internal/history"
	"github.com/tidycode/magetui/internal/logging"
	"github.com/tidycode/magetui/internal/magento"
	"github.com/tidycode/magetui/internal/process"
)

var (
	ErrBusy            = process.ErrBusy
	ErrNotFound        = errors.New("not found")
	ErrInvalidIP       = errors.New("invalid IP address")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrProtectedModule = errors.New("module is protected")
	ErrNoDatabase      = errors.New("database not configured")
)

// Magento is the slice of magento.Platform the services use.
type Magento interface {
	Run(ctx context.Context, args ...string) (string, error)
	Command(args ...string) process.Spec
	ReadPHPArray(ctx context.Context, rel string) (map[string]any, error)
	PHPInfo(ctx context.Context) (map[string]any, error)
	Path(rel ...string) string
}

// Deps wires the services to one installation.
type Deps struct {
	Magento       Magento
	Conn          magento.Connection
	DB            *sql.DB
	Journal       *history.Journal
	TTL           time.Duration
	LogDir        string
	BackupDir     string
	HostingModule string
}

// base carries what every service shares.
type base struct {
	mage    Magento
	conn    magento.Connection
	db      *sql.DB
	journal *history.Journal
	cache   *gocache.Cache
}

func (b *base) requireDB() error {
	if b.db == nil {
		return ErrNoDatabase
	}
	return nil
}

func (b *base) table(name string) string {
	return b.conn.Table(name)
}

// record journals a mutating action. Journal failures are logged only.
func (b *base) record(ctx context.Context, screen, action, target string, err error) {
	e := history.Entry{Screen: screen, Action: action, Target: target, Outcome: history.OutcomeOK}
	if err != nil {
		e.Outcome = history.OutcomeFailed
		e.Detail = err.Error()
	}
	if _, jerr := b.journal.Record(ctx, e); jerr != nil {
		logging.Error("history", jerr, "record %s/%s", screen, action)
	}
}

// env returns the decoded app/etc/env.php.
func (b *base) env(ctx context.Context) (map[string]any, error) {
	return cached(b.cache, "file:env.php", func() (map[string]any, error) {
		return b.mage.ReadPHPArray(ctx, "app/etc/env.php")
	})
}

// appConfig returns the decoded app/etc/config.php.
func (b *base) appConfig(ctx context.Context) (map[string]any, error) {
	return cached(b.cache, "file:config.php", func() (map[string]any, error) {
		return b.mage.ReadPHPArray(ctx, "app/etc/config.php")
	})
}

// cached returns the value under key or loads and stores it. Errors are not
// cached.
func cached[T any](c *gocache.Cache, key string, load func() (T, error)) (T, error) {
	if c != nil {
		if v, ok := c.Get(key); ok {
			if t, ok := v.(T); ok {
				return t, nil
			}
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if c != nil {
		c.SetDefault(key, v)
	}
	return v, nil
}

// Registry holds one instance of every service.
type Registry struct {
	Cache       *CacheService
	Config      *ConfigService
	Logs        *LogService
	Maintenance *MaintenanceService
	Indexer     *IndexerService
	Deploy      *DeployService
	Modules     *ModuleService
	URLs        *URLService
	Database    *DatabaseService
	Stats       *StatsService
	Orders      *OrderStatsService
	System      *SystemMetrics
	Journal     *history.Journal
}

// New builds the registry. A nil DB leaves the DB-backed reads failing with
// ErrNoDatabase while file and command based features keep working.
func New(d Deps) *Registry {
	ttl := d.TTL
	if ttl <= 0 {
		ttl = 2 * time.Second
	}
	b := &base{
		mage:    d.Magento,
		conn:    d.Conn,
		db:      d.DB,
		journal: d.Journal,
		cache:   gocache.New(ttl, 2*ttl),
	}

	maint := NewMaintenanceService(d.Magento.Path("var"), b)
	cacheSvc := &CacheService{base: b}
	modules := &ModuleService{base: b, hosting: d.HostingModule}
	orders := &OrderStatsService{base: b}
	return &Registry{
		Cache:       cacheSvc,
		Config:      &ConfigService{base: b},
		Logs:        NewLogService(d.LogDir),
		Maintenance: maint,
		Indexer:     &IndexerService{base: b, monitor: process.NewMonitor()},
		Deploy:      &DeployService{base: b, monitor: process.NewMonitor(), maintenance: maint},
		Modules:     modules,
		URLs:        &URLService{base: b},
		Database:    &DatabaseService{base: b, monitor: process.NewMonitor(), backupDir: d.BackupDir},
		Stats:       &StatsService{base: b, cacheSvc: cacheSvc, modules: modules, orders: orders},
		Orders:      orders,
		System:      NewSystemMetrics("/proc"),
		Journal:     d.Journal,
	}
}
