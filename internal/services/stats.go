package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/tidycode/magetui/internal/history"
	"github.com/tidycode/magetui/internal/magento"
)

// systemTTL keeps php and bin/magento probes from running on every refresh.
const systemTTL = time.Minute

// InfoRow is one label/value line of a statistics table.
type InfoRow struct {
	Label string
	Value string
}

// SystemInfo describes the PHP runtime and the Magento release.
type SystemInfo struct {
	PHPVersion       string
	MagentoVersion   string
	OS               string
	MemoryLimit      string
	MaxExecutionTime string
	Extensions       int
}

func (i SystemInfo) Rows() []InfoRow {
	return []InfoRow{
		{"PHP Version", orNA(i.PHPVersion)},
		{"Magento Version", orNA(i.MagentoVersion)},
		{"Operating System", orNA(i.OS)},
		{"Memory Limit", orNA(i.MemoryLimit)},
		{"Max Execution Time", orNA(i.MaxExecutionTime)},
		{"PHP Extensions", strconv.Itoa(i.Extensions)},
	}
}

// DBStats summarises information_schema for the installation schema.
type DBStats struct {
	Name      string
	Host      string
	Tables    int
	TotalSize uint64
	DataSize  uint64
	IndexSize uint64
}

func (d DBStats) Rows() []InfoRow {
	return []InfoRow{
		{"Database Name", orNA(d.Name)},
		{"Host", orNA(d.Host)},
		{"Table Count", strconv.Itoa(d.Tables)},
		{"Total Size", humanize.IBytes(d.TotalSize)},
		{"Data Size", humanize.IBytes(d.DataSize)},
		{"Index Size", humanize.IBytes(d.IndexSize)},
	}
}

// VendorCount is the number of modules shipped by one vendor prefix.
type VendorCount struct {
	Vendor string
	Count  int
}

// ModuleStats aggregates config.php modules.
type ModuleStats struct {
	Total   int
	Enabled int
	Vendors []VendorCount
	Custom  []Module
}

func (m ModuleStats) Rows() []InfoRow {
	rows := []InfoRow{
		{"Total Modules", strconv.Itoa(m.Total)},
		{"Enabled Modules", strconv.Itoa(m.Enabled)},
		{"Custom Modules", strconv.Itoa(len(m.Custom))},
	}
	for i, v := range m.Vendors {
		if i == 3 {
			break
		}
		rows = append(rows, InfoRow{"Vendor " + v.Vendor, strconv.Itoa(v.Count)})
	}
	return rows
}

// Performance holds MySQL server counters.
type Performance struct {
	Uptime  time.Duration
	Queries int64
}

// QueriesPerSecond averages Queries over Uptime.
func (p Performance) QueriesPerSecond() float64 {
	secs := p.Uptime.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(p.Queries) / secs
}

func (p Performance) Rows() []InfoRow {
	return []InfoRow{
		{"Server Uptime", FormatUptime(p.Uptime)},
		{"Total Queries", humanize.Comma(p.Queries)},
		{"Avg Queries/sec", fmt.Sprintf("%.2f", p.QueriesPerSecond())},
	}
}

// FormatUptime renders d as "1d 2h 3m", or "0m" below a minute.
func FormatUptime(d time.Duration) string {
	secs := int64(d.Seconds())
	days := secs / 86400
	hours := secs % 86400 / 3600
	mins := secs % 3600 / 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if mins > 0 {
		parts = append(parts, fmt.Sprintf("%dm", mins))
	}
	if len(parts) == 0 {
		return "0m"
	}
	return strings.Join(parts, " ")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// StatsSnapshot is everything the Stats screen shows.
type StatsSnapshot struct {
	System      SystemInfo
	Database    DBStats
	Modules     ModuleStats
	Performance Performance
	Recent      []history.Entry
	Err         error
}

// StatsService collects system, database and module statistics.
type StatsService struct {
	*base
	cacheSvc *CacheService
	modules  *ModuleService
	orders   *OrderStatsService
}

// SystemInfo asks php and bin/magento about the runtime. Probe failures
// leave fields empty.
func (s *StatsService) SystemInfo(ctx context.Context) SystemInfo {
	info, _ := cachedFor(s.cache, "stats:system", systemTTL, func() (SystemInfo, error) {
		var info SystemInfo
		if php, err := s.mage.PHPInfo(ctx); err == nil {
			info.PHPVersion = magento.Scalar(php["php_version"])
			info.OS = magento.Scalar(php["operating_system"])
			info.MemoryLimit = magento.Scalar(php["memory_limit"])
			info.MaxExecutionTime = magento.Scalar(php["max_execution_time"])
			info.Extensions, _ = strconv.Atoi(magento.Scalar(php["extensions"]))
		}
		if out, err := s.mage.Run(ctx, "--version"); err == nil {
			info.MagentoVersion = ParseMagentoVersion(out)
		}
		return info, nil
	})
	return info
}

// ParseMagentoVersion extracts the release from `bin/magento --version`,
// e.g. "Magento CLI 2.4.7-p1".
func ParseMagentoVersion(out string) string {
	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// DatabaseStats reads table count and sizes from information_schema.
func (s *StatsService) DatabaseStats(ctx context.Context) (DBStats, error) {
	stats := DBStats{Name: s.conn.Name, Host: s.conn.Host}
	if err := s.requireDB(); err != nil {
		return stats, err
	}
	return cached(s.cache, "stats:database", func() (DBStats, error) {
		var total, data, index sql.NullInt64
		err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), SUM(data_length + index_length), SUM(data_length), SUM(index_length)
			FROM information_schema.TABLES WHERE table_schema = ?`, s.conn.Name).
			Scan(&stats.Tables, &total, &data, &index)
		if err != nil {
			return stats, fmt.Errorf("query database size: %w", err)
		}
		stats.TotalSize = uint64(total.Int64)
		stats.DataSize = uint64(data.Int64)
		stats.IndexSize = uint64(index.Int64)
		return stats, nil
	})
}

// ModuleStats counts modules and groups them by vendor.
func (s *StatsService) ModuleStats(ctx context.Context) (ModuleStats, error) {
	mods, err := s.modules.List(ctx)
	if err != nil {
		return ModuleStats{}, err
	}
	return AggregateModules(mods), nil
}

// AggregateModules builds ModuleStats from a module list. Vendors are sorted
// by count, then name, and capped at ten.
func AggregateModules(mods []Module) ModuleStats {
	st := ModuleStats{Total: len(mods)}
	counts := map[string]int{}
	for _, m := range mods {
		if m.Enabled {
			st.Enabled++
		}
		vendor, _, _ := strings.Cut(m.Name, "_")
		counts[vendor]++
		if vendor != "Magento" {
			st.Custom = append(st.Custom, m)
		}
	}
	for v, n := range counts {
		st.Vendors = append(st.Vendors, VendorCount{Vendor: v, Count: n})
	}
	sort.Slice(st.Vendors, func(i, j int) bool {
		if st.Vendors[i].Count != st.Vendors[j].Count {
			return st.Vendors[i].Count > st.Vendors[j].Count
		}
		return st.Vendors[i].Vendor < st.Vendors[j].Vendor
	})
	if len(st.Vendors) > 10 {
		st.Vendors = st.Vendors[:10]
	}
	return st
}

// Performance reads the Uptime and Queries server counters.
func (s *StatsService) Performance(ctx context.Context) (Performance, error) {
	if err := s.requireDB(); err != nil {
		return Performance{}, err
	}
	var p Performance
	uptime, err := s.status(ctx, "Uptime")
	if err != nil {
		return p, err
	}
	p.Uptime = time.Duration(uptime) * time.Second
	p.Queries, err = s.status(ctx, "Queries")
	return p, err
}

func (s *StatsService) status(ctx context.Context, name string) (int64, error) {
	var key, value string
	err := s.db.QueryRowContext(ctx, "SHOW GLOBAL STATUS LIKE ?", name).Scan(&key, &value)
	if err != nil {
		return 0, fmt.Errorf("show status %s: %w", name, err)
	}
	return strconv.ParseInt(value, 10, 64)
}

// Snapshot collects every statistic concurrently. Sections that fail keep
// their zero value and contribute to Err.
func (s *StatsService) Snapshot(ctx context.Context) StatsSnapshot {
	var (
		snap StatsSnapshot
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	note := func(err error) {
		if err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}
	g.SetLimit(4)
	g.Go(func() error {
		snap.System = s.SystemInfo(ctx)
		return nil
	})
	g.Go(func() error {
		var err error
		snap.Database, err = s.DatabaseStats(ctx)
		note(err)
		return nil
	})
	g.Go(func() error {
		var err error
		snap.Modules, err = s.ModuleStats(ctx)
		note(err)
		return nil
	})
	g.Go(func() error {
		var err error
		snap.Performance, err = s.Performance(ctx)
		if !errors.Is(err, ErrNoDatabase) {
			note(err)
		}
		return nil
	})
	_ = g.Wait()

	recent, err := s.journal.Recent(ctx, 5)
	note(err)
	snap.Recent = recent
	snap.Err = errors.Join(errs...)
	return snap
}

// CacheSummary counts enabled cache types for the dashboard.
type CacheSummary struct {
	Enabled int
	Total   int
}

// Dashboard is the live dashboard payload.
type Dashboard struct {
	System   SystemInfo
	Database DBStats
	Cache    CacheSummary
	Orders   OrderDashboard
	LoadedAt time.Time
	Err      error
}

// Dashboard gathers system, database, cache and order figures concurrently.
func (s *StatsService) Dashboard(ctx context.Context) Dashboard {
	var d Dashboard
	var dbErr, cacheErr error
	var g errgroup.Group
	g.Go(func() error {
		d.System = s.SystemInfo(ctx)
		return nil
	})
	g.Go(func() error {
		d.Database, dbErr = s.DatabaseStats(ctx)
		return nil
	})
	g.Go(func() error {
		enabled, disabled, err := s.cacheSvc.Stats(ctx)
		d.Cache = CacheSummary{Enabled: enabled, Total: enabled + disabled}
		cacheErr = err
		return nil
	})
	g.Go(func() error {
		d.Orders = s.orders.Dashboard(ctx)
		return nil
	})
	_ = g.Wait()

	d.LoadedAt = time.Now()
	d.Err = errors.Join(dbErr, cacheErr, d.Orders.Err)
	return d
}

// cachedFor is cached with an explicit expiry.
func cachedFor[T any](c *gocache.Cache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
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
		c.Set(key, v, ttl)
	}
	return v, nil
}
