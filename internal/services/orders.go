package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Order sizes shown on the dashboard.
const (
	RecentOrdersLimit = 10
	TopProductsLimit  = 5
	onlineWindow      = 5 * time.Minute
	sqlDateTime       = "2006-01-02 15:04:05"
)

// PeriodStats aggregates non-canceled orders in a time range.
type PeriodStats struct {
	Orders  int
	Revenue float64
	Average float64
}

// CatalogStats counts products.
type CatalogStats struct {
	Total   int
	Enabled int
}

func (c CatalogStats) Disabled() int { return c.Total - c.Enabled }

// CustomerStats counts customer accounts.
type CustomerStats struct {
	Total        int
	NewThisMonth int
}

// RecentOrder is one row of the recent orders table.
type RecentOrder struct {
	IncrementID string
	Status      string
	GrandTotal  float64
	CreatedAt   time.Time
}

// TopProduct is a best seller over the last 30 days.
type TopProduct struct {
	Name    string
	Qty     float64
	Revenue float64
}

// OrderDashboard holds the sales side of the live dashboard.
type OrderDashboard struct {
	Today       PeriodStats
	Catalog     CatalogStats
	Customers   CustomerStats
	Recent      []RecentOrder
	Top         []TopProduct
	Online      int
	TotalOrders int
	Err         error
}

// OrderStatsService queries sales, catalog and customer tables.
type OrderStatsService struct {
	*base
	now func() time.Time
}

func (s *OrderStatsService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

// DayRange returns the first and last second of t's day as SQL datetimes.
func DayRange(t time.Time) (string, string) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start.Format(sqlDateTime), start.Add(24*time.Hour - time.Second).Format(sqlDateTime)
}

// MonthStart is midnight on the first of t's month as an SQL datetime.
func MonthStart(t time.Time) string {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).Format(sqlDateTime)
}

// Today aggregates today's non-canceled orders.
func (s *OrderStatsService) Today(ctx context.Context) (PeriodStats, error) {
	if err := s.requireDB(); err != nil {
		return PeriodStats{}, err
	}
	from, to := DayRange(s.clock())
	var p PeriodStats
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*), COALESCE(SUM(grand_total), 0), COALESCE(AVG(grand_total), 0)
		FROM %s WHERE created_at BETWEEN ? AND ? AND status != 'canceled'`, s.table("sales_order")), from, to).
		Scan(&p.Orders, &p.Revenue, &p.Average)
	if err != nil {
		return p, fmt.Errorf("query today's orders: %w", err)
	}
	return p, nil
}

// Catalog counts products and those enabled at the default store.
func (s *OrderStatsService) Catalog(ctx context.Context) (CatalogStats, error) {
	if err := s.requireDB(); err != nil {
		return CatalogStats{}, err
	}
	var c CatalogStats
	if err := s.count(ctx, &c.Total, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table("catalog_product_entity"))); err != nil {
		return c, fmt.Errorf("count products: %w", err)
	}
	q := fmt.Sprintf(`SELECT COUNT(DISTINCT i.entity_id) FROM %s i
		JOIN %s a ON a.attribute_id = i.attribute_id AND a.attribute_code = 'status'
		JOIN %s t ON t.entity_type_id = a.entity_type_id AND t.entity_type_code = 'catalog_product'
		WHERE i.store_id = 0 AND i.value = 1`,
		s.table("catalog_product_entity_int"), s.table("eav_attribute"), s.table("eav_entity_type"))
	if err := s.count(ctx, &c.Enabled, q); err != nil {
		return c, fmt.Errorf("count enabled products: %w", err)
	}
	return c, nil
}

// Customers counts accounts and those created this month.
func (s *OrderStatsService) Customers(ctx context.Context) (CustomerStats, error) {
	if err := s.requireDB(); err != nil {
		return CustomerStats{}, err
	}
	var c CustomerStats
	table := s.table("customer_entity")
	if err := s.count(ctx, &c.Total, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)); err != nil {
		return c, fmt.Errorf("count customers: %w", err)
	}
	if err := s.count(ctx, &c.NewThisMonth, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE created_at >= ?", table), MonthStart(s.clock())); err != nil {
		return c, fmt.Errorf("count new customers: %w", err)
	}
	return c, nil
}

// RecentOrders returns the newest orders.
func (s *OrderStatsService) RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error) {
	if err := s.requireDB(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT increment_id, status, grand_total, created_at FROM %s ORDER BY created_at DESC LIMIT ?",
		s.table("sales_order")), limit)
	if err != nil {
		return nil, fmt.Errorf("query recent orders: %w", err)
	}
	defer rows.Close()

	var out []RecentOrder
	for rows.Next() {
		var o RecentOrder
		var id, status sql.NullString
		var total sql.NullFloat64
		var created sql.NullTime
		if err := rows.Scan(&id, &status, &total, &created); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.IncrementID, o.Status, o.GrandTotal, o.CreatedAt = id.String, status.String, total.Float64, created.Time
		out = append(out, o)
	}
	return out, rows.Err()
}

// TopProducts ranks simple and parent items by quantity over 30 days.
func (s *OrderStatsService) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	if err := s.requireDB(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT name, SUM(qty_ordered) AS qty, SUM(row_total)
		FROM %s WHERE parent_item_id IS NULL AND created_at >= ?
		GROUP BY sku, name ORDER BY qty DESC LIMIT ?`, s.table("sales_order_item")),
		s.clock().AddDate(0, 0, -30).Format(sqlDateTime), limit)
	if err != nil {
		return nil, fmt.Errorf("query top products: %w", err)
	}
	defer rows.Close()

	var out []TopProduct
	for rows.Next() {
		var p TopProduct
		var name sql.NullString
		var qty, revenue sql.NullFloat64
		if err := rows.Scan(&name, &qty, &revenue); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.Name, p.Qty, p.Revenue = name.String, qty.Float64, revenue.Float64
		out = append(out, p)
	}
	return out, rows.Err()
}

// OnlineCustomers counts visitors seen in the last five minutes. Missing
// visitor tables count as zero.
func (s *OrderStatsService) OnlineCustomers(ctx context.Context) int {
	if s.db == nil {
		return 0
	}
	var n int
	since := s.clock().Add(-onlineWindow).Format(sqlDateTime)
	q := fmt.Sprintf("SELECT COUNT(DISTINCT visitor_id) FROM %s WHERE last_visit_at >= ?", s.table("customer_visitor"))
	if err := s.count(ctx, &n, q, since); err != nil {
		return 0
	}
	return n
}

// TotalOrders counts every order ever placed.
func (s *OrderStatsService) TotalOrders(ctx context.Context) (int, error) {
	if err := s.requireDB(); err != nil {
		return 0, err
	}
	var n int
	if err := s.count(ctx, &n, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table("sales_order"))); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (s *OrderStatsService) count(ctx context.Context, dst *int, q string, args ...any) error {
	return s.db.QueryRowContext(ctx, q, args...).Scan(dst)
}

// Dashboard runs every dashboard query concurrently. Without a database it
// returns zero values and ErrNoDatabase.
func (s *OrderStatsService) Dashboard(ctx context.Context) OrderDashboard {
	var d OrderDashboard
	if err := s.requireDB(); err != nil {
		d.Err = err
		return d
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	note := func(err error) {
		if err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}
	g.SetLimit(3)
	run := func(f func() error) {
		g.Go(func() error {
			note(f())
			return nil
		})
	}
	run(func() (err error) {
		d.Today, err = s.Today(ctx)
		return err
	})
	run(func() (err error) {
		d.Catalog, err = s.Catalog(ctx)
		return err
	})
	run(func() (err error) {
		d.Customers, err = s.Customers(ctx)
		return err
	})
	run(func() (err error) {
		d.Recent, err = s.RecentOrders(ctx, RecentOrdersLimit)
		return err
	})
	run(func() (err error) {
		d.Top, err = s.TopProducts(ctx, TopProductsLimit)
		return err
	})
	run(func() (err error) {
		d.TotalOrders, err = s.TotalOrders(ctx)
		return err
	})
	run(func() error {
		d.Online = s.OnlineCustomers(ctx)
		return nil
	})
	_ = g.Wait()

	d.Err = errors.Join(errs...)
	return d
}
