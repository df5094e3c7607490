package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/tidycode/magetui/internal/process"
)

// Indexer statuses as stored in indexer_state.
const (
	IndexValid   = "valid"
	IndexInvalid = "invalid"
	IndexWorking = "working"
)

// KnownIndexers is the fixed list the Index screen shows, in order.
var KnownIndexers = []string{
	"catalog_category_product",
	"catalog_product_category",
	"catalog_product_attribute",
	"catalog_product_price",
	"cataloginventory_stock",
	"inventory",
	"catalogrule_rule",
	"catalogrule_product",
	"catalogsearch_fulltext",
	"customer_grid",
	"design_config_grid",
}

var indexerTitles = map[string]string{
	"catalog_category_product":  "Category Products",
	"catalog_product_category":  "Product Categories",
	"catalog_product_attribute": "Product EAV",
	"catalog_product_price":     "Product Price",
	"cataloginventory_stock":    "Stock",
	"inventory":                 "Inventory",
	"catalogrule_rule":          "Catalog Rule Product",
	"catalogrule_product":       "Catalog Product Rule",
	"catalogsearch_fulltext":    "Catalog Search",
	"customer_grid":             "Customer Grid",
	"design_config_grid":        "Design Config Grid",
}

// Indexer is one row of the Index screen.
type Indexer struct {
	ID        string
	Title     string
	Status    string
	Updated   string
	Scheduled bool
}

// StatusText renders an indexer status for display.
func StatusText(status string) string {
	switch status {
	case IndexValid:
		return "Ready"
	case IndexInvalid:
		return "Reindex Required"
	case IndexWorking:
		return "Processing"
	}
	return "Unknown"
}

// ModeText renders the scheduling mode.
func (i Indexer) ModeText() string {
	if i.Scheduled {
		return "Update by Schedule"
	}
	return "Update on Save"
}

// IndexerCounts aggregates statuses and modes.
type IndexerCounts struct {
	Total, Valid, Invalid, Working, Scheduled, Realtime int
}

// CountIndexers tallies a list.
func CountIndexers(list []Indexer) IndexerCounts {
	c := IndexerCounts{Total: len(list)}
	for _, i := range list {
		switch i.Status {
		case IndexValid:
			c.Valid++
		case IndexInvalid:
			c.Invalid++
		case IndexWorking:
			c.Working++
		}
		if i.Scheduled {
			c.Scheduled++
		} else {
			c.Realtime++
		}
	}
	return c
}

// IndexerService reads indexer state and runs reindexes in the background.
type IndexerService struct {
	*base
	monitor *process.Monitor

	// wasBusy is the monitor state seen by the last poll.
	wasBusy atomic.Bool
}

// List returns the known indexers present in indexer_state.
func (s *IndexerService) List(ctx context.Context) ([]Indexer, error) {
	if err := s.requireDB(); err != nil {
		return cached(s.cache, "indexer:list", func() ([]Indexer, error) {
			out, err := s.mage.Run(ctx, "indexer:status")
			if err != nil {
				return nil, fmt.Errorf("indexer status: %w", err)
			}
			return ParseIndexerStatus(out), nil
		})
	}
	return cached(s.cache, "indexer:list", func() ([]Indexer, error) {
		states := map[string]Indexer{}
		rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
			"SELECT indexer_id, status, updated FROM %s", s.table("indexer_state")))
		if err != nil {
			return nil, fmt.Errorf("query indexer state: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var id, status string
			var updated sql.NullString
			if err := rows.Scan(&id, &status, &updated); err != nil {
				return nil, fmt.Errorf("scan indexer state: %w", err)
			}
			states[id] = Indexer{ID: id, Status: status, Updated: updated.String}
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("read indexer state: %w", err)
		}

		scheduled := s.scheduledViews(ctx)
		var list []Indexer
		for _, id := range KnownIndexers {
			st, ok := states[id]
			if !ok {
				continue
			}
			st.Title = indexerTitles[id]
			st.Scheduled = scheduled[id]
			list = append(list, st)
		}
		return list, nil
	})
}

func (s *IndexerService) scheduledViews(ctx context.Context) map[string]bool {
	out := map[string]bool{}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT view_id, mode FROM %s", s.table("mview_state")))
	if err != nil {
		return out
	}
	defer rows.Close()
	for rows.Next() {
		var view, mode string
		if rows.Scan(&view, &mode) == nil {
			out[view] = mode == "enabled"
		}
	}
	return out
}

// Reindex starts `indexer:reindex id` in the background.
func (s *IndexerService) Reindex(ctx context.Context, id string) error {
	err := s.monitor.Start(ctx, id, s.mage.Command("indexer:reindex", id))
	s.afterStart(ctx, "reindex", id, err)
	return err
}

// ReindexAll starts `indexer:reindex` for every indexer.
func (s *IndexerService) ReindexAll(ctx context.Context) error {
	err := s.monitor.Start(ctx, "all", s.mage.Command("indexer:reindex"))
	s.afterStart(ctx, "reindex_all", "", err)
	return err
}

func (s *IndexerService) afterStart(ctx context.Context, action, target string, err error) {
	s.cache.Delete("indexer:list")
	if err == nil {
		s.wasBusy.Store(true)
	}
	s.record(ctx, "indexer", action, target, err)
}

// IsReindexing polls the background reindex. The cached list is dropped
// once when a reindex finishes.
func (s *IndexerService) IsReindexing() bool {
	busy := s.monitor.IsBusy()
	if s.wasBusy.Swap(busy) && !busy {
		s.cache.Delete("indexer:list")
	}
	return busy
}

// Output returns everything the reindex printed.
func (s *IndexerService) Output() string { return s.monitor.Output() }

// ClearOutput drops the output and releases the process.
func (s *IndexerService) ClearOutput() { s.monitor.Clear() }

// Invalidate marks an indexer as requiring a reindex.
func (s *IndexerService) Invalidate(ctx context.Context, id string) error {
	_, err := s.mage.Run(ctx, "indexer:reset", id)
	s.cache.Delete("indexer:list")
	s.record(ctx, "indexer", "invalidate", id, err)
	if err != nil {
		return fmt.Errorf("invalidate %s: %w", id, err)
	}
	return nil
}

// SetMode switches an indexer between schedule and realtime.
func (s *IndexerService) SetMode(ctx context.Context, id string, scheduled bool) error {
	mode := "realtime"
	if scheduled {
		mode = "schedule"
	}
	_, err := s.mage.Run(ctx, "indexer:set-mode", mode, id)
	s.cache.Delete("indexer:list")
	s.record(ctx, "indexer", "set_mode", id+" "+mode, err)
	if err != nil {
		return fmt.Errorf("set mode %s: %w", id, err)
	}
	s.cleanConfig(ctx)
	return nil
}

// ParseIndexerStatus reads `bin/magento indexer:status` table output. It is
// used when the database is unreachable.
func ParseIndexerStatus(out string) []Indexer {
	var list []Indexer
	for _, line := range strings.Split(out, "\n") {
		cells := strings.Split(strings.Trim(strings.TrimSpace(line), "|"), "|")
		if len(cells) < 4 {
			continue
		}
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		id := cells[0]
		if _, ok := indexerTitles[id]; !ok {
			continue
		}
		ix := Indexer{ID: id, Title: indexerTitles[id]}
		switch strings.ToLower(cells[2]) {
		case "ready":
			ix.Status = IndexValid
		case "reindex required":
			ix.Status = IndexInvalid
		case "processing":
			ix.Status = IndexWorking
		}
		ix.Scheduled = strings.Contains(strings.ToLower(cells[3]), "schedule")
		list = append(list, ix)
	}
	return list
}
