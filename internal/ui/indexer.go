package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/tidycode/magetui/internal/input"
	"github.com/tidycode/magetui/internal/logging"
	"github.com/tidycode/magetui/internal/services"
	"github.com/tidycode/magetui/internal/ui/components"
)

const indexerOutputLines = 8

var indexerKeys = struct {
	Reindex, ReindexAll, Mode, Invalidate, ClearOutput key.Binding
}{
	Reindex:     binding("r", "reindex", "r", "R"),
	ReindexAll:  binding("a", "reindex all", "a", "A"),
	Mode:        binding("s", "switch mode", "s", "S"),
	Invalidate:  binding("i", "invalidate", "i", "I"),
	ClearOutput: binding("c", "clear output", "c", "C"),
}

// IndexerScreen lists indexers and runs reindexes in the background.
type IndexerScreen struct {
	list     *components.List
	indexers []services.Indexer
	counts   services.IndexerCounts
	loaded   bool
	msg      string
}

func NewIndexerScreen() *IndexerScreen {
	return &IndexerScreen{list: components.NewList(20)}
}

func (s *IndexerScreen) load(c *Context) {
	list, err := c.Indexer.List(c.ctx())
	if err != nil {
		logging.Error("ui", err, "list indexers")
		s.msg = failMsg("Cannot read indexers: " + err.Error())
	}
	s.indexers, s.loaded = list, true
	s.counts = services.CountIndexers(list)
	s.list.SetLen(len(list))
}

func (s *IndexerScreen) NeedsAutoRefresh(c *Context) bool {
	return c.Indexer.IsReindexing()
}

func (s *IndexerScreen) selected() (services.Indexer, bool) {
	if len(s.indexers) == 0 {
		return services.Indexer{}, false
	}
	return s.indexers[s.list.Selected()], true
}

func (s *IndexerScreen) HandleInput(k input.Key, c *Context) ScreenID {
	if !s.loaded {
		s.load(c)
	}
	if matches(k, indexerKeys.ClearOutput) {
		c.Indexer.ClearOutput()
		s.msg = ""
		return ScreenNone
	}

	busy := c.Indexer.IsReindexing()
	ctx := c.ctx()
	switch {
	case busy && (matches(k, indexerKeys.Reindex) || matches(k, indexerKeys.ReindexAll) ||
		matches(k, indexerKeys.Mode) || matches(k, indexerKeys.Invalidate)):
		return ScreenNone
	case matches(k, indexerKeys.ReindexAll):
		s.report(c.Indexer.ReindexAll(ctx), "Reindexing all indexers")
	case matches(k, indexerKeys.Reindex):
		if ix, ok := s.selected(); ok {
			s.report(c.Indexer.Reindex(ctx, ix.ID), "Reindexing "+ix.ID)
		}
	case matches(k, indexerKeys.Mode):
		if ix, ok := s.selected(); ok {
			err := c.Indexer.SetMode(ctx, ix.ID, !ix.Scheduled)
			mode := "Update on Save"
			if !ix.Scheduled {
				mode = "Update by Schedule"
			}
			s.report(err, fmt.Sprintf("%s set to %s", ix.ID, mode))
			s.load(c)
		}
	case matches(k, indexerKeys.Invalidate):
		if ix, ok := s.selected(); ok {
			s.report(c.Indexer.Invalidate(ctx, ix.ID), ix.ID+" invalidated")
			s.load(c)
		}
	default:
		return handleNav(k, s.list)
	}
	return ScreenNone
}

func (s *IndexerScreen) report(err error, ok string) {
	if err != nil {
		logging.Error("ui", err, "indexer action")
		s.msg = failMsg(err.Error())
		return
	}
	s.msg = okMsg(ok)
}

func (s *IndexerScreen) Render(width, height int, c *Context) string {
	running := c.Indexer.IsReindexing()
	s.load(c)
	s.list.SetPageSize(visibleRows(height, 12+indexerOutputLines))

	cw := contentWidth(width)
	cols := []components.TableColumn{
		{Header: "Indexer", Width: cw * 35 / 100},
		{Header: "Title", Width: cw * 30 / 100},
		{Header: "Status", Width: cw * 17 / 100},
		{Header: "Mode", Width: cw * 18 / 100},
	}
	start, end := s.list.Window()
	rows := make([][]string, 0, end-start)
	for _, ix := range s.indexers[start:end] {
		rows = append(rows, []string{ix.ID, ix.Title, services.StatusText(ix.Status), ix.ModeText()})
	}
	styler := func(row, col int) (lipgloss.Style, bool) {
		if col != 2 {
			return lipgloss.Style{}, false
		}
		return IndexStatusStyle(s.indexers[start+row].Status), true
	}

	body := MutedStyle.Render("No indexers found")
	if len(s.indexers) > 0 {
		body = components.TableGridStyled(cols, rows, cw, s.list.Selected()-start, styler)
	}
	title := fmt.Sprintf("Index Management [Valid: %d | Invalid: %d | Working: %d]",
		s.counts.Valid, s.counts.Invalid, s.counts.Working)

	var output string
	if out := c.Indexer.Output(); running || out != "" {
		head := "Last Reindex Output"
		if running {
			head = "Reindexing in Progress..."
		}
		output = outputPanel(head, out, indexerOutputLines, running, c.now(), width)
	}

	return page(
		joinBlocks(components.TitledBox(title, body, width), output, message(s.msg)),
		hintBar(width, nav.Move, indexerKeys.Reindex, indexerKeys.ReindexAll, indexerKeys.Mode,
			indexerKeys.Invalidate, indexerKeys.ClearOutput, nav.Back),
	)
}
