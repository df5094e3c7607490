package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/dustin/go-humanize"

	"github.com/tidycode/magetui/internal/input"
	"github.com/tidycode/magetui/internal/logging"
	"github.com/tidycode/magetui/internal/services"
	"github.com/tidycode/magetui/internal/ui/components"
)

// TailLines is how much history a new tail starts with.
const TailLines = services.DefaultTailLines

type logInputKind int

const (
	logInputInclude logInputKind = iota
	logInputExclude
	logInputSearch
)

var logInputTitles = map[logInputKind]string{
	logInputInclude: "Custom Include Filter",
	logInputExclude: "Custom Exclude Filter",
	logInputSearch:  "Search All Logs",
}

// Quick filters bound to the digit keys in the viewer.
var (
	quickIncludes = map[rune]string{'1': "ERROR", '2': "CRITICAL", '3': "WARNING", '4': "EXCEPTION"}
	quickExcludes = map[rune]string{'5': "DEBUG", '6': "INFO", '7': "deprecated", '8': "notice"}
)

var logKeys = struct {
	Open, Tail, Include, Exclude, Search, Clear, Buffer key.Binding
}{
	Open:    binding("enter", "view", "enter"),
	Tail:    binding("t", "tail -f", "t", "T"),
	Include: binding("i", "include", "i", "I"),
	Exclude: binding("e", "exclude", "e", "E"),
	Search:  binding("s", "search all", "s", "S"),
	Clear:   binding("c", "clear filters", "c", "C"),
	Buffer:  binding("x", "clear buffer", "x", "X"),
}

// LogsScreen lists log files and opens one in a live viewer with include
// and exclude filters and a cross-file search.
type LogsScreen struct {
	list   *components.List
	files  []services.LogFile
	loaded bool

	viewing string
	scroll  int
	perPage int

	input     prompt
	inputKind logInputKind

	showResults  bool
	pattern      string
	results      []services.SearchResult
	resultScroll int

	msg string
}

func NewLogsScreen() *LogsScreen {
	return &LogsScreen{
		list:    components.NewList(20),
		perPage: 20,
		input:   newPrompt("pattern", 200),
	}
}

// Viewing is the open file, empty on the file list.
func (s *LogsScreen) Viewing() string {
	return s.viewing
}

func (s *LogsScreen) load(c *Context) {
	files, err := c.Logs.Files()
	if err != nil {
		logging.Error("ui", err, "list log files")
		s.msg = failMsg(err.Error())
	}
	s.files, s.loaded = files, true
	s.list.SetLen(len(files))
}

func (s *LogsScreen) NeedsAutoRefresh(c *Context) bool {
	return s.viewing != "" && c.Logs.IsTailing()
}

func (s *LogsScreen) HandleInput(k input.Key, c *Context) ScreenID {
	switch {
	case s.showResults:
		s.handleResults(k)
		return ScreenNone
	case s.input.active:
		s.handlePrompt(k, c)
		return ScreenNone
	case s.viewing != "":
		s.handleViewer(k, c)
		return ScreenNone
	}

	if !s.loaded {
		s.load(c)
	}
	if isEnter(k) {
		if len(s.files) == 0 {
			return ScreenNone
		}
		f := s.files[s.list.Selected()]
		if err := c.Logs.StartTail(f.Name, TailLines); err != nil {
			logging.Error("ui", err, "tail %s", f.Name)
			s.msg = failMsg(err.Error())
			return ScreenNone
		}
		s.viewing, s.scroll, s.msg = f.Name, 0, ""
		return ScreenNone
	}
	return handleNav(k, s.list)
}

func (s *LogsScreen) handleResults(k input.Key) {
	switch {
	case isBack(k), isEnter(k):
		s.showResults = false
		s.results = nil
		s.resultScroll = 0
	case isUp(k):
		if s.resultScroll > 0 {
			s.resultScroll--
		}
	case isDown(k):
		if s.resultScroll < len(s.results)-1 {
			s.resultScroll++
		}
	}
}

func (s *LogsScreen) handlePrompt(k input.Key, c *Context) {
	switch {
	case isEscape(k):
		s.input.close()
	case isEnter(k):
		text := strings.TrimSpace(s.input.value())
		s.input.close()
		if text == "" {
			return
		}
		switch s.inputKind {
		case logInputInclude:
			c.Logs.AddInclude(text)
		case logInputExclude:
			c.Logs.AddExclude(text)
		case logInputSearch:
			results, err := c.Logs.Search(text, services.DefaultSearchLimit)
			if err != nil {
				logging.Error("ui", err, "search logs for %q", text)
			}
			s.pattern, s.results, s.resultScroll = text, results, 0
			s.showResults = true
		}
	default:
		s.input.update(k)
	}
}

func (s *LogsScreen) openPrompt(kind logInputKind) {
	s.inputKind = kind
	s.input.open("")
}

func (s *LogsScreen) handleViewer(k input.Key, c *Context) {
	if isBack(k) {
		c.Logs.StopTail()
		s.viewing, s.scroll = "", 0
		return
	}
	if k.Type == input.KeyRune {
		if p, ok := quickIncludes[k.Rune]; ok {
			c.Logs.AddInclude(p)
			return
		}
		if p, ok := quickExcludes[k.Rune]; ok {
			c.Logs.AddExclude(p)
			return
		}
	}

	switch {
	case matches(k, logKeys.Tail):
		if c.Logs.IsTailing() {
			c.Logs.StopTail()
			return
		}
		if err := c.Logs.StartTail(s.viewing, TailLines); err != nil {
			logging.Error("ui", err, "tail %s", s.viewing)
			s.msg = failMsg(err.Error())
		}
	case matches(k, logKeys.Include):
		s.openPrompt(logInputInclude)
	case matches(k, logKeys.Exclude):
		s.openPrompt(logInputExclude)
	case matches(k, logKeys.Search):
		s.openPrompt(logInputSearch)
	case matches(k, logKeys.Clear):
		c.Logs.ClearFilters()
	case matches(k, logKeys.Buffer):
		c.Logs.ClearBuffer()
		s.scroll = 0
	case c.Logs.IsTailing():
		// Scrolling is only possible on a static view.
	case isUp(k):
		if s.scroll > 0 {
			s.scroll--
		}
	case isDown(k):
		if s.scroll < s.maxScroll(len(c.Logs.Lines())) {
			s.scroll++
		}
	}
}

func (s *LogsScreen) maxScroll(total int) int {
	if total <= s.perPage {
		return 0
	}
	return total - s.perPage
}

func (s *LogsScreen) Render(width, height int, c *Context) string {
	switch {
	case s.showResults:
		return s.renderResults(width, height)
	case s.input.active:
		return s.renderPrompt(width)
	case s.viewing != "":
		return s.renderViewer(width, height, c)
	}

	s.load(c)
	s.list.SetPageSize(visibleRows(height, 10))

	cw := contentWidth(width)
	cols := []components.TableColumn{
		{Header: "File", Width: cw * 60 / 100},
		{Header: "Size", Width: cw * 15 / 100},
		{Header: "Modified", Width: cw * 25 / 100},
	}
	start, end := s.list.Window()
	rows := make([][]string, 0, end-start)
	for _, f := range s.files[start:end] {
		rows = append(rows, []string{f.Name, humanize.IBytes(uint64(f.Size)), humanize.Time(f.Modified)})
	}

	body := MutedStyle.Render("No log files in " + c.Logs.Dir())
	if len(s.files) > 0 {
		body = components.TableGridWithActiveRow(cols, rows, cw, s.list.Selected()-start)
	}
	if s.msg != "" {
		body += "\n\n" + message(s.msg)
	}

	return page(
		components.TitledBox("Log Monitoring [↑↓=Navigate Enter=View ESC/Q=Back]", body, width),
		hintBar(width, nav.Move, logKeys.Open, nav.Back),
	)
}

func (s *LogsScreen) renderViewer(width, height int, c *Context) string {
	tailing := c.Logs.IsTailing()
	lines := c.Logs.Lines()

	s.perPage = visibleRows(height, 20)
	if tailing {
		s.scroll = s.maxScroll(len(lines))
	} else if s.scroll > s.maxScroll(len(lines)) {
		s.scroll = s.maxScroll(len(lines))
	}

	end := s.scroll + s.perPage
	if end > len(lines) {
		end = len(lines)
	}
	cw := contentWidth(width)
	visible := make([]string, 0, s.perPage)
	for _, l := range lines[s.scroll:end] {
		visible = append(visible, components.ClampTextWidth(l, cw))
	}

	content := strings.Join(visible, "\n")
	if content == "" {
		content = "No log entries found"
		if tailing {
			content = "Waiting for log entries..."
		}
		content = MutedStyle.Render(content)
	}

	state := "[STATIC]"
	if tailing {
		state = "[LIVE TAIL]"
	}
	title := fmt.Sprintf("Log Viewer: %s %s [%d lines]", s.viewing, state, len(lines))

	return page(
		joinBlocks(
			components.TitledBox(title, content, width),
			components.TitledBox("Controls & Quick Filters", s.controls(tailing, c), width),
			message(s.msg),
		),
		hintBar(width, logKeys.Tail, logKeys.Include, logKeys.Exclude, logKeys.Search,
			logKeys.Clear, logKeys.Buffer, nav.Back),
	)
}

func (s *LogsScreen) controls(tailing bool, c *Context) string {
	tail := "[T] Start tail -f"
	if tailing {
		tail = "[T] Stop tail -f"
	}
	lines := []string{
		tail,
		"Quick Include: [1]ERROR [2]CRITICAL [3]WARNING [4]EXCEPTION",
		"Quick Exclude: [5]DEBUG [6]INFO [7]deprecated [8]notice",
	}

	includes, excludes := c.Logs.Includes(), c.Logs.Excludes()
	if len(includes) > 0 {
		lines = append(lines, SuccessStyle.Render("✓ Include: "+quoteAll(includes)))
	}
	if len(excludes) > 0 {
		lines = append(lines, ErrorStyle.Render("✗ Exclude: "+quoteAll(excludes)))
	}
	if len(includes) == 0 && len(excludes) == 0 {
		lines = append(lines, MutedStyle.Render("No filters active - showing all lines"))
	}
	return strings.Join(lines, "\n")
}

func quoteAll(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = "'" + it + "'"
	}
	return strings.Join(quoted, ", ")
}

func (s *LogsScreen) renderPrompt(width int) string {
	return components.PromptDialog(logInputTitles[s.inputKind], "Enter pattern: "+s.input.view(), "", width)
}

func (s *LogsScreen) renderResults(width, height int) string {
	if len(s.results) == 0 {
		return page(
			components.TitledBox("Search Results", fmt.Sprintf("No results found for '%s'", s.pattern), width),
			hintBar(width, nav.Back),
		)
	}

	cw := contentWidth(width)
	lines := []string{fmt.Sprintf("Found %d matches for '%s':", len(s.results), s.pattern), ""}
	// Each result takes three rows.
	fit := visibleRows(height, 10) / 3
	end := s.resultScroll + fit
	if end > len(s.results) {
		end = len(s.results)
	}
	for _, r := range s.results[s.resultScroll:end] {
		file := r.File
		if r.Gzip {
			file += " [GZIP]"
		}
		lines = append(lines,
			BlueStyle.Render("File: "+file)+fmt.Sprintf(" (Line %d)", r.LineNumber),
			components.ClampTextWidth(r.Line, cw),
			Divider(50),
		)
	}
	return page(
		components.TitledBox("Search Results", strings.Join(lines, "\n"), width),
		hintBar(width, nav.Move, binding("esc/q/enter", "close", "esc", "q", "enter")),
	)
}
