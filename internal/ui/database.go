package ui

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/dustin/go-humanize"

	"github.com/tidycode/magetui/internal/input"
	"github.com/tidycode/magetui/internal/logging"
	"github.com/tidycode/magetui/internal/services"
	"github.com/tidycode/magetui/internal/ui/components"
)

const (
	databaseOutputLines = 10
	backupTimeLayout    = "2006-01-02 15:04:05"
)

var databaseKeys = struct {
	Dump, Restore, Refresh, Confirm, Cancel key.Binding
}{
	Dump:    binding("d", "dump", "d", "D"),
	Restore: binding("r", "restore", "r", "R"),
	Refresh: binding("l", "refresh backups", "l", "L"),
	Confirm: binding("y", "confirm", "y", "Y"),
	Cancel:  binding("n/esc", "cancel", "n", "N", "esc"),
}

// DatabaseScreen runs dumps and restores behind a y/n confirmation.
type DatabaseScreen struct {
	backups []services.Backup

	confirmDump    bool
	dumpPath       string
	confirmRestore bool
	backupIdx      int

	msg string
}

func NewDatabaseScreen() *DatabaseScreen {
	return &DatabaseScreen{}
}

// Confirming reports whether a y/n confirmation is open.
func (s *DatabaseScreen) Confirming() bool {
	return s.confirmDump || s.confirmRestore
}

func (s *DatabaseScreen) loadBackups(c *Context) {
	backups, err := c.Database.Backups()
	if err != nil {
		logging.Error("ui", err, "list backups")
	}
	s.backups = backups
	if s.backupIdx >= len(backups) {
		s.backupIdx = len(backups) - 1
	}
	if s.backupIdx < 0 {
		s.backupIdx = 0
	}
}

func (s *DatabaseScreen) NeedsAutoRefresh(c *Context) bool {
	return c.Database.IsProcessing()
}

func (s *DatabaseScreen) HandleInput(k input.Key, c *Context) ScreenID {
	if c.Database.IsProcessing() {
		return ScreenNone
	}

	switch {
	case s.confirmDump:
		s.handleDumpConfirm(k, c)
		return ScreenNone
	case s.confirmRestore:
		s.handleRestoreConfirm(k, c)
		return ScreenNone
	}

	switch {
	case matches(k, databaseKeys.Dump):
		s.dumpPath = c.Database.DumpPath(c.now())
		s.confirmDump = true
	case matches(k, databaseKeys.Restore):
		s.loadBackups(c)
		if len(s.backups) == 0 {
			s.msg = failMsg("No backups available")
			return ScreenNone
		}
		s.confirmRestore = true
		s.backupIdx = 0
	case matches(k, databaseKeys.Refresh):
		s.loadBackups(c)
		s.msg = "Backup list refreshed"
	case isBack(k):
		return ScreenMain
	}
	return ScreenNone
}

func (s *DatabaseScreen) handleDumpConfirm(k input.Key, c *Context) {
	switch {
	case isConfirm(k):
		s.confirmDump = false
		if err := c.Database.StartDump(c.ctx(), s.dumpPath); err != nil {
			logging.Error("ui", err, "start dump")
			s.msg = failMsg(err.Error())
			return
		}
		s.msg = okMsg("Dump started: " + filepath.Base(s.dumpPath))
	case isCancel(k):
		s.confirmDump = false
		s.msg = "Dump cancelled"
	}
}

func (s *DatabaseScreen) handleRestoreConfirm(k input.Key, c *Context) {
	s.loadBackups(c)
	switch {
	case isConfirm(k):
		s.confirmRestore = false
		if len(s.backups) == 0 {
			return
		}
		b := s.backups[s.backupIdx]
		s.backupIdx = 0
		if err := c.Database.StartRestore(c.ctx(), b.Path); err != nil {
			logging.Error("ui", err, "start restore")
			s.msg = failMsg(err.Error())
			return
		}
		s.msg = okMsg("Restore started: " + b.Name)
	case isCancel(k):
		s.confirmRestore = false
		s.backupIdx = 0
		s.msg = "Restore cancelled"
	case isUp(k):
		if s.backupIdx > 0 {
			s.backupIdx--
		}
	case isDown(k):
		if s.backupIdx < len(s.backups)-1 {
			s.backupIdx++
		}
	}
}

func (s *DatabaseScreen) Render(width, height int, c *Context) string {
	if c.Database.IsProcessing() {
		return s.renderProgress(width, c)
	}
	s.loadBackups(c)
	switch {
	case s.confirmDump:
		return s.renderDumpConfirm(width)
	case s.confirmRestore:
		return s.renderRestoreConfirm(width, height, c)
	}

	info := c.Database.Info()
	port := "N/A"
	if info.Port > 0 {
		port = strconv.Itoa(info.Port)
	}
	infoTable := components.Table("Database Information", []components.TableRow{
		{Label: "Database", Value: orNA(info.Name)},
		{Label: "Host", Value: orNA(info.Host)},
		{Label: "Port", Value: port},
		{Label: "User", Value: orNA(info.User)},
		{Label: "Backup Directory", Value: c.Database.BackupDir()},
	}, width)

	backupBody := MutedStyle.Render("No backups found in " + c.Database.BackupDir())
	if len(s.backups) > 0 {
		cw := contentWidth(width)
		cols := []components.TableColumn{
			{Header: "Backup", Width: cw * 55 / 100},
			{Header: "Size", Width: cw * 15 / 100},
			{Header: "Date", Width: cw * 30 / 100},
		}
		n := visibleRows(height, 22)
		if n > len(s.backups) {
			n = len(s.backups)
		}
		rows := make([][]string, 0, n)
		for _, b := range s.backups[:n] {
			rows = append(rows, []string{b.Name, humanize.IBytes(uint64(b.Size)), b.Modified.Format(backupTimeLayout)})
		}
		backupBody = components.TableGrid(cols, rows, cw)
	}

	var last string
	if out := c.Database.Output(); out != "" {
		head := fmt.Sprintf("Last %s Output (exit %d)", titleCase(c.Database.Operation()), c.Database.LastExit())
		last = outputPanel(head, out, databaseOutputLines, false, c.now(), width)
	}

	return page(
		joinBlocks(
			infoTable,
			components.TitledBox(fmt.Sprintf("Available Backups [%d]", len(s.backups)), backupBody, width),
			last,
			message(s.msg),
		),
		hintBar(width, databaseKeys.Dump, databaseKeys.Restore, databaseKeys.Refresh, nav.Back),
	)
}

func (s *DatabaseScreen) renderDumpConfirm(width int) string {
	body := strings.Join([]string{
		"Create Database Dump?",
		"",
		"Backup will be saved to:",
		AccentStyle.Render(s.dumpPath),
		"",
		WarningStyle.Render("⚠ WARNING:"),
		"- This operation may take several minutes",
		"- Tables will be locked during the dump",
		"",
		"Press [Y] to confirm or [N] to cancel",
	}, "\n")
	return components.TitledBox("Confirm Dump", body, width)
}

func (s *DatabaseScreen) renderRestoreConfirm(width, height int, c *Context) string {
	if len(s.backups) == 0 {
		return components.ErrorBox("Restore", "No backups available", width)
	}
	b := s.backups[s.backupIdx]

	n := visibleRows(height, 24)
	from := 0
	if s.backupIdx >= n {
		from = s.backupIdx - n + 1
	}
	to := from + n
	if to > len(s.backups) {
		to = len(s.backups)
	}
	choices := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		if i == s.backupIdx {
			choices = append(choices, SelectedStyle.Render("► "+s.backups[i].Name))
			continue
		}
		choices = append(choices, "  "+s.backups[i].Name)
	}

	body := strings.Join([]string{
		"Restore Database from Backup?",
		"",
		ErrorStyle.Render("⚠ WARNING: This will REPLACE the current database!"),
		"",
		components.InfoRow("Database", orNA(c.Database.Info().Name)),
		components.InfoRow("Backup", b.Name),
		components.InfoRow("Size", humanize.IBytes(uint64(b.Size))),
		components.InfoRow("Date", b.Modified.Format(backupTimeLayout)),
		"",
		strings.Join(choices, "\n"),
		"",
		"Press [Y] to confirm or [N] to cancel",
	}, "\n")
	return page(
		components.TitledBox("Confirm Restore", body, width),
		hintBar(width, nav.Move, databaseKeys.Confirm, databaseKeys.Cancel),
	)
}

func (s *DatabaseScreen) renderProgress(width int, c *Context) string {
	op := c.Database.Operation()
	title := "Processing..."
	switch op {
	case services.OpDump:
		title = "Creating Database Dump..."
	case services.OpRestore:
		title = "Restoring Database..."
	}
	info := strings.Join([]string{
		"Operation: " + titleCase(op),
		"This may take several minutes...",
		"Please wait for completion",
	}, "\n")
	return joinBlocks(
		outputPanel(title, c.Database.Output(), databaseOutputLines, true, c.now(), width),
		components.TitledBox("Info", info, width),
	)
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
