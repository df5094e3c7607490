package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tidycode/magetui/internal/input"
	"github.com/tidycode/magetui/internal/logging"
)

// --- Loop Timing ---

const (
	// RefreshInterval is the minimum gap between auto refresh redraws.
	RefreshInterval = time.Second
	// IdleSleep is how long the loop rests when no key arrived.
	IdleSleep = 50 * time.Millisecond
)

// Display is where frames go.
type Display interface {
	Size() (width, height int)
	Clear()
	Draw(frame string, width, height int) error
}

// KeySource yields at most one key per call. ok is false when nothing
// arrived within its poll timeout.
type KeySource interface {
	Next() (k input.Key, ok bool, err error)
}

// --- App ---

// App is the event loop: draw when dirty, poll one key, dispatch it and
// redraw, or auto refresh screens that show live data.
type App struct {
	manager *Manager
	ctx     *Context
	display Display
	keys    KeySource

	refresh time.Duration
	idle    time.Duration
	clock   func() time.Time
	sleep   func(time.Duration)
}

// NewApp wires the loop.
func NewApp(m *Manager, c *Context, d Display, keys KeySource) *App {
	return &App{
		manager: m,
		ctx:     c,
		display: d,
		keys:    keys,
		refresh: RefreshInterval,
		idle:    IdleSleep,
		clock:   time.Now,
		sleep:   time.Sleep,
	}
}

// Run loops until a screen asks to quit, ctrl+c is pressed, ctx is done or
// input is closed. A panic anywhere below is returned as a fatal error so
// the caller can restore the terminal and report it.
func (a *App) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("ui", nil, "panic: %v", r)
			err = fmt.Errorf("fatal: %v", r)
		}
	}()

	if a.ctx.Ctx == nil {
		a.ctx.Ctx = ctx
	}
	dirty := true
	lastRefresh := a.clock()

	for {
		if ctx.Err() != nil {
			return nil
		}

		if dirty {
			if a.manager.NeedsClear() {
				a.display.Clear()
			}
			if err := a.draw(); err != nil {
				return err
			}
			dirty = false
		}

		k, ok, err := a.keys.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		if ok {
			if isQuit(k) {
				return nil
			}
			if a.manager.HandleInput(k, a.ctx) {
				return nil
			}
			// Screens may change state without navigating, so every key
			// redraws.
			dirty = true
			continue
		}

		now := a.clock()
		if a.manager.NeedsAutoRefresh(a.ctx) && now.Sub(lastRefresh) >= a.refresh {
			dirty = true
			lastRefresh = now
			continue
		}
		a.sleep(a.idle)
	}
}

func (a *App) draw() error {
	w, h := a.display.Size()
	frame := a.manager.Render(w, h, a.ctx)
	if err := a.display.Draw(frame, w, h); err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	return nil
}

// --- Layout Helpers ---

func centerBlock(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lineWidth := lipgloss.Width(line)
		if lineWidth >= width {
			continue
		}
		pad := (width - lineWidth) / 2
		lines[i] = strings.Repeat(" ", pad) + line
	}
	return strings.Join(lines, "\n")
}

func centerBlockUniform(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	maxWidth := 0
	for _, line := range lines {
		w := lipgloss.Width(line)
		if w > maxWidth {
			maxWidth = w
		}
	}
	if maxWidth <= 0 || maxWidth >= width {
		return s
	}
	pad := (width - maxWidth) / 2
	if pad <= 0 {
		return s
	}
	prefix := strings.Repeat(" ", pad)
	for i := range lines {
		if lines[i] != "" {
			lines[i] = prefix + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
