// Package terminal owns the raw-mode TTY: entering and leaving the
// alternate screen, frame drawing and keyboard byte delivery.
package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/cancelreader"
	"golang.org/x/term"

	"github.com/tidycode/magetui/internal/input"
)

// ErrNotTerminal is returned by Open when stdin is not a TTY.
var ErrNotTerminal = errors.New("terminal: stdin is not a terminal")

// Terminal is a raw-mode session on stdin/stdout.
type Terminal struct {
	in  *os.File
	out io.Writer

	mu       sync.Mutex
	state    *term.State
	restored bool

	reader cancelreader.CancelReader
	bytes  chan byte
	errs   chan error
}

// Open switches the terminal into raw mode and the alternate screen.
func Open(in *os.File, out io.Writer) (*Terminal, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("enter raw mode: %w", err)
	}

	reader, err := cancelreader.NewReader(in)
	if err != nil {
		_ = term.Restore(fd, state)
		return nil, fmt.Errorf("open input: %w", err)
	}

	t := &Terminal{
		in:     in,
		out:    out,
		state:  state,
		reader: reader,
		bytes:  make(chan byte, 256),
		errs:   make(chan error, 1),
	}
	go t.pump()

	_, _ = io.WriteString(out, ansi.SetAltScreenSaveCursorMode+ansi.HideCursor)
	t.Clear()
	return t, nil
}

func (t *Terminal) pump() {
	buf := make([]byte, 64)
	for {
		n, err := t.reader.Read(buf)
		for i := 0; i < n; i++ {
			t.bytes <- buf[i]
		}
		if err != nil {
			t.errs <- err
			close(t.bytes)
			return
		}
	}
}

// ReadByte implements input.ByteSource.
func (t *Terminal) ReadByte(timeout time.Duration) (byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case b, ok := <-t.bytes:
		if !ok {
			return 0, t.readErr()
		}
		return b, nil
	case <-timer.C:
		return 0, input.ErrTimeout
	}
}

func (t *Terminal) readErr() error {
	select {
	case err := <-t.errs:
		if errors.Is(err, cancelreader.ErrCanceled) {
			return io.EOF
		}
		return err
	default:
		return io.EOF
	}
}

// Size returns the current terminal dimensions, falling back to 80x24.
func (t *Terminal) Size() (int, int) {
	w, h, err := term.GetSize(int(t.in.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return 80, 24
	}
	return w, h
}

// Clear wipes the screen and homes the cursor.
func (t *Terminal) Clear() {
	_, _ = io.WriteString(t.out, ansi.EraseEntireScreen+ansi.CursorHomePosition)
}

// Draw paints a full frame from the top-left corner. Each line is clipped
// to width and erased to its end so shorter frames leave no residue.
func (t *Terminal) Draw(frame string, width, height int) error {
	_, err := io.WriteString(t.out, Compose(frame, width, height))
	return err
}

// Compose renders the byte stream Draw writes for a frame.
func Compose(frame string, width, height int) string {
	lines := strings.Split(strings.TrimRight(frame, "\n"), "\n")
	if height > 0 && len(lines) > height {
		lines = lines[:height]
	}

	var b strings.Builder
	b.WriteString(ansi.CursorHomePosition)
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\r\n")
		}
		if width > 0 {
			line = ansi.Truncate(line, width, "")
		}
		b.WriteString(line)
		b.WriteString(ansi.ResetStyle)
		b.WriteString(ansi.EraseLineRight)
	}
	b.WriteString(ansi.EraseScreenBelow)
	return b.String()
}

// Restore leaves raw mode and the alternate screen. It is safe to call
// more than once.
func (t *Terminal) Restore() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.restored {
		return nil
	}
	t.restored = true

	t.reader.Cancel()
	_, _ = io.WriteString(t.out, ansi.ResetStyle+ansi.ShowCursor)
	t.Clear()
	_, _ = io.WriteString(t.out, ansi.ResetAltScreenSaveCursorMode)
	if err := term.Restore(int(t.in.Fd()), t.state); err != nil {
		return fmt.Errorf("restore terminal: %w", err)
	}
	return nil
}
