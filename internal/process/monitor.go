package process

import (
	"context"
	"strings"
	"sync"
)

// Monitor owns at most one background process for a service and keeps the
// output it produced. Screens call IsBusy on every render, which polls the
// handle and appends whatever arrived.
type Monitor struct {
	mu       sync.Mutex
	handle   *Handle
	label    string
	output   strings.Builder
	lastExit int
	starter  func(context.Context, Spec) (*Handle, error)
}

// NewMonitor returns an idle monitor.
func NewMonitor() *Monitor {
	return &Monitor{lastExit: -1, starter: Start}
}

// Start launches spec unless a process is still running. label names the
// operation for display.
func (m *Monitor) Start(ctx context.Context, label string, spec Spec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle != nil && m.handle.IsRunning() {
		return ErrBusy
	}
	h, err := m.starter(ctx, spec)
	if err != nil {
		return err
	}
	m.handle = h
	m.label = label
	m.output.Reset()
	m.lastExit = -1
	return nil
}

// IsBusy polls the handle and reports whether it is still running. The
// final chunk of output is collected when the process has just exited.
func (m *Monitor) IsBusy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle == nil {
		return false
	}
	m.collect()
	if m.handle.IsRunning() {
		return true
	}
	m.collect()
	m.lastExit = m.handle.ExitCode()
	m.handle = nil
	return false
}

func (m *Monitor) collect() {
	stdout, stderr := m.handle.Poll()
	m.output.WriteString(stdout)
	m.output.WriteString(stderr)
}

// Output returns everything collected since the last Start or Clear.
func (m *Monitor) Output() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle != nil {
		m.collect()
	}
	return m.output.String()
}

// Tail returns the last n non-empty output lines.
func (m *Monitor) Tail(n int) []string {
	return LastLines(m.Output(), n)
}

// Label names the most recent operation.
func (m *Monitor) Label() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.label
}

// LastExit is the exit code of the last finished process, -1 if unknown.
func (m *Monitor) LastExit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastExit
}

// Clear forgets the output and releases the handle. A process that is
// still alive keeps running on its own.
func (m *Monitor) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handle = nil
	m.label = ""
	m.output.Reset()
}

// LastLines splits text into lines and keeps the final n non-empty ones.
func LastLines(text string, n int) []string {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
