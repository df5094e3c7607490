// Package process runs external commands in the background and exposes
// their output for non-blocking polling from the render loop.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
)

// ErrBusy is returned when a monitor already owns a running process.
var ErrBusy = errors.New("process: operation already running")

// Spec describes a command to launch.
type Spec struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

// String renders the command line for display.
func (s Spec) String() string {
	out := s.Name
	for _, a := range s.Args {
		out += " " + a
	}
	return out
}

// Handle is a running (or finished) background process.
type Handle struct {
	cmd    *exec.Cmd
	stdout *chunkBuffer
	stderr *chunkBuffer

	done     chan struct{}
	mu       sync.Mutex
	exitCode int
	waitErr  error
}

// Start launches spec in its own process group.
func Start(ctx context.Context, spec Spec) (*Handle, error) {
	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	h := &Handle{
		cmd:      cmd,
		stdout:   &chunkBuffer{},
		stderr:   &chunkBuffer{},
		done:     make(chan struct{}),
		exitCode: -1,
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", spec.Name, err)
	}

	var copies sync.WaitGroup
	copies.Add(2)
	go func() {
		defer copies.Done()
		_, _ = io.Copy(h.stdout, stdoutPipe)
	}()
	go func() {
		defer copies.Done()
		_, _ = io.Copy(h.stderr, stderrPipe)
	}()

	go func() {
		copies.Wait()
		err := cmd.Wait()
		h.mu.Lock()
		h.waitErr = err
		if cmd.ProcessState != nil {
			h.exitCode = cmd.ProcessState.ExitCode()
		}
		h.mu.Unlock()
		close(h.done)
	}()

	return h, nil
}

// IsRunning reports whether the process has not exited yet.
func (h *Handle) IsRunning() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Poll returns output produced since the previous call. It never blocks.
func (h *Handle) Poll() (string, string) {
	return h.stdout.drain(), h.stderr.drain()
}

// Wait blocks until the process exits or ctx is done.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExitCode returns the exit status, or -1 while running or when killed.
func (h *Handle) ExitCode() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode
}

// Err returns the error reported by Wait once the process has exited.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.waitErr
}

// Stop terminates the whole process group.
func (h *Handle) Stop() {
	if !h.IsRunning() || h.cmd.Process == nil {
		return
	}
	if pgid, err := syscall.Getpgid(h.cmd.Process.Pid); err == nil {
		_ = syscall.Kill(-pgid, syscall.SIGTERM)
		return
	}
	_ = h.cmd.Process.Kill()
}

// chunkBuffer collects output from a copy goroutine until drained.
type chunkBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (c *chunkBuffer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

func (c *chunkBuffer) drain() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.buf.String()
	c.buf.Reset()
	return out
}
