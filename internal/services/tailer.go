package services

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tidycode/magetui/internal/logging"
)

// tailFallbackInterval re-reads the file even without fsnotify events, for
// filesystems (NFS, some container mounts) that never deliver them.
const tailFallbackInterval = time.Second

// Tailer follows a growing file, buffering appended text until polled.
type Tailer struct {
	path    string
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	offset  int64
	pending bytes.Buffer

	stop chan struct{}
	done chan struct{}
}

// StartTailer seeds the buffer with the last n lines of path and follows it.
func StartTailer(path string, n int) (*Tailer, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("tail %s: %w", filepath.Base(path), err)
	}

	seed, err := LastLinesOfFile(path, n)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	// The directory is watched so rotation (remove + create) is seen.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	t := &Tailer{
		path:    path,
		watcher: watcher,
		offset:  info.Size(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if len(seed) > 0 {
		t.pending.WriteString(strings.Join(seed, "\n") + "\n")
	}
	go t.loop()
	return t, nil
}

func (t *Tailer) loop() {
	defer close(t.done)
	defer t.watcher.Close()

	ticker := time.NewTicker(tailFallbackInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case event, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(t.path) {
				continue
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				t.mu.Lock()
				t.offset = 0
				t.mu.Unlock()
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				t.readNew()
			}
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("logs", err, "tail watcher %s", t.path)
		case <-ticker.C:
			t.readNew()
		}
	}
}

func (t *Tailer) readNew() {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.Open(t.path)
	if err != nil {
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return
	}
	if info.Size() < t.offset {
		t.offset = 0
	}
	if info.Size() == t.offset {
		return
	}
	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return
	}
	n, _ := io.Copy(&t.pending, f)
	t.offset += n
}

// Poll returns text appended since the last call without blocking.
func (t *Tailer) Poll() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.pending.String()
	t.pending.Reset()
	return out
}

// Running reports whether the follow loop is alive.
func (t *Tailer) Running() bool {
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// Stop ends the follow loop and waits for it.
func (t *Tailer) Stop() {
	select {
	case <-t.stop:
	default:
		close(t.stop)
	}
	<-t.done
}

// LastLinesOfFile reads the final n lines by scanning backwards in chunks.
func LastLinesOfFile(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}
	if n <= 0 || info.Size() == 0 {
		return nil, nil
	}

	const chunk = 8192
	var data []byte
	pos := info.Size()
	for pos > 0 && bytes.Count(data, []byte{'\n'}) <= n {
		size := int64(chunk)
		if pos < size {
			size = pos
		}
		pos -= size
		buf := make([]byte, size)
		if _, err := f.ReadAt(buf, pos); err != nil && err != io.EOF {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		data = append(buf, data...)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if pos > 0 && len(lines) > 0 {
		lines = lines[1:]
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
