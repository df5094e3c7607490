package services

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTailLines is how much history a new tail starts with.
	DefaultTailLines = 50
	// DefaultSearchLimit caps cross-file search results.
	DefaultSearchLimit = 100
	maxBufferedLines   = 5000
)

// LogFile is one *.log file in the log directory.
type LogFile struct {
	Name     string
	Path     string
	Size     int64
	Modified time.Time
}

// SearchResult is one matching line.
type SearchResult struct {
	File       string
	Path       string
	LineNumber int
	Line       string
	Gzip       bool
}

// LogService lists log files, tails one of them and searches all of them.
// Include and exclude filters are ordered sets matched case-insensitively.
type LogService struct {
	dir string

	mu       sync.Mutex
	tailer   *Tailer
	lines    []string
	partial  string
	includes []string
	excludes []string
}

// NewLogService returns a service over dir.
func NewLogService(dir string) *LogService {
	return &LogService{dir: dir}
}

// Dir is the log directory.
func (s *LogService) Dir() string { return s.dir }

// Files lists *.log files sorted by name. A missing directory is empty.
func (s *LogService) Files() ([]LogFile, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}

	var files []LogFile
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".log" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, LogFile{
			Name:     e.Name(),
			Path:     filepath.Join(s.dir, e.Name()),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// StartTail begins following name with the last n lines. The buffer is
// reset. Starting while already tailing is a no-op.
func (s *LogService) StartTail(name string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tailer != nil && s.tailer.Running() {
		return nil
	}
	path := filepath.Join(s.dir, filepath.Base(name))
	t, err := StartTailer(path, n)
	if err != nil {
		return err
	}
	s.tailer = t
	s.lines = nil
	s.partial = ""
	return nil
}

// StopTail stops following. Buffered lines stay visible.
func (s *LogService) StopTail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tailer == nil {
		return
	}
	s.absorb()
	s.tailer.Stop()
	s.tailer = nil
}

// IsTailing reports whether a tail is live.
func (s *LogService) IsTailing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tailer != nil && s.tailer.Running()
}

// absorb moves polled text into the line buffer. Caller holds mu.
func (s *LogService) absorb() {
	if s.tailer == nil {
		return
	}
	chunk := s.tailer.Poll()
	if chunk == "" {
		return
	}
	text := s.partial + strings.ReplaceAll(chunk, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	s.partial = parts[len(parts)-1]
	s.lines = append(s.lines, parts[:len(parts)-1]...)
	if len(s.lines) > maxBufferedLines {
		s.lines = s.lines[len(s.lines)-maxBufferedLines:]
	}
}

// Lines polls the tail and returns the buffered lines that pass the filters.
func (s *LogService) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.absorb()
	all := s.lines
	if s.partial != "" {
		all = append(all[:len(all):len(all)], s.partial)
	}
	return ApplyFilters(all, s.includes, s.excludes)
}

// ClearBuffer drops buffered lines.
func (s *LogService) ClearBuffer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.absorb()
	s.lines = nil
	s.partial = ""
}

// AddInclude adds an include filter unless present.
func (s *LogService) AddInclude(pattern string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.includes = addUnique(s.includes, pattern)
}

// AddExclude adds an exclude filter unless present.
func (s *LogService) AddExclude(pattern string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.excludes = addUnique(s.excludes, pattern)
}

func (s *LogService) Includes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.includes...)
}

func (s *LogService) Excludes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.excludes...)
}

// ClearFilters removes every include and exclude filter.
func (s *LogService) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.includes = nil
	s.excludes = nil
}

func addUnique(set []string, v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return set
	}
	for _, existing := range set {
		if existing == v {
			return set
		}
	}
	return append(set, v)
}

// ApplyFilters keeps a line when no exclude filter matches it and either
// there are no include filters or one of them matches. Matching is
// case-insensitive substring. Blank lines are dropped while filters are set.
func ApplyFilters(lines, includes, excludes []string) []string {
	if len(includes) == 0 && len(excludes) == 0 {
		return lines
	}
	inc := lowerAll(includes)
	exc := lowerAll(excludes)

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		l := strings.ToLower(line)
		if containsAny(l, exc) {
			continue
		}
		if len(inc) > 0 && !containsAny(l, inc) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

var errSearchFull = errors.New("search limit reached")

// Search scans *.log and *.log.gz files under the log directory in walk
// order and returns at most limit case-insensitive matches.
func (s *LogService) Search(pattern string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	needle := strings.ToLower(pattern)
	if needle == "" {
		return nil, nil
	}

	var results []SearchResult
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.dir {
				return err
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, ".log") && !strings.HasSuffix(name, ".log.gz") {
			return nil
		}
		rel, relErr := filepath.Rel(s.dir, path)
		if relErr != nil {
			rel = name
		}
		results = searchFile(path, rel, needle, results, limit)
		if len(results) >= limit {
			return errSearchFull
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, errSearchFull) {
		err = nil
	}
	if err != nil {
		return results, fmt.Errorf("search logs: %w", err)
	}
	return results, nil
}

func searchFile(path, rel, needle string, results []SearchResult, limit int) []SearchResult {
	f, err := os.Open(path)
	if err != nil {
		return results
	}
	defer f.Close()

	gz := strings.HasSuffix(path, ".gz")
	var r io.Reader = f
	if gz {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return results
		}
		defer zr.Close()
		r = zr
	}

	br := bufio.NewReader(r)
	lineNo := 0
	for len(results) < limit {
		line, err := br.ReadString('\n')
		if line == "" && err != nil {
			break
		}
		lineNo++
		if strings.Contains(strings.ToLower(line), needle) {
			results = append(results, SearchResult{
				File:       rel,
				Path:       path,
				LineNumber: lineNo,
				Line:       strings.TrimSpace(line),
				Gzip:       gz,
			})
		}
		if err != nil {
			break
		}
	}
	return results
}
