package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/tidycode/magetui/internal/process"
)

// fakeMagento scripts bin/magento output and the app/etc arrays.
type fakeMagento struct {
	root string

	mu      sync.Mutex
	calls   []string
	outputs map[string]string
	errs    map[string]error
	arrays  map[string]map[string]any
	php     map[string]any
	reads   map[string]int
	onRun   func(args []string)
	command func(args ...string) process.Spec
}

func newFakeMagento(t *testing.T) *fakeMagento {
	t.Helper()
	return &fakeMagento{
		root:    t.TempDir(),
		outputs: map[string]string{},
		errs:    map[string]error{},
		arrays:  map[string]map[string]any{},
		reads:   map[string]int{},
	}
}

func (f *fakeMagento) Run(_ context.Context, args ...string) (string, error) {
	f.mu.Lock()
	key := strings.Join(args, " ")
	f.calls = append(f.calls, key)
	out, err, hook := f.outputs[key], f.errs[key], f.onRun
	f.mu.Unlock()
	if hook != nil {
		hook(args)
	}
	return out, err
}

func (f *fakeMagento) Command(args ...string) process.Spec {
	if f.command != nil {
		return f.command(args...)
	}
	return process.Spec{Name: "/bin/echo", Args: args, Dir: f.root}
}

func (f *fakeMagento) ReadPHPArray(_ context.Context, rel string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads[rel]++
	m, ok := f.arrays[rel]
	if !ok {
		return nil, errors.New("no such file " + rel)
	}
	return m, nil
}

func (f *fakeMagento) PHPInfo(context.Context) (map[string]any, error) {
	if f.php == nil {
		return nil, errors.New("php unavailable")
	}
	return f.php, nil
}

func (f *fakeMagento) Path(rel ...string) string {
	return filepath.Join(append([]string{f.root}, rel...)...)
}

func (f *fakeMagento) setArray(rel string, m map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.arrays[rel] = m
}

func (f *fakeMagento) readCount(rel string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[rel]
}

func (f *fakeMagento) runs(cmd string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == cmd {
			n++
		}
	}
	return n
}

func (f *fakeMagento) ran(cmd string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == cmd {
			return true
		}
	}
	return false
}

func newTestBase(m Magento) *base {
	return &base{mage: m, cache: gocache.New(time.Minute, time.Minute)}
}
