// Package magento talks to a Magento installation: bin/magento commands,
// the PHP arrays in app/etc and the MySQL database behind it.
package magento

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidycode/magetui/internal/process"
)

// DefaultTimeout bounds synchronous bin/magento calls.
const DefaultTimeout = 2 * time.Minute

// Runner executes bin/magento synchronously. Services depend on it so tests
// can script command output.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// Platform locates one Magento installation.
type Platform struct {
	Root    string
	PHP     string
	Timeout time.Duration
}

// NewPlatform returns a platform rooted at root using the php binary.
func NewPlatform(root, php string) *Platform {
	if php == "" {
		php = "php"
	}
	return &Platform{Root: root, PHP: php, Timeout: DefaultTimeout}
}

// Path joins rel onto the installation root.
func (p *Platform) Path(rel ...string) string {
	return filepath.Join(append([]string{p.Root}, rel...)...)
}

// Command describes `php bin/magento args...` for background execution.
func (p *Platform) Command(args ...string) process.Spec {
	return process.Spec{
		Name: p.PHP,
		Args: append([]string{"bin/magento"}, args...),
		Dir:  p.Root,
	}
}

// Run executes `php bin/magento args...` and returns combined output. A
// non-zero exit is returned as an error carrying the output.
func (p *Platform) Run(ctx context.Context, args ...string) (string, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	spec := p.Command(args...)
	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), &CommandError{Args: args, Output: string(out), Err: err}
	}
	return string(out), nil
}

// CommandError reports a failed bin/magento call.
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Output)
	if msg == "" {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("bin/magento %s: %s", strings.Join(e.Args, " "), msg)
}

func (e *CommandError) Unwrap() error { return e.Err }

const dumpArray = `echo json_encode(include $argv[1]);`

// ReadPHPArray evaluates a PHP file that returns an array (env.php,
// config.php) and decodes it.
func (p *Platform) ReadPHPArray(ctx context.Context, rel string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.PHP, "-r", dumpArray, p.Path(rel))
	cmd.Dir = p.Root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %s", rel, err, strings.TrimSpace(stderr.String()))
	}

	var data map[string]any
	if err := json.Unmarshal(out, &data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", rel, err)
	}
	return data, nil
}

const dumpRuntime = `echo json_encode([
	'php_version' => PHP_VERSION,
	'operating_system' => PHP_OS,
	'memory_limit' => ini_get('memory_limit'),
	'max_execution_time' => ini_get('max_execution_time'),
	'extensions' => count(get_loaded_extensions()),
]);`

// PHPInfo reports the version and limits of the configured php binary.
func (p *Platform) PHPInfo(ctx context.Context) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, p.PHP, "-r", dumpRuntime).Output()
	if err != nil {
		return nil, fmt.Errorf("php runtime info: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(out, &data); err != nil {
		return nil, fmt.Errorf("decode php runtime info: %w", err)
	}
	return data, nil
}

// Lookup walks nested maps by key.
func Lookup(m map[string]any, keys ...string) (any, bool) {
	var cur any = m
	for _, k := range keys {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = node[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// LookupString is Lookup for scalar leaves, rendered as text.
func LookupString(m map[string]any, keys ...string) string {
	v, ok := Lookup(m, keys...)
	if !ok || v == nil {
		return ""
	}
	return Scalar(v)
}

// Scalar formats a decoded JSON scalar the way PHP would print it.
func Scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "1"
		}
		return "0"
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	}
	return fmt.Sprint(v)
}

// Mode reads MAGE_MODE from env.php, "default" when unset.
func Mode(env map[string]any) string {
	if mode := LookupString(env, "MAGE_MODE"); mode != "" {
		return mode
	}
	return "default"
}
