package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidycode/magetui/internal/process"
)

// Database operations.
const (
	OpDump    = "dump"
	OpRestore = "restore"
)

// DBInfo is the connection shown on the Database screen.
type DBInfo struct {
	Host string
	Port int
	Name string
	User string
}

// Backup is one dump file in the backup directory.
type Backup struct {
	Name     string
	Path     string
	Size     int64
	Modified time.Time
}

// DatabaseService creates and restores dumps with mysqldump and mysql.
type DatabaseService struct {
	*base
	monitor   *process.Monitor
	backupDir string
}

// Info returns the connection details.
func (s *DatabaseService) Info() DBInfo {
	return DBInfo{Host: s.conn.Host, Port: s.conn.Port, Name: s.conn.Name, User: s.conn.User}
}

// BackupDir is where dumps are written.
func (s *DatabaseService) BackupDir() string { return s.backupDir }

// DumpPath names a new dump for the given time.
func (s *DatabaseService) DumpPath(now time.Time) string {
	return filepath.Join(s.backupDir, "db_backup_"+now.Format("2006-01-02_15-04-05")+".sql.gz")
}

var backupName = regexp.MustCompile(`\.sql(\.gz)?$`)

// Backups lists *.sql and *.sql.gz files, newest first.
func (s *DatabaseService) Backups() ([]Backup, error) {
	return ListBackups(s.backupDir)
}

// ListBackups lists dump files in dir, newest first.
func ListBackups(dir string) ([]Backup, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	var out []Backup
	for _, e := range entries {
		if e.IsDir() || !backupName.MatchString(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Backup{
			Name:     e.Name(),
			Path:     filepath.Join(dir, e.Name()),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Modified.After(out[j].Modified) })
	return out, nil
}

// clientArgs renders the shared mysql/mysqldump connection flags. The
// password travels in MYSQL_PWD so it never shows up in ps.
func (s *DatabaseService) clientArgs() string {
	c := s.conn
	args := []string{"-u", shellQuote(c.User)}
	if c.Socket != "" {
		args = append(args, "--socket="+shellQuote(c.Socket))
	} else {
		args = append(args, "-h", shellQuote(c.Host), "-P", strconv.Itoa(c.Port))
	}
	return strings.Join(args, " ")
}

func (s *DatabaseService) clientEnv() []string {
	return []string{"MYSQL_PWD=" + s.conn.Password}
}

// DumpCommand is the shell pipeline for a dump to path.
func (s *DatabaseService) DumpCommand(path string) string {
	cmd := fmt.Sprintf("mysqldump %s %s --single-transaction --quick --lock-tables=false",
		s.clientArgs(), shellQuote(s.conn.Name))
	if strings.HasSuffix(path, ".gz") {
		return cmd + " | gzip > " + shellQuote(path)
	}
	return cmd + " > " + shellQuote(path)
}

// RestoreCommand is the shell pipeline that loads path.
func (s *DatabaseService) RestoreCommand(path string) string {
	mysql := fmt.Sprintf("mysql %s %s", s.clientArgs(), shellQuote(s.conn.Name))
	if strings.HasSuffix(path, ".gz") {
		return "gunzip < " + shellQuote(path) + " | " + mysql
	}
	return mysql + " < " + shellQuote(path)
}

// StartDump runs a dump to path in the background.
func (s *DatabaseService) StartDump(ctx context.Context, path string) error {
	if s.conn.Name == "" {
		return ErrNoDatabase
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	err := s.start(ctx, OpDump, s.DumpCommand(path))
	s.record(ctx, "database", OpDump, filepath.Base(path), err)
	return err
}

// StartRestore loads path in the background.
func (s *DatabaseService) StartRestore(ctx context.Context, path string) error {
	if s.conn.Name == "" {
		return ErrNoDatabase
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("backup %s: %w", filepath.Base(path), ErrNotFound)
	}
	err := s.start(ctx, OpRestore, s.RestoreCommand(path))
	s.record(ctx, "database", OpRestore, filepath.Base(path), err)
	return err
}

func (s *DatabaseService) start(ctx context.Context, op, pipeline string) error {
	spec := process.Spec{
		Name: "/bin/sh",
		Args: []string{"-c", "set -o pipefail 2>/dev/null; " + pipeline},
		Dir:  s.mage.Path(),
		Env:  s.clientEnv(),
	}
	return s.monitor.Start(ctx, op, spec)
}

// IsProcessing polls the running dump or restore.
func (s *DatabaseService) IsProcessing() bool { return s.monitor.IsBusy() }

// Operation is OpDump, OpRestore or empty.
func (s *DatabaseService) Operation() string { return s.monitor.Label() }

func (s *DatabaseService) Output() string { return s.monitor.Output() }

// LastExit is the exit code of the last finished operation.
func (s *DatabaseService) LastExit() int { return s.monitor.LastExit() }

func (s *DatabaseService) Clear() { s.monitor.Clear() }

// shellQuote wraps s in single quotes for /bin/sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
