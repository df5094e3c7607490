package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidycode/magetui/internal/magento"
	"github.com/tidycode/magetui/internal/process"
)

func newDatabaseService(t *testing.T, conn magento.Connection) *DatabaseService {
	t.Helper()
	b := newTestBase(newFakeMagento(t))
	b.conn = conn
	return &DatabaseService{base: b, monitor: process.NewMonitor(), backupDir: t.TempDir()}
}

func TestListBackupsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	for i, name := range []string{"old.sql", "newest.sql.gz", "middle.sql.gz"} {
		path := filepath.Join(dir, name)
		writeFile(t, path, "-- dump")
		age := map[int]time.Duration{0: 3 * time.Hour, 1: 0, 2: time.Hour}[i]
		require.NoError(t, os.Chtimes(path, now.Add(-age), now.Add(-age)))
	}
	writeFile(t, filepath.Join(dir, "readme.txt"), "x")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.sql"), 0o755))

	backups, err := ListBackups(dir)
	require.NoError(t, err)
	require.Len(t, backups, 3)
	assert.Equal(t, "newest.sql.gz", backups[0].Name)
	assert.Equal(t, "middle.sql.gz", backups[1].Name)
	assert.Equal(t, "old.sql", backups[2].Name)
	assert.Equal(t, int64(len("-- dump")), backups[0].Size)
}

func TestListBackupsMissingDir(t *testing.T) {
	backups, err := ListBackups(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestDumpPath(t *testing.T) {
	svc := newDatabaseService(t, magento.Connection{})
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	assert.Equal(t, filepath.Join(svc.BackupDir(), "db_backup_2024-03-09_14-05-07.sql.gz"), svc.DumpPath(at))
}

func TestDumpAndRestoreCommands(t *testing.T) {
	svc := newDatabaseService(t, magento.Connection{
		Host: "db", Port: 3307, Name: "shop", User: "mage", Password: "s3cret",
	})

	assert.Equal(t,
		"mysqldump -u 'mage' -h 'db' -P 3307 'shop' --single-transaction --quick --lock-tables=false | gzip > '/b/x.sql.gz'",
		svc.DumpCommand("/b/x.sql.gz"))
	assert.Equal(t,
		"mysqldump -u 'mage' -h 'db' -P 3307 'shop' --single-transaction --quick --lock-tables=false > '/b/x.sql'",
		svc.DumpCommand("/b/x.sql"))
	assert.Equal(t, "gunzip < '/b/x.sql.gz' | mysql -u 'mage' -h 'db' -P 3307 'shop'", svc.RestoreCommand("/b/x.sql.gz"))
	assert.Equal(t, "mysql -u 'mage' -h 'db' -P 3307 'shop' < '/b/x.sql'", svc.RestoreCommand("/b/x.sql"))

	assert.NotContains(t, svc.DumpCommand("/b/x.sql"), "s3cret")
	assert.Equal(t, []string{"MYSQL_PWD=s3cret"}, svc.clientEnv())
}

func TestSocketConnectionCommand(t *testing.T) {
	svc := newDatabaseService(t, magento.Connection{Socket: "/run/mysqld.sock", Name: "shop", User: "mage"})
	assert.Equal(t, "mysql -u 'mage' --socket='/run/mysqld.sock' 'shop' < '/b/x.sql'", svc.RestoreCommand("/b/x.sql"))
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, `'plain'`, shellQuote("plain"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}

func TestStartWithoutDatabase(t *testing.T) {
	svc := newDatabaseService(t, magento.Connection{})
	ctx := context.Background()
	assert.True(t, errors.Is(svc.StartDump(ctx, svc.DumpPath(time.Now())), ErrNoDatabase))
	assert.True(t, errors.Is(svc.StartRestore(ctx, "/nope.sql"), ErrNoDatabase))
}

func TestStartRestoreMissingBackup(t *testing.T) {
	svc := newDatabaseService(t, magento.Connection{Name: "shop"})
	err := svc.StartRestore(context.Background(), filepath.Join(svc.BackupDir(), "gone.sql"))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestBackgroundPipelineOutput(t *testing.T) {
	svc := newDatabaseService(t, magento.Connection{Name: "shop"})
	require.NoError(t, svc.start(context.Background(), OpDump, "echo dumping; echo done"))
	assert.Equal(t, OpDump, svc.Operation())

	require.Eventually(t, func() bool { return !svc.IsProcessing() }, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, svc.Output(), "dumping")
	assert.Equal(t, 0, svc.LastExit())

	svc.Clear()
	assert.Empty(t, svc.Output())
	assert.Empty(t, svc.Operation())
}
