package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("MAGENTO_ROOT", "")
	return dir
}

func writeConfig(t *testing.T, body string, perm os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(Dir(), 0o700))
	require.NoError(t, os.WriteFile(Path(), []byte(body), perm))
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	home := withHome(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "php", cfg.PHPBinary)
	assert.Equal(t, DefaultHostingModule, cfg.HostingModule)
	assert.Equal(t, 2*time.Second, cfg.QueryTTL)
	assert.Equal(t, filepath.Join(home, ".magetui", "history.db"), cfg.HistoryDB)
}

func TestSaveCreatesDirectoriesWithSecurePermissions(t *testing.T) {
	withHome(t)

	cfg := Default()
	cfg.MagentoRoot = "/srv/shop"
	require.NoError(t, cfg.Save())

	info, err := os.Stat(Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(Dir())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())
}

func TestSaveLoadRoundtrip(t *testing.T) {
	withHome(t)

	original := Default()
	original.MagentoRoot = "/srv/shop"
	original.PHPBinary = "/usr/bin/php8.2"
	original.QueryTTL = 5 * time.Second
	original.Database = Database{Host: "db", Port: 3307, Name: "magento", User: "mage", Password: "secret"}
	require.NoError(t, original.Save())

	loaded, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
	assert.True(t, loaded.Database.IsSet())
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	withHome(t)
	writeConfig(t, "magento_root: /var/www\nquery_ttl: 10s\n", 0o600)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/var/www", cfg.MagentoRoot)
	assert.Equal(t, 10*time.Second, cfg.QueryTTL)
	assert.Equal(t, "php", cfg.PHPBinary)
	assert.False(t, cfg.Database.IsSet())
}

func TestLoadInvalidYAML(t *testing.T) {
	withHome(t)
	writeConfig(t, "invalid: yaml: content:", 0o600)

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestConfigPermissionsStrictlyEnforced(t *testing.T) {
	withHome(t)
	writeConfig(t, "php_binary: php\n", 0o600)
	require.NoError(t, os.Chmod(Path(), 0o644))

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permissions")
}

func TestLoadExplicitPath(t *testing.T) {
	withHome(t)
	path := filepath.Join(t.TempDir(), "alt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hosting_module: Acme_Tools\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Acme_Tools", cfg.HostingModule)
}

func TestResolvePrecedence(t *testing.T) {
	withHome(t)
	cfg := Default()
	cfg.MagentoRoot = "/from/config"

	require.NoError(t, cfg.Resolve(""))
	assert.Equal(t, "/from/config", cfg.MagentoRoot)
	assert.Equal(t, "/from/config/var/log", cfg.LogDir)
	assert.Equal(t, "/from/config/var/backups", cfg.BackupDir)

	t.Setenv("MAGENTO_ROOT", "/from/env")
	cfg = Default()
	cfg.MagentoRoot = "/from/config"
	require.NoError(t, cfg.Resolve(""))
	assert.Equal(t, "/from/env", cfg.MagentoRoot)

	cfg = Default()
	require.NoError(t, cfg.Resolve("/from/flag"))
	assert.Equal(t, "/from/flag", cfg.MagentoRoot)
}

func TestResolveKeepsExplicitDirs(t *testing.T) {
	withHome(t)
	cfg := Default()
	cfg.LogDir = "/logs"
	require.NoError(t, cfg.Resolve("/shop"))
	assert.Equal(t, "/logs", cfg.LogDir)
	assert.Equal(t, "/shop/var/backups", cfg.BackupDir)
}
