package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidycode/magetui/internal/config"
	"github.com/tidycode/magetui/internal/services"
)

func TestRootCmdFlags(t *testing.T) {
	root := RootCmd()
	assert.Equal(t, "magetui", root.Use)
	assert.True(t, root.SilenceUsage)
	assert.True(t, root.SilenceErrors)
	require.NotNil(t, root.Flags().Lookup("root"))
	require.NotNil(t, root.Flags().Lookup("config"))
	assert.Empty(t, root.Commands())
}

func TestRootCmdRejectsArgs(t *testing.T) {
	root := RootCmd()
	root.SetArgs([]string{"extra"})
	assert.Error(t, root.Execute())
}

func TestRunRejectsOpenConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("php_binary: php\n"), 0o644))

	err := Run(context.Background(), Options{ConfigPath: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config permissions too open")
}

func TestOpenWithoutDatabase(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.PHPBinary = filepath.Join(root, "no-php")
	cfg.HistoryDB = filepath.Join(t.TempDir(), "history.db")
	require.NoError(t, cfg.Resolve(root))

	reg, cleanup, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	assert.Equal(t, filepath.Join(root, "var", "log"), reg.Logs.Dir())
	assert.Equal(t, filepath.Join(root, "var", "backups"), reg.Database.BackupDir())

	_, err = reg.URLs.List(context.Background())
	assert.True(t, errors.Is(err, services.ErrNoDatabase))
}
