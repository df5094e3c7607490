package cmd

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tidycode/magetui/internal/config"
	"github.com/tidycode/magetui/internal/history"
	"github.com/tidycode/magetui/internal/input"
	"github.com/tidycode/magetui/internal/logging"
	"github.com/tidycode/magetui/internal/magento"
	"github.com/tidycode/magetui/internal/services"
	"github.com/tidycode/magetui/internal/terminal"
	"github.com/tidycode/magetui/internal/ui"
)

// Options are the root command flags.
type Options struct {
	Root       string
	ConfigPath string
}

// RootCmd returns the `magetui` command. It has no subcommands.
func RootCmd() *cobra.Command {
	var opts Options
	root := &cobra.Command{
		Use:   "magetui",
		Short: "Magento terminal admin",
		Long:  "magetui: manage caches, indexers, modules, deploys, store URLs, logs and backups of a Magento installation.",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return Run(c.Context(), opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Flags().StringVar(&opts.Root, "root", "", "Magento installation directory (default: $MAGENTO_ROOT, config, or working directory)")
	root.Flags().StringVar(&opts.ConfigPath, "config", "", "config file (default: ~/.magetui/config.yaml)")
	return root
}

// Run wires the services to the installation and drives the session until
// the user quits. The terminal is restored on every exit path.
func Run(ctx context.Context, opts Options) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.Resolve(opts.Root); err != nil {
		return err
	}

	closeLog, err := logging.Init(logging.ParseLevel(cfg.LogLevel), cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	reg, cleanup, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	term, err := terminal.Open(os.Stdin, os.Stdout)
	if err != nil {
		if errors.Is(err, terminal.ErrNotTerminal) {
			return errors.New("stdin is not a terminal")
		}
		return err
	}
	defer func() {
		if rerr := term.Restore(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	logging.Info("app", "session started root=%s", cfg.MagentoRoot)
	app := ui.NewApp(ui.NewManager(), ui.NewContext(ctx, reg), term, input.NewDecoder(term))
	if err := app.Run(ctx); err != nil {
		logging.Error("app", err, "session ended")
		return err
	}
	logging.Info("app", "session ended")
	return nil
}

// Open builds the service registry for cfg. A missing or unreachable
// database is logged and leaves DB-backed features reporting
// services.ErrNoDatabase. The returned func releases the journal and the
// pool.
func Open(ctx context.Context, cfg *config.Config) (*services.Registry, func(), error) {
	journal, err := history.Open(ctx, cfg.HistoryDB)
	if err != nil {
		return nil, nil, err
	}

	platform := magento.NewPlatform(cfg.MagentoRoot, cfg.PHPBinary)

	var conn magento.Connection
	env, err := platform.ReadPHPArray(ctx, "app/etc/env.php")
	if err != nil {
		logging.Warn("app", "read env.php: %v", err)
	} else {
		conn = magento.ConnectionFromEnv(env)
	}
	conn = conn.Merge(cfg.Database)

	db := openDB(ctx, conn)

	reg := services.New(services.Deps{
		Magento:       platform,
		Conn:          conn,
		DB:            db,
		Journal:       journal,
		TTL:           cfg.QueryTTL,
		LogDir:        cfg.LogDir,
		BackupDir:     cfg.BackupDir,
		HostingModule: cfg.HostingModule,
	})

	cleanup := func() {
		if reg.Logs != nil {
			reg.Logs.StopTail()
		}
		if db != nil {
			_ = db.Close()
		}
		if err := journal.Close(); err != nil {
			logging.Error("history", err, "close journal")
		}
	}
	return reg, cleanup, nil
}

// openDB returns nil when no database is configured or it cannot be
// reached.
func openDB(ctx context.Context, conn magento.Connection) *sql.DB {
	if conn.Name == "" {
		logging.Warn("db", "no database configured")
		return nil
	}
	db, err := magento.OpenDB(conn)
	if err != nil {
		logging.Error("db", err, "open %s", conn.Name)
		return nil
	}
	if err := db.PingContext(ctx); err != nil {
		logging.Error("db", err, "ping %s", conn.Name)
		_ = db.Close()
		return nil
	}
	return db
}
