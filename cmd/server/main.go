// Command gamerater runs the game rating API.
//
//	gamerater                 serve (default)
//	gamerater serve           serve on server.port
//	gamerater migrate up      apply all migrations
//	gamerater migrate down    roll every migration back
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sakif/gamerater/internal/config"
	"github.com/sakif/gamerater/internal/repository/sqlstore"
	"github.com/sakif/gamerater/internal/server"
)

var cfgFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "gamerater",
	Short:        "Game catalog, rating and review API",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(store *sqlstore.Store, logger *slog.Logger) error {
			if err := store.Migrate(); err != nil {
				return err
			}
			logger.Info("migrations applied")
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(store *sqlstore.Store, logger *slog.Logger) error {
			if err := store.MigrateDown(); err != nil {
				return err
			}
			logger.Info("migrations rolled back")
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./gamerater.yaml or ./configs/gamerater.yaml)")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// setup loads .env, then the config, then builds the logger.
func setup() (*config.Config, *slog.Logger, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg.Log, os.Stdout)
	if err != nil {
		return nil, nil, err
	}
	if err := ensureDataDir(cfg.Database); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	srv, err := server.New(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	return srv.Start()
}

func withStore(ctx context.Context, fn func(*sqlstore.Store, *slog.Logger) error) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store, logger)
}

// ensureDataDir creates the directory of a SQLite database file so a fresh
// checkout can start without setup.
func ensureDataDir(db config.DatabaseConfig) error {
	if db.Driver != config.DriverSQLite || db.DSN == ":memory:" {
		return nil
	}
	dir := filepath.Dir(db.DSN)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	return nil
}
