// Command admin runs maintenance tasks against the JerryGFit database:
// migrations, demo data, admin accounts, password resets and search reindexing.
package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"jerrygfit/api/internal/config"
	"jerrygfit/api/internal/logging"
	"jerrygfit/api/internal/store"
)

// env is shared by every subcommand. The database is opened on first use so
// `admin --help` works without one.
type env struct {
	cfg config.Config
	log zerolog.Logger
	db  *sql.DB
}

func (e *env) open(ctx context.Context) (*sql.DB, error) {
	if e.db != nil {
		return e.db, nil
	}
	db, err := store.Open(ctx, e.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	e.db = db
	return db, nil
}

func (e *env) close() {
	if e.db != nil {
		_ = e.db.Close()
	}
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Maintenance commands for the JerryGFit API database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCmd(e),
		newSeedCmd(e),
		newCreateAdminCmd(e),
		newResetPasswordCmd(e),
		newReindexCmd(e),
	)
	return root
}

func main() {
	cfg := config.Load()
	e := &env{cfg: cfg, log: logging.New(cfg.LogLevel, cfg.LogFormat)}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd(e).ExecuteContext(ctx)
	stop()
	e.close()
	if err != nil {
		e.log.Error().Err(err).Msg("admin command failed")
		os.Exit(1)
	}
}
