package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evcraddock/been/internal/auth"
	"github.com/evcraddock/been/internal/cities"
	"github.com/evcraddock/been/internal/db"
	"github.com/evcraddock/been/internal/logging"
	"github.com/evcraddock/been/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the account server",
		Long:  "Start the HTTP server that stores accounts and their travel data. Set BEEN_DATABASE_URL to a postgres:// URL to use PostgreSQL instead of the SQLite file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")

	return cmd
}

func runServe(ctx context.Context, port int) error {
	cfg := auth.ConfigFromEnv()
	logging.Setup(cfg.DevMode)

	database, err := openServerDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(database)

	srv, err := web.NewServer(database, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []cities.Option{cities.WithLogger(slog.Default())}
	if url := getRedisURL(); url != "" {
		cache, closeCache, err := cities.NewRedisCacheFromURL(ctx, url)
		if err != nil {
			return fmt.Errorf("opening city cache: %w", err)
		}
		defer func() {
			if err := closeCache(); err != nil {
				slog.Warn("closing city cache", "err", err)
			}
		}()
		opts = append(opts, cities.WithCache(cache))
	} else {
		opts = append(opts, cities.WithCache(cities.NewMemoryCache()))
	}
	srv.SetCityDirectory(newCityDirectory(getGeoNamesUsername(), opts...))

	return srv.ListenAndServe(ctx, port)
}

// openServerDB opens BEEN_DATABASE_URL when set and the --db SQLite file
// otherwise.
func openServerDB(cfg auth.Config) (*sql.DB, error) {
	if cfg.DatabaseURL != "" {
		return db.OpenURL(cfg.DatabaseURL)
	}
	return openDB()
}
