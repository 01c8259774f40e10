// Package cli defines the cobra command tree for been.
package cli

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/been/internal/client"
	"github.com/evcraddock/been/internal/db"
	"github.com/evcraddock/been/internal/geo"
	"github.com/evcraddock/been/internal/localstore"
	"github.com/evcraddock/been/internal/logging"
	"github.com/evcraddock/been/internal/tracker"
)

var (
	flagFormat string
	flagDB     string
)

// newLoader builds the reference data loader. Tests point it at fixtures.
var newLoader = func() *geo.Loader {
	return geo.NewLoader(slog.Default())
}

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "been",
		Short:         "Track the countries and cities you have visited",
		Long:          "A travel tracker. Mark countries and cities you have been to, browse statistics, and sync your list to an account server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(devMode())
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.been/been.db)")

	root.AddCommand(
		newMarkCmd(),
		newUnmarkCmd(),
		newCityCmd(),
		newCitiesCmd(),
		newListCmd(),
		newStatsCmd(),
		newSearchCmd(),
		newLocateCmd(),
		newResetCmd(),
		newSignupCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newServeCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the SQLite database using the --db flag or default path.
func openDB() (*sql.DB, error) {
	path := flagDB
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}

// app is the per-invocation wiring of the local database, the session and
// the tracker.
type app struct {
	db      *sql.DB
	auth    *client.Auth
	tracker *tracker.Tracker
	out     io.Writer
	errOut  io.Writer
}

// openApp opens the device database, restores the saved session and
// hydrates the tracker.
func openApp(cmd *cobra.Command) (*app, error) {
	database, err := openDB()
	if err != nil {
		return nil, err
	}

	auth, err := client.NewAuth(getServerURL(), configSessions{})
	if err != nil {
		closeDB(database)
		return nil, err
	}

	t := tracker.New(
		localstore.New(database, slog.Default()),
		client.NewRemoteStore(auth),
		auth,
	)

	a := &app{
		db:      database,
		auth:    auth,
		tracker: t,
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
	}

	t.Init(cmd.Context())
	switch {
	case t.AuthPromptRequired():
		fmt.Fprintln(a.errOut, "note: your session has expired; run 'been login' to sync again")
	case t.SyncSuspended():
		fmt.Fprintln(a.errOut, "note: could not load your account data; changes will not sync this run")
	}

	return a, nil
}

// Close stops the tracker and closes the database.
func (a *app) Close() {
	a.tracker.Teardown()
	closeDB(a.db)
}

// report prints a one-line note when a change did not reach the account.
func (a *app) report(res tracker.Result) {
	switch res.Outcome {
	case tracker.OutcomeDegraded:
		fmt.Fprintln(a.errOut, "note: saved on this device; account sync failed")
	case tracker.OutcomeAuthRequired:
		fmt.Fprintln(a.errOut, "note: saved on this device; run 'been login' to sync")
	}
}

// loadReference fetches the reference data the command needs. A failed
// fetch leaves its part nil.
func loadReference(cmd *cobra.Command, boundaries, metadata bool) geo.Reference {
	l := newLoader()
	if !boundaries {
		l.Boundaries = nil
	}
	if !metadata {
		l.Metadata = nil
	}
	return l.Load(cmd.Context())
}
