package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/been/internal/client"
)

const statusTimeout = 5 * time.Second

type statusResult struct {
	Server    string `json:"server"`
	SignedIn  bool   `json:"signed_in"`
	Email     string `json:"email,omitempty"`
	Connected bool   `json:"connected"`
	Valid     bool   `json:"valid"`
	Error     string `json:"error,omitempty"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection and sign-in status",
		Long:  "Tests the connection to the server and checks if the saved session is still valid.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd)
		},
	}
}

func runStatus(cmd *cobra.Command) error {
	serverURL := getServerURL()
	out := cmd.OutOrStdout()

	auth, err := client.NewAuth(serverURL, configSessions{})
	if err != nil {
		return err
	}

	res := statusResult{Server: serverURL}
	sess := auth.Session()
	if sess != nil {
		res.SignedIn = true
		res.Email = sess.Email

		ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
		defer cancel()

		_, err := auth.Verify(ctx)
		switch {
		case err == nil:
			res.Connected, res.Valid = true, true
		case errors.Is(err, client.ErrUnauthorized):
			res.Connected = true
		default:
			res.Error = err.Error()
		}
	}

	if isJSON() {
		return printJSON(out, res)
	}

	fmt.Fprintf(out, "Server:  %s\n", res.Server)
	if !res.SignedIn {
		fmt.Fprintln(out, "Account: not signed in")
		fmt.Fprintln(out, "\nRun 'been login' to sync your list with an account.")
		return nil
	}
	fmt.Fprintf(out, "Account: %s\n", res.Email)

	switch {
	case res.Valid:
		fmt.Fprintln(out, "Status:  ✓ connected and signed in")
	case res.Connected:
		fmt.Fprintln(out, "Status:  ✗ session expired")
		fmt.Fprintln(out, "\nRun 'been login' to sign in again.")
	default:
		fmt.Fprintf(out, "Status:  ✗ cannot reach server (%s)\n", res.Error)
	}

	return nil
}
