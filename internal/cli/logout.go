package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Long:  "End the session and forget it. The visited list shown afterwards is the one saved on this device.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd)
		},
	}
}

func runLogout(cmd *cobra.Command) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.auth.Session() == nil {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}

	if err := a.auth.SignOut(cmd.Context()); err != nil {
		return fmt.Errorf("signing out: %w", err)
	}

	fmt.Fprintln(a.out, "✓ Signed out.")
	if a.tracker.AuthPromptRequired() {
		countries, cities := a.counts()
		fmt.Fprintf(a.out, "Showing the list saved on this device: %s, %s.\n",
			plural(countries, "country", "countries"), plural(cities, "city", "cities"))
		fmt.Fprintln(a.out, "Run 'been login' to sync with your account.")
	}
	return nil
}
