package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear all travel data",
		Long:  "Remove every visited country, city and recent visit from this device and, when signed in, from your account.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(cmd, yes)
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")

	return cmd
}

func runReset(cmd *cobra.Command, yes bool) error {
	if !yes {
		answer, err := prompt(bufio.NewReader(cmd.InOrStdin()), cmd.ErrOrStderr(),
			"This deletes all your travel data. Type 'yes' to continue: ")
		if err != nil {
			return err
		}
		if strings.ToLower(strings.TrimSpace(answer)) != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.tracker.Reset(cmd.Context())
	if err != nil {
		return err
	}
	a.report(res)

	if isJSON() {
		return printJSON(a.out, map[string]string{"sync": res.Outcome.String()})
	}
	fmt.Fprintln(a.out, "✓ All travel data cleared.")
	return nil
}
