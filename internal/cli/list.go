package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/been/internal/travel"
)

func newListCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visited countries and cities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, filter)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "all", "what to list (all|countries|cities)")

	return cmd
}

func runList(cmd *cobra.Command, filterArg string) error {
	filter, err := travel.ParseFilter(filterArg)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ref := loadReference(cmd, false, true)
	items := a.tracker.Items(filter, ref.Catalog.Lookup)

	if isJSON() {
		return printJSON(a.out, items)
	}
	return printItems(a.out, items)
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show travel statistics",
		Long:  "Show how many countries and cities you have visited, your share of the world, a breakdown by continent and region, and your most recent visits.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd)
		},
	}
}

func runStats(cmd *cobra.Command) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ref := loadReference(cmd, false, true)
	st := a.tracker.Stats(ref.Catalog.Lookup)

	if isJSON() {
		return printJSON(a.out, st)
	}
	printStats(a.out, st)
	return nil
}
