package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rocketscience/rocketscience/pkg/dashboard"
	"github.com/rocketscience/rocketscience/pkg/outcome"
	"github.com/rocketscience/rocketscience/pkg/spacex"
)

func newLaunchesCommand() *cobra.Command {
	var (
		years      []string
		descending bool
		output     string
	)

	cmd := &cobra.Command{
		Use:   "launches",
		Short: "List SpaceX launches",
		Long: `Fetch launches from the SpaceX API and print them.

Selecting years keeps only the successful launches of those years. Without
--year every launch is listed, successful or not. The configured filter is
used when neither --year nor --desc is given.`,
		Example: `  # All launches
  rocket launches

  # Successful launches of 2017 and 2018, newest first
  rocket launches --year 2017 --year 2018 --desc

  # As YAML
  rocket launches --output yaml`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()

			a, err := newApp(ctx, true)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(ctx) }()

			op := a.operation(ctx, "cli.launches")
			defer func() { op.End(err) }()

			criteria := a.cfg.Filter
			if cmd.Flags().Changed("year") || cmd.Flags().Changed("desc") {
				criteria = spacex.FilterCriteria{Years: years, Descending: descending}
			}
			if err := criteria.Validate(); err != nil {
				return err
			}
			if jsonOutput {
				output = outputJSON
			}

			var last *outcome.Failure
			op.Logger.WithFields(map[string]interface{}{
				"years":      criteria.Years,
				"descending": criteria.Descending,
			}).Debug("listing launches")

			for o := range a.repo.FilteredLaunches(op.Ctx, criteria) {
				if !o.OK() {
					last = o.Failure
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", dashboard.Message(o.Failure))
					continue
				}
				last = nil
				if err := renderLaunches(cmd.OutOrStdout(), o.Value, output); err != nil {
					return err
				}
			}

			if last != nil {
				return last
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&years, "year", nil, "launch year to include (repeatable)")
	cmd.Flags().BoolVar(&descending, "desc", false, "order by launch year, newest first")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")

	return cmd
}
