package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rocketscience/rocketscience/pkg/dashboard"
	"github.com/rocketscience/rocketscience/pkg/outcome"
)

func newCompanyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "company",
		Short: "Show SpaceX company information",
		Long: `Fetch the company record from the SpaceX API and print its description.

When the API cannot be reached the failure is reported first and the cached
record, if any, is printed after it.`,
		Example: `  # Print the company description
  rocket company

  # Print the record as JSON
  rocket company --json`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()

			a, err := newApp(ctx, true)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(ctx) }()

			op := a.operation(ctx, "cli.company")
			defer func() { op.End(err) }()

			var last *outcome.Failure
			for o := range a.repo.CompanyInfo(op.Ctx) {
				if !o.OK() {
					last = o.Failure
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", dashboard.Message(o.Failure))
					continue
				}
				last = nil
				if jsonOutput {
					if err := writeJSON(cmd.OutOrStdout(), o.Value); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), o.Value.Description())
			}

			if last != nil {
				return last
			}
			return nil
		},
	}

	return cmd
}
