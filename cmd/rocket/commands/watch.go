package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rocketscience/rocketscience/pkg/config"
	"github.com/rocketscience/rocketscience/pkg/dashboard"
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the dashboard state",
		Long: `Load the dashboard and print every state change until interrupted.

Cache updates are followed, so data written by another process (for example
a running "rocket serve") shows up here as well, within store.poll_interval.
Editing the filter section of the config file re-applies the filter.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, false)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(ctx) }()

			vm := dashboard.NewViewModel(a.repo, a.tel.Logger)
			defer vm.Close()
			vm.SetFilter(a.cfg.Filter)

			if a.loader.ConfigFile() != "" {
				err := a.loader.Watch(ctx, func(cfg *config.Config) {
					go func() { _ = vm.ApplyFilter(ctx, cfg.Filter) }()
				})
				if err != nil {
					a.tel.Logger.WithError(err).Warn("config watch disabled")
				}
			}

			states := vm.Subscribe(ctx)
			go func() { _ = vm.Load(ctx) }()

			for s := range states {
				if err := printState(cmd.OutOrStdout(), s); err != nil {
					return err
				}
			}
			return nil
		},
	}

	return cmd
}

func printState(w io.Writer, s dashboard.State) error {
	if jsonOutput {
		return writeJSON(w, s)
	}

	fmt.Fprintf(w, "── %s ──\n", s.UI)
	if s.Error != "" {
		fmt.Fprintf(w, "error: %s\n", s.Error)
	}
	if s.Company != nil {
		fmt.Fprintln(w, s.Company.Description())
	}
	if len(s.Launches) > 0 {
		return renderLaunches(w, s.Launches, outputTable)
	}
	return nil
}
