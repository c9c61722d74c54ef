package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newDBCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the local cache database",
	}

	cmd.AddCommand(newDBMigrateCommand())
	cmd.AddCommand(newDBBackupCommand())
	cmd.AddCommand(newDBRestoreCommand())

	return cmd
}

func newDBMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Schema up to date: %s\n", store.Path())
			return nil
		},
	}
}

func newDBBackupCommand() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up the cache database",
		Long: `Write a consistent copy of the cache database to a new file.

The copy is taken with VACUUM INTO while the database stays usable. The
target file must not exist.`,
		Example: `  rocket db backup --out rocketscience-backup.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			log.Info().
				Str("database", store.Path()).
				Str("out", outFile).
				Msg("Creating backup")

			if err := store.Backup(ctx, outFile); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Backup written: %s\n", outFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "backup output file")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func newDBRestoreCommand() *cobra.Command {
	var fromFile string

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore the cache database from a backup",
		Long: `Replace the cached company record and launches with those of a backup
file created by "rocket db backup". The replacement is atomic.`,
		Example: `  rocket db restore --from rocketscience-backup.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			log.Info().
				Str("database", store.Path()).
				Str("from", fromFile).
				Msg("Restoring backup")

			if err := store.Restore(ctx, fromFile); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Restored from: %s\n", fromFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromFile, "from", "", "backup file to restore")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}
