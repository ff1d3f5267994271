package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/safebite/platform/internal/common/db"
	"github.com/spf13/cobra"
)

func newMigrateCmd(timeout *time.Duration) *cobra.Command {
	var skipMongo bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create Postgres tables and MongoDB catalog indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), *timeout)
			defer cancel()

			database, err := db.NewPostgresDB(&cfg.Database)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := database.MigrateSchema(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Postgres schema migrated")

			if skipMongo {
				return nil
			}
			catalogDB, closeMongo, err := connectMongo(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeMongo()

			if err := catalogDB.EnsureIndexes(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "MongoDB catalog indexes ensured")
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipMongo, "skip-mongo", false, "only migrate Postgres")
	return cmd
}
