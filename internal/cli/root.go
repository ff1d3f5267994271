// Package cli implements safebitectl, the operator command line.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/safebite/platform/internal/common/config"
	"github.com/safebite/platform/internal/common/db"
	"github.com/safebite/platform/internal/common/logging"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the safebitectl command tree
func NewRootCmd() *cobra.Command {
	var timeout time.Duration

	root := &cobra.Command{
		Use:           "safebitectl",
		Short:         "Operate the SafeBite catalog, scraper and price watch stores",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline for the command")

	root.AddCommand(
		newMigrateCmd(&timeout),
		newSeedCmd(&timeout),
		newSearchCmd(&timeout),
		newScrapeCmd(&timeout),
	)
	return root
}

// loadConfig reads configuration and points logrus at it
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.Setup(cfg.LogLevel, cfg.Environment, "safebitectl")
	return cfg, nil
}

func connectMongo(ctx context.Context, cfg *config.Config) (*db.MongoDB, func(), error) {
	catalogDB, err := db.NewMongoDB(ctx, &cfg.Mongo)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = catalogDB.Close(closeCtx)
	}
	return catalogDB, closer, nil
}
