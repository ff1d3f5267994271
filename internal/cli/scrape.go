package cli

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/safebite/platform/internal/common/config"
	"github.com/safebite/platform/internal/scraper"
	"github.com/spf13/cobra"
)

func newScrapeCmd(timeout *time.Duration) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run the scraper once and print the results as JSON",
	}

	grocery := &cobra.Command{
		Use:   "grocery <query>",
		Short: "Scrape grocery offers for a product query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withScraper(cmd, *timeout, func(ctx context.Context, svc *scraper.Service) (interface{}, error) {
				return svc.ScrapeGrocery(ctx, args[0])
			})
		},
	}

	food := &cobra.Command{
		Use:   "food <food> <city>",
		Short: "Scrape restaurants serving a dish in a city",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withScraper(cmd, *timeout, func(ctx context.Context, svc *scraper.Service) (interface{}, error) {
				return svc.ScrapeFoodDelivery(ctx, args[0], args[1], nil)
			})
		},
	}

	cmd.AddCommand(grocery, food)
	return cmd
}

// withScraper runs fn against a scraper that does not publish offers
func withScraper(cmd *cobra.Command, timeout time.Duration, fn func(context.Context, *scraper.Service) (interface{}, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	svc, closeFetcher, err := newOneShotScraper(cfg)
	if err != nil {
		return err
	}
	defer closeFetcher()

	result, err := fn(ctx, svc)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), result)
}

func newOneShotScraper(cfg *config.Config) (*scraper.Service, func(), error) {
	fetcher := scraper.NewFetcher(&cfg.Scraper)
	closer := func() {
		if c, ok := fetcher.(io.Closer); ok {
			_ = c.Close()
		}
	}

	svc, err := scraper.NewScraperService(cfg, fetcher, nil)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return svc, closer, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
