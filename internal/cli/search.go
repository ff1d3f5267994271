package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/safebite/platform/internal/catalog"
	"github.com/spf13/cobra"
)

func newSearchCmd(timeout *time.Duration) *cobra.Command {
	var (
		collection string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search the catalog with the same Atlas/regex chain the API uses",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, ok := catalog.ParseCollection(collection)
			if !ok {
				return fmt.Errorf("unknown collection %q: want products or grocery", collection)
			}
			if limit <= 0 {
				limit = 10
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), *timeout)
			defer cancel()

			catalogDB, closeMongo, err := connectMongo(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeMongo()

			store := catalog.NewMongoStore(catalogDB, &cfg.Mongo)
			return runSearch(ctx, cmd.OutOrStdout(), store, coll, strings.Join(args, " "), limit)
		},
	}
	cmd.Flags().StringVarP(&collection, "collection", "c", string(catalog.Grocery), "products or grocery")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum results")
	return cmd
}

func runSearch(ctx context.Context, w io.Writer, store catalog.Store, coll catalog.Collection, text string, limit int) error {
	docs, method, err := store.Search(ctx, coll, text, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	docs = catalog.NormalizeAll(coll, docs)

	fmt.Fprintf(w, "%d result(s) for %q in %s via %s\n", len(docs), text, coll, method)
	printDocuments(w, docs)
	return nil
}

func printDocuments(w io.Writer, docs []catalog.Document) {
	if len(docs) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tBRAND\tCATEGORY")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", field(d, "name"), field(d, "brand"), field(d, "category"))
	}
	tw.Flush()
}

func field(d catalog.Document, key string) string {
	if s, ok := d[key].(string); ok && s != "" {
		return s
	}
	return "-"
}
