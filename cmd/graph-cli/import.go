package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/stwalsh4118/pfman/internal/cache"
	"github.com/stwalsh4118/pfman/internal/geo"
	"github.com/stwalsh4118/pfman/internal/importer"
	"github.com/stwalsh4118/pfman/internal/repository"
	"github.com/stwalsh4118/pfman/internal/services"
)

var (
	importFile        string
	importTitle       string
	importDescription string
	importMapping     string
)

var importPortfolioCmd = &cobra.Command{
	Use:   "import-portfolio",
	Short: "Import a portfolio from a CSV file",
	Long: "Validates every row of the CSV file and stores the valid ones as a new portfolio. " +
		"Columns are matched to address attributes by name unless --mapping is given.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		var mapping importer.Mapping
		if importMapping != "" {
			if err := json.Unmarshal([]byte(importMapping), &mapping); err != nil {
				return eris.Wrap(err, "parse --mapping")
			}
		}

		f, err := os.Open(importFile)
		if err != nil {
			return eris.Wrap(err, "open csv")
		}
		defer func() { _ = f.Close() }()

		resolver, err := geo.NewResolverFromDir(cfg.ReferenceDataDir, log)
		if err != nil {
			return eris.Wrap(err, "load reference data")
		}

		portfolioCache, err := openCache(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = portfolioCache.Close() }()

		var description *string
		if cmd.Flags().Changed("description") {
			description = &importDescription
		}

		return withStore(ctx, func(db graphStore) error {
			svc := services.NewPortfolioService(repository.NewPortfolioRepository(db), portfolioCache, resolver, log)
			portfolio, preview, err := svc.ImportPortfolio(ctx, f, mapping, importTitle, description)
			if preview != nil {
				printSkippedRows(cmd, preview)
			}
			if err != nil {
				if errors.Is(err, services.ErrNoValidRows) {
					return eris.Wrapf(err, "%s", importFile)
				}
				return eris.Wrap(err, "import portfolio")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported portfolio %s with %d properties (%d rows skipped).\n",
				portfolio.ID, len(portfolio.Properties), preview.InvalidCount)
			return nil
		})
	},
}

// openCache connects to Redis when it is configured so the server's cached
// portfolio list is invalidated by the import.
func openCache(ctx context.Context) (cache.PortfolioCache, error) {
	if cfg.Redis.URL == "" {
		return cache.NoopPortfolioCache{}, nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, eris.Wrap(err, "connect to redis")
	}
	return cache.NewRedisPortfolioCache(client, cfg.Redis.CacheTTL, log), nil
}

func printSkippedRows(cmd *cobra.Command, preview *importer.Preview) {
	out := cmd.ErrOrStderr()
	for _, row := range preview.Rows {
		if row.Valid {
			continue
		}
		fields := make([]string, 0, len(row.Errors))
		for field := range row.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		fmt.Fprintf(out, "line %d skipped:", row.Line)
		for _, field := range fields {
			fmt.Fprintf(out, " %s: %v;", field, row.Errors[field])
		}
		fmt.Fprintln(out)
	}
}

func init() {
	importPortfolioCmd.Flags().StringVar(&importFile, "file", "", "path to the CSV file (required)")
	importPortfolioCmd.Flags().StringVar(&importTitle, "title", "", "portfolio title (required)")
	importPortfolioCmd.Flags().StringVar(&importDescription, "description", "", "portfolio description")
	importPortfolioCmd.Flags().StringVar(&importMapping, "mapping", "", `JSON object of CSV column to attribute, e.g. {"Zip":"postal_code"}`)
	_ = importPortfolioCmd.MarkFlagRequired("file")
	_ = importPortfolioCmd.MarkFlagRequired("title")
	rootCmd.AddCommand(importPortfolioCmd)
}
