package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/spf13/cobra"

	"github.com/akozadaev/go_es_listing_engine/internal/config"
	"github.com/akozadaev/go_es_listing_engine/internal/ingest"
	"github.com/akozadaev/go_es_listing_engine/internal/location"
	"github.com/akozadaev/go_es_listing_engine/internal/logging"
	"github.com/akozadaev/go_es_listing_engine/internal/models"
	"github.com/akozadaev/go_es_listing_engine/internal/normalize"
	"github.com/akozadaev/go_es_listing_engine/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "indexer",
		Short:         "Загрузка фидов объявлений и справочника локаций",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
		},
	}
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (json, console)")

	root.AddCommand(newFeedsCommand(cfg), newLocationsCommand(cfg))
	return root
}

func newFeedsCommand(cfg *config.Config) *cobra.Command {
	var (
		feedA string
		feedB string
	)

	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "Нормализовать выгрузки фидов и загрузить их в Elasticsearch",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := []struct {
				source models.Source
				path   string
			}{
				{models.SourceFeedA, feedA},
				{models.SourceFeedB, feedB},
			}

			var batches []normalize.Batch
			for _, s := range sources {
				if s.path == "" {
					continue
				}
				b, err := ingest.ReadFeedFile(s.path, s.source)
				if err != nil {
					return err
				}
				logging.Info().Str("source", string(s.source)).Int("records", len(b.Records)).Msg("feed loaded")
				batches = append(batches, b)
			}
			if len(batches) == 0 {
				return fmt.Errorf("no feed files given: use --feed-a and/or --feed-b")
			}

			esClient, err := elasticsearch.NewClient(elasticsearch.Config{
				Addresses:         []string{cfg.ElasticsearchURL},
				DisableMetaHeader: true,
			})
			if err != nil {
				return fmt.Errorf("failed to create elasticsearch client: %w", err)
			}
			store := storage.NewElasticsearchStorageWithURL(esClient, cfg.ListingsIndex, cfg.ElasticsearchURL)

			res, err := ingest.Run(cmd.Context(), store, batches...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "received=%d stored=%d updated=%d skipped=%d\n",
				res.Received, res.Stored, res.Updated, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&feedA, "feed-a", cfg.FeedAPath, "path to feed A export (JSON)")
	cmd.Flags().StringVar(&feedB, "feed-b", cfg.FeedBPath, "path to feed B export (JSON)")
	cmd.Flags().StringVar(&cfg.ElasticsearchURL, "es-url", cfg.ElasticsearchURL, "Elasticsearch URL")
	cmd.Flags().StringVar(&cfg.ListingsIndex, "index", cfg.ListingsIndex, "listings index name")
	return cmd
}

func newLocationsCommand(cfg *config.Config) *cobra.Command {
	seedPath := cfg.LocationsSeedFile
	if seedPath == "" {
		seedPath = "migrations/locations_seed.yaml"
	}

	cmd := &cobra.Command{
		Use:   "locations",
		Short: "Загрузить справочник локаций и улиц в PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			seed, err := location.LoadSeedFile(seedPath)
			if err != nil {
				return err
			}
			// Проверка уникальности идентификаторов и ссылок улиц до записи.
			if _, err := seed.Index(); err != nil {
				return fmt.Errorf("invalid seed: %w", err)
			}
			streets, err := seed.StreetSegments()
			if err != nil {
				return err
			}

			pg, err := storage.NewPostgresStorage(ctx, cfg.PostgresDSN())
			if err != nil {
				return err
			}
			defer pg.Close()

			if err := pg.SaveReference(ctx, seed.Locations, streets); err != nil {
				return err
			}

			logging.Info().
				Int("locations", len(seed.Locations)).
				Int("streets", len(streets)).
				Msg("location reference saved")
			return nil
		},
	}
	cmd.Flags().StringVar(&seedPath, "seed", seedPath, "path to locations seed (YAML)")
	return cmd
}
