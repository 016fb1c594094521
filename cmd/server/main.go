// @title           Listing Search & Market Analytics API
// @version         1.0
// @description     REST API поиска объявлений о недвижимости, кластеризации для карты и рыночной аналитики.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.email  akozadaev@inbox.ru
// @contact.url    https://github.com/akozadaev/go_es_listing_engine

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @schemes   http https
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/akozadaev/go_es_listing_engine/docs" // swagger docs
	"github.com/akozadaev/go_es_listing_engine/internal/config"
	"github.com/akozadaev/go_es_listing_engine/internal/engine"
	"github.com/akozadaev/go_es_listing_engine/internal/handlers"
	"github.com/akozadaev/go_es_listing_engine/internal/ingest"
	"github.com/akozadaev/go_es_listing_engine/internal/location"
	"github.com/akozadaev/go_es_listing_engine/internal/logging"
	"github.com/akozadaev/go_es_listing_engine/internal/media"
	"github.com/akozadaev/go_es_listing_engine/internal/models"
	"github.com/akozadaev/go_es_listing_engine/internal/normalize"
	"github.com/akozadaev/go_es_listing_engine/internal/query"
	"github.com/akozadaev/go_es_listing_engine/internal/storage"
)

func main() {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()

	store, err := newListingStore(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize listing store")
	}

	resolver, err := newResolver(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load location reference")
	}
	logging.Info().
		Int("locations", resolver.Index().Len()).
		Int("streets", resolver.Index().StreetCount()).
		Msg("location reference loaded")

	enricher := media.NewEnricher(media.Config{
		BaseURL:     cfg.MediaProviderURL,
		Concurrency: cfg.MediaConcurrency,
		RatePerSec:  cfg.MediaRatePerSec,
		Placeholder: cfg.MediaPlaceholderURL,
		Timeout:     cfg.MediaTimeout,
	})

	qe := query.NewEngine(store, query.WithPageSizes(cfg.DefaultPageSize, cfg.MaxPageSize))
	svc := engine.NewService(qe, resolver, enricher, engine.Options{
		MillageRate:            cfg.MillageRate,
		MinAppreciationSamples: cfg.MinAppreciationSamples,
	})
	h := handlers.NewHandlers(svc)

	// Настройка роутера
	router := mux.NewRouter()
	h.Register(router)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Swagger UI
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("http://localhost:"+cfg.AppPort+"/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	router.Use(handlers.CORS, handlers.RequestLogger)

	// Настройка сервера
	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logging.Info().Str("port", cfg.AppPort).Str("backend", cfg.StoreBackend).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logging.Info().Msg("server exited")
}

// newListingStore создает хранилище объявлений. Хранилище в памяти заполняется
// из выгрузок фидов FEED_A_PATH и FEED_B_PATH.
func newListingStore(ctx context.Context, cfg *config.Config) (query.Store, error) {
	if cfg.StoreBackend == config.BackendMemory {
		store := storage.NewMemoryStorage()
		feeds := []struct {
			source models.Source
			path   string
		}{
			{models.SourceFeedA, cfg.FeedAPath},
			{models.SourceFeedB, cfg.FeedBPath},
		}

		var batches []normalize.Batch
		for _, f := range feeds {
			if f.path == "" {
				continue
			}
			b, err := ingest.ReadFeedFile(f.path, f.source)
			if err != nil {
				return nil, err
			}
			batches = append(batches, b)
		}
		if _, err := ingest.Run(ctx, store, batches...); err != nil {
			return nil, err
		}
		return store, nil
	}

	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:         []string{cfg.ElasticsearchURL},
		DisableMetaHeader: true,
	})
	if err != nil {
		return nil, err
	}
	esStorage := storage.NewElasticsearchStorageWithURL(esClient, cfg.ListingsIndex, cfg.ElasticsearchURL)

	if mapping := readMapping(); len(mapping) > 0 {
		if err := esStorage.CreateIndex(ctx, string(mapping)); err != nil {
			logging.Warn().Err(err).Msg("could not create listings index")
		} else {
			logging.Info().Str("index", cfg.ListingsIndex).Msg("elasticsearch index created/verified")
		}
	} else {
		logging.Warn().Msg("could not read mapping file from any location")
	}

	return esStorage, nil
}

// readMapping ищет файл маппинга в нескольких местах относительно рабочего каталога и бинарника.
func readMapping() []byte {
	paths := []string{
		"migrations/elasticsearch_mapping.json",
		"../migrations/elasticsearch_mapping.json",
		filepath.Join(filepath.Dir(os.Args[0]), "../migrations/elasticsearch_mapping.json"),
	}
	for _, path := range paths {
		if data, err := os.ReadFile(path); err == nil {
			return data
		}
	}
	return nil
}

// newResolver загружает справочник локаций из YAML-файла или PostgreSQL.
func newResolver(ctx context.Context, cfg *config.Config) (*location.Resolver, error) {
	if cfg.LocationsSeedFile != "" {
		seed, err := location.LoadSeedFile(cfg.LocationsSeedFile)
		if err != nil {
			return nil, err
		}
		idx, err := seed.Index()
		if err != nil {
			return nil, err
		}
		return location.NewResolver(idx), nil
	}

	pg, err := storage.NewPostgresStorage(ctx, cfg.PostgresDSN())
	if err != nil {
		return nil, err
	}
	defer pg.Close()

	locations, err := pg.LoadLocations(ctx)
	if err != nil {
		return nil, err
	}
	streets, err := pg.LoadStreets(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := location.NewIndex(locations, streets)
	if err != nil {
		return nil, err
	}
	return location.NewResolver(idx), nil
}
