// Package media дополняет выдачу фотографиями от внешнего провайдера.
// Провайдер считается ненадежным: отказ по одному объявлению заменяется заглушкой
// и не прерывает ответ.
package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/akozadaev/go_es_listing_engine/internal/logging"
	"github.com/akozadaev/go_es_listing_engine/internal/metrics"
	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

const (
	DefaultConcurrency = 5
	DefaultPlaceholder = "/static/listing-placeholder.jpg"
	defaultTimeout     = 5 * time.Second
)

// Config параметры провайдера фотографий.
type Config struct {
	BaseURL     string
	Concurrency int
	// RatePerSec ограничение частоты запросов; 0 без ограничения.
	RatePerSec  float64
	Placeholder string
	Timeout     time.Duration
}

// Enricher загружает фотографии объявлений с ограниченным параллелизмом.
type Enricher struct {
	client      *http.Client
	baseURL     string
	concurrency int
	placeholder string
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[[]string]
}

type photosResponse struct {
	Photos []string `json:"photos"`
}

// NewEnricher создает Enricher. Пустой BaseURL отключает обращения к провайдеру:
// объявления получают собственный PhotoURL или заглушку.
func NewEnricher(cfg Config) *Enricher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Placeholder == "" {
		cfg.Placeholder = DefaultPlaceholder
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}

	breaker := gobreaker.NewCircuitBreaker[[]string](gobreaker.Settings{
		Name:        "media-provider",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("media provider circuit breaker state changed")
			metrics.MediaBreakerState.Set(stateValue(to))
		},
	})

	return &Enricher{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		concurrency: cfg.Concurrency,
		placeholder: cfg.Placeholder,
		limiter:     rate.NewLimiter(limit, cfg.Concurrency),
		breaker:     breaker,
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}

// Enrich возвращает фотографии для каждого объявления в исходном порядке.
// Не более concurrency запросов выполняются одновременно. Ошибки не возвращаются:
// они учитываются в MediaReport.Failed.
func (e *Enricher) Enrich(ctx context.Context, listings []models.CanonicalListing) ([]models.ListingPhotos, models.MediaReport) {
	out := make([]models.ListingPhotos, len(listings))
	failed := make([]bool, len(listings))

	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for i := range listings {
		l := &listings[i]
		g.Go(func() error {
			urls, err := e.photos(ctx, l)
			if err != nil {
				failed[i] = true
				logging.Ctx(ctx).Warn().Err(err).Str("listing_key", l.ListingKey).Msg("failed to fetch listing photos")
			}
			out[i] = e.decorate(l.ListingKey, urls)
			return nil
		})
	}
	_ = g.Wait()

	report := models.MediaReport{Requested: len(listings)}
	for _, f := range failed {
		if f {
			report.Failed++
		}
	}
	return out, report
}

func (e *Enricher) decorate(key string, urls []string) models.ListingPhotos {
	if len(urls) == 0 {
		return models.ListingPhotos{ListingKey: key, URLs: []string{e.placeholder}, Placeholder: true}
	}
	return models.ListingPhotos{ListingKey: key, URLs: urls}
}

func (e *Enricher) photos(ctx context.Context, l *models.CanonicalListing) ([]string, error) {
	if e.baseURL == "" {
		if l.PhotoURL != "" {
			return []string{l.PhotoURL}, nil
		}
		return nil, nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		metrics.MediaFetches.WithLabelValues("cancelled").Inc()
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	urls, err := e.breaker.Execute(func() ([]string, error) {
		return e.fetch(ctx, l.ListingKey)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.MediaFetches.WithLabelValues("rejected").Inc()
		return nil, err
	case err != nil:
		metrics.MediaFetches.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.MediaFetches.WithLabelValues("ok").Inc()
	return urls, nil
}

func (e *Enricher) fetch(ctx context.Context, key string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/listings/%s/photos", e.baseURL, url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch photos: %w", err)
	}
	defer resp.Body.Close()

	// 404 означает, что у объявления нет фотографий.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media provider returned status %d", resp.StatusCode)
	}

	var body photosResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode photos: %w", err)
	}
	return body.Photos, nil
}
