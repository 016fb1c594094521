// Package metrics содержит Prometheus-метрики сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueryDuration длительность запросов к хранилищу объявлений.
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listing_query_duration_seconds",
			Help:    "Duration of listing store queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	// QueryResults число найденных объявлений на запрос.
	QueryResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "listing_query_results",
			Help:    "Total matches per listing query",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	// InvalidFilterSpecs отклоненные спецификации фильтра.
	InvalidFilterSpecs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listing_invalid_filter_specs_total",
			Help: "Filter specs rejected as structurally invalid",
		},
	)

	// LocationResolutions исходы разрешения локаций и улиц.
	LocationResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "location_resolutions_total",
			Help: "Location and street resolution outcomes",
		},
		[]string{"kind", "outcome"},
	)

	// NormalizedRecords записи фидов по исходу нормализации.
	NormalizedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_records_total",
			Help: "Feed records by normalization outcome",
		},
		[]string{"outcome"},
	)

	// ClusterNodes число узлов в ответе кластеризации.
	ClusterNodes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cluster_nodes",
			Help:    "Cluster nodes returned per request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	// MediaFetches обращения к провайдеру фотографий.
	MediaFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_fetches_total",
			Help: "Media provider fetches by result",
		},
		[]string{"result"},
	)

	// MediaBreakerState состояние circuit breaker провайдера: 0 closed, 1 half-open, 2 open.
	MediaBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_circuit_breaker_state",
			Help: "Media provider circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// HTTPRequests HTTP-запросы по маршруту и коду ответа.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)
)
