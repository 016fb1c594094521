// Package config предоставляет загрузку конфигурации приложения из переменных окружения.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Бэкенды хранилища объявлений.
const (
	BackendElasticsearch = "elasticsearch"
	BackendMemory        = "memory"
)

// Config содержит все параметры конфигурации приложения.
// Значения загружаются из переменных окружения с fallback на значения по умолчанию.
type Config struct {
	ElasticsearchURL string // URL для подключения к Elasticsearch/OpenSearch
	ListingsIndex    string // Индекс объявлений
	StoreBackend     string // elasticsearch или memory
	PostgresHost     string // Хост PostgreSQL
	PostgresPort     string // Порт PostgreSQL
	PostgresUser     string // Пользователь PostgreSQL
	PostgresPassword string // Пароль PostgreSQL
	PostgresDB       string // Имя базы данных PostgreSQL
	AppPort          string // Порт для HTTP сервера

	// LocationsSeedFile YAML-справочник локаций; если задан, Postgres для справочника не используется.
	LocationsSeedFile string

	LogLevel  string
	LogFormat string

	DefaultPageSize int
	MaxPageSize     int

	MinAppreciationSamples int     // Минимальная выборка в окне для расчета роста цен
	MillageRate            float64 // Ставка для оценки налога при его отсутствии

	MediaProviderURL    string
	MediaConcurrency    int
	MediaRatePerSec     float64
	MediaPlaceholderURL string
	MediaTimeout        time.Duration

	FeedAPath string
	FeedBPath string
}

// Load загружает конфигурацию из переменных окружения.
// Перед этим читается файл .env, если он есть; уже заданные переменные не перезаписываются.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ElasticsearchURL:       getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
		ListingsIndex:          getEnv("LISTINGS_INDEX", "listings"),
		StoreBackend:           getEnv("STORE_BACKEND", BackendElasticsearch),
		PostgresHost:           getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:           getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:           getEnv("POSTGRES_USER", "listing_user"),
		PostgresPassword:       getEnv("POSTGRES_PASSWORD", "listing_pass"),
		PostgresDB:             getEnv("POSTGRES_DB", "listing_db"),
		AppPort:                getEnv("APP_PORT", "8080"),
		LocationsSeedFile:      getEnv("LOCATIONS_SEED_FILE", ""),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "json"),
		DefaultPageSize:        getEnvInt("DEFAULT_PAGE_SIZE", 20),
		MaxPageSize:            getEnvInt("MAX_PAGE_SIZE", 200),
		MinAppreciationSamples: getEnvInt("MIN_APPRECIATION_SAMPLES", 5),
		MillageRate:            getEnvFloat("MILLAGE_RATE", 0.0125),
		MediaProviderURL:       getEnv("MEDIA_PROVIDER_URL", ""),
		MediaConcurrency:       getEnvInt("MEDIA_CONCURRENCY", 5),
		MediaRatePerSec:        getEnvFloat("MEDIA_RATE_PER_SEC", 20),
		MediaPlaceholderURL:    getEnv("MEDIA_PLACEHOLDER_URL", ""),
		MediaTimeout:           getEnvDuration("MEDIA_TIMEOUT", 5*time.Second),
		FeedAPath:              getEnv("FEED_A_PATH", ""),
		FeedBPath:              getEnv("FEED_B_PATH", ""),
	}
}

// PostgresDSN строка подключения к PostgreSQL.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
