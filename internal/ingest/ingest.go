// Package ingest загружает выгрузки фидов, нормализует их и сохраняет
// объединенные записи в хранилище объявлений.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/akozadaev/go_es_listing_engine/internal/logging"
	"github.com/akozadaev/go_es_listing_engine/internal/metrics"
	"github.com/akozadaev/go_es_listing_engine/internal/models"
	"github.com/akozadaev/go_es_listing_engine/internal/normalize"
)

// chunkSize размер пачки при чтении и записи хранилища.
const chunkSize = 500

// Store хранилище с пакетным чтением и upsert.
type Store interface {
	GetListings(ctx context.Context, keys []string) (map[string]models.CanonicalListing, error)
	UpsertListings(ctx context.Context, listings []models.CanonicalListing) error
}

// feedFile формат выгрузки: либо массив записей, либо объект с меткой синхронизации.
type feedFile struct {
	SyncedAt *time.Time            `json:"synced_at"`
	Records  []normalize.RawRecord `json:"records"`
}

// ReadFeed читает выгрузку фида. Если в файле нет synced_at, используется fallback.
func ReadFeed(r io.Reader, source models.Source, fallback time.Time) (normalize.Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return normalize.Batch{}, fmt.Errorf("failed to read feed: %w", err)
	}

	batch := normalize.Batch{Source: source, SyncedAt: fallback}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := dec.Decode(&batch.Records); err != nil {
			return normalize.Batch{}, fmt.Errorf("failed to decode feed records: %w", err)
		}
		return batch, nil
	}

	var f feedFile
	if err := dec.Decode(&f); err != nil {
		return normalize.Batch{}, fmt.Errorf("failed to decode feed: %w", err)
	}
	batch.Records = f.Records
	if f.SyncedAt != nil {
		batch.SyncedAt = f.SyncedAt.UTC()
	}
	return batch, nil
}

// ReadFeedFile читает выгрузку фида из файла; время изменения файла служит меткой по умолчанию.
func ReadFeedFile(path string, source models.Source) (normalize.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return normalize.Batch{}, fmt.Errorf("failed to open feed %s: %w", path, err)
	}
	defer f.Close()

	fallback := time.Now().UTC()
	if st, err := f.Stat(); err == nil {
		fallback = st.ModTime().UTC()
	}
	return ReadFeed(f, source, fallback)
}

// Result итоги загрузки.
type Result struct {
	normalize.Report
	Stored int `json:"stored"`
	// Updated число записей, объединенных с уже сохраненными.
	Updated int `json:"updated"`
}

// Run нормализует пакеты, объединяет их с сохраненными записями и выполняет upsert.
// Повторный запуск на тех же данных не меняет хранилище.
func Run(ctx context.Context, store Store, batches ...normalize.Batch) (Result, error) {
	listings, report := normalize.Normalize(batches...)
	res := Result{Report: report}

	metrics.NormalizedRecords.WithLabelValues("canonical").Add(float64(report.Canonical))
	metrics.NormalizedRecords.WithLabelValues("merged").Add(float64(report.Merged))
	metrics.NormalizedRecords.WithLabelValues("skipped").Add(float64(report.Skipped))
	metrics.NormalizedRecords.WithLabelValues("unmappable").Add(float64(report.Unmappable))
	metrics.NormalizedRecords.WithLabelValues("defaulted_status").Add(float64(report.DefaultedStatus))

	for start := 0; start < len(listings); start += chunkSize {
		end := min(start+chunkSize, len(listings))
		chunk := listings[start:end]

		keys := make([]string, len(chunk))
		for i := range chunk {
			keys[i] = chunk[i].ListingKey
		}
		stored, err := store.GetListings(ctx, keys)
		if err != nil {
			return res, fmt.Errorf("failed to load stored listings: %w", err)
		}

		merged := normalize.MergeInto(stored, chunk)
		if err := store.UpsertListings(ctx, merged); err != nil {
			return res, fmt.Errorf("failed to upsert listings: %w", err)
		}
		res.Stored += len(merged)
		res.Updated += len(stored)
	}

	if report.Skipped > 0 || report.UnknownStatus > 0 || report.DefaultedStatus > 0 {
		logging.Warn().
			Int("skipped", report.Skipped).
			Interface("skip_reasons", report.SkipReasons).
			Int("unknown_status", report.UnknownStatus).
			Int("defaulted_status", report.DefaultedStatus).
			Msg("feed records partially rejected")
	}
	logging.Info().
		Int("received", report.Received).
		Int("stored", res.Stored).
		Int("updated", res.Updated).
		Int("unmappable", report.Unmappable).
		Msg("feeds ingested")

	return res, nil
}
