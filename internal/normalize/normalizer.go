// Package normalize приводит записи двух фидов к каноническому виду
// и объединяет дубликаты по ListingKey.
package normalize

import (
	"errors"
	"sort"
	"time"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

// RawRecord запись фида в исходном виде после декодирования JSON.
type RawRecord map[string]any

// Batch пакет записей одного фида. SyncedAt используется для записей без собственной метки синхронизации.
type Batch struct {
	Source   models.Source
	SyncedAt time.Time
	Records  []RawRecord
}

// Причины пропуска записей.
const (
	SkipMissingKey    = "missing_listing_key"
	SkipUnknownSource = "unknown_source"
)

var errMissingKey = errors.New("record has no listing key")

// Report итоги нормализации.
type Report struct {
	Received      int            `json:"received"`
	Canonical     int            `json:"canonical"`
	Merged        int            `json:"merged"`
	Skipped       int            `json:"skipped"`
	SkipReasons   map[string]int `json:"skip_reasons,omitempty"`
	Unmappable    int            `json:"unmappable"`
	UnknownStatus int            `json:"unknown_status"`
	// DefaultedStatus число объявлений, ни одна запись которых в пакете не несла
	// распознанного статуса; таким объявлениям присвоен Active.
	DefaultedStatus int `json:"defaulted_status"`
}

func (r *Report) skip(reason string, n int) {
	if r.SkipReasons == nil {
		r.SkipReasons = make(map[string]int)
	}
	r.SkipReasons[reason] += n
	r.Skipped += n
}

// Map переводит одну запись фида в каноническую форму по словарю schema.
// Непарсящиеся и пустые значения остаются незаполненными.
func Map(schema Schema, rec RawRecord, fallback time.Time) (models.CanonicalListing, bool, error) {
	key, ok := parseString(rec[schema.KeyField])
	if !ok {
		return models.CanonicalListing{}, false, errMissingKey
	}

	l := models.CanonicalListing{
		ListingKey: key,
		Source:     schema.Source,
		SyncedAt:   fallback.UTC(),
	}
	if ts, ok := parseTime(rec[schema.SyncField]); ok {
		l.SyncedAt = ts
	}

	statusKnown := true
	if raw, present := rec[schema.StatusField]; present && raw != nil {
		if st, ok := schema.status(raw); ok {
			l.Status = st
		} else {
			statusKnown = false
		}
	}

	for name, field := range schema.Fields {
		raw, present := rec[name]
		if !present || raw == nil {
			continue
		}
		fields[field].assign(&l, raw)
	}

	return l, statusKnown, nil
}

// Normalize нормализует пакеты фидов и возвращает по одной записи на ListingKey,
// отсортированные по ключу. Записи без ключа пропускаются и учитываются в отчете.
func Normalize(batches ...Batch) ([]models.CanonicalListing, Report) {
	var report Report
	mapped := make([]models.CanonicalListing, 0)
	withStatus := make(map[string]bool)

	for _, b := range batches {
		report.Received += len(b.Records)

		schema, ok := SchemaFor(b.Source)
		if !ok {
			report.skip(SkipUnknownSource, len(b.Records))
			continue
		}

		for _, rec := range b.Records {
			l, statusKnown, err := Map(schema, rec, b.SyncedAt)
			if err != nil {
				report.skip(SkipMissingKey, 1)
				continue
			}
			if !statusKnown {
				report.UnknownStatus++
			}
			if l.Status != "" {
				withStatus[l.ListingKey] = true
			}
			mapped = append(mapped, l)
		}
	}

	out := Deduplicate(mapped)
	report.Canonical = len(out)
	report.Merged = len(mapped) - len(out)
	for i := range out {
		if !out[i].Mappable() {
			report.Unmappable++
		}
		if !withStatus[out[i].ListingKey] {
			report.DefaultedStatus++
		}
	}

	return out, report
}

// Deduplicate объединяет записи с одинаковым ListingKey. Записи одного ключа сворачиваются
// от старых к новым, поэтому результат не зависит от порядка входа.
// Повторный вызов на результате ничего не меняет.
func Deduplicate(listings []models.CanonicalListing) []models.CanonicalListing {
	groups := make(map[string][]models.CanonicalListing, len(listings))
	keys := make([]string, 0, len(listings))

	for _, l := range listings {
		if l.ListingKey == "" {
			continue
		}
		if _, seen := groups[l.ListingKey]; !seen {
			keys = append(keys, l.ListingKey)
		}
		groups[l.ListingKey] = append(groups[l.ListingKey], l)
	}
	sort.Strings(keys)

	out := make([]models.CanonicalListing, 0, len(keys))
	for _, key := range keys {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			if !group[i].SyncedAt.Equal(group[j].SyncedAt) {
				return group[i].SyncedAt.Before(group[j].SyncedAt)
			}
			return group[i].Source < group[j].Source
		})

		merged := group[0]
		for _, next := range group[1:] {
			merged = Merge(merged, next)
		}
		out = append(out, finalize(merged))
	}

	return out
}

// Merge объединяет две записи одного объекта по правилу last-writer-wins для непустых значений:
// поле перезаписывается, если во входящей записи оно заполнено и в существующей пусто
// либо входящая запись синхронизирована позже. Статус и источник берутся из более свежей записи.
func Merge(existing, incoming models.CanonicalListing) models.CanonicalListing {
	out := existing
	newer := incoming.SyncedAt.After(existing.SyncedAt)

	for _, f := range fieldOrder {
		acc := fields[f]
		if !acc.present(&incoming) {
			continue
		}
		if !acc.present(&existing) || newer {
			acc.copy(&out, &incoming)
		}
	}

	if incoming.Status != "" && (existing.Status == "" || !incoming.SyncedAt.Before(existing.SyncedAt)) {
		out.Status = incoming.Status
		out.Source = incoming.Source
	}
	if newer {
		out.SyncedAt = incoming.SyncedAt
	}

	return out
}

// MergeInto применяет новый цикл синхронизации к уже сохраненным записям.
// Возвращает только затронутые записи; повторное применение того же пакета ничего не меняет.
func MergeInto(stored map[string]models.CanonicalListing, incoming []models.CanonicalListing) []models.CanonicalListing {
	incoming = Deduplicate(incoming)
	out := make([]models.CanonicalListing, 0, len(incoming))

	for _, l := range incoming {
		existing, ok := stored[l.ListingKey]
		if !ok {
			out = append(out, l)
			continue
		}
		out = append(out, finalize(Merge(existing, l)))
	}

	return out
}

// finalize приводит запись к инвариантам модели: статус обязателен,
// цена и дата сделки хранятся только у закрытых объявлений.
func finalize(l models.CanonicalListing) models.CanonicalListing {
	if l.Status == "" {
		l.Status = models.StatusActive
	}
	if l.Status != models.StatusClosed {
		l.ClosePrice = nil
		l.ClosedAt = nil
	}
	return l
}
