package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
	"github.com/akozadaev/go_es_listing_engine/internal/query"
)

// MemoryStorage хранит объявления в памяти и исполняет те же Criteria, что и Elasticsearch.
// Используется в тестах и при STORE_BACKEND=memory.
type MemoryStorage struct {
	mu       sync.RWMutex
	listings map[string]models.CanonicalListing
}

// NewMemoryStorage создает пустое хранилище.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{listings: make(map[string]models.CanonicalListing)}
}

// UpsertListings сохраняет объявления по ListingKey, заменяя существующие.
func (ms *MemoryStorage) UpsertListings(_ context.Context, listings []models.CanonicalListing) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, l := range listings {
		if l.ListingKey == "" {
			return fmt.Errorf("listing without key")
		}
		ms.listings[l.ListingKey] = l
	}
	return nil
}

// GetListings возвращает сохраненные объявления по ключам. Отсутствующие ключи пропускаются.
func (ms *MemoryStorage) GetListings(_ context.Context, keys []string) (map[string]models.CanonicalListing, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	out := make(map[string]models.CanonicalListing, len(keys))
	for _, k := range keys {
		if l, ok := ms.listings[k]; ok {
			out[k] = l
		}
	}
	return out, nil
}

// Get возвращает объявление по ключу.
func (ms *MemoryStorage) Get(_ context.Context, key string) (*models.CanonicalListing, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	l, ok := ms.listings[key]
	if !ok {
		return nil, fmt.Errorf("listing %s: %w", key, models.ErrNotFound)
	}
	return &l, nil
}

// Search фильтрует, сортирует и возвращает страницу. Листает по page.Offset,
// значения сортировки не возвращает.
func (ms *MemoryStorage) Search(ctx context.Context, c query.Criteria, page query.Page) (query.Hits, error) {
	if err := ctx.Err(); err != nil {
		return query.Hits{}, err
	}

	ms.mu.RLock()
	matched := make([]models.CanonicalListing, 0)
	for _, l := range ms.listings {
		if matchAll(&l, c.Predicates) {
			matched = append(matched, l)
		}
	}
	ms.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return less(&matched[i], &matched[j], c.Sort)
	})

	total := len(matched)
	if page.Offset >= total {
		return query.Hits{Items: []models.CanonicalListing{}, Total: total}, nil
	}
	end := total
	if page.Limit > 0 && page.Offset+page.Limit < total {
		end = page.Offset + page.Limit
	}
	return query.Hits{Items: matched[page.Offset:end], Total: total}, nil
}

func matchAll(l *models.CanonicalListing, preds []query.Predicate) bool {
	for _, p := range preds {
		if !match(l, p) {
			return false
		}
	}
	return true
}

func match(l *models.CanonicalListing, p query.Predicate) bool {
	switch p := p.(type) {
	case query.Term:
		v, ok := fieldValue(l, p.Field)
		if !ok {
			return false
		}
		switch want := p.Value.(type) {
		case string:
			s, isStr := v.(string)
			return isStr && strings.EqualFold(s, want)
		default:
			return v == want
		}
	case query.Terms:
		v, ok := fieldValue(l, p.Field)
		s, isStr := v.(string)
		if !ok || !isStr {
			return false
		}
		for _, want := range p.Values {
			if strings.EqualFold(s, want) {
				return true
			}
		}
		return false
	case query.Range:
		v, ok := fieldValue(l, p.Field)
		f, isNum := v.(float64)
		if !ok || !isNum {
			return p.AllowMissing && !ok
		}
		if p.Min != nil && (f < *p.Min || (p.ExclusiveMin && f == *p.Min)) {
			return false
		}
		if p.Max != nil && (f > *p.Max || (p.ExclusiveMax && f == *p.Max)) {
			return false
		}
		return true
	case query.TimeRange:
		v, ok := fieldValue(l, p.Field)
		t, isTime := v.(time.Time)
		if !ok || !isTime {
			return false
		}
		if p.From != nil && t.Before(*p.From) {
			return false
		}
		if p.To != nil && t.After(*p.To) {
			return false
		}
		return true
	case query.BoundingBox:
		pt, ok := l.Point()
		return ok && p.Bounds.Contains(pt.Lat, pt.Lon)
	case query.Exists:
		_, ok := fieldValue(l, p.Field)
		return ok
	case query.Missing:
		_, ok := fieldValue(l, p.Field)
		return !ok
	case query.AnyOf:
		for _, inner := range p.Predicates {
			if match(l, inner) {
				return true
			}
		}
		return false
	}
	return false
}

// fieldValue возвращает значение поля как float64, string, bool или time.Time.
func fieldValue(l *models.CanonicalListing, f query.Field) (any, bool) {
	switch f {
	case query.FieldListingKey:
		return l.ListingKey, true
	case query.FieldStatus:
		return string(l.Status), l.Status != ""
	case query.FieldPrice:
		return int64Value(l.Price)
	case query.FieldClosePrice:
		return int64Value(l.ClosePrice)
	case query.FieldBeds:
		return intValue(l.Beds)
	case query.FieldBaths:
		return l.Baths()
	case query.FieldSqft:
		return floatValue(l.LivingAreaSqft)
	case query.FieldLotSqft:
		return floatValue(l.LotSizeSqft)
	case query.FieldYearBuilt:
		return intValue(l.YearBuilt)
	case query.FieldPropertyType:
		return l.PropertyType, l.PropertyType != ""
	case query.FieldPropertySubType:
		return l.PropertySubType, l.PropertySubType != ""
	case query.FieldPool:
		return boolValue(l.Amenities.Pool)
	case query.FieldSpa:
		return boolValue(l.Amenities.Spa)
	case query.FieldGated:
		return boolValue(l.Amenities.Gated)
	case query.FieldView:
		return l.Amenities.View, l.Amenities.View != ""
	case query.FieldHOAFee:
		return floatValue(l.Financial.HOAFee)
	case query.FieldListedAt:
		return timeValue(l.ListedAt)
	case query.FieldClosedAt:
		return timeValue(l.ClosedAt)
	case query.FieldCity:
		return l.Location.City, l.Location.City != ""
	case query.FieldSubdivision:
		return l.Location.Subdivision, l.Location.Subdivision != ""
	case query.FieldCounty:
		return l.Location.County, l.Location.County != ""
	case query.FieldLatitude:
		return floatValue(l.Location.Latitude)
	case query.FieldLongitude:
		return floatValue(l.Location.Longitude)
	}
	return nil, false
}

func int64Value(v *int64) (any, bool) {
	if v == nil {
		return nil, false
	}
	return float64(*v), true
}

func intValue(v *int) (any, bool) {
	if v == nil {
		return nil, false
	}
	return float64(*v), true
}

func floatValue(v *float64) (any, bool) {
	if v == nil {
		return nil, false
	}
	return *v, true
}

func boolValue(v *bool) (any, bool) {
	if v == nil {
		return nil, false
	}
	return *v, true
}

func timeValue(v *time.Time) (any, bool) {
	if v == nil {
		return nil, false
	}
	return *v, true
}

// less сравнивает объявления по ключам сортировки; пустые значения идут последними.
func less(a, b *models.CanonicalListing, keys []query.SortKey) bool {
	for _, k := range keys {
		av, aok := fieldValue(a, k.Field)
		bv, bok := fieldValue(b, k.Field)
		if !aok || !bok {
			if aok != bok {
				return aok
			}
			continue
		}

		cmp := compare(av, bv)
		if cmp == 0 {
			continue
		}
		if k.Desc {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}

func compare(a, b any) int {
	switch av := a.(type) {
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case string:
		return strings.Compare(av, b.(string))
	case time.Time:
		return av.Compare(b.(time.Time))
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	}
	return 0
}
