package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
	"github.com/akozadaev/go_es_listing_engine/internal/query"
)

func i64(v int64) *int64 { return &v }
func bptr(v bool) *bool  { return &v }

func seedMemory(t *testing.T) *MemoryStorage {
	t.Helper()
	lat1, lon1 := 33.75, -116.38
	lat2, lon2 := 33.70, -116.42
	listed := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	hoa := 250.0

	ms := NewMemoryStorage()
	err := ms.UpsertListings(context.Background(), []models.CanonicalListing{
		{
			ListingKey: "N1", Status: models.StatusActive, Price: i64(600000),
			Location:  models.ListingLocation{City: "Palm Desert", Latitude: &lat1, Longitude: &lon1},
			Amenities: models.Amenities{Pool: bptr(true), View: "Mountain"},
			Financial: models.Financial{HOAFee: &hoa},
			ListedAt:  &listed,
		},
		{
			ListingKey: "S1", Status: models.StatusPending, Price: i64(450000),
			Location:  models.ListingLocation{City: "palm desert", Latitude: &lat2, Longitude: &lon2},
			Amenities: models.Amenities{Pool: bptr(false)},
		},
		{
			ListingKey: "X1", Status: models.StatusActive,
			Location: models.ListingLocation{City: "Indio"},
		},
	})
	require.NoError(t, err)
	return ms
}

func keys(ls []models.CanonicalListing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ListingKey
	}
	return out
}

func TestMemoryStorage_Predicates(t *testing.T) {
	ms := seedMemory(t)
	ctx := context.Background()
	sortByKey := []query.SortKey{{Field: query.FieldListingKey}}

	tests := []struct {
		name  string
		preds []query.Predicate
		want  []string
	}{
		{"no predicates", nil, []string{"N1", "S1", "X1"}},
		{"city case insensitive", []query.Predicate{query.Term{Field: query.FieldCity, Value: "PALM DESERT"}}, []string{"N1", "S1"}},
		{"bool term", []query.Predicate{query.Term{Field: query.FieldPool, Value: false}}, []string{"S1"}},
		{"statuses", []query.Predicate{query.Terms{Field: query.FieldStatus, Values: []string{"Pending", "Closed"}}}, []string{"S1"}},
		{"range excludes missing", []query.Predicate{query.Range{Field: query.FieldPrice, Max: f64(500000)}}, []string{"S1"}},
		{"range allow missing", []query.Predicate{query.Range{Field: query.FieldHOAFee, Max: f64(100), AllowMissing: true}}, []string{"S1", "X1"}},
		{"north of street", []query.Predicate{query.Range{Field: query.FieldLatitude, Min: f64(33.743), ExclusiveMin: true}}, []string{"N1"}},
		{"exclusive bound", []query.Predicate{query.Range{Field: query.FieldLatitude, Min: f64(33.75), ExclusiveMin: true}}, []string{}},
		{"bounding box skips unmappable", []query.Predicate{query.BoundingBox{Bounds: models.Bounds{North: 34, South: 33, East: -116, West: -117}}}, []string{"N1", "S1"}},
		{"exists", []query.Predicate{query.Exists{Field: query.FieldView}}, []string{"N1"}},
		{"missing", []query.Predicate{query.Missing{Field: query.FieldView}}, []string{"S1", "X1"}},
		{"any of", []query.Predicate{query.AnyOf{Predicates: []query.Predicate{
			query.Term{Field: query.FieldCity, Value: "Indio"},
			query.Term{Field: query.FieldPool, Value: true},
		}}}, []string{"N1", "X1"}},
		{"any of empty", []query.Predicate{query.AnyOf{}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := ms.Search(ctx, query.Criteria{Predicates: tt.preds, Sort: sortByKey}, query.Page{Limit: 10})
			require.NoError(t, err)
			assert.Equal(t, tt.want, keys(hits.Items))
			assert.Equal(t, len(tt.want), hits.Total)
		})
	}
}

func TestMemoryStorage_SortNullsLast(t *testing.T) {
	ms := seedMemory(t)

	for _, desc := range []bool{false, true} {
		hits, err := ms.Search(context.Background(), query.Criteria{
			Sort: []query.SortKey{{Field: query.FieldPrice, Desc: desc}, {Field: query.FieldListingKey}},
		}, query.Page{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, "X1", hits.Items[2].ListingKey, "listing without price is last (desc=%v)", desc)
	}
}

func TestMemoryStorage_PageBeyondEnd(t *testing.T) {
	ms := seedMemory(t)

	hits, err := ms.Search(context.Background(), query.Criteria{}, query.Page{Offset: 10, Limit: 5})

	require.NoError(t, err)
	assert.Empty(t, hits.Items)
	assert.Equal(t, 3, hits.Total)
	assert.Nil(t, hits.Last)
}

func TestMemoryStorage_GetAndGetListings(t *testing.T) {
	ms := seedMemory(t)
	ctx := context.Background()

	l, err := ms.Get(ctx, "N1")
	require.NoError(t, err)
	assert.Equal(t, "N1", l.ListingKey)

	_, err = ms.Get(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)

	got, err := ms.GetListings(ctx, []string{"S1", "nope"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, got, "S1")
}

func TestMemoryStorage_CancelledContext(t *testing.T) {
	ms := seedMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ms.Search(ctx, query.Criteria{}, query.Page{Limit: 10})
	assert.ErrorIs(t, err, context.Canceled)
}
