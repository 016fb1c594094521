package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
	"github.com/akozadaev/go_es_listing_engine/internal/query"
)

func f64(v float64) *float64 { return &v }

func TestBuildSearchQuery(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := query.Criteria{
		Predicates: []query.Predicate{
			query.Term{Field: query.FieldCity, Value: "Palm Desert"},
			query.Term{Field: query.FieldPool, Value: true},
			query.Range{Field: query.FieldLatitude, Min: f64(33.743), ExclusiveMin: true},
			query.Range{Field: query.FieldHOAFee, Max: f64(300), AllowMissing: true},
			query.TimeRange{Field: query.FieldClosedAt, From: &from},
			query.BoundingBox{Bounds: models.Bounds{North: 34, South: 33, East: -116, West: -117}},
			query.Missing{Field: query.FieldView},
		},
		Sort: []query.SortKey{{Field: query.FieldPrice, Desc: true}, {Field: query.FieldListingKey}},
	}

	body, err := json.Marshal(buildSearchQuery(c, query.Page{Offset: 40, Limit: 20}))
	require.NoError(t, err)

	expected := `{
		"from": 40,
		"size": 20,
		"track_total_hits": true,
		"query": {"bool": {"filter": [
			{"term": {"location.city": {"value": "Palm Desert", "case_insensitive": true}}},
			{"term": {"amenities.pool": true}},
			{"range": {"location.latitude": {"gt": 33.743}}},
			{"bool": {"minimum_should_match": 1, "should": [
				{"range": {"financial.hoa_fee": {"lte": 300}}},
				{"bool": {"must_not": {"exists": {"field": "financial.hoa_fee"}}}}
			]}},
			{"range": {"closed_at": {"gte": "2024-01-01T00:00:00Z"}}},
			{"geo_bounding_box": {"point": {
				"top_left": {"lat": 34, "lon": -117},
				"bottom_right": {"lat": 33, "lon": -116}
			}}},
			{"bool": {"must_not": {"exists": {"field": "amenities.view"}}}}
		]}},
		"sort": [
			{"price": {"order": "desc", "missing": "_last"}},
			{"listing_key": {"order": "asc", "missing": "_last"}}
		]
	}`
	assert.JSONEq(t, expected, string(body))
}

func TestBuildSearchQuery_Empty(t *testing.T) {
	body, err := json.Marshal(buildSearchQuery(query.Criteria{}, query.Page{Limit: 10}))
	require.NoError(t, err)

	assert.JSONEq(t, `{"from":0,"size":10,"track_total_hits":true,"query":{"bool":{"filter":[]}},"sort":[]}`, string(body))
}

func TestBuildSearchQuery_SearchAfter(t *testing.T) {
	c := query.Criteria{
		Predicates: []query.Predicate{query.AnyOf{Predicates: []query.Predicate{
			query.BoundingBox{Bounds: models.Bounds{North: 10, South: 0, East: 180, West: 170}},
			query.BoundingBox{Bounds: models.Bounds{North: 10, South: 0, East: -170, West: -180}},
		}}},
		Sort: []query.SortKey{{Field: query.FieldPrice}, {Field: query.FieldListingKey}},
	}
	page := query.Page{Offset: 12000, After: []any{json.Number("9223372036854775807"), "L12000"}, Limit: 20}

	body, err := json.Marshal(buildSearchQuery(c, page))
	require.NoError(t, err)

	expected := `{
		"size": 20,
		"track_total_hits": true,
		"search_after": [9223372036854775807, "L12000"],
		"query": {"bool": {"filter": [
			{"bool": {"minimum_should_match": 1, "should": [
				{"geo_bounding_box": {"point": {"top_left": {"lat": 10, "lon": 170}, "bottom_right": {"lat": 0, "lon": 180}}}},
				{"geo_bounding_box": {"point": {"top_left": {"lat": 10, "lon": -180}, "bottom_right": {"lat": 0, "lon": -170}}}}
			]}}
		]}},
		"sort": [
			{"price": {"order": "asc", "missing": "_last"}},
			{"listing_key": {"order": "asc", "missing": "_last"}}
		]
	}`
	assert.JSONEq(t, expected, string(body))
	assert.Contains(t, string(body), "9223372036854775807")
}

func TestElasticsearchStorage_Search(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":7},"hits":[
			{"_source":{"listing_key":"A1","status":"Active","price":500000,"location":{"city":"Palm Desert","latitude":33.7,"longitude":-116.4},"point":{"lat":33.7,"lon":-116.4},"baths_total":2.5,"amenities":{},"financial":{},"synced_at":"2025-01-01T00:00:00Z"},
			 "sort":[9223372036854775807,"A1"]}
		]}}`))
	}))
	defer srv.Close()

	es := NewElasticsearchStorageWithURL(nil, "listings", srv.URL)
	hits, err := es.Search(context.Background(), query.Criteria{}, query.Page{Limit: 5})

	require.NoError(t, err)
	assert.Equal(t, "/listings/_search", gotPath)
	assert.Equal(t, float64(5), gotBody["size"])
	assert.Equal(t, float64(0), gotBody["from"])
	assert.Equal(t, 7, hits.Total)
	require.Len(t, hits.Items, 1)
	assert.Equal(t, "A1", hits.Items[0].ListingKey)
	assert.Equal(t, int64(500000), *hits.Items[0].Price)
	assert.True(t, hits.Items[0].Mappable())
	assert.Equal(t, []any{json.Number("9223372036854775807"), "A1"}, hits.Last)
}

func TestElasticsearchStorage_SearchPastResultWindow(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":15000},"hits":[]}}`))
	}))
	defer srv.Close()

	es := NewElasticsearchStorageWithURL(nil, "listings", srv.URL)
	hits, err := es.Search(context.Background(), query.Criteria{}, query.Page{
		Offset: 10000,
		After:  []any{json.Number("450000"), "L10000"},
		Limit:  20,
	})

	require.NoError(t, err)
	assert.Equal(t, 15000, hits.Total)
	assert.Nil(t, hits.Last)
	assert.NotContains(t, gotBody, "from")
	assert.Equal(t, []interface{}{float64(450000), "L10000"}, gotBody["search_after"])
}

func TestElasticsearchStorage_GetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"found":false}`))
	}))
	defer srv.Close()

	es := NewElasticsearchStorageWithURL(nil, "listings", srv.URL)
	_, err := es.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestElasticsearchStorage_UpsertReportsItemErrors(t *testing.T) {
	var lines int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		for _, b := range raw {
			if b == '\n' {
				lines++
			}
		}
		_, _ = w.Write([]byte(`{"errors":true,"items":[{"index":{"_id":"B2","status":400,"error":{"type":"mapper_parsing_exception","reason":"bad price"}}}]}`))
	}))
	defer srv.Close()

	es := NewElasticsearchStorageWithURL(nil, "listings", srv.URL)
	err := es.UpsertListings(context.Background(), []models.CanonicalListing{
		{ListingKey: "B1", Status: models.StatusActive},
		{ListingKey: "B2", Status: models.StatusActive},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "B2")
	assert.Equal(t, 4, lines)
}

func TestListingDocument_DerivedFields(t *testing.T) {
	lat, lon := 33.7, -116.4
	full, half := 2, 1
	doc := newListingDocument(models.CanonicalListing{
		ListingKey: "D1",
		BathsFull:  &full,
		BathsHalf:  &half,
		Location:   models.ListingLocation{Latitude: &lat, Longitude: &lon},
	})

	require.NotNil(t, doc.Point)
	assert.Equal(t, models.GeoPoint{Lat: 33.7, Lon: -116.4}, *doc.Point)
	assert.Equal(t, 2.5, *doc.BathsTotal)

	body, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"listing_key":"D1"`)
	assert.Contains(t, string(body), `"point":{"lat":33.7,"lon":-116.4}`)
}
