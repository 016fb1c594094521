package location

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

const seedYAML = `
locations:
  - id: palm-desert
    name: Palm Desert
    type: city
    listing_count: 1200
    coordinates: {lat: 33.7222, lon: -116.3745}
    bounds: {north: 33.80, south: 33.68, east: -116.30, west: -116.45}
  - id: palm-desert-cc
    name: Palm Desert Country Club
    type: subdivision
    city: Palm Desert
    listing_count: 140
  - id: indian-wells
    name: Indian Wells
    type: city
    listing_count: 300
    aliases: [IW]
  - id: riverside-county
    name: Riverside
    type: county
    listing_count: 9000
    bounds: {north: 34.08, south: 33.42, east: -114.43, west: -117.67}
  - id: riverside-city
    name: Riverside
    type: city
    listing_count: 2500
  - id: bighorn
    name: Bighorn Golf Club
    type: subdivision
    listing_count: 40
  - id: la-quinta-cc
    name: La Quinta Country Club
    type: subdivision
    listing_count: 60
  - id: la-quinta-resort
    name: La Quinta Resort
    type: subdivision
    listing_count: 90
streets:
  - city_id: palm-desert
    street_name: Highway 111
    direction: east-west
    coordinates: {latitude: 33.743}
  - city_id: palm-desert
    street_name: Cook Street
    direction: north-south
    coordinates: {longitude: -116.405}
  - city_id: palm-desert
    street_name: Fred Waring Drive
    direction: east-west
    coordinates: {latitude: 33.735}
  - city_id: indian-wells
    street_name: Highway 111
    direction: east-west
    coordinates: {latitude: 33.717}
`

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	seed, err := ReadSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)
	idx, err := seed.Index()
	require.NoError(t, err)
	return NewResolver(idx)
}

func TestResolve_Tiers(t *testing.T) {
	r := testResolver(t)

	tests := []struct {
		name   string
		text   string
		scope  models.LocationType
		kind   models.ResolutionKind
		wantID string
	}{
		{"exact", "palm desert", "", models.Resolved, "palm-desert"},
		{"exact case and punctuation", "  PALM-DESERT ", "", models.Resolved, "palm-desert"},
		{"exact in scope", "Riverside", models.LocationCounty, models.Resolved, "riverside-county"},
		{"exact scope without match falls through", "Indian Wells", models.LocationCounty, models.Resolved, "indian-wells"},
		{"alias", "iw", "", models.Resolved, "indian-wells"},
		{"fuzzy ignores noise words", "bighorn", "", models.Resolved, "bighorn"},
		{"fuzzy with spaces removed", "big horn", "", models.Resolved, "bighorn"},
		{"diacritics", "Pálm Désert", "", models.Resolved, "palm-desert"},
		{"not found", "Atlantis", "", models.NotFound, ""},
		{"empty", "   ", "", models.NotFound, ""},
		{"too short for fuzzy", "pa", "", models.NotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Resolve(tt.text, tt.scope)
			assert.Equal(t, tt.kind, res.Kind)
			if tt.wantID != "" {
				require.NotNil(t, res.Entity)
				assert.Equal(t, tt.wantID, res.Entity.ID)
			} else {
				assert.Nil(t, res.Entity)
			}
		})
	}
}

func TestResolve_AmbiguousRankedByListingCount(t *testing.T) {
	r := testResolver(t)

	res := r.Resolve("Riverside", "")

	require.Equal(t, models.Ambiguous, res.Kind)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "riverside-county", res.Candidates[0].ID)
	assert.Equal(t, "riverside-city", res.Candidates[1].ID)
	assert.Nil(t, res.Entity)
}

func TestResolve_FuzzyAmbiguous(t *testing.T) {
	r := testResolver(t)

	res := r.Resolve("la quinta", "")

	require.Equal(t, models.Ambiguous, res.Kind)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "la-quinta-resort", res.Candidates[0].ID)
}

func TestResolve_ExactBeatsFuzzy(t *testing.T) {
	r := testResolver(t)

	res := r.Resolve("Palm Desert", models.LocationCity)

	require.Equal(t, models.Resolved, res.Kind)
	assert.Equal(t, "palm-desert", res.Entity.ID)
}

func TestResolveStreet(t *testing.T) {
	r := testResolver(t)

	tests := []struct {
		name      string
		street    string
		city      string
		kind      models.ResolutionKind
		direction models.StreetDirection
		coord     float64
	}{
		{"suffix abbreviation", "Cook St", "palm-desert", models.Resolved, models.StreetNorthSouth, -116.405},
		{"full suffix", "highway 111", "palm-desert", models.Resolved, models.StreetEastWest, 33.743},
		{"abbreviated highway", "Hwy 111", "indian-wells", models.Resolved, models.StreetEastWest, 33.717},
		{"partial", "fred waring", "palm-desert", models.Resolved, models.StreetEastWest, 33.735},
		{"ambiguous across cities", "Highway 111", "", models.Ambiguous, "", 0},
		{"unknown", "Monterey Ave", "palm-desert", models.NotFound, "", 0},
		{"wrong city", "Cook Street", "indian-wells", models.NotFound, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.ResolveStreet(tt.street, tt.city)
			assert.Equal(t, tt.kind, res.Kind)
			if tt.kind == models.Resolved {
				require.NotNil(t, res.Street)
				assert.Equal(t, tt.direction, res.Street.Direction)
				assert.InDelta(t, tt.coord, res.Street.Coordinate, 1e-9)
			}
		})
	}
}

func TestNewIndex_RejectsDuplicates(t *testing.T) {
	_, err := NewIndex([]models.LocationEntity{
		{ID: "a", Name: "Palm Desert", Type: models.LocationCity},
		{ID: "b", Name: "palm  desert", Type: models.LocationCity},
	}, nil)
	require.Error(t, err)

	_, err = NewIndex([]models.LocationEntity{
		{ID: "a", Name: "Palm Desert", Type: models.LocationCity},
		{ID: "b", Name: "Palm Desert", Type: models.LocationSubdivision},
	}, nil)
	require.NoError(t, err)
}

func TestNewIndex_RejectsInvalidEntries(t *testing.T) {
	_, err := NewIndex([]models.LocationEntity{{ID: "x", Name: "  ", Type: models.LocationCity}}, nil)
	assert.Error(t, err)

	_, err = NewIndex([]models.LocationEntity{{ID: "x", Name: "Somewhere", Type: "planet"}}, nil)
	assert.Error(t, err)

	_, err = NewIndex(nil, []models.StreetSegment{{CityID: "c", StreetName: "Main", Direction: "diagonal"}})
	assert.Error(t, err)
}

func TestSeed_StreetNeedsMatchingCoordinate(t *testing.T) {
	seed, err := ReadSeed(strings.NewReader(`
streets:
  - city_id: palm-desert
    street_name: Cook Street
    direction: north-south
    coordinates: {latitude: 33.7}
`))
	require.NoError(t, err)

	_, err = seed.StreetSegments()
	assert.Error(t, err)
}

func TestNormalizeStreet(t *testing.T) {
	assert.Equal(t, "hwy 111", NormalizeStreet("Highway 111"))
	assert.Equal(t, "e palm canyon dr", NormalizeStreet("East Palm Canyon Drive"))
	assert.Equal(t, "el paseo", NormalizeStreet("El Paseo"))
}

func TestResolve_ReturnedAliasesAreCopies(t *testing.T) {
	r := testResolver(t)

	first := r.Resolve("IW", "")
	require.NotNil(t, first.Entity)
	require.Equal(t, []string{"IW"}, first.Entity.Aliases)
	first.Entity.Aliases[0] = "CHANGED"

	second := r.Resolve("Indian Wells", "")
	require.NotNil(t, second.Entity)
	assert.Equal(t, []string{"IW"}, second.Entity.Aliases)
	assert.Equal(t, models.Resolved, r.Resolve("iw", "").Kind)

	e, ok := r.Index().Entity("indian-wells")
	require.True(t, ok)
	e.Aliases[0] = "CHANGED"
	again, _ := r.Index().Entity("indian-wells")
	assert.Equal(t, []string{"IW"}, again.Aliases)
}

func TestIndex_Entity(t *testing.T) {
	r := testResolver(t)

	e, ok := r.Index().Entity("palm-desert")
	require.True(t, ok)
	assert.Equal(t, "Palm Desert", e.Name)
	assert.Equal(t, models.LocationCity, e.Type)

	_, ok = r.Index().Entity("atlantis")
	assert.False(t, ok)
}
