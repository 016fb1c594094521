package models

// LocationType задает тип именованной локации.
type LocationType string

const (
	LocationCity        LocationType = "city"
	LocationSubdivision LocationType = "subdivision"
	LocationCounty      LocationType = "county"
	LocationRegion      LocationType = "region"
)

// Valid сообщает, поддерживается ли тип локации.
func (t LocationType) Valid() bool {
	switch t {
	case LocationCity, LocationSubdivision, LocationCounty, LocationRegion:
		return true
	}
	return false
}

// Bounds представляет прямоугольник в градусах.
type Bounds struct {
	North float64 `json:"north" yaml:"north"`
	South float64 `json:"south" yaml:"south"`
	East  float64 `json:"east" yaml:"east"`
	West  float64 `json:"west" yaml:"west"`
}

// IsZero сообщает, что границы не заданы.
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

// Contains проверяет попадание точки в прямоугольник (границы включительно).
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.South && lat <= b.North && lon >= b.West && lon <= b.East
}

// LocationEntity представляет запись справочника локаций.
// Пара (NormalizedName, Type) уникальна в пределах индекса.
type LocationEntity struct {
	ID             string       `json:"id" yaml:"id"`
	Name           string       `json:"name" yaml:"name"`
	NormalizedName string       `json:"normalized_name" yaml:"normalized_name,omitempty"`
	Type           LocationType `json:"type" yaml:"type"`
	City           string       `json:"city,omitempty" yaml:"city,omitempty"`
	Aliases        []string     `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Coordinates    GeoPoint     `json:"coordinates" yaml:"coordinates"`
	Bounds         Bounds       `json:"bounds" yaml:"bounds"`
	ListingCount   int          `json:"listing_count" yaml:"listing_count"`
}

// StreetDirection задает ориентацию улицы.
type StreetDirection string

const (
	StreetNorthSouth StreetDirection = "north-south"
	StreetEastWest   StreetDirection = "east-west"
)

// StreetSegment описывает улицу как линию постоянной координаты.
// Для улиц восток-запад Coordinate это широта, для север-юг долгота.
type StreetSegment struct {
	CityID         string          `json:"city_id" yaml:"city_id"`
	StreetName     string          `json:"street_name" yaml:"street_name"`
	NormalizedName string          `json:"normalized_name" yaml:"normalized_name,omitempty"`
	Direction      StreetDirection `json:"direction" yaml:"direction"`
	Coordinate     float64         `json:"coordinate" yaml:"coordinate"`
	Bounds         *Bounds         `json:"bounds,omitempty" yaml:"bounds,omitempty"`
}

// ResolutionKind описывает исход разрешения имени.
type ResolutionKind string

const (
	Resolved  ResolutionKind = "resolved"
	Ambiguous ResolutionKind = "ambiguous"
	NotFound  ResolutionKind = "not_found"
)

// LocationResolution результат разрешения названия локации.
type LocationResolution struct {
	Kind       ResolutionKind   `json:"kind"`
	Query      string           `json:"query"`
	Entity     *LocationEntity  `json:"entity,omitempty"`
	Candidates []LocationEntity `json:"candidates,omitempty"`
}

// Err возвращает ErrNotFound или ErrAmbiguous для неразрешенного имени.
func (r LocationResolution) Err() error {
	return r.Kind.err()
}

// StreetResolution результат разрешения названия улицы.
type StreetResolution struct {
	Kind       ResolutionKind  `json:"kind"`
	Query      string          `json:"query"`
	Street     *StreetSegment  `json:"street,omitempty"`
	Candidates []StreetSegment `json:"candidates,omitempty"`
}

// Err возвращает ErrNotFound или ErrAmbiguous для неразрешенного имени.
func (r StreetResolution) Err() error {
	return r.Kind.err()
}

func (k ResolutionKind) err() error {
	switch k {
	case Resolved:
		return nil
	case Ambiguous:
		return ErrAmbiguous
	default:
		return ErrNotFound
	}
}
