package query

import (
	"fmt"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

// Compile переводит спецификацию в Criteria. Каждое непустое поле дает один предикат.
// Локация и улица должны быть разрешены заранее (поле Resolved).
func Compile(spec *models.FilterSpec) (Criteria, error) {
	var c Criteria
	add := func(p Predicate) {
		c.Predicates = append(c.Predicates, p)
	}

	if r, ok := intRange(FieldPrice, spec.MinPrice, spec.MaxPrice); ok {
		add(r)
	}
	if spec.MinBeds != nil {
		add(Range{Field: FieldBeds, Min: floatPtr(float64(*spec.MinBeds))})
	}
	if spec.MinBaths != nil {
		add(Range{Field: FieldBaths, Min: floatPtr(*spec.MinBaths)})
	}
	if r, ok := floatRange(FieldSqft, spec.MinSqft, spec.MaxSqft); ok {
		add(r)
	}
	if r, ok := floatRange(FieldLotSqft, spec.MinLotSqft, spec.MaxLotSqft); ok {
		add(r)
	}
	if r, ok := intRange(FieldYearBuilt, spec.MinYearBuilt, spec.MaxYearBuilt); ok {
		add(r)
	}
	if spec.PropertyType != "" {
		add(Term{Field: FieldPropertyType, Value: spec.PropertyType})
	}
	if spec.PropertySubType != "" {
		add(Term{Field: FieldPropertySubType, Value: spec.PropertySubType})
	}
	if spec.Pool != nil {
		add(Term{Field: FieldPool, Value: *spec.Pool})
	}
	if spec.Spa != nil {
		add(Term{Field: FieldSpa, Value: *spec.Spa})
	}
	if spec.Gated != nil {
		add(Term{Field: FieldGated, Value: *spec.Gated})
	}
	if spec.View != nil {
		if *spec.View {
			add(Exists{Field: FieldView})
		} else {
			add(Missing{Field: FieldView})
		}
	}
	if spec.MaxHOA != nil {
		// Объявления без HOA подходят под любой потолок.
		add(Range{Field: FieldHOAFee, Max: floatPtr(*spec.MaxHOA), AllowMissing: true})
	}
	if len(spec.Statuses) > 0 {
		values := make([]string, len(spec.Statuses))
		for i, s := range spec.Statuses {
			values[i] = string(s)
		}
		add(Terms{Field: FieldStatus, Values: values})
	}
	if spec.ClosedFrom != nil || spec.ClosedTo != nil {
		add(TimeRange{Field: FieldClosedAt, From: spec.ClosedFrom, To: spec.ClosedTo})
	}
	if spec.City != "" {
		add(Term{Field: FieldCity, Value: spec.City})
	}

	if spec.Location != nil {
		p, err := locationPredicate(spec.Location)
		if err != nil {
			return Criteria{}, err
		}
		add(p)
	}

	if spec.Street != nil {
		ps, err := streetPredicates(spec.Street)
		if err != nil {
			return Criteria{}, err
		}
		for _, p := range ps {
			add(p)
		}
	}

	c.Sort = sortKeys(spec.Sort)
	return c, nil
}

func locationPredicate(lf *models.LocationFilter) (Predicate, error) {
	e := lf.Resolved
	if e == nil {
		return nil, models.NewFilterSpecError("location", "not resolved")
	}

	switch e.Type {
	case models.LocationCity:
		return Term{Field: FieldCity, Value: e.Name}, nil
	case models.LocationSubdivision:
		return Term{Field: FieldSubdivision, Value: e.Name}, nil
	case models.LocationCounty:
		if e.Bounds.IsZero() {
			return Term{Field: FieldCounty, Value: e.Name}, nil
		}
		return BoundingBox{Bounds: e.Bounds}, nil
	case models.LocationRegion:
		if e.Bounds.IsZero() {
			return nil, models.NewFilterSpecError("location", fmt.Sprintf("region %q has no bounds", e.Name))
		}
		return BoundingBox{Bounds: e.Bounds}, nil
	}
	return nil, models.NewFilterSpecError("location.type", "unsupported")
}

// streetPredicates сравнивает координату объявления с линией улицы:
// широту для улиц восток-запад, долготу для север-юг. Сегмент действует только
// в своем городе и, если заданы границы, в пределах своей протяженности вдоль линии.
func streetPredicates(sf *models.StreetFilter) ([]Predicate, error) {
	s := sf.Resolved
	if s == nil {
		return nil, models.NewFilterSpecError("street", "not resolved")
	}

	c := s.Coordinate
	var side Predicate
	switch {
	case s.Direction == models.StreetEastWest && sf.Side == models.SideNorth:
		side = Range{Field: FieldLatitude, Min: &c, ExclusiveMin: true}
	case s.Direction == models.StreetEastWest && sf.Side == models.SideSouth:
		side = Range{Field: FieldLatitude, Max: &c, ExclusiveMax: true}
	case s.Direction == models.StreetNorthSouth && sf.Side == models.SideEast:
		side = Range{Field: FieldLongitude, Min: &c, ExclusiveMin: true}
	case s.Direction == models.StreetNorthSouth && sf.Side == models.SideWest:
		side = Range{Field: FieldLongitude, Max: &c, ExclusiveMax: true}
	default:
		return nil, models.NewFilterSpecError("street.side",
			fmt.Sprintf("%s is not valid for a %s street", sf.Side, s.Direction))
	}

	out := []Predicate{side}
	if sf.City != nil {
		out = append(out, Term{Field: FieldCity, Value: sf.City.Name})
	}
	if b := s.Bounds; b != nil && !b.IsZero() {
		if s.Direction == models.StreetEastWest {
			out = append(out, Range{Field: FieldLongitude, Min: floatPtr(b.West), Max: floatPtr(b.East)})
		} else {
			out = append(out, Range{Field: FieldLatitude, Min: floatPtr(b.South), Max: floatPtr(b.North)})
		}
	}
	return out, nil
}

func intRange[T ~int | ~int64](field Field, min, max *T) (Range, bool) {
	if min == nil && max == nil {
		return Range{}, false
	}
	r := Range{Field: field}
	if min != nil {
		r.Min = floatPtr(float64(*min))
	}
	if max != nil {
		r.Max = floatPtr(float64(*max))
	}
	return r, true
}

func floatRange(field Field, min, max *float64) (Range, bool) {
	if min == nil && max == nil {
		return Range{}, false
	}
	return Range{Field: field, Min: min, Max: max}, true
}

// sortKeys возвращает ключи сортировки; последний ключ всегда listing_key по возрастанию.
func sortKeys(order models.SortOrder) []SortKey {
	var keys []SortKey
	switch order {
	case models.SortPriceAsc:
		keys = []SortKey{{Field: FieldPrice}}
	case models.SortPriceDesc:
		keys = []SortKey{{Field: FieldPrice, Desc: true}}
	case models.SortSqftAsc:
		keys = []SortKey{{Field: FieldSqft}}
	case models.SortSqftDesc:
		keys = []SortKey{{Field: FieldSqft, Desc: true}}
	case models.SortOldest:
		keys = []SortKey{{Field: FieldListedAt}}
	default:
		keys = []SortKey{{Field: FieldListedAt, Desc: true}}
	}
	return append(keys, SortKey{Field: FieldListingKey})
}
