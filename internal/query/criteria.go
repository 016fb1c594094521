// Package query компилирует FilterSpec в набор независимых предикатов
// и выполняет его через хранилище.
package query

import (
	"time"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

// Field путь к полю документа объявления.
type Field string

const (
	FieldListingKey      Field = "listing_key"
	FieldStatus          Field = "status"
	FieldPrice           Field = "price"
	FieldClosePrice      Field = "close_price"
	FieldBeds            Field = "beds"
	FieldBaths           Field = "baths_total"
	FieldSqft            Field = "living_area_sqft"
	FieldLotSqft         Field = "lot_size_sqft"
	FieldYearBuilt       Field = "year_built"
	FieldPropertyType    Field = "property_type"
	FieldPropertySubType Field = "property_sub_type"
	FieldPool            Field = "amenities.pool"
	FieldSpa             Field = "amenities.spa"
	FieldGated           Field = "amenities.gated"
	FieldView            Field = "amenities.view"
	FieldHOAFee          Field = "financial.hoa_fee"
	FieldListedAt        Field = "listed_at"
	FieldClosedAt        Field = "closed_at"
	FieldCity            Field = "location.city"
	FieldSubdivision     Field = "location.subdivision"
	FieldCounty          Field = "location.county"
	FieldLatitude        Field = "location.latitude"
	FieldLongitude       Field = "location.longitude"
)

// Predicate одно условие запроса. Все предикаты Criteria объединяются через AND.
type Predicate interface {
	predicate()
}

// Term точное совпадение. Строки сравниваются без учета регистра.
type Term struct {
	Field Field
	Value any
}

// Terms совпадение с одним из значений.
type Terms struct {
	Field  Field
	Values []string
}

// Range числовой диапазон; nil-граница не ограничивает.
// Пустое поле условию не удовлетворяет, если не задан AllowMissing.
type Range struct {
	Field        Field
	Min          *float64
	Max          *float64
	ExclusiveMin bool
	ExclusiveMax bool
	AllowMissing bool
}

// TimeRange диапазон дат, границы включительно.
type TimeRange struct {
	Field Field
	From  *time.Time
	To    *time.Time
}

// BoundingBox попадание координат объявления в прямоугольник.
type BoundingBox struct {
	Bounds models.Bounds
}

// Exists поле заполнено.
type Exists struct {
	Field Field
}

// Missing поле не заполнено.
type Missing struct {
	Field Field
}

// AnyOf выполняется, если выполнен хотя бы один вложенный предикат.
type AnyOf struct {
	Predicates []Predicate
}

func (Term) predicate()        {}
func (Terms) predicate()       {}
func (Range) predicate()       {}
func (TimeRange) predicate()   {}
func (BoundingBox) predicate() {}
func (Exists) predicate()      {}
func (Missing) predicate()     {}
func (AnyOf) predicate()       {}

// SortKey поле сортировки. Объявления без значения идут последними.
type SortKey struct {
	Field Field
	Desc  bool
}

// Criteria скомпилированный запрос, не зависящий от хранилища.
type Criteria struct {
	Predicates []Predicate
	Sort       []SortKey
}

func floatPtr(v float64) *float64 {
	return &v
}
