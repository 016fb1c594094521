package normalize

import (
	"time"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

// Field каноническое имя поля объявления.
type Field string

const (
	FieldPrice           Field = "price"
	FieldClosePrice      Field = "close_price"
	FieldBeds            Field = "beds"
	FieldBathsFull       Field = "baths_full"
	FieldBathsHalf       Field = "baths_half"
	FieldLivingAreaSqft  Field = "living_area_sqft"
	FieldLotSizeSqft     Field = "lot_size_sqft"
	FieldYearBuilt       Field = "year_built"
	FieldPropertyType    Field = "property_type"
	FieldPropertySubType Field = "property_sub_type"
	FieldLatitude        Field = "latitude"
	FieldLongitude       Field = "longitude"
	FieldStreetAddress   Field = "street_address"
	FieldCity            Field = "city"
	FieldSubdivision     Field = "subdivision"
	FieldCounty          Field = "county"
	FieldPostalCode      Field = "postal_code"
	FieldPool            Field = "pool"
	FieldSpa             Field = "spa"
	FieldGated           Field = "gated"
	FieldView            Field = "view"
	FieldHOAFee          Field = "hoa_fee"
	FieldHOAFrequency    Field = "hoa_frequency"
	FieldPropertyTax     Field = "property_tax"
	FieldPhotoURL        Field = "photo_url"
	FieldListedAt        Field = "listed_at"
	FieldClosedAt        Field = "closed_at"
)

// accessor описывает типизированные операции над одним полем канонической записи.
type accessor struct {
	present func(l *models.CanonicalListing) bool
	copy    func(dst, src *models.CanonicalListing)
	assign  func(l *models.CanonicalListing, raw any) bool
}

func ptrField[T any](ref func(*models.CanonicalListing) **T, parse func(any) (T, bool)) accessor {
	return accessor{
		present: func(l *models.CanonicalListing) bool { return *ref(l) != nil },
		copy: func(dst, src *models.CanonicalListing) {
			v := **ref(src)
			*ref(dst) = &v
		},
		assign: func(l *models.CanonicalListing, raw any) bool {
			v, ok := parse(raw)
			if !ok {
				return false
			}
			*ref(l) = &v
			return true
		},
	}
}

func stringField(ref func(*models.CanonicalListing) *string) accessor {
	return accessor{
		present: func(l *models.CanonicalListing) bool { return *ref(l) != "" },
		copy:    func(dst, src *models.CanonicalListing) { *ref(dst) = *ref(src) },
		assign: func(l *models.CanonicalListing, raw any) bool {
			v, ok := parseString(raw)
			if !ok {
				return false
			}
			*ref(l) = v
			return true
		},
	}
}

// fields таблица канонических полей. Порядок обхода задается fieldOrder.
var fields = map[Field]accessor{
	FieldPrice:           ptrField(func(l *models.CanonicalListing) **int64 { return &l.Price }, parsePositiveInt64),
	FieldClosePrice:      ptrField(func(l *models.CanonicalListing) **int64 { return &l.ClosePrice }, parsePositiveInt64),
	FieldBeds:            ptrField(func(l *models.CanonicalListing) **int { return &l.Beds }, parseNonNegativeInt),
	FieldBathsFull:       ptrField(func(l *models.CanonicalListing) **int { return &l.BathsFull }, parseNonNegativeInt),
	FieldBathsHalf:       ptrField(func(l *models.CanonicalListing) **int { return &l.BathsHalf }, parseNonNegativeInt),
	FieldLivingAreaSqft:  ptrField(func(l *models.CanonicalListing) **float64 { return &l.LivingAreaSqft }, parsePositiveFloat),
	FieldLotSizeSqft:     ptrField(func(l *models.CanonicalListing) **float64 { return &l.LotSizeSqft }, parsePositiveFloat),
	FieldYearBuilt:       ptrField(func(l *models.CanonicalListing) **int { return &l.YearBuilt }, parseYear),
	FieldPropertyType:    stringField(func(l *models.CanonicalListing) *string { return &l.PropertyType }),
	FieldPropertySubType: stringField(func(l *models.CanonicalListing) *string { return &l.PropertySubType }),
	FieldLatitude:        ptrField(func(l *models.CanonicalListing) **float64 { return &l.Location.Latitude }, parseLatitude),
	FieldLongitude:       ptrField(func(l *models.CanonicalListing) **float64 { return &l.Location.Longitude }, parseLongitude),
	FieldStreetAddress:   stringField(func(l *models.CanonicalListing) *string { return &l.Location.StreetAddress }),
	FieldCity:            stringField(func(l *models.CanonicalListing) *string { return &l.Location.City }),
	FieldSubdivision:     stringField(func(l *models.CanonicalListing) *string { return &l.Location.Subdivision }),
	FieldCounty:          stringField(func(l *models.CanonicalListing) *string { return &l.Location.County }),
	FieldPostalCode:      stringField(func(l *models.CanonicalListing) *string { return &l.Location.PostalCode }),
	FieldPool:            ptrField(func(l *models.CanonicalListing) **bool { return &l.Amenities.Pool }, parseBool),
	FieldSpa:             ptrField(func(l *models.CanonicalListing) **bool { return &l.Amenities.Spa }, parseBool),
	FieldGated:           ptrField(func(l *models.CanonicalListing) **bool { return &l.Amenities.Gated }, parseBool),
	FieldView:            stringField(func(l *models.CanonicalListing) *string { return &l.Amenities.View }),
	FieldHOAFee:          ptrField(func(l *models.CanonicalListing) **float64 { return &l.Financial.HOAFee }, parseNonNegativeFloat),
	FieldHOAFrequency:    stringField(func(l *models.CanonicalListing) *string { return &l.Financial.HOAFrequency }),
	FieldPropertyTax:     ptrField(func(l *models.CanonicalListing) **float64 { return &l.Financial.PropertyTax }, parseNonNegativeFloat),
	FieldPhotoURL:        stringField(func(l *models.CanonicalListing) *string { return &l.PhotoURL }),
	FieldListedAt:        ptrField(func(l *models.CanonicalListing) **time.Time { return &l.ListedAt }, parseTime),
	FieldClosedAt:        ptrField(func(l *models.CanonicalListing) **time.Time { return &l.ClosedAt }, parseTime),
}

var fieldOrder = []Field{
	FieldPrice, FieldClosePrice, FieldBeds, FieldBathsFull, FieldBathsHalf,
	FieldLivingAreaSqft, FieldLotSizeSqft, FieldYearBuilt, FieldPropertyType, FieldPropertySubType,
	FieldLatitude, FieldLongitude, FieldStreetAddress, FieldCity, FieldSubdivision, FieldCounty, FieldPostalCode,
	FieldPool, FieldSpa, FieldGated, FieldView,
	FieldHOAFee, FieldHOAFrequency, FieldPropertyTax, FieldPhotoURL,
	FieldListedAt, FieldClosedAt,
}
