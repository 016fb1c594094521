package normalize

import (
	"strings"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

// Schema описывает словарь одного фида: ключ, метку синхронизации,
// соответствие имен полей каноническим и значения статусов.
type Schema struct {
	Source    models.Source
	KeyField  string
	SyncField string
	// StatusField имя поля статуса в фиде.
	StatusField string
	Fields      map[string]Field
	Statuses    map[string]models.Status
}

// FeedASchema словарь фида FeedA (RESO-подобные имена).
var FeedASchema = Schema{
	Source:      models.SourceFeedA,
	KeyField:    "ListingKey",
	SyncField:   "ModificationTimestamp",
	StatusField: "StandardStatus",
	Fields: map[string]Field{
		"ListPrice":               FieldPrice,
		"ClosePrice":              FieldClosePrice,
		"BedroomsTotal":           FieldBeds,
		"BathroomsFull":           FieldBathsFull,
		"BathroomsHalf":           FieldBathsHalf,
		"LivingArea":              FieldLivingAreaSqft,
		"LotSizeSquareFeet":       FieldLotSizeSqft,
		"YearBuilt":               FieldYearBuilt,
		"PropertyType":            FieldPropertyType,
		"PropertySubType":         FieldPropertySubType,
		"Latitude":                FieldLatitude,
		"Longitude":               FieldLongitude,
		"UnparsedAddress":         FieldStreetAddress,
		"City":                    FieldCity,
		"SubdivisionName":         FieldSubdivision,
		"CountyOrParish":          FieldCounty,
		"PostalCode":              FieldPostalCode,
		"PoolPrivateYN":           FieldPool,
		"SpaYN":                   FieldSpa,
		"GatedCommunityYN":        FieldGated,
		"View":                    FieldView,
		"AssociationFee":          FieldHOAFee,
		"AssociationFeeFrequency": FieldHOAFrequency,
		"TaxAnnualAmount":         FieldPropertyTax,
		"PrimaryPhotoURL":         FieldPhotoURL,
		"OnMarketDate":            FieldListedAt,
		"CloseDate":               FieldClosedAt,
	},
	Statuses: map[string]models.Status{
		"active":                models.StatusActive,
		"active under contract": models.StatusPending,
		"coming soon":           models.StatusActive,
		"pending":               models.StatusPending,
		"closed":                models.StatusClosed,
		"expired":               models.StatusExpired,
		"withdrawn":             models.StatusWithdrawn,
		"canceled":              models.StatusWithdrawn,
		"cancelled":             models.StatusWithdrawn,
	},
}

// FeedBSchema словарь фида FeedB (сокращенные имена).
var FeedBSchema = Schema{
	Source:      models.SourceFeedB,
	KeyField:    "listingKey",
	SyncField:   "syncedAt",
	StatusField: "status",
	Fields: map[string]Field{
		"price":        FieldPrice,
		"soldPrice":    FieldClosePrice,
		"bedsTotal":    FieldBeds,
		"bathsFull":    FieldBathsFull,
		"bathsHalf":    FieldBathsHalf,
		"sqft":         FieldLivingAreaSqft,
		"lotSqft":      FieldLotSizeSqft,
		"yearBuilt":    FieldYearBuilt,
		"type":         FieldPropertyType,
		"subType":      FieldPropertySubType,
		"lat":          FieldLatitude,
		"lng":          FieldLongitude,
		"address":      FieldStreetAddress,
		"city":         FieldCity,
		"subdivision":  FieldSubdivision,
		"county":       FieldCounty,
		"zip":          FieldPostalCode,
		"pool":         FieldPool,
		"spa":          FieldSpa,
		"gated":        FieldGated,
		"view":         FieldView,
		"hoaFee":       FieldHOAFee,
		"hoaFrequency": FieldHOAFrequency,
		"taxAmount":    FieldPropertyTax,
		"photo":        FieldPhotoURL,
		"listDate":     FieldListedAt,
		"soldDate":     FieldClosedAt,
	},
	Statuses: map[string]models.Status{
		"a":         models.StatusActive,
		"active":    models.StatusActive,
		"p":         models.StatusPending,
		"pending":   models.StatusPending,
		"s":         models.StatusClosed,
		"sold":      models.StatusClosed,
		"closed":    models.StatusClosed,
		"x":         models.StatusExpired,
		"expired":   models.StatusExpired,
		"w":         models.StatusWithdrawn,
		"withdrawn": models.StatusWithdrawn,
	},
}

// SchemaFor возвращает словарь по источнику.
func SchemaFor(source models.Source) (Schema, bool) {
	switch source {
	case models.SourceFeedA:
		return FeedASchema, true
	case models.SourceFeedB:
		return FeedBSchema, true
	}
	return Schema{}, false
}

func (s Schema) status(raw any) (models.Status, bool) {
	v, ok := parseString(raw)
	if !ok {
		return "", false
	}
	st, ok := s.Statuses[strings.ToLower(v)]
	return st, ok
}
