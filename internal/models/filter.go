package models

import "time"

// SortOrder задает порядок выдачи.
type SortOrder string

const (
	SortRelevance SortOrder = "relevance"
	SortPriceAsc  SortOrder = "price-asc"
	SortPriceDesc SortOrder = "price-desc"
	SortSqftAsc   SortOrder = "sqft-asc"
	SortSqftDesc  SortOrder = "sqft-desc"
	SortNewest    SortOrder = "newest"
	SortOldest    SortOrder = "oldest"
)

// StreetSide задает сторону улицы относительно ее линии.
type StreetSide string

const (
	SideNorth StreetSide = "north"
	SideSouth StreetSide = "south"
	SideEast  StreetSide = "east"
	SideWest  StreetSide = "west"
)

// LocationFilter ссылка на именованную локацию. Resolved заполняется
// резолвером до компиляции запроса.
type LocationFilter struct {
	Name     string          `json:"name" validate:"required"`
	Type     LocationType    `json:"type,omitempty" validate:"omitempty,oneof=city subdivision county region"`
	Resolved *LocationEntity `json:"-"`
}

// StreetFilter ограничивает выдачу одной стороной улицы.
type StreetFilter struct {
	Name     string         `json:"name" validate:"required"`
	Side     StreetSide     `json:"side" validate:"required,oneof=north south east west"`
	CityID   string         `json:"city_id,omitempty"`
	Resolved *StreetSegment `json:"-"`
	// City город разрешенного сегмента.
	City *LocationEntity `json:"-"`
}

// FilterSpec представляет структурированные критерии поиска.
// Пустое поле не порождает условия; все условия объединяются через AND.
type FilterSpec struct {
	MinPrice        *int64          `json:"min_price,omitempty" validate:"omitempty,gte=0"`
	MaxPrice        *int64          `json:"max_price,omitempty" validate:"omitempty,gte=0"`
	MinBeds         *int            `json:"min_beds,omitempty" validate:"omitempty,gte=0"`
	MinBaths        *float64        `json:"min_baths,omitempty" validate:"omitempty,gte=0"`
	MinSqft         *float64        `json:"min_sqft,omitempty" validate:"omitempty,gte=0"`
	MaxSqft         *float64        `json:"max_sqft,omitempty" validate:"omitempty,gte=0"`
	MinLotSqft      *float64        `json:"min_lot_sqft,omitempty" validate:"omitempty,gte=0"`
	MaxLotSqft      *float64        `json:"max_lot_sqft,omitempty" validate:"omitempty,gte=0"`
	MinYearBuilt    *int            `json:"min_year_built,omitempty" validate:"omitempty,gte=0"`
	MaxYearBuilt    *int            `json:"max_year_built,omitempty" validate:"omitempty,gte=0"`
	PropertyType    string          `json:"property_type,omitempty"`
	PropertySubType string          `json:"property_sub_type,omitempty"`
	Pool            *bool           `json:"pool,omitempty"`
	Spa             *bool           `json:"spa,omitempty"`
	Gated           *bool           `json:"gated,omitempty"`
	View            *bool           `json:"view,omitempty"`
	MaxHOA          *float64        `json:"max_hoa,omitempty" validate:"omitempty,gte=0"`
	Statuses        []Status        `json:"statuses,omitempty" validate:"omitempty,dive,oneof=Active Pending Closed Expired Withdrawn"`
	ClosedFrom      *time.Time      `json:"closed_from,omitempty"`
	ClosedTo        *time.Time      `json:"closed_to,omitempty"`
	City            string          `json:"city,omitempty"`
	Location        *LocationFilter `json:"location,omitempty"`
	Street          *StreetFilter   `json:"street,omitempty"`
	Sort            SortOrder       `json:"sort,omitempty" validate:"omitempty,oneof=relevance price-asc price-desc sqft-asc sqft-desc newest oldest"`
	Cursor          string          `json:"cursor,omitempty"`
	PageSize        int             `json:"page_size,omitempty" validate:"omitempty,gte=1"`
}

// PageInfo описывает позицию страницы в выдаче.
type PageInfo struct {
	PageSize   int    `json:"page_size"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// SearchResult страница результатов поиска.
type SearchResult struct {
	Items      []CanonicalListing `json:"items"`
	TotalCount int                `json:"total_count"`
	PageInfo   PageInfo           `json:"page_info"`
}
