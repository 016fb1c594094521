// Package models содержит доменные типы: объявления, справочник локаций,
// спецификацию фильтра, узлы кластеров и результаты аналитики.
package models

import (
	"fmt"
	"time"
)

// Source определяет фид, из которого пришла запись. Используется только для аудита.
type Source string

const (
	SourceFeedA Source = "FeedA"
	SourceFeedB Source = "FeedB"
)

// Status представляет жизненный цикл объявления. Объявления никогда не удаляются,
// меняется только статус.
type Status string

const (
	StatusActive    Status = "Active"
	StatusPending   Status = "Pending"
	StatusClosed    Status = "Closed"
	StatusExpired   Status = "Expired"
	StatusWithdrawn Status = "Withdrawn"
)

// Valid сообщает, входит ли статус в допустимый набор.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPending, StatusClosed, StatusExpired, StatusWithdrawn:
		return true
	}
	return false
}

// GeoPoint представляет географические координаты
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ListingLocation содержит адрес и координаты объявления.
// Координаты необязательны: объявление без них хранится, но не попадает на карту.
type ListingLocation struct {
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	StreetAddress string   `json:"street_address,omitempty"`
	City          string   `json:"city,omitempty"`
	Subdivision   string   `json:"subdivision,omitempty"`
	County        string   `json:"county,omitempty"`
	PostalCode    string   `json:"postal_code,omitempty"`
}

// Amenities описывает удобства объекта.
type Amenities struct {
	Pool  *bool  `json:"pool,omitempty"`
	Spa   *bool  `json:"spa,omitempty"`
	Gated *bool  `json:"gated,omitempty"`
	View  string `json:"view,omitempty"`
}

// Financial содержит платежи ТСЖ (HOA) и налог на недвижимость.
type Financial struct {
	HOAFee       *float64 `json:"hoa_fee,omitempty"`
	HOAFrequency string   `json:"hoa_frequency,omitempty"`
	PropertyTax  *float64 `json:"property_tax,omitempty"`
}

// CanonicalListing представляет объединенную запись об объекте после дедупликации фидов.
// На один ListingKey приходится ровно одна запись.
type CanonicalListing struct {
	ListingKey      string          `json:"listing_key"`
	Source          Source          `json:"source"`
	Status          Status          `json:"status"`
	Price           *int64          `json:"price,omitempty"`
	ClosePrice      *int64          `json:"close_price,omitempty"`
	Beds            *int            `json:"beds,omitempty"`
	BathsFull       *int            `json:"baths_full,omitempty"`
	BathsHalf       *int            `json:"baths_half,omitempty"`
	LivingAreaSqft  *float64        `json:"living_area_sqft,omitempty"`
	LotSizeSqft     *float64        `json:"lot_size_sqft,omitempty"`
	YearBuilt       *int            `json:"year_built,omitempty"`
	PropertyType    string          `json:"property_type,omitempty"`
	PropertySubType string          `json:"property_sub_type,omitempty"`
	Location        ListingLocation `json:"location"`
	Amenities       Amenities       `json:"amenities"`
	Financial       Financial       `json:"financial"`
	PhotoURL        string          `json:"photo_url,omitempty"`
	ListedAt        *time.Time      `json:"listed_at,omitempty"`
	ClosedAt        *time.Time      `json:"closed_at,omitempty"`
	SyncedAt        time.Time       `json:"synced_at"`
}

// Mappable сообщает, есть ли у объявления обе координаты.
func (l *CanonicalListing) Mappable() bool {
	return l.Location.Latitude != nil && l.Location.Longitude != nil
}

// Point возвращает координаты объявления, если они есть.
func (l *CanonicalListing) Point() (GeoPoint, bool) {
	if !l.Mappable() {
		return GeoPoint{}, false
	}
	return GeoPoint{Lat: *l.Location.Latitude, Lon: *l.Location.Longitude}, true
}

// SalePrice возвращает цену сделки, а для незакрытых объявлений цену листинга.
func (l *CanonicalListing) SalePrice() (int64, bool) {
	if l.ClosePrice != nil {
		return *l.ClosePrice, true
	}
	if l.Price != nil {
		return *l.Price, true
	}
	return 0, false
}

// Baths возвращает число ванных с учетом половинных (0.5 за каждую).
func (l *CanonicalListing) Baths() (float64, bool) {
	if l.BathsFull == nil && l.BathsHalf == nil {
		return 0, false
	}
	var total float64
	if l.BathsFull != nil {
		total += float64(*l.BathsFull)
	}
	if l.BathsHalf != nil {
		total += 0.5 * float64(*l.BathsHalf)
	}
	return total, true
}

// ListingPhotos фотографии объявления. Placeholder означает, что провайдер
// не вернул фотографии и подставлен URL-заглушка.
type ListingPhotos struct {
	ListingKey  string   `json:"listing_key"`
	URLs        []string `json:"urls"`
	Placeholder bool     `json:"placeholder"`
}

// MediaReport итог обогащения выдачи фотографиями.
// Failed > 0 означает частичный отказ; ответ при этом остается успешным.
type MediaReport struct {
	Requested int `json:"requested"`
	Failed    int `json:"failed"`
}

// Err возвращает ErrPartialFailure, если часть запросов не удалась.
func (r MediaReport) Err() error {
	if r.Failed > 0 {
		return fmt.Errorf("%w: %d of %d media requests failed", ErrPartialFailure, r.Failed, r.Requested)
	}
	return nil
}
