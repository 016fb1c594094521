package models

// ClusterNode элемент карты: либо отдельное объявление, либо агрегат.
// Для точечного узла заполнен Listing, для агрегата Count, Centroid, BoundingTileID и Bounds тайла.
type ClusterNode struct {
	Listing        *CanonicalListing `json:"listing,omitempty"`
	Count          int               `json:"count"`
	Centroid       GeoPoint          `json:"centroid"`
	BoundingTileID string            `json:"bounding_tile_id"`
	Bounds         *Bounds           `json:"bounds,omitempty"`
}

// IsPoint сообщает, что узел представляет одно объявление.
func (n ClusterNode) IsPoint() bool {
	return n.Listing != nil
}

// Viewport видимая область карты.
type Viewport struct {
	North float64 `json:"north" validate:"gte=-90,lte=90"`
	South float64 `json:"south" validate:"gte=-90,lte=90"`
	East  float64 `json:"east" validate:"gte=-180,lte=180"`
	West  float64 `json:"west" validate:"gte=-180,lte=180"`
}

// ClusterRequest запрос кластеров для карты.
type ClusterRequest struct {
	Filter   FilterSpec `json:"filter"`
	Viewport Viewport   `json:"viewport"`
	Zoom     int        `json:"zoom" validate:"gte=0,lte=22"`
}

// ClusterResponse ответ со списком узлов.
// TotalCount число объявлений в узлах, TotalMatches число совпадений фильтра
// внутри viewport. Truncated означает, что выборка упёрлась в предел и часть
// совпадений в узлы не попала.
type ClusterResponse struct {
	Nodes        []ClusterNode `json:"nodes"`
	TotalCount   int           `json:"total_count"`
	TotalMatches int           `json:"total_matches"`
	Truncated    bool          `json:"truncated"`
	Zoom         int           `json:"zoom"`
}
