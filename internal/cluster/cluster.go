// Package cluster группирует объявления в узлы карты по тайлам Web Mercator.
package cluster

import (
	"sort"

	"github.com/paulmach/orb/maptile"

	"github.com/akozadaev/go_es_listing_engine/internal/geotile"
	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

type group struct {
	tile    maptile.Tile
	members []*models.CanonicalListing
}

// InViewport сообщает, попадает ли точка в видимую область.
// Если West > East, область пересекает антимеридиан.
func InViewport(v models.Viewport, lat, lon float64) bool {
	if lat < v.South || lat > v.North {
		return false
	}
	if v.West <= v.East {
		return lon >= v.West && lon <= v.East
	}
	return lon >= v.West || lon <= v.East
}

// ViewportBoxes разбивает viewport на прямоугольники без пересечения антимеридиана:
// один для обычной области, два для области с West > East.
func ViewportBoxes(v models.Viewport) []models.Bounds {
	if v.West <= v.East {
		return []models.Bounds{{North: v.North, South: v.South, East: v.East, West: v.West}}
	}
	return []models.Bounds{
		{North: v.North, South: v.South, East: 180, West: v.West},
		{North: v.North, South: v.South, East: v.East, West: -180},
	}
}

// Cluster раскладывает объявления по тайлам масштаба zoom.
// Тайл с одним объявлением дает точечный узел, с несколькими агрегат с центроидом.
// Объявления без координат и вне viewport пропускаются. Порядок узлов не зависит от порядка входа.
func Cluster(listings []models.CanonicalListing, viewport models.Viewport, zoom int) []models.ClusterNode {
	groups := make(map[maptile.Tile]*group)

	for i := range listings {
		l := &listings[i]
		p, ok := l.Point()
		if !ok || !InViewport(viewport, p.Lat, p.Lon) {
			continue
		}

		t := geotile.At(p.Lat, p.Lon, zoom)
		g, ok := groups[t]
		if !ok {
			g = &group{tile: t}
			groups[t] = g
		}
		g.members = append(g.members, l)
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return geotile.Less(ordered[i].tile, ordered[j].tile)
	})

	nodes := make([]models.ClusterNode, 0, len(ordered))
	for _, g := range ordered {
		nodes = append(nodes, node(g))
	}
	return nodes
}

func node(g *group) models.ClusterNode {
	// Суммирование в порядке ключей, чтобы центроид не зависел от порядка входа.
	sort.Slice(g.members, func(i, j int) bool {
		return g.members[i].ListingKey < g.members[j].ListingKey
	})
	var lat, lon float64
	for _, m := range g.members {
		p, _ := m.Point()
		lat += p.Lat
		lon += p.Lon
	}

	n := len(g.members)
	out := models.ClusterNode{
		Count:          n,
		Centroid:       models.GeoPoint{Lat: lat / float64(n), Lon: lon / float64(n)},
		BoundingTileID: geotile.ID(g.tile),
	}
	if n == 1 {
		out.Listing = g.members[0]
	} else {
		b := geotile.Bounds(g.tile)
		out.Bounds = &b
	}
	return out
}

// Total число объявлений во всех узлах.
func Total(nodes []models.ClusterNode) int {
	total := 0
	for _, n := range nodes {
		total += n.Count
	}
	return total
}
