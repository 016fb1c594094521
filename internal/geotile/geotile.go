// Package geotile переводит координаты в тайлы Web Mercator (slippy map) и обратно.
package geotile

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

const (
	// MinZoom и MaxZoom ограничивают уровень масштаба.
	MinZoom = 0
	MaxZoom = 22

	// MaxLatitude предел проекции Web Mercator.
	MaxLatitude = 85.05112878
)

// ClampZoom приводит масштаб к диапазону [MinZoom, MaxZoom].
func ClampZoom(zoom int) maptile.Zoom {
	if zoom < MinZoom {
		zoom = MinZoom
	}
	if zoom > MaxZoom {
		zoom = MaxZoom
	}
	return maptile.Zoom(zoom)
}

// ClampLatitude приводит широту к пределам проекции.
func ClampLatitude(lat float64) float64 {
	return math.Max(-MaxLatitude, math.Min(MaxLatitude, lat))
}

// normalizeLongitude приводит долготу к диапазону [-180, 180).
func normalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// At возвращает тайл, содержащий точку, на заданном масштабе.
func At(lat, lon float64, zoom int) maptile.Tile {
	p := orb.Point{normalizeLongitude(lon), ClampLatitude(lat)}
	t := maptile.At(p, ClampZoom(zoom))

	// Точка на правой или нижней границе мира попадает в последний тайл.
	last := uint32(1)<<uint32(t.Z) - 1
	if t.X > last {
		t.X = last
	}
	if t.Y > last {
		t.Y = last
	}
	return t
}

// Bounds возвращает географические границы тайла.
func Bounds(t maptile.Tile) models.Bounds {
	b := t.Bound()
	return models.Bounds{
		North: b.Max.Lat(),
		South: b.Min.Lat(),
		East:  b.Max.Lon(),
		West:  b.Min.Lon(),
	}
}

// ID строковый идентификатор тайла в формате z/x/y.
func ID(t maptile.Tile) string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// Less задает детерминированный порядок тайлов одного масштаба: по строкам, затем по столбцам.
func Less(a, b maptile.Tile) bool {
	if a.Z != b.Z {
		return a.Z < b.Z
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}
