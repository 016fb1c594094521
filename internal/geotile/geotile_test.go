package geotile

import (
	"testing"

	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
)

func TestClampZoom(t *testing.T) {
	assert.Equal(t, maptile.Zoom(0), ClampZoom(-3))
	assert.Equal(t, maptile.Zoom(12), ClampZoom(12))
	assert.Equal(t, maptile.Zoom(MaxZoom), ClampZoom(40))
}

func TestAtZeroZoomIsWholeWorld(t *testing.T) {
	tile := At(33.72, -116.37, 0)
	assert.Equal(t, uint32(0), tile.X)
	assert.Equal(t, uint32(0), tile.Y)
	assert.Equal(t, "0/0/0", ID(tile))
}

func TestAtContainsPoint(t *testing.T) {
	tests := []struct {
		name string
		lat  float64
		lon  float64
		zoom int
	}{
		{"palm desert z5", 33.7222, -116.3745, 5},
		{"palm desert z15", 33.7222, -116.3745, 15},
		{"southern hemisphere", -33.8688, 151.2093, 10},
		{"near antimeridian", 10, 179.999, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile := At(tt.lat, tt.lon, tt.zoom)
			b := Bounds(tile)
			assert.True(t, b.Contains(tt.lat, tt.lon), "tile %s bounds %+v", ID(tile), b)
		})
	}
}

func TestAtClampsPolesAndEdges(t *testing.T) {
	north := At(89.9, 0, 4)
	assert.Equal(t, uint32(0), north.Y)

	south := At(-89.9, 0, 4)
	assert.Equal(t, uint32(15), south.Y)

	east := At(0, 180, 4)
	assert.Equal(t, uint32(0), east.X, "180 wraps to -180")
}

func TestLess(t *testing.T) {
	a := maptile.New(3, 1, 4)
	b := maptile.New(1, 2, 4)
	assert.True(t, Less(a, b))
	assert.False(t, Less(b, a))
}
