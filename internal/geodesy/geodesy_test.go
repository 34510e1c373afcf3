package geodesy

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/station-search/internal/model"
)

func TestComputeBoundingBox_Equator(t *testing.T) {
	box := ComputeBoundingBox(model.Point{Lat: 0, Lon: 0}, 40075.0/360)
	assert.InDelta(t, 1.0, box.North, 1e-9)
	assert.InDelta(t, -1.0, box.South, 1e-9)
	assert.InDelta(t, -1.0, box.West, 1e-9)
	assert.InDelta(t, 1.0, box.East, 1e-9)
}

func TestComputeBoundingBox_SymmetricAroundCenter(t *testing.T) {
	centers := []model.Point{
		{Lat: 39.7392, Lon: -104.9903},
		{Lat: -33.8688, Lon: 151.2093},
		{Lat: 64.1466, Lon: -21.9426},
		{Lat: 0.5, Lon: 179.5},
	}
	for _, c := range centers {
		for _, km := range []float64{1, 2, 8, 64, 100} {
			box := ComputeBoundingBox(c, km)
			assert.InDelta(t, c.Lat-box.South, box.North-c.Lat, 1e-9)
			assert.InDelta(t, c.Lon-box.West, box.East-c.Lon, 1e-9)
			assert.InDelta(t, c.Lat, (box.North+box.South)/2, 1e-9)
			assert.InDelta(t, c.Lon, (box.West+box.East)/2, 1e-9)
			assert.True(t, box.Contains(c))
		}
	}
}

func TestComputeBoundingBox_LongitudeSpanGrowsWithLatitude(t *testing.T) {
	prev := 0.0
	for _, lat := range []float64{0, 15, 30, 45, 60, 75, 89} {
		north := ComputeBoundingBox(model.Point{Lat: lat, Lon: 10}, 50)
		south := ComputeBoundingBox(model.Point{Lat: -lat, Lon: 10}, 50)
		span := north.East - north.West
		assert.InDelta(t, span, south.East-south.West, 1e-9)
		assert.Greater(t, span, prev)
		// Latitude extent does not depend on latitude.
		assert.InDelta(t, 2*50*360/EarthCircumferenceKM, north.North-north.South, 1e-9)
		prev = span
	}
}

func TestBoundingBox_String(t *testing.T) {
	box := BoundingBox{North: 40.5, West: -105.25, South: 39.5, East: -104.75}
	assert.Equal(t, "40.5, -105.25, 39.5, -104.75", box.String())
	assert.Len(t, strings.Split(box.String(), ", "), 4)
}

func TestBoundingBox_Contains(t *testing.T) {
	box := ComputeBoundingBox(model.Point{Lat: 40, Lon: -105}, 10)
	assert.True(t, box.Contains(model.Point{Lat: 40.05, Lon: -105.05}))
	assert.False(t, box.Contains(model.Point{Lat: 41, Lon: -105}))
	assert.False(t, box.Contains(model.Point{Lat: 40, Lon: -104}))
}

func TestHaversineKM_Identity(t *testing.T) {
	for _, p := range []model.Point{{}, {Lat: 45, Lon: 45}, {Lat: -89.9, Lon: -179.9}} {
		assert.Equal(t, 0.0, HaversineKM(p, p))
	}
}

func TestHaversineKM_Symmetric(t *testing.T) {
	a := model.Point{Lat: 39.7392, Lon: -104.9903}
	b := model.Point{Lat: 40.0150, Lon: -105.2705}
	assert.InDelta(t, HaversineKM(a, b), HaversineKM(b, a), 1e-9)
}

func TestHaversineKM_KnownDistances(t *testing.T) {
	// One degree of longitude on the equator.
	oneDeg := HaversineKM(model.Point{Lat: 0, Lon: 0}, model.Point{Lat: 0, Lon: 1})
	assert.InDelta(t, EarthRadiusKM*math.Pi/180, oneDeg, 1e-6)

	// Denver to Boulder, roughly 39 km.
	d := HaversineKM(model.Point{Lat: 39.7392, Lon: -104.9903}, model.Point{Lat: 40.0150, Lon: -105.2705})
	assert.InDelta(t, 39, d, 1.5)
}
