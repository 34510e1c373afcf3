// Package geodesy computes search bounding boxes and great-circle distances.
package geodesy

import (
	"math"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/station-search/internal/model"
)

const (
	// EarthRadiusKM is the mean Earth radius used for haversine distances.
	EarthRadiusKM = 6371.0

	// EarthCircumferenceKM converts kilometres to degrees of latitude.
	EarthCircumferenceKM = 40075.0
)

// BoundingBox is a lat/lon rectangle in decimal degrees.
type BoundingBox struct {
	North float64
	West  float64
	South float64
	East  float64
}

// ComputeBoundingBox returns the box extending halfLengthKM from center in
// each direction. Longitude extent is widened by 1/cos(lat) to compensate
// for meridian convergence, so it is undefined at the poles.
func ComputeBoundingBox(center model.Point, halfLengthKM float64) BoundingBox {
	latDeg := halfLengthKM * (360 / EarthCircumferenceKM)
	lonDeg := halfLengthKM * (360 / (math.Cos(toRadians(center.Lat)) * EarthCircumferenceKM))

	return BoundingBox{
		North: center.Lat + latDeg,
		West:  center.Lon - lonDeg,
		South: center.Lat - latDeg,
		East:  center.Lon + lonDeg,
	}
}

// String renders the box the way the search endpoint expects it: the
// upper-left "lat, lon" pair followed by the lower-right pair.
func (b BoundingBox) String() string {
	return strings.Join([]string{
		formatDegrees(b.North),
		formatDegrees(b.West),
		formatDegrees(b.South),
		formatDegrees(b.East),
	}, ", ")
}

// Bounds converts the box to go-geom bounds in XY (lon, lat) order.
func (b BoundingBox) Bounds() *geom.Bounds {
	return geom.NewBounds(geom.XY).Set(b.West, b.South, b.East, b.North)
}

// Contains reports whether p lies inside the box, edges included.
func (b BoundingBox) Contains(p model.Point) bool {
	return b.Bounds().OverlapsPoint(geom.XY, p.Coord())
}

// HaversineKM returns the great-circle distance between a and b.
func HaversineKM(a, b model.Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat1 - lat2
	dLon := toRadians(a.Lon) - toRadians(b.Lon)

	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKM * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
