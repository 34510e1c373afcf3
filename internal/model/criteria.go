// Package model defines the domain types shared by the station search and
// report stages.
package model

import (
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// DateLayout is the calendar date format used by the NCEI API.
const DateLayout = "2006-01-02"

// Point is a geographic location in decimal degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Coord returns the point as a go-geom XY coordinate (lon, lat).
func (p Point) Coord() geom.Coord {
	return geom.Coord{p.Lon, p.Lat}
}

// SearchCriteria describes one station search run. It is built once from
// flags and config and not mutated afterwards.
type SearchCriteria struct {
	Dataset         string
	Center          Point
	StartDate       time.Time
	EndDate         time.Time
	Attributes      []string
	MaxHalfLengthKM float64
	AllowPartial    bool
	AnyStation      bool
}

// NewSearchCriteria parses the date strings and normalizes the attribute list.
func NewSearchCriteria(dataset string, center Point, start, end string, attrs []string) (SearchCriteria, error) {
	startDate, err := ParseDate(start)
	if err != nil {
		return SearchCriteria{}, eris.Wrap(err, "criteria: start date")
	}
	endDate, err := ParseDate(end)
	if err != nil {
		return SearchCriteria{}, eris.Wrap(err, "criteria: end date")
	}
	return SearchCriteria{
		Dataset:    strings.TrimSpace(dataset),
		Center:     center,
		StartDate:  startDate,
		EndDate:    endDate,
		Attributes: NormalizeAttributes(attrs),
	}, nil
}

// Validate reports whether the criteria can drive a search.
func (c SearchCriteria) Validate() error {
	if c.Dataset == "" {
		return eris.New("criteria: dataset is required")
	}
	if !c.AnyStation && len(c.Attributes) == 0 {
		return eris.New("criteria: at least one attribute is required")
	}
	if c.EndDate.Before(c.StartDate) {
		return eris.Errorf("criteria: end date %s is before start date %s", c.End(), c.Start())
	}
	if math.Abs(c.Center.Lat) >= 90 {
		return eris.Errorf("criteria: latitude %v must be strictly between -90 and 90", c.Center.Lat)
	}
	if math.Abs(c.Center.Lon) > 180 {
		return eris.Errorf("criteria: longitude %v out of range", c.Center.Lon)
	}
	if c.MaxHalfLengthKM < 1 {
		return eris.Errorf("criteria: max box length %v must be at least 1 km", c.MaxHalfLengthKM)
	}
	return nil
}

// Start returns the start date in provider format.
func (c SearchCriteria) Start() string { return c.StartDate.Format(DateLayout) }

// End returns the end date in provider format.
func (c SearchCriteria) End() string { return c.EndDate.Format(DateLayout) }

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "parse date %q", s)
	}
	return t, nil
}

// NormalizeAttributes upper-cases, trims and dedupes attribute ids, keeping
// first-seen order. Comma separated values are split.
func NormalizeAttributes(attrs []string) []string {
	seen := make(map[string]bool, len(attrs))
	out := make([]string, 0, len(attrs))
	for _, raw := range attrs {
		for _, part := range strings.Split(raw, ",") {
			id := strings.ToUpper(strings.TrimSpace(part))
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
