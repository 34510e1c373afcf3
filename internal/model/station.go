package model

import "time"

// DateRange is the availability window the provider reports for a data type.
// Values are ISO timestamps; only the date portion is meaningful.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DataType is one attribute a station reports, with its coverage window.
type DataType struct {
	ID        string    `json:"id"`
	DateRange DateRange `json:"dateRange"`
}

// StationCandidate is a station returned by one search iteration.
type StationCandidate struct {
	ID        string     `json:"station"`
	DataTypes []DataType `json:"dataTypes"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
}

// Location returns the station coordinates.
func (s StationCandidate) Location() Point {
	return Point{Lat: s.Latitude, Lon: s.Longitude}
}

// HasDataTypes reports whether the station lists every given id.
func (s StationCandidate) HasDataTypes(ids ...string) bool {
	have := make(map[string]bool, len(s.DataTypes))
	for _, dt := range s.DataTypes {
		have[dt.ID] = true
	}
	for _, id := range ids {
		if !have[id] {
			return false
		}
	}
	return true
}

// RankedStation is an accepted station annotated with its great-circle
// distance from the search center.
type RankedStation struct {
	StationCandidate
	DistanceKM float64 `json:"distance"`
}

// Metadata records how a stations file was produced.
type Metadata struct {
	Command      string    `json:"command"`
	Dataset      string    `json:"dataset,omitempty"`
	Attributes   []string  `json:"attributes,omitempty"`
	StartDate    string    `json:"startDate,omitempty"`
	EndDate      string    `json:"endDate,omitempty"`
	HalfLengthKM float64   `json:"halfLengthKm,omitempty"`
	Unsatisfied  []string  `json:"unsatisfied,omitempty"`
	GeneratedAt  time.Time `json:"generatedAt,omitzero"`
}

// StationsFile is the persisted, distance-sorted search result.
type StationsFile struct {
	Stations []RankedStation `json:"stations"`
	Metadata Metadata        `json:"metadata"`
}

// AttributeSatisfaction tracks which requested attributes have been found
// with qualifying coverage. Entries only ever move from false to true.
type AttributeSatisfaction struct {
	order []string
	found map[string]bool
}

// NewAttributeSatisfaction creates a tracker with every attribute unsatisfied.
func NewAttributeSatisfaction(attrs []string) *AttributeSatisfaction {
	s := &AttributeSatisfaction{
		order: append([]string(nil), attrs...),
		found: make(map[string]bool, len(attrs)),
	}
	for _, a := range attrs {
		s.found[a] = false
	}
	return s
}

// Satisfied reports whether id has been marked.
func (s *AttributeSatisfaction) Satisfied(id string) bool {
	return s.found[id]
}

// Mark records id as satisfied. Unknown ids are ignored.
func (s *AttributeSatisfaction) Mark(id string) {
	if _, ok := s.found[id]; ok {
		s.found[id] = true
	}
}

// Unsatisfied returns the attributes still missing, in requested order.
func (s *AttributeSatisfaction) Unsatisfied() []string {
	var out []string
	for _, a := range s.order {
		if !s.found[a] {
			out = append(out, a)
		}
	}
	return out
}

// Complete reports whether every attribute has been satisfied.
func (s *AttributeSatisfaction) Complete() bool {
	return len(s.Unsatisfied()) == 0
}

// Snapshot returns a copy of the current state.
func (s *AttributeSatisfaction) Snapshot() map[string]bool {
	out := make(map[string]bool, len(s.found))
	for k, v := range s.found {
		out[k] = v
	}
	return out
}
