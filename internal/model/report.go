package model

// ValidityRow is one report-grade station found in a stations file.
type ValidityRow struct {
	SourceFile string
	StationID  string
	DistanceKM float64
	Latitude   float64
	Longitude  float64
}

// ValiditySummary counts report-grade stations per stations file.
type ValiditySummary struct {
	SourceFile    string
	ValidStations int
}

// ConvertedRow is a daily record converted for reporting. Temperatures are
// degrees Fahrenheit; precipitation stays in tenths of a millimetre.
type ConvertedRow struct {
	Date          string
	MinF          *float64
	MaxF          *float64
	Precipitation *int
}

// CoverageRow summarises how much of the requested range a station covers.
type CoverageRow struct {
	ValidityRow
	DateCoverage float64
	TMinCoverage float64
	TMaxCoverage float64
	PrcpCoverage float64
}

// MissingDatesRow lists requested dates with no minimum temperature.
type MissingDatesRow struct {
	SourceFile string
	StationID  string
	Dates      []string
}
