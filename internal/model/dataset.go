package model

// CoreVariables are the attributes every report-grade station must carry.
var CoreVariables = []string{"TMIN", "TMAX", "PRCP"}

// DailyRecord is one day of provider data in native units: temperatures in
// tenths of a degree Celsius, precipitation in tenths of a millimetre.
// A nil value means the provider reported nothing for that day.
type DailyRecord struct {
	Date    string `json:"DATE"`
	Station string `json:"STATION,omitempty"`
	TMin    *int   `json:"TMIN,omitempty"`
	TMax    *int   `json:"TMAX,omitempty"`
	Prcp    *int   `json:"PRCP,omitempty"`
}
