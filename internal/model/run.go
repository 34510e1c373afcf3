package model

import "time"

// RunStatus is the lifecycle state of a recorded run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one recorded CLI invocation.
type Run struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Dataset      string    `json:"dataset"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	Status       RunStatus `json:"status"`
	StationCount int       `json:"station_count"`
	HalfLengthKM float64   `json:"half_length_km"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
