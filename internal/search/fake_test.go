package search

import (
	"context"
	"errors"

	"github.com/sells-group/station-search/internal/model"
	"github.com/sells-group/station-search/pkg/ncei"
)

// fakeSearcher answers each call from a script keyed by call order. Calls
// past the end of the script repeat the last entry.
type fakeSearcher struct {
	responses [][]model.StationCandidate
	errAt     int
	err       error
	requests  []ncei.SearchRequest
}

func (f *fakeSearcher) SearchStations(_ context.Context, req ncei.SearchRequest) (*ncei.SearchResult, error) {
	f.requests = append(f.requests, req)
	n := len(f.requests)
	if f.err != nil && n == f.errAt {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return &ncei.SearchResult{}, nil
	}
	idx := n - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return &ncei.SearchResult{Stations: f.responses[idx], Raw: []byte(`{"results":[]}`)}, nil
}

func station(id string, lat, lon float64, types ...model.DataType) model.StationCandidate {
	return model.StationCandidate{ID: id, Latitude: lat, Longitude: lon, DataTypes: types}
}

func dataType(id, start, end string) model.DataType {
	return model.DataType{ID: id, DateRange: model.DateRange{Start: start + "T00:00:00", End: end + "T23:59:59"}}
}

var errProvider = errors.New("provider down")
