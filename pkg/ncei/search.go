package ncei

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/station-search/internal/model"
)

// SearchRequest scopes a station search.
type SearchRequest struct {
	Dataset   string
	BBox      string // "N, W, S, E"
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
}

// SearchResult holds the parsed stations and the raw response body.
type SearchResult struct {
	Stations []model.StationCandidate
	Raw      []byte
}

type searchResponse struct {
	Results []searchResultEntry `json:"results"`
	Count   int                 `json:"count"`
}

type searchResultEntry struct {
	Location struct {
		Coordinates []float64 `json:"coordinates"` // [lon, lat]
	} `json:"location"`
	Stations []struct {
		ID        string           `json:"id"`
		Name      string           `json:"name"`
		DataTypes []model.DataType `json:"dataTypes"`
	} `json:"stations"`
}

// SearchStations implements Client.
func (c *HTTPClient) SearchStations(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	params := url.Values{
		"dataset":   {req.Dataset},
		"bbox":      {req.BBox},
		"startDate": {req.StartDate},
		"endDate":   {req.EndDate},
	}

	body, err := c.get(ctx, searchPath, params)
	if err != nil {
		return nil, eris.Wrap(err, "ncei: search stations")
	}

	stations, err := ParseSearchResponse(body)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Stations: stations, Raw: body}, nil
}

// ParseSearchResponse converts a search body into candidates. Each result
// contributes its first station entry; a body without results is empty.
func ParseSearchResponse(body []byte) ([]model.StationCandidate, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "ncei: parse search response")
	}

	stations := make([]model.StationCandidate, 0, len(resp.Results))
	for i, r := range resp.Results {
		if len(r.Stations) == 0 {
			zap.L().Warn("ncei: search result without station entry", zap.Int("index", i))
			continue
		}
		if len(r.Location.Coordinates) < 2 {
			zap.L().Warn("ncei: search result without coordinates",
				zap.String("station", r.Stations[0].ID),
			)
			continue
		}
		st := r.Stations[0]
		stations = append(stations, model.StationCandidate{
			ID:        st.ID,
			DataTypes: append([]model.DataType(nil), st.DataTypes...),
			Latitude:  r.Location.Coordinates[1],
			Longitude: r.Location.Coordinates[0],
		})
	}
	return stations, nil
}
