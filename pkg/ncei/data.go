package ncei

import (
	"context"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/station-search/internal/model"
)

// DataRequest selects daily data for a set of stations.
type DataRequest struct {
	Dataset   string
	Stations  []string
	StartDate string
	EndDate   string

	// Optional filters.
	DataTypes              []string
	BoundingBox            []string // N, W, S, E
	IncludeStationLocation bool
	IncludeAttributes      bool
}

// DataResult holds the decoded records and the raw response body.
type DataResult struct {
	Records []model.DailyRecord
	Raw     []byte
}

// Params encodes the request as data endpoint query parameters.
func (r DataRequest) Params() url.Values {
	params := url.Values{
		"dataset":   {r.Dataset},
		"stations":  {strings.Join(r.Stations, ",")},
		"startDate": {r.StartDate},
		"endDate":   {r.EndDate},
		"format":    {"json"},
	}
	if len(r.DataTypes) > 0 {
		params.Set("dataTypes", strings.Join(r.DataTypes, ","))
	}
	if len(r.BoundingBox) > 0 {
		params.Set("boundingbox", strings.Join(r.BoundingBox, ","))
	}
	if r.IncludeStationLocation {
		params.Set("includeStationLocation", "1")
	}
	if r.IncludeAttributes {
		params.Set("includeAttributes", "1")
	}
	return params
}

// FetchData implements Client.
func (c *HTTPClient) FetchData(ctx context.Context, req DataRequest) (*DataResult, error) {
	if len(req.Stations) == 0 {
		return nil, eris.New("ncei: fetch data: no stations")
	}

	body, err := c.get(ctx, dataPath, req.Params())
	if err != nil {
		return nil, eris.Wrapf(err, "ncei: fetch data for %s", strings.Join(req.Stations, ","))
	}

	records, err := ParseDailyRecords(body)
	if err != nil {
		return nil, err
	}
	return &DataResult{Records: records, Raw: body}, nil
}

// ParseDailyRecords decodes a JSON data body. The service sends values as
// strings, sometimes space padded; blank or absent values become nil.
func ParseDailyRecords(body []byte) ([]model.DailyRecord, error) {
	var raw []map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrap(err, "ncei: parse data response")
	}

	records := make([]model.DailyRecord, 0, len(raw))
	for i, row := range raw {
		rec := model.DailyRecord{
			Date:    stringValue(row["DATE"]),
			Station: stringValue(row["STATION"]),
		}
		var err error
		if rec.TMin, err = intValue(row["TMIN"]); err != nil {
			return nil, eris.Wrapf(err, "ncei: record %d TMIN", i)
		}
		if rec.TMax, err = intValue(row["TMAX"]); err != nil {
			return nil, eris.Wrapf(err, "ncei: record %d TMAX", i)
		}
		if rec.Prcp, err = intValue(row["PRCP"]); err != nil {
			return nil, eris.Wrapf(err, "ncei: record %d PRCP", i)
		}
		records = append(records, rec)
	}
	return records, nil
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func intValue(v any) (*int, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case float64:
		n := int(math.Round(t))
		return &n, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, eris.Wrapf(err, "parse %q", t)
		}
		return &n, nil
	default:
		return nil, eris.Errorf("unexpected value type %T", v)
	}
}
