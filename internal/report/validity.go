package report

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/station-search/internal/artifact"
	"github.com/sells-group/station-search/internal/model"
)

var (
	validityHeader = []string{"source_file", "station_id", "distance_km", "latitude", "longitude"}
	summaryHeader  = []string{"source_file", "valid_station_num"}
)

// BuildValidity scans every stations file in dir and keeps the stations that
// report all core variables. Files that cannot be read are logged and
// skipped.
func BuildValidity(ctx context.Context, dir string) ([]model.ValidityRow, []model.ValiditySummary, error) {
	names, err := artifact.ListFiles(dir, ".json")
	if err != nil {
		return nil, nil, eris.Wrap(err, "report: list station info")
	}

	var rows []model.ValidityRow
	var summaries []model.ValiditySummary
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, nil, eris.Wrap(err, "report: validity cancelled")
		}

		file, err := artifact.ReadJSON[model.StationsFile](filepath.Join(dir, name))
		if err != nil {
			zap.L().Error("report: skipping unreadable stations file", zap.String("file", name), zap.Error(err))
			continue
		}

		valid := ValidStations(name, file.Stations)
		rows = append(rows, valid...)
		summaries = append(summaries, model.ValiditySummary{SourceFile: name, ValidStations: len(valid)})
	}
	return rows, summaries, nil
}

// ValidStations returns a row for each station carrying every core variable.
func ValidStations(source string, stations []model.RankedStation) []model.ValidityRow {
	var rows []model.ValidityRow
	for _, st := range stations {
		if !st.HasDataTypes(model.CoreVariables...) {
			continue
		}
		rows = append(rows, model.ValidityRow{
			SourceFile: source,
			StationID:  st.ID,
			DistanceKM: st.DistanceKM,
			Latitude:   st.Latitude,
			Longitude:  st.Longitude,
		})
	}
	return rows
}

func validityRecords(rows []model.ValidityRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, validityFields(r))
	}
	return out
}

func validityFields(r model.ValidityRow) []string {
	return []string{
		r.SourceFile,
		r.StationID,
		strconv.FormatFloat(r.DistanceKM, 'f', 3, 64),
		strconv.FormatFloat(r.Latitude, 'f', -1, 64),
		strconv.FormatFloat(r.Longitude, 'f', -1, 64),
	}
}

func summaryRecords(rows []model.ValiditySummary) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.SourceFile, strconv.Itoa(r.ValidStations)})
	}
	return out
}
