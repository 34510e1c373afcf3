package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/station-search/internal/model"
)

var (
	coverageHeader = []string{"source_file", "station_id", "distance_km", "latitude", "longitude",
		"date_cov", "tmin_cov", "tmax_cov", "prcp_cov"}
	missingHeader = []string{"source_file", "station_id", "missing_count", "missing_date_tmin"}
)

// DateRange lists every calendar day from start to end inclusive.
func DateRange(start, end time.Time) []string {
	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(model.DateLayout))
	}
	return days
}

// Coverage holds percentages of the requested days present in a station table.
type Coverage struct {
	Date float64
	TMin float64
	TMax float64
	Prcp float64
}

// ComputeCoverage measures rows against the requested days. Date coverage
// counts days present at all; variable coverage counts days present with a
// non-null value.
func ComputeCoverage(rows []model.ConvertedRow, requested []string) Coverage {
	if len(requested) == 0 {
		return Coverage{}
	}
	byDate := indexByDate(rows)

	var present, tmin, tmax, prcp int
	for _, day := range requested {
		row, ok := byDate[day]
		if !ok {
			continue
		}
		present++
		if row.MinF != nil {
			tmin++
		}
		if row.MaxF != nil {
			tmax++
		}
		if row.Precipitation != nil {
			prcp++
		}
	}

	n := len(requested)
	return Coverage{
		Date: percent(n, n-present),
		TMin: percent(n, n-tmin),
		TMax: percent(n, n-tmax),
		Prcp: percent(n, n-prcp),
	}
}

// MissingTMin lists requested days with no minimum temperature, whether the
// day is absent from the table or present with a null value.
func MissingTMin(rows []model.ConvertedRow, requested []string) []string {
	byDate := indexByDate(rows)
	var missing []string
	for _, day := range requested {
		if row, ok := byDate[day]; !ok || row.MinF == nil {
			missing = append(missing, day)
		}
	}
	return missing
}

func percent(total, missing int) float64 {
	return float64(total-missing) / float64(total) * 100
}

// indexByDate keys rows by calendar date. Provider dates may carry a time
// component, which is dropped.
func indexByDate(rows []model.ConvertedRow) map[string]model.ConvertedRow {
	out := make(map[string]model.ConvertedRow, len(rows))
	for _, r := range rows {
		day, _, _ := strings.Cut(r.Date, "T")
		out[day] = r
	}
	return out
}

func coverageRecords(rows []model.CoverageRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		rec := validityFields(r.ValidityRow)
		rec = append(rec,
			formatPercent(r.DateCoverage),
			formatPercent(r.TMinCoverage),
			formatPercent(r.TMaxCoverage),
			formatPercent(r.PrcpCoverage),
		)
		out = append(out, rec)
	}
	return out
}

func missingRecords(rows []model.MissingDatesRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.SourceFile, r.StationID, strconv.Itoa(len(r.Dates)), strings.Join(r.Dates, ";")})
	}
	return out
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
