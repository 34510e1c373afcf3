package report

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/station-search/internal/artifact"
	"github.com/sells-group/station-search/internal/model"
	"github.com/sells-group/station-search/pkg/ncei"
)

var convertedHeader = []string{"date", "min", "max", "precipitation"}

// ToFahrenheit converts tenths of a degree Celsius to degrees Fahrenheit.
func ToFahrenheit(tenths int) float64 {
	return float64(tenths)/10*9/5 + 32
}

// Convert maps provider records to report units. Precipitation is kept in
// raw tenths of a millimetre.
func Convert(records []model.DailyRecord) []model.ConvertedRow {
	rows := make([]model.ConvertedRow, 0, len(records))
	for _, rec := range records {
		row := model.ConvertedRow{Date: rec.Date, Precipitation: rec.Prcp}
		if rec.TMin != nil {
			f := ToFahrenheit(*rec.TMin)
			row.MinF = &f
		}
		if rec.TMax != nil {
			f := ToFahrenheit(*rec.TMax)
			row.MaxF = &f
		}
		rows = append(rows, row)
	}
	return rows
}

// LoadRecords reads a station data file saved by the search or fetch stage.
func LoadRecords(path string) ([]model.DailyRecord, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "report: read %s", path)
	}
	records, err := ncei.ParseDailyRecords(body)
	if err != nil {
		return nil, eris.Wrapf(err, "report: parse %s", path)
	}
	return records, nil
}

func convertedRecords(rows []model.ConvertedRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.Date, formatTemp(r.MinF), formatTemp(r.MaxF), formatInt(r.Precipitation)})
	}
	return out
}

func formatTemp(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// ConvertStations converts {id}.json under jsonDir into {id}.csv under
// csvDir. A station that fails is logged and left out of the result.
func ConvertStations(ctx context.Context, jsonDir, csvDir string, ids []string) (map[string][]model.ConvertedRow, error) {
	out := make(map[string][]model.ConvertedRow, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return out, eris.Wrap(err, "report: conversion cancelled")
		}
		if _, done := out[id]; done {
			continue
		}

		records, err := LoadRecords(filepath.Join(jsonDir, id+".json"))
		if err != nil {
			zap.L().Error("report: skipping station", zap.String("station", id), zap.Error(err))
			continue
		}
		rows := Convert(records)
		if err := artifact.WriteCSV(filepath.Join(csvDir, id+".csv"), convertedHeader, convertedRecords(rows)); err != nil {
			zap.L().Error("report: write station csv", zap.String("station", id), zap.Error(err))
			continue
		}
		out[id] = rows
	}
	return out, nil
}
