package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/station-search/internal/artifact"
	"github.com/sells-group/station-search/internal/model"
	"github.com/sells-group/station-search/internal/report"
	"github.com/sells-group/station-search/pkg/ncei"
)

// batchPoint is one row of the batch input file.
type batchPoint struct {
	ID        string
	Latitude  float64
	Longitude float64
	rawLat    string
	rawLon    string
}

// StationInfoName is the stations file name for a point.
func (p batchPoint) StationInfoName() string {
	return p.ID + "_" + p.rawLat + "_" + p.rawLon + ".json"
}

var (
	batchInput      string
	batchDataset    string
	batchAttributes []string
	batchStart      string
	batchEnd        string
	batchBBoxSize   float64
	batchRoot       string
	batchXLSX       bool
	batchSkipReport bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Search stations for every point in a CSV, then build the reports",
	Long: `Reads an input CSV with columns station_id,latitude,longitude (header row
required), creates the output tree, runs a search and data download per row
and finally builds the reports. A failing row is logged and skipped.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("batch"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		root := batchRoot
		if root == "" {
			root = cfg.Output.Root
		}
		layout := report.Layout{Root: root}
		if err := layout.Bootstrap(); err != nil {
			return err
		}

		points, err := readBatchInput(ctx, batchInput)
		if err != nil {
			return err
		}

		runs := openRunLog(ctx)
		defer runs.Close()

		base := searchOptions{
			Dataset:    batchDataset,
			StartDate:  batchStart,
			EndDate:    batchEnd,
			Attributes: batchAttributes,
			BBoxSize:   batchBBoxSize,
		}
		if err := processBatch(ctx, initClient(), runs, layout, base, points); err != nil {
			return err
		}

		if batchSkipReport {
			return nil
		}
		_, err = runReport(ctx, runs, layout, batchStart, batchEnd, batchXLSX)
		return err
	},
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchInput, "input", "", "input CSV of station_id,latitude,longitude")
	f.StringVarP(&batchDataset, "dataset", "d", "daily-summaries", "dataset to search")
	f.StringSliceVarP(&batchAttributes, "attributes", "a", model.CoreVariables, "data types every accepted station must report")
	f.StringVar(&batchStart, "start-date", "2020-01-01", "start date (YYYY-MM-DD)")
	f.StringVar(&batchEnd, "end-date", "2021-07-01", "end date (YYYY-MM-DD)")
	f.Float64VarP(&batchBBoxSize, "bbox-size", "b", 0, "maximum half-length of the search box in km (default search.max_half_length_km)")
	f.StringVar(&batchRoot, "output-root", "", "output tree root (default output.root)")
	f.BoolVar(&batchXLSX, "xlsx", false, "also write report.xlsx")
	f.BoolVar(&batchSkipReport, "skip-report", false, "only search and download")

	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

// readBatchInput reads the input CSV. Rows with too few columns or
// unparseable coordinates are logged and skipped.
func readBatchInput(ctx context.Context, path string) ([]batchPoint, error) {
	_, rows, err := artifact.ReadCSV(ctx, path)
	if err != nil {
		return nil, eris.Wrap(err, "batch: read input")
	}

	var points []batchPoint
	for i, row := range rows {
		line := i + 2
		if len(row) < 3 {
			zap.L().Error("batch: skipping short row", zap.Int("line", line), zap.Strings("row", row))
			continue
		}
		p := batchPoint{ID: strings.TrimSpace(row[0]), rawLat: strings.TrimSpace(row[1]), rawLon: strings.TrimSpace(row[2])}
		lat, latErr := strconv.ParseFloat(p.rawLat, 64)
		lon, lonErr := strconv.ParseFloat(p.rawLon, 64)
		if p.ID == "" || latErr != nil || lonErr != nil {
			zap.L().Error("batch: skipping invalid row", zap.Int("line", line), zap.Strings("row", row))
			continue
		}
		p.Latitude, p.Longitude = lat, lon
		points = append(points, p)
	}
	zap.L().Info("batch: input parsed", zap.String("path", path), zap.Int("points", len(points)))
	return points, nil
}

// processBatch searches each point in turn, writing stations files into
// the station-info directory and data into the json directory.
func processBatch(ctx context.Context, client ncei.Client, runs *runLog, layout report.Layout, base searchOptions, points []batchPoint) error {
	var succeeded, failed int
	for _, p := range points {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "batch cancelled")
		}

		opts := base
		opts.Latitude = p.Latitude
		opts.Longitude = p.Longitude
		opts.StationsPath = filepath.Join(layout.StationInfoDir(), p.StationInfoName())
		opts.DataPath = layout.JSONDir()

		log := zap.L().With(zap.String("point", p.ID))
		if _, err := runSearch(ctx, client, runs, "batch", opts); err != nil {
			if ctx.Err() != nil {
				return eris.Wrap(ctx.Err(), "batch cancelled")
			}
			failed++
			log.Error("batch: point failed", zap.Error(err))
			continue
		}
		succeeded++
	}

	zap.L().Info("batch complete", zap.Int("succeeded", succeeded), zap.Int("failed", failed))
	return nil
}
