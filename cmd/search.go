package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/station-search/internal/artifact"
	"github.com/sells-group/station-search/internal/model"
	"github.com/sells-group/station-search/internal/search"
	"github.com/sells-group/station-search/internal/store"
	"github.com/sells-group/station-search/pkg/ncei"
)

// searchOptions holds everything one station search needs. Empty paths and
// a zero box size fall back to configuration.
type searchOptions struct {
	Dataset           string
	Latitude          float64
	Longitude         float64
	StartDate         string
	EndDate           string
	Attributes        []string
	BBoxSize          float64
	StationsPath      string
	DataPath          string
	DumpRaw           bool
	DumpPath          string
	IncludeIncomplete bool
	NoAttributes      bool
	Shapefile         string
	SkipDownload      bool
}

var searchOpts searchOptions

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find the nearest stations reporting the requested data types",
	Long: `Searches a bounding box around the given point, doubling its half-length
until stations are found and every requested data type is covered for the
whole date range, or until --bbox-size is reached. Accepted stations are
ranked by distance, saved to --stations-path and their daily data is
downloaded into --data-path.

Examples:
  station-search search -d daily-summaries --latitude 39.7392 --longitude -104.9903 \
    --start-date 2020-01-01 --end-date 2020-12-31 -a TMIN,TMAX,PRCP`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("search"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runs := openRunLog(ctx)
		defer runs.Close()

		_, err := runSearch(ctx, initClient(), runs, "search", searchOpts)
		return err
	},
}

func init() {
	f := searchCmd.Flags()
	f.StringVarP(&searchOpts.Dataset, "dataset", "d", "", "dataset to search, e.g. daily-summaries")
	f.Float64Var(&searchOpts.Latitude, "latitude", 0, "latitude of the search center")
	f.Float64Var(&searchOpts.Longitude, "longitude", 0, "longitude of the search center")
	f.StringVar(&searchOpts.StartDate, "start-date", "", "start date (YYYY-MM-DD)")
	f.StringVar(&searchOpts.EndDate, "end-date", "", "end date (YYYY-MM-DD)")
	f.StringSliceVarP(&searchOpts.Attributes, "attributes", "a", nil, "data types every accepted station must report, e.g. TMIN,TMAX")
	f.Float64VarP(&searchOpts.BBoxSize, "bbox-size", "b", 0, "maximum half-length of the search box in km (default search.max_half_length_km)")
	f.StringVarP(&searchOpts.StationsPath, "stations-path", "s", "", "ranked stations output file (default output.stations_path)")
	f.StringVar(&searchOpts.DataPath, "data-path", "", "directory for per-station data (default output.data_path)")
	f.BoolVar(&searchOpts.DumpRaw, "dump-raw", false, "write raw search.json and error.json to --dump-path")
	f.StringVar(&searchOpts.DumpPath, "dump-path", "", "directory for raw dumps (default output.dump_path)")
	f.BoolVarP(&searchOpts.IncludeIncomplete, "include-incomplete", "i", false, "accept stations whose data types only partly cover the date range")
	f.BoolVar(&searchOpts.NoAttributes, "no-attributes", false, "return the first stations found regardless of data types")
	f.StringVar(&searchOpts.Shapefile, "shapefile", "", "also write accepted stations as a point shapefile")
	f.BoolVar(&searchOpts.SkipDownload, "skip-download", false, "do not download station data")

	for _, name := range []string{"dataset", "latitude", "longitude", "start-date", "end-date"} {
		_ = searchCmd.MarkFlagRequired(name)
	}
	searchCmd.MarkFlagsOneRequired("attributes", "no-attributes")
	rootCmd.AddCommand(searchCmd)
}

// criteria builds validated search criteria from the options.
func (o searchOptions) criteria() (model.SearchCriteria, error) {
	crit, err := model.NewSearchCriteria(o.Dataset, model.Point{Lat: o.Latitude, Lon: o.Longitude},
		o.StartDate, o.EndDate, o.Attributes)
	if err != nil {
		return model.SearchCriteria{}, err
	}
	crit.MaxHalfLengthKM = o.BBoxSize
	if crit.MaxHalfLengthKM == 0 {
		crit.MaxHalfLengthKM = cfg.Search.MaxHalfLengthKM
	}
	crit.AllowPartial = o.IncludeIncomplete
	crit.AnyStation = o.NoAttributes
	if err := crit.Validate(); err != nil {
		return model.SearchCriteria{}, eris.Wrap(search.ErrInvalidCriteria, err.Error())
	}
	return crit, nil
}

func (o searchOptions) withDefaults() searchOptions {
	if o.StationsPath == "" {
		o.StationsPath = cfg.Output.StationsPath
	}
	if o.DataPath == "" {
		o.DataPath = cfg.Output.DataPath
	}
	if o.DumpPath == "" {
		o.DumpPath = cfg.Output.DumpPath
	}
	return o
}

// runSearch runs one search end to end: the expanding search, the stations
// file, optional dumps and shapefile, then the per-station downloads.
func runSearch(ctx context.Context, client ncei.Client, runs *runLog, kind string, opts searchOptions) (*search.Result, error) {
	opts = opts.withDefaults()

	crit, err := opts.criteria()
	if err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("dataset", crit.Dataset),
		zap.Float64("latitude", crit.Center.Lat),
		zap.Float64("longitude", crit.Center.Lon),
	)

	runID := runs.start(ctx, store.RunParams{
		Kind:      kind,
		Dataset:   crit.Dataset,
		Latitude:  crit.Center.Lat,
		Longitude: crit.Center.Lon,
		StartDate: crit.Start(),
		EndDate:   crit.End(),
	})

	engine := search.NewEngine(client, crit,
		search.WithInitialHalfLength(cfg.Search.InitialHalfLengthKM),
		search.WithProvenance(kind),
	)
	res, err := engine.Run(ctx)
	if err != nil {
		if opts.DumpRaw {
			dumpError(opts.DumpPath, err)
		}
		runs.fail(ctx, runID, err)
		return nil, err
	}

	if opts.DumpRaw && len(res.Raw) > 0 {
		if err := artifact.WriteRawJSON(filepath.Join(opts.DumpPath, "search.json"), res.Raw); err != nil {
			log.Warn("search: dump raw search", zap.Error(err))
		}
	}

	if err := artifact.WriteJSON(opts.StationsPath, res.StationsFile()); err != nil {
		runs.fail(ctx, runID, err)
		return nil, err
	}
	log.Info("search: stations saved",
		zap.Int("stations", len(res.Stations)),
		zap.String("path", opts.StationsPath),
	)

	if opts.Shapefile != "" {
		if err := artifact.WriteShapefile(opts.Shapefile, res.Stations); err != nil {
			log.Warn("search: write shapefile", zap.Error(err))
		}
	}

	if !opts.SkipDownload {
		ids := make([]string, len(res.Stations))
		for i, st := range res.Stations {
			ids[i] = st.ID
		}
		sum, err := downloadStations(ctx, client, downloadRequest{
			Dataset:   crit.Dataset,
			StartDate: crit.Start(),
			EndDate:   crit.End(),
			Stations:  ids,
			Dir:       opts.DataPath,
		}, cfg.Fetch.Concurrency)
		if err != nil {
			runs.fail(ctx, runID, err)
			return nil, err
		}
		log.Info("search: data downloaded",
			zap.Int("succeeded", sum.Succeeded),
			zap.Int("failed", sum.Failed),
			zap.String("dir", opts.DataPath),
		)
	}

	runs.complete(ctx, runID, res.Stations, res.HalfLengthKM)
	return res, nil
}

// dumpError writes the provider's error body, or a small JSON description
// of a local error, to error.json.
func dumpError(dir string, cause error) {
	path := filepath.Join(dir, "error.json")
	var err error
	if apiErr, ok := ncei.AsAPIError(cause); ok && len(apiErr.Body) > 0 {
		err = artifact.WriteRawJSON(path, apiErr.Body)
	} else {
		err = artifact.WriteJSON(path, map[string]string{"error": cause.Error()})
	}
	if err != nil {
		zap.L().Warn("search: dump error", zap.Error(err))
	}
}
