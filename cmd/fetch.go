package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/station-search/internal/artifact"
	"github.com/sells-group/station-search/internal/model"
	"github.com/sells-group/station-search/pkg/ncei"
)

// fetchOptions mirror the data endpoint's query parameters.
type fetchOptions struct {
	Dataset    string
	StartDate  string
	EndDate    string
	Stations   []string
	DataTypes  []string
	BBox       []string
	NoLocation bool
	Attributes bool
	Output     string
}

var fetchOpts fetchOptions

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download daily data for specific stations",
	Long: `Queries the NCEI data endpoint for one or more stations and saves the
response as indented JSON. Station location is included unless --no-loc.

Examples:
  station-search fetch -d daily-summaries --start-date 2020-01-01 --end-date 2020-01-31 \
    --stations USW00023062,USC00052223 --data-types TMIN,TMAX`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("fetch"); err != nil {
			return err
		}

		req, err := fetchOpts.request()
		if err != nil {
			return err
		}

		zap.L().Info("fetch: requesting data",
			zap.Strings("stations", req.Stations),
			zap.String("dataset", req.Dataset),
			zap.String("date_range", req.StartDate+" - "+req.EndDate),
			zap.Strings("data_types", req.DataTypes),
			zap.Strings("bbox", req.BoundingBox),
		)

		res, err := initClient().FetchData(cmd.Context(), req)
		if err != nil {
			if apiErr, ok := ncei.AsAPIError(err); ok && len(apiErr.Body) > 0 {
				if werr := artifact.WriteRawJSON(fetchOpts.Output, apiErr.Body); werr != nil {
					zap.L().Warn("fetch: save error body", zap.Error(werr))
				}
			}
			return err
		}

		if err := artifact.WriteRawJSON(fetchOpts.Output, res.Raw); err != nil {
			return err
		}
		zap.L().Info("fetch: data received",
			zap.Int("records", len(res.Records)),
			zap.String("path", fetchOpts.Output),
		)
		return nil
	},
}

func init() {
	f := fetchCmd.Flags()
	f.StringVarP(&fetchOpts.Dataset, "dataset", "d", "", "dataset to query")
	f.StringVar(&fetchOpts.StartDate, "start-date", "", "start date (YYYY-MM-DD)")
	f.StringVar(&fetchOpts.EndDate, "end-date", "", "end date (YYYY-MM-DD)")
	f.StringSliceVarP(&fetchOpts.Stations, "stations", "s", nil, "station ids")
	f.StringSliceVar(&fetchOpts.DataTypes, "data-types", nil, "data types to return (default all)")
	f.StringSliceVar(&fetchOpts.BBox, "bbox", nil, "bounding box as N,W,S,E")
	f.BoolVar(&fetchOpts.NoLocation, "no-loc", false, "omit station coordinates and elevation")
	f.BoolVarP(&fetchOpts.Attributes, "attributes", "a", false, "include data type attributes")
	f.StringVarP(&fetchOpts.Output, "output", "o", "data/dataOut.json", "output file")

	for _, name := range []string{"dataset", "start-date", "end-date", "stations"} {
		_ = fetchCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(fetchCmd)
}

// request converts the options into a data request.
func (o fetchOptions) request() (ncei.DataRequest, error) {
	if len(o.BBox) != 0 && len(o.BBox) != 4 {
		return ncei.DataRequest{}, eris.Errorf("fetch: --bbox needs 4 values N,W,S,E, got %d", len(o.BBox))
	}
	start, err := model.ParseDate(o.StartDate)
	if err != nil {
		return ncei.DataRequest{}, eris.Wrap(err, "fetch: start date")
	}
	end, err := model.ParseDate(o.EndDate)
	if err != nil {
		return ncei.DataRequest{}, eris.Wrap(err, "fetch: end date")
	}
	if end.Before(start) {
		return ncei.DataRequest{}, eris.Errorf("fetch: end date %s before start date %s", o.EndDate, o.StartDate)
	}
	stations := trimAll(o.Stations)
	if len(stations) == 0 {
		return ncei.DataRequest{}, eris.New("fetch: at least one station is required")
	}
	return ncei.DataRequest{
		Dataset:                strings.TrimSpace(o.Dataset),
		Stations:               stations,
		StartDate:              start.Format(model.DateLayout),
		EndDate:                end.Format(model.DateLayout),
		DataTypes:              trimAll(o.DataTypes),
		BoundingBox:            trimAll(o.BBox),
		IncludeStationLocation: !o.NoLocation,
		IncludeAttributes:      o.Attributes,
	}, nil
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
