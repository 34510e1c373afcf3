package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/station-search/internal/model"
	"github.com/sells-group/station-search/internal/report"
	"github.com/sells-group/station-search/internal/store"
)

var (
	reportStart string
	reportEnd   string
	reportRoot  string
	reportXLSX  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build validity, coverage and missing-date reports from an output tree",
	Long: `Reads station files under <output-root>/station-info and station data under
<output-root>/json, then writes:

  valid-station-report/valid_station_report.csv
  valid-station-report/valid_station_summary.csv
  csv/<station>.csv
  coverage/data_coverage.csv
  missing-date/missing_date.csv
  report.xlsx (with --xlsx)`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("report"); err != nil {
			return err
		}
		root := reportRoot
		if root == "" {
			root = cfg.Output.Root
		}

		runs := openRunLog(cmd.Context())
		defer runs.Close()

		rep, err := runReport(cmd.Context(), runs, report.Layout{Root: root}, reportStart, reportEnd, reportXLSX)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%d valid stations in %d files, %d converted, coverage rows: %d\n",
			len(rep.Validity), len(rep.Summaries), rep.Converted, len(rep.Coverage))
		return nil
	},
}

func init() {
	f := reportCmd.Flags()
	f.StringVar(&reportStart, "start-date", "", "first day of the coverage range (YYYY-MM-DD)")
	f.StringVar(&reportEnd, "end-date", "", "last day of the coverage range (YYYY-MM-DD)")
	f.StringVar(&reportRoot, "output-root", "", "output tree root (default output.root)")
	f.BoolVar(&reportXLSX, "xlsx", false, "also write report.xlsx")

	_ = reportCmd.MarkFlagRequired("start-date")
	_ = reportCmd.MarkFlagRequired("end-date")
	rootCmd.AddCommand(reportCmd)
}

func runReport(ctx context.Context, runs *runLog, layout report.Layout, start, end string, workbook bool) (*report.Report, error) {
	startDate, err := model.ParseDate(start)
	if err != nil {
		return nil, eris.Wrap(err, "report: start date")
	}
	endDate, err := model.ParseDate(end)
	if err != nil {
		return nil, eris.Wrap(err, "report: end date")
	}

	var opts []report.Option
	if workbook {
		opts = append(opts, report.WithWorkbook())
	}
	gen, err := report.NewGenerator(layout, startDate, endDate, opts...)
	if err != nil {
		return nil, err
	}

	runID := runs.start(ctx, store.RunParams{Kind: "report", StartDate: start, EndDate: end})
	rep, err := gen.Run(ctx)
	if err != nil {
		runs.fail(ctx, runID, err)
		return nil, err
	}
	runs.complete(ctx, runID, nil, 0)
	return rep, nil
}
