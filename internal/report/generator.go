package report

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/station-search/internal/artifact"
	"github.com/sells-group/station-search/internal/model"
)

// Report holds every table produced by a generator run.
type Report struct {
	Validity  []model.ValidityRow
	Summaries []model.ValiditySummary
	Coverage  []model.CoverageRow
	Missing   []model.MissingDatesRow
	Converted int
}

// Generator builds the reports for one output tree and date range.
type Generator struct {
	layout   Layout
	start    time.Time
	end      time.Time
	workbook bool
}

// Option configures a Generator.
type Option func(*Generator)

// WithWorkbook also writes report.xlsx at the root of the tree.
func WithWorkbook() Option {
	return func(g *Generator) { g.workbook = true }
}

// NewGenerator creates a Generator. start and end bound the coverage
// calculation and are inclusive.
func NewGenerator(layout Layout, start, end time.Time, opts ...Option) (*Generator, error) {
	if end.Before(start) {
		return nil, eris.Errorf("report: end date %s before start date %s",
			end.Format(model.DateLayout), start.Format(model.DateLayout))
	}
	g := &Generator{layout: layout, start: start, end: end}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Run reads station info and station data files and writes every report.
func (g *Generator) Run(ctx context.Context) (*Report, error) {
	log := zap.L().With(zap.String("root", g.layout.Root))

	validity, summaries, err := BuildValidity(ctx, g.layout.StationInfoDir())
	if err != nil {
		return nil, err
	}
	if err := artifact.WriteCSV(g.layout.ValidityReportPath(), validityHeader, validityRecords(validity)); err != nil {
		return nil, err
	}
	if err := artifact.WriteCSV(g.layout.ValiditySummaryPath(), summaryHeader, summaryRecords(summaries)); err != nil {
		return nil, err
	}
	log.Info("report: validity written", zap.Int("files", len(summaries)), zap.Int("stations", len(validity)))

	ids := make([]string, 0, len(validity))
	for _, row := range validity {
		ids = append(ids, row.StationID)
	}
	converted, err := ConvertStations(ctx, g.layout.JSONDir(), g.layout.CSVDir(), ids)
	if err != nil {
		return nil, err
	}

	rep := &Report{Validity: validity, Summaries: summaries, Converted: len(converted)}
	requested := DateRange(g.start, g.end)
	for _, row := range validity {
		rows, ok := converted[row.StationID]
		if !ok {
			continue
		}
		cov := ComputeCoverage(rows, requested)
		rep.Coverage = append(rep.Coverage, model.CoverageRow{
			ValidityRow:  row,
			DateCoverage: cov.Date,
			TMinCoverage: cov.TMin,
			TMaxCoverage: cov.TMax,
			PrcpCoverage: cov.Prcp,
		})
		rep.Missing = append(rep.Missing, model.MissingDatesRow{
			SourceFile: row.SourceFile,
			StationID:  row.StationID,
			Dates:      MissingTMin(rows, requested),
		})
	}

	if err := artifact.WriteCSV(g.layout.CoveragePath(), coverageHeader, coverageRecords(rep.Coverage)); err != nil {
		return nil, err
	}
	if err := artifact.WriteCSV(g.layout.MissingDatePath(), missingHeader, missingRecords(rep.Missing)); err != nil {
		return nil, err
	}

	if g.workbook {
		if err := WriteWorkbook(g.layout.WorkbookPath(), rep); err != nil {
			return nil, err
		}
	}

	log.Info("report: complete",
		zap.Int("converted", rep.Converted),
		zap.Int("coverage_rows", len(rep.Coverage)),
	)
	return rep, nil
}
