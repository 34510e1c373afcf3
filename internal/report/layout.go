// Package report turns downloaded station data into validity, coverage and
// missing-date tables. It only reads files written by earlier stages.
package report

import (
	"path/filepath"

	"github.com/sells-group/station-search/internal/artifact"
)

// Layout names the directories of an output tree.
type Layout struct {
	Root string
}

// StationInfoDir holds one search result file per batch point.
func (l Layout) StationInfoDir() string {
	return filepath.Join(l.Root, "station-info")
}

// JSONDir holds raw per-station data downloads.
func (l Layout) JSONDir() string {
	return filepath.Join(l.Root, "json")
}

func (l Layout) CSVDir() string {
	return filepath.Join(l.Root, "csv")
}

func (l Layout) ValidityDir() string {
	return filepath.Join(l.Root, "valid-station-report")
}

func (l Layout) CoverageDir() string {
	return filepath.Join(l.Root, "coverage")
}

func (l Layout) MissingDateDir() string {
	return filepath.Join(l.Root, "missing-date")
}

// WorkbookPath is the optional xlsx copy of every report table.
func (l Layout) WorkbookPath() string {
	return filepath.Join(l.Root, "report.xlsx")
}

func (l Layout) ValidityReportPath() string {
	return filepath.Join(l.ValidityDir(), "valid_station_report.csv")
}

func (l Layout) ValiditySummaryPath() string {
	return filepath.Join(l.ValidityDir(), "valid_station_summary.csv")
}

func (l Layout) CoveragePath() string {
	return filepath.Join(l.CoverageDir(), "data_coverage.csv")
}

func (l Layout) MissingDatePath() string {
	return filepath.Join(l.MissingDateDir(), "missing_date.csv")
}

// Dirs lists every directory in the tree.
func (l Layout) Dirs() []string {
	return []string{
		l.StationInfoDir(),
		l.JSONDir(),
		l.CSVDir(),
		l.ValidityDir(),
		l.CoverageDir(),
		l.MissingDateDir(),
	}
}

// Bootstrap creates any missing directories. Existing ones are left alone.
func (l Layout) Bootstrap() error {
	for _, dir := range l.Dirs() {
		if err := artifact.EnsureDir(dir); err != nil {
			return err
		}
	}
	return nil
}
