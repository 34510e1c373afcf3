package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_Paths(t *testing.T) {
	l := Layout{Root: "out"}
	assert.Equal(t, filepath.Join("out", "station-info"), l.StationInfoDir())
	assert.Equal(t, filepath.Join("out", "json"), l.JSONDir())
	assert.Equal(t, filepath.Join("out", "csv"), l.CSVDir())
	assert.Equal(t, filepath.Join("out", "report.xlsx"), l.WorkbookPath())
	assert.Equal(t, filepath.Join("out", "valid-station-report", "valid_station_report.csv"), l.ValidityReportPath())
	assert.Equal(t, filepath.Join("out", "valid-station-report", "valid_station_summary.csv"), l.ValiditySummaryPath())
	assert.Equal(t, filepath.Join("out", "coverage", "data_coverage.csv"), l.CoveragePath())
	assert.Equal(t, filepath.Join("out", "missing-date", "missing_date.csv"), l.MissingDatePath())
	assert.Len(t, l.Dirs(), 6)
}

func TestLayout_Bootstrap(t *testing.T) {
	l := Layout{Root: filepath.Join(t.TempDir(), "tree")}
	require.NoError(t, l.Bootstrap())
	require.NoError(t, l.Bootstrap())

	for _, dir := range l.Dirs() {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir())
	}
}
