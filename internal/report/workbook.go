package report

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/station-search/internal/artifact"
)

type sheet struct {
	name   string
	header []string
	rows   [][]string
}

// WriteWorkbook saves every report table as a sheet of one xlsx file.
func WriteWorkbook(path string, rep *Report) error {
	sheets := []sheet{
		{"valid stations", validityHeader, validityRecords(rep.Validity)},
		{"summary", summaryHeader, summaryRecords(rep.Summaries)},
		{"coverage", coverageHeader, coverageRecords(rep.Coverage)},
		{"missing dates", missingHeader, missingRecords(rep.Missing)},
	}

	f := xlsx.NewFile()
	for _, s := range sheets {
		sh, err := f.AddSheet(s.name)
		if err != nil {
			return eris.Wrapf(err, "report: add sheet %s", s.name)
		}
		addRow(sh, s.header)
		for _, rec := range s.rows {
			addRow(sh, rec)
		}
	}

	if err := artifact.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save workbook %s", path)
	}
	return nil
}

func addRow(sh *xlsx.Sheet, values []string) {
	row := sh.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
