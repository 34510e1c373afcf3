package artifact

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVOptions configures StreamCSV.
type CSVOptions struct {
	HasHeader bool            // first row goes to HeaderCh instead of the row channel
	HeaderCh  chan<- []string // optional
	TrimSpace bool
}

// StreamCSV reads CSV rows from r onto a channel. A leading UTF-8 byte order
// mark, common in spreadsheet exports, is dropped. Both channels are closed
// when reading finishes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
		reader := csv.NewReader(decoded)
		reader.FieldsPerRecord = -1

		first := true
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			if opts.TrimSpace {
				for i, field := range record {
					record[i] = strings.TrimSpace(field)
				}
			}

			if first && opts.HasHeader {
				first = false
				if opts.HeaderCh != nil {
					select {
					case opts.HeaderCh <- record:
					case <-ctx.Done():
						errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled sending header")
						return
					}
				}
				continue
			}
			first = false

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// ReadCSV reads a whole CSV file, returning the header and data rows.
func ReadCSV(ctx context.Context, path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "artifact: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	headerCh := make(chan []string, 1)
	rowCh, errCh := StreamCSV(ctx, f, CSVOptions{HasHeader: true, HeaderCh: headerCh, TrimSpace: true})

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, nil, eris.Wrapf(err, "artifact: read %s", path)
	}

	var header []string
	select {
	case header = <-headerCh:
	default:
	}
	return header, rows, nil
}

// WriteCSV writes header and rows to path, creating the parent directory.
func WriteCSV(path string, header []string, rows [][]string) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "artifact: create %s", path)
	}
	return eris.Wrapf(writeCSVAndClose(f, header, rows), "artifact: write %s", path)
}

// writeCSVAndClose writes the table to wc and closes it. A close error is
// returned when the write itself succeeded.
func writeCSVAndClose(wc io.WriteCloser, header []string, rows [][]string) (err error) {
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = eris.Wrap(cerr, "close")
		}
	}()

	w := csv.NewWriter(wc)
	if len(header) > 0 {
		if err := w.Write(header); err != nil {
			return eris.Wrap(err, "header")
		}
	}
	if err := w.WriteAll(rows); err != nil {
		return eris.Wrap(err, "rows")
	}
	return nil
}
