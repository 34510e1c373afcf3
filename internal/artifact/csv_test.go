package artifact

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csv", "USW00003017.csv")
	header := []string{"date", "min", "max", "precipitation"}
	rows := [][]string{
		{"2020-01-01", "10.04", "39.92", "0"},
		{"2020-01-02", "", "41", "5"},
	}
	require.NoError(t, WriteCSV(path, header, rows))

	gotHeader, gotRows, err := ReadCSV(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, header, gotHeader)
	assert.Equal(t, rows, gotRows)
}

func TestReadCSV_StripsBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	content := "\xef\xbb\xbfstation_id,latitude,longitude\nKDEN, 39.85 ,-104.66\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	header, rows, err := ReadCSV(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"station_id", "latitude", "longitude"}, header)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"KDEN", "39.85", "-104.66"}, rows[0])
}

func TestReadCSV_Missing(t *testing.T) {
	_, _, err := ReadCSV(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func TestStreamCSV_VariableWidthAndCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rowCh, errCh := StreamCSV(ctx, strings.NewReader("a,b\nc\nd,e,f\n"), CSVOptions{})
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}, {"d", "e", "f"}}, rows)

	cancel()
	rowCh, errCh = StreamCSV(ctx, strings.NewReader("a\nb\n"), CSVOptions{})
	for range rowCh {
	}
	assert.Error(t, <-errCh)
}

type failingCloser struct {
	strings.Builder
	closeErr error
	closed   bool
}

func (f *failingCloser) Close() error {
	f.closed = true
	return f.closeErr
}

func TestWriteCSVAndClose_ReturnsCloseError(t *testing.T) {
	fc := &failingCloser{closeErr: os.ErrClosed}
	err := writeCSVAndClose(fc, []string{"a"}, [][]string{{"1"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.True(t, fc.closed)
	assert.Equal(t, "a\n1\n", fc.String())
}

func TestWriteCSVAndClose_ClosesOnSuccess(t *testing.T) {
	fc := &failingCloser{}
	require.NoError(t, writeCSVAndClose(fc, nil, [][]string{{"x", "y"}}))
	assert.True(t, fc.closed)
	assert.Equal(t, "x,y\n", fc.String())
}
