// Package artifact reads and writes the JSON, CSV and shapefile artifacts
// each pipeline stage exchanges. Every function takes explicit paths.
package artifact

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "artifact: create dir %s", dir)
	}
	return nil
}

// WriteJSON writes v as indented JSON, creating the parent directory.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "artifact: marshal %s", path)
	}
	return writeFile(path, append(data, '\n'))
}

// WriteRawJSON writes a provider response body. Valid JSON is re-indented
// so dumps are readable; anything else is written as is.
func WriteRawJSON(path string, body []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err == nil {
		buf.WriteByte('\n')
		return writeFile(path, buf.Bytes())
	}
	return writeFile(path, body)
}

// ReadJSON decodes the JSON file at path into a new T.
func ReadJSON[T any](path string) (*T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var v T
	if err := json.NewDecoder(f).Decode(&v); err != nil {
		return nil, eris.Wrapf(err, "artifact: decode %s", path)
	}
	return &v, nil
}

// ListFiles returns the names of regular files in dir with the given
// extension, sorted. A missing directory yields no files.
func ListFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "artifact: list %s", dir)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func writeFile(path string, data []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "artifact: write %s", path)
	}
	return nil
}
