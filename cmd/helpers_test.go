package main

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sells-group/station-search/internal/config"
	"github.com/sells-group/station-search/internal/resilience"
	"github.com/sells-group/station-search/pkg/ncei"
)

const denverSearchBody = `{
	"count": 2,
	"results": [
		{
			"location": {"type": "Point", "coordinates": [-104.6575, 39.8328]},
			"stations": [{
				"id": "USW00003017",
				"dataTypes": [
					{"id": "TMIN", "dateRange": {"start": "1994-07-20T00:00:00", "end": "2024-03-01T23:59:59"}},
					{"id": "TMAX", "dateRange": {"start": "1994-07-20T00:00:00", "end": "2024-03-01T23:59:59"}},
					{"id": "PRCP", "dateRange": {"start": "1994-07-20T00:00:00", "end": "2024-03-01T23:59:59"}}
				]
			}]
		},
		{
			"location": {"type": "Point", "coordinates": [-104.99, 39.74]},
			"stations": [{
				"id": "USC00052220",
				"dataTypes": [
					{"id": "PRCP", "dateRange": {"start": "1900-01-01T00:00:00", "end": "2024-03-01T23:59:59"}}
				]
			}]
		}
	]
}`

const providerErrorBody = `{"errorMessage":"Invalid parameters","errors":[{"field":"bbox","message":"bbox out of range"}]}`

// fakeNCEI serves the search and data endpoints. Searches whose bbox starts
// with "1" get a 400 so tests can exercise per-point failures.
type fakeNCEI struct {
	srv      *httptest.Server
	searches atomic.Int64
	fetches  atomic.Int64
}

func newFakeNCEI(t *testing.T) *fakeNCEI {
	t.Helper()
	f := &fakeNCEI{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/search/v1/data":
			f.searches.Add(1)
			if strings.HasPrefix(q.Get("bbox"), "1") {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, providerErrorBody)
				return
			}
			_, _ = io.WriteString(w, denverSearchBody)
		case "/data/v1":
			f.fetches.Add(1)
			id := q.Get("stations")
			_, _ = fmt.Fprintf(w, `[
				{"DATE":"%[2]s","STATION":"%[1]s","TMIN":"-50","TMAX":"211","PRCP":"0"},
				{"DATE":"%[3]s","STATION":"%[1]s","TMIN":"","TMAX":"200","PRCP":"3"}
			]`, id, q.Get("startDate"), q.Get("endDate"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeNCEI) client() *ncei.HTTPClient {
	return ncei.New(
		ncei.WithBaseURL(f.srv.URL),
		ncei.WithHTTPClient(f.srv.Client()),
		ncei.WithMinInterval(0),
		ncei.WithRetry(resilience.RetryConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond}),
	)
}

// useTestConfig installs a config rooted in a temp dir for the duration of
// the test.
func useTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev := cfg
	cfg = &config.Config{
		NCEI: config.NCEIConfig{
			BaseURL:     "http://unused",
			TimeoutSecs: 5,
			UserAgent:   "station-search/test",
		},
		Search: config.SearchConfig{InitialHalfLengthKM: 1, MaxHalfLengthKM: 100},
		Output: config.OutputConfig{
			Root:         filepath.Join(dir, "output"),
			StationsPath: filepath.Join(dir, "data", "stations_sorted.json"),
			DataPath:     filepath.Join(dir, "data", "stations"),
			DumpPath:     filepath.Join(dir, "data", "raw"),
		},
		Fetch: config.FetchConfig{Concurrency: 2},
		Store: config.StoreConfig{Path: filepath.Join(dir, "runs.db")},
		Log:   config.LogConfig{Level: "info", Format: "json"},
	}
	t.Cleanup(func() { cfg = prev })
	return dir
}
