package ncei

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/station-search/internal/resilience"
)

const searchBody = `{
	"count": 2,
	"results": [
		{
			"location": {"type": "Point", "coordinates": [-104.6575, 39.8328]},
			"stations": [{
				"id": "USW00003017",
				"name": "DENVER INTERNATIONAL AIRPORT, CO US",
				"dataTypes": [
					{"id": "TMIN", "dateRange": {"start": "1994-07-20T00:00:00", "end": "2024-03-01T23:59:59"}},
					{"id": "PRCP", "dateRange": {"start": "1994-07-20T00:00:00", "end": "2024-03-01T23:59:59"}}
				]
			}]
		},
		{
			"location": {"type": "Point", "coordinates": [-105.0, 39.7]},
			"stations": [{"id": "USC00052220", "dataTypes": []}]
		}
	]
}`

func newTestClient(t *testing.T, srv *httptest.Server, attempts int) *HTTPClient {
	t.Helper()
	return New(
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithMinInterval(0),
		WithRetry(resilience.RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}),
	)
}

func TestSearchStations_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/v1/data", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "daily-summaries", q.Get("dataset"))
		assert.Equal(t, "40, -105, 39, -104", q.Get("bbox"))
		assert.Equal(t, "2020-01-01", q.Get("startDate"))
		assert.Equal(t, "2020-06-01", q.Get("endDate"))
		assert.Equal(t, "station-search/1.0", r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, searchBody)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, 1)
	res, err := c.SearchStations(context.Background(), SearchRequest{
		Dataset: "daily-summaries", BBox: "40, -105, 39, -104", StartDate: "2020-01-01", EndDate: "2020-06-01",
	})
	require.NoError(t, err)
	require.Len(t, res.Stations, 2)

	first := res.Stations[0]
	assert.Equal(t, "USW00003017", first.ID)
	assert.InDelta(t, 39.8328, first.Latitude, 1e-9)
	assert.InDelta(t, -104.6575, first.Longitude, 1e-9)
	require.Len(t, first.DataTypes, 2)
	assert.Equal(t, "TMIN", first.DataTypes[0].ID)
	assert.Equal(t, "1994-07-20T00:00:00", first.DataTypes[0].DateRange.Start)
	assert.JSONEq(t, searchBody, string(res.Raw))
}

func TestSearchStations_NoResultsIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"count": 0}`)
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv, 1).SearchStations(context.Background(), SearchRequest{Dataset: "daily-summaries"})
	require.NoError(t, err)
	assert.Empty(t, res.Stations)
}

func TestSearchStations_ProviderError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"errorMessage": "Invalid parameters", "errorCode": 400,
			"errors": [{"field": "dataset", "message": "dataset nope does not exist"}]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 3).SearchStations(context.Background(), SearchRequest{Dataset: "nope"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 400, apiErr.StatusCode)
	assert.Equal(t, "Invalid parameters", apiErr.Message)
	assert.Equal(t, []string{"dataset nope does not exist"}, apiErr.Errors)
	assert.Contains(t, err.Error(), "dataset nope does not exist")
}

func TestSearchStations_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, searchBody)
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv, 3).SearchStations(context.Background(), SearchRequest{Dataset: "daily-summaries"})
	require.NoError(t, err)
	assert.Len(t, res.Stations, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearchStations_ServerErrorExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"errorMessage": "timed out", "errorCode": 500, "errors": []}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 2).SearchStations(context.Background(), SearchRequest{Dataset: "global-hourly"})
	require.Error(t, err)
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Equal(t, "timed out", apiErr.Message)
}

func TestMinIntervalSpacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithMinInterval(50*time.Millisecond))
	start := time.Now()
	for range 3 {
		_, err := c.SearchStations(context.Background(), SearchRequest{Dataset: "daily-summaries"})
		require.NoError(t, err)
	}
	// The first request waits too, so three requests take at least three intervals.
	assert.GreaterOrEqual(t, time.Since(start), 140*time.Millisecond)
}

func TestParseAPIError_NonJSONBody(t *testing.T) {
	apiErr := parseAPIError(502, []byte("<html>bad gateway</html>"))
	assert.Equal(t, 502, apiErr.StatusCode)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
	assert.Empty(t, apiErr.Errors)
	assert.Equal(t, "ncei: status 502: Bad Gateway", apiErr.Error())
}

func TestParseSearchResponse_SkipsMalformedEntries(t *testing.T) {
	body := `{"results": [
		{"location": {"coordinates": [-105, 40]}, "stations": []},
		{"location": {"coordinates": []}, "stations": [{"id": "A"}]},
		{"location": {"coordinates": [-105, 40]}, "stations": [{"id": "B"}, {"id": "C"}]}
	]}`
	stations, err := ParseSearchResponse([]byte(body))
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.Equal(t, "B", stations[0].ID)
}

func TestParseSearchResponse_InvalidJSON(t *testing.T) {
	_, err := ParseSearchResponse([]byte("not json"))
	require.Error(t, err)
}
