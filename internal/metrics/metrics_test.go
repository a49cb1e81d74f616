package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"stylesync/internal/metrics"
)

func TestObserverCounters(t *testing.T) {
	c := metrics.New()
	c.FileStored("Trip")
	c.FileStored("album_20240309_140507")
	c.FileSkipped("unsupported type")
	c.JobEvent("created")
	c.JobEvent("created")

	expected := `
# HELP stylesync_job_events_total Job lifecycle events
# TYPE stylesync_job_events_total counter
stylesync_job_events_total{event="created"} 2
`
	if err := testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "stylesync_job_events_total"); err != nil {
		t.Fatalf("job events: %v", err)
	}

	expected = `
# HELP stylesync_upload_files_stored_total Uploaded files stored in the managed tree
# TYPE stylesync_upload_files_stored_total counter
stylesync_upload_files_stored_total{album="named"} 1
stylesync_upload_files_stored_total{album="synthesized"} 1
`
	if err := testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "stylesync_upload_files_stored_total"); err != nil {
		t.Fatalf("files stored: %v", err)
	}
}

func TestMiddlewareRecordsNormalizedRoute(t *testing.T) {
	c := metrics.New()
	handler := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/jobs/12/regenerate", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	count, err := testutil.GatherAndCount(c.Registry(), "stylesync_http_requests_total")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected one series, got %d", count)
	}

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	want := `stylesync_http_requests_total{method="POST",path="/api/jobs/{id}/regenerate",status="404"} 1`
	if !strings.Contains(string(body), want) {
		t.Fatalf("metrics output missing %q", want)
	}
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/api/jobs":              "/api/jobs",
		"/api/jobs/3":            "/api/jobs/{id}",
		"/api/jobs/3/completion": "/api/jobs/{id}/completion",
		"/uploads/Trip/a.jpg":    "/uploads/{path}",
		"/api/albums":            "/api/albums",
	}
	for in, want := range cases {
		if got := metrics.NormalizePath(in); got != want {
			t.Errorf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
