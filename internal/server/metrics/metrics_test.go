package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/items/:id", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.GET("/fail", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadGateway, "nope") })

	for _, path := range []string{"/items/1", "/items/2", "/fail"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/items/:id", "204")); got != 2 {
		t.Errorf("expected 2 requests on route pattern, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/fail", "502")); got != 1 {
		t.Errorf("expected HTTPError code to be recorded, got %v", got)
	}
}

func TestMiddlewareCountsAbortedRequests(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/stream", func(c echo.Context) error {
		c.Response().WriteHeader(http.StatusOK)
		c.Response().Write([]byte("partial"))
		panic(http.ErrAbortHandler)
	})

	func() {
		defer func() {
			if r := recover(); r != http.ErrAbortHandler {
				t.Errorf("expected http.ErrAbortHandler, got %v", r)
			}
		}()
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/stream", nil))
	}()

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/stream", "200")); got != 1 {
		t.Errorf("expected aborted request to be counted, got %v", got)
	}
	if got := testutil.CollectAndCount(m.latency); got != 1 {
		t.Errorf("expected one latency series, got %d", got)
	}
}

func TestObserve(t *testing.T) {
	m := New()
	m.ObserveDownload("video", OutcomeComplete, 100)
	m.ObserveDownload("audio", OutcomeAborted, 20)
	m.ObserveHistoryWrite(true)
	m.ObserveHistoryWrite(false)

	if got := testutil.ToFloat64(m.bytesRelayed); got != 120 {
		t.Errorf("expected 120 relayed bytes, got %v", got)
	}
	if got := testutil.ToFloat64(m.downloads.WithLabelValues("audio", OutcomeAborted)); got != 1 {
		t.Errorf("expected one aborted audio download, got %v", got)
	}
	if got := testutil.ToFloat64(m.historyWrites.WithLabelValues("error")); got != 1 {
		t.Errorf("expected one failed history write, got %v", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveDownload("video", OutcomeComplete, 42)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{"vidsnap_relayed_bytes_total 42", "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in metrics output", want)
		}
	}
}
