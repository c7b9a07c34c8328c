package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"forecast/internal/core"
)

func TestNewCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentForecast, Output: &buf})

	logger.Info("Cell edited", NewFields().WithProject("p1").Args()...)
	require.Contains(t, buf.String(), "component=forecast")
	require.Contains(t, buf.String(), "project_id=p1")

	buf.Reset()
	logger.WithComponent(ComponentWorker).Debug("tick")
	require.Contains(t, buf.String(), "component=worker")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf})
	logger.Warn("slow", FieldDuration, 1200)
	require.True(t, strings.HasPrefix(buf.String(), "{"))
	require.Contains(t, buf.String(), `"component":"app"`)
}

func TestFields(t *testing.T) {
	cell := core.Cell{
		Bucket:         core.MonthBucket{Year: 2019, Month: 1},
		Category:       core.Revenue,
		FinancialYear:  2019,
		FinancialMonth: 7,
	}
	args := NewFields().
		WithUser("").
		WithError(nil).
		WithCell(cell).
		WithError(errors.New("boom")).
		Args()

	require.Len(t, args, 10)
	require.Equal(t, FieldBucket, args[0])
	require.Equal(t, FieldError, args[8])
	require.Equal(t, "boom", args[9])
}

func TestRequestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Component: ComponentHTTP})

	var seenID string
	h := RequestMiddleware(logger, func() string { return "req-1" }, func(*http.Request) string { return "10.0.0.1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenID = RequestID(r.Context())
			FromContext(r.Context()).Info("inside")
			w.WriteHeader(http.StatusNotFound)
		}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/forecast", nil))

	require.Equal(t, "req-1", seenID)
	require.Equal(t, "req-1", rr.Header().Get("X-Request-ID"))
	out := buf.String()
	require.Contains(t, out, "msg=inside")
	require.Contains(t, out, "level=WARN")
	require.Contains(t, out, "status_code=404")
	require.Contains(t, out, "request_id=req-1")
}

func TestRequestMiddlewareKeepsIncomingID(t *testing.T) {
	logger := New(Config{Output: &bytes.Buffer{}})
	h := RequestMiddleware(logger, func() string { return "generated" }, func(*http.Request) string { return "" })(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, "upstream", rr.Header().Get("X-Request-ID"))
}

func TestFromContextDefault(t *testing.T) {
	require.Equal(t, "unknown", FromContext(context.Background()).Component())
}
