package server

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/statsketch/internal/analysis"
	"github.com/KaramelBytes/statsketch/internal/chart"
	"github.com/KaramelBytes/statsketch/internal/dataset"
)

func newTestServer(t *testing.T, logs io.Writer) *Server {
	t.Helper()
	rows := [][]string{
		{"1", "2", "A"},
		{"2", "4", "B"},
		{"3", "7", "A"},
		{"4", "8", "B"},
		{"5", "11", "A"},
	}
	ds := dataset.FromTable(&dataset.Table{
		Name:   "linear.csv",
		Header: []string{"x", "y", "label"},
		Rows:   rows,
		Total:  len(rows),
	}, dataset.DefaultLoadOptions())
	rep, err := analysis.Analyze(ds, analysis.DefaultOptions())
	require.NoError(t, err)
	if logs == nil {
		logs = io.Discard
	}
	s, err := New(ds, rep, Options{Logger: zerolog.New(logs)})
	require.NoError(t, err)
	return s
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestIndexEmbedsReportAndCharts(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "<title>linear.csv</title>")
	assert.Contains(t, body, "/charts/histogram.svg")
	assert.Contains(t, body, "/charts/regression.svg")
	assert.Contains(t, body, "<table>")
}

func TestReportMarkdown(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/report.md")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, rec.Body.String(), "[SCHEMA]")
}

func TestChartEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	rec := get(t, s, "/charts/scatter.svg?x=x&y=y")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = get(t, s, "/charts/bar.png?label=label&y=y&width=300&height=200")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = get(t, s, "/charts/grouped.svg?group=label&columns=x,y")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestChartStatusCodes(t *testing.T) {
	s := newTestServer(t, nil)
	cases := map[string]int{
		"/charts/radar.svg?x=x":                             http.StatusNotFound,
		"/charts/scatter.gif?x=x&y=y":                       http.StatusBadRequest,
		"/charts/scatter.svg?x=x":                           http.StatusBadRequest,
		"/charts/scatter.svg?x=x&y=nope":                    http.StatusBadRequest,
		"/charts/histogram.svg?x=label":                     http.StatusBadRequest,
		"/charts/histogram.svg?x=x&bins=0":                  http.StatusBadRequest,
		"/charts/histogram.svg?x=x&bins=2000000000":         http.StatusBadRequest,
		"/charts/scatter.png?x=x&y=y&width=100000":          http.StatusBadRequest,
		"/charts/scatter.png?x=x&y=y&height=100000":         http.StatusBadRequest,
		"/charts/histogram.svg?x=x&bins=50":                 http.StatusOK,
		"/charts/scatter.svg?x=x&y=y&width=4096&height=200": http.StatusOK,
	}
	for target, want := range cases {
		rec := get(t, s, target)
		assert.Equal(t, want, rec.Code, target)
	}
}

func TestRequestsAreLogged(t *testing.T) {
	var logs bytes.Buffer
	s := newTestServer(t, &logs)
	get(t, s, "/healthz")
	out := logs.String()
	assert.Contains(t, out, `"path":"/healthz"`)
	assert.Contains(t, out, `"status":200`)
	assert.Contains(t, out, `"request_id"`)
}

func TestChartURL(t *testing.T) {
	j := chart.Job{Kind: "bubble", Request: chart.Request{X: "a b", Y: "c", Size: "d", Bins: 4}}
	assert.Equal(t, "/charts/bubble.png?bins=4&size=d&x=a+b&y=c", ChartURL(j, chart.PNG))
	assert.Equal(t, "/charts/pie.svg?columns=a%2Cb", ChartURL(chart.Job{Kind: "pie", Request: chart.Request{Columns: []string{"a", "b"}}}, chart.SVG))
}

func TestNewRequiresData(t *testing.T) {
	_, err := New(nil, nil, Options{})
	assert.Error(t, err)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
