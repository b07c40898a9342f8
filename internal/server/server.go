// Package server serves a dataset report and its charts over HTTP.
package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/statsketch/internal/analysis"
	"github.com/KaramelBytes/statsketch/internal/chart"
	"github.com/KaramelBytes/statsketch/internal/dataset"
	"github.com/KaramelBytes/statsketch/internal/stats"
)

//go:embed templates/*
var embeddedFiles embed.FS

const shutdownTimeout = 5 * time.Second

// Upper bounds for query parameters that size allocations.
const (
	maxBins = 1000
	maxSide = 4096
)

// Options configures the dashboard.
type Options struct {
	Addr   string
	Format chart.Format
	// Chart supplies default size for every rendered chart.
	Chart chart.Options
	Bins  int
	// Charts shown on the index page; chart.Suggest picks them when nil.
	Charts []chart.Job
	Logger zerolog.Logger
}

// Server holds an immutable dataset and its report. Charts are rendered per
// request from the shared dataset, which is never written after New.
type Server struct {
	ds       *dataset.Dataset
	report   *analysis.Report
	opt      Options
	router   *chi.Mux
	index    *template.Template
	markdown string
	log      zerolog.Logger
}

// New wires routes and middleware for ds and its report.
func New(ds *dataset.Dataset, report *analysis.Report, opt Options) (*Server, error) {
	if ds == nil || report == nil {
		return nil, errors.New("server needs a dataset and a report")
	}
	if opt.Format == "" {
		opt.Format = chart.SVG
	}
	if opt.Bins <= 0 {
		opt.Bins = 10
	}
	if opt.Charts == nil {
		opt.Charts = chart.Suggest(ds, chart.Request{Bins: opt.Bins})
	}
	tmpl, err := template.ParseFS(embeddedFiles, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s := &Server{
		ds:       ds,
		report:   report,
		opt:      opt,
		router:   chi.NewRouter(),
		index:    tmpl,
		markdown: report.Markdown(),
		log:      opt.Logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5, "text/html", "text/markdown", "image/svg+xml"))
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/report.md", s.handleMarkdown)
	s.router.Get("/charts/{kind}.{ext}", s.handleChart)
	s.router.Get("/healthz", s.handleHealth)
}

// Run listens on opt.Addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opt.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opt.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully, letting in-flight requests finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	s.log.Info().Str("addr", ln.Addr().String()).Msg("dashboard listening")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.log.Info().Msg("dashboard stopped")
		return nil
	})
	return g.Wait()
}

type figure struct {
	Name string
	URL  string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	figs := make([]figure, 0, len(s.opt.Charts))
	for _, j := range s.opt.Charts {
		figs = append(figs, figure{Name: j.Name, URL: ChartURL(j, s.opt.Format)})
	}
	data := struct {
		Title  string
		Charts []figure
		Report template.HTML
	}{
		Title:  s.report.Name,
		Charts: figs,
		Report: template.HTML(s.report.HTML()),
	}
	var buf bytes.Buffer
	if err := s.index.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.log.Error().Err(err).Msg("render index")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(s.markdown))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	format, err := chart.ParseFormat(chi.URLParam(r, "ext"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req, err := s.requestFrom(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	d, err := chart.Build(kind, s.ds, req)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	var buf bytes.Buffer
	if err := chart.Write(&buf, d, format); err != nil {
		s.log.Error().Err(err).Str("kind", kind).Msg("render chart")
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) requestFrom(q url.Values) (chart.Request, error) {
	req := chart.Request{
		X:       q.Get("x"),
		Y:       q.Get("y"),
		Size:    q.Get("size"),
		Label:   q.Get("label"),
		Group:   q.Get("group"),
		Bins:    s.opt.Bins,
		Options: s.opt.Chart,
	}
	if cols := strings.TrimSpace(q.Get("columns")); cols != "" {
		for _, c := range strings.Split(cols, ",") {
			if c = strings.TrimSpace(c); c != "" {
				req.Columns = append(req.Columns, c)
			}
		}
	}
	if t := q.Get("title"); t != "" {
		req.Title = t
	}
	ints := []struct {
		key string
		max int
		dst *int
	}{{"bins", maxBins, &req.Bins}, {"width", maxSide, &req.Width}, {"height", maxSide, &req.Height}}
	for _, p := range ints {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > p.max {
			return chart.Request{}, fmt.Errorf("invalid %s: %q (want 1..%d)", p.key, v, p.max)
		}
		*p.dst = n
	}
	return req, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chart.ErrUnknownKind):
		return http.StatusNotFound
	case errors.Is(err, chart.ErrMissingParam),
		errors.Is(err, stats.ErrInvalidInput),
		errors.Is(err, dataset.ErrUnknownColumn),
		errors.Is(err, dataset.ErrNotNumeric):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ChartURL is the dashboard path that renders job in the given format.
func ChartURL(j chart.Job, f chart.Format) string {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("x", j.Request.X)
	set("y", j.Request.Y)
	set("size", j.Request.Size)
	set("label", j.Request.Label)
	set("group", j.Request.Group)
	set("columns", strings.Join(j.Request.Columns, ","))
	if j.Request.Bins > 0 {
		q.Set("bins", strconv.Itoa(j.Request.Bins))
	}
	u := "/charts/" + url.PathEscape(j.Kind) + "." + string(f)
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info().
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("elapsed", time.Since(start)).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
