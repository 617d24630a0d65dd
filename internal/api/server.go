package api

import (
	"context"
	"embed"
	"html/template"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kodjo/solarscope/internal/charts"
	"github.com/kodjo/solarscope/internal/insights"
	"github.com/kodjo/solarscope/internal/metrics"
	"github.com/kodjo/solarscope/internal/pipeline"
)

//go:embed templates/*
var templateFS embed.FS

// Server serves the dashboard page and the JSON analysis API on top of a
// pipeline. Every request recomputes from the pipeline (which memoizes the
// expensive stages); the server itself holds no mutable analysis state.
type Server struct {
	pipe   *pipeline.Pipeline
	limits charts.Limits
	port   string
	tmpl   *template.Template
	gen    *insights.Generator

	// newRand seeds scatter sampling; swapped in tests for determinism.
	newRand func() *rand.Rand
}

func NewServer(pipe *pipeline.Pipeline, limits charts.Limits, port string) *Server {
	tmpl := template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))

	// Narrative generation is optional - may not have an API key.
	var gen *insights.Generator
	if g, err := insights.NewGenerator(); err != nil {
		log.Printf("Generated insights disabled: %v", err)
	} else {
		gen = g
	}

	return &Server{
		pipe:   pipe,
		limits: limits,
		port:   port,
		tmpl:   tmpl,
		gen:    gen,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// SetRandSource fixes the sampling seed, for tests.
func (s *Server) SetRandSource(seed int64) {
	s.newRand = func() *rand.Rand { return rand.New(rand.NewSource(seed)) }
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.instrument("index", s.handleIndex))
	mux.HandleFunc("/health", s.instrument("health", s.handleHealth))
	mux.HandleFunc("/api/sites", s.instrument("sites", s.handleSites))
	mux.HandleFunc("/api/summary", s.instrument("summary", s.handleSummary))
	mux.HandleFunc("/api/missing", s.instrument("missing", s.handleMissing))
	mux.HandleFunc("/api/outliers", s.instrument("outliers", s.handleOutliers))
	mux.HandleFunc("/api/top", s.instrument("top", s.handleTop))
	mux.HandleFunc("/api/anova", s.instrument("anova", s.handleANOVA))
	mux.HandleFunc("/api/insights", s.instrument("insights", s.handleInsights))
	mux.HandleFunc("/api/export", s.instrument("export", s.handleExport))
	mux.HandleFunc("/api/chart/", s.instrument("chart", s.handleChart))
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h(w, r)
		metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
