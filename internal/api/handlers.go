package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kodjo/solarscope/internal/charts"
	"github.com/kodjo/solarscope/internal/dataset"
	"github.com/kodjo/solarscope/internal/insights"
	"github.com/kodjo/solarscope/internal/metrics"
	"github.com/kodjo/solarscope/internal/stats"
)

// defaultMetrics are the irradiance selectors offered by the dashboard.
var defaultMetrics = []string{dataset.ColGHI, dataset.ColDNI, dataset.ColDHI}

// heatmapColumns feed the correlation matrix; the daytime variant adds the
// module temperatures.
var (
	heatmapColumns = []string{
		dataset.ColGHI, dataset.ColDNI, dataset.ColDHI,
		dataset.ColTamb, dataset.ColRH, dataset.ColWS,
	}
	heatmapDaytimeColumns = []string{
		dataset.ColGHI, dataset.ColDNI, dataset.ColDHI,
		dataset.ColTModA, dataset.ColTModB,
		dataset.ColTamb, dataset.ColRH, dataset.ColWS,
	}
)

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dataset.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, stats.ErrInsufficientGroups):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func queryCountries(r *http.Request) []string {
	raw := r.URL.Query().Get("countries")
	if raw == "" {
		return nil
	}
	var out []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func queryMetric(r *http.Request) string {
	if m := r.URL.Query().Get("metric"); m != "" {
		return m
	}
	return dataset.ColGHI
}

func queryInt(r *http.Request, name string, def int) int {
	if raw := r.URL.Query().Get(name); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return def
}

type indexData struct {
	Countries []string
	Metrics   []string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := indexData{Metrics: defaultMetrics}
	for _, site := range s.pipe.Sites() {
		data.Countries = append(data.Countries, site.Country)
	}
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("api: template error: %v", err)
	}
}

type siteInfo struct {
	Country string `json:"country"`
	File    string `json:"file"`
	Rows    int    `json:"rows"`
	Loaded  bool   `json:"loaded"`
}

func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	var out []siteInfo
	for _, site := range s.pipe.Sites() {
		info := siteInfo{Country: site.Country, File: site.File}
		if t, _, _, err := s.pipe.Cleaned(site.Country); err == nil {
			info.Rows = t.Len()
			info.Loaded = true
		} else {
			log.Printf("api: site %s: %v", site.Country, err)
		}
		out = append(out, info)
	}
	s.writeJSON(w, out)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ms := defaultMetrics
	if raw := r.URL.Query().Get("metrics"); raw != "" {
		ms = strings.Split(raw, ",")
	}
	t, err := s.pipe.Combined(queryCountries(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	records := stats.Summarize(t, ms)
	if records == nil {
		records = []stats.SummaryRecord{}
	}
	s.writeJSON(w, records)
}

type missingResponse struct {
	Country     string                `json:"country,omitempty"`
	Rows        int                   `json:"rows"`
	Report      []stats.ColumnMissing `json:"report"`
	OverPercent []string              `json:"over_5_percent"`
}

// handleMissing reports nulls over the raw table, before any imputation.
func (s *Server) handleMissing(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")
	var t *dataset.Table
	var err error
	if country != "" {
		t, err = s.pipe.Raw(country)
	} else {
		var tables []*dataset.Table
		for _, site := range s.pipe.Sites() {
			raw, rerr := s.pipe.Raw(site.Country)
			if rerr != nil {
				err = rerr
				break
			}
			tables = append(tables, raw)
		}
		if err == nil {
			t = dataset.Combine(tables...)
		}
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	report := stats.MissingValues(t)
	over := stats.ColumnsOver(report, 5)
	if over == nil {
		over = []string{}
	}
	s.writeJSON(w, missingResponse{
		Country:     country,
		Rows:        t.Len(),
		Report:      report,
		OverPercent: over,
	})
}

type outlierResponse struct {
	Country string  `json:"country"`
	Flagged int     `json:"flagged"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

func (s *Server) handleOutliers(w http.ResponseWriter, r *http.Request) {
	countries := queryCountries(r)
	if c := r.URL.Query().Get("country"); c != "" {
		countries = []string{c}
	}
	want := make(map[string]bool, len(countries))
	for _, c := range countries {
		want[c] = true
	}
	var out []outlierResponse
	for _, site := range s.pipe.Sites() {
		if len(countries) > 0 && !want[site.Country] {
			continue
		}
		_, _, orep, err := s.pipe.Cleaned(site.Country)
		if err != nil {
			s.writeError(w, err)
			return
		}
		resp := outlierResponse{Country: site.Country, Flagged: orep.Flagged, Total: orep.Total}
		if orep.Total > 0 {
			resp.Percent = float64(orep.Flagged) / float64(orep.Total) * 100
		}
		out = append(out, resp)
	}
	if out == nil {
		out = []outlierResponse{}
	}
	s.writeJSON(w, out)
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	t, err := s.pipe.Combined(queryCountries(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	n := queryInt(r, "n", len(t.CountryList()))
	ranks := stats.TopRegions(t, queryMetric(r), n)
	if ranks == nil {
		ranks = []stats.RegionRank{}
	}
	s.writeJSON(w, ranks)
}

func (s *Server) handleANOVA(w http.ResponseWriter, r *http.Request) {
	t, err := s.pipe.Combined(queryCountries(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := stats.OneWayANOVA(t, queryMetric(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, res)
}

type insightsResponse struct {
	Metric    string `json:"metric"`
	Narrative string `json:"narrative"`
	Source    string `json:"source"`
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	metric := queryMetric(r)
	t, err := s.pipe.Combined(queryCountries(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	in := insights.Input{
		Metric:  metric,
		Rows:    t.Len(),
		Ranking: stats.TopRegions(t, metric, -1),
	}
	if res, err := stats.OneWayANOVA(t, metric); err == nil {
		in.ANOVA = &res
	}

	resp := insightsResponse{Metric: metric, Source: "static"}
	if s.gen != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()
		if text, err := s.gen.Narrative(ctx, in); err == nil {
			resp.Narrative = text
			resp.Source = "generated"
		} else {
			log.Printf("api: generated narrative failed, using static: %v", err)
		}
	}
	if resp.Narrative == "" {
		resp.Narrative = insights.Build(in)
	}
	s.writeJSON(w, resp)
}

type exportResponse struct {
	Country string `json:"country"`
	Path    string `json:"path"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	countries := queryCountries(r)
	if c := r.URL.Query().Get("country"); c != "" {
		countries = []string{c}
	}
	if len(countries) == 0 {
		for _, site := range s.pipe.Sites() {
			countries = append(countries, site.Country)
		}
	}
	var out []exportResponse
	for _, country := range countries {
		path, err := s.pipe.Export(country)
		if err != nil {
			s.writeError(w, err)
			return
		}
		out = append(out, exportResponse{Country: country, Path: path})
	}
	s.writeJSON(w, out)
}

// handleChart serves /api/chart/{kind} as a JSON spec and
// /api/chart/{kind}.png rendered.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	kind := strings.TrimPrefix(r.URL.Path, "/api/chart/")
	asPNG := strings.HasSuffix(kind, ".png")
	kind = strings.TrimSuffix(kind, ".png")
	if kind == "" {
		http.NotFound(w, r)
		return
	}

	spec, err := s.buildChart(kind, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if spec == nil {
		// Required columns absent: degrade to "nothing to draw".
		http.Error(w, "required columns not present", http.StatusNotFound)
		return
	}
	metrics.ChartsBuilt.WithLabelValues(kind).Inc()

	if asPNG {
		png, err := charts.RenderPNG(spec)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
		return
	}
	s.writeJSON(w, spec)
}

func (s *Server) buildChart(kind string, r *http.Request) (*charts.Spec, error) {
	countries := queryCountries(r)
	if c := r.URL.Query().Get("country"); c != "" {
		countries = []string{c}
	}
	metric := queryMetric(r)
	daytime := r.URL.Query().Get("scope") == "daytime"

	t, err := s.pipe.Combined(countries)
	if err != nil {
		return nil, err
	}
	if daytime {
		t = t.Daytime(s.pipe.Cleaning().DaytimeGHIThreshold)
	}

	switch kind {
	case charts.KindBox:
		return charts.Box(t, metric), nil
	case charts.KindBar:
		n := queryInt(r, "n", len(t.CountryList()))
		return charts.RankedBar(t, metric, n), nil
	case charts.KindTimeSeries:
		return charts.TimeSeries(t, metric, s.limits), nil
	case charts.KindHeatmap:
		cols := heatmapColumns
		title := "Correlation Matrix"
		if daytime {
			cols = heatmapDaytimeColumns
			title = "Correlation Matrix (Daytime)"
		}
		return charts.Heatmap(t, cols, title), nil
	case charts.KindHistogram:
		return charts.Histogram(t, metric, queryInt(r, "bins", 40)), nil
	case charts.KindWindRose:
		return charts.WindRose(t), nil
	case charts.KindBubble:
		day := t.Daytime(s.pipe.Cleaning().DaytimeGHIThreshold)
		return charts.Bubble(day, s.limits, s.newRand()), nil
	case charts.KindScatter:
		x := r.URL.Query().Get("x")
		y := r.URL.Query().Get("y")
		if x == "" || y == "" {
			x, y = dataset.ColTamb, dataset.ColRH
		}
		day := t.Daytime(s.pipe.Cleaning().DaytimeGHIThreshold)
		return charts.Scatter(day, x, y, s.limits, s.newRand()), nil
	case charts.KindCleaningImpact:
		// The impact chart reads the instrument's raw flag, pre-cleaning.
		raw, err := s.rawCombined(countries)
		if err != nil {
			return nil, err
		}
		return charts.CleaningImpact(raw), nil
	default:
		return nil, nil
	}
}

func (s *Server) rawCombined(countries []string) (*dataset.Table, error) {
	want := make(map[string]bool, len(countries))
	for _, c := range countries {
		want[c] = true
	}
	var tables []*dataset.Table
	for _, site := range s.pipe.Sites() {
		if len(countries) > 0 && !want[site.Country] {
			continue
		}
		t, err := s.pipe.Raw(site.Country)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	if len(tables) == 0 {
		return nil, dataset.ErrNotFound
	}
	return dataset.Combine(tables...), nil
}

type healthStatus struct {
	Status string       `json:"status"`
	Sites  []siteHealth `json:"sites"`
	Errors []string     `json:"errors,omitempty"`
}

type siteHealth struct {
	Country string `json:"country"`
	Rows    int    `json:"rows"`
	OK      bool   `json:"ok"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := healthStatus{Status: "ok"}
	for _, site := range s.pipe.Sites() {
		sh := siteHealth{Country: site.Country}
		t, _, _, err := s.pipe.Cleaned(site.Country)
		if err != nil {
			health.Errors = append(health.Errors, site.Country+": "+err.Error())
			health.Status = "degraded"
		} else {
			sh.Rows = t.Len()
			sh.OK = true
		}
		health.Sites = append(health.Sites, sh)
	}

	w.Header().Set("Content-Type", "application/json")
	if health.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(health); err != nil {
		log.Printf("api: health: write response: %v", err)
	}
}
