// Package pipeline wires the analysis stages together: load a site's CSV,
// apply the cleaning recipe, flag outliers, and hand derived tables to
// whoever asks. Load and clean stages are memoized through an injectable
// cache keyed by the input file's identity.
package pipeline

import (
	"fmt"
	"os"
	"time"

	"github.com/kodjo/solarscope/internal/cleaning"
	"github.com/kodjo/solarscope/internal/dataset"
	"github.com/kodjo/solarscope/internal/metrics"
	"github.com/kodjo/solarscope/internal/outliers"
)

// CleanReport and OutlierReport re-export the stage report types for
// callers that only import the pipeline.
type (
	CleanReport   = cleaning.Report
	OutlierReport = outliers.Report
)

// Config describes the sites and stage policies.
type Config struct {
	Sites    []dataset.Site
	DataDir  string
	Cleaning cleaning.Config
	Outliers outliers.Config
}

// Pipeline owns the load -> clean -> flag flow for a fixed set of sites.
type Pipeline struct {
	cfg   Config
	cache Cache
}

// New builds a pipeline. A nil cache disables memoization.
func New(cfg Config, cache Cache) *Pipeline {
	return &Pipeline{cfg: cfg, cache: cache}
}

// Sites returns the configured sites.
func (p *Pipeline) Sites() []dataset.Site {
	return append([]dataset.Site(nil), p.cfg.Sites...)
}

// Site looks a site up by its country label.
func (p *Pipeline) Site(country string) (dataset.Site, bool) {
	for _, s := range p.cfg.Sites {
		if s.Country == country {
			return s, true
		}
	}
	return dataset.Site{}, false
}

// Cleaning returns the active cleaning policy.
func (p *Pipeline) Cleaning() cleaning.Config { return p.cfg.Cleaning }

// cacheKey identifies a stage output by site and input-file identity.
func cacheKey(stage string, site dataset.Site, mtime time.Time) string {
	return fmt.Sprintf("%s|%s|%s|%d", stage, site.Country, site.File, mtime.UnixNano())
}

func (p *Pipeline) lookup(stage string, site dataset.Site) (*Entry, string, bool) {
	info, err := os.Stat(site.File)
	if err != nil {
		// A stat failure just bypasses the cache; Load reports the real
		// error.
		return nil, "", false
	}
	key := cacheKey(stage, site, info.ModTime())
	if p.cache == nil {
		return nil, key, false
	}
	if e, ok := p.cache.Get(key); ok {
		metrics.CacheHits.WithLabelValues(stage).Inc()
		return e, key, true
	}
	metrics.CacheMisses.WithLabelValues(stage).Inc()
	return nil, key, false
}

func (p *Pipeline) store(key string, e *Entry) {
	if p.cache != nil && key != "" {
		p.cache.Set(key, e)
	}
}

// Raw returns the site's Observation Table as loaded, memoized.
func (p *Pipeline) Raw(country string) (*dataset.Table, error) {
	site, ok := p.Site(country)
	if !ok {
		return nil, fmt.Errorf("%w: unknown site %q", dataset.ErrNotFound, country)
	}
	e, key, ok := p.lookup("raw", site)
	if ok {
		return e.Table, nil
	}
	start := time.Now()
	t, err := dataset.Load(site.File, site.Country)
	if err != nil {
		return nil, err
	}
	metrics.StageDuration.WithLabelValues("load").Observe(time.Since(start).Seconds())
	metrics.PipelineRuns.WithLabelValues(site.Country, "load").Inc()
	p.store(key, &Entry{Table: t})
	return t, nil
}

// Cleaned returns the site's Cleaned Table (imputed, daytime-null dropped,
// outlier flagged), memoized, along with the stage reports.
func (p *Pipeline) Cleaned(country string) (*dataset.Table, CleanReport, OutlierReport, error) {
	site, ok := p.Site(country)
	if !ok {
		return nil, CleanReport{}, OutlierReport{}, fmt.Errorf("%w: unknown site %q", dataset.ErrNotFound, country)
	}
	e, key, ok := p.lookup("clean", site)
	if ok {
		return e.Table, e.Cleaning, e.Outliers, nil
	}
	raw, err := p.Raw(country)
	if err != nil {
		return nil, CleanReport{}, OutlierReport{}, err
	}
	start := time.Now()
	cleaned, crep := cleaning.Clean(raw, p.cfg.Cleaning)
	flagged, orep := outliers.Flag(cleaned, p.cfg.Outliers)
	metrics.StageDuration.WithLabelValues("clean").Observe(time.Since(start).Seconds())
	metrics.PipelineRuns.WithLabelValues(site.Country, "clean").Inc()
	p.store(key, &Entry{Table: flagged, Cleaning: crep, Outliers: orep})
	return flagged, crep, orep, nil
}

// Combined concatenates the cleaned tables for the named countries (all
// configured sites when the list is empty), in configured site order.
func (p *Pipeline) Combined(countries []string) (*dataset.Table, error) {
	want := make(map[string]bool, len(countries))
	for _, c := range countries {
		want[c] = true
	}
	var tables []*dataset.Table
	for _, site := range p.cfg.Sites {
		if len(countries) > 0 && !want[site.Country] {
			continue
		}
		t, _, _, err := p.Cleaned(site.Country)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: no matching sites", dataset.ErrNotFound)
	}
	return dataset.Combine(tables...), nil
}
