// Package stats computes the descriptive and comparative statistics behind
// the dashboard: per-country summaries, rankings, correlation matrices, the
// missing-value report and the one-way ANOVA cross-country test.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kodjo/solarscope/internal/dataset"
)

// SummaryRecord is one (country, metric) row of descriptive statistics over
// non-missing values.
type SummaryRecord struct {
	Country string  `json:"country"`
	Metric  string  `json:"metric"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	StdDev  float64 `json:"std_dev"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Count   int     `json:"count"`
}

// Summarize computes one SummaryRecord per (country, metric) pair. Metrics
// absent from the table are skipped; countries follow first-seen order.
func Summarize(t *dataset.Table, metrics []string) []SummaryRecord {
	var out []SummaryRecord
	for _, country := range t.CountryList() {
		sub := t.FilterCountries([]string{country})
		for _, metric := range metrics {
			vals, ok := sub.Column(metric)
			if !ok {
				continue
			}
			clean := dropNaN(vals)
			if len(clean) == 0 {
				continue
			}
			sorted := append([]float64(nil), clean...)
			sort.Float64s(sorted)
			out = append(out, SummaryRecord{
				Country: country,
				Metric:  metric,
				Mean:    stat.Mean(clean, nil),
				Median:  medianSorted(sorted),
				StdDev:  stdDev(clean),
				Min:     sorted[0],
				Max:     sorted[len(sorted)-1],
				Count:   len(clean),
			})
		}
	}
	return out
}

// RegionRank is one country's standing for a metric.
type RegionRank struct {
	Country string  `json:"country"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	StdDev  float64 `json:"std_dev"`
}

// TopRegions ranks countries descending by mean of the metric and returns at
// most n. Countries with no usable values are left out; an absent metric
// yields an empty slice.
func TopRegions(t *dataset.Table, metric string, n int) []RegionRank {
	var ranks []RegionRank
	for _, country := range t.CountryList() {
		sub := t.FilterCountries([]string{country})
		vals, ok := sub.Column(metric)
		if !ok {
			return nil
		}
		clean := dropNaN(vals)
		if len(clean) == 0 {
			continue
		}
		sorted := append([]float64(nil), clean...)
		sort.Float64s(sorted)
		ranks = append(ranks, RegionRank{
			Country: country,
			Mean:    stat.Mean(clean, nil),
			Median:  medianSorted(sorted),
			StdDev:  stdDev(clean),
		})
	}
	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].Mean > ranks[j].Mean })
	if n >= 0 && len(ranks) > n {
		ranks = ranks[:n]
	}
	return ranks
}

// ColumnMissing is one row of the missing-value report.
type ColumnMissing struct {
	Column  string  `json:"column"`
	Nulls   int     `json:"nulls"`
	Percent float64 `json:"percent"`
}

// MissingValues reports per-column null counts and percentages, in column
// order.
func MissingValues(t *dataset.Table) []ColumnMissing {
	n := t.Len()
	var out []ColumnMissing
	for _, name := range t.Columns() {
		vals, _ := t.Column(name)
		nulls := 0
		for _, v := range vals {
			if math.IsNaN(v) {
				nulls++
			}
		}
		pct := 0.0
		if n > 0 {
			pct = float64(nulls) / float64(n) * 100
		}
		out = append(out, ColumnMissing{Column: name, Nulls: nulls, Percent: pct})
	}
	return out
}

// ColumnsOver returns the columns whose null percentage exceeds pct.
func ColumnsOver(report []ColumnMissing, pct float64) []string {
	var out []string
	for _, r := range report {
		if r.Percent > pct {
			out = append(out, r.Column)
		}
	}
	return out
}

// CorrelationMatrix computes the Pearson correlation over the requested
// columns, restricted to those present in the table. Each pair uses its
// pairwise-complete rows; pairs with fewer than two complete rows or zero
// variance report 0. Returns the retained column names and the square
// matrix; nil when fewer than two columns are available.
func CorrelationMatrix(t *dataset.Table, cols []string) ([]string, [][]float64) {
	var names []string
	var data [][]float64
	for _, name := range cols {
		if vals, ok := t.Column(name); ok {
			names = append(names, name)
			data = append(data, vals)
		}
	}
	if len(names) < 2 {
		return nil, nil
	}
	m := make([][]float64, len(names))
	for i := range m {
		m[i] = make([]float64, len(names))
		m[i][i] = 1
	}
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			r := pairCorrelation(data[i], data[j])
			m[i][j] = r
			m[j][i] = r
		}
	}
	return names, m
}

func pairCorrelation(a, b []float64) float64 {
	var xs, ys []float64
	for i := range a {
		if !math.IsNaN(a[i]) && !math.IsNaN(b[i]) {
			xs = append(xs, a[i])
			ys = append(ys, b[i])
		}
	}
	if len(xs) < 2 {
		return 0
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// stdDev is the sample standard deviation, 0 for fewer than two values so
// single-observation groups stay JSON-encodable.
func stdDev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	return stat.StdDev(vals, nil)
}

func dropNaN(vals []float64) []float64 {
	clean := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	return clean
}

func medianSorted(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
