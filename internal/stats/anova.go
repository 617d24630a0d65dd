package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kodjo/solarscope/internal/dataset"
)

// ErrInsufficientGroups is returned when ANOVA is requested with fewer than
// two usable country groups. The caller must re-prompt rather than retry.
var ErrInsufficientGroups = errors.New("stats: ANOVA requires at least 2 groups")

// SignificanceLevel is the p-value below which group means are declared
// different.
const SignificanceLevel = 0.05

// ANOVAResult holds a one-way ANOVA outcome for a metric across countries.
type ANOVAResult struct {
	Metric      string  `json:"metric"`
	FStatistic  float64 `json:"f_statistic"`
	PValue      float64 `json:"p_value"`
	Significant bool    `json:"significant"`
	Groups      int     `json:"groups"`
}

// OneWayANOVA tests the null hypothesis that the metric's mean is equal
// across all country groups in the table. Missing values are excluded per
// group before testing, and groups left empty do not count toward the
// two-group minimum.
func OneWayANOVA(t *dataset.Table, metric string) (ANOVAResult, error) {
	var groups [][]float64
	if !t.HasColumn(metric) {
		return ANOVAResult{}, ErrInsufficientGroups
	}
	for _, country := range t.CountryList() {
		sub := t.FilterCountries([]string{country})
		vals, _ := sub.Column(metric)
		clean := dropNaN(vals)
		if len(clean) > 0 {
			groups = append(groups, clean)
		}
	}
	if len(groups) < 2 {
		return ANOVAResult{}, ErrInsufficientGroups
	}

	f, p := fOneWay(groups)
	if math.IsNaN(f) {
		// Degenerate data (e.g. one value per group): not enough to test.
		return ANOVAResult{}, ErrInsufficientGroups
	}
	if math.IsInf(f, 1) {
		// All-constant groups with different means. Clamp so the result
		// stays JSON-encodable; p is exactly 0 either way.
		f = math.MaxFloat64
	}
	return ANOVAResult{
		Metric:      metric,
		FStatistic:  f,
		PValue:      p,
		Significant: p < SignificanceLevel,
		Groups:      len(groups),
	}, nil
}

// fOneWay computes the F statistic and p-value for k groups: between-group
// variance over within-group variance, referred to an F distribution with
// (k-1, N-k) degrees of freedom.
func fOneWay(groups [][]float64) (fstat, pvalue float64) {
	k := len(groups)
	n := 0
	var grandSum float64
	means := make([]float64, k)
	for i, g := range groups {
		means[i] = stat.Mean(g, nil)
		n += len(g)
		for _, v := range g {
			grandSum += v
		}
	}
	grandMean := grandSum / float64(n)

	var ssb, ssw float64
	for i, g := range groups {
		d := means[i] - grandMean
		ssb += float64(len(g)) * d * d
		for _, v := range g {
			e := v - means[i]
			ssw += e * e
		}
	}

	df1 := float64(k - 1)
	df2 := float64(n - k)
	if df2 <= 0 {
		return math.NaN(), math.NaN()
	}
	if ssw == 0 {
		if ssb == 0 {
			return math.NaN(), math.NaN()
		}
		return math.Inf(1), 0
	}

	fstat = (ssb / df1) / (ssw / df2)
	dist := distuv.F{D1: df1, D2: df2}
	pvalue = dist.Survival(fstat)
	return fstat, pvalue
}
