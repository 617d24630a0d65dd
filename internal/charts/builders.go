package charts

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/kodjo/solarscope/internal/dataset"
	"github.com/kodjo/solarscope/internal/stats"
)

// Box builds a per-country distribution chart of raw metric values.
func Box(t *dataset.Table, metric string) *Spec {
	if !t.HasColumn(metric) {
		return nil
	}
	spec := &Spec{
		Kind:   KindBox,
		Title:  fmt.Sprintf("%s Distribution by Country", metric),
		YLabel: fmt.Sprintf("%s (W/m²)", metric),
	}
	for i, country := range t.CountryList() {
		sub := t.FilterCountries([]string{country})
		vals, _ := sub.Column(metric)
		spec.Series = append(spec.Series, Series{
			Name:   country,
			Values: dropNaN(vals),
			Color:  colorFor(i),
		})
	}
	return spec
}

// RankedBar builds a bar chart of countries ranked descending by mean metric
// value, top-n only.
func RankedBar(t *dataset.Table, metric string, topN int) *Spec {
	ranks := stats.TopRegions(t, metric, topN)
	if ranks == nil {
		return nil
	}
	s := Series{Name: metric}
	for _, r := range ranks {
		s.Labels = append(s.Labels, r.Country)
		s.Values = append(s.Values, r.Mean)
	}
	return &Spec{
		Kind:   KindBar,
		Title:  fmt.Sprintf("Average %s by Country", metric),
		XLabel: "Country",
		YLabel: fmt.Sprintf("Average %s (W/m²)", metric),
		Series: []Series{s},
	}
}

// TimeSeries builds one line per country of the metric resampled to daily
// means, capped at lim.SeriesSample points per line.
func TimeSeries(t *dataset.Table, metric string, lim Limits) *Spec {
	if !t.HasColumn(metric) {
		return nil
	}
	spec := &Spec{
		Kind:   KindTimeSeries,
		Title:  fmt.Sprintf("%s Time Series (Daily Mean)", metric),
		XLabel: "Date",
		YLabel: fmt.Sprintf("%s (W/m²)", metric),
	}
	for i, country := range t.CountryList() {
		sub := t.FilterCountries([]string{country})
		vals, _ := sub.Column(metric)
		days, means := resampleDaily(sub.Times, vals)
		if len(days) > lim.SeriesSample {
			days = days[:lim.SeriesSample]
			means = means[:lim.SeriesSample]
		}
		s := Series{Name: country, Color: colorFor(i), times: days}
		for j, d := range days {
			s.Labels = append(s.Labels, d.Format("2006-01-02"))
			s.Values = append(s.Values, means[j])
		}
		spec.Series = append(spec.Series, s)
	}
	return spec
}

// resampleDaily averages values per calendar day, ignoring NaN, and returns
// days in ascending order. Days with no usable values are omitted.
func resampleDaily(times []time.Time, vals []float64) ([]time.Time, []float64) {
	type acc struct {
		sum float64
		n   int
	}
	byDay := make(map[time.Time]*acc)
	for i, ts := range times {
		if math.IsNaN(vals[i]) {
			continue
		}
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		a := byDay[day]
		if a == nil {
			a = &acc{}
			byDay[day] = a
		}
		a.sum += vals[i]
		a.n++
	}
	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	means := make([]float64, len(days))
	for i, day := range days {
		a := byDay[day]
		means[i] = a.sum / float64(a.n)
	}
	return days, means
}

// Heatmap builds a correlation-matrix chart over the requested columns.
func Heatmap(t *dataset.Table, cols []string, title string) *Spec {
	names, m := stats.CorrelationMatrix(t, cols)
	if names == nil {
		return nil
	}
	return &Spec{
		Kind:   KindHeatmap,
		Title:  title,
		Matrix: &Matrix{Columns: names, Values: m},
	}
}

// Histogram builds a fixed-width binned distribution of the metric.
func Histogram(t *dataset.Table, metric string, bins int) *Spec {
	vals, ok := t.Column(metric)
	if !ok {
		return nil
	}
	clean := dropNaN(vals)
	if len(clean) == 0 || bins < 1 {
		return nil
	}
	lo, hi := clean[0], clean[0]
	for _, v := range clean {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	width := (hi - lo) / float64(bins)
	if width == 0 {
		width = 1
	}
	counts := make([]float64, bins)
	for _, v := range clean {
		b := int((v - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		counts[b]++
	}
	s := Series{Name: metric, Values: counts}
	for b := 0; b < bins; b++ {
		s.Labels = append(s.Labels, fmt.Sprintf("%.1f", lo+(float64(b)+0.5)*width))
	}
	return &Spec{
		Kind:   KindHistogram,
		Title:  fmt.Sprintf("%s Distribution", metric),
		XLabel: metric,
		YLabel: "Count",
		Series: []Series{s},
	}
}

var windSectors = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// WindRose bins wind direction into eight 45° compass sectors starting at 0°
// inclusive (N covers [0°,45°)) and reports the mean wind speed per sector.
// Directions outside [0°,360°) are normalized into range first.
func WindRose(t *dataset.Table) *Spec {
	wd, okWD := t.Column(dataset.ColWD)
	ws, okWS := t.Column(dataset.ColWS)
	if !okWD || !okWS {
		return nil
	}
	sums := make([]float64, len(windSectors))
	counts := make([]int, len(windSectors))
	for i := range wd {
		if math.IsNaN(wd[i]) || math.IsNaN(ws[i]) {
			continue
		}
		b := SectorIndex(wd[i])
		sums[b] += ws[i]
		counts[b]++
	}
	spec := &Spec{Kind: KindWindRose, Title: "Wind Rose (Mean Wind Speed by Direction)"}
	for b, name := range windSectors {
		mean := 0.0
		if counts[b] > 0 {
			mean = sums[b] / float64(counts[b])
		}
		spec.Polar = append(spec.Polar, PolarBin{Sector: name, MeanSpeed: mean, Count: counts[b]})
	}
	return spec
}

// SectorIndex maps a direction in degrees to its compass sector index
// (0 = N, 1 = NE, ...).
func SectorIndex(deg float64) int {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return int(d/45) % len(windSectors)
}

// SectorName returns the compass label for a direction in degrees.
func SectorName(deg float64) string { return windSectors[SectorIndex(deg)] }

// Bubble builds the GHI vs ambient-temperature chart with bubble size and
// color encoding relative humidity, over a capped random sample of rows.
func Bubble(t *dataset.Table, lim Limits, rng *rand.Rand) *Spec {
	spec := scatterSpec(t, dataset.ColTamb, dataset.ColGHI, lim, rng, dataset.ColRH)
	if spec == nil {
		return nil
	}
	spec.Kind = KindBubble
	spec.Title = "GHI vs. Tamb (Bubble Size = RH)"
	return spec
}

// Scatter builds an x/y chart over a capped random sample of rows.
func Scatter(t *dataset.Table, xCol, yCol string, lim Limits, rng *rand.Rand) *Spec {
	spec := scatterSpec(t, xCol, yCol, lim, rng, "")
	if spec == nil {
		return nil
	}
	spec.Title = fmt.Sprintf("%s vs. %s", yCol, xCol)
	return spec
}

func scatterSpec(t *dataset.Table, xCol, yCol string, lim Limits, rng *rand.Rand, sizeCol string) *Spec {
	xs, okX := t.Column(xCol)
	ys, okY := t.Column(yCol)
	if !okX || !okY {
		return nil
	}
	var sizes []float64
	if sizeCol != "" {
		var okS bool
		sizes, okS = t.Column(sizeCol)
		if !okS {
			return nil
		}
	}

	var rows []int
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		rows = append(rows, i)
	}
	rows = sampleRows(rows, lim.ScatterSample, rng)

	spec := &Spec{Kind: KindScatter, XLabel: xCol, YLabel: yCol}
	for _, i := range rows {
		p := Point{X: xs[i], Y: ys[i], Label: t.Times[i].Format("2006-01-02 15:04")}
		if sizes != nil && !math.IsNaN(sizes[i]) {
			p.Size = sizes[i]
			p.Color = sizes[i]
		}
		spec.Points = append(spec.Points, p)
	}
	return spec
}

// sampleRows keeps at most max row indexes, drawn uniformly without
// replacement and returned in ascending (time) order.
func sampleRows(rows []int, max int, rng *rand.Rand) []int {
	if max <= 0 || len(rows) <= max {
		return rows
	}
	perm := rng.Perm(len(rows))[:max]
	sort.Ints(perm)
	out := make([]int, max)
	for i, p := range perm {
		out[i] = rows[p]
	}
	return out
}

// CleaningImpact compares mean module output (ModA, ModB) across the source
// instrument's raw Cleaning flag values.
func CleaningImpact(t *dataset.Table) *Spec {
	flags, ok := t.Column(dataset.ColCleaning)
	if !ok {
		return nil
	}
	modA, okA := t.Column(dataset.ColModA)
	modB, okB := t.Column(dataset.ColModB)
	if !okA && !okB {
		return nil
	}

	type acc struct {
		sumA, sumB float64
		nA, nB     int
	}
	byFlag := make(map[float64]*acc)
	var order []float64
	for i, f := range flags {
		if math.IsNaN(f) {
			continue
		}
		a := byFlag[f]
		if a == nil {
			a = &acc{}
			byFlag[f] = a
			order = append(order, f)
		}
		if okA && !math.IsNaN(modA[i]) {
			a.sumA += modA[i]
			a.nA++
		}
		if okB && !math.IsNaN(modB[i]) {
			a.sumB += modB[i]
			a.nB++
		}
	}
	if len(order) == 0 {
		return nil
	}
	sort.Float64s(order)

	spec := &Spec{
		Kind:   KindCleaningImpact,
		Title:  "Average Module Output by Cleaning Flag",
		XLabel: "Cleaning",
		YLabel: "Mean Output",
	}
	var sA, sB Series
	sA.Name, sB.Name = dataset.ColModA, dataset.ColModB
	for _, f := range order {
		label := fmt.Sprintf("%g", f)
		a := byFlag[f]
		if okA {
			sA.Labels = append(sA.Labels, label)
			v := 0.0
			if a.nA > 0 {
				v = a.sumA / float64(a.nA)
			}
			sA.Values = append(sA.Values, v)
		}
		if okB {
			sB.Labels = append(sB.Labels, label)
			v := 0.0
			if a.nB > 0 {
				v = a.sumB / float64(a.nB)
			}
			sB.Values = append(sB.Values, v)
		}
	}
	if okA {
		spec.Series = append(spec.Series, sA)
	}
	if okB {
		spec.Series = append(spec.Series, sB)
	}
	return spec
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
