// Package charts maps tables and selections to renderable chart
// descriptions. Builders are pure: same table and parameters, same spec; a
// builder whose required columns are absent returns nil.
package charts

import "time"

// Limits bound rendering sample sizes. They exist purely to keep browser and
// PNG rendering fast; correctness never depends on them.
type Limits struct {
	// ScatterSample caps scatter/bubble point counts.
	ScatterSample int
	// SeriesSample caps time-series row counts.
	SeriesSample int
}

func DefaultLimits() Limits {
	return Limits{ScatterSample: 2000, SeriesSample: 10000}
}

// Spec is a chart description the dashboard front end (or the PNG renderer)
// turns into a figure. Exactly one of Series, Matrix, Polar or Points is
// populated, according to Kind.
type Spec struct {
	Kind   string `json:"kind"`
	Title  string `json:"title"`
	XLabel string `json:"x_label,omitempty"`
	YLabel string `json:"y_label,omitempty"`

	Series []Series   `json:"series,omitempty"`
	Matrix *Matrix    `json:"matrix,omitempty"`
	Polar  []PolarBin `json:"polar,omitempty"`
	Points []Point    `json:"points,omitempty"`
}

// Series is one named sequence: labels and values line up pairwise for bar
// and line charts; box and histogram series carry raw values only.
type Series struct {
	Name   string    `json:"name"`
	Labels []string  `json:"labels,omitempty"`
	Values []float64 `json:"values"`
	Color  string    `json:"color,omitempty"`

	// times backs the PNG renderer for time series; the JSON spec carries
	// the formatted labels instead.
	times []time.Time
}

// Matrix is a square correlation matrix with its axis labels.
type Matrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// PolarBin is one wind-rose sector.
type PolarBin struct {
	Sector    string  `json:"sector"`
	MeanSpeed float64 `json:"mean_speed"`
	Count     int     `json:"count"`
}

// Point is one scatter/bubble marker. Size and Color carry the optional
// encodings; NaN means unencoded.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size,omitempty"`
	Color float64 `json:"color,omitempty"`
	Label string  `json:"label,omitempty"`
}

// Chart kinds understood by the API layer.
const (
	KindBox            = "box"
	KindBar            = "bar"
	KindTimeSeries     = "timeseries"
	KindHeatmap        = "heatmap"
	KindHistogram      = "histogram"
	KindWindRose       = "windrose"
	KindBubble         = "bubble"
	KindScatter        = "scatter"
	KindCleaningImpact = "cleaning-impact"
)

// countryColors matches the dashboard's fixed palette; extra countries wrap.
var countryColors = []string{"#FF6B6B", "#4ECDC4", "#45B7D1", "#FFD166", "#9B5DE5"}

func colorFor(i int) string { return countryColors[i%len(countryColors)] }
