package charts

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// seriesPalette mirrors countryColors for the PNG renderer.
var seriesPalette = []drawing.Color{
	{R: 0xFF, G: 0x6B, B: 0x6B, A: 0xFF},
	{R: 0x4E, G: 0xCD, B: 0xC4, A: 0xFF},
	{R: 0x45, G: 0xB7, B: 0xD1, A: 0xFF},
	{R: 0xFF, G: 0xD1, B: 0x66, A: 0xFF},
	{R: 0x9B, G: 0x5D, B: 0xE5, A: 0xFF},
}

func paletteColor(i int) drawing.Color { return seriesPalette[i%len(seriesPalette)] }

// RenderPNG rasterizes a spec. Time series, bar, histogram and scatter kinds
// are supported; box, heatmap, wind rose and bubble are browser-only and
// return an error.
func RenderPNG(spec *Spec) ([]byte, error) {
	if spec == nil {
		return nil, fmt.Errorf("charts: nil spec")
	}
	switch spec.Kind {
	case KindTimeSeries:
		return renderTimeSeries(spec)
	case KindBar, KindHistogram, KindCleaningImpact:
		return renderBars(spec)
	case KindScatter:
		return renderScatter(spec)
	default:
		return nil, fmt.Errorf("charts: no PNG renderer for kind %q", spec.Kind)
	}
}

func renderTimeSeries(spec *Spec) ([]byte, error) {
	var series []chart.Series
	for i, s := range spec.Series {
		if len(s.times) == 0 {
			continue
		}
		style := chart.Style{StrokeColor: paletteColor(i), StrokeWidth: 1.5}
		series = append(series, chart.TimeSeries{
			Name:    s.Name,
			XValues: s.times,
			YValues: s.Values,
			Style:   style,
		})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("charts: %s: no drawable series", spec.Kind)
	}
	ch := chart.Chart{
		Title:      spec.Title,
		Width:      900,
		Height:     450,
		Background: chart.Style{Padding: chart.Box{Top: 30, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: spec.XLabel},
		YAxis:      chart.YAxis{Name: spec.YLabel},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return renderToPNG(&ch)
}

func renderBars(spec *Spec) ([]byte, error) {
	if len(spec.Series) == 0 {
		return nil, fmt.Errorf("charts: %s: no drawable series", spec.Kind)
	}
	s := spec.Series[0]
	if len(s.Values) == 0 {
		return nil, fmt.Errorf("charts: %s: empty series", spec.Kind)
	}
	bars := make([]chart.Value, len(s.Values))
	for i, v := range s.Values {
		label := ""
		if i < len(s.Labels) {
			label = s.Labels[i]
		}
		bars[i] = chart.Value{Value: v, Label: label, Style: chart.Style{FillColor: paletteColor(i), StrokeColor: paletteColor(i)}}
	}
	bc := chart.BarChart{
		Title:      spec.Title,
		Width:      900,
		Height:     450,
		BarWidth:   barWidth(len(bars)),
		Background: chart.Style{Padding: chart.Box{Top: 30}},
		Bars:       bars,
	}
	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("charts: render %s: %w", spec.Kind, err)
	}
	return buf.Bytes(), nil
}

func barWidth(n int) int {
	if n <= 0 {
		return 40
	}
	w := 700 / n
	if w > 80 {
		return 80
	}
	if w < 4 {
		return 4
	}
	return w
}

func renderScatter(spec *Spec) ([]byte, error) {
	if len(spec.Points) == 0 {
		return nil, fmt.Errorf("charts: %s: no points", spec.Kind)
	}
	xs := make([]float64, len(spec.Points))
	ys := make([]float64, len(spec.Points))
	for i, p := range spec.Points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	dots := chart.ContinuousSeries{
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    2,
			DotColor:    paletteColor(2),
		},
	}
	ch := chart.Chart{
		Title:      spec.Title,
		Width:      900,
		Height:     450,
		Background: chart.Style{Padding: chart.Box{Top: 30, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: spec.XLabel},
		YAxis:      chart.YAxis{Name: spec.YLabel},
		Series:     []chart.Series{dots},
	}
	return renderToPNG(&ch)
}

func renderToPNG(ch *chart.Chart) ([]byte, error) {
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("charts: render: %w", err)
	}
	return buf.Bytes(), nil
}
