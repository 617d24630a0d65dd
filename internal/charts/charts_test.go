package charts_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/kodjo/solarscope/internal/charts"
	"github.com/kodjo/solarscope/internal/dataset"
)

func newTable(t *testing.T, country string, cols map[string][]float64) *dataset.Table {
	t.Helper()
	n := 0
	for _, vals := range cols {
		n = len(vals)
		break
	}
	tbl := dataset.NewTable(n)
	base := time.Date(2021, 8, 9, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		tbl.Times = append(tbl.Times, base.Add(time.Duration(i)*time.Minute))
		tbl.Countries = append(tbl.Countries, country)
	}
	for _, name := range []string{
		dataset.ColGHI, dataset.ColDNI, dataset.ColTamb, dataset.ColRH,
		dataset.ColWS, dataset.ColWD, dataset.ColModA, dataset.ColModB,
		dataset.ColCleaning,
	} {
		if vals, ok := cols[name]; ok {
			tbl.AddColumn(name, vals)
		}
	}
	return tbl
}

func TestSectorIndex(t *testing.T) {
	t.Parallel()
	tests := []struct {
		deg  float64
		want string
	}{
		{0, "N"},
		{44.9, "N"},
		{45, "NE"},
		{90, "E"},
		{180, "S"},
		{315, "NW"},
		{359.9, "NW"},
		{360, "N"},
		{405, "NE"},
		{-45, "NW"},
		{-1, "NW"},
	}
	for _, tt := range tests {
		if got := charts.SectorName(tt.deg); got != tt.want {
			t.Errorf("SectorName(%v) = %q, want %q", tt.deg, got, tt.want)
		}
	}
}

func TestWindRose(t *testing.T) {
	t.Parallel()
	tbl := newTable(t, "Benin", map[string][]float64{
		dataset.ColWD: {0, 10, 50, 200, math.NaN()},
		dataset.ColWS: {2, 4, 6, 8, 10},
	})

	spec := charts.WindRose(tbl)
	if spec == nil {
		t.Fatal("spec is nil with WD and WS present")
	}
	if len(spec.Polar) != 8 {
		t.Fatalf("got %d sectors, want 8", len(spec.Polar))
	}

	byName := make(map[string]charts.PolarBin)
	for _, b := range spec.Polar {
		byName[b.Sector] = b
	}
	if n := byName["N"]; n.Count != 2 || n.MeanSpeed != 3 {
		t.Errorf("N = %+v, want count 2 mean 3", n)
	}
	if ne := byName["NE"]; ne.Count != 1 || ne.MeanSpeed != 6 {
		t.Errorf("NE = %+v, want count 1 mean 6", ne)
	}
	if s := byName["S"]; s.Count != 1 || s.MeanSpeed != 8 {
		t.Errorf("S = %+v, want count 1 mean 8", s)
	}
	if e := byName["E"]; e.Count != 0 || e.MeanSpeed != 0 {
		t.Errorf("E = %+v, want empty sector", e)
	}
}

func TestWindRose_MissingColumns(t *testing.T) {
	t.Parallel()
	tbl := newTable(t, "Benin", map[string][]float64{
		dataset.ColWD: {0, 90},
	})
	if spec := charts.WindRose(tbl); spec != nil {
		t.Error("spec should be nil without a WS column")
	}
}

func TestBox(t *testing.T) {
	t.Parallel()
	tbl := dataset.Combine(
		newTable(t, "Benin", map[string][]float64{dataset.ColGHI: {1, 2, math.NaN()}}),
		newTable(t, "Togo", map[string][]float64{dataset.ColGHI: {3, 4}}),
	)

	spec := charts.Box(tbl, dataset.ColGHI)
	if spec == nil {
		t.Fatal("spec is nil")
	}
	if len(spec.Series) != 2 {
		t.Fatalf("got %d series, want 2", len(spec.Series))
	}
	if spec.Series[0].Name != "Benin" || len(spec.Series[0].Values) != 2 {
		t.Errorf("series[0] = %s with %d values, want Benin with 2 (NaN dropped)",
			spec.Series[0].Name, len(spec.Series[0].Values))
	}

	if charts.Box(tbl, "Missing") != nil {
		t.Error("absent metric should yield nil")
	}
}

func TestRankedBar(t *testing.T) {
	t.Parallel()
	tbl := dataset.Combine(
		newTable(t, "A", map[string][]float64{dataset.ColGHI: {200}}),
		newTable(t, "B", map[string][]float64{dataset.ColGHI: {150}}),
		newTable(t, "C", map[string][]float64{dataset.ColGHI: {250}}),
	)

	spec := charts.RankedBar(tbl, dataset.ColGHI, 2)
	if spec == nil {
		t.Fatal("spec is nil")
	}
	s := spec.Series[0]
	if len(s.Labels) != 2 || s.Labels[0] != "C" || s.Labels[1] != "A" {
		t.Errorf("labels = %v, want [C A]", s.Labels)
	}
	if s.Values[0] != 250 {
		t.Errorf("values[0] = %v, want 250", s.Values[0])
	}
}

func TestTimeSeries_DailyResample(t *testing.T) {
	t.Parallel()
	tbl := dataset.NewTable(4)
	tbl.Times = []time.Time{
		time.Date(2021, 8, 9, 6, 0, 0, 0, time.UTC),
		time.Date(2021, 8, 9, 12, 0, 0, 0, time.UTC),
		time.Date(2021, 8, 10, 12, 0, 0, 0, time.UTC),
		time.Date(2021, 8, 10, 13, 0, 0, 0, time.UTC),
	}
	tbl.Countries = []string{"Benin", "Benin", "Benin", "Benin"}
	tbl.AddColumn(dataset.ColGHI, []float64{100, 300, math.NaN(), 500})

	spec := charts.TimeSeries(tbl, dataset.ColGHI, charts.DefaultLimits())
	if spec == nil {
		t.Fatal("spec is nil")
	}
	s := spec.Series[0]
	if len(s.Values) != 2 {
		t.Fatalf("got %d points, want 2 daily means", len(s.Values))
	}
	if s.Labels[0] != "2021-08-09" || s.Values[0] != 200 {
		t.Errorf("day 1 = %s/%v, want 2021-08-09/200", s.Labels[0], s.Values[0])
	}
	if s.Labels[1] != "2021-08-10" || s.Values[1] != 500 {
		t.Errorf("day 2 = %s/%v, want 2021-08-10/500 (NaN ignored)", s.Labels[1], s.Values[1])
	}
}

func TestHistogram(t *testing.T) {
	t.Parallel()
	tbl := newTable(t, "Benin", map[string][]float64{
		dataset.ColGHI: {0, 1, 2, 3, 4, 5, 6, 7, 8, 10},
	})

	spec := charts.Histogram(tbl, dataset.ColGHI, 5)
	if spec == nil {
		t.Fatal("spec is nil")
	}
	s := spec.Series[0]
	if len(s.Values) != 5 {
		t.Fatalf("got %d bins, want 5", len(s.Values))
	}
	total := 0.0
	for _, c := range s.Values {
		total += c
	}
	if total != 10 {
		t.Errorf("bin counts sum to %v, want 10", total)
	}

	if charts.Histogram(tbl, dataset.ColGHI, 0) != nil {
		t.Error("zero bins should yield nil")
	}
}

func TestScatter_SampleCap(t *testing.T) {
	t.Parallel()
	n := 50
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
		ys[i] = float64(i * 2)
	}
	tbl := newTable(t, "Benin", map[string][]float64{
		dataset.ColTamb: xs,
		dataset.ColRH:   ys,
	})

	lim := charts.Limits{ScatterSample: 10, SeriesSample: 10000}
	rng := rand.New(rand.NewSource(1))
	spec := charts.Scatter(tbl, dataset.ColTamb, dataset.ColRH, lim, rng)
	if spec == nil {
		t.Fatal("spec is nil")
	}
	if len(spec.Points) != 10 {
		t.Fatalf("got %d points, want capped 10", len(spec.Points))
	}
	// Sampled points keep ascending time order.
	for i := 1; i < len(spec.Points); i++ {
		if spec.Points[i].X <= spec.Points[i-1].X {
			t.Fatalf("points out of order at %d: %v then %v", i, spec.Points[i-1].X, spec.Points[i].X)
		}
	}

	if charts.Scatter(tbl, "Missing", dataset.ColRH, lim, rng) != nil {
		t.Error("absent x column should yield nil")
	}
}

func TestBubble(t *testing.T) {
	t.Parallel()
	tbl := newTable(t, "Benin", map[string][]float64{
		dataset.ColGHI:  {100, 200, 300},
		dataset.ColTamb: {25, 30, 35},
		dataset.ColRH:   {40, 50, math.NaN()},
	})

	spec := charts.Bubble(tbl, charts.DefaultLimits(), rand.New(rand.NewSource(1)))
	if spec == nil {
		t.Fatal("spec is nil")
	}
	if spec.Kind != charts.KindBubble {
		t.Errorf("Kind = %q, want bubble", spec.Kind)
	}
	if len(spec.Points) != 3 {
		t.Fatalf("got %d points, want 3", len(spec.Points))
	}
	if spec.Points[0].Size != 40 {
		t.Errorf("points[0].Size = %v, want 40", spec.Points[0].Size)
	}
	if spec.Points[2].Size != 0 {
		t.Errorf("points[2].Size = %v, want 0 when RH is missing", spec.Points[2].Size)
	}
}

func TestCleaningImpact(t *testing.T) {
	t.Parallel()
	tbl := newTable(t, "Benin", map[string][]float64{
		dataset.ColCleaning: {0, 0, 1, 1},
		dataset.ColModA:     {10, 20, 100, 200},
		dataset.ColModB:     {30, 40, 300, math.NaN()},
	})

	spec := charts.CleaningImpact(tbl)
	if spec == nil {
		t.Fatal("spec is nil")
	}
	if len(spec.Series) != 2 {
		t.Fatalf("got %d series, want ModA and ModB", len(spec.Series))
	}
	modA := spec.Series[0]
	if modA.Labels[0] != "0" || modA.Labels[1] != "1" {
		t.Errorf("labels = %v, want [0 1]", modA.Labels)
	}
	if modA.Values[0] != 15 || modA.Values[1] != 150 {
		t.Errorf("ModA means = %v, want [15 150]", modA.Values)
	}
	modB := spec.Series[1]
	if modB.Values[1] != 300 {
		t.Errorf("ModB flagged mean = %v, want 300 (NaN ignored)", modB.Values[1])
	}

	noFlag := newTable(t, "Benin", map[string][]float64{dataset.ColModA: {1}})
	if charts.CleaningImpact(noFlag) != nil {
		t.Error("missing Cleaning column should yield nil")
	}
}

func TestRenderPNG(t *testing.T) {
	t.Parallel()
	tbl := dataset.Combine(
		newTable(t, "A", map[string][]float64{dataset.ColGHI: {200, 210}}),
		newTable(t, "B", map[string][]float64{dataset.ColGHI: {150, 160}}),
	)

	spec := charts.RankedBar(tbl, dataset.ColGHI, 2)
	png, err := charts.RenderPNG(spec)
	if err != nil {
		t.Fatal(err)
	}
	if len(png) == 0 {
		t.Fatal("empty PNG")
	}
	// PNG signature.
	if png[0] != 0x89 || string(png[1:4]) != "PNG" {
		t.Errorf("output does not start with a PNG header: % x", png[:4])
	}

	box := charts.Box(tbl, dataset.ColGHI)
	if _, err := charts.RenderPNG(box); err == nil {
		t.Error("box charts have no PNG renderer and should error")
	}
}
