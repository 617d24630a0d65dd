package dataset_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kodjo/solarscope/internal/dataset"
)

func writeCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "site.csv")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()
	path := writeCSV(t, `Timestamp,GHI,DNI,Tamb
2021-08-09 00:00,-1.2,0,26.2
2021-08-09 00:01,,0.5,
2021-08-09 00:02,3.4,1,25
`)

	tbl, err := dataset.Load(path, "Benin")
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Len() != 3 {
		t.Fatalf("Len = %d, want 3", tbl.Len())
	}
	for i, c := range tbl.Countries {
		if c != "Benin" {
			t.Errorf("Countries[%d] = %q, want Benin", i, c)
		}
	}

	want := time.Date(2021, 8, 9, 0, 1, 0, 0, time.UTC)
	if !tbl.Times[1].Equal(want) {
		t.Errorf("Times[1] = %v, want %v", tbl.Times[1], want)
	}

	ghi, ok := tbl.Column(dataset.ColGHI)
	if !ok {
		t.Fatal("GHI column missing")
	}
	if ghi[0] != -1.2 {
		t.Errorf("GHI[0] = %v, want -1.2", ghi[0])
	}
	if !math.IsNaN(ghi[1]) {
		t.Errorf("GHI[1] = %v, want NaN for blank cell", ghi[1])
	}

	tamb, _ := tbl.Column(dataset.ColTamb)
	if !math.IsNaN(tamb[1]) {
		t.Errorf("Tamb[1] = %v, want NaN", tamb[1])
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := dataset.Load(filepath.Join(t.TempDir(), "nope.csv"), "Benin")
		if !errors.Is(err, dataset.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("no timestamp column", func(t *testing.T) {
		t.Parallel()
		path := writeCSV(t, "GHI,DNI\n1,2\n")
		_, err := dataset.Load(path, "Benin")
		if !errors.Is(err, dataset.ErrParse) {
			t.Errorf("err = %v, want ErrParse", err)
		}
	})

	t.Run("bad timestamp", func(t *testing.T) {
		t.Parallel()
		path := writeCSV(t, "Timestamp,GHI\nnot-a-time,1\n")
		_, err := dataset.Load(path, "Benin")
		if !errors.Is(err, dataset.ErrParse) {
			t.Errorf("err = %v, want ErrParse", err)
		}
	})
}

func makeTable(country string, ghi []float64) *dataset.Table {
	tbl := dataset.NewTable(len(ghi))
	base := time.Date(2021, 8, 9, 0, 0, 0, 0, time.UTC)
	for i := range ghi {
		tbl.Times = append(tbl.Times, base.Add(time.Duration(i)*time.Minute))
		tbl.Countries = append(tbl.Countries, country)
	}
	tbl.AddColumn(dataset.ColGHI, ghi)
	return tbl
}

func TestCombine(t *testing.T) {
	t.Parallel()
	a := makeTable("Benin", []float64{1, 2})
	a.AddColumn(dataset.ColDNI, []float64{10, 20})
	b := makeTable("Togo", []float64{3})

	c := dataset.Combine(a, b)
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	if got := c.CountryList(); len(got) != 2 || got[0] != "Benin" || got[1] != "Togo" {
		t.Errorf("CountryList = %v, want [Benin Togo]", got)
	}

	// Togo never had DNI, so its row must come back as NaN.
	dni, ok := c.Column(dataset.ColDNI)
	if !ok {
		t.Fatal("DNI column missing from combined table")
	}
	if dni[0] != 10 || dni[1] != 20 {
		t.Errorf("DNI = %v, want [10 20 NaN]", dni)
	}
	if !math.IsNaN(dni[2]) {
		t.Errorf("DNI[2] = %v, want NaN", dni[2])
	}
}

func TestFilterCountries(t *testing.T) {
	t.Parallel()
	c := dataset.Combine(
		makeTable("Benin", []float64{1, 2}),
		makeTable("Togo", []float64{3}),
	)

	togo := c.FilterCountries([]string{"Togo"})
	if togo.Len() != 1 {
		t.Fatalf("Len = %d, want 1", togo.Len())
	}
	ghi, _ := togo.Column(dataset.ColGHI)
	if ghi[0] != 3 {
		t.Errorf("GHI = %v, want [3]", ghi)
	}

	// Empty selection keeps everything.
	if all := c.FilterCountries(nil); all.Len() != c.Len() {
		t.Errorf("empty filter Len = %d, want %d", all.Len(), c.Len())
	}
}

func TestDaytime(t *testing.T) {
	t.Parallel()
	tbl := makeTable("Benin", []float64{0, 5, 5.1, 300, math.NaN()})
	day := tbl.Daytime(5)
	if day.Len() != 2 {
		t.Fatalf("Len = %d, want 2", day.Len())
	}
	ghi, _ := day.Column(dataset.ColGHI)
	if ghi[0] != 5.1 || ghi[1] != 300 {
		t.Errorf("GHI = %v, want [5.1 300]", ghi)
	}
}

func TestAddColumnReplacesInPlace(t *testing.T) {
	t.Parallel()
	tbl := makeTable("Benin", []float64{1})
	tbl.AddColumn(dataset.ColDNI, []float64{2})
	tbl.AddColumn(dataset.ColGHI, []float64{9})

	cols := tbl.Columns()
	if len(cols) != 2 || cols[0] != dataset.ColGHI || cols[1] != dataset.ColDNI {
		t.Errorf("Columns = %v, want [GHI DNI]", cols)
	}
	ghi, _ := tbl.Column(dataset.ColGHI)
	if ghi[0] != 9 {
		t.Errorf("GHI[0] = %v, want 9", ghi[0])
	}
}

func TestSitePaths(t *testing.T) {
	t.Parallel()
	s := dataset.Site{Country: "Sierra Leone", File: "sierraleone-bumbuna.csv"}
	if got := s.Slug(); got != "sierra_leone" {
		t.Errorf("Slug = %q, want sierra_leone", got)
	}
	want := filepath.Join("data", "sierra_leone_clean.csv")
	if got := s.ExportPath("data"); got != want {
		t.Errorf("ExportPath = %q, want %q", got, want)
	}
}
