package dataset

import (
	"math"
	"time"
)

// Metric columns that selectors operate on.
const (
	ColGHI       = "GHI"
	ColDNI       = "DNI"
	ColDHI       = "DHI"
	ColTamb      = "Tamb"
	ColRH        = "RH"
	ColWS        = "WS"
	ColWSgust    = "WSgust"
	ColWD        = "WD"
	ColModA      = "ModA"
	ColModB      = "ModB"
	ColTModA     = "TModA"
	ColTModB     = "TModB"
	ColCleaning  = "Cleaning"
	ColTimestamp = "Timestamp"
)

// Table is a timestamp-indexed set of numeric columns with a per-row country
// label. Missing values are NaN. Tables are built once and treated as
// immutable; derived stages copy into a new Table.
type Table struct {
	Times     []time.Time
	Countries []string
	Outliers  []bool // nil until the outlier stage runs

	order []string
	cols  map[string][]float64
}

func NewTable(n int) *Table {
	return &Table{
		Times:     make([]time.Time, 0, n),
		Countries: make([]string, 0, n),
		cols:      make(map[string][]float64),
	}
}

func (t *Table) Len() int { return len(t.Times) }

// Columns returns column names in their original CSV order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Column returns the backing slice for a column. Callers must not mutate it.
func (t *Table) Column(name string) ([]float64, bool) {
	vals, ok := t.cols[name]
	return vals, ok
}

// AddColumn appends a column. A column of the same name is replaced in place,
// keeping its original position.
func (t *Table) AddColumn(name string, vals []float64) {
	if _, ok := t.cols[name]; !ok {
		t.order = append(t.order, name)
	}
	t.cols[name] = vals
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	c := &Table{
		Times:     append([]time.Time(nil), t.Times...),
		Countries: append([]string(nil), t.Countries...),
		order:     append([]string(nil), t.order...),
		cols:      make(map[string][]float64, len(t.cols)),
	}
	if t.Outliers != nil {
		c.Outliers = append([]bool(nil), t.Outliers...)
	}
	for name, vals := range t.cols {
		c.cols[name] = append([]float64(nil), vals...)
	}
	return c
}

// Filter returns a new table containing the rows for which keep returns true.
// Row order is preserved.
func (t *Table) Filter(keep func(row int) bool) *Table {
	f := &Table{
		order: append([]string(nil), t.order...),
		cols:  make(map[string][]float64, len(t.cols)),
	}
	var rows []int
	for i := 0; i < t.Len(); i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	f.Times = make([]time.Time, len(rows))
	f.Countries = make([]string, len(rows))
	if t.Outliers != nil {
		f.Outliers = make([]bool, len(rows))
	}
	for j, i := range rows {
		f.Times[j] = t.Times[i]
		f.Countries[j] = t.Countries[i]
		if t.Outliers != nil {
			f.Outliers[j] = t.Outliers[i]
		}
	}
	for name, vals := range t.cols {
		sel := make([]float64, len(rows))
		for j, i := range rows {
			sel[j] = vals[i]
		}
		f.cols[name] = sel
	}
	return f
}

// FilterCountries keeps rows whose country label is in the given set. An
// empty set keeps everything.
func (t *Table) FilterCountries(countries []string) *Table {
	if len(countries) == 0 {
		return t
	}
	want := make(map[string]bool, len(countries))
	for _, c := range countries {
		want[c] = true
	}
	return t.Filter(func(i int) bool { return want[t.Countries[i]] })
}

// Daytime returns the subset of rows where GHI exceeds the threshold. If the
// GHI column is absent the result is empty.
func (t *Table) Daytime(threshold float64) *Table {
	ghi, ok := t.Column(ColGHI)
	if !ok {
		return t.Filter(func(int) bool { return false })
	}
	return t.Filter(func(i int) bool { return ghi[i] > threshold })
}

// CountryList returns the distinct country labels in first-seen order.
func (t *Table) CountryList() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range t.Countries {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Combine concatenates tables row-wise. The column set is the union of all
// inputs; a table missing a column contributes NaN for its rows.
func Combine(tables ...*Table) *Table {
	total := 0
	for _, t := range tables {
		total += t.Len()
	}
	out := NewTable(total)
	hasOutliers := false
	for _, t := range tables {
		if t.Outliers != nil {
			hasOutliers = true
		}
		for _, name := range t.order {
			if !out.HasColumn(name) {
				out.AddColumn(name, nil)
			}
		}
	}
	if hasOutliers {
		out.Outliers = make([]bool, 0, total)
	}
	for _, t := range tables {
		out.Times = append(out.Times, t.Times...)
		out.Countries = append(out.Countries, t.Countries...)
		if hasOutliers {
			for i := 0; i < t.Len(); i++ {
				flag := false
				if t.Outliers != nil {
					flag = t.Outliers[i]
				}
				out.Outliers = append(out.Outliers, flag)
			}
		}
		for _, name := range out.order {
			vals, ok := t.Column(name)
			if ok {
				out.cols[name] = append(out.cols[name], vals...)
				continue
			}
			for i := 0; i < t.Len(); i++ {
				out.cols[name] = append(out.cols[name], math.NaN())
			}
		}
	}
	return out
}
