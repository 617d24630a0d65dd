// Package cleaning applies the fixed imputation/drop recipe that every
// analysis stage downstream relies on: weather columns are filled with their
// own median, and daytime rows missing key irradiance fields are removed.
package cleaning

import (
	"math"
	"sort"

	"github.com/kodjo/solarscope/internal/dataset"
)

// Config carries the cleaning policy. Thresholds are explicit so the policy
// can be exercised with alternates in tests.
type Config struct {
	// ImputeColumns are filled with their per-column median. Columns absent
	// from the table are silently skipped.
	ImputeColumns []string
	// DaytimeGHIThreshold separates daytime rows (GHI above it) from
	// night-time noise, in W/m².
	DaytimeGHIThreshold float64
}

func DefaultConfig() Config {
	return Config{
		ImputeColumns: []string{
			dataset.ColTamb, dataset.ColRH, dataset.ColWS, dataset.ColWSgust,
			"WSstdev", dataset.ColWD, "WDstdev", "BP",
			dataset.ColTModA, dataset.ColTModB,
		},
		DaytimeGHIThreshold: 5,
	}
}

// Report describes what a Clean pass did.
type Report struct {
	Imputed     map[string]int     // column -> values filled
	Medians     map[string]float64 // column -> fill value used
	RowsDropped int
	RowsKept    int
}

// Clean produces a new table via two sequential policies:
//
//  1. Median imputation: each listed column's missing values are replaced by
//     that column's median, computed over its own pre-imputation values.
//     Columns never see each other's fills, so processing order is
//     immaterial.
//  2. Daytime-null drop: rows where GHI exceeds the daytime threshold while
//     GHI or DNI is missing are removed. Since a missing GHI cannot compare
//     above the threshold, the rule only ever fires for rows with GHI
//     present and DNI missing; the literal form is kept deliberately.
//
// The input table is not modified.
func Clean(t *dataset.Table, cfg Config) (*dataset.Table, Report) {
	rep := Report{
		Imputed: make(map[string]int),
		Medians: make(map[string]float64),
	}

	out := t.Clone()
	for _, name := range cfg.ImputeColumns {
		vals, ok := out.Column(name)
		if !ok {
			continue
		}
		med, found := median(vals)
		if !found {
			continue // all-NaN column, nothing to fill with
		}
		filled := append([]float64(nil), vals...)
		n := 0
		for i, v := range filled {
			if math.IsNaN(v) {
				filled[i] = med
				n++
			}
		}
		out.AddColumn(name, filled)
		rep.Imputed[name] = n
		rep.Medians[name] = med
	}

	ghi, hasGHI := out.Column(dataset.ColGHI)
	dni, hasDNI := out.Column(dataset.ColDNI)
	before := out.Len()
	if hasGHI && hasDNI {
		out = out.Filter(func(i int) bool {
			drop := ghi[i] > cfg.DaytimeGHIThreshold &&
				(math.IsNaN(ghi[i]) || math.IsNaN(dni[i]))
			return !drop
		})
	}
	rep.RowsDropped = before - out.Len()
	rep.RowsKept = out.Len()
	return out, rep
}

// median returns the middle value of the non-NaN entries, false when none
// exist.
func median(vals []float64) (float64, bool) {
	clean := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return 0, false
	}
	sort.Float64s(clean)
	n := len(clean)
	if n%2 == 0 {
		return (clean[n/2-1] + clean[n/2]) / 2, true
	}
	return clean[n/2], true
}
