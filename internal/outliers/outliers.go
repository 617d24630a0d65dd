// Package outliers flags rows whose monitored readings sit far outside the
// column's distribution, using absolute standard scores.
package outliers

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/kodjo/solarscope/internal/dataset"
)

// Config carries the flagging policy.
type Config struct {
	// Columns are the monitored fields. Absent columns are skipped.
	Columns []string
	// ZThreshold is the absolute standard-score cutoff above which a row is
	// flagged.
	ZThreshold float64
}

func DefaultConfig() Config {
	return Config{
		Columns: []string{
			dataset.ColGHI, dataset.ColDNI, dataset.ColDHI,
			dataset.ColModA, dataset.ColModB,
			dataset.ColWS, dataset.ColWSgust,
		},
		ZThreshold: 3,
	}
}

// Report describes a Flag pass.
type Report struct {
	Flagged int
	Total   int
}

// ZScoreColumn names the appended score column for a monitored column.
func ZScoreColumn(col string) string { return col + "_zscore" }

// Flag appends one "<col>_zscore" column of absolute standard scores per
// monitored column present in the table, then marks a row as an outlier iff
// any of its scores exceeds the threshold. Missing values get NaN scores and
// never flag. The standard deviation is the population form, so a
// zero-variance column yields NaN scores throughout rather than a crash.
// With no monitored columns present every row is unflagged.
func Flag(t *dataset.Table, cfg Config) (*dataset.Table, Report) {
	out := t.Clone()
	var scoreCols [][]float64
	for _, name := range cfg.Columns {
		vals, ok := out.Column(name)
		if !ok {
			continue
		}
		scores := absZScores(vals)
		out.AddColumn(ZScoreColumn(name), scores)
		scoreCols = append(scoreCols, scores)
	}

	out.Outliers = make([]bool, out.Len())
	rep := Report{Total: out.Len()}
	for i := range out.Outliers {
		for _, scores := range scoreCols {
			if scores[i] > cfg.ZThreshold { // NaN comparisons are false
				out.Outliers[i] = true
				rep.Flagged++
				break
			}
		}
	}
	return out, rep
}

func absZScores(vals []float64) []float64 {
	clean := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	scores := make([]float64, len(vals))
	if len(clean) == 0 {
		for i := range scores {
			scores[i] = math.NaN()
		}
		return scores
	}
	mean := stat.Mean(clean, nil)
	std := stat.PopStdDev(clean, nil)
	for i, v := range vals {
		if math.IsNaN(v) || std == 0 {
			scores[i] = math.NaN()
			continue
		}
		scores[i] = math.Abs((v - mean) / std)
	}
	return scores
}
