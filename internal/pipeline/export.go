package pipeline

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/kodjo/solarscope/internal/dataset"
)

// Export writes the site's cleaned, outlier-flagged table to its fixed
// per-site path under the data directory and returns that path. Missing
// values are written as empty cells.
func (p *Pipeline) Export(country string) (string, error) {
	site, ok := p.Site(country)
	if !ok {
		return "", fmt.Errorf("%w: unknown site %q", dataset.ErrNotFound, country)
	}
	t, _, _, err := p.Cleaned(country)
	if err != nil {
		return "", err
	}

	path := site.ExportPath(p.cfg.DataDir)
	if err := os.MkdirAll(p.cfg.DataDir, 0o755); err != nil {
		return "", fmt.Errorf("export %s: %w", country, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export %s: %w", country, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	cols := t.Columns()
	header := append([]string{dataset.ColTimestamp}, cols...)
	header = append(header, "is_outlier")
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("export %s: %w", country, err)
	}

	row := make([]string, len(header))
	for i := 0; i < t.Len(); i++ {
		row[0] = t.Times[i].Format("2006-01-02 15:04")
		for j, name := range cols {
			vals, _ := t.Column(name)
			if math.IsNaN(vals[i]) {
				row[j+1] = ""
			} else {
				row[j+1] = strconv.FormatFloat(vals[i], 'g', -1, 64)
			}
		}
		flag := false
		if t.Outliers != nil {
			flag = t.Outliers[i]
		}
		row[len(row)-1] = strconv.FormatBool(flag)
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("export %s: %w", country, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("export %s: %w", country, err)
	}
	return path, nil
}
