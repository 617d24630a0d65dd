package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var (
	// ErrNotFound indicates a missing input CSV. Fatal to the analysis run.
	ErrNotFound = errors.New("dataset: file not found")
	// ErrParse indicates a malformed CSV or an unparseable Timestamp column.
	ErrParse = errors.New("dataset: parse error")
)

// Site is one measurement site: the country label attached to every row and
// the CSV file the observations come from.
type Site struct {
	Country string
	File    string
}

// Slug returns the file-safe form of the country name, used for derived
// exports ("Sierra Leone" -> "sierra_leone").
func (s Site) Slug() string {
	return strings.ReplaceAll(strings.ToLower(s.Country), " ", "_")
}

// ExportPath is where the cleaned, outlier-flagged table for this site is
// written.
func (s Site) ExportPath(dataDir string) string {
	return filepath.Join(dataDir, s.Slug()+"_clean.csv")
}

var timestampLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// Load reads a per-site CSV into a Table and attaches the country label to
// every row. The Timestamp column is parsed into time.Time and used as the
// row key; rows keep their file order. Numeric parsing goes through a gota
// DataFrame so that blank and malformed cells come back as NaN rather than
// aborting the load.
func Load(path, country string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.DefaultType(series.Float),
		dataframe.WithTypes(map[string]series.Type{ColTimestamp: series.String}),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, df.Err)
	}

	names := df.Names()
	hasTimestamp := false
	for _, n := range names {
		if n == ColTimestamp {
			hasTimestamp = true
			break
		}
	}
	if !hasTimestamp {
		return nil, fmt.Errorf("%w: %s: no Timestamp column", ErrParse, path)
	}

	raw := df.Col(ColTimestamp).Records()
	times := make([]time.Time, len(raw))
	for i, r := range raw {
		ts, err := parseTimestamp(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: %v", ErrParse, path, i+1, err)
		}
		times[i] = ts
	}

	t := NewTable(len(times))
	t.Times = times
	t.Countries = make([]string, len(times))
	for i := range t.Countries {
		t.Countries[i] = country
	}
	for _, name := range names {
		if name == ColTimestamp {
			continue
		}
		t.AddColumn(name, df.Col(name).Float())
	}
	return t, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
