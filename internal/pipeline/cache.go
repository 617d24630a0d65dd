package pipeline

import (
	"sync"

	"github.com/kodjo/solarscope/internal/cleaning"
	"github.com/kodjo/solarscope/internal/dataset"
	"github.com/kodjo/solarscope/internal/outliers"
)

// Entry is one memoized stage output: the derived table plus the reports
// produced alongside it. Raw-stage entries carry zero-valued reports.
type Entry struct {
	Table    *dataset.Table
	Cleaning cleaning.Report
	Outliers outliers.Report
}

// Cache memoizes pipeline stages. Keys encode the stage, site and the input
// file's identity (path + mtime), so an edited file is never served stale.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(key string) (*Entry, bool)
	Set(key string, e *Entry)
}

// MemoryCache is the default in-process Cache.
type MemoryCache struct {
	mu sync.Mutex
	m  map[string]*Entry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string]*Entry)}
}

func (c *MemoryCache) Get(key string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	return e, ok
}

func (c *MemoryCache) Set(key string, e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = e
}

// Len reports how many entries the cache holds.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
