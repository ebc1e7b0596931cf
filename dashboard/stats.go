package dashboard

import (
	"sort"
	"sync"
	"time"
)

const historySize = 100

// TimeWindow aggregates refreshes over a rolling period
type TimeWindow struct {
	Duration  time.Duration
	Refreshes int64
	Failures  int64
	Errors    int64
	StartTime time.Time
}

// RefreshEntry is one table refresh
type RefreshEntry struct {
	Timestamp time.Time
	Duration  time.Duration
	Rows      int
	Failures  int
	Err       string
}

// TableStats tracks refreshes of a single table
type TableStats struct {
	mu           sync.RWMutex
	Refreshes    int64
	Errors       int64
	Failures     int64
	Rows         int
	LastRefresh  time.Time
	LastDuration time.Duration
	Windows      map[time.Duration]*TimeWindow // 1h and 24h
	History      []RefreshEntry
}

// NewTableStats creates a table statistics tracker
func NewTableStats() *TableStats {
	now := time.Now()
	return &TableStats{
		Windows: map[time.Duration]*TimeWindow{
			time.Hour:      {Duration: time.Hour, StartTime: now},
			24 * time.Hour: {Duration: 24 * time.Hour, StartTime: now},
		},
		History: make([]RefreshEntry, 0, historySize),
	}
}

// Record adds a finished refresh. failures counts skipped batches; err is
// set when the whole refresh failed.
func (ts *TableStats) Record(rows, failures int, took time.Duration, err error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := time.Now()
	ts.Refreshes++
	ts.Failures += int64(failures)
	ts.LastRefresh = now
	ts.LastDuration = took
	entry := RefreshEntry{Timestamp: now, Duration: took, Rows: rows, Failures: failures}
	if err != nil {
		ts.Errors++
		entry.Err = err.Error()
	} else {
		ts.Rows = rows
	}

	ts.History = append(ts.History, entry)
	if len(ts.History) > historySize {
		ts.History = ts.History[1:]
	}

	for _, window := range ts.Windows {
		if now.Sub(window.StartTime) > window.Duration {
			window.StartTime = now
			window.Refreshes = 0
			window.Failures = 0
			window.Errors = 0
		}
		window.Refreshes++
		window.Failures += int64(failures)
		if err != nil {
			window.Errors++
		}
	}
}

// GetStats returns the table statistics
func (ts *TableStats) GetStats() map[string]interface{} {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	stats := map[string]interface{}{
		"refreshes":     ts.Refreshes,
		"errors":        ts.Errors,
		"failures":      ts.Failures,
		"rows":          ts.Rows,
		"last_refresh":  ts.LastRefresh,
		"last_duration": ts.LastDuration.String(),
	}

	windows := make(map[string]interface{})
	for duration, window := range ts.Windows {
		windows[duration.String()] = map[string]interface{}{
			"refreshes": window.Refreshes,
			"failures":  window.Failures,
			"errors":    window.Errors,
		}
	}
	stats["windows"] = windows

	recent := make([]map[string]interface{}, 0, 10)
	for i := len(ts.History) - 1; i >= 0 && len(recent) < 10; i-- {
		entry := ts.History[i]
		item := map[string]interface{}{
			"timestamp": entry.Timestamp,
			"duration":  entry.Duration.String(),
			"rows":      entry.Rows,
			"failures":  entry.Failures,
		}
		if entry.Err != "" {
			item["error"] = entry.Err
		}
		recent = append(recent, item)
	}
	stats["recent"] = recent

	return stats
}

// RefreshStats tracks refreshes of every table
type RefreshStats struct {
	mu     sync.RWMutex
	tables map[string]*TableStats
}

// NewRefreshStats creates an empty tracker
func NewRefreshStats() *RefreshStats {
	return &RefreshStats{tables: make(map[string]*TableStats)}
}

// Table returns the tracker of a table, creating it on first use
func (rs *RefreshStats) Table(name string) *TableStats {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if ts, ok := rs.tables[name]; ok {
		return ts
	}
	ts := NewTableStats()
	rs.tables[name] = ts
	return ts
}

// GetStats returns statistics of every table by name
func (rs *RefreshStats) GetStats() map[string]interface{} {
	rs.mu.RLock()
	names := make([]string, 0, len(rs.tables))
	for name := range rs.tables {
		names = append(names, name)
	}
	rs.mu.RUnlock()
	sort.Strings(names)

	stats := make(map[string]interface{}, len(names))
	for _, name := range names {
		stats[name] = rs.Table(name).GetStats()
	}
	return stats
}
