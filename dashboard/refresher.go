package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alexandrut83/alerimpool/log"
	"github.com/alexandrut83/alerimpool/pool"
)

var logger = log.NewLogger("dashboard")

// DefaultRefreshInterval replaces a non-positive refresh interval.
const DefaultRefreshInterval = 30 * time.Second

// Refresher keeps a snapshot of every table and re-fetches them on an
// interval.
type Refresher struct {
	mu        sync.RWMutex
	fetcher   *pool.Fetcher
	tables    []Table
	snapshots map[string]*Snapshot
	stats     *RefreshStats
	pacer     *Pacer
	listeners []func(*Snapshot)
}

// NewRefresher creates a refresher over tables paced from interval.
func NewRefresher(fetcher *pool.Fetcher, tables []Table, interval time.Duration) *Refresher {
	if interval <= 0 {
		logger.Warnf("refresh interval %v is not positive, using %v", interval, DefaultRefreshInterval)
		interval = DefaultRefreshInterval
	}
	return &Refresher{
		fetcher:   fetcher,
		tables:    tables,
		snapshots: make(map[string]*Snapshot),
		stats:     NewRefreshStats(),
		pacer:     NewPacer(DefaultPacerConfig(interval)),
	}
}

// OnUpdate registers fn to receive every new snapshot.
func (r *Refresher) OnUpdate(fn func(*Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Stats returns the refresh statistics.
func (r *Refresher) Stats() *RefreshStats { return r.stats }

// Pacer returns the interval pacer.
func (r *Refresher) Pacer() *Pacer { return r.pacer }

// Tables returns the refreshed tables.
func (r *Refresher) Tables() []Table { return r.tables }

// Snapshot returns the last snapshot of a table.
func (r *Refresher) Snapshot(name string) (*Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.snapshots[name]
	return s, ok
}

func (r *Refresher) table(name string) (Table, bool) {
	for _, t := range r.tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// RefreshTable fetches one table now and publishes its snapshot. A failed
// fetch still produces a snapshot carrying the error and the previous rows.
func (r *Refresher) RefreshTable(ctx context.Context, name string) (*Snapshot, error) {
	table, ok := r.table(name)
	if !ok {
		return nil, fmt.Errorf("unknown table %q", name)
	}

	start := time.Now()
	res, err := r.fetcher.Fetch(ctx, table.Query)
	took := time.Since(start)

	snap := &Snapshot{
		Name:      table.Name,
		Title:     table.Title,
		Columns:   table.Columns,
		UpdatedAt: time.Now(),
		Duration:  took.String(),
	}
	if err != nil {
		r.stats.Table(name).Record(0, 0, took, err)
		logger.With("table", name).Warnf("refresh failed: %v", err)
		snap.Error = err.Error()
		if prev, ok := r.Snapshot(name); ok {
			snap.Rows = prev.Rows
		}
	} else {
		snap.Rows = BuildRows(res.Items)
		if table.Decorate != nil {
			table.Decorate(snap.Rows)
		}
		for _, f := range res.Failures {
			snap.Failures = append(snap.Failures, f.Error())
		}
		r.stats.Table(name).Record(len(snap.Rows), len(res.Failures), took, nil)
	}

	r.mu.Lock()
	r.snapshots[name] = snap
	listeners := r.listeners
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
	return snap, err
}

// RefreshAll refreshes every table in order and feeds the total duration to
// the pacer.
func (r *Refresher) RefreshAll(ctx context.Context) {
	start := time.Now()
	for _, table := range r.tables {
		if ctx.Err() != nil {
			return
		}
		r.RefreshTable(ctx, table.Name) // nolint: errcheck
	}
	r.pacer.Record(time.Since(start))
}

// Run refreshes immediately and then on the paced interval until ctx ends.
func (r *Refresher) Run(ctx context.Context) {
	for {
		r.RefreshAll(ctx)
		timer := time.NewTimer(r.pacer.Interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
