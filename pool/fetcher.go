package pool

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/alexandrut83/alerimpool/clarity"
)

// DefaultBatchSize matches the (list 100 principal) bound of the contract's
// data functions. A list of N principals then costs ceil(N/100) data calls;
// BatchSize 1 issues exactly N single-element calls instead, one per
// principal in list order.
const DefaultBatchSize = 100

// Policy decides what a failed batch does to the rest of a fetch.
type Policy int

const (
	// BestEffort records the failure and continues with the next batch.
	BestEffort Policy = iota
	// FailFast stops at the first failed batch.
	FailFast
)

// ParsePolicy accepts "best-effort" and "fail-fast". Empty selects BestEffort.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "best-effort", "besteffort":
		return BestEffort, nil
	case "fail-fast", "failfast":
		return FailFast, nil
	}
	return BestEffort, fmt.Errorf("unknown fetch policy %q", s)
}

func (p Policy) String() string {
	if p == FailFast {
		return "fail-fast"
	}
	return "best-effort"
}

// FetchOptions tunes a Fetcher. Zero values select the defaults.
type FetchOptions struct {
	BatchSize   int
	Policy      Policy
	Concurrency int
}

// Failure is a batch whose data call failed.
type Failure struct {
	Function   string
	Principals []string
	Err        error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s [%s]: %v", f.Function, strings.Join(f.Principals, " "), f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Result is the ordered output of a list fetch.
type Result struct {
	Items    []clarity.Value
	Failures []*Failure
}

// Err aggregates the recorded failures, or returns nil when there are none.
func (r *Result) Err() error {
	var merr *multierror.Error
	for _, f := range r.Failures {
		merr = multierror.Append(merr, f)
	}
	return merr.ErrorOrNil()
}

// ListQuery pairs a list-returning function with the data function that
// takes batches of that list.
type ListQuery struct {
	Name         string
	ListFunction string
	DataFunction string
}

// The list fetches the dashboard knows about.
var (
	WaitingMiners  = ListQuery{"waiting", "get-waiting-list", "get-all-data-waiting-miners"}
	RemovalMiners  = ListQuery{"removals", "get-proposed-removal-list", "get-all-data-miners-proposed-for-removal"}
	PendingMiners  = ListQuery{"pending", "get-pending-accept-list", "get-all-data-miners-pending-accept"}
	PoolMiners     = ListQuery{"miners", "get-miners-list", "get-all-data-miners-in-pool"}
	MinerBalances  = ListQuery{"balances", "get-miners-list", "get-all-data-balance-miners"}
	NotifierVoters = ListQuery{"voters", "get-miners-list", "get-all-data-notifier-voter-miners"}
)

// ListQueries is every known list fetch in display order.
var ListQueries = []ListQuery{PoolMiners, WaitingMiners, RemovalMiners, PendingMiners, MinerBalances, NotifierVoters}

// LookupListQuery finds a list fetch by name.
func LookupListQuery(name string) (ListQuery, bool) {
	for _, q := range ListQueries {
		if q.Name == name {
			return q, true
		}
	}
	return ListQuery{}, false
}

// Fetcher expands list results into per-principal data records.
type Fetcher struct {
	d    *Dispatcher
	opts FetchOptions
}

// NewFetcher creates a fetcher over d.
func NewFetcher(d *Dispatcher, opts FetchOptions) *Fetcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Fetcher{d: d, opts: opts}
}

// Options returns the effective options.
func (f *Fetcher) Options() FetchOptions { return f.opts }

// Fetch reads q's list and then its data in batches.
func (f *Fetcher) Fetch(ctx context.Context, q ListQuery) (*Result, error) {
	list, err := f.d.ReadOnly(ctx, q.ListFunction)
	if err != nil {
		return nil, err
	}
	return f.FetchAll(ctx, list, q.DataFunction)
}

// FetchAll calls function once per batch of list, each time with a single
// argument holding the batch. Results are unwrapped and flattened in list
// order: a list result contributes its elements, anything else itself.
func (f *Fetcher) FetchAll(ctx context.Context, list clarity.Value, function string) (*Result, error) {
	principals, err := clarity.AsList(list)
	if err != nil {
		return nil, err
	}
	size := f.opts.BatchSize
	batches := (len(principals) + size - 1) / size
	items := make([][]clarity.Value, batches)
	failures := make([]*Failure, batches)

	var g *errgroup.Group
	gctx := ctx
	if f.opts.Policy == FailFast {
		g, gctx = errgroup.WithContext(ctx)
	} else {
		g = new(errgroup.Group)
	}
	g.SetLimit(f.opts.Concurrency)

	for i := 0; i < batches; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			batch, err := clarity.ListSlice(principals, i*size, (i+1)*size)
			if err != nil {
				return err
			}
			out, err := f.fetchBatch(gctx, function, batch)
			if err == nil {
				items[i] = out
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fetchFailures.WithLabelValues(function).Inc()
			failure := &Failure{Function: function, Principals: addresses(batch), Err: err}
			if f.opts.Policy == FailFast {
				return failure
			}
			logger.Warnf("skipping failed batch: %v", failure)
			failures[i] = failure
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{}
	for i := range items {
		res.Items = append(res.Items, items[i]...)
		if failures[i] != nil {
			res.Failures = append(res.Failures, failures[i])
		}
	}
	return res, nil
}

func (f *Fetcher) fetchBatch(ctx context.Context, function string, batch clarity.List) ([]clarity.Value, error) {
	value, err := f.d.ReadOnly(ctx, function, batch)
	if err != nil {
		return nil, err
	}
	if e, ok := value.(clarity.ResponseErr); ok {
		return nil, fmt.Errorf("contract error %s", clarity.Display(e.Value))
	}
	switch v := clarity.Unwrap(value).(type) {
	case nil:
		return nil, nil
	case clarity.List:
		return v, nil
	default:
		return []clarity.Value{v}, nil
	}
}

func addresses(list clarity.List) []string {
	out := make([]string, len(list))
	for i, v := range list {
		out[i] = clarity.Display(v)
	}
	return out
}
