package accountstats

import (
	"context"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// AggregatorOptions tune how the aggregator queries the backend
type AggregatorOptions struct {
	// Filter is appended verbatim to every selector
	Filter string
	// Step is the range-query resolution
	Step time.Duration
	// Timeout bounds each backend query
	Timeout time.Duration
	// MaxWindow rejects longer windows when positive
	MaxWindow time.Duration
}

// Aggregator executes query plans and folds their results into chart payloads.
// It keeps no state between requests.
type Aggregator struct {
	backend Backend
	opts    AggregatorOptions
}

func NewAggregator(backend Backend, opts AggregatorOptions) *Aggregator {
	if opts.Step <= 0 {
		opts.Step = DefaultStep()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = QueryTimeout()
	}
	return &Aggregator{backend: backend, opts: opts}
}

// GetUtilizationChart answers one chart request with fresh backend queries.
// Invalid requests fail before the backend is contacted.
func (a *Aggregator) GetUtilizationChart(ctx context.Context, account string, kind ResourceKind, stat Statistic, window TimeWindow) (*ChartPayload, error) {
	plan, err := BuildQuery(kind, stat, account, a.opts.Filter)
	if err != nil {
		return nil, err
	}
	if err := window.Validate(a.opts.MaxWindow); err != nil {
		return nil, err
	}

	results, err := a.execute(ctx, plan, window)
	if err != nil {
		return nil, err
	}

	payload := &ChartPayload{Lines: []ChartSeries{}, Unit: plan.Unit}
	switch plan.Combine {
	case combineWasted:
		for _, s := range wasted(results[0], results[1]) {
			payload.Lines = append(payload.Lines, ChartSeries{
				Name:    plan.SeriesName(s.Labels),
				Stacked: plan.Stacked,
				Points:  s.Points,
			})
		}
	default:
		for _, result := range results {
			for _, s := range result {
				payload.Lines = append(payload.Lines, ChartSeries{
					Name:    plan.SeriesName(s.Labels),
					Stacked: plan.Stacked,
					Points:  s.Points,
				})
			}
		}
	}
	return payload, nil
}

// execute runs every query of the plan concurrently. results[i] holds the
// series of plan.Queries[i] with labels reduced to the plan's group key, so
// the outcome does not depend on completion order.
func (a *Aggregator) execute(ctx context.Context, plan *QueryPlan, window TimeWindow) ([][]TimeSeries, error) {
	r := Range{Start: window.Start, End: window.End, Step: a.opts.Step}
	results := make([][]TimeSeries, len(plan.Queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range plan.Queries {
		i, q := i, q
		g.Go(func() error {
			qctx, cancel := context.WithTimeout(gctx, a.opts.Timeout)
			defer cancel()

			series, err := a.backend.QueryRange(qctx, q.Expr, r)
			if err != nil {
				return backendError(err, q.Expr)
			}
			for j := range series {
				series[j].Labels = plan.GroupKey(series[j].Labels, q)
			}
			results[i] = series
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// wasted pairs allocated and used series by group key and computes
// max(allocated - used, 0) per timestamp. A key or timestamp missing on one
// side counts as zero there. Keys keep allocated order, then used-only keys
// in used order.
func wasted(allocated, used []TimeSeries) []TimeSeries {
	allocIdx, allocOrder := indexSeries(allocated)
	usedIdx, usedOrder := indexSeries(used)

	order := allocOrder
	for _, fp := range usedOrder {
		if _, ok := allocIdx[fp]; !ok {
			order = append(order, fp)
		}
	}

	out := make([]TimeSeries, 0, len(order))
	for _, fp := range order {
		var labels GroupKey
		var a, u map[int64]float64
		if entry, ok := allocIdx[fp]; ok {
			labels, a = entry.labels, entry.values
		}
		if entry, ok := usedIdx[fp]; ok {
			if labels == nil {
				labels = entry.labels
			}
			u = entry.values
		}
		out = append(out, TimeSeries{Labels: labels, Points: clampedDifference(a, u)})
	}
	return out
}

type indexedSeries struct {
	labels GroupKey
	values map[int64]float64
}

func indexSeries(series []TimeSeries) (map[uint64]*indexedSeries, []uint64) {
	idx := make(map[uint64]*indexedSeries, len(series))
	var order []uint64
	for _, s := range series {
		fp := uint64(s.Labels.Fingerprint())
		entry, ok := idx[fp]
		if !ok {
			entry = &indexedSeries{labels: s.Labels, values: make(map[int64]float64, len(s.Points))}
			idx[fp] = entry
			order = append(order, fp)
		}
		for _, pt := range s.Points {
			entry.values[pt.Timestamp.UnixMilli()] += pt.Value
		}
	}
	return idx, order
}

func clampedDifference(allocated, used map[int64]float64) []Point {
	stamps := make([]int64, 0, len(allocated)+len(used))
	for ts := range allocated {
		stamps = append(stamps, ts)
	}
	for ts := range used {
		if _, ok := allocated[ts]; !ok {
			stamps = append(stamps, ts)
		}
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	points := make([]Point, 0, len(stamps))
	for _, ts := range stamps {
		points = append(points, Point{
			Timestamp: time.UnixMilli(ts),
			Value:     math.Max(allocated[ts]-used[ts], 0),
		})
	}
	return points
}
