package accountstats

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/common/model"
)

const (
	userLabel       model.LabelName = "user"
	filesystemLabel model.LabelName = "fs"
	directionLabel  model.LabelName = "direction"
)

// Selector bodies. %[1]s is the account, %[2]s the account quoted for a regex matcher.
const (
	accountSelector = `account="%[1]s"`
	mdtSelector     = `component=~"mdt", account=~"%[2]s"`
	ostSelector     = `component=~"ost", account=~"%[2]s", target=~".*-OST.*"`
)

const (
	directionRead  = "read"
	directionWrite = "write"
)

// Combine tells the aggregator how to fold the results of a plan's queries
type Combine string

const (
	combineAppend Combine = "append"
	combineWasted Combine = "wasted"
)

// queryTemplate is one backend expression. In Expr, %[1]s is the selector body
// and %[2]s the rate interval.
type queryTemplate struct {
	Direction string
	Selector  string
	Expr      string
}

type resourceSpec struct {
	GroupBy    []model.LabelName
	NameLabels []model.LabelName
	Unit       string
	Stacked    bool
	GPU        bool
	Queries    map[Statistic][]queryTemplate
}

// Wasted is defined exactly when both sides of the allocation are queryable.
func (s resourceSpec) hasWasted() bool {
	return len(s.Queries[Allocated]) == 1 && len(s.Queries[Used]) == 1
}

var resourceTable = map[ResourceKind]resourceSpec{
	CPU: {
		GroupBy:    []model.LabelName{userLabel},
		NameLabels: []model.LabelName{userLabel},
		Stacked:    true,
		Queries: map[Statistic][]queryTemplate{
			Allocated: {{Selector: accountSelector, Expr: `count(slurm_job_core_usage_total{%[1]s}) by (user)`}},
			Used:      {{Selector: accountSelector, Expr: fmt.Sprintf(`sum(rate(slurm_job_core_usage_total{%%[1]s}[%%[2]s])) by (user) / %d`, NANOSECONDS)}},
		},
	},
	Memory: {
		GroupBy:    []model.LabelName{userLabel},
		NameLabels: []model.LabelName{userLabel},
		Unit:       "GiB",
		Stacked:    true,
		Queries: map[Statistic][]queryTemplate{
			Allocated: {{Selector: accountSelector, Expr: `sum(slurm_job_memory_limit{%[1]s}) by (user) / ` + GiBExpr}},
			Used:      {{Selector: accountSelector, Expr: `sum(slurm_job_memory_max{%[1]s}) by (user) / ` + GiBExpr}},
		},
	},
	GPUUtilization: {
		GroupBy:    []model.LabelName{userLabel},
		NameLabels: []model.LabelName{userLabel},
		Stacked:    true,
		GPU:        true,
		Queries: map[Statistic][]queryTemplate{
			Allocated: {{Selector: accountSelector, Expr: `count(slurm_job_utilization_gpu{%[1]s}) by (user)`}},
			Used:      {{Selector: accountSelector, Expr: fmt.Sprintf(`sum(slurm_job_utilization_gpu{%%[1]s}) by (user) / %d`, PERCENT)}},
		},
	},
	GPUPower: {
		GroupBy:    []model.LabelName{userLabel},
		NameLabels: []model.LabelName{userLabel},
		Unit:       " W",
		Stacked:    true,
		GPU:        true,
		Queries: map[Statistic][]queryTemplate{
			Allocated: {{Selector: accountSelector, Expr: fmt.Sprintf(`count(slurm_job_power_gpu{%%[1]s}) by (user) * %d`, GPU_WATTS_PER_UNIT)}},
			Used:      {{Selector: accountSelector, Expr: fmt.Sprintf(`sum(slurm_job_power_gpu{%%[1]s}) by (user) / %d`, MILLIWATTS)}},
		},
	},
	LustreMDT: {
		GroupBy:    []model.LabelName{userLabel, filesystemLabel},
		NameLabels: []model.LabelName{userLabel, filesystemLabel},
		Unit:       " IOPS",
		Stacked:    true,
		Queries: map[Statistic][]queryTemplate{
			Used: {{Selector: mdtSelector, Expr: `sum(rate(lustre_job_stats_total{%[1]s}[%[2]s])) by (user, fs) != 0`}},
		},
	},
	LustreOST: {
		GroupBy:    []model.LabelName{userLabel, filesystemLabel},
		NameLabels: []model.LabelName{directionLabel, filesystemLabel, userLabel},
		Unit:       " MiB/s",
		Queries: map[Statistic][]queryTemplate{
			Used: {
				{Direction: directionRead, Selector: ostSelector, Expr: `sum(rate(lustre_job_read_bytes_total{%[1]s}[%[2]s])) by (user, fs) / ` + MiBExpr},
				{Direction: directionWrite, Selector: ostSelector, Expr: `sum(rate(lustre_job_write_bytes_total{%[1]s}[%[2]s])) by (user, fs) / ` + MiBExpr},
			},
		},
	},
}

// Query is one expression ready for execution
type Query struct {
	Expr string
	// Direction is set for resources split by I/O direction and becomes part of the group key
	Direction string
}

// QueryPlan is everything the aggregator needs to answer one chart request
type QueryPlan struct {
	Resource   ResourceKind
	Statistic  Statistic
	Queries    []Query
	Combine    Combine
	GroupBy    []model.LabelName
	NameLabels []model.LabelName
	Unit       string
	Stacked    bool
}

// BuildQuery translates a chart request into backend expressions without executing them.
// filter is an extra label-matcher clause appended verbatim to every selector.
func BuildQuery(kind ResourceKind, stat Statistic, account, filter string) (*QueryPlan, error) {
	spec, ok := resourceTable[kind]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidResource, "unknown resource %q", kind)
	}
	if !kind.Supports(stat) {
		return nil, errors.Wrapf(ErrInvalidResource, "%s has no %s formula", kind, stat)
	}
	if err := ValidateAccount(account); err != nil {
		return nil, err
	}

	plan := &QueryPlan{
		Resource:   kind,
		Statistic:  stat,
		Combine:    combineAppend,
		GroupBy:    spec.GroupBy,
		NameLabels: spec.NameLabels,
		Unit:       spec.Unit,
		Stacked:    spec.Stacked,
	}

	templates := spec.Queries[stat]
	if stat == Wasted {
		// allocated first, used second; the aggregator relies on this order
		templates = []queryTemplate{spec.Queries[Allocated][0], spec.Queries[Used][0]}
		plan.Combine = combineWasted
	}
	for _, t := range templates {
		plan.Queries = append(plan.Queries, Query{
			Expr:      t.render(account, filter),
			Direction: t.Direction,
		})
	}
	return plan, nil
}

func (t queryTemplate) render(account, filter string) string {
	selector := fmt.Sprintf(t.Selector, account, regexLiteral(account))
	if filter = strings.TrimSpace(filter); filter != "" {
		selector += ", " + filter
	}
	return fmt.Sprintf(t.Expr, selector, RateIntervalString())
}

// regexLiteral matches account literally inside a double-quoted =~ matcher
func regexLiteral(account string) string {
	return strings.ReplaceAll(regexp.QuoteMeta(account), `\`, `\\`)
}

// SeriesName formats a group key into the display name of a chart line
func (p *QueryPlan) SeriesName(key GroupKey) string {
	parts := make([]string, 0, len(p.NameLabels))
	for _, name := range p.NameLabels {
		parts = append(parts, string(key[name]))
	}
	return strings.Join(parts, " ")
}

// GroupKey restricts a backend label set to the plan's grouping labels,
// adding the direction label for split queries
func (p *QueryPlan) GroupKey(labels model.LabelSet, q Query) GroupKey {
	key := make(GroupKey, len(p.GroupBy)+1)
	for _, name := range p.GroupBy {
		if v, ok := labels[name]; ok {
			key[name] = v
		}
	}
	if q.Direction != "" {
		key[directionLabel] = model.LabelValue(q.Direction)
	}
	return key
}
