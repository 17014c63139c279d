package accountstats

import (
	"regexp"
	"strings"
	"testing"

	"github.com/prometheus/common/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFilter = `cluster="beluga"`

func TestBuildQuery_Table(t *testing.T) {
	tests := []struct {
		kind    ResourceKind
		stat    Statistic
		queries []string
		unit    string
		stacked bool
	}{
		{CPU, Allocated, []string{
			`count(slurm_job_core_usage_total{account="def-alice", cluster="beluga"}) by (user)`,
		}, "", true},
		{CPU, Used, []string{
			`sum(rate(slurm_job_core_usage_total{account="def-alice", cluster="beluga"}[5m])) by (user) / 1000000000`,
		}, "", true},
		{CPU, Wasted, []string{
			`count(slurm_job_core_usage_total{account="def-alice", cluster="beluga"}) by (user)`,
			`sum(rate(slurm_job_core_usage_total{account="def-alice", cluster="beluga"}[5m])) by (user) / 1000000000`,
		}, "", true},
		{Memory, Allocated, []string{
			`sum(slurm_job_memory_limit{account="def-alice", cluster="beluga"}) by (user) / (1024*1024*1024)`,
		}, "GiB", true},
		{Memory, Used, []string{
			`sum(slurm_job_memory_max{account="def-alice", cluster="beluga"}) by (user) / (1024*1024*1024)`,
		}, "GiB", true},
		{Memory, Wasted, []string{
			`sum(slurm_job_memory_limit{account="def-alice", cluster="beluga"}) by (user) / (1024*1024*1024)`,
			`sum(slurm_job_memory_max{account="def-alice", cluster="beluga"}) by (user) / (1024*1024*1024)`,
		}, "GiB", true},
		{GPUUtilization, Allocated, []string{
			`count(slurm_job_utilization_gpu{account="def-alice", cluster="beluga"}) by (user)`,
		}, "", true},
		{GPUUtilization, Used, []string{
			`sum(slurm_job_utilization_gpu{account="def-alice", cluster="beluga"}) by (user) / 100`,
		}, "", true},
		{GPUUtilization, Wasted, []string{
			`count(slurm_job_utilization_gpu{account="def-alice", cluster="beluga"}) by (user)`,
			`sum(slurm_job_utilization_gpu{account="def-alice", cluster="beluga"}) by (user) / 100`,
		}, "", true},
		{GPUPower, Allocated, []string{
			`count(slurm_job_power_gpu{account="def-alice", cluster="beluga"}) by (user) * 300`,
		}, " W", true},
		{GPUPower, Used, []string{
			`sum(slurm_job_power_gpu{account="def-alice", cluster="beluga"}) by (user) / 1000`,
		}, " W", true},
		{GPUPower, Wasted, []string{
			`count(slurm_job_power_gpu{account="def-alice", cluster="beluga"}) by (user) * 300`,
			`sum(slurm_job_power_gpu{account="def-alice", cluster="beluga"}) by (user) / 1000`,
		}, " W", true},
		{LustreMDT, Used, []string{
			`sum(rate(lustre_job_stats_total{component=~"mdt", account=~"def-alice", cluster="beluga"}[5m])) by (user, fs) != 0`,
		}, " IOPS", true},
		{LustreOST, Used, []string{
			`sum(rate(lustre_job_read_bytes_total{component=~"ost", account=~"def-alice", target=~".*-OST.*", cluster="beluga"}[5m])) by (user, fs) / (1024*1024)`,
			`sum(rate(lustre_job_write_bytes_total{component=~"ost", account=~"def-alice", target=~".*-OST.*", cluster="beluga"}[5m])) by (user, fs) / (1024*1024)`,
		}, " MiB/s", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+string(tt.stat), func(t *testing.T) {
			plan, err := BuildQuery(tt.kind, tt.stat, "def-alice", testFilter)
			require.NoError(t, err)

			exprs := make([]string, 0, len(plan.Queries))
			for _, q := range plan.Queries {
				exprs = append(exprs, q.Expr)
				assert.Contains(t, q.Expr, "def-alice")
				assert.Contains(t, q.Expr, testFilter)
			}
			assert.Equal(t, tt.queries, exprs)
			assert.Equal(t, tt.unit, plan.Unit)
			assert.Equal(t, tt.stacked, plan.Stacked)
			if tt.stat == Wasted {
				assert.Equal(t, combineWasted, plan.Combine)
			} else {
				assert.Equal(t, combineAppend, plan.Combine)
			}
		})
	}
}

func TestBuildQuery_NoFilter(t *testing.T) {
	plan, err := BuildQuery(CPU, Allocated, "def-bob", "  ")
	require.NoError(t, err)
	require.Len(t, plan.Queries, 1)
	assert.Equal(t, `count(slurm_job_core_usage_total{account="def-bob"}) by (user)`, plan.Queries[0].Expr)
}

func TestBuildQuery_OSTDirections(t *testing.T) {
	plan, err := BuildQuery(LustreOST, Used, "def-alice", "")
	require.NoError(t, err)
	require.Len(t, plan.Queries, 2)
	assert.Equal(t, "read", plan.Queries[0].Direction)
	assert.Equal(t, "write", plan.Queries[1].Direction)
}

func TestBuildQuery_RegexAccountIsLiteral(t *testing.T) {
	mdt, err := BuildQuery(LustreMDT, Used, "def.alice", "")
	require.NoError(t, err)
	assert.Equal(t, `sum(rate(lustre_job_stats_total{component=~"mdt", account=~"def\\.alice"}[5m])) by (user, fs) != 0`, mdt.Queries[0].Expr)

	ost, err := BuildQuery(LustreOST, Used, "def.alice", "")
	require.NoError(t, err)
	for _, q := range ost.Queries {
		assert.Contains(t, q.Expr, `account=~"def\\.alice"`)
	}

	cpu, err := BuildQuery(CPU, Used, "def.alice", "")
	require.NoError(t, err)
	assert.Contains(t, cpu.Queries[0].Expr, `account="def.alice"`)

	// the matcher Prometheus compiles must not accept a sibling account
	matcher := regexp.MustCompile("^(?:" + strings.ReplaceAll(regexLiteral("def.alice"), `\\`, `\`) + ")$")
	assert.True(t, matcher.MatchString("def.alice"))
	assert.False(t, matcher.MatchString("def-alice"))
}

func TestBuildQuery_InvalidResource(t *testing.T) {
	tests := []struct {
		name string
		kind ResourceKind
		stat Statistic
	}{
		{"mdt wasted", LustreMDT, Wasted},
		{"mdt allocated", LustreMDT, Allocated},
		{"ost wasted", LustreOST, Wasted},
		{"ost allocated", LustreOST, Allocated},
		{"unknown resource", ResourceKind("disk"), Used},
		{"unknown statistic", CPU, Statistic("peak")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := BuildQuery(tt.kind, tt.stat, "def-alice", "")
			assert.Nil(t, plan)
			assert.ErrorIs(t, err, ErrInvalidResource)
		})
	}
}

func TestBuildQuery_InvalidAccount(t *testing.T) {
	for _, account := range []string{"", `def-alice"}`, "def alice", "-leading"} {
		t.Run(account, func(t *testing.T) {
			_, err := BuildQuery(CPU, Used, account, "")
			assert.ErrorIs(t, err, ErrInvalidAccount)
		})
	}
}

func TestQueryPlan_SeriesName(t *testing.T) {
	labels := model.LabelSet{"user": "alice", "fs": "scratch", "instance": "mgr1"}

	tests := []struct {
		name     string
		kind     ResourceKind
		query    Query
		expected string
	}{
		{"cpu by user", CPU, Query{}, "alice"},
		{"mdt by user and filesystem", LustreMDT, Query{}, "alice scratch"},
		{"ost read", LustreOST, Query{Direction: "read"}, "read scratch alice"},
		{"ost write", LustreOST, Query{Direction: "write"}, "write scratch alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := BuildQuery(tt.kind, Used, "def-alice", "")
			require.NoError(t, err)
			key := plan.GroupKey(labels, tt.query)
			assert.NotContains(t, key, model.LabelName("instance"))
			assert.Equal(t, tt.expected, plan.SeriesName(key))
		})
	}
}
