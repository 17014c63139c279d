package accountstats

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartPayload_Response(t *testing.T) {
	payload := &ChartPayload{
		Unit: "GiB",
		Lines: []ChartSeries{
			{Name: "bob", Stacked: true, Points: []Point{{t0, 6}, {t1, math.NaN()}, {t2, 5}}},
			{Name: "read scratch alice", Points: []Point{{t0, 1.5}}},
		},
	}

	resp := payload.Response(time.UTC)
	require.Len(t, resp.Lines, 2)

	assert.Equal(t, []string{"2024-03-01 12:00:00", "2024-03-01 12:02:00"}, resp.Lines[0].X)
	assert.Equal(t, []float64{6, 5}, resp.Lines[0].Y)
	assert.Equal(t, "scatter", resp.Lines[0].Type)
	assert.Equal(t, "one", resp.Lines[0].StackGroup)
	assert.Equal(t, "", resp.Lines[1].StackGroup)
	require.NotNil(t, resp.Layout)
	assert.Equal(t, "GiB", resp.Layout.YAxis.TickSuffix)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"lines": [
			{"x": ["2024-03-01 12:00:00", "2024-03-01 12:02:00"], "y": [6, 5], "type": "scatter", "stackgroup": "one", "name": "bob"},
			{"x": ["2024-03-01 12:00:00"], "y": [1.5], "type": "scatter", "name": "read scratch alice"}
		],
		"layout": {"yaxis": {"ticksuffix": "GiB"}}
	}`, string(body))
}

func TestChartPayload_ResponseEmpty(t *testing.T) {
	payload := &ChartPayload{Lines: []ChartSeries{}}

	body, err := json.Marshal(payload.Response(time.UTC))
	require.NoError(t, err)
	assert.JSONEq(t, `{"lines": []}`, string(body))
}

func TestChartPayload_ResponseTimezone(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	payload := &ChartPayload{Lines: []ChartSeries{{Name: "bob", Points: []Point{{t0, 1}}}}}

	resp := payload.Response(loc)
	assert.Equal(t, []string{"2024-03-01 07:00:00"}, resp.Lines[0].X)
}

func TestChartSeries_LastAndPeak(t *testing.T) {
	s := ChartSeries{Points: []Point{{t0, 3}, {t1, math.Inf(1)}, {t2, 1}}}

	last, ok := s.Last()
	assert.True(t, ok)
	assert.Equal(t, 1.0, last)

	peak, ok := s.Peak()
	assert.True(t, ok)
	assert.Equal(t, 3.0, peak)

	_, ok = ChartSeries{}.Last()
	assert.False(t, ok)
	_, ok = ChartSeries{}.Peak()
	assert.False(t, ok)
}

func TestSummaryTable(t *testing.T) {
	payload := &ChartPayload{
		Unit: "GiB",
		Lines: []ChartSeries{
			{Name: "bob", Points: []Point{{t0, 6}, {t1, 8.5}, {t2, 7}}},
			{Name: "carol"},
		},
	}

	out := SummaryTable(payload)
	for _, want := range []string{"SERIES", "PEAK", "bob", "7.00GiB", "8.50GiB", "carol", "-"} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, "no data", SummaryTable(&ChartPayload{}))
}

func TestStack(t *testing.T) {
	assert.Equal(t, "", Stack())

	out := Stack(
		NewPanel("def-alice memory used").SetContent("no data"),
		NewPanel("def-alice memory wasted").SetContent("no data").SetWidth(40),
	)
	assert.Contains(t, out, "def-alice memory used")
	assert.Contains(t, out, "def-alice memory wasted")
	assert.Less(t, strings.Index(out, "memory used"), strings.Index(out, "memory wasted"))
}
