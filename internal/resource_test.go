package accountstats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResourceKind(t *testing.T) {
	for _, kind := range ResourceKinds {
		got, err := ParseResourceKind(string(kind))
		require.NoError(t, err)
		assert.Equal(t, kind, got)
	}

	_, err := ParseResourceKind("disk")
	assert.ErrorIs(t, err, ErrInvalidResource)
}

func TestParseStatistic(t *testing.T) {
	got, err := ParseStatistic("wasted")
	require.NoError(t, err)
	assert.Equal(t, Wasted, got)

	_, err = ParseStatistic("Wasted")
	assert.ErrorIs(t, err, ErrInvalidResource)
}

func TestAvailableCharts(t *testing.T) {
	cpuOnly := AvailableCharts(false)
	assert.Equal(t, []ChartRef{
		{CPU, Allocated}, {CPU, Used}, {CPU, Wasted},
		{Memory, Allocated}, {Memory, Used}, {Memory, Wasted},
		{LustreMDT, Used},
		{LustreOST, Used},
	}, cpuOnly)

	withGPU := AvailableCharts(true)
	assert.Len(t, withGPU, len(cpuOnly)+6)
	assert.Contains(t, withGPU, ChartRef{GPUPower, Wasted})
	assert.Contains(t, withGPU, ChartRef{GPUUtilization, Allocated})
}

func TestTimeWindow_Validate(t *testing.T) {
	end := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		window  TimeWindow
		max     time.Duration
		wantErr bool
	}{
		{"default lookback", LastWindow(end, DefaultWindow()), 0, false},
		{"within max", LastWindow(end, time.Hour), 2 * time.Hour, false},
		{"exactly max", LastWindow(end, 2*time.Hour), 2 * time.Hour, false},
		{"above max", LastWindow(end, 3*time.Hour), 2 * time.Hour, true},
		{"inverted", TimeWindow{Start: end, End: end.Add(-time.Hour)}, 0, true},
		{"empty", TimeWindow{Start: end, End: end}, 0, true},
		{"missing start", TimeWindow{End: end}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.window.Validate(tt.max)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeWindow)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRateIntervalString(t *testing.T) {
	assert.Equal(t, "5m", RateIntervalString())
}
