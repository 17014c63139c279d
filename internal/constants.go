package accountstats

import (
	"fmt"
	"time"
)

const (
	// RATE_INTERVAL is the range in seconds used inside rate() selectors
	RATE_INTERVAL = 300

	// DEFAULT_WINDOW_HOURS is the lookback used when a request gives no start
	DEFAULT_WINDOW_HOURS = 6

	// DEFAULT_STEP_SECONDS is the resolution of range queries
	DEFAULT_STEP_SECONDS = 60

	// QUERY_TIMEOUT_SECONDS bounds a single backend query
	QUERY_TIMEOUT_SECONDS = 10

	// GPU_WATTS_PER_UNIT is the power budget granted with every allocated GPU
	GPU_WATTS_PER_UNIT = 300

	// NANOSECONDS converts core-usage counters (ns) into cores
	NANOSECONDS = 1000000000

	// MILLIWATTS converts GPU power samples into watts
	MILLIWATTS = 1000

	// PERCENT converts GPU utilization percentages into fractions of a GPU
	PERCENT = 100
)

// Timestamp layout of chart x values.
const ChartTimeLayout = "2006-01-02 15:04:05"

// GiB is spelled out in queries so the backend does the division.
const (
	GiBExpr = "(1024*1024*1024)"
	MiBExpr = "(1024*1024)"
)

// DefaultWindow returns the default lookback as a time.Duration
func DefaultWindow() time.Duration {
	return time.Duration(DEFAULT_WINDOW_HOURS) * time.Hour
}

// DefaultStep returns the default range-query step as a time.Duration
func DefaultStep() time.Duration {
	return time.Duration(DEFAULT_STEP_SECONDS) * time.Second
}

// QueryTimeout returns the default per-query deadline
func QueryTimeout() time.Duration {
	return time.Duration(QUERY_TIMEOUT_SECONDS) * time.Second
}

// RateIntervalString returns the rate interval formatted for PromQL (e.g., "5m")
func RateIntervalString() string {
	if RATE_INTERVAL%60 == 0 {
		return fmt.Sprintf("%dm", RATE_INTERVAL/60)
	}
	return fmt.Sprintf("%ds", RATE_INTERVAL)
}
