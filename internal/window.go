package accountstats

import (
	"time"

	"github.com/pkg/errors"
)

// TimeWindow is the closed range [Start, End] a chart covers
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// LastWindow returns the window of the given length ending at end
func LastWindow(end time.Time, length time.Duration) TimeWindow {
	return TimeWindow{Start: end.Add(-length), End: end}
}

func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Validate rejects inverted or empty windows and, when max is positive, windows longer than max
func (w TimeWindow) Validate(max time.Duration) error {
	if w.Start.IsZero() || w.End.IsZero() {
		return errors.Wrap(ErrInvalidTimeWindow, "start and end are required")
	}
	if !w.End.After(w.Start) {
		return errors.Wrapf(ErrInvalidTimeWindow, "end %s is not after start %s",
			w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))
	}
	if max > 0 && w.Duration() > max {
		return errors.Wrapf(ErrInvalidTimeWindow, "window %s exceeds maximum %s", w.Duration(), max)
	}
	return nil
}
