package accountstats

import (
	"github.com/pkg/errors"
)

// Errors returned by the query builder and the aggregator. Callers classify
// with errors.Is; the wrapped message carries the detail.
var (
	// ErrInvalidResource is a resource/statistic pairing with no formula
	ErrInvalidResource = errors.New("invalid resource")

	// ErrInvalidAccount is an account name that cannot be placed in a label matcher
	ErrInvalidAccount = errors.New("invalid account")

	// ErrInvalidTimeWindow is an empty, inverted or oversized window
	ErrInvalidTimeWindow = errors.New("invalid time window")

	// ErrBackendUnavailable covers unreachable backends, failed queries, timeouts
	// and malformed responses. It is the only retryable error.
	ErrBackendUnavailable = errors.New("metrics backend unavailable")
)

// backendError classifies err as ErrBackendUnavailable unless it already is
func backendError(err error, query string) error {
	if errors.Is(err, ErrBackendUnavailable) {
		return err
	}
	return errors.Wrapf(ErrBackendUnavailable, "query %q: %v", query, err)
}
