package accountstats

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Range is the span and resolution of a range query
type Range struct {
	Start time.Time
	End   time.Time
	Step  time.Duration
}

// Backend executes range queries against a time-series store. An empty result
// is a nil slice and a nil error.
type Backend interface {
	QueryRange(ctx context.Context, query string, r Range) ([]TimeSeries, error)
}

// Connect creates a Prometheus backend for raw. When raw carries no scheme,
// https and http are tried in turn and the first that answers is kept.
// The returned error is set when no variant answered; the backend is still
// usable since Prometheus may come up after the service.
func Connect(ctx context.Context, raw string) (*PrometheusBackend, error) {
	variants, err := generateURLVariants(raw)
	if err != nil {
		return nil, err
	}

	var first *PrometheusBackend
	var lastErr error
	for _, variant := range variants {
		log.Debugf("Trying Prometheus backend: %s", variant)
		pb, err := NewPrometheusBackend(variant)
		if err != nil {
			lastErr = err
			continue
		}
		if first == nil {
			first = pb
		}
		if err := pb.Check(ctx); err != nil {
			log.Debugf("Prometheus check failed: %v", err)
			lastErr = err
			continue
		}
		log.Infof("Found Prometheus backend at %s", variant)
		return pb, nil
	}
	if first == nil {
		return nil, lastErr
	}
	return first, lastErr
}

// generateURLVariants lists the URLs to try for raw
func generateURLVariants(raw string) ([]*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("prometheus url is empty")
	}

	schemes := []string{""}
	if !strings.Contains(raw, "://") {
		// Prefer HTTPS, fallback to HTTP
		schemes = []string{"https://", "http://"}
	}

	var variants []*url.URL
	for _, scheme := range schemes {
		u, err := url.Parse(scheme + raw)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing prometheus url %q", raw)
		}
		if u.Host == "" {
			return nil, errors.Errorf("prometheus url %q has no host", raw)
		}
		variants = append(variants, u)
	}
	return variants, nil
}
