package accountstats

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	log "github.com/sirupsen/logrus"
)

type PrometheusBackend struct {
	client api.Client
	url    *url.URL
}

func NewPrometheusBackend(prometheusURL *url.URL) (*PrometheusBackend, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL.String(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create prometheus client")
	}

	return &PrometheusBackend{
		client: client,
		url:    prometheusURL,
	}, nil
}

// URL returns the address the backend queries
func (p *PrometheusBackend) URL() *url.URL {
	return p.url
}

// Check verifies that the Prometheus API answers
func (p *PrometheusBackend) Check(ctx context.Context) error {
	v1api := v1.NewAPI(p.client)
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout())
	defer cancel()

	_, warnings, err := v1api.Query(ctx, "up", time.Now())
	if err != nil {
		return backendError(errors.Wrap(err, "prometheus API query failed"), "up")
	}
	if len(warnings) > 0 {
		log.Warnf("Prometheus warnings: %v", warnings)
	}
	return nil
}

// QueryRange runs query over r. The result must be a matrix; anything else
// is treated as a malformed response.
func (p *PrometheusBackend) QueryRange(ctx context.Context, query string, r Range) ([]TimeSeries, error) {
	v1api := v1.NewAPI(p.client)
	log.Debugf("Prometheus range query %s [%s, %s] step %s", query, r.Start, r.End, r.Step)

	result, warnings, err := v1api.QueryRange(ctx, query, v1.Range{
		Start: r.Start,
		End:   r.End,
		Step:  r.Step,
	})
	if err != nil {
		return nil, backendError(err, query)
	}
	if len(warnings) > 0 {
		log.Warnf("Prometheus query range warnings for %s: %v", query, warnings)
	}

	matrix, ok := result.(model.Matrix)
	if !ok {
		return nil, backendError(errors.Errorf("unexpected result type %T", result), query)
	}
	if len(matrix) == 0 {
		return nil, nil
	}

	series := make([]TimeSeries, 0, len(matrix))
	for _, stream := range matrix {
		points := make([]Point, 0, len(stream.Values))
		for _, pair := range stream.Values {
			points = append(points, Point{
				Timestamp: pair.Timestamp.Time(),
				Value:     float64(pair.Value),
			})
		}
		series = append(series, TimeSeries{
			Labels: model.LabelSet(stream.Metric),
			Points: points,
		})
	}
	return series, nil
}
