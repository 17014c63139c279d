package accountstats

import (
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the validated runtime configuration
type Config struct {
	PrometheusURL    string
	PrometheusFilter string
	Listen           string
	Window           time.Duration
	MaxWindow        time.Duration
	Step             time.Duration
	QueryTimeout     time.Duration
	Location         *time.Location
	LogLevel         string
	LogFormat        string
}

// SetDefaults registers the default value of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("prometheus_filter", "")
	v.SetDefault("listen", ":8080")
	v.SetDefault("window", DefaultWindow())
	v.SetDefault("max_window", 7*24*time.Hour)
	v.SetDefault("step", DefaultStep())
	v.SetDefault("query_timeout", QueryTimeout())
	v.SetDefault("timezone", "Local")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// LoadConfig reads and validates the configuration held by v
func LoadConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		PrometheusURL:    strings.TrimSpace(v.GetString("prometheus_url")),
		PrometheusFilter: strings.TrimSpace(v.GetString("prometheus_filter")),
		Listen:           v.GetString("listen"),
		Window:           v.GetDuration("window"),
		MaxWindow:        v.GetDuration("max_window"),
		Step:             v.GetDuration("step"),
		QueryTimeout:     v.GetDuration("query_timeout"),
		LogLevel:         v.GetString("log_level"),
		LogFormat:        v.GetString("log_format"),
	}

	if cfg.PrometheusURL == "" {
		return nil, errors.New("prometheus_url must be set")
	}
	if _, err := url.Parse(cfg.PrometheusURL); err != nil {
		return nil, errors.Wrap(err, "invalid prometheus_url")
	}

	for name, d := range map[string]time.Duration{
		"window":        cfg.Window,
		"max_window":    cfg.MaxWindow,
		"step":          cfg.Step,
		"query_timeout": cfg.QueryTimeout,
	} {
		if d <= 0 {
			return nil, errors.Errorf("%s must be a positive duration", name)
		}
	}
	if cfg.Window > cfg.MaxWindow {
		return nil, errors.Errorf("window %s exceeds max_window %s", cfg.Window, cfg.MaxWindow)
	}

	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid timezone")
	}
	cfg.Location = loc

	if err := validateLogConfig(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AggregatorOptions derives the aggregator settings from the configuration
func (c *Config) AggregatorOptions() AggregatorOptions {
	return AggregatorOptions{
		Filter:    c.PrometheusFilter,
		Step:      c.Step,
		Timeout:   c.QueryTimeout,
		MaxWindow: c.MaxWindow,
	}
}
