package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	accountstats "github.com/jondoveston/accountstats/internal"
	"github.com/jondoveston/accountstats/internal/server"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "accountstats",
	Short: "Per-account resource utilization reports from Prometheus",
	Long: `accountstats charts allocated, used and wasted CPU, memory, GPU and
Lustre I/O per user of a cluster account, from Slurm and Lustre job metrics
stored in Prometheus.

Examples:
  accountstats serve --prometheus-url http://prometheus.lan:9090
  accountstats chart def-alice memory wasted
  ACCOUNTSTATS_PROMETHEUS_URL=http://prometheus.lan:9090 accountstats serve`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve chart reports over HTTP",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

var chartCmd = &cobra.Command{
	Use:   "chart ACCOUNT RESOURCE [STATISTIC|all]",
	Short: "Print one account chart in the terminal",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  chart,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("accountstats version %s\n", version)
	},
}

var cfg *accountstats.Config

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default ./accountstats.yaml or /etc/accountstats/accountstats.yaml)")
	flags.String("prometheus-url", "", "Prometheus server URL")
	flags.String("prometheus-filter", "", "extra label matchers added to every selector")
	flags.Duration("window", accountstats.DefaultWindow(), "default lookback")
	flags.Duration("step", accountstats.DefaultStep(), "range query resolution")
	flags.Duration("query-timeout", accountstats.QueryTimeout(), "deadline of one backend query")
	flags.String("timezone", "Local", "time zone of chart timestamps")
	flags.String("log-level", "info", "log level")
	flags.String("log-format", "console", "log format (console or json)")

	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().Duration("max-window", 7*24*time.Hour, "longest window a request may ask for")

	chartCmd.Flags().Bool("json", false, "print the chart as JSON")

	// Bind flags to Viper keys (note: dashes in flags become underscores in viper)
	for key, flag := range map[string]string{
		"prometheus_url":    "prometheus-url",
		"prometheus_filter": "prometheus-filter",
		"window":            "window",
		"step":              "step",
		"query_timeout":     "query-timeout",
		"timezone":          "timezone",
		"log_level":         "log-level",
		"log_format":        "log-format",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			log.Fatalf("failed to bind %s: %v", key, err)
		}
	}
	if err := viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen")); err != nil {
		log.Fatalf("failed to bind listen: %v", err)
	}
	if err := viper.BindPFlag("max_window", serveCmd.Flags().Lookup("max-window")); err != nil {
		log.Fatalf("failed to bind max_window: %v", err)
	}

	viper.SetEnvPrefix("accountstats")
	viper.AutomaticEnv()
	accountstats.SetDefaults(viper.GetViper())

	rootCmd.AddCommand(serveCmd, chartCmd, versionCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	if cmd == versionCmd {
		return nil
	}

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("accountstats")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/accountstats")
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errors.Wrap(err, "reading config")
		}
	}

	var err error
	cfg, err = accountstats.LoadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	return accountstats.InitLogger(cfg.LogLevel, cfg.LogFormat)
}

func serve(cmd *cobra.Command, args []string) error {
	log.Printf("Starting accountstats %s", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := accountstats.Connect(ctx, cfg.PrometheusURL)
	if backend == nil {
		return err
	}
	if err != nil {
		log.Warnf("Prometheus at %s did not answer yet: %v", backend.URL(), err)
	}
	log.Printf("Using Prometheus backend: %s", backend.URL())

	instrumented := accountstats.NewInstrumentedBackend(backend, prometheus.DefaultRegisterer)
	srv := server.New(server.Options{
		Charts:   accountstats.NewAggregator(instrumented, cfg.AggregatorOptions()),
		Window:   cfg.Window,
		Location: cfg.Location,
	})
	return srv.Run(ctx, cfg.Listen)
}

func chart(cmd *cobra.Command, args []string) error {
	account := args[0]
	kind, err := accountstats.ParseResourceKind(args[1])
	if err != nil {
		return err
	}

	stats := []accountstats.Statistic{accountstats.Used}
	if len(args) == 3 && args[2] == "all" {
		stats = nil
		for _, stat := range accountstats.Statistics {
			if kind.Supports(stat) {
				stats = append(stats, stat)
			}
		}
	} else if len(args) == 3 {
		stat, err := accountstats.ParseStatistic(args[2])
		if err != nil {
			return err
		}
		stats = []accountstats.Statistic{stat}
	}

	ctx := cmd.Context()
	backend, err := accountstats.Connect(ctx, cfg.PrometheusURL)
	if err != nil {
		return err
	}
	agg := accountstats.NewAggregator(backend, cfg.AggregatorOptions())
	window := accountstats.LastWindow(time.Now(), cfg.Window)
	asJSON, _ := cmd.Flags().GetBool("json")

	var panels []accountstats.Panel
	for _, stat := range stats {
		payload, err := agg.GetUtilizationChart(ctx, account, kind, stat, window)
		if err != nil {
			return err
		}
		if asJSON {
			if err := json.NewEncoder(os.Stdout).Encode(payload.Response(cfg.Location)); err != nil {
				return err
			}
			continue
		}
		title := fmt.Sprintf("%s %s %s", account, kind, stat)
		panels = append(panels, accountstats.NewPanel(title).SetContent(accountstats.SummaryTable(payload)))
	}
	if len(panels) > 0 {
		fmt.Println(accountstats.Stack(panels...))
	}
	return nil
}
