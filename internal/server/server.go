// Package server exposes chart reports over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	accountstats "github.com/jondoveston/accountstats/internal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// ChartService answers one chart request
type ChartService interface {
	GetUtilizationChart(ctx context.Context, account string, kind accountstats.ResourceKind, stat accountstats.Statistic, window accountstats.TimeWindow) (*accountstats.ChartPayload, error)
}

type Options struct {
	Charts ChartService
	// Authorizer decides whether the caller may see an account. Defaults to AllowAll.
	Authorizer Authorizer
	// Accounts tells GPU accounts apart. Defaults to SuffixAccounts.
	Accounts AccountMetadata
	// Gatherer serves /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	// Window is the lookback used when a request gives no start
	Window time.Duration
	// Location formats chart timestamps
	Location *time.Location
}

type Server struct {
	opts   Options
	engine *gin.Engine
}

func New(opts Options) *Server {
	if opts.Authorizer == nil {
		opts.Authorizer = AllowAll{}
	}
	if opts.Accounts == nil {
		opts.Accounts = SuffixAccounts{}
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Window <= 0 {
		opts.Window = accountstats.DefaultWindow()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	s := &Server{opts: opts, engine: gin.New()}
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))

	g := s.engine.Group("/v1")
	g.Use(HandleLogging(), HandleErrors())
	accounts := g.Group("/accounts/:account", Authorize(s.opts.Authorizer))
	accounts.GET("", s.getAccount)
	accounts.GET("/charts/:resource/:statistic", s.getChart)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
