package server

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	accountstats "github.com/jondoveston/accountstats/internal"
	"github.com/pkg/errors"
)

// AccountResponse lists the charts available for an account
type AccountResponse struct {
	Account string                  `json:"account"`
	GPU     bool                    `json:"gpu"`
	Charts  []accountstats.ChartRef `json:"charts"`
}

// getAccount
// GET /v1/accounts/:account
func (s *Server) getAccount(c *gin.Context) {
	account := c.Param("account")
	gpu := s.opts.Accounts.IsGPU(account)
	c.JSON(http.StatusOK, AccountResponse{
		Account: account,
		GPU:     gpu,
		Charts:  accountstats.AvailableCharts(gpu),
	})
}

// getChart returns one chart of an account
// GET /v1/accounts/:account/charts/:resource/:statistic
// Query Parameters:
//   - start: RFC 3339 or unix seconds (optional, default end minus the configured window)
//   - end: RFC 3339 or unix seconds (optional, default now)
func (s *Server) getChart(c *gin.Context) {
	kind, err := accountstats.ParseResourceKind(c.Param("resource"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	stat, err := accountstats.ParseStatistic(c.Param("statistic"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	window, err := s.parseWindow(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	payload, err := s.opts.Charts.GetUtilizationChart(c.Request.Context(), c.Param("account"), kind, stat, window)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, payload.Response(s.opts.Location))
}

func (s *Server) parseWindow(c *gin.Context) (accountstats.TimeWindow, error) {
	end := time.Now()
	if raw := c.Query("end"); raw != "" {
		t, err := parseInstant(raw)
		if err != nil {
			return accountstats.TimeWindow{}, err
		}
		end = t
	}
	window := accountstats.LastWindow(end, s.opts.Window)
	if raw := c.Query("start"); raw != "" {
		t, err := parseInstant(raw)
		if err != nil {
			return accountstats.TimeWindow{}, err
		}
		window.Start = t
	}
	return window, nil
}

// Unix seconds accepted in start/end, years 0001 through 9999
const (
	minUnixSeconds = -62135596800
	maxUnixSeconds = 253402300799
)

// parseInstant accepts RFC 3339 or (fractional) unix seconds
func parseInstant(raw string) (time.Time, error) {
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		if math.IsNaN(secs) || math.IsInf(secs, 0) {
			return time.Time{}, errors.Wrapf(accountstats.ErrInvalidTimeWindow, "invalid instant %q", raw)
		}
		if secs < minUnixSeconds || secs > maxUnixSeconds {
			return time.Time{}, errors.Wrapf(accountstats.ErrInvalidTimeWindow, "instant %q out of range", raw)
		}
		whole, frac := math.Modf(secs)
		return time.Unix(int64(whole), int64(frac*1e9)), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.Wrapf(accountstats.ErrInvalidTimeWindow, "invalid instant %q", raw)
	}
	return t, nil
}
