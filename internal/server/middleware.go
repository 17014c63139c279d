package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	accountstats "github.com/jondoveston/accountstats/internal"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// HandleLogging logs one line per request
func HandleLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"ip":       c.ClientIP(),
			"duration": time.Since(start),
		}).Info("request")
	}
}

// HandleErrors turns the first error a handler recorded into a JSON response.
// Only the first error is answered; later ones are logged.
func HandleErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}
		for i, err := range c.Errors[1:] {
			log.Errorf("error %d in request %s: %v", i+1, c.Request.URL.Path, err.Err)
		}

		err := c.Errors[0].Err
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.Errorf("Request %s failed: %v", c.Request.URL.Path, err)
		} else {
			log.Debugf("Request %s rejected: %v", c.Request.URL.Path, err)
		}
		c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, accountstats.ErrInvalidResource),
		errors.Is(err, accountstats.ErrInvalidAccount),
		errors.Is(err, accountstats.ErrInvalidTimeWindow):
		return http.StatusBadRequest
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, accountstats.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errForbidden = errors.New("forbidden")

// Authorize rejects requests for accounts the caller may not read
func Authorize(auth Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := c.Param("account")
		if err := accountstats.ValidateAccount(account); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		if !auth.Authorize(c, account) {
			_ = c.Error(errors.Wrapf(errForbidden, "account %s", account))
			c.Abort()
			return
		}
		c.Next()
	}
}
