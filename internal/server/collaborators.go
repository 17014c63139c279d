package server

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Authorizer decides whether the caller of c may read account's reports.
// Login and ownership checks live behind this interface.
type Authorizer interface {
	Authorize(c *gin.Context, account string) bool
}

// AllowAll trusts every caller; use it when authorization happens upstream
type AllowAll struct{}

func (AllowAll) Authorize(*gin.Context, string) bool { return true }

// AuthorizerFunc adapts a function to Authorizer
type AuthorizerFunc func(c *gin.Context, account string) bool

func (f AuthorizerFunc) Authorize(c *gin.Context, account string) bool { return f(c, account) }

// AccountMetadata supplies account facts the report pages need
type AccountMetadata interface {
	IsGPU(account string) bool
}

// SuffixAccounts treats accounts named "*_gpu" as GPU accounts
type SuffixAccounts struct{}

func (SuffixAccounts) IsGPU(account string) bool {
	return strings.HasSuffix(account, "_gpu")
}
