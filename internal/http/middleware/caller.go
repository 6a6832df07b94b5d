// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves who is calling. Accounts and sessions live in an
// upstream auth proxy; by the time a request reaches this service the proxy
// has set X-User-ID and X-User-Tier. Requests without them are anonymous
// and get the default tier.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/civics-backend/internal/access"
)

// Headers set by the auth proxy.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserTier = "X-User-Tier"
)

const callerKey = "caller"

// CallerOptions controls tier resolution.
//
// ForceTier, when set, overrides every caller's tier (stub mode for local
// development and demos). DefaultTier applies to anonymous callers and to
// requests carrying an unknown tier.
type CallerOptions struct {
	ForceTier   string
	DefaultTier string
}

// Caller resolves the access.Caller for each request and stores it in the
// Gin context. The tier header is honoured only alongside a user id.
func Caller(opts CallerOptions) gin.HandlerFunc {
	def, ok := access.ParseTier(opts.DefaultTier)
	if !ok {
		def = access.TierFree
	}
	forced, force := access.ParseTier(opts.ForceTier)

	return func(c *gin.Context) {
		caller := access.Caller{
			Tier:   def,
			UserID: strings.TrimSpace(c.GetHeader(HeaderUserID)),
		}
		switch {
		case force:
			caller.Tier = forced
		case caller.UserID != "":
			if t, ok := access.ParseTier(c.GetHeader(HeaderUserTier)); ok {
				caller.Tier = t
			}
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

// CallerFrom returns the caller resolved by Caller().
func CallerFrom(c *gin.Context) (access.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return access.Caller{}, false
	}
	caller, ok := v.(access.Caller)
	return caller, ok
}

// MustCaller returns the resolved caller, or an anonymous free-tier caller
// when Caller() was not installed.
func MustCaller(c *gin.Context) access.Caller {
	if caller, ok := CallerFrom(c); ok {
		return caller
	}
	return access.Caller{Tier: access.TierFree}
}
