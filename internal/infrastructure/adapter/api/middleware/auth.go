package middleware

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	errs "github.com/amirhossein-jamali/credit-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/api/response"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/auth"
)

// InternalKeyHeader authenticates the sign-in service calling the session endpoint
const InternalKeyHeader = "X-Internal-Key"

const emailKey = "email"

// SessionParser verifies session tokens
type SessionParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Authenticate requires a valid bearer session and stores its email on the context
func Authenticate(sessions SessionParser, logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, logger, errs.ErrUnauthenticated)
			return
		}

		claims, err := sessions.Parse(token)
		if err != nil {
			logger.Debug("Session rejected", map[string]any{
				"error":      err.Error(),
				"request_id": RequestIDFrom(c),
			})
			response.Error(c, logger, errs.ErrUnauthenticated)
			return
		}

		c.Set(emailKey, claims.Email)
		c.Next()
	}
}

// EmailFrom returns the email stored by Authenticate
func EmailFrom(c *gin.Context) string {
	return c.GetString(emailKey)
}

// RequireAdmin re-reads the caller's account and refuses non-admins.
// Admin rights are never taken from the token.
func RequireAdmin(accounts usecase.AccountUseCase, logger coreport.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := accounts.LookupByEmail(c.Request.Context(), EmailFrom(c))
		if err != nil {
			if errs.IsNotFoundError(err) {
				response.Error(c, logger, errs.ErrForbidden)
				return
			}
			response.Error(c, logger, err)
			return
		}
		if !account.IsAdmin {
			logger.Warn("Admin access denied", map[string]any{
				"email": account.Email,
				"path":  c.FullPath(),
			})
			response.Error(c, logger, errs.ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequireInternalKey admits only callers presenting key in X-Internal-Key
func RequireInternalKey(key string, logger coreport.Logger) gin.HandlerFunc {
	expected := []byte(key)
	return func(c *gin.Context) {
		presented := []byte(c.GetHeader(InternalKeyHeader))
		if len(expected) == 0 || subtle.ConstantTimeCompare(presented, expected) != 1 {
			response.Error(c, logger, errs.ErrUnauthenticated)
			return
		}
		c.Next()
	}
}

// Limiter decides whether a request fits into the caller's budget
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit limits authenticated callers per route. Limiter failures let the request through.
func RateLimit(limiter Limiter, keyFunc func(email, route string) string, limit int, window time.Duration, logger coreport.Logger) gin.HandlerFunc {
	if limiter == nil || limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		key := keyFunc(EmailFrom(c), c.FullPath())
		allowed, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("Rate limiter unavailable", map[string]any{
				"error": err.Error(),
				"key":   key,
			})
			c.Next()
			return
		}
		if !allowed {
			response.Error(c, logger, errs.ErrRateLimited)
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
