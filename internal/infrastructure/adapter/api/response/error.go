package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	errs "github.com/amirhossein-jamali/credit-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/api/dto"
)

// Status maps a domain error to its HTTP status code
func Status(err error) int {
	switch errs.KindOf(err) {
	case errs.KindUnauthenticated:
		return http.StatusUnauthorized
	case errs.KindForbidden:
		return http.StatusForbidden
	case errs.KindNotFound:
		// A signed-in identity without an account row is refused, not "missing".
		if errors.Is(err, errs.ErrAccountNotFound) {
			return http.StatusForbidden
		}
		return http.StatusNotFound
	case errs.KindBusinessRuleViolation:
		if errors.Is(err, errs.ErrCreditsExhausted) {
			return http.StatusForbidden
		}
		return http.StatusBadRequest
	case errs.KindRateLimited:
		return http.StatusTooManyRequests
	case errs.KindUpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Body builds the error body for err
func Body(err error) dto.ErrorResponse {
	return dto.ErrorResponse{
		Code:    errs.ErrorCode(err),
		Reason:  errs.Reason(err),
		Message: errs.Message(err),
	}
}

// Error aborts the request with the status and body for err.
// Server-side failures are logged with their full detail; the body never carries it.
func Error(c *gin.Context, logger coreport.Logger, err error) {
	status := Status(err)
	if status >= http.StatusInternalServerError {
		fields := map[string]any{
			"path":   c.FullPath(),
			"reason": errs.Reason(err),
			"error":  err.Error(),
		}
		var upstreamErr *errs.UpstreamError
		if errors.As(err, &upstreamErr) {
			for k, v := range upstreamErr.LogFields() {
				fields[k] = v
			}
		}
		logger.Error("Request failed", fields)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, Body(err))
}
