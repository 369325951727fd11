package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/credit-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/api/middleware"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/api/response"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/auth"
)

// SessionIssuer signs sessions for accounts
type SessionIssuer interface {
	Issue(account *entity.Account) (*auth.Session, error)
}

// AccountHandler handles sign-in and the account view
type AccountHandler struct {
	accountUseCase usecase.AccountUseCase
	sessions       SessionIssuer
	logger         coreport.Logger
}

// NewAccountHandler creates a new account handler instance
func NewAccountHandler(
	accountUseCase usecase.AccountUseCase,
	sessions SessionIssuer,
	logger coreport.Logger,
) *AccountHandler {
	return &AccountHandler{
		accountUseCase: accountUseCase,
		sessions:       sessions,
		logger:         logger,
	}
}

// CreateSession handles POST /api/auth/session.
// The sign-in service posts the provider profile; the account is upserted and a session returned.
func (h *AccountHandler) CreateSession(c *gin.Context) {
	var req dto.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid session request format", map[string]any{
			"error": err.Error(),
		})
		response.Error(c, h.logger, errs.ErrInvalidRequest)
		return
	}

	account, err := h.accountUseCase.UpsertFromProfile(c.Request.Context(), req.Profile())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	session, err := h.sessions.Issue(account)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Account:   dto.NewAccountResponse(account),
	})
}

// Me handles GET /api/me with a fresh read of the caller's account
func (h *AccountHandler) Me(c *gin.Context) {
	account, err := h.accountUseCase.LookupByEmail(c.Request.Context(), middleware.EmailFrom(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAccountResponse(account))
}
