package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	errs "github.com/amirhossein-jamali/credit-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/credit-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/api/middleware"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/api/response"
)

// ChatHandler handles metered completion requests
type ChatHandler struct {
	usageUseCase usecase.UsageUseCase
	logger       coreport.Logger
}

// NewChatHandler creates a new chat handler instance
func NewChatHandler(usageUseCase usecase.UsageUseCase, logger coreport.Logger) *ChatHandler {
	return &ChatHandler{
		usageUseCase: usageUseCase,
		logger:       logger,
	}
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, errs.ErrInvalidPrompt)
		return
	}

	email := middleware.EmailFrom(c)
	result, err := h.usageUseCase.Consume(c.Request.Context(), email, req.Prompt)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	if !result.Recorded {
		h.logger.Warn("Answer returned without a stored charge", map[string]any{
			"email":      email,
			"request_id": middleware.RequestIDFrom(c),
		})
	}

	c.JSON(http.StatusOK, dto.ChatResponse{
		Answer:  result.Answer,
		Credits: result.Credits,
	})
}
