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

// VoucherHandler handles redemption and the admin voucher endpoints
type VoucherHandler struct {
	voucherUseCase usecase.VoucherUseCase
	listLimit      int
	logger         coreport.Logger
}

// NewVoucherHandler creates a new voucher handler instance
func NewVoucherHandler(voucherUseCase usecase.VoucherUseCase, listLimit int, logger coreport.Logger) *VoucherHandler {
	return &VoucherHandler{
		voucherUseCase: voucherUseCase,
		listLimit:      listLimit,
		logger:         logger,
	}
}

// Redeem handles POST /api/redeem
func (h *VoucherHandler) Redeem(c *gin.Context) {
	var req dto.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.logger, errs.ErrInvalidVoucherCode)
		return
	}

	result, err := h.voucherUseCase.Redeem(c.Request.Context(), req.Code, middleware.EmailFrom(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.RedeemResponse{
		Added:   result.CreditsAdded,
		Credits: result.Credits,
	})
}

// ListKeys handles GET /api/admin/keys
func (h *VoucherHandler) ListKeys(c *gin.Context) {
	vouchers, err := h.voucherUseCase.ListRecent(c.Request.Context(), h.listLimit)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	keys := make([]dto.VoucherResponse, 0, len(vouchers))
	for _, v := range vouchers {
		keys = append(keys, dto.NewVoucherResponse(v))
	}
	c.JSON(http.StatusOK, dto.VoucherListResponse{Keys: keys})
}

// CreateKey handles POST /api/admin/keys
func (h *VoucherHandler) CreateKey(c *gin.Context) {
	var req dto.IssueVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid voucher request format", map[string]any{
			"error": err.Error(),
		})
		response.Error(c, h.logger, errs.ErrInvalidRequest)
		return
	}

	voucher, err := h.voucherUseCase.Issue(c.Request.Context(), usecase.IssueVoucherRequest{
		CreditAmount: req.CreditAmount,
		MaxUses:      req.MaxUses,
		IssuerEmail:  middleware.EmailFrom(c),
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.IssueVoucherResponse{Key: dto.NewVoucherResponse(voucher)})
}
