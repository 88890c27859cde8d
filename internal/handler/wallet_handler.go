package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/edu-center-api/internal/service"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
	"github.com/noah-isme/edu-center-api/pkg/response"
)

// WalletHandler exposes student prepaid balance endpoints.
type WalletHandler struct {
	wallets *service.WalletService
}

// NewWalletHandler constructs WalletHandler.
func NewWalletHandler(wallets *service.WalletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// Balance godoc
// @Summary Get a student's wallet balance
// @Tags Wallets
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/wallet [get]
func (h *WalletHandler) Balance(c *gin.Context) {
	wallet, err := h.wallets.Balance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, wallet, nil)
}

// TopUp godoc
// @Summary Top up a student's wallet
// @Tags Wallets
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.TopUpRequest true "Top-up payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/wallet/topup [post]
func (h *WalletHandler) TopUp(c *gin.Context) {
	var req service.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	wallet, err := h.wallets.TopUp(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, wallet, nil)
}

type deductRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reference string          `json:"reference"`
}

// Deduct godoc
// @Summary Deduct from a student's wallet
// @Tags Wallets
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body deductRequest true "Deduction payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/wallet/deduct [post]
func (h *WalletHandler) Deduct(c *gin.Context) {
	var req deductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	reference := req.Reference
	if reference == "" {
		reference = "manual adjustment"
	}
	if err := h.wallets.Deduct(c.Request.Context(), c.Param("id"), req.Amount, reference); err != nil {
		response.Error(c, err)
		return
	}
	wallet, err := h.wallets.Balance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, wallet, nil)
}

// Transactions godoc
// @Summary List wallet transactions
// @Tags Wallets
// @Produce json
// @Param id path string true "Student ID"
// @Param limit query int false "Max rows"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/wallet/transactions [get]
func (h *WalletHandler) Transactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	transactions, err := h.wallets.Transactions(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transactions, nil)
}
