package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/service"
	"github.com/noah-isme/edu-center-api/pkg/response"
)

// FinanceHandler exposes profit reporting endpoints.
type FinanceHandler struct {
	finance *service.FinanceService
}

// NewFinanceHandler constructs FinanceHandler.
func NewFinanceHandler(finance *service.FinanceService) *FinanceHandler {
	return &FinanceHandler{finance: finance}
}

// ClassProfit godoc
// @Summary Profit breakdown for one class
// @Description Gross profit subtracts the allocated overhead share; net profit
// @Description subtracts every cost touching the class in full.
// @Tags Finance
// @Produce json
// @Param id path string true "Class ID"
// @Param from query string false "Period start (YYYY-MM-DD)"
// @Param to query string false "Period end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /finance/classes/{id}/profit [get]
func (h *FinanceHandler) ClassProfit(c *gin.Context) {
	period, err := periodFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.finance.ClassProfit(c.Request.Context(), c.Param("id"), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// AllClassesProfit godoc
// @Summary Profit breakdown for every class
// @Tags Finance
// @Produce json
// @Param from query string false "Period start (YYYY-MM-DD)"
// @Param to query string false "Period end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /finance/profit [get]
func (h *FinanceHandler) AllClassesProfit(c *gin.Context) {
	period, err := periodFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summaries, err := h.finance.AllClassesProfit(c.Request.Context(), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil)
}

// PeriodReport godoc
// @Summary Financial summary for a bounded period
// @Tags Finance
// @Produce json
// @Param from query string true "Period start (YYYY-MM-DD)"
// @Param to query string true "Period end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /finance/summary [get]
func (h *FinanceHandler) PeriodReport(c *gin.Context) {
	period, err := periodFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, fromCache, err := h.finance.PeriodReport(c.Request.Context(), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil, map[string]interface{}{"cache": fromCache})
}

// Reconcile godoc
// @Summary Cross-check per-class figures against period totals
// @Tags Finance
// @Produce json
// @Param from query string true "Period start (YYYY-MM-DD)"
// @Param to query string true "Period end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /finance/reconcile [get]
func (h *FinanceHandler) Reconcile(c *gin.Context) {
	period, err := periodFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.finance.Reconcile(c.Request.Context(), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
