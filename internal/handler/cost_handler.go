package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/models"
	"github.com/noah-isme/edu-center-api/internal/service"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
	"github.com/noah-isme/edu-center-api/pkg/response"
)

// CostHandler exposes expense tracking endpoints.
type CostHandler struct {
	costs *service.CostService
}

// NewCostHandler constructs CostHandler.
func NewCostHandler(costs *service.CostService) *CostHandler {
	return &CostHandler{costs: costs}
}

// List godoc
// @Summary List costs
// @Tags Costs
// @Produce json
// @Param class_id query string false "Filter by class"
// @Param location_id query string false "Filter by location"
// @Param kind query string false "DIRECT or OVERHEAD"
// @Param from query string false "Incurred on or after (YYYY-MM-DD)"
// @Param to query string false "Incurred on or before (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /costs [get]
func (h *CostHandler) List(c *gin.Context) {
	var filter models.CostFilter
	filter.ClassID = c.Query("class_id")
	filter.LocationID = c.Query("location_id")
	filter.Kind = models.CostKind(strings.ToUpper(c.Query("kind")))
	if raw := c.Query("from"); raw != "" {
		if from, err := time.Parse("2006-01-02", raw); err == nil {
			filter.From = &from
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err := time.Parse("2006-01-02", raw); err == nil {
			filter.To = &to
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	costs, pagination, err := h.costs.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, costs, pagination)
}

// Record godoc
// @Summary Record a cost
// @Description DIRECT costs must target a class; OVERHEAD costs must not.
// @Tags Costs
// @Accept json
// @Produce json
// @Param payload body service.RecordCostRequest true "Cost payload"
// @Success 201 {object} response.Envelope
// @Router /costs [post]
func (h *CostHandler) Record(c *gin.Context) {
	var req service.RecordCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cost, err := h.costs.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cost)
}

// Delete godoc
// @Summary Delete a cost
// @Tags Costs
// @Produce json
// @Param id path string true "Cost ID"
// @Success 204
// @Router /costs/{id} [delete]
func (h *CostHandler) Delete(c *gin.Context) {
	if err := h.costs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
