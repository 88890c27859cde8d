package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/service"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
	"github.com/noah-isme/edu-center-api/pkg/response"
)

// RentalHandler exposes facility rental endpoints.
type RentalHandler struct {
	rentals *service.RentalService
}

// NewRentalHandler constructs RentalHandler.
func NewRentalHandler(rentals *service.RentalService) *RentalHandler {
	return &RentalHandler{rentals: rentals}
}

// List godoc
// @Summary List rental agreements
// @Tags Rentals
// @Produce json
// @Param active query bool false "Only agreements still running"
// @Success 200 {object} response.Envelope
// @Router /rentals [get]
func (h *RentalHandler) List(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))
	rentals, err := h.rentals.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rentals, nil)
}

// Create godoc
// @Summary Register a rental agreement
// @Tags Rentals
// @Accept json
// @Produce json
// @Param payload body service.CreateRentalRequest true "Rental payload"
// @Success 201 {object} response.Envelope
// @Router /rentals [post]
func (h *RentalHandler) Create(c *gin.Context) {
	var req service.CreateRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rental, err := h.rentals.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rental)
}

type terminateRentalRequest struct {
	EndDate time.Time `json:"end_date" binding:"required"`
}

// Terminate godoc
// @Summary End a rental agreement
// @Tags Rentals
// @Accept json
// @Produce json
// @Param id path string true "Rental ID"
// @Param payload body terminateRentalRequest true "Termination payload"
// @Success 200 {object} response.Envelope
// @Router /rentals/{id}/terminate [post]
func (h *RentalHandler) Terminate(c *gin.Context) {
	var req terminateRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rental, err := h.rentals.Terminate(c.Request.Context(), c.Param("id"), req.EndDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rental, nil)
}

// MaterializeMonth godoc
// @Summary Post monthly rent as overhead costs
// @Description Writes one overhead cost per agreement covering the month.
// @Description Safe to re-run; already-posted months are skipped.
// @Tags Rentals
// @Produce json
// @Param month query string true "Month (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /rentals/materialize [post]
func (h *RentalHandler) MaterializeMonth(c *gin.Context) {
	month, err := time.Parse("2006-01", c.Query("month"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid month, expected YYYY-MM"))
		return
	}
	result, err := h.rentals.MaterializeMonth(c.Request.Context(), month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
