package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hostel-api/internal/service"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
	"github.com/noah-isme/hostel-api/pkg/response"
)

// FeeHandler exposes fee endpoints.
type FeeHandler struct {
	fees *service.FeeService
}

// NewFeeHandler constructs FeeHandler.
func NewFeeHandler(fees *service.FeeService) *FeeHandler {
	return &FeeHandler{fees: fees}
}

// List godoc
// @Summary List fees
// @Tags Fees
// @Security BearerAuth
// @Produce json
// @Param status query string false "All, Paid or Due"
// @Success 200 {object} response.Envelope
// @Router /fees [get]
func (h *FeeHandler) List(c *gin.Context) {
	fees, err := h.fees.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fees, nil)
}

// UpdateStatus godoc
// @Summary Set fee status
// @Tags Fees
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Fee ID"
// @Param payload body service.UpdateFeeStatusRequest true "New status"
// @Success 200 {object} response.Envelope
// @Router /fees/{id}/status [patch]
func (h *FeeHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateFeeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, err := h.fees.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}
