package handler

import (
	"hotspot-fulfillment/internal/adapter/http/dto"
	"hotspot-fulfillment/internal/core/ports"
	"hotspot-fulfillment/pkg/apperror"
	"hotspot-fulfillment/pkg/response"

	"github.com/gin-gonic/gin"
)

// FulfillmentHandler handles operator fulfillment endpoints.
type FulfillmentHandler struct {
	fulfillSvc ports.FulfillmentService
}

// NewFulfillmentHandler creates a new FulfillmentHandler.
func NewFulfillmentHandler(fulfillSvc ports.FulfillmentService) *FulfillmentHandler {
	return &FulfillmentHandler{fulfillSvc: fulfillSvc}
}

// Fulfill handles POST /api/v1/fulfillments/:ref — manual re-run for a
// stuck transaction.
func (h *FulfillmentHandler) Fulfill(c *gin.Context) {
	ref := c.Param("ref")
	if ref == "" {
		response.Error(c, apperror.Validation("transaction reference is required"))
		return
	}

	result, err := h.fulfillSvc.Fulfill(c.Request.Context(), ref)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FromFulfillResult(ref, result))
}

// Resend handles POST /api/v1/fulfillments/:ref/resend — re-deliver
// the bound voucher without touching state.
func (h *FulfillmentHandler) Resend(c *gin.Context) {
	ref := c.Param("ref")
	if ref == "" {
		response.Error(c, apperror.Validation("transaction reference is required"))
		return
	}

	result, err := h.fulfillSvc.Resend(c.Request.Context(), ref)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.DeliveryResponse{
		Success:           result.Success,
		Gateway:           result.Gateway,
		ProviderMessageID: result.ProviderMessageID,
		Error:             result.Error,
	})
}

// Get handles GET /api/v1/fulfillments/:ref — transaction state plus
// the delivery audit trail.
func (h *FulfillmentHandler) Get(c *gin.Context) {
	ref := c.Param("ref")
	if ref == "" {
		response.Error(c, apperror.Validation("transaction reference is required"))
		return
	}

	tx, attempts, err := h.fulfillSvc.Attempts(c.Request.Context(), ref)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.AttemptsResponse{
		Transaction: dto.FromTransaction(tx),
		Attempts:    dto.FromDeliveryAttempts(attempts),
	})
}
