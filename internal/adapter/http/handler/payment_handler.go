package handler

import (
	"hotspot-fulfillment/internal/adapter/http/dto"
	"hotspot-fulfillment/internal/core/domain"
	"hotspot-fulfillment/internal/core/ports"
	"hotspot-fulfillment/pkg/apperror"
	"hotspot-fulfillment/pkg/response"

	"github.com/gin-gonic/gin"
)

// PaymentHandler handles the public payment-gateway callback.
type PaymentHandler struct {
	fulfillSvc ports.FulfillmentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(fulfillSvc ports.FulfillmentService) *PaymentHandler {
	return &PaymentHandler{fulfillSvc: fulfillSvc}
}

// Callback handles POST /api/v1/payments/callback. It records the
// notification and, when the payment is confirmed, fulfills in-line so
// the voucher SMS goes out on the callback itself rather than on the
// next sweep pass.
func (h *PaymentHandler) Callback(c *gin.Context) {
	var req dto.PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	n := domain.PaymentNotification{
		Ref:        req.Ref,
		Status:     domain.TransactionStatus(req.Status),
		Phone:      req.Phone,
		PackageID:  req.PackageID,
		ResellerID: req.ResellerID,
		Amount:     req.Amount,
	}
	if req.Receipt != "" {
		n.Receipt = &req.Receipt
	}

	if err := h.fulfillSvc.RecordNotification(c.Request.Context(), n); err != nil {
		response.Error(c, err)
		return
	}

	if n.Status != domain.TransactionStatusCompleted {
		response.OK(c, dto.CallbackResponse{Ref: req.Ref, Recorded: true})
		return
	}

	result, err := h.fulfillSvc.Fulfill(c.Request.Context(), req.Ref)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FromFulfillResult(req.Ref, result))
}
