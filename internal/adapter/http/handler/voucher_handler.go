package handler

import (
	"hotspot-fulfillment/internal/adapter/http/dto"
	"hotspot-fulfillment/internal/core/ports"
	"hotspot-fulfillment/pkg/apperror"
	"hotspot-fulfillment/pkg/response"

	"github.com/gin-gonic/gin"
)

// VoucherHandler handles voucher pool administration endpoints.
type VoucherHandler struct {
	voucherSvc ports.VoucherService
}

// NewVoucherHandler creates a new VoucherHandler.
func NewVoucherHandler(voucherSvc ports.VoucherService) *VoucherHandler {
	return &VoucherHandler{voucherSvc: voucherSvc}
}

// Import handles POST /api/v1/vouchers/import.
func (h *VoucherHandler) Import(c *gin.Context) {
	var req dto.VoucherImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	batch := make([]ports.VoucherImport, 0, len(req.Vouchers))
	for _, row := range req.Vouchers {
		batch = append(batch, ports.VoucherImport{
			Code:     row.Code,
			Username: row.Username,
			Password: row.Password,
		})
	}

	result, err := h.voucherSvc.Import(c.Request.Context(), req.PackageID, req.ResellerID, batch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Availability handles GET /api/v1/vouchers/availability.
func (h *VoucherHandler) Availability(c *gin.Context) {
	var q dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	count, err := h.voucherSvc.Availability(c.Request.Context(), q.PackageID, q.ResellerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.AvailabilityResponse{
		PackageID:  q.PackageID,
		ResellerID: q.ResellerID,
		Available:  count,
	})
}
