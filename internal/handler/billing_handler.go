package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-pay-api/internal/dto"
	"github.com/noah-isme/school-pay-api/internal/service"
	appErrors "github.com/noah-isme/school-pay-api/pkg/errors"
	"github.com/noah-isme/school-pay-api/pkg/response"
)

// BillingHandler exposes school subscription billing endpoints.
type BillingHandler struct {
	billing *service.BillingService
}

// NewBillingHandler constructs the handler.
func NewBillingHandler(billing *service.BillingService) *BillingHandler {
	return &BillingHandler{billing: billing}
}

// SchoolBill godoc
// @Summary Price the school's current subscription period
// @Tags Billing
// @Produce json
// @Param id path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /billing/schools/{id} [get]
func (h *BillingHandler) SchoolBill(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	schoolID := c.Param("id")
	if schoolID != claims.SchoolID {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "bill belongs to another school"))
		return
	}
	result, err := h.billing.ComputeSchoolBill(c.Request.Context(), schoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Preview godoc
// @Summary Price a hypothetical subscription
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body dto.BillingPreviewRequest true "Preview request"
// @Success 200 {object} response.Envelope
// @Router /billing/preview [post]
func (h *BillingHandler) Preview(c *gin.Context) {
	var req dto.BillingPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preview request"))
		return
	}
	result, err := h.billing.PreviewBill(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
