package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-pay-api/internal/dto"
	"github.com/noah-isme/school-pay-api/internal/service"
	appErrors "github.com/noah-isme/school-pay-api/pkg/errors"
	"github.com/noah-isme/school-pay-api/pkg/response"
)

// SettingsHandler administers per-tenant engine configuration.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler constructs the handler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GetSettings godoc
// @Summary Read the school's engine settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	settings, err := h.settings.GetSettings(c.Request.Context(), claims.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// UpdateSettings godoc
// @Summary Update the school's engine settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body dto.UpdateTenantSettingsRequest true "Settings patch"
// @Success 200 {object} response.Envelope
// @Router /settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateTenantSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings request"))
		return
	}
	settings, err := h.settings.UpdateSettings(c.Request.Context(), claims.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// ReplaceLatenessPolicy godoc
// @Summary Replace the school's lateness tier policy
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body dto.LatenessPolicyRequest true "Policy"
// @Success 200 {object} response.Envelope
// @Router /settings/lateness-policy [put]
func (h *SettingsHandler) ReplaceLatenessPolicy(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.LatenessPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lateness policy request"))
		return
	}
	policy, err := h.settings.ReplaceLatenessPolicy(c.Request.Context(), claims.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, policy, nil)
}

// ReplaceRateTable godoc
// @Summary Upsert package salary rates and deduction bases
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body dto.RateTableRequest true "Rate table"
// @Success 204 "No Content"
// @Router /settings/rates [put]
func (h *SettingsHandler) ReplaceRateTable(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.RateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rate table request"))
		return
	}
	if err := h.settings.ReplaceRateTable(c.Request.Context(), claims.SchoolID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// PurgeCache godoc
// @Summary Drop every cached computation for the school
// @Tags Settings
// @Produce json
// @Success 204 "No Content"
// @Router /settings/cache/purge [post]
func (h *SettingsHandler) PurgeCache(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.settings.PurgeTenantCache(c.Request.Context(), claims.SchoolID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
