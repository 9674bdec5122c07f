package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-pay-api/internal/models"
	"github.com/noah-isme/school-pay-api/internal/service"
	appErrors "github.com/noah-isme/school-pay-api/pkg/errors"
	"github.com/noah-isme/school-pay-api/pkg/response"
)

// SalaryHandler exposes teacher salary computation endpoints.
type SalaryHandler struct {
	salaries *service.SalaryService
	settings *service.SettingsService
}

// NewSalaryHandler constructs the handler.
func NewSalaryHandler(salaries *service.SalaryService, settings *service.SettingsService) *SalaryHandler {
	return &SalaryHandler{salaries: salaries, settings: settings}
}

// TeacherSalary godoc
// @Summary Compute a teacher's salary for a period
// @Tags Salaries
// @Produce json
// @Param id path string true "Teacher ID"
// @Param from query string true "Period start (YYYY-MM-DD)"
// @Param to query string true "Period end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /salaries/teachers/{id} [get]
func (h *SalaryHandler) TeacherSalary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.authorizeTeacherAccess(c, claims); err != nil {
		response.Error(c, err)
		return
	}
	from, to, err := parsePeriod(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.salaries.ComputeTeacherSalary(c.Request.Context(), claims.SchoolID, c.Param("id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// TeacherSalaryDetail godoc
// @Summary Itemized salary computation with per-day assessments
// @Tags Salaries
// @Produce json
// @Param id path string true "Teacher ID"
// @Param from query string true "Period start (YYYY-MM-DD)"
// @Param to query string true "Period end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /salaries/teachers/{id}/detail [get]
func (h *SalaryHandler) TeacherSalaryDetail(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.authorizeTeacherAccess(c, claims); err != nil {
		response.Error(c, err)
		return
	}
	from, to, err := parsePeriod(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	detail, err := h.salaries.ComputeTeacherSalaryDetail(c.Request.Context(), claims.SchoolID, c.Param("id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// authorizeTeacherAccess gates teacher self-access behind the tenant's salary
// visibility toggle. Admins and managers always pass.
func (h *SalaryHandler) authorizeTeacherAccess(c *gin.Context, claims *models.JWTClaims) error {
	if claims.Role != models.RoleTeacher {
		return nil
	}
	if c.Param("id") != claims.UserID {
		return appErrors.ErrForbidden
	}
	settings, err := h.settings.GetSettings(c.Request.Context(), claims.SchoolID)
	if err != nil {
		return err
	}
	if !settings.TeacherSalaryVisible {
		return appErrors.Clone(appErrors.ErrForbidden, "salary visibility is disabled for this school")
	}
	return nil
}
