package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-pay-api/internal/dto"
	"github.com/noah-isme/school-pay-api/internal/service"
	appErrors "github.com/noah-isme/school-pay-api/pkg/errors"
	"github.com/noah-isme/school-pay-api/pkg/response"
)

// StatementHandler exposes asynchronous payout statement endpoints.
type StatementHandler struct {
	statements *service.StatementService
}

// NewStatementHandler constructs the handler.
func NewStatementHandler(statements *service.StatementService) *StatementHandler {
	return &StatementHandler{statements: statements}
}

// Create godoc
// @Summary Queue a payout statement export
// @Tags Statements
// @Accept json
// @Produce json
// @Param request body dto.StatementRequest true "Statement request"
// @Success 201 {object} response.Envelope
// @Router /statements [post]
func (h *StatementHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.StatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid statement request"))
		return
	}
	job, err := h.statements.CreateJob(c.Request.Context(), claims.SchoolID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, job)
}

// Status godoc
// @Summary Poll a statement job
// @Tags Statements
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /statements/{id} [get]
func (h *StatementHandler) Status(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	status, err := h.statements.GetStatus(c.Request.Context(), claims.SchoolID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a finished statement via signed token
// @Tags Statements
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Router /export/{token} [get]
func (h *StatementHandler) Download(c *gin.Context) {
	path, filename, err := h.statements.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(path, filename)
}
