package dto

import "github.com/noah-isme/school-pay-api/internal/models"

// StatementRequest asks for an asynchronous payout statement export.
type StatementRequest struct {
	TeacherID string `json:"teacherId" binding:"required"`
	From      string `json:"from" binding:"required"`
	To        string `json:"to" binding:"required"`
	Format    string `json:"format" binding:"required,oneof=csv pdf"`
}

// StatementJobResponse acknowledges job creation.
type StatementJobResponse struct {
	ID       string                 `json:"id"`
	Status   models.StatementStatus `json:"status"`
	Progress int                    `json:"progress"`
}

// StatementStatusResponse exposes job progress to pollers.
type StatementStatusResponse struct {
	ID        string                 `json:"id"`
	Status    models.StatementStatus `json:"status"`
	Progress  int                    `json:"progress"`
	ResultURL *string                `json:"resultUrl,omitempty"`
	Error     *string                `json:"error,omitempty"`
}
