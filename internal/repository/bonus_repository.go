package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-pay-api/internal/models"
)

// BonusRepository reads bonus awards, quality assessments and permission
// requests for salary computation.
type BonusRepository struct {
	db *sqlx.DB
}

// NewBonusRepository constructs the repository.
func NewBonusRepository(db *sqlx.DB) *BonusRepository {
	return &BonusRepository{db: db}
}

// ListBonuses returns manual bonus records awarded inside [from, to].
func (r *BonusRepository) ListBonuses(ctx context.Context, schoolID, teacherID string, from, to time.Time) ([]models.BonusRecord, error) {
	const query = `SELECT id, school_id, teacher_id, period_label, awarded_at, amount, reason
FROM bonus_records
WHERE school_id = $1 AND teacher_id = $2 AND awarded_at BETWEEN $3 AND $4
ORDER BY awarded_at ASC`
	var bonuses []models.BonusRecord
	if err := r.db.SelectContext(ctx, &bonuses, query, schoolID, teacherID, from, to); err != nil {
		return nil, fmt.Errorf("list bonus records: %w", err)
	}
	return bonuses, nil
}

// ListAssessments returns quality assessments whose week starts inside [from, to].
func (r *BonusRepository) ListAssessments(ctx context.Context, schoolID, teacherID string, from, to time.Time) ([]models.QualityAssessment, error) {
	const query = `SELECT id, school_id, teacher_id, week_start, supervisor_feedback,
       examiner_rating, student_pass_rate, overall_quality,
       manager_approved, manager_override, bonus_awarded
FROM quality_assessments
WHERE school_id = $1 AND teacher_id = $2 AND week_start BETWEEN $3 AND $4
ORDER BY week_start ASC`
	var assessments []models.QualityAssessment
	if err := r.db.SelectContext(ctx, &assessments, query, schoolID, teacherID, from, to); err != nil {
		return nil, fmt.Errorf("list quality assessments: %w", err)
	}
	return assessments, nil
}

// ListApprovedPermissions returns approved permission requests overlapping
// [from, to].
func (r *BonusRepository) ListApprovedPermissions(ctx context.Context, schoolID, teacherID string, from, to time.Time) ([]models.PermissionRequest, error) {
	const query = `SELECT id, school_id, teacher_id, date_from, date_to, status
FROM permission_requests
WHERE school_id = $1 AND teacher_id = $2 AND status = $3
  AND date_from <= $5 AND date_to >= $4
ORDER BY date_from ASC`
	var permissions []models.PermissionRequest
	if err := r.db.SelectContext(ctx, &permissions, query, schoolID, teacherID, models.PermissionApproved, from, to); err != nil {
		return nil, fmt.Errorf("list approved permissions: %w", err)
	}
	return permissions, nil
}
