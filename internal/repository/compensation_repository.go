package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-pay-api/internal/models"
)

// CompensationRepository reads the immutable facts salary computations run
// over: class-link observations and teacher-student assignment intervals.
type CompensationRepository struct {
	db *sqlx.DB
}

// NewCompensationRepository constructs the repository.
func NewCompensationRepository(db *sqlx.DB) *CompensationRepository {
	return &CompensationRepository{db: db}
}

// ListClassFacts returns every class fact for the teacher inside [from, to].
func (r *CompensationRepository) ListClassFacts(ctx context.Context, schoolID, teacherID string, from, to time.Time) ([]models.ClassFact, error) {
	const query = `SELECT id, school_id, teacher_id, student_id, class_date, slot_start,
       sent_at, started_at, clicked_at, attendance_status
FROM class_facts
WHERE school_id = $1 AND teacher_id = $2 AND class_date BETWEEN $3 AND $4
ORDER BY class_date ASC, student_id ASC`
	var facts []models.ClassFact
	if err := r.db.SelectContext(ctx, &facts, query, schoolID, teacherID, from, to); err != nil {
		return nil, fmt.Errorf("list class facts: %w", err)
	}
	return facts, nil
}

// ListAssignments returns assignment intervals that touch [from, to]. Open
// intervals (no end date) always match once started.
func (r *CompensationRepository) ListAssignments(ctx context.Context, schoolID, teacherID string, from, to time.Time) ([]models.AssignmentInterval, error) {
	const query = `SELECT id, school_id, teacher_id, student_id, time_slot, day_package,
       start_date, end_date, created_at
FROM assignment_intervals
WHERE school_id = $1 AND teacher_id = $2
  AND start_date <= $4 AND (end_date IS NULL OR end_date >= $3)
ORDER BY student_id ASC, start_date ASC`
	var intervals []models.AssignmentInterval
	if err := r.db.SelectContext(ctx, &intervals, query, schoolID, teacherID, from, to); err != nil {
		return nil, fmt.Errorf("list assignment intervals: %w", err)
	}
	return intervals, nil
}
