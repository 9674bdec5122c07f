package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-pay-api/internal/models"
	appErrors "github.com/noah-isme/school-pay-api/pkg/errors"
)

// StatementRepository persists payout statement export jobs.
type StatementRepository struct {
	db *sqlx.DB
}

// NewStatementRepository constructs the repository.
func NewStatementRepository(db *sqlx.DB) *StatementRepository {
	return &StatementRepository{db: db}
}

// Insert stores a new job row.
func (r *StatementRepository) Insert(ctx context.Context, job models.StatementJob) error {
	const query = `INSERT INTO statement_jobs (id, params, status, progress, created_by, created_at)
VALUES (:id, :params, :status, :progress, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("insert statement job: %w", err)
	}
	return nil
}

// Get fetches a job by id.
func (r *StatementRepository) Get(ctx context.Context, id string) (models.StatementJob, error) {
	const query = `SELECT id, params, status, progress, result_url, created_by, created_at, finished_at, error_message
FROM statement_jobs WHERE id = $1`
	var job models.StatementJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.StatementJob{}, appErrors.Clone(appErrors.ErrNotFound,
				fmt.Sprintf("statement job %s not found", id))
		}
		return models.StatementJob{}, fmt.Errorf("get statement job: %w", err)
	}
	return job, nil
}

// UpdateStatus transitions a job and records progress.
func (r *StatementRepository) UpdateStatus(ctx context.Context, id string, status models.StatementStatus, progress int) error {
	const query = `UPDATE statement_jobs SET status = $2, progress = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, progress); err != nil {
		return fmt.Errorf("update statement job status: %w", err)
	}
	return nil
}

// MarkFinished finalizes a successful job with its signed download URL.
func (r *StatementRepository) MarkFinished(ctx context.Context, id string, resultURL string) error {
	const query = `UPDATE statement_jobs
SET status = $2, progress = 100, result_url = $3, finished_at = NOW(), error_message = NULL
WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.StatementStatusFinished, resultURL); err != nil {
		return fmt.Errorf("mark statement job finished: %w", err)
	}
	return nil
}

// MarkFailed finalizes a failed job with the error message.
func (r *StatementRepository) MarkFailed(ctx context.Context, id string, message string) error {
	const query = `UPDATE statement_jobs
SET status = $2, finished_at = NOW(), error_message = $3
WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.StatementStatusFailed, message); err != nil {
		return fmt.Errorf("mark statement job failed: %w", err)
	}
	return nil
}

// ListUnfinished returns jobs still queued or processing, oldest first.
func (r *StatementRepository) ListUnfinished(ctx context.Context) ([]models.StatementJob, error) {
	const query = `SELECT id, params, status, progress, result_url, created_by, created_at, finished_at, error_message
FROM statement_jobs
WHERE status IN ($1, $2)
ORDER BY created_at ASC`
	var pending []models.StatementJob
	if err := r.db.SelectContext(ctx, &pending, query, models.StatementStatusQueued, models.StatementStatusProcessing); err != nil {
		return nil, fmt.Errorf("list unfinished statement jobs: %w", err)
	}
	return pending, nil
}
