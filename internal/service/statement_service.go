package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-pay-api/internal/dto"
	"github.com/noah-isme/school-pay-api/internal/models"
	"github.com/noah-isme/school-pay-api/pkg/config"
	appErrors "github.com/noah-isme/school-pay-api/pkg/errors"
	"github.com/noah-isme/school-pay-api/pkg/jobs"
	"github.com/noah-isme/school-pay-api/pkg/storage"
)

const statementJobKind = "payout_statement"

type statementStore interface {
	Insert(ctx context.Context, job models.StatementJob) error
	Get(ctx context.Context, id string) (models.StatementJob, error)
	UpdateStatus(ctx context.Context, id string, status models.StatementStatus, progress int) error
	MarkFinished(ctx context.Context, id string, resultURL string) error
	MarkFailed(ctx context.Context, id string, message string) error
	ListUnfinished(ctx context.Context) ([]models.StatementJob, error)
}

// StatementService manages asynchronous payout statement exports. Jobs are
// persisted, processed by a worker pool, and downloaded through signed URLs.
type StatementService struct {
	store    statementStore
	exporter *ExportService
	files    *storage.LocalStorage
	signer   *storage.DownloadSigner
	queue    *jobs.Queue
	logger   *zap.Logger
	cfg      config.StatementsConfig
}

// NewStatementService wires the statement pipeline. Start must be called
// before jobs are accepted.
func NewStatementService(store statementStore, exporter *ExportService, files *storage.LocalStorage, signer *storage.DownloadSigner, logger *zap.Logger, cfg config.StatementsConfig) *StatementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &StatementService{
		store:    store,
		exporter: exporter,
		files:    files,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
	s.queue = jobs.NewQueue("statements", s.process, jobs.Options{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool, requeues jobs interrupted by a restart, and
// begins periodic cleanup of expired statement files.
func (s *StatementService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	s.recoverPendingJobs(ctx)
	go s.cleanupLoop(ctx)
}

// Stop drains the worker pool.
func (s *StatementService) Stop() {
	s.queue.Stop()
}

// CreateJob validates the request, persists a queued job, and enqueues it.
func (s *StatementService) CreateJob(ctx context.Context, schoolID, createdBy string, req dto.StatementRequest) (*dto.StatementJobResponse, error) {
	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must be formatted YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", req.To)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must be formatted YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "period end precedes period start")
	}

	job := models.StatementJob{
		ID: uuid.NewString(),
		Params: models.StatementJobParams{
			SchoolID:  schoolID,
			TeacherID: req.TeacherID,
			From:      from,
			To:        to,
			Format:    models.StatementFormat(req.Format),
		},
		Status:    models.StatementStatusQueued,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, job); err != nil {
		return nil, err
	}
	if err := s.enqueue(job.ID); err != nil {
		return nil, err
	}
	return &dto.StatementJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus returns job progress. Jobs are tenant scoped; requests for
// another school's job are rejected rather than hidden.
func (s *StatementService) GetStatus(ctx context.Context, schoolID, jobID string) (*dto.StatementStatusResponse, error) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Params.SchoolID != schoolID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "statement belongs to another school")
	}
	return &dto.StatementStatusResponse{
		ID:        job.ID,
		Status:    job.Status,
		Progress:  job.Progress,
		ResultURL: job.ResultURL,
		Error:     job.ErrorMessage,
	}, nil
}

// ResolveDownload validates a signed token and returns the absolute file path
// plus a download name.
func (s *StatementService) ResolveDownload(ctx context.Context, token string) (string, string, error) {
	jobID, relPath, _, err := s.signer.Verify(token, false)
	if err != nil {
		return "", "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return "", "", err
	}
	if job.Status != models.StatementStatusFinished {
		return "", "", appErrors.Clone(appErrors.ErrNotFound, "statement is not ready")
	}
	downloadName := fmt.Sprintf("statement_%s_%s.%s",
		job.Params.TeacherID, job.Params.From.Format("20060102"), job.Params.Format)
	return s.files.Path(relPath), downloadName, nil
}

func (s *StatementService) enqueue(jobID string) error {
	return s.queue.Enqueue(jobs.Job{ID: jobID, Kind: statementJobKind})
}

func (s *StatementService) process(ctx context.Context, queued jobs.Job) error {
	job, err := s.store.Get(ctx, queued.ID)
	if err != nil {
		return err
	}
	if job.Status == models.StatementStatusFinished {
		return nil
	}
	if err := s.store.UpdateStatus(ctx, job.ID, models.StatementStatusProcessing, 10); err != nil {
		return err
	}

	data, filename, err := s.exporter.RenderStatement(ctx, job.Params)
	if err != nil {
		return s.fail(ctx, job.ID, err)
	}
	if err := s.store.UpdateStatus(ctx, job.ID, models.StatementStatusProcessing, 70); err != nil {
		return err
	}

	relPath, err := s.files.Save(filename, data)
	if err != nil {
		return s.fail(ctx, job.ID, err)
	}
	token, _, err := s.signer.Sign(job.ID, relPath)
	if err != nil {
		return s.fail(ctx, job.ID, err)
	}

	resultURL := "/export/" + token
	if err := s.store.MarkFinished(ctx, job.ID, resultURL); err != nil {
		return err
	}
	s.logger.Info("statement rendered",
		zap.String("job_id", job.ID),
		zap.String("teacher_id", job.Params.TeacherID),
		zap.String("format", string(job.Params.Format)))
	return nil
}

func (s *StatementService) fail(ctx context.Context, jobID string, cause error) error {
	if err := s.store.MarkFailed(ctx, jobID, cause.Error()); err != nil {
		s.logger.Error("failed to mark statement job failed",
			zap.String("job_id", jobID), zap.Error(err))
	}
	return cause
}

func (s *StatementService) recoverPendingJobs(ctx context.Context) {
	pending, err := s.store.ListUnfinished(ctx)
	if err != nil {
		s.logger.Error("failed to list unfinished statement jobs", zap.Error(err))
		return
	}
	for _, job := range pending {
		if err := s.enqueue(job.ID); err != nil {
			s.logger.Error("failed to requeue statement job",
				zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if len(pending) > 0 {
		s.logger.Info("requeued unfinished statement jobs", zap.Int("count", len(pending)))
	}
}

func (s *StatementService) cleanupLoop(ctx context.Context) {
	interval := s.cfg.CleanupInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.files.CleanupOlderThan(s.cfg.SignedURLTTL)
			if err != nil {
				s.logger.Warn("statement cleanup failed", zap.Error(err))
				continue
			}
			if len(deleted) > 0 {
				s.logger.Info("cleaned up expired statements", zap.Int("count", len(deleted)))
			}
		}
	}
}
