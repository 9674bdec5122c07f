package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-pay-api/internal/models"
)

// SettingsRepository persists per-tenant engine settings.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetSettings returns the tenant's settings. A school without a stored row
// gets the defaults at version zero.
func (r *SettingsRepository) GetSettings(ctx context.Context, schoolID string) (models.TenantSettings, error) {
	const query = `SELECT school_id, include_sundays_in_salary, teacher_salary_visible, version
FROM tenant_settings WHERE school_id = $1`
	var settings models.TenantSettings
	if err := r.db.GetContext(ctx, &settings, query, schoolID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TenantSettings{SchoolID: schoolID}, nil
		}
		return models.TenantSettings{}, fmt.Errorf("get tenant settings: %w", err)
	}
	return settings, nil
}

// SaveSettings upserts the settings row and bumps its version.
func (r *SettingsRepository) SaveSettings(ctx context.Context, settings models.TenantSettings) (models.TenantSettings, error) {
	const query = `INSERT INTO tenant_settings (school_id, include_sundays_in_salary, teacher_salary_visible, version)
VALUES ($1, $2, $3, 1)
ON CONFLICT (school_id)
DO UPDATE SET include_sundays_in_salary = EXCLUDED.include_sundays_in_salary,
              teacher_salary_visible = EXCLUDED.teacher_salary_visible,
              version = tenant_settings.version + 1
RETURNING version`
	var version int64
	if err := r.db.GetContext(ctx, &version, query, settings.SchoolID, settings.IncludeSundaysInSalary, settings.TeacherSalaryVisible); err != nil {
		return models.TenantSettings{}, fmt.Errorf("save tenant settings: %w", err)
	}
	settings.Version = version
	return settings, nil
}
