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

// RateRepository persists per-tenant salary configuration: package rates,
// deduction bases and the lateness tier policy. Every write bumps the tenant
// config version so cached results become unreachable.
type RateRepository struct {
	db *sqlx.DB
}

// NewRateRepository constructs the repository.
func NewRateRepository(db *sqlx.DB) *RateRepository {
	return &RateRepository{db: db}
}

// ListSalaryRates returns the tenant's package salary rates.
func (r *RateRepository) ListSalaryRates(ctx context.Context, schoolID string) ([]models.PackageSalaryRate, error) {
	const query = `SELECT school_id, package, monthly_rate
FROM package_salary_rates WHERE school_id = $1 ORDER BY package ASC`
	var rates []models.PackageSalaryRate
	if err := r.db.SelectContext(ctx, &rates, query, schoolID); err != nil {
		return nil, fmt.Errorf("list salary rates: %w", err)
	}
	return rates, nil
}

// ListDeductionBases returns the tenant's package deduction bases.
func (r *RateRepository) ListDeductionBases(ctx context.Context, schoolID string) ([]models.PackageDeductionBase, error) {
	const query = `SELECT school_id, package, lateness_base, absence_base
FROM package_deduction_bases WHERE school_id = $1 ORDER BY package ASC`
	var bases []models.PackageDeductionBase
	if err := r.db.SelectContext(ctx, &bases, query, schoolID); err != nil {
		return nil, fmt.Errorf("list deduction bases: %w", err)
	}
	return bases, nil
}

// GetLatenessPolicy loads the tenant's policy header plus its tier table.
func (r *RateRepository) GetLatenessPolicy(ctx context.Context, schoolID string) (models.LatenessPolicy, error) {
	const headQuery = `SELECT school_id, excused_threshold_minutes, overflow_policy, version
FROM lateness_policies WHERE school_id = $1`
	var policy models.LatenessPolicy
	if err := r.db.GetContext(ctx, &policy, headQuery, schoolID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.LatenessPolicy{}, appErrors.Clone(appErrors.ErrConfigurationMissing,
				fmt.Sprintf("no lateness policy configured for school %s", schoolID))
		}
		return models.LatenessPolicy{}, fmt.Errorf("get lateness policy: %w", err)
	}

	const tierQuery = `SELECT from_minute, to_minute, deduction_percent
FROM lateness_tiers WHERE school_id = $1 ORDER BY from_minute ASC`
	if err := r.db.SelectContext(ctx, &policy.Tiers, tierQuery, schoolID); err != nil {
		return models.LatenessPolicy{}, fmt.Errorf("list lateness tiers: %w", err)
	}
	return policy, nil
}

// ConfigVersion returns the tenant's configuration version counter. A school
// with no configured row is at version zero.
func (r *RateRepository) ConfigVersion(ctx context.Context, schoolID string) (int64, error) {
	const query = `SELECT version FROM tenant_config_versions WHERE school_id = $1`
	var version int64
	if err := r.db.GetContext(ctx, &version, query, schoolID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get config version: %w", err)
	}
	return version, nil
}

// ReplaceLatenessPolicy swaps the policy header and tier table atomically.
func (r *RateRepository) ReplaceLatenessPolicy(ctx context.Context, policy models.LatenessPolicy) (models.LatenessPolicy, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.LatenessPolicy{}, fmt.Errorf("begin lateness policy tx: %w", err)
	}

	const headQuery = `INSERT INTO lateness_policies (school_id, excused_threshold_minutes, overflow_policy, version)
VALUES ($1, $2, $3, 1)
ON CONFLICT (school_id)
DO UPDATE SET excused_threshold_minutes = EXCLUDED.excused_threshold_minutes,
              overflow_policy = EXCLUDED.overflow_policy,
              version = lateness_policies.version + 1
RETURNING version`
	var version int64
	if err := tx.GetContext(ctx, &version, headQuery, policy.SchoolID, policy.ExcusedThresholdMinutes, policy.OverflowPolicy); err != nil {
		_ = tx.Rollback()
		return models.LatenessPolicy{}, fmt.Errorf("upsert lateness policy: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM lateness_tiers WHERE school_id = $1`, policy.SchoolID); err != nil {
		_ = tx.Rollback()
		return models.LatenessPolicy{}, fmt.Errorf("clear lateness tiers: %w", err)
	}
	const tierQuery = `INSERT INTO lateness_tiers (school_id, from_minute, to_minute, deduction_percent)
VALUES ($1, $2, $3, $4)`
	for _, tier := range policy.Tiers {
		if _, err := tx.ExecContext(ctx, tierQuery, policy.SchoolID, tier.FromMinute, tier.ToMinute, tier.DeductionPercent); err != nil {
			_ = tx.Rollback()
			return models.LatenessPolicy{}, fmt.Errorf("insert lateness tier: %w", err)
		}
	}

	if err := bumpConfigVersion(ctx, tx, policy.SchoolID); err != nil {
		_ = tx.Rollback()
		return models.LatenessPolicy{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.LatenessPolicy{}, fmt.Errorf("commit lateness policy tx: %w", err)
	}
	policy.Version = version
	return policy, nil
}

// ReplaceRateTable upserts salary rates and deduction bases in one transaction.
func (r *RateRepository) ReplaceRateTable(ctx context.Context, schoolID string, rates []models.PackageSalaryRate, bases []models.PackageDeductionBase) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rate table tx: %w", err)
	}

	const rateQuery = `INSERT INTO package_salary_rates (school_id, package, monthly_rate)
VALUES (:school_id, :package, :monthly_rate)
ON CONFLICT (school_id, package)
DO UPDATE SET monthly_rate = EXCLUDED.monthly_rate`
	for i := range rates {
		if _, err := tx.NamedExecContext(ctx, rateQuery, rates[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert salary rate: %w", err)
		}
	}

	const baseQuery = `INSERT INTO package_deduction_bases (school_id, package, lateness_base, absence_base)
VALUES (:school_id, :package, :lateness_base, :absence_base)
ON CONFLICT (school_id, package)
DO UPDATE SET lateness_base = EXCLUDED.lateness_base, absence_base = EXCLUDED.absence_base`
	for i := range bases {
		if _, err := tx.NamedExecContext(ctx, baseQuery, bases[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert deduction base: %w", err)
		}
	}

	if err := bumpConfigVersion(ctx, tx, schoolID); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rate table tx: %w", err)
	}
	return nil
}

func bumpConfigVersion(ctx context.Context, tx *sqlx.Tx, schoolID string) error {
	const query = `INSERT INTO tenant_config_versions (school_id, version)
VALUES ($1, 1)
ON CONFLICT (school_id)
DO UPDATE SET version = tenant_config_versions.version + 1`
	if _, err := tx.ExecContext(ctx, query, schoolID); err != nil {
		return fmt.Errorf("bump config version: %w", err)
	}
	return nil
}
