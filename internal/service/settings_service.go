package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/school-pay-api/internal/dto"
	"github.com/noah-isme/school-pay-api/internal/models"
	appErrors "github.com/noah-isme/school-pay-api/pkg/errors"
)

type settingsAdminStore interface {
	GetSettings(ctx context.Context, schoolID string) (models.TenantSettings, error)
	SaveSettings(ctx context.Context, settings models.TenantSettings) (models.TenantSettings, error)
}

type rateAdminStore interface {
	ReplaceLatenessPolicy(ctx context.Context, policy models.LatenessPolicy) (models.LatenessPolicy, error)
	ReplaceRateTable(ctx context.Context, schoolID string, rates []models.PackageSalaryRate, bases []models.PackageDeductionBase) error
}

// SettingsService administers the per-tenant configuration the engines read.
// Every write bumps a version and purges the tenant's cached results, so a
// stale figure can never be served after a configuration change.
type SettingsService struct {
	settings settingsAdminStore
	rates    rateAdminStore
	results  *ResultCache
	logger   *zap.Logger
}

// NewSettingsService wires the configuration admin service.
func NewSettingsService(settings settingsAdminStore, rates rateAdminStore, results *ResultCache, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{settings: settings, rates: rates, results: results, logger: logger}
}

// GetSettings returns the tenant's settings snapshot.
func (s *SettingsService) GetSettings(ctx context.Context, schoolID string) (models.TenantSettings, error) {
	return s.settings.GetSettings(ctx, schoolID)
}

// UpdateSettings applies the non-nil fields and invalidates cached results.
func (s *SettingsService) UpdateSettings(ctx context.Context, schoolID string, req dto.UpdateTenantSettingsRequest) (models.TenantSettings, error) {
	current, err := s.settings.GetSettings(ctx, schoolID)
	if err != nil {
		return models.TenantSettings{}, err
	}
	if req.IncludeSundaysInSalary != nil {
		current.IncludeSundaysInSalary = *req.IncludeSundaysInSalary
	}
	if req.TeacherSalaryVisible != nil {
		current.TeacherSalaryVisible = *req.TeacherSalaryVisible
	}
	saved, err := s.settings.SaveSettings(ctx, current)
	if err != nil {
		return models.TenantSettings{}, err
	}
	s.purge(ctx, schoolID)
	return saved, nil
}

// ReplaceLatenessPolicy swaps the tenant's tier table wholesale. The policy is
// validated before persisting so a broken table never reaches the engine.
func (s *SettingsService) ReplaceLatenessPolicy(ctx context.Context, schoolID string, req dto.LatenessPolicyRequest) (models.LatenessPolicy, error) {
	policy := models.LatenessPolicy{
		SchoolID:                schoolID,
		ExcusedThresholdMinutes: req.ExcusedThresholdMinutes,
		OverflowPolicy:          models.TierOverflowPolicy(req.OverflowPolicy),
	}
	for _, tier := range req.Tiers {
		policy.Tiers = append(policy.Tiers, models.LatenessTier{
			FromMinute:       tier.FromMinute,
			ToMinute:         tier.ToMinute,
			DeductionPercent: tier.DeductionPercent,
		})
	}
	if err := policy.Validate(); err != nil {
		return models.LatenessPolicy{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lateness policy")
	}
	saved, err := s.rates.ReplaceLatenessPolicy(ctx, policy)
	if err != nil {
		return models.LatenessPolicy{}, err
	}
	s.purge(ctx, schoolID)
	return saved, nil
}

// ReplaceRateTable upserts salary rates and deduction bases for the tenant.
func (s *SettingsService) ReplaceRateTable(ctx context.Context, schoolID string, req dto.RateTableRequest) error {
	rates := make([]models.PackageSalaryRate, 0, len(req.Rates))
	for _, rate := range req.Rates {
		if rate.MonthlyRate.IsNegative() {
			return appErrors.Clone(appErrors.ErrValidation, "monthly rate must not be negative")
		}
		rates = append(rates, models.PackageSalaryRate{
			SchoolID:    schoolID,
			Package:     rate.Package,
			MonthlyRate: rate.MonthlyRate,
		})
	}
	bases := make([]models.PackageDeductionBase, 0, len(req.Bases))
	for _, base := range req.Bases {
		if base.LatenessBase.IsNegative() || base.AbsenceBase.IsNegative() {
			return appErrors.Clone(appErrors.ErrValidation, "deduction bases must not be negative")
		}
		bases = append(bases, models.PackageDeductionBase{
			SchoolID:     schoolID,
			Package:      base.Package,
			LatenessBase: base.LatenessBase,
			AbsenceBase:  base.AbsenceBase,
		})
	}
	if err := s.rates.ReplaceRateTable(ctx, schoolID, rates, bases); err != nil {
		return err
	}
	s.purge(ctx, schoolID)
	return nil
}

// PurgeTenantCache drops every cached result for the school on demand.
func (s *SettingsService) PurgeTenantCache(ctx context.Context, schoolID string) error {
	return s.results.PurgeTenant(ctx, schoolID)
}

func (s *SettingsService) purge(ctx context.Context, schoolID string) {
	if err := s.results.PurgeTenant(ctx, schoolID); err != nil {
		s.logger.Warn("failed to purge tenant cache after configuration write",
			zap.String("school_id", schoolID), zap.Error(err))
	}
}
