package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-pay-api/internal/dto"
	"github.com/noah-isme/school-pay-api/internal/models"
)

type fakeSettingsAdminStore struct {
	settings models.TenantSettings
}

func (f *fakeSettingsAdminStore) GetSettings(ctx context.Context, schoolID string) (models.TenantSettings, error) {
	return f.settings, nil
}

func (f *fakeSettingsAdminStore) SaveSettings(ctx context.Context, settings models.TenantSettings) (models.TenantSettings, error) {
	settings.Version = f.settings.Version + 1
	f.settings = settings
	return settings, nil
}

type fakeRateAdminStore struct {
	policy models.LatenessPolicy
	rates  []models.PackageSalaryRate
	bases  []models.PackageDeductionBase
}

func (f *fakeRateAdminStore) ReplaceLatenessPolicy(ctx context.Context, policy models.LatenessPolicy) (models.LatenessPolicy, error) {
	policy.Version = f.policy.Version + 1
	f.policy = policy
	return policy, nil
}

func (f *fakeRateAdminStore) ReplaceRateTable(ctx context.Context, schoolID string, rates []models.PackageSalaryRate, bases []models.PackageDeductionBase) error {
	f.rates = rates
	f.bases = bases
	return nil
}

func newTestSettingsService(repo *stubCacheRepo) (*SettingsService, *fakeSettingsAdminStore, *fakeRateAdminStore) {
	settings := &fakeSettingsAdminStore{settings: models.TenantSettings{SchoolID: "school-1", Version: 1}}
	rates := &fakeRateAdminStore{}
	results := NewResultCache(NewCacheService(repo, nil, time.Minute, nil, true), time.Minute)
	return NewSettingsService(settings, rates, results, zap.NewNop()), settings, rates
}

func TestUpdateSettingsBumpsVersionAndPurgesCache(t *testing.T) {
	repo := newStubCacheRepo()
	svc, _, _ := newTestSettingsService(repo)

	visible := true
	updated, err := svc.UpdateSettings(context.Background(), "school-1", dto.UpdateTenantSettingsRequest{
		TeacherSalaryVisible: &visible,
	})
	require.NoError(t, err)
	assert.True(t, updated.TeacherSalaryVisible)
	assert.Equal(t, int64(2), updated.Version)
	assert.Contains(t, repo.deleted, "pay:school-1:*")
}

func TestUpdateSettingsLeavesNilFieldsUnchanged(t *testing.T) {
	repo := newStubCacheRepo()
	svc, store, _ := newTestSettingsService(repo)
	store.settings.IncludeSundaysInSalary = true

	visible := true
	updated, err := svc.UpdateSettings(context.Background(), "school-1", dto.UpdateTenantSettingsRequest{
		TeacherSalaryVisible: &visible,
	})
	require.NoError(t, err)
	assert.True(t, updated.IncludeSundaysInSalary)
}

func TestReplaceLatenessPolicyValidatesAndPurges(t *testing.T) {
	repo := newStubCacheRepo()
	svc, _, rates := newTestSettingsService(repo)

	policy, err := svc.ReplaceLatenessPolicy(context.Background(), "school-1", dto.LatenessPolicyRequest{
		ExcusedThresholdMinutes: 4,
		OverflowPolicy:          "clamp",
		Tiers: []dto.TierInput{
			{FromMinute: 5, ToMinute: 10, DeductionPercent: decimal.NewFromInt(10)},
			{FromMinute: 10, ToMinute: 20, DeductionPercent: decimal.NewFromInt(25)},
		},
	})
	require.NoError(t, err)
	assert.Len(t, policy.Tiers, 2)
	assert.Len(t, rates.policy.Tiers, 2)
	assert.Contains(t, repo.deleted, "pay:school-1:*")
}

func TestReplaceLatenessPolicyRejectsOverlappingTiers(t *testing.T) {
	repo := newStubCacheRepo()
	svc, _, _ := newTestSettingsService(repo)

	_, err := svc.ReplaceLatenessPolicy(context.Background(), "school-1", dto.LatenessPolicyRequest{
		Tiers: []dto.TierInput{
			{FromMinute: 5, ToMinute: 15, DeductionPercent: decimal.NewFromInt(10)},
			{FromMinute: 10, ToMinute: 20, DeductionPercent: decimal.NewFromInt(25)},
		},
	})
	require.Error(t, err)
	assert.Empty(t, repo.deleted, "a rejected policy must not purge the cache")
}

func TestReplaceRateTableRejectsNegativeAmounts(t *testing.T) {
	repo := newStubCacheRepo()
	svc, _, _ := newTestSettingsService(repo)

	err := svc.ReplaceRateTable(context.Background(), "school-1", dto.RateTableRequest{
		Rates: []dto.RateInput{{Package: "MWF", MonthlyRate: decimal.NewFromInt(-1)}},
	})
	require.Error(t, err)
}

func TestReplaceRateTablePersistsAndPurges(t *testing.T) {
	repo := newStubCacheRepo()
	svc, _, rates := newTestSettingsService(repo)

	err := svc.ReplaceRateTable(context.Background(), "school-1", dto.RateTableRequest{
		Rates: []dto.RateInput{{Package: "MWF", MonthlyRate: decimal.NewFromInt(900)}},
		Bases: []dto.DeductionBaseInput{{Package: "MWF", LatenessBase: decimal.NewFromInt(30), AbsenceBase: decimal.NewFromInt(45)}},
	})
	require.NoError(t, err)
	require.Len(t, rates.rates, 1)
	assert.Equal(t, "school-1", rates.rates[0].SchoolID)
	assert.Contains(t, repo.deleted, "pay:school-1:*")
}
