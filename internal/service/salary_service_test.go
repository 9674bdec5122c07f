package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-pay-api/internal/models"
	"github.com/noah-isme/school-pay-api/pkg/config"
	appErrors "github.com/noah-isme/school-pay-api/pkg/errors"
)

type fakeCompensationStore struct {
	facts     []models.ClassFact
	intervals []models.AssignmentInterval
}

func (f *fakeCompensationStore) ListClassFacts(ctx context.Context, schoolID, teacherID string, from, to time.Time) ([]models.ClassFact, error) {
	return f.facts, nil
}

func (f *fakeCompensationStore) ListAssignments(ctx context.Context, schoolID, teacherID string, from, to time.Time) ([]models.AssignmentInterval, error) {
	return f.intervals, nil
}

type fakeRateStore struct {
	rates   []models.PackageSalaryRate
	bases   []models.PackageDeductionBase
	policy  models.LatenessPolicy
	version int64
}

func (f *fakeRateStore) ListSalaryRates(ctx context.Context, schoolID string) ([]models.PackageSalaryRate, error) {
	return f.rates, nil
}

func (f *fakeRateStore) ListDeductionBases(ctx context.Context, schoolID string) ([]models.PackageDeductionBase, error) {
	return f.bases, nil
}

func (f *fakeRateStore) GetLatenessPolicy(ctx context.Context, schoolID string) (models.LatenessPolicy, error) {
	return f.policy, nil
}

func (f *fakeRateStore) ConfigVersion(ctx context.Context, schoolID string) (int64, error) {
	return f.version, nil
}

type fakeBonusStore struct {
	bonuses     []models.BonusRecord
	assessments []models.QualityAssessment
	permissions []models.PermissionRequest
}

func (f *fakeBonusStore) ListBonuses(ctx context.Context, schoolID, teacherID string, from, to time.Time) ([]models.BonusRecord, error) {
	return f.bonuses, nil
}

func (f *fakeBonusStore) ListAssessments(ctx context.Context, schoolID, teacherID string, from, to time.Time) ([]models.QualityAssessment, error) {
	return f.assessments, nil
}

func (f *fakeBonusStore) ListApprovedPermissions(ctx context.Context, schoolID, teacherID string, from, to time.Time) ([]models.PermissionRequest, error) {
	return f.permissions, nil
}

type fakeSettingsStore struct {
	settings models.TenantSettings
	delay    time.Duration
}

func (f *fakeSettingsStore) GetSettings(ctx context.Context, schoolID string) (models.TenantSettings, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return models.TenantSettings{}, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.settings, nil
}

func disabledResultCache() *ResultCache {
	return NewResultCache(NewCacheService(nil, nil, time.Minute, nil, false), time.Minute)
}

func newTestSalaryService(comp *fakeCompensationStore, rates *fakeRateStore, bonuses *fakeBonusStore, settings *fakeSettingsStore) *SalaryService {
	return NewSalaryService(comp, rates, bonuses, settings, disabledResultCache(), nil, zap.NewNop(), config.SalaryConfig{
		ComputeTimeout:   5 * time.Second,
		NotTakenGrace:    24 * time.Hour,
		StrictInvariants: true,
	})
}

func presentFact(id, studentID string, classDate time.Time, minutesLate int) models.ClassFact {
	slot := classDate.Add(8 * time.Hour)
	started := slot.Add(time.Duration(minutesLate) * time.Minute)
	return models.ClassFact{
		ID:               id,
		SchoolID:         "school-1",
		TeacherID:        "teacher-1",
		StudentID:        studentID,
		ClassDate:        classDate,
		SlotStart:        slot,
		StartedAt:        &started,
		AttendanceStatus: models.AttendancePresent,
	}
}

func absentFact(id, studentID string, classDate time.Time) models.ClassFact {
	return models.ClassFact{
		ID:               id,
		SchoolID:         "school-1",
		TeacherID:        "teacher-1",
		StudentID:        studentID,
		ClassDate:        classDate,
		SlotStart:        classDate.Add(8 * time.Hour),
		AttendanceStatus: models.AttendanceAbsent,
	}
}

func marchFixture() (*fakeCompensationStore, *fakeRateStore, *fakeBonusStore, *fakeSettingsStore) {
	comp := &fakeCompensationStore{
		intervals: []models.AssignmentInterval{
			interval("iv-1", "student-1", day(2026, 1, 5), nil),
		},
		facts: []models.ClassFact{
			presentFact("fact-1", "student-1", day(2026, 3, 2), 12),
			absentFact("fact-2", "student-1", day(2026, 3, 3)),
			absentFact("fact-3", "student-1", day(2026, 3, 5)),
		},
	}
	rates := &fakeRateStore{
		rates:   []models.PackageSalaryRate{{SchoolID: "school-1", Package: "MWF", MonthlyRate: decimal.NewFromInt(900)}},
		bases:   []models.PackageDeductionBase{{SchoolID: "school-1", Package: "MWF", LatenessBase: decimal.NewFromInt(30), AbsenceBase: decimal.NewFromInt(45)}},
		policy:  twoTierPolicy(models.OverflowClamp),
		version: 3,
	}
	bonuses := &fakeBonusStore{
		bonuses: []models.BonusRecord{{ID: "b-1", PeriodLabel: "2026-03", AwardedAt: day(2026, 3, 20), Amount: decimal.NewFromInt(50), Reason: "retention"}},
		permissions: []models.PermissionRequest{{
			ID: "perm-1", DateFrom: day(2026, 3, 5), DateTo: day(2026, 3, 5), Status: models.PermissionApproved,
		}},
	}
	settings := &fakeSettingsStore{settings: models.TenantSettings{SchoolID: "school-1", Version: 1}}
	return comp, rates, bonuses, settings
}

func TestComputeTeacherSalaryFullMonth(t *testing.T) {
	svc := newTestSalaryService(marchFixture())

	result, err := svc.ComputeTeacherSalary(context.Background(), "school-1", "teacher-1", day(2026, 3, 1), day(2026, 3, 31))
	require.NoError(t, err)

	// Full month of a 900 monthly rate pays 900 regardless of Sundays.
	assert.True(t, result.BaseSalary.Equal(decimal.NewFromInt(900)), "base %s", result.BaseSalary)
	// 12 minutes late lands in [10,20) at 25% of the 30 base.
	assert.True(t, result.LatenessDeduction.Equal(mustDecimal(t, "7.5")), "lateness %s", result.LatenessDeduction)
	// One absence fires at 45; the one on the 5th is suppressed by permission.
	assert.True(t, result.AbsenceDeduction.Equal(decimal.NewFromInt(45)), "absence %s", result.AbsenceDeduction)
	assert.True(t, result.Bonuses.Equal(decimal.NewFromInt(50)))
	assert.True(t, result.TotalSalary.Equal(mustDecimal(t, "897.5")), "total %s", result.TotalSalary)

	// Published totals always reconcile with the breakdown summary.
	summary := result.Breakdown.Summary
	assert.True(t, result.TotalSalary.Equal(summary.NetSalary))
	assert.True(t, result.BaseSalary.Equal(summary.BasePay))

	lineBase := decimal.Zero
	for _, line := range result.Breakdown.StudentBreakdown {
		lineBase = lineBase.Add(line.BasePay)
	}
	assert.True(t, summary.BasePay.Equal(lineBase))
}

func TestComputeTeacherSalaryDetailItems(t *testing.T) {
	svc := newTestSalaryService(marchFixture())

	detail, err := svc.ComputeTeacherSalaryDetail(context.Background(), "school-1", "teacher-1", day(2026, 3, 1), day(2026, 3, 31))
	require.NoError(t, err)

	require.Len(t, detail.Lateness, 1)
	assert.Equal(t, 12, detail.Lateness[0].MinutesLate)
	assert.Equal(t, 10, detail.Lateness[0].TierFrom)

	require.Len(t, detail.Absences, 2)
	fired, suppressed := detail.Absences[0], detail.Absences[1]
	assert.True(t, fired.Date.Equal(day(2026, 3, 3)))
	assert.False(t, fired.Suppressed)
	assert.True(t, suppressed.Suppressed)
	assert.Equal(t, "perm-1", suppressed.SuppressedBy)
	assert.True(t, suppressed.Deduction.IsZero())

	require.Len(t, detail.Bonuses, 1)
	assert.Len(t, detail.LinkFacts, 3)
}

func TestComputeTeacherSalaryIsDeterministic(t *testing.T) {
	svc := newTestSalaryService(marchFixture())

	first, err := svc.ComputeTeacherSalary(context.Background(), "school-1", "teacher-1", day(2026, 3, 1), day(2026, 3, 31))
	require.NoError(t, err)
	second, err := svc.ComputeTeacherSalary(context.Background(), "school-1", "teacher-1", day(2026, 3, 1), day(2026, 3, 31))
	require.NoError(t, err)

	assert.True(t, first.TotalSalary.Equal(second.TotalSalary))
	assert.Equal(t, len(first.Breakdown.StudentBreakdown), len(second.Breakdown.StudentBreakdown))
}

func TestComputeTeacherSalarySundayToggleChangesProration(t *testing.T) {
	comp, rates, bonuses, settings := marchFixture()
	comp.facts = nil
	bonuses.bonuses = nil
	svc := newTestSalaryService(comp, rates, bonuses, settings)

	// Half month without Sundays: 12 of 26 billable days.
	result, err := svc.ComputeTeacherSalary(context.Background(), "school-1", "teacher-1", day(2026, 3, 1), day(2026, 3, 15))
	require.NoError(t, err)
	assert.True(t, result.BaseSalary.Equal(mustDecimal(t, "415.38")), "base %s", result.BaseSalary)

	settings.settings.IncludeSundaysInSalary = true
	result, err = svc.ComputeTeacherSalary(context.Background(), "school-1", "teacher-1", day(2026, 3, 1), day(2026, 3, 15))
	require.NoError(t, err)
	assert.True(t, result.BaseSalary.Equal(mustDecimal(t, "435.48")), "base %s", result.BaseSalary)
}

func TestComputeTeacherSalaryConservesPayAcrossReassignment(t *testing.T) {
	// student-1 moves from teacher-1 to teacher-2 after March 15th. The two
	// prorated base payments must sum to exactly one full monthly rate.
	rates := &fakeRateStore{
		rates:   []models.PackageSalaryRate{{SchoolID: "school-1", Package: "MWF", MonthlyRate: decimal.NewFromInt(900)}},
		bases:   []models.PackageDeductionBase{{SchoolID: "school-1", Package: "MWF", LatenessBase: decimal.NewFromInt(30), AbsenceBase: decimal.NewFromInt(45)}},
		policy:  twoTierPolicy(models.OverflowClamp),
		version: 3,
	}
	settings := &fakeSettingsStore{settings: models.TenantSettings{SchoolID: "school-1", Version: 1}}

	oldEnd := day(2026, 3, 15)
	oldComp := &fakeCompensationStore{intervals: []models.AssignmentInterval{
		interval("iv-old", "student-1", day(2026, 1, 5), &oldEnd),
	}}
	newComp := &fakeCompensationStore{intervals: []models.AssignmentInterval{
		interval("iv-new", "student-1", day(2026, 3, 16), nil),
	}}

	oldSvc := newTestSalaryService(oldComp, rates, &fakeBonusStore{}, settings)
	newSvc := newTestSalaryService(newComp, rates, &fakeBonusStore{}, settings)

	from, to := day(2026, 3, 1), day(2026, 3, 31)
	oldResult, err := oldSvc.ComputeTeacherSalary(context.Background(), "school-1", "teacher-1", from, to)
	require.NoError(t, err)
	newResult, err := newSvc.ComputeTeacherSalary(context.Background(), "school-1", "teacher-2", from, to)
	require.NoError(t, err)

	assert.True(t, oldResult.BaseSalary.Equal(mustDecimal(t, "415.38")), "old base %s", oldResult.BaseSalary)
	assert.True(t, newResult.BaseSalary.Equal(mustDecimal(t, "484.62")), "new base %s", newResult.BaseSalary)

	total := oldResult.BaseSalary.Add(newResult.BaseSalary)
	assert.True(t, total.Equal(decimal.NewFromInt(900)), "combined base %s", total)
}

func TestComputeTeacherSalaryWarnsAndSkipsBadInputs(t *testing.T) {
	comp, rates, bonuses, settings := marchFixture()
	comp.intervals = append(comp.intervals, models.AssignmentInterval{
		ID: "iv-2", StudentID: "student-2", DayPackage: "TTS", StartDate: day(2026, 1, 5),
	})
	comp.facts = append(comp.facts, models.ClassFact{ID: "fact-bad", TeacherID: "teacher-1"})
	svc := newTestSalaryService(comp, rates, bonuses, settings)

	result, err := svc.ComputeTeacherSalary(context.Background(), "school-1", "teacher-1", day(2026, 3, 1), day(2026, 3, 31))
	require.NoError(t, err)

	var sawMalformed, sawMissingRate bool
	for _, warning := range result.Warnings {
		if warning == `skipped malformed class fact fact-bad` {
			sawMalformed = true
		}
		if warning == `no salary configuration for package "TTS"` {
			sawMissingRate = true
		}
	}
	assert.True(t, sawMalformed, "warnings: %v", result.Warnings)
	assert.True(t, sawMissingRate, "warnings: %v", result.Warnings)

	// The unconfigured package contributes a zero line, not an abort.
	var missingLine bool
	for _, line := range result.Breakdown.StudentBreakdown {
		if line.StudentID == "student-2" {
			missingLine = true
			assert.True(t, line.RateMissing)
			assert.True(t, line.BasePay.IsZero())
		}
	}
	assert.True(t, missingLine)
	assert.True(t, result.TotalSalary.Equal(mustDecimal(t, "897.5")))
}

func TestComputeTeacherSalaryRejectsInvertedRange(t *testing.T) {
	svc := newTestSalaryService(marchFixture())
	_, err := svc.ComputeTeacherSalary(context.Background(), "school-1", "teacher-1", day(2026, 3, 31), day(2026, 3, 1))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidRange.Code, appErrors.FromError(err).Code)
}

func TestComputeTeacherSalaryTimesOut(t *testing.T) {
	comp, rates, bonuses, settings := marchFixture()
	settings.delay = 200 * time.Millisecond
	svc := NewSalaryService(comp, rates, bonuses, settings, disabledResultCache(), nil, zap.NewNop(), config.SalaryConfig{
		ComputeTimeout: 10 * time.Millisecond,
		NotTakenGrace:  24 * time.Hour,
	})

	_, err := svc.ComputeTeacherSalary(context.Background(), "school-1", "teacher-1", day(2026, 3, 1), day(2026, 3, 31))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrComputationTimeout.Code, appErrors.FromError(err).Code)
}
