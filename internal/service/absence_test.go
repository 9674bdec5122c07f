package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/school-pay-api/internal/models"
)

func absenceFact(status models.AttendanceStatus, day time.Time) models.ClassFact {
	return models.ClassFact{
		ID:               "fact-1",
		StudentID:        "student-1",
		ClassDate:        day,
		SlotStart:        day.Add(8 * time.Hour),
		AttendanceStatus: status,
	}
}

func TestAbsenceAssessAbsentFires(t *testing.T) {
	engine := NewAbsenceEngine(24 * time.Hour)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	assessment := engine.Assess(absenceFact(models.AttendanceAbsent, day), decimal.NewFromInt(40), nil)
	assert.True(t, assessment.Fired)
	assert.True(t, assessment.Deduction.Equal(decimal.NewFromInt(40)))
}

func TestAbsenceAssessPresentAndPermissionNeverFire(t *testing.T) {
	engine := NewAbsenceEngine(24 * time.Hour)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	for _, status := range []models.AttendanceStatus{models.AttendancePresent, models.AttendancePermission} {
		assessment := engine.Assess(absenceFact(status, day), decimal.NewFromInt(40), nil)
		assert.False(t, assessment.Fired, "status %s", status)
		assert.True(t, assessment.Deduction.IsZero())
	}
}

func TestAbsenceAssessApprovedPermissionSuppresses(t *testing.T) {
	engine := NewAbsenceEngine(24 * time.Hour)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	approved := []models.PermissionRequest{{
		ID:       "perm-9",
		DateFrom: day.AddDate(0, 0, -1),
		DateTo:   day.AddDate(0, 0, 1),
		Status:   models.PermissionApproved,
	}}

	assessment := engine.Assess(absenceFact(models.AttendanceAbsent, day), decimal.NewFromInt(40), approved)
	assert.False(t, assessment.Fired)
	assert.True(t, assessment.Suppressed)
	assert.Equal(t, "perm-9", assessment.SuppressedBy)
	assert.True(t, assessment.Deduction.IsZero())
}

func TestAbsenceAssessNotTakenRespectsGrace(t *testing.T) {
	engine := NewAbsenceEngine(24 * time.Hour)
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return now }

	// Inside the grace window: not yet an absence.
	fresh := absenceFact(models.AttendanceNotTaken, now.Add(-2*time.Hour))
	assessment := engine.Assess(fresh, decimal.NewFromInt(40), nil)
	assert.False(t, assessment.Fired)

	// Older than the grace window: counts.
	stale := absenceFact(models.AttendanceNotTaken, now.AddDate(0, 0, -3))
	assessment = engine.Assess(stale, decimal.NewFromInt(40), nil)
	assert.True(t, assessment.Fired)

	// Someone joined: attendance was simply not marked, no deduction.
	joined := absenceFact(models.AttendanceNotTaken, now.AddDate(0, 0, -3))
	started := now.AddDate(0, 0, -3).Add(8 * time.Hour)
	joined.StartedAt = &started
	assessment = engine.Assess(joined, decimal.NewFromInt(40), nil)
	assert.False(t, assessment.Fired)
}
