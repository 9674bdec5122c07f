package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/school-pay-api/internal/models"
)

// AbsenceAssessment is the outcome of assessing one class-day for absence.
type AbsenceAssessment struct {
	Fired        bool
	Suppressed   bool
	SuppressedBy string
	Deduction    decimal.Decimal
}

// AbsenceEngine applies the flat absence deduction for missed class-days,
// net of approved permission requests.
type AbsenceEngine struct {
	grace time.Duration
	now   func() time.Time
}

// NewAbsenceEngine builds an engine. A NotTaken class-day only counts as an
// absence once it is older than the grace window, so late attendance marking
// does not trigger premature deductions.
func NewAbsenceEngine(grace time.Duration) *AbsenceEngine {
	if grace <= 0 {
		grace = 24 * time.Hour
	}
	return &AbsenceEngine{grace: grace, now: time.Now}
}

// Assess decides whether the fact incurs an absence deduction. Present and
// Permission statuses never fire; an approved permission covering the class
// date suppresses the deduction and records which request did so.
func (e *AbsenceEngine) Assess(fact models.ClassFact, base decimal.Decimal, approved []models.PermissionRequest) AbsenceAssessment {
	assessment := AbsenceAssessment{Deduction: decimal.Zero}

	switch fact.AttendanceStatus {
	case models.AttendanceAbsent:
	case models.AttendanceNotTaken:
		if fact.Observed() != nil {
			return assessment
		}
		if e.now().Sub(fact.ClassDate) <= e.grace {
			return assessment
		}
	default:
		return assessment
	}

	day := dayStart(fact.ClassDate)
	for _, p := range approved {
		if p.Status == models.PermissionApproved && p.Covers(day) {
			assessment.Suppressed = true
			assessment.SuppressedBy = p.ID
			return assessment
		}
	}

	assessment.Fired = true
	assessment.Deduction = base.Round(2)
	return assessment
}
