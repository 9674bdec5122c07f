package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BonusRecord is a manually awarded bonus. At most one exists per
// (teacher, period label); a second award for the same period updates the
// existing record.
type BonusRecord struct {
	ID          string          `db:"id" json:"id"`
	SchoolID    string          `db:"school_id" json:"school_id"`
	TeacherID   string          `db:"teacher_id" json:"teacher_id"`
	PeriodLabel string          `db:"period_label" json:"period_label"`
	AwardedAt   time.Time       `db:"awarded_at" json:"awarded_at"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Reason      string          `db:"reason" json:"reason"`
}

// QualityAssessment is a weekly supervisor review. Its BonusAwarded only pays
// out when ManagerApproved is set; ManagerOverride changes the pass/fail
// outcome but never bypasses the approval gate.
type QualityAssessment struct {
	ID                 string          `db:"id" json:"id"`
	SchoolID           string          `db:"school_id" json:"school_id"`
	TeacherID          string          `db:"teacher_id" json:"teacher_id"`
	WeekStart          time.Time       `db:"week_start" json:"week_start"`
	SupervisorFeedback string          `db:"supervisor_feedback" json:"supervisor_feedback"`
	ExaminerRating     *float64        `db:"examiner_rating" json:"examiner_rating,omitempty"`
	StudentPassRate    *float64        `db:"student_pass_rate" json:"student_pass_rate,omitempty"`
	OverallQuality     string          `db:"overall_quality" json:"overall_quality"`
	ManagerApproved    bool            `db:"manager_approved" json:"manager_approved"`
	ManagerOverride    bool            `db:"manager_override" json:"manager_override"`
	BonusAwarded       decimal.Decimal `db:"bonus_awarded" json:"bonus_awarded"`
}

// PermissionStatus enumerates permission request states.
type PermissionStatus string

const (
	PermissionPending  PermissionStatus = "PENDING"
	PermissionApproved PermissionStatus = "APPROVED"
	PermissionDeclined PermissionStatus = "DECLINED"
)

// PermissionRequest covers one or more class dates. An approved request
// suppresses absence deductions for the covered days.
type PermissionRequest struct {
	ID        string           `db:"id" json:"id"`
	SchoolID  string           `db:"school_id" json:"school_id"`
	TeacherID string           `db:"teacher_id" json:"teacher_id"`
	DateFrom  time.Time        `db:"date_from" json:"date_from"`
	DateTo    time.Time        `db:"date_to" json:"date_to"`
	Status    PermissionStatus `db:"status" json:"status"`
}

// Covers reports whether the request spans the given day.
func (p PermissionRequest) Covers(day time.Time) bool {
	return !day.Before(p.DateFrom) && !day.After(p.DateTo)
}
