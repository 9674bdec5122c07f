package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AttendanceStatus enumerates the recorded outcome of a scheduled class-day.
type AttendanceStatus string

const (
	AttendancePresent    AttendanceStatus = "PRESENT"
	AttendanceAbsent     AttendanceStatus = "ABSENT"
	AttendancePermission AttendanceStatus = "PERMISSION"
	AttendanceNotTaken   AttendanceStatus = "NOT_TAKEN"
)

// ClassFact is one immutable observation for a (student, scheduled class-day).
// SentAt is the class-link dispatch time, StartedAt/ClickedAt the actual join
// times; ClickedAt may be backfilled later.
type ClassFact struct {
	ID               string           `db:"id" json:"id"`
	SchoolID         string           `db:"school_id" json:"school_id"`
	TeacherID        string           `db:"teacher_id" json:"teacher_id"`
	StudentID        string           `db:"student_id" json:"student_id"`
	ClassDate        time.Time        `db:"class_date" json:"class_date"`
	SlotStart        time.Time        `db:"slot_start" json:"slot_start"`
	SentAt           *time.Time       `db:"sent_at" json:"sent_at,omitempty"`
	StartedAt        *time.Time       `db:"started_at" json:"started_at,omitempty"`
	ClickedAt        *time.Time       `db:"clicked_at" json:"clicked_at,omitempty"`
	AttendanceStatus AttendanceStatus `db:"attendance_status" json:"attendance_status"`
}

// Observed returns the authoritative join time for lateness assessment.
// StartedAt wins over ClickedAt; nil means nobody joined and lateness does
// not apply.
func (f ClassFact) Observed() *time.Time {
	if f.StartedAt != nil {
		return f.StartedAt
	}
	return f.ClickedAt
}

// Valid reports whether the fact carries the fields arithmetic depends on.
func (f ClassFact) Valid() bool {
	return f.StudentID != "" && !f.ClassDate.IsZero()
}

// AssignmentInterval binds a student to a teacher for a time slot and day
// package over [StartDate, EndDate]; a nil EndDate means the assignment is
// still open. Intervals for one student must not overlap.
type AssignmentInterval struct {
	ID         string     `db:"id" json:"id"`
	SchoolID   string     `db:"school_id" json:"school_id"`
	TeacherID  string     `db:"teacher_id" json:"teacher_id"`
	StudentID  string     `db:"student_id" json:"student_id"`
	TimeSlot   string     `db:"time_slot" json:"time_slot"`
	DayPackage string     `db:"day_package" json:"day_package"`
	StartDate  time.Time  `db:"start_date" json:"start_date"`
	EndDate    *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// ActiveOn reports whether the interval covers the given day. Assignment
// boundaries are day-granular; a StartDate or EndDate carrying a time-of-day
// is truncated to its UTC calendar day before comparing.
func (a AssignmentInterval) ActiveOn(day time.Time) bool {
	if day.Before(truncateToDay(a.StartDate)) {
		return false
	}
	return a.EndDate == nil || !day.After(truncateToDay(*a.EndDate))
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// TierOverflowPolicy decides what happens when minutes-late exceeds the last
// configured tier.
type TierOverflowPolicy string

const (
	// OverflowClamp applies the last tier's percent to anything beyond it.
	OverflowClamp TierOverflowPolicy = "clamp"
	// OverflowReject treats minutes beyond the last tier as a configuration error.
	OverflowReject TierOverflowPolicy = "reject"
)

// LatenessTier maps a half-open minutes-late range [FromMinute, ToMinute) to a
// deduction percentage.
type LatenessTier struct {
	FromMinute       int             `db:"from_minute" json:"from_minute"`
	ToMinute         int             `db:"to_minute" json:"to_minute"`
	DeductionPercent decimal.Decimal `db:"deduction_percent" json:"deduction_percent"`
}

// Contains reports whether minutes falls inside the half-open tier range.
func (t LatenessTier) Contains(minutes int) bool {
	return minutes >= t.FromMinute && minutes < t.ToMinute
}

// LatenessPolicy is the per-tenant tier table plus the excused threshold.
type LatenessPolicy struct {
	SchoolID                string             `db:"school_id" json:"school_id"`
	ExcusedThresholdMinutes int                `db:"excused_threshold_minutes" json:"excused_threshold_minutes"`
	Tiers                   []LatenessTier     `json:"tiers"`
	OverflowPolicy          TierOverflowPolicy `db:"overflow_policy" json:"overflow_policy"`
	Version                 int64              `db:"version" json:"version"`
}

// Validate rejects unsorted or overlapping tier tables and enforces that
// deduction percent never decreases as minutes-late grows.
func (p LatenessPolicy) Validate() error {
	if p.ExcusedThresholdMinutes < 0 {
		return fmt.Errorf("excused threshold must not be negative")
	}
	if !sort.SliceIsSorted(p.Tiers, func(i, j int) bool { return p.Tiers[i].FromMinute < p.Tiers[j].FromMinute }) {
		return fmt.Errorf("lateness tiers must be sorted ascending by from_minute")
	}
	for i, tier := range p.Tiers {
		if tier.ToMinute <= tier.FromMinute {
			return fmt.Errorf("tier %d: to_minute must be greater than from_minute", i)
		}
		if tier.DeductionPercent.IsNegative() {
			return fmt.Errorf("tier %d: deduction percent must not be negative", i)
		}
		if i > 0 {
			prev := p.Tiers[i-1]
			if tier.FromMinute < prev.ToMinute {
				return fmt.Errorf("tier %d overlaps tier %d", i, i-1)
			}
			if tier.DeductionPercent.LessThan(prev.DeductionPercent) {
				return fmt.Errorf("tier %d: deduction percent decreases", i)
			}
		}
	}
	switch p.OverflowPolicy {
	case OverflowClamp, OverflowReject, "":
	default:
		return fmt.Errorf("unknown overflow policy %q", p.OverflowPolicy)
	}
	return nil
}

// PackageDeductionBase holds the currency amounts tier percentages and absence
// flags are applied against, per day package.
type PackageDeductionBase struct {
	SchoolID     string          `db:"school_id" json:"school_id"`
	Package      string          `db:"package" json:"package"`
	LatenessBase decimal.Decimal `db:"lateness_base" json:"lateness_base"`
	AbsenceBase  decimal.Decimal `db:"absence_base" json:"absence_base"`
}

// PackageSalaryRate is the per-student monthly salary amount for a day package.
type PackageSalaryRate struct {
	SchoolID    string          `db:"school_id" json:"school_id"`
	Package     string          `db:"package" json:"package"`
	MonthlyRate decimal.Decimal `db:"monthly_rate" json:"monthly_rate"`
}
