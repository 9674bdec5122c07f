package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalarySummary is the single published accumulation the result totals are
// derived from. NetSalary must always equal the top-level TotalSalary.
type SalarySummary struct {
	BasePay           decimal.Decimal `json:"basePay"`
	LatenessDeduction decimal.Decimal `json:"latenessDeduction"`
	AbsenceDeduction  decimal.Decimal `json:"absenceDeduction"`
	Bonus             decimal.Decimal `json:"bonus"`
	NetSalary         decimal.Decimal `json:"netSalary"`
}

// StudentLine itemizes one student's contribution within one prorated
// sub-range of the requested period.
type StudentLine struct {
	StudentID         string          `json:"studentId"`
	Package           string          `json:"package"`
	From              time.Time       `json:"from"`
	To                time.Time       `json:"to"`
	BillableDays      int             `json:"billableDays"`
	BasePay           decimal.Decimal `json:"basePay"`
	LatenessDeduction decimal.Decimal `json:"latenessDeduction"`
	AbsenceDeduction  decimal.Decimal `json:"absenceDeduction"`
	RateMissing       bool            `json:"rateMissing,omitempty"`
}

// SalaryBreakdown carries line items whose sums equal the summary.
type SalaryBreakdown struct {
	StudentBreakdown []StudentLine `json:"studentBreakdown"`
	Summary          SalarySummary `json:"summary"`
}

// TeacherSalaryResult is the engine's published salary figure for a teacher
// over a period. TotalSalary == Breakdown.Summary.NetSalary, always.
type TeacherSalaryResult struct {
	TeacherID         string          `json:"teacherId"`
	PeriodStart       time.Time       `json:"periodStart"`
	PeriodEnd         time.Time       `json:"periodEnd"`
	BaseSalary        decimal.Decimal `json:"baseSalary"`
	LatenessDeduction decimal.Decimal `json:"latenessDeduction"`
	AbsenceDeduction  decimal.Decimal `json:"absenceDeduction"`
	Bonuses           decimal.Decimal `json:"bonuses"`
	TotalSalary       decimal.Decimal `json:"totalSalary"`
	Status            string          `json:"status"`
	Breakdown         SalaryBreakdown `json:"breakdown"`
	Warnings          []string        `json:"warnings,omitempty"`
}

// LatenessItem is one assessed late class-day, including the matched tier.
type LatenessItem struct {
	Date        time.Time       `json:"date"`
	StudentID   string          `json:"studentId"`
	MinutesLate int             `json:"minutesLate"`
	Excused     bool            `json:"excused"`
	TierFrom    int             `json:"tierFrom"`
	TierTo      int             `json:"tierTo"`
	Percent     decimal.Decimal `json:"percent"`
	Base        decimal.Decimal `json:"base"`
	Deduction   decimal.Decimal `json:"deduction"`
}

// AbsenceItem is one assessed absence class-day.
type AbsenceItem struct {
	Date         time.Time       `json:"date"`
	StudentID    string          `json:"studentId"`
	Status       string          `json:"status"`
	Suppressed   bool            `json:"suppressed"`
	SuppressedBy string          `json:"suppressedBy,omitempty"`
	Deduction    decimal.Decimal `json:"deduction"`
}

// BonusItem is a manual bonus inside the period.
type BonusItem struct {
	PeriodLabel string          `json:"periodLabel"`
	AwardedAt   time.Time       `json:"awardedAt"`
	Amount      decimal.Decimal `json:"amount"`
	Reason      string          `json:"reason"`
}

// QualityBonusItem is an approved quality-assessment bonus inside the period.
type QualityBonusItem struct {
	WeekStart      time.Time       `json:"weekStart"`
	OverallQuality string          `json:"overallQuality"`
	Amount         decimal.Decimal `json:"amount"`
}

// LinkFactItem is a raw class-link fact echoed for audit exports.
type LinkFactItem struct {
	Date             time.Time  `json:"date"`
	StudentID        string     `json:"studentId"`
	SentAt           *time.Time `json:"sentAt,omitempty"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
	ClickedAt        *time.Time `json:"clickedAt,omitempty"`
	AttendanceStatus string     `json:"attendanceStatus"`
}

// TeacherSalaryDetail is the fully itemized explanation of a salary result,
// consumed by audit and export collaborators.
type TeacherSalaryDetail struct {
	Result         TeacherSalaryResult `json:"result"`
	Lateness       []LatenessItem      `json:"lateness"`
	Absences       []AbsenceItem       `json:"absences"`
	Bonuses        []BonusItem         `json:"bonuses"`
	QualityBonuses []QualityBonusItem  `json:"qualityBonuses"`
	LinkFacts      []LinkFactItem      `json:"linkFacts"`
}
