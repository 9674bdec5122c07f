package dto

import "github.com/shopspring/decimal"

// UpdateTenantSettingsRequest toggles engine-relevant school settings.
// Nil fields are left unchanged.
type UpdateTenantSettingsRequest struct {
	IncludeSundaysInSalary *bool `json:"includeSundaysInSalary"`
	TeacherSalaryVisible   *bool `json:"teacherSalaryVisible"`
}

// TierInput is one lateness tier in a policy replacement request.
type TierInput struct {
	FromMinute       int             `json:"fromMinute" binding:"min=0"`
	ToMinute         int             `json:"toMinute" binding:"min=1"`
	DeductionPercent decimal.Decimal `json:"deductionPercent"`
}

// LatenessPolicyRequest replaces the tenant's tier table wholesale.
type LatenessPolicyRequest struct {
	ExcusedThresholdMinutes int         `json:"excusedThresholdMinutes" binding:"min=0"`
	OverflowPolicy          string      `json:"overflowPolicy"`
	Tiers                   []TierInput `json:"tiers" binding:"required,dive"`
}

// RateInput is one package salary rate row.
type RateInput struct {
	Package     string          `json:"package" binding:"required"`
	MonthlyRate decimal.Decimal `json:"monthlyRate"`
}

// DeductionBaseInput is one package deduction base row.
type DeductionBaseInput struct {
	Package      string          `json:"package" binding:"required"`
	LatenessBase decimal.Decimal `json:"latenessBase"`
	AbsenceBase  decimal.Decimal `json:"absenceBase"`
}

// RateTableRequest upserts salary rates and deduction bases.
type RateTableRequest struct {
	Rates []RateInput          `json:"rates" binding:"dive"`
	Bases []DeductionBaseInput `json:"bases" binding:"dive"`
}
