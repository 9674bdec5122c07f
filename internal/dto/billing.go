package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeatureFee is one plan add-on line. Disabled features are echoed with a
// zero contribution so the breakdown shows what was considered.
type FeatureFee struct {
	FeatureName string          `json:"featureName"`
	Price       decimal.Decimal `json:"price"`
	IsEnabled   bool            `json:"isEnabled"`
}

// BillingBreakdown renders the fee arithmetic as human-readable strings.
// The strings are derived from the same decimals as the numeric fields.
type BillingBreakdown struct {
	BaseCalculation    string `json:"baseCalculation"`
	FeatureCalculation string `json:"featureCalculation"`
	Total              string `json:"total"`
}

// SchoolBillingResult is the engine's published subscription bill.
// TotalFee == BaseFee + sum of enabled feature prices, always.
type SchoolBillingResult struct {
	SchoolID           string           `json:"schoolId,omitempty"`
	PlanID             string           `json:"planId"`
	PlanName           string           `json:"planName"`
	PeriodStart        *time.Time       `json:"periodStart,omitempty"`
	PeriodEnd          *time.Time       `json:"periodEnd,omitempty"`
	BaseFee            decimal.Decimal  `json:"baseFee"`
	ActiveStudentCount int              `json:"activeStudentCount"`
	Currency           string           `json:"currency"`
	FeatureFees        []FeatureFee     `json:"featureFees"`
	TotalFee           decimal.Decimal  `json:"totalFee"`
	Breakdown          BillingBreakdown `json:"breakdown"`
}

// BillingPreviewRequest prices a hypothetical subscription without a school.
type BillingPreviewRequest struct {
	PlanID       string `json:"planId" binding:"required"`
	StudentCount int    `json:"studentCount" binding:"min=0"`
}
