package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingPlan is a subscription plan with a per-student base rate.
type PricingPlan struct {
	ID                 string          `db:"id" json:"id"`
	Name               string          `db:"name" json:"name"`
	BaseRatePerStudent decimal.Decimal `db:"base_rate_per_student" json:"base_rate_per_student"`
	Currency           string          `db:"currency" json:"currency"`
	Version            int64           `db:"version" json:"version"`
}

// PlanFeature is an add-on with a flat price, billed only when enabled.
type PlanFeature struct {
	PlanID      string          `db:"plan_id" json:"plan_id"`
	FeatureName string          `db:"feature_name" json:"feature_name"`
	Price       decimal.Decimal `db:"price" json:"price"`
	IsEnabled   bool            `db:"is_enabled" json:"is_enabled"`
}

// BillingCycle enumerates subscription billing cadences.
type BillingCycle string

const (
	BillingMonthly BillingCycle = "MONTHLY"
	BillingYearly  BillingCycle = "YEARLY"
)

// SchoolSubscription ties a school to its plan and billing period.
// ActiveStudentCount is a cached counter; real bills recount live.
type SchoolSubscription struct {
	SchoolID           string       `db:"school_id" json:"school_id"`
	PlanID             string       `db:"plan_id" json:"plan_id"`
	BillingCycle       BillingCycle `db:"billing_cycle" json:"billing_cycle"`
	PeriodStart        time.Time    `db:"period_start" json:"period_start"`
	PeriodEnd          time.Time    `db:"period_end" json:"period_end"`
	ActiveStudentCount int          `db:"active_student_count" json:"active_student_count"`
}
