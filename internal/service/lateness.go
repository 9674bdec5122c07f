package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/school-pay-api/internal/models"
	appErrors "github.com/noah-isme/school-pay-api/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// LatenessAssessment is the outcome of assessing one observed class start.
type LatenessAssessment struct {
	MinutesLate int
	Excused     bool
	Tier        *models.LatenessTier
	Deduction   decimal.Decimal
}

// LatenessEngine converts minutes-late into a deduction via the tenant's tier
// table. It is the only tier lookup in the codebase; anything that needs a
// lateness figure calls Assess.
type LatenessEngine struct {
	policy models.LatenessPolicy
}

// NewLatenessEngine validates the policy and returns an engine bound to it.
func NewLatenessEngine(policy models.LatenessPolicy) (*LatenessEngine, error) {
	if err := policy.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrConfigurationMissing.Code, appErrors.ErrConfigurationMissing.Status, "invalid lateness policy")
	}
	if policy.OverflowPolicy == "" {
		policy.OverflowPolicy = models.OverflowClamp
	}
	return &LatenessEngine{policy: policy}, nil
}

// Assess computes the deduction for an observed class start against its
// scheduled slot. Minutes at a tier's upper bound belong to the next tier;
// minutes beyond the last tier follow the configured overflow policy.
func (e *LatenessEngine) Assess(slotStart, observed time.Time, base decimal.Decimal) (LatenessAssessment, error) {
	minutes := int(observed.Sub(slotStart).Minutes())
	if minutes < 0 {
		minutes = 0
	}
	assessment := LatenessAssessment{MinutesLate: minutes, Deduction: decimal.Zero}

	if minutes <= e.policy.ExcusedThresholdMinutes {
		assessment.Excused = true
		return assessment, nil
	}

	for i := range e.policy.Tiers {
		if e.policy.Tiers[i].Contains(minutes) {
			tier := e.policy.Tiers[i]
			assessment.Tier = &tier
			assessment.Deduction = applyPercent(base, tier.DeductionPercent)
			return assessment, nil
		}
	}

	if len(e.policy.Tiers) > 0 && minutes >= e.policy.Tiers[len(e.policy.Tiers)-1].ToMinute {
		if e.policy.OverflowPolicy == models.OverflowReject {
			return assessment, appErrors.Clone(appErrors.ErrConfigurationMissing,
				fmt.Sprintf("minutes late %d exceeds the configured tier table", minutes))
		}
		tier := e.policy.Tiers[len(e.policy.Tiers)-1]
		assessment.Tier = &tier
		assessment.Deduction = applyPercent(base, tier.DeductionPercent)
		return assessment, nil
	}

	// Past the threshold but inside a gap below the tier table: no tier
	// matches, no deduction.
	return assessment, nil
}

func applyPercent(base, percent decimal.Decimal) decimal.Decimal {
	return base.Mul(percent).Div(oneHundred).Round(2)
}
