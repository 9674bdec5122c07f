package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/school-pay-api/internal/dto"
	"github.com/noah-isme/school-pay-api/internal/models"
)

// BonusSummary totals all credits for a teacher over a period.
type BonusSummary struct {
	Total      decimal.Decimal
	Manual     []dto.BonusItem
	Quality    []dto.QualityBonusItem
	AuditNotes []string
}

// AggregateBonuses sums manual bonus awards and manager-approved quality
// bonuses whose anchor date falls inside [from, to]. A manager override
// without approval never pays; it is surfaced as an audit note instead.
func AggregateBonuses(bonuses []models.BonusRecord, assessments []models.QualityAssessment, from, to time.Time) BonusSummary {
	from, to = dayStart(from), dayStart(to)
	summary := BonusSummary{Total: decimal.Zero}

	for _, bonus := range bonuses {
		awarded := dayStart(bonus.AwardedAt)
		if awarded.Before(from) || awarded.After(to) {
			continue
		}
		summary.Total = summary.Total.Add(bonus.Amount.Round(2))
		summary.Manual = append(summary.Manual, dto.BonusItem{
			PeriodLabel: bonus.PeriodLabel,
			AwardedAt:   bonus.AwardedAt,
			Amount:      bonus.Amount.Round(2),
			Reason:      bonus.Reason,
		})
	}

	for _, assessment := range assessments {
		week := dayStart(assessment.WeekStart)
		if week.Before(from) || week.After(to) {
			continue
		}
		if assessment.ManagerOverride && !assessment.ManagerApproved {
			summary.AuditNotes = append(summary.AuditNotes,
				fmt.Sprintf("assessment %s: manager override without approval, bonus withheld", assessment.ID))
			continue
		}
		if !assessment.ManagerApproved || assessment.BonusAwarded.IsZero() {
			continue
		}
		summary.Total = summary.Total.Add(assessment.BonusAwarded.Round(2))
		summary.Quality = append(summary.Quality, dto.QualityBonusItem{
			WeekStart:      assessment.WeekStart,
			OverallQuality: assessment.OverallQuality,
			Amount:         assessment.BonusAwarded.Round(2),
		})
	}

	return summary
}
