package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/school-pay-api/internal/dto"
	"github.com/noah-isme/school-pay-api/internal/models"
	"github.com/noah-isme/school-pay-api/pkg/config"
	appErrors "github.com/noah-isme/school-pay-api/pkg/errors"
)

// SalaryStatusComputed marks a freshly derived result. Payout finalization is
// owned by an external collaborator.
const SalaryStatusComputed = "COMPUTED"

type compensationStore interface {
	ListClassFacts(ctx context.Context, schoolID, teacherID string, from, to time.Time) ([]models.ClassFact, error)
	ListAssignments(ctx context.Context, schoolID, teacherID string, from, to time.Time) ([]models.AssignmentInterval, error)
}

type rateStore interface {
	ListSalaryRates(ctx context.Context, schoolID string) ([]models.PackageSalaryRate, error)
	ListDeductionBases(ctx context.Context, schoolID string) ([]models.PackageDeductionBase, error)
	GetLatenessPolicy(ctx context.Context, schoolID string) (models.LatenessPolicy, error)
	ConfigVersion(ctx context.Context, schoolID string) (int64, error)
}

type bonusStore interface {
	ListBonuses(ctx context.Context, schoolID, teacherID string, from, to time.Time) ([]models.BonusRecord, error)
	ListAssessments(ctx context.Context, schoolID, teacherID string, from, to time.Time) ([]models.QualityAssessment, error)
	ListApprovedPermissions(ctx context.Context, schoolID, teacherID string, from, to time.Time) ([]models.PermissionRequest, error)
}

type settingsStore interface {
	GetSettings(ctx context.Context, schoolID string) (models.TenantSettings, error)
}

// SalaryService orchestrates the full salary computation for one teacher over
// a period. All figures flow through a single accumulation so the published
// totals always reconcile with the itemized breakdown.
type SalaryService struct {
	facts    compensationStore
	rates    rateStore
	bonuses  bonusStore
	settings settingsStore
	results  *ResultCache
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      config.SalaryConfig
}

// NewSalaryService wires the salary orchestrator.
func NewSalaryService(facts compensationStore, rates rateStore, bonuses bonusStore, settings settingsStore, results *ResultCache, metrics *MetricsService, logger *zap.Logger, cfg config.SalaryConfig) *SalaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ComputeTimeout <= 0 {
		cfg.ComputeTimeout = 30 * time.Second
	}
	return &SalaryService{
		facts:    facts,
		rates:    rates,
		bonuses:  bonuses,
		settings: settings,
		results:  results,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
	}
}

// ComputeTeacherSalary returns the salary result for [from, to].
func (s *SalaryService) ComputeTeacherSalary(ctx context.Context, schoolID, teacherID string, from, to time.Time) (*dto.TeacherSalaryResult, error) {
	detail, err := s.ComputeTeacherSalaryDetail(ctx, schoolID, teacherID, from, to)
	if err != nil {
		return nil, err
	}
	result := detail.Result
	return &result, nil
}

// ComputeTeacherSalaryDetail returns the fully itemized salary computation.
// Identical inputs under an unchanged configuration are served from cache;
// concurrent requests for the same key share one computation.
func (s *SalaryService) ComputeTeacherSalaryDetail(ctx context.Context, schoolID, teacherID string, from, to time.Time) (*dto.TeacherSalaryDetail, error) {
	from, to = dayStart(from), dayStart(to)
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "period end precedes period start")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ComputeTimeout)
	defer cancel()

	settings, err := s.settings.GetSettings(ctx, schoolID)
	if err != nil {
		return nil, s.mapComputeErr(ctx, err)
	}
	policy, err := s.rates.GetLatenessPolicy(ctx, schoolID)
	if err != nil {
		return nil, s.mapComputeErr(ctx, err)
	}
	configVersion, err := s.rates.ConfigVersion(ctx, schoolID)
	if err != nil {
		return nil, s.mapComputeErr(ctx, err)
	}

	fp := Fingerprint(configVersion, policy.Version, settings.Version)
	key := SalaryKey(schoolID, teacherID, from, to, fp)

	value, cached, err := s.results.Do(ctx, key,
		func() interface{} { return new(dto.TeacherSalaryDetail) },
		func(ctx context.Context) (interface{}, error) {
			start := time.Now()
			detail, err := s.computeDetail(ctx, schoolID, teacherID, from, to, settings, policy)
			if err != nil {
				return nil, err
			}
			s.metrics.ObserveComputation("salary", time.Since(start))
			return detail, nil
		})
	if err != nil {
		return nil, s.mapComputeErr(ctx, err)
	}
	if cached {
		s.logger.Debug("salary served from cache",
			zap.String("school_id", schoolID), zap.String("teacher_id", teacherID))
	}

	detail, ok := value.(*dto.TeacherSalaryDetail)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInternal, "unexpected cached salary payload")
	}
	return detail, nil
}

func (s *SalaryService) computeDetail(ctx context.Context, schoolID, teacherID string, from, to time.Time, settings models.TenantSettings, policy models.LatenessPolicy) (*dto.TeacherSalaryDetail, error) {
	if policy.OverflowPolicy == "" && s.cfg.TierOverflowPolicy != "" {
		policy.OverflowPolicy = models.TierOverflowPolicy(s.cfg.TierOverflowPolicy)
	}
	latenessEngine, err := NewLatenessEngine(policy)
	if err != nil {
		return nil, err
	}
	absenceEngine := NewAbsenceEngine(s.cfg.NotTakenGrace)

	salaryRates, err := s.rates.ListSalaryRates(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	deductionBases, err := s.rates.ListDeductionBases(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	resolver := NewRateResolver(salaryRates, deductionBases)

	intervals, err := s.facts.ListAssignments(ctx, schoolID, teacherID, from, to)
	if err != nil {
		return nil, err
	}
	facts, err := s.facts.ListClassFacts(ctx, schoolID, teacherID, from, to)
	if err != nil {
		return nil, err
	}
	permissions, err := s.bonuses.ListApprovedPermissions(ctx, schoolID, teacherID, from, to)
	if err != nil {
		return nil, err
	}
	bonuses, err := s.bonuses.ListBonuses(ctx, schoolID, teacherID, from, to)
	if err != nil {
		return nil, err
	}
	assessments, err := s.bonuses.ListAssessments(ctx, schoolID, teacherID, from, to)
	if err != nil {
		return nil, err
	}

	subRanges, err := SplitByAssignment(intervals, from, to)
	if err != nil {
		return nil, err
	}

	detail := &dto.TeacherSalaryDetail{}
	var warnings []string
	missingPackages := map[string]bool{}

	factsByStudent := make(map[string][]models.ClassFact)
	for _, fact := range facts {
		if !fact.Valid() {
			warnings = append(warnings, fmt.Sprintf("skipped malformed class fact %s", fact.ID))
			s.logger.Warn("skipping malformed class fact",
				zap.String("fact_id", fact.ID), zap.String("teacher_id", teacherID))
			continue
		}
		factsByStudent[fact.StudentID] = append(factsByStudent[fact.StudentID], fact)
		detail.LinkFacts = append(detail.LinkFacts, dto.LinkFactItem{
			Date:             dayStart(fact.ClassDate),
			StudentID:        fact.StudentID,
			SentAt:           fact.SentAt,
			StartedAt:        fact.StartedAt,
			ClickedAt:        fact.ClickedAt,
			AttendanceStatus: string(fact.AttendanceStatus),
		})
	}

	summary := dto.SalarySummary{
		BasePay:           decimal.Zero,
		LatenessDeduction: decimal.Zero,
		AbsenceDeduction:  decimal.Zero,
		Bonus:             decimal.Zero,
		NetSalary:         decimal.Zero,
	}
	var lines []dto.StudentLine

	for _, sub := range subRanges {
		assignments := append([]models.AssignmentInterval(nil), sub.Assignments...)
		sort.Slice(assignments, func(i, j int) bool { return assignments[i].StudentID < assignments[j].StudentID })

		for _, iv := range assignments {
			res := resolver.Resolve(iv.DayPackage)
			if res.Missing && !missingPackages[iv.DayPackage] {
				missingPackages[iv.DayPackage] = true
				warnings = append(warnings, fmt.Sprintf("no salary configuration for package %q", iv.DayPackage))
			}

			line := dto.StudentLine{
				StudentID:         iv.StudentID,
				Package:           iv.DayPackage,
				From:              sub.From,
				To:                sub.To,
				BillableDays:      billableDays(sub.From, sub.To, settings.IncludeSundaysInSalary),
				BasePay:           proratedBasePay(res.MonthlyRate, sub.From, sub.To, settings.IncludeSundaysInSalary),
				LatenessDeduction: decimal.Zero,
				AbsenceDeduction:  decimal.Zero,
				RateMissing:       res.Missing,
			}

			for _, fact := range factsByStudent[iv.StudentID] {
				day := dayStart(fact.ClassDate)
				if day.Before(sub.From) || day.After(sub.To) {
					continue
				}
				if observed := fact.Observed(); observed != nil {
					assessment, err := latenessEngine.Assess(fact.SlotStart, *observed, res.LatenessBase)
					if err != nil {
						return nil, err
					}
					item := dto.LatenessItem{
						Date:        day,
						StudentID:   fact.StudentID,
						MinutesLate: assessment.MinutesLate,
						Excused:     assessment.Excused,
						Percent:     decimal.Zero,
						Base:        res.LatenessBase,
						Deduction:   assessment.Deduction,
					}
					if assessment.Tier != nil {
						item.TierFrom = assessment.Tier.FromMinute
						item.TierTo = assessment.Tier.ToMinute
						item.Percent = assessment.Tier.DeductionPercent
					}
					detail.Lateness = append(detail.Lateness, item)
					line.LatenessDeduction = line.LatenessDeduction.Add(assessment.Deduction)
				} else {
					assessment := absenceEngine.Assess(fact, res.AbsenceBase, permissions)
					if assessment.Fired || assessment.Suppressed {
						detail.Absences = append(detail.Absences, dto.AbsenceItem{
							Date:         day,
							StudentID:    fact.StudentID,
							Status:       string(fact.AttendanceStatus),
							Suppressed:   assessment.Suppressed,
							SuppressedBy: assessment.SuppressedBy,
							Deduction:    assessment.Deduction,
						})
					}
					line.AbsenceDeduction = line.AbsenceDeduction.Add(assessment.Deduction)
				}
			}

			summary.BasePay = summary.BasePay.Add(line.BasePay)
			summary.LatenessDeduction = summary.LatenessDeduction.Add(line.LatenessDeduction)
			summary.AbsenceDeduction = summary.AbsenceDeduction.Add(line.AbsenceDeduction)
			lines = append(lines, line)
		}
	}

	bonusSummary := AggregateBonuses(bonuses, assessments, from, to)
	summary.Bonus = bonusSummary.Total
	warnings = append(warnings, bonusSummary.AuditNotes...)
	detail.Bonuses = bonusSummary.Manual
	detail.QualityBonuses = bonusSummary.Quality

	summary.NetSalary = summary.BasePay.
		Sub(summary.LatenessDeduction).
		Sub(summary.AbsenceDeduction).
		Add(summary.Bonus)

	if err := s.checkReconciliation(detail, lines, summary, teacherID); err != nil {
		return nil, err
	}

	sortItems(detail)

	detail.Result = dto.TeacherSalaryResult{
		TeacherID:         teacherID,
		PeriodStart:       from,
		PeriodEnd:         to,
		BaseSalary:        summary.BasePay,
		LatenessDeduction: summary.LatenessDeduction,
		AbsenceDeduction:  summary.AbsenceDeduction,
		Bonuses:           summary.Bonus,
		TotalSalary:       summary.NetSalary,
		Status:            SalaryStatusComputed,
		Breakdown: dto.SalaryBreakdown{
			StudentBreakdown: lines,
			Summary:          summary,
		},
		Warnings: warnings,
	}
	return detail, nil
}

// checkReconciliation cross-checks the published summary against an
// independent sum over the itemized entries. Every figure derives from one
// accumulation, so a mismatch means an arithmetic defect upstream.
func (s *SalaryService) checkReconciliation(detail *dto.TeacherSalaryDetail, lines []dto.StudentLine, summary dto.SalarySummary, teacherID string) error {
	base, lateness, absence := decimal.Zero, decimal.Zero, decimal.Zero
	for _, line := range lines {
		base = base.Add(line.BasePay)
		lateness = lateness.Add(line.LatenessDeduction)
		absence = absence.Add(line.AbsenceDeduction)
	}
	itemLateness, itemAbsence := decimal.Zero, decimal.Zero
	for _, item := range detail.Lateness {
		itemLateness = itemLateness.Add(item.Deduction)
	}
	for _, item := range detail.Absences {
		itemAbsence = itemAbsence.Add(item.Deduction)
	}

	if summary.BasePay.Equal(base) &&
		summary.LatenessDeduction.Equal(lateness) && lateness.Equal(itemLateness) &&
		summary.AbsenceDeduction.Equal(absence) && absence.Equal(itemAbsence) {
		return nil
	}

	if s.cfg.StrictInvariants {
		return appErrors.Clone(appErrors.ErrInvariantViolation,
			fmt.Sprintf("salary summary does not reconcile with line items for teacher %s", teacherID))
	}
	s.logger.Error("salary summary does not reconcile with line items",
		zap.String("teacher_id", teacherID),
		zap.String("summary_base", summary.BasePay.String()),
		zap.String("line_base", base.String()))
	return nil
}

func sortItems(detail *dto.TeacherSalaryDetail) {
	sort.Slice(detail.Lateness, func(i, j int) bool {
		if !detail.Lateness[i].Date.Equal(detail.Lateness[j].Date) {
			return detail.Lateness[i].Date.Before(detail.Lateness[j].Date)
		}
		return detail.Lateness[i].StudentID < detail.Lateness[j].StudentID
	})
	sort.Slice(detail.Absences, func(i, j int) bool {
		if !detail.Absences[i].Date.Equal(detail.Absences[j].Date) {
			return detail.Absences[i].Date.Before(detail.Absences[j].Date)
		}
		return detail.Absences[i].StudentID < detail.Absences[j].StudentID
	})
	sort.Slice(detail.LinkFacts, func(i, j int) bool {
		if !detail.LinkFacts[i].Date.Equal(detail.LinkFacts[j].Date) {
			return detail.LinkFacts[i].Date.Before(detail.LinkFacts[j].Date)
		}
		return detail.LinkFacts[i].StudentID < detail.LinkFacts[j].StudentID
	})
	sort.Slice(detail.Bonuses, func(i, j int) bool {
		return detail.Bonuses[i].AwardedAt.Before(detail.Bonuses[j].AwardedAt)
	})
	sort.Slice(detail.QualityBonuses, func(i, j int) bool {
		return detail.QualityBonuses[i].WeekStart.Before(detail.QualityBonuses[j].WeekStart)
	})
}

// proratedBasePay computes monthly-rate pay for [from, to], weighting each
// calendar month segment by its share of that month's billable days.
func proratedBasePay(monthlyRate decimal.Decimal, from, to time.Time, includeSundays bool) decimal.Decimal {
	if monthlyRate.IsZero() {
		return decimal.Zero
	}
	total := decimal.Zero
	for cursor := from; !cursor.After(to); {
		segmentEnd := minDay(monthEnd(cursor), to)
		monthDays := billableDaysInMonth(cursor, includeSundays)
		segmentDays := billableDays(cursor, segmentEnd, includeSundays)
		if monthDays > 0 && segmentDays > 0 {
			total = total.Add(monthlyRate.
				Mul(decimal.NewFromInt(int64(segmentDays))).
				Div(decimal.NewFromInt(int64(monthDays))))
		}
		cursor = nextDay(segmentEnd)
	}
	return total.Round(2)
}

func (s *SalaryService) mapComputeErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return appErrors.Wrap(err, appErrors.ErrComputationTimeout.Code, appErrors.ErrComputationTimeout.Status, appErrors.ErrComputationTimeout.Message)
	}
	return err
}

// PurgeTenant drops every cached computation for the school. Configuration
// writers call this after bumping a version.
func (s *SalaryService) PurgeTenant(ctx context.Context, schoolID string) error {
	return s.results.PurgeTenant(ctx, schoolID)
}
