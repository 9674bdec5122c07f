package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/school-pay-api/internal/dto"
	"github.com/noah-isme/school-pay-api/internal/models"
	"github.com/noah-isme/school-pay-api/pkg/config"
	appErrors "github.com/noah-isme/school-pay-api/pkg/errors"
)

type billingStore interface {
	GetSubscription(ctx context.Context, schoolID string) (models.SchoolSubscription, error)
	GetPlan(ctx context.Context, planID string) (models.PricingPlan, error)
	ListPlanFeatures(ctx context.Context, planID string) ([]models.PlanFeature, error)
	CountActiveStudents(ctx context.Context, schoolID string) (int, error)
}

// BillingService prices school subscriptions. Real bills and previews share
// one formula; a preview only differs in where the student count comes from.
type BillingService struct {
	store   billingStore
	results *ResultCache
	metrics *MetricsService
	logger  *zap.Logger
	cfg     config.BillingConfig
}

// NewBillingService wires the billing calculator.
func NewBillingService(store billingStore, results *ResultCache, metrics *MetricsService, logger *zap.Logger, cfg config.BillingConfig) *BillingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingService{store: store, results: results, metrics: metrics, logger: logger, cfg: cfg}
}

// ComputeSchoolBill prices the school's current subscription period. The
// cached ActiveStudentCount on the subscription row is ignored; the student
// count is recounted live so the bill reflects reality at computation time.
func (s *BillingService) ComputeSchoolBill(ctx context.Context, schoolID string) (*dto.SchoolBillingResult, error) {
	subscription, err := s.store.GetSubscription(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	plan, err := s.store.GetPlan(ctx, subscription.PlanID)
	if err != nil {
		return nil, err
	}

	fp := Fingerprint(plan.Version)
	key := BillingKey(schoolID, dayStart(subscription.PeriodStart), fp)

	value, _, err := s.results.Do(ctx, key,
		func() interface{} { return new(dto.SchoolBillingResult) },
		func(ctx context.Context) (interface{}, error) {
			start := time.Now()
			students, err := s.store.CountActiveStudents(ctx, schoolID)
			if err != nil {
				return nil, err
			}
			features, err := s.store.ListPlanFeatures(ctx, plan.ID)
			if err != nil {
				return nil, err
			}
			result := s.buildBill(plan, features, students)
			result.SchoolID = schoolID
			periodStart := dayStart(subscription.PeriodStart)
			periodEnd := dayStart(subscription.PeriodEnd)
			result.PeriodStart = &periodStart
			result.PeriodEnd = &periodEnd
			s.metrics.ObserveComputation("billing", time.Since(start))
			return result, nil
		})
	if err != nil {
		return nil, err
	}

	result, ok := value.(*dto.SchoolBillingResult)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInternal, "unexpected cached billing payload")
	}
	return result, nil
}

// PreviewBill prices a hypothetical subscription. Previews are never cached;
// they carry caller-supplied counts that would poison real bills.
func (s *BillingService) PreviewBill(ctx context.Context, req dto.BillingPreviewRequest) (*dto.SchoolBillingResult, error) {
	if req.StudentCount < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student count must not be negative")
	}
	plan, err := s.store.GetPlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	features, err := s.store.ListPlanFeatures(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	return s.buildBill(plan, features, req.StudentCount), nil
}

// buildBill is the single pricing formula. Breakdown strings render from the
// same decimals as the numeric fields.
func (s *BillingService) buildBill(plan models.PricingPlan, features []models.PlanFeature, studentCount int) *dto.SchoolBillingResult {
	currency := plan.Currency
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}

	baseFee := plan.BaseRatePerStudent.Mul(decimal.NewFromInt(int64(studentCount))).Round(2)

	sort.Slice(features, func(i, j int) bool { return features[i].FeatureName < features[j].FeatureName })

	featureTotal := decimal.Zero
	fees := make([]dto.FeatureFee, 0, len(features))
	var featureParts []string
	for _, feature := range features {
		fees = append(fees, dto.FeatureFee{
			FeatureName: feature.FeatureName,
			Price:       feature.Price.Round(2),
			IsEnabled:   feature.IsEnabled,
		})
		if !feature.IsEnabled {
			continue
		}
		featureTotal = featureTotal.Add(feature.Price.Round(2))
		featureParts = append(featureParts, fmt.Sprintf("%s %s", feature.FeatureName, feature.Price.Round(2)))
	}

	total := baseFee.Add(featureTotal)

	featureCalc := "no enabled features"
	if len(featureParts) > 0 {
		featureCalc = fmt.Sprintf("%s = %s %s", strings.Join(featureParts, " + "), featureTotal, currency)
	}

	return &dto.SchoolBillingResult{
		PlanID:             plan.ID,
		PlanName:           plan.Name,
		BaseFee:            baseFee,
		ActiveStudentCount: studentCount,
		Currency:           currency,
		FeatureFees:        fees,
		TotalFee:           total,
		Breakdown: dto.BillingBreakdown{
			BaseCalculation:    fmt.Sprintf("%s x %d students = %s %s", plan.BaseRatePerStudent, studentCount, baseFee, currency),
			FeatureCalculation: featureCalc,
			Total:              fmt.Sprintf("%s %s", total, currency),
		},
	}
}
