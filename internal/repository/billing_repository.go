package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-pay-api/internal/models"
	appErrors "github.com/noah-isme/school-pay-api/pkg/errors"
)

// BillingRepository reads subscription and pricing data.
type BillingRepository struct {
	db *sqlx.DB
}

// NewBillingRepository constructs the repository.
func NewBillingRepository(db *sqlx.DB) *BillingRepository {
	return &BillingRepository{db: db}
}

// GetSubscription returns the school's current subscription.
func (r *BillingRepository) GetSubscription(ctx context.Context, schoolID string) (models.SchoolSubscription, error) {
	const query = `SELECT school_id, plan_id, billing_cycle, period_start, period_end, active_student_count
FROM school_subscriptions WHERE school_id = $1`
	var subscription models.SchoolSubscription
	if err := r.db.GetContext(ctx, &subscription, query, schoolID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SchoolSubscription{}, appErrors.Clone(appErrors.ErrNotFound,
				fmt.Sprintf("no subscription for school %s", schoolID))
		}
		return models.SchoolSubscription{}, fmt.Errorf("get subscription: %w", err)
	}
	return subscription, nil
}

// GetPlan fetches a pricing plan by id.
func (r *BillingRepository) GetPlan(ctx context.Context, planID string) (models.PricingPlan, error) {
	const query = `SELECT id, name, base_rate_per_student, currency, version
FROM pricing_plans WHERE id = $1`
	var plan models.PricingPlan
	if err := r.db.GetContext(ctx, &plan, query, planID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PricingPlan{}, appErrors.Clone(appErrors.ErrNotFound,
				fmt.Sprintf("pricing plan %s not found", planID))
		}
		return models.PricingPlan{}, fmt.Errorf("get pricing plan: %w", err)
	}
	return plan, nil
}

// ListPlanFeatures returns every feature row for the plan, enabled or not.
func (r *BillingRepository) ListPlanFeatures(ctx context.Context, planID string) ([]models.PlanFeature, error) {
	const query = `SELECT plan_id, feature_name, price, is_enabled
FROM plan_features WHERE plan_id = $1 ORDER BY feature_name ASC`
	var features []models.PlanFeature
	if err := r.db.SelectContext(ctx, &features, query, planID); err != nil {
		return nil, fmt.Errorf("list plan features: %w", err)
	}
	return features, nil
}

// CountActiveStudents recounts students with an open assignment right now.
// The cached counter on the subscription row is advisory only.
func (r *BillingRepository) CountActiveStudents(ctx context.Context, schoolID string) (int, error) {
	const query = `SELECT COUNT(DISTINCT student_id)
FROM assignment_intervals
WHERE school_id = $1 AND start_date <= NOW() AND (end_date IS NULL OR end_date >= NOW())`
	var count int
	if err := r.db.GetContext(ctx, &count, query, schoolID); err != nil {
		return 0, fmt.Errorf("count active students: %w", err)
	}
	return count, nil
}
