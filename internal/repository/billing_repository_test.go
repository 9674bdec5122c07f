package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/school-pay-api/pkg/errors"
)

func TestBillingRepositoryGetSubscription(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBillingRepository(db)
	rows := sqlmock.NewRows([]string{"school_id", "plan_id", "billing_cycle", "period_start", "period_end", "active_student_count"}).
		AddRow("school-1", "plan-basic", "MONTHLY", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), 48)
	mock.ExpectQuery("SELECT school_id, plan_id, billing_cycle").
		WithArgs("school-1").
		WillReturnRows(rows)

	subscription, err := repo.GetSubscription(context.Background(), "school-1")
	require.NoError(t, err)
	assert.Equal(t, "plan-basic", subscription.PlanID)
	assert.Equal(t, 48, subscription.ActiveStudentCount)
}

func TestBillingRepositoryGetSubscriptionNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBillingRepository(db)
	mock.ExpectQuery("SELECT school_id, plan_id, billing_cycle").
		WithArgs("school-9").
		WillReturnRows(sqlmock.NewRows([]string{"school_id", "plan_id", "billing_cycle", "period_start", "period_end", "active_student_count"}))

	_, err := repo.GetSubscription(context.Background(), "school-9")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBillingRepositoryCountActiveStudents(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBillingRepository(db)
	mock.ExpectQuery(`SELECT COUNT\(DISTINCT student_id\)`).
		WithArgs("school-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(50))

	count, err := repo.CountActiveStudents(context.Background(), "school-1")
	require.NoError(t, err)
	assert.Equal(t, 50, count)
}

func TestBillingRepositoryListPlanFeatures(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBillingRepository(db)
	rows := sqlmock.NewRows([]string{"plan_id", "feature_name", "price", "is_enabled"}).
		AddRow("plan-basic", "analytics", "20", true).
		AddRow("plan-basic", "sms", "15", false)
	mock.ExpectQuery("SELECT plan_id, feature_name, price, is_enabled").
		WithArgs("plan-basic").
		WillReturnRows(rows)

	features, err := repo.ListPlanFeatures(context.Background(), "plan-basic")
	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.Equal(t, "analytics", features[0].FeatureName)
	assert.True(t, features[0].IsEnabled)
}
