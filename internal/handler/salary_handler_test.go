package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-pay-api/internal/dto"
	"github.com/noah-isme/school-pay-api/internal/middleware"
	"github.com/noah-isme/school-pay-api/internal/models"
	"github.com/noah-isme/school-pay-api/internal/service"
	"github.com/noah-isme/school-pay-api/pkg/config"
)

type salaryStoresMock struct {
	settings models.TenantSettings
}

func (m *salaryStoresMock) ListClassFacts(ctx context.Context, schoolID, teacherID string, from, to time.Time) ([]models.ClassFact, error) {
	return nil, nil
}

func (m *salaryStoresMock) ListAssignments(ctx context.Context, schoolID, teacherID string, from, to time.Time) ([]models.AssignmentInterval, error) {
	return []models.AssignmentInterval{{
		ID:         "iv-1",
		SchoolID:   schoolID,
		TeacherID:  teacherID,
		StudentID:  "student-1",
		DayPackage: "MWF",
		StartDate:  time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
	}}, nil
}

func (m *salaryStoresMock) ListSalaryRates(ctx context.Context, schoolID string) ([]models.PackageSalaryRate, error) {
	return []models.PackageSalaryRate{{SchoolID: schoolID, Package: "MWF", MonthlyRate: decimal.NewFromInt(900)}}, nil
}

func (m *salaryStoresMock) ListDeductionBases(ctx context.Context, schoolID string) ([]models.PackageDeductionBase, error) {
	return []models.PackageDeductionBase{{SchoolID: schoolID, Package: "MWF", LatenessBase: decimal.NewFromInt(30), AbsenceBase: decimal.NewFromInt(45)}}, nil
}

func (m *salaryStoresMock) GetLatenessPolicy(ctx context.Context, schoolID string) (models.LatenessPolicy, error) {
	return models.LatenessPolicy{SchoolID: schoolID, ExcusedThresholdMinutes: 4, OverflowPolicy: "clamp", Version: 1}, nil
}

func (m *salaryStoresMock) ConfigVersion(ctx context.Context, schoolID string) (int64, error) {
	return 1, nil
}

func (m *salaryStoresMock) ListBonuses(ctx context.Context, schoolID, teacherID string, from, to time.Time) ([]models.BonusRecord, error) {
	return nil, nil
}

func (m *salaryStoresMock) ListAssessments(ctx context.Context, schoolID, teacherID string, from, to time.Time) ([]models.QualityAssessment, error) {
	return nil, nil
}

func (m *salaryStoresMock) ListApprovedPermissions(ctx context.Context, schoolID, teacherID string, from, to time.Time) ([]models.PermissionRequest, error) {
	return nil, nil
}

func (m *salaryStoresMock) GetSettings(ctx context.Context, schoolID string) (models.TenantSettings, error) {
	return m.settings, nil
}

func (m *salaryStoresMock) SaveSettings(ctx context.Context, settings models.TenantSettings) (models.TenantSettings, error) {
	m.settings = settings
	return settings, nil
}

func (m *salaryStoresMock) ReplaceLatenessPolicy(ctx context.Context, policy models.LatenessPolicy) (models.LatenessPolicy, error) {
	return policy, nil
}

func (m *salaryStoresMock) ReplaceRateTable(ctx context.Context, schoolID string, rates []models.PackageSalaryRate, bases []models.PackageDeductionBase) error {
	return nil
}

func newSalaryTestHandler(salaryVisible bool) *SalaryHandler {
	stores := &salaryStoresMock{settings: models.TenantSettings{
		SchoolID:             "school-1",
		TeacherSalaryVisible: salaryVisible,
		Version:              1,
	}}
	results := service.NewResultCache(service.NewCacheService(nil, nil, time.Minute, nil, false), time.Minute)
	salaries := service.NewSalaryService(stores, stores, stores, stores, results, nil, zap.NewNop(), config.SalaryConfig{
		ComputeTimeout: 5 * time.Second,
		NotTakenGrace:  30 * time.Minute,
	})
	settings := service.NewSettingsService(stores, stores, results, zap.NewNop())
	return NewSalaryHandler(salaries, settings)
}

func salaryRequest(teacherID string, claims *models.JWTClaims) (*httptest.ResponseRecorder, *gin.Context) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/salaries/teachers/"+teacherID+"?from=2026-03-01&to=2026-03-31", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: teacherID}}
	c.Set(middleware.ContextUserKey, claims)
	return w, c
}

func TestSalaryHandlerAdminAccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSalaryTestHandler(false)

	w, c := salaryRequest("teacher-1", &models.JWTClaims{UserID: "admin", SchoolID: "school-1", Role: models.RoleAdmin})
	handler.TeacherSalary(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data dto.TeacherSalaryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, service.SalaryStatusComputed, envelope.Data.Status)
	assert.True(t, envelope.Data.BaseSalary.Equal(decimal.NewFromInt(900)), "full-month assignment pays the full monthly rate, got %s", envelope.Data.BaseSalary)
}

func TestSalaryHandlerTeacherSelfAccessHonorsVisibility(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := newSalaryTestHandler(true)
	w, c := salaryRequest("teacher-1", &models.JWTClaims{UserID: "teacher-1", SchoolID: "school-1", Role: models.RoleTeacher})
	handler.TeacherSalary(c)
	assert.Equal(t, http.StatusOK, w.Code)

	handler = newSalaryTestHandler(false)
	w, c = salaryRequest("teacher-1", &models.JWTClaims{UserID: "teacher-1", SchoolID: "school-1", Role: models.RoleTeacher})
	handler.TeacherSalary(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "salary visibility is disabled")
}

func TestSalaryHandlerTeacherCannotReadOthers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSalaryTestHandler(true)

	w, c := salaryRequest("teacher-2", &models.JWTClaims{UserID: "teacher-1", SchoolID: "school-1", Role: models.RoleTeacher})
	handler.TeacherSalary(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSalaryHandlerRejectsMalformedPeriod(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSalaryTestHandler(true)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/salaries/teachers/teacher-1?from=March&to=2026-03-31", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "teacher-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin", SchoolID: "school-1", Role: models.RoleAdmin})

	handler.TeacherSalary(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
