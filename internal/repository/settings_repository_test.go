package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-pay-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestSettingsRepositoryGetSettings(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSettingsRepository(db)
	rows := sqlmock.NewRows([]string{"school_id", "include_sundays_in_salary", "teacher_salary_visible", "version"}).
		AddRow("school-1", false, true, int64(4))
	mock.ExpectQuery("SELECT school_id, include_sundays_in_salary").
		WithArgs("school-1").
		WillReturnRows(rows)

	settings, err := repo.GetSettings(context.Background(), "school-1")
	require.NoError(t, err)
	assert.True(t, settings.TeacherSalaryVisible)
	assert.Equal(t, int64(4), settings.Version)
}

func TestSettingsRepositoryGetSettingsDefaultsWhenMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSettingsRepository(db)
	mock.ExpectQuery("SELECT school_id, include_sundays_in_salary").
		WithArgs("school-9").
		WillReturnRows(sqlmock.NewRows([]string{"school_id", "include_sundays_in_salary", "teacher_salary_visible", "version"}))

	settings, err := repo.GetSettings(context.Background(), "school-9")
	require.NoError(t, err)
	assert.Equal(t, "school-9", settings.SchoolID)
	assert.False(t, settings.IncludeSundaysInSalary)
	assert.Equal(t, int64(0), settings.Version)
}

func TestSettingsRepositorySaveSettingsBumpsVersion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSettingsRepository(db)
	mock.ExpectQuery("INSERT INTO tenant_settings").
		WithArgs("school-1", true, false).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(5)))

	saved, err := repo.SaveSettings(context.Background(), models.TenantSettings{
		SchoolID:               "school-1",
		IncludeSundaysInSalary: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), saved.Version)
}
