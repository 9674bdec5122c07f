package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/school-pay-api/internal/models"
)

func TestRateResolverResolve(t *testing.T) {
	resolver := NewRateResolver(
		[]models.PackageSalaryRate{{Package: "MWF", MonthlyRate: decimal.NewFromInt(900)}},
		[]models.PackageDeductionBase{{Package: "MWF", LatenessBase: decimal.NewFromInt(30), AbsenceBase: decimal.NewFromInt(45)}},
	)

	resolved := resolver.Resolve("MWF")
	assert.False(t, resolved.Missing)
	assert.True(t, resolved.MonthlyRate.Equal(decimal.NewFromInt(900)))
	assert.True(t, resolved.LatenessBase.Equal(decimal.NewFromInt(30)))
	assert.True(t, resolved.AbsenceBase.Equal(decimal.NewFromInt(45)))
}

func TestRateResolverMissingPackageDegradesToZero(t *testing.T) {
	resolver := NewRateResolver(
		[]models.PackageSalaryRate{{Package: "MWF", MonthlyRate: decimal.NewFromInt(900)}},
		nil,
	)

	// Rate exists but deduction bases do not: still incomplete.
	resolved := resolver.Resolve("MWF")
	assert.True(t, resolved.Missing)

	unknown := resolver.Resolve("TTS")
	assert.True(t, unknown.Missing)
	assert.True(t, unknown.MonthlyRate.IsZero())
	assert.True(t, unknown.LatenessBase.IsZero())
	assert.True(t, unknown.AbsenceBase.IsZero())
}
