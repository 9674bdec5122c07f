package service

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/school-pay-api/internal/models"
)

// RateResolution is the effective pricing for one day package. Missing marks
// packages with no configuration; their amounts are zero so a single
// misconfigured package degrades one line item instead of aborting the run.
type RateResolution struct {
	Package      string
	MonthlyRate  decimal.Decimal
	LatenessBase decimal.Decimal
	AbsenceBase  decimal.Decimal
	Missing      bool
}

// RateResolver is a pure lookup over a preloaded configuration snapshot.
type RateResolver struct {
	rates map[string]models.PackageSalaryRate
	bases map[string]models.PackageDeductionBase
}

// NewRateResolver indexes the tables for lookup.
func NewRateResolver(rates []models.PackageSalaryRate, bases []models.PackageDeductionBase) *RateResolver {
	r := &RateResolver{
		rates: make(map[string]models.PackageSalaryRate, len(rates)),
		bases: make(map[string]models.PackageDeductionBase, len(bases)),
	}
	for _, rate := range rates {
		r.rates[rate.Package] = rate
	}
	for _, base := range bases {
		r.bases[base.Package] = base
	}
	return r
}

// Resolve returns the salary rate and deduction bases for a package.
func (r *RateResolver) Resolve(pkg string) RateResolution {
	resolution := RateResolution{
		Package:      pkg,
		MonthlyRate:  decimal.Zero,
		LatenessBase: decimal.Zero,
		AbsenceBase:  decimal.Zero,
	}
	rate, rateOK := r.rates[pkg]
	if rateOK {
		resolution.MonthlyRate = rate.MonthlyRate
	}
	base, baseOK := r.bases[pkg]
	if baseOK {
		resolution.LatenessBase = base.LatenessBase
		resolution.AbsenceBase = base.AbsenceBase
	}
	resolution.Missing = !rateOK || !baseOK
	return resolution
}
