package models

// TenantSettings is the per-school configuration snapshot the engine reads.
// Calculations receive it as an explicit input; nothing in the engine consults
// live settings mid-computation.
type TenantSettings struct {
	SchoolID               string `db:"school_id" json:"school_id"`
	IncludeSundaysInSalary bool   `db:"include_sundays_in_salary" json:"include_sundays_in_salary"`
	TeacherSalaryVisible   bool   `db:"teacher_salary_visible" json:"teacher_salary_visible"`
	Version                int64  `db:"version" json:"version"`
}
