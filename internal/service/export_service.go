package service

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/school-pay-api/internal/dto"
	"github.com/noah-isme/school-pay-api/internal/models"
	"github.com/noah-isme/school-pay-api/pkg/export"
	appErrors "github.com/noah-isme/school-pay-api/pkg/errors"
)

type salaryDetailProvider interface {
	ComputeTeacherSalaryDetail(ctx context.Context, schoolID, teacherID string, from, to time.Time) (*dto.TeacherSalaryDetail, error)
}

var statementColumns = []string{"Section", "Date", "Student", "Detail", "Amount"}

// ExportService renders payout statements from itemized salary details.
type ExportService struct {
	salaries salaryDetailProvider
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
}

// NewExportService wires the statement renderer.
func NewExportService(salaries salaryDetailProvider) *ExportService {
	return &ExportService{
		salaries: salaries,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
	}
}

// RenderStatement computes the salary detail for the job parameters and
// renders it in the requested format. It returns the file bytes and a
// filename relative to the statement storage root.
func (s *ExportService) RenderStatement(ctx context.Context, params models.StatementJobParams) ([]byte, string, error) {
	detail, err := s.salaries.ComputeTeacherSalaryDetail(ctx, params.SchoolID, params.TeacherID, params.From, params.To)
	if err != nil {
		return nil, "", err
	}

	table := buildStatementTable(detail, params)
	filename := fmt.Sprintf("%s/%s_%s_%s.%s",
		params.SchoolID, params.TeacherID,
		params.From.Format("20060102"), params.To.Format("20060102"), params.Format)

	switch params.Format {
	case models.StatementFormatCSV:
		data, err := s.csv.Render(table)
		return data, filename, err
	case models.StatementFormatPDF:
		data, err := s.pdf.Render(table)
		return data, filename, err
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported statement format %q", params.Format))
	}
}

func buildStatementTable(detail *dto.TeacherSalaryDetail, params models.StatementJobParams) export.Table {
	rows := make([][]string, 0, len(detail.Lateness)+len(detail.Absences)+len(detail.Bonuses)+8)

	for _, line := range detail.Result.Breakdown.StudentBreakdown {
		rows = append(rows, []string{
			"Base pay",
			fmt.Sprintf("%s to %s", line.From.Format("2006-01-02"), line.To.Format("2006-01-02")),
			line.StudentID,
			fmt.Sprintf("%s, %d billable days", line.Package, line.BillableDays),
			line.BasePay.String(),
		})
	}
	for _, item := range detail.Lateness {
		detailText := fmt.Sprintf("%d min late", item.MinutesLate)
		if item.Excused {
			detailText += ", excused"
		} else if !item.Percent.IsZero() {
			detailText += fmt.Sprintf(", tier %d-%d at %s%%", item.TierFrom, item.TierTo, item.Percent)
		}
		rows = append(rows, []string{
			"Lateness",
			item.Date.Format("2006-01-02"),
			item.StudentID,
			detailText,
			item.Deduction.Neg().String(),
		})
	}
	for _, item := range detail.Absences {
		detailText := item.Status
		if item.Suppressed {
			detailText += fmt.Sprintf(", suppressed by permission %s", item.SuppressedBy)
		}
		rows = append(rows, []string{
			"Absence",
			item.Date.Format("2006-01-02"),
			item.StudentID,
			detailText,
			item.Deduction.Neg().String(),
		})
	}
	for _, bonus := range detail.Bonuses {
		rows = append(rows, []string{
			"Bonus",
			bonus.AwardedAt.Format("2006-01-02"),
			"",
			fmt.Sprintf("%s, %s", bonus.PeriodLabel, bonus.Reason),
			bonus.Amount.String(),
		})
	}
	for _, bonus := range detail.QualityBonuses {
		rows = append(rows, []string{
			"Quality bonus",
			bonus.WeekStart.Format("2006-01-02"),
			"",
			bonus.OverallQuality,
			bonus.Amount.String(),
		})
	}

	summary := detail.Result.Breakdown.Summary
	rows = append(rows,
		[]string{"Summary", "", "", "Base pay", summary.BasePay.String()},
		[]string{"Summary", "", "", "Lateness deduction", summary.LatenessDeduction.Neg().String()},
		[]string{"Summary", "", "", "Absence deduction", summary.AbsenceDeduction.Neg().String()},
		[]string{"Summary", "", "", "Bonuses", summary.Bonus.String()},
		[]string{"Summary", "", "", "Net salary", summary.NetSalary.String()},
	)

	return export.Table{
		Title: fmt.Sprintf("Payout statement %s to %s",
			params.From.Format("2006-01-02"), params.To.Format("2006-01-02")),
		Columns: statementColumns,
		Rows:    rows,
	}
}
