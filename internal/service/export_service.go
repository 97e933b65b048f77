package service

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/campuslink/placement-api/internal/models"
	"github.com/campuslink/placement-api/pkg/export"
)

// registrationCSVHeaders is the fixed export contract: column order and
// header text do not change between callers.
var registrationCSVHeaders = []string{"Name", "Roll Number", "Branch", "CGPA", "Email", "Phone", "Status", "Registration Date"}

const missingValue = "N/A"

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService serializes drive registrations and statistics into flat
// tabular formats. It never mutates state. Missing or empty field values
// render as "N/A" uniformly; dates use the configured layout.
type ExportService struct {
	csv        csvRenderer
	pdf        pdfRenderer
	dateFormat string
	logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(csv csvRenderer, pdf pdfRenderer, dateFormat string, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if dateFormat == "" {
		dateFormat = "2006-01-02"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{csv: csv, pdf: pdf, dateFormat: dateFormat, logger: logger}
}

// RegistrationsCSV renders the registration list of a drive as CSV. When
// statusFilter is non-empty only matching registrations are exported.
func (s *ExportService) RegistrationsCSV(drive *models.Drive, registrations []models.Registration, statusFilter models.RegistrationStatus) ([]byte, error) {
	filtered := registrations
	if statusFilter != "" {
		filtered = make([]models.Registration, 0, len(registrations))
		for _, reg := range registrations {
			if reg.Status == statusFilter {
				filtered = append(filtered, reg)
			}
		}
	}

	rows := make([]map[string]string, 0, len(filtered))
	for _, reg := range filtered {
		rows = append(rows, map[string]string{
			"Name":              orMissing(reg.StudentName),
			"Roll Number":       orMissing(reg.RollNumber),
			"Branch":            orMissing(reg.Branch),
			"CGPA":              s.formatCGPA(reg.CGPA),
			"Email":             orMissing(reg.Email),
			"Phone":             orMissing(reg.Phone),
			"Status":            orMissing(string(reg.Status)),
			"Registration Date": s.formatDate(reg),
		})
	}

	return s.csv.Render(export.Dataset{Headers: registrationCSVHeaders, Rows: rows})
}

// StatisticsPDF renders a printable summary report for a drive.
func (s *ExportService) StatisticsPDF(drive *models.Drive, stats models.DriveStatistics) ([]byte, error) {
	rows := []map[string]string{
		{"Metric": "Total Registrations", "Value": fmt.Sprintf("%d", stats.Total)},
		{"Metric": "Registered", "Value": fmt.Sprintf("%d", stats.Registered)},
		{"Metric": "Selected", "Value": fmt.Sprintf("%d", stats.Selected)},
		{"Metric": "Rejected", "Value": fmt.Sprintf("%d", stats.Rejected)},
		{"Metric": "Waitlisted", "Value": fmt.Sprintf("%d", stats.Waitlisted)},
		{"Metric": "CSE Students", "Value": fmt.Sprintf("%d", stats.CSEStudents)},
		{"Metric": "IT Students", "Value": fmt.Sprintf("%d", stats.ITStudents)},
		{"Metric": "Average CGPA", "Value": fmt.Sprintf("%.2f", stats.AverageCGPA)},
	}

	dataset := export.Dataset{Headers: []string{"Metric", "Value"}, Rows: rows}
	title := fmt.Sprintf("%s - %s", drive.Company, drive.Title)
	return s.pdf.Render(dataset, title)
}

func (s *ExportService) formatCGPA(cgpa *float64) string {
	if cgpa == nil || math.IsNaN(*cgpa) {
		return missingValue
	}
	return fmt.Sprintf("%.2f", *cgpa)
}

func (s *ExportService) formatDate(reg models.Registration) string {
	if reg.RegistrationDate.IsZero() {
		return missingValue
	}
	return reg.RegistrationDate.UTC().Format(s.dateFormat)
}

func orMissing(value string) string {
	if value == "" {
		return missingValue
	}
	return value
}
