package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sekolah-digital/ops-api/internal/models"
	appErrors "github.com/sekolah-digital/ops-api/pkg/errors"
	"github.com/sekolah-digital/ops-api/pkg/export"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportResult carries rendered bytes plus HTTP delivery metadata.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders monthly class attendance sheets. It reuses the
// status service so exported numbers always match what the dashboard shows.
type ExportService struct {
	students insightStudentRepo
	status   *StatusService
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(students insightStudentRepo, status *StatusService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		students: students,
		status:   status,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// MonthlyClassSheet renders the per-student monthly recap for one class and
// shift: counts per status plus the average arrival label.
func (s *ExportService) MonthlyClassSheet(ctx context.Context, classID string, shift models.Shift, month string, format ExportFormat) (*ExportResult, error) {
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if !shift.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid shift")
	}

	cohort, err := s.students.ListByClassShift(ctx, classID, shift)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cohort")
	}

	sheet := export.Sheet{
		Title:    fmt.Sprintf("Attendance Recap %s", classID),
		Subtitle: fmt.Sprintf("%s shift, %s", shift, month),
		Headers:  []string{"NIS", "Name", "Present", "Late", "Absent", "Permission", "Pending", "Average Arrival"},
	}

	for _, student := range cohort {
		view, err := s.status.StudentMonth(ctx, student.ID, month)
		if err != nil {
			return nil, err
		}
		counts := map[models.DayStatus]int{}
		for _, d := range view.Days {
			counts[d.Status]++
		}
		sheet.Rows = append(sheet.Rows, []string{
			student.NIS,
			student.FullName,
			fmt.Sprintf("%d", counts[models.StatusPresent]),
			fmt.Sprintf("%d", counts[models.StatusLate]),
			fmt.Sprintf("%d", counts[models.StatusAbsent]),
			fmt.Sprintf("%d", counts[models.StatusPermission]),
			fmt.Sprintf("%d", counts[models.StatusPending]),
			view.Average.Label,
		})
	}

	var data []byte
	var contentType, ext string
	switch format {
	case FormatPDF:
		data, err = s.pdf.Render(sheet)
		contentType, ext = "application/pdf", "pdf"
	default:
		data, err = s.csv.Render(sheet)
		contentType, ext = "text/csv", "csv"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("rendered class export",
		zap.String("class_id", classID),
		zap.String("month", month),
		zap.String("format", string(format)),
		zap.Int("students", len(cohort)),
	)
	return &ExportResult{
		FileName:    fmt.Sprintf("attendance-%s-%s-%s.%s", classID, shift, month, ext),
		ContentType: contentType,
		Data:        data,
	}, nil
}
