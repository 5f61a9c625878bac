package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/aulora-api/internal/models"
	"github.com/noah-isme/aulora-api/pkg/export"
	appErrors "github.com/noah-isme/aulora-api/pkg/errors"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

type reportRenderer interface {
	ContentType() string
	Extension() string
	Render(report export.Report) ([]byte, error)
}

type progressReportSource interface {
	CourseProgressReport(ctx context.Context, userID string) ([]models.CourseProgressDetail, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the user's progress report.
type ExportService struct {
	progress  progressReportSource
	renderers map[ExportFormat]reportRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService with the CSV and PDF exporters.
func NewExportService(progress progressReportSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		progress: progress,
		renderers: map[ExportFormat]reportRenderer{
			ExportCSV: export.NewCSVExporter(),
			ExportPDF: export.NewPDFExporter(),
		},
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ProgressReport renders every course progress row of the user in the requested format.
func (s *ExportService) ProgressReport(ctx context.Context, principal *models.JWTClaims, format ExportFormat) (*ExportFile, error) {
	if format == "" {
		format = ExportCSV
	}
	renderer, ok := s.renderers[ExportFormat(strings.ToLower(string(format)))]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}

	rows, err := s.progress.CourseProgressReport(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	report := export.Report{
		Title:    "Course progress",
		Subtitle: fmt.Sprintf("%s, generated %s", principal.FullName, now.Format(time.RFC3339)),
		Headers:  []string{"Course", "Progress %", "State", "Completed at", "Updated at"},
		Rows:     make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		completedAt := ""
		if row.CompletedAt != nil {
			completedAt = row.CompletedAt.Format(time.RFC3339)
		}
		report.Rows = append(report.Rows, []string{
			row.CourseTitle,
			strconv.Itoa(row.Percentage),
			string(StateForPercentage(row.Percentage)),
			completedAt,
			row.UpdatedAt.Format(time.RFC3339),
		})
	}

	body, err := renderer.Render(report)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render report")
	}
	s.logger.Info("progress report exported",
		zap.String("user_id", principal.UserID),
		zap.String("format", renderer.Extension()),
		zap.Int("rows", len(rows)),
	)
	return &ExportFile{
		Filename:    fmt.Sprintf("progress-%s.%s", now.Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}
