package export

import (
	"context"
	"fmt"
	"time"
)

// Service produces downloadable analytics reports.
type Service struct {
	pdf PDFRenderer
}

// NewService creates a new export service
func NewService(pdf PDFRenderer) *Service {
	return &Service{pdf: pdf}
}

// Filename is analytics_report_YYYYMMDD_HHMMSS with the format's extension.
func Filename(at time.Time, format Format) string {
	return fmt.Sprintf("analytics_report_%s.%s", at.UTC().Format("20060102_150405"), format)
}

// Export generates the report in the requested format
func (s *Service) Export(ctx context.Context, format Format, data ReportData) (*Result, error) {
	if data.GeneratedAt.IsZero() {
		data.GeneratedAt = time.Now().UTC()
	}

	switch format {
	case FormatPDF:
		html, err := RenderReportHTML(data)
		if err != nil {
			return nil, fmt.Errorf("render template: %w", err)
		}
		pdf, err := s.pdf.Render(ctx, html)
		if err != nil {
			return nil, err
		}
		return &Result{Data: pdf, Filename: Filename(data.GeneratedAt, FormatPDF), MimeType: mimePDF}, nil
	case FormatXLSX:
		xlsx, err := RenderWorkbook(data)
		if err != nil {
			return nil, err
		}
		return &Result{Data: xlsx, Filename: Filename(data.GeneratedAt, FormatXLSX), MimeType: mimeXLSX}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
