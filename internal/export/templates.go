package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"jerrygfit/api/internal/analytics"
	"jerrygfit/api/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// maxReportProjects caps the project table in the PDF report.
const maxReportProjects = 10

var reportTemplate = template.Must(template.New("report.html").Funcs(template.FuncMap{
	"upper":   func(v any) string { return strings.ToUpper(fmt.Sprint(v)) },
	"percent": func(v float64) string { return fmt.Sprintf("%.0f%%", v) },
}).ParseFS(templateFS, "templates/report.html"))

// SummaryRow is one line of the summary metrics table.
type SummaryRow struct {
	Metric string
	Value  string
}

// TemplateData holds data for report template rendering
type TemplateData struct {
	UserName     string
	GeneratedAt  time.Time
	Summary      []SummaryRow
	Distribution analytics.RiskDistribution
	ProjectCount int
	Projects     []store.Project
}

// SummaryRows formats the totals the way both documents present them.
func SummaryRows(t analytics.Totals) []SummaryRow {
	return []SummaryRow{
		{"Total Tasks", strconv.Itoa(t.TotalTasks)},
		{"Completed Tasks", strconv.Itoa(t.CompletedTasks)},
		{"Completion Rate", fmt.Sprintf("%.1f%%", t.CompletionRate)},
		{"Velocity", fmt.Sprintf("%.1f tasks/week", t.Velocity)},
		{"Average Lead Time", fmt.Sprintf("%.1f days", t.AverageLeadTime)},
		{"Total Risks", strconv.Itoa(t.TotalRisks)},
		{"Open Risks", strconv.Itoa(t.OpenRisks)},
		{"Risk Score", fmt.Sprintf("%.1f/100", t.RiskScore)},
	}
}

func newTemplateData(data ReportData) TemplateData {
	projects := data.Projects
	if len(projects) > maxReportProjects {
		projects = projects[:maxReportProjects]
	}
	return TemplateData{
		UserName:     data.UserName,
		GeneratedAt:  data.GeneratedAt.UTC(),
		Summary:      SummaryRows(data.Analytics.Totals),
		Distribution: data.Analytics.RiskDistribution,
		ProjectCount: len(data.Projects),
		Projects:     projects,
	}
}

// RenderReportHTML renders the report template with provided data
func RenderReportHTML(data ReportData) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, newTemplateData(data)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
