package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const dateLayout = "2006-01-02"

// RenderWorkbook builds the XLSX report. Summary and Velocity sheets are always
// present; Tasks, Risks and Projects only when the user has rows of that kind.
func RenderWorkbook(data ReportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), "Summary"); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	summary := [][]any{{"Metric", "Value"}}
	t := data.Analytics.Totals
	for _, row := range SummaryRows(t) {
		summary = append(summary, []any{row.Metric, row.Value})
	}
	// Counts stay numeric in the workbook.
	summary[1][1], summary[2][1] = t.TotalTasks, t.CompletedTasks
	summary[6][1], summary[7][1] = t.TotalRisks, t.OpenRisks
	if err := writeRows(f, "Summary", summary); err != nil {
		return nil, err
	}

	if len(data.Tasks) > 0 {
		rows := [][]any{{"ID", "Title", "Status", "Priority", "Created", "Completed"}}
		for _, task := range data.Tasks {
			rows = append(rows, []any{task.ID, task.Title, string(task.Status), string(task.Priority), task.CreatedAt.Format(dateLayout), task.Completed})
		}
		if err := addSheet(f, "Tasks", rows); err != nil {
			return nil, err
		}
	}

	if len(data.Risks) > 0 {
		rows := [][]any{{"ID", "Title", "Severity", "Probability", "Impact", "Status", "Created"}}
		for _, risk := range data.Risks {
			rows = append(rows, []any{risk.ID, risk.Title, string(risk.Severity), string(risk.Probability), string(risk.Impact), string(risk.Status), risk.CreatedAt.Format(dateLayout)})
		}
		if err := addSheet(f, "Risks", rows); err != nil {
			return nil, err
		}
	}

	if len(data.Projects) > 0 {
		rows := [][]any{{"ID", "Name", "Status", "Progress", "Created"}}
		for _, project := range data.Projects {
			rows = append(rows, []any{project.ID, project.Name, string(project.Status), fmt.Sprintf("%.0f%%", project.Progress), project.CreatedAt.Format(dateLayout)})
		}
		if err := addSheet(f, "Projects", rows); err != nil {
			return nil, err
		}
	}

	if len(data.Analytics.VelocityData) > 0 {
		rows := [][]any{{"Week", "Tasks Completed", "Average"}}
		for _, point := range data.Analytics.VelocityData {
			rows = append(rows, []any{point.Week, point.TasksCompleted, point.Average})
		}
		if err := addSheet(f, "Velocity", rows); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func addSheet(f *excelize.File, name string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("add sheet %s: %w", name, err)
	}
	return writeRows(f, name, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
