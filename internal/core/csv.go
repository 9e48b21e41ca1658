package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ExportKind selects which CSV schema to produce.
type ExportKind string

const (
	ExportProjects ExportKind = "projects"
	ExportTasks    ExportKind = "tasks"
	ExportExpenses ExportKind = "expenses"
)

var ErrUnknownExportKind = errors.New("unknown export kind")

// ExportCSV renders one of the three fixed CSV schemas from the input
// collections. Rows end with a trailing newline after the last line.
func ExportCSV(kind ExportKind, in ReportInput) (string, error) {
	switch kind {
	case ExportProjects:
		return ProjectsCSV(in.Projects), nil
	case ExportTasks:
		return TasksCSV(in.Tasks), nil
	case ExportExpenses:
		return ExpensesCSV(in.Expenses), nil
	default:
		return "", ErrUnknownExportKind
	}
}

// ProjectsCSV renders `Project ID,Name,Status,Budget,Created At` rows.
// Budgets are raw numbers, timestamps ISO-8601 in UTC.
func ProjectsCSV(projects []Project) string {
	var b strings.Builder
	b.WriteString("Project ID,Name,Status,Budget,Created At\n")
	for _, p := range projects {
		b.WriteString(p.ID)
		b.WriteByte(',')
		b.WriteString(quoteField(p.Name))
		b.WriteByte(',')
		b.WriteString(quoteField(string(p.Status)))
		b.WriteByte(',')
		b.WriteString(strconv.FormatInt(p.Budget, 10))
		b.WriteByte(',')
		b.WriteString(isoUTC(p.CreatedAt))
		b.WriteByte('\n')
	}
	return b.String()
}

// TasksCSV renders `Task ID,Title,Project ID,Assigned To,Completed,Created At`
// rows. Completed is rendered as Yes/No.
func TasksCSV(tasks []Task) string {
	var b strings.Builder
	b.WriteString("Task ID,Title,Project ID,Assigned To,Completed,Created At\n")
	for _, t := range tasks {
		b.WriteString(t.ID)
		b.WriteByte(',')
		b.WriteString(quoteField(t.Title))
		b.WriteByte(',')
		b.WriteString(t.ProjectID)
		b.WriteByte(',')
		b.WriteString(t.AssigneeID)
		b.WriteByte(',')
		if t.Completed {
			b.WriteString("Yes")
		} else {
			b.WriteString("No")
		}
		b.WriteByte(',')
		b.WriteString(isoUTC(t.CreatedAt))
		b.WriteByte('\n')
	}
	return b.String()
}

// ExpensesCSV renders `Expense ID,Description,Project ID,Amount,Date` rows,
// filtered by the expense business date upstream, followed by a Total row
// summing the amount column.
func ExpensesCSV(expenses []Expense) string {
	var b strings.Builder
	b.WriteString("Expense ID,Description,Project ID,Amount,Date\n")
	var total int64
	for _, e := range expenses {
		b.WriteString(e.ID)
		b.WriteByte(',')
		b.WriteString(quoteField(e.Description))
		b.WriteByte(',')
		b.WriteString(e.ProjectID)
		b.WriteByte(',')
		b.WriteString(strconv.FormatInt(e.Amount, 10))
		b.WriteByte(',')
		b.WriteString(isoUTC(e.Date))
		b.WriteByte('\n')
		total += e.Amount
	}
	b.WriteString("Total,,,")
	b.WriteString(strconv.FormatInt(total, 10))
	b.WriteString(",\n")
	return b.String()
}

// quoteField wraps free-text fields in double quotes, doubling any embedded
// quotes. This strengthens the reference behavior (which quoted but did not
// escape) without breaking consumers of quote-free values.
func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// isoUTC formats an epoch-millisecond timestamp as an ISO-8601 UTC string
// with millisecond precision, independent of the process time zone.
func isoUTC(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}
