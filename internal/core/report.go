package core

import (
	"sort"
	"time"
)

// Period selects the reporting window relative to "now".
type Period string

const (
	PeriodAll     Period = "all"
	PeriodMonth   Period = "month"   // last 30 days
	PeriodQuarter Period = "quarter" // last 90 days
	PeriodYear    Period = "year"    // last 365 days
)

// ParsePeriod maps a query value to a Period. Unknown or empty input falls
// back to the all-time window rather than failing.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case PeriodMonth, PeriodQuarter, PeriodYear:
		return Period(s)
	default:
		return PeriodAll
	}
}

// Threshold returns the inclusive epoch-millisecond cutoff for the period, or
// 0 for the all-time window.
func (p Period) Threshold(now time.Time) int64 {
	const day = 24 * time.Hour
	switch p {
	case PeriodMonth:
		return now.Add(-30 * day).UnixMilli()
	case PeriodQuarter:
		return now.Add(-90 * day).UnixMilli()
	case PeriodYear:
		return now.Add(-365 * day).UnixMilli()
	default:
		return 0
	}
}

type (
	// ReportInput carries the raw collections a report is computed from.
	ReportInput struct {
		Projects []Project
		Tasks    []Task
		Expenses []Expense
		Users    []User
	}

	// ReportStats are the fleet-wide summary figures for the filtered window.
	ReportStats struct {
		TotalProjects     int `json:"totalProjects"`
		ActiveProjects    int `json:"activeProjects"`
		CompletedProjects int `json:"completedProjects"`
		PendingProjects   int `json:"pendingProjects"`
		OnHoldProjects    int `json:"onholdProjects"`

		TotalTasks     int `json:"totalTasks"`
		CompletedTasks int `json:"completedTasks"`
		PendingTasks   int `json:"pendingTasks"`

		TotalExpenses     int64   `json:"totalExpenses"`
		TotalBudget       int64   `json:"totalBudget"`
		AverageProgress   float64 `json:"averageProgress"`
		BudgetUtilization float64 `json:"budgetUtilization"`

		Period      Period `json:"period"`
		GeneratedAt int64  `json:"generatedAt"`
	}

	// UserSummary is the password-free user projection included in reports.
	UserSummary struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}

	// ProjectExpenseTotal is one row of the expenses-by-project breakdown.
	ProjectExpenseTotal struct {
		ProjectID   string `json:"projectId"`
		ProjectName string `json:"projectName"`
		Total       int64  `json:"total"`
	}

	// UserTaskStats is one row of the tasks-by-assignee breakdown.
	UserTaskStats struct {
		UserID         string  `json:"userId"`
		Name           string  `json:"name"`
		Total          int     `json:"total"`
		Completed      int     `json:"completed"`
		CompletionRate float64 `json:"completionRate"`
	}

	// Report is the full fleet report for one period.
	Report struct {
		Stats             ReportStats           `json:"stats"`
		Projects          []ProjectWithProgress `json:"projects"`
		Tasks             []Task                `json:"tasks"`
		Expenses          []Expense             `json:"expenses"`
		Users             []UserSummary         `json:"users"`
		ExpensesByProject []ProjectExpenseTotal `json:"expensesByProject"`
		TasksByUser       []UserTaskStats       `json:"tasksByUser"`
	}

	// ProjectStats summarizes a single project.
	ProjectStats struct {
		TotalTasks        int     `json:"totalTasks"`
		CompletedTasks    int     `json:"completedTasks"`
		PendingTasks      int     `json:"pendingTasks"`
		TotalExpenses     int64   `json:"totalExpenses"`
		Budget            int64   `json:"budget"`
		BudgetUtilization float64 `json:"budgetUtilization"`
		Progress          int     `json:"progress"`
	}

	// ProjectReport is the single-project report variant.
	ProjectReport struct {
		Project  Project      `json:"project"`
		Tasks    []Task       `json:"tasks"`
		Expenses []Expense    `json:"expenses"`
		Stats    ProjectStats `json:"stats"`
	}
)

// Filter keeps only the records inside the period's window. Projects and
// tasks are filtered by creation timestamp, expenses by their business date.
// Users are never filtered.
func (in ReportInput) Filter(period Period, now time.Time) ReportInput {
	threshold := period.Threshold(now)

	projects := make([]Project, 0, len(in.Projects))
	for _, p := range in.Projects {
		if p.CreatedAt >= threshold {
			projects = append(projects, p)
		}
	}
	tasks := make([]Task, 0, len(in.Tasks))
	for _, t := range in.Tasks {
		if t.CreatedAt >= threshold {
			tasks = append(tasks, t)
		}
	}
	expenses := make([]Expense, 0, len(in.Expenses))
	for _, e := range in.Expenses {
		if e.Date >= threshold {
			expenses = append(expenses, e)
		}
	}

	return ReportInput{Projects: projects, Tasks: tasks, Expenses: expenses, Users: in.Users}
}

// BuildReport computes the fleet report for the given period. The wall clock
// is injected so identical inputs always yield identical output.
func BuildReport(in ReportInput, period Period, now time.Time) Report {
	filtered := in.Filter(period, now)
	projects, tasks, expenses := filtered.Projects, filtered.Tasks, filtered.Expenses

	stats := ReportStats{
		TotalProjects: len(projects),
		TotalTasks:    len(tasks),
		Period:        period,
		GeneratedAt:   now.UnixMilli(),
	}
	for _, p := range projects {
		switch p.Status {
		case StatusInProgress:
			stats.ActiveProjects++
		case StatusCompleted:
			stats.CompletedProjects++
		case StatusPending:
			stats.PendingProjects++
		case StatusOnHold:
			stats.OnHoldProjects++
		}
		stats.TotalBudget += p.Budget
	}
	for _, t := range tasks {
		if t.Completed {
			stats.CompletedTasks++
		}
	}
	stats.PendingTasks = stats.TotalTasks - stats.CompletedTasks
	for _, e := range expenses {
		stats.TotalExpenses += e.Amount
	}
	if stats.TotalBudget > 0 {
		stats.BudgetUtilization = float64(stats.TotalExpenses) / float64(stats.TotalBudget) * 100
	}

	tasksByProject := GroupTasksByProject(tasks)
	withProgress := make([]ProjectWithProgress, len(projects))
	progressSum := 0
	for i, p := range projects {
		withProgress[i] = ComputeProgress(p, tasksByProject[p.ID])
		progressSum += withProgress[i].Progress
	}
	if len(projects) > 0 {
		stats.AverageProgress = float64(progressSum) / float64(len(projects))
	}

	users := make([]UserSummary, len(in.Users))
	for i, u := range in.Users {
		users[i] = UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
	}

	return Report{
		Stats:             stats,
		Projects:          withProgress,
		Tasks:             tasks,
		Expenses:          expenses,
		Users:             users,
		ExpensesByProject: expensesByProject(expenses, in.Projects),
		TasksByUser:       tasksByUser(tasks, in.Users),
	}
}

// BuildProjectReport computes the single-project report. Tasks and expenses
// belonging to other projects are ignored; the caller is responsible for
// resolving the project itself (a missing project is a not-found condition,
// never an empty report).
func BuildProjectReport(p Project, tasks []Task, expenses []Expense) ProjectReport {
	own := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ProjectID == p.ID {
			own = append(own, t)
		}
	}
	ownExpenses := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.ProjectID == p.ID {
			ownExpenses = append(ownExpenses, e)
		}
	}

	stats := ProjectStats{
		TotalTasks: len(own),
		Budget:     p.Budget,
	}
	for _, t := range own {
		if t.Completed {
			stats.CompletedTasks++
		}
	}
	stats.PendingTasks = stats.TotalTasks - stats.CompletedTasks
	for _, e := range ownExpenses {
		stats.TotalExpenses += e.Amount
	}
	if p.Budget > 0 {
		stats.BudgetUtilization = float64(stats.TotalExpenses) / float64(p.Budget) * 100
	}
	stats.Progress = progressPercent(stats.CompletedTasks, stats.TotalTasks)

	return ProjectReport{Project: p, Tasks: own, Expenses: ownExpenses, Stats: stats}
}

// expensesByProject partitions expenses by project and sums amounts, dropping
// groups whose project no longer exists. Output is sorted by descending total,
// with project ID as a tiebreaker so equal inputs produce identical output.
func expensesByProject(expenses []Expense, projects []Project) []ProjectExpenseTotal {
	names := make(map[string]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}

	totals := make(map[string]int64)
	for _, e := range expenses {
		totals[e.ProjectID] += e.Amount
	}

	out := make([]ProjectExpenseTotal, 0, len(totals))
	for id, total := range totals {
		name, ok := names[id]
		if !ok {
			continue
		}
		out = append(out, ProjectExpenseTotal{ProjectID: id, ProjectName: name, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].ProjectID < out[j].ProjectID
	})
	return out
}

// tasksByUser accumulates per-assignee totals, skipping unassigned tasks and
// dropping assignees that no longer resolve to a user. Sorted by descending
// completion rate, user ID as tiebreaker.
func tasksByUser(tasks []Task, users []User) []UserTaskStats {
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	byUser := make(map[string]*UserTaskStats)
	for _, t := range tasks {
		if t.AssigneeID == "" {
			continue
		}
		name, ok := names[t.AssigneeID]
		if !ok {
			continue
		}
		s := byUser[t.AssigneeID]
		if s == nil {
			s = &UserTaskStats{UserID: t.AssigneeID, Name: name}
			byUser[t.AssigneeID] = s
		}
		s.Total++
		if t.Completed {
			s.Completed++
		}
	}

	out := make([]UserTaskStats, 0, len(byUser))
	for _, s := range byUser {
		s.CompletionRate = float64(s.Completed) / float64(s.Total) * 100
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompletionRate != out[j].CompletionRate {
			return out[i].CompletionRate > out[j].CompletionRate
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}
