package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"proyeksi/internal/core"
)

// fetchReportInput loads all four collections concurrently. Reports need the
// full dataset, so the four reads run in parallel against the store.
func (s *Server) fetchReportInput(ctx context.Context) (core.ReportInput, error) {
	var in core.ReportInput

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		in.Projects, err = s.store.ListProjects(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		in.Tasks, err = s.store.ListTasks(gctx, "")
		return err
	})
	g.Go(func() error {
		var err error
		in.Expenses, err = s.store.ListExpenses(gctx, "")
		return err
	})
	g.Go(func() error {
		var err error
		in.Users, err = s.store.ListUsers(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return core.ReportInput{}, fmt.Errorf("fetch report input: %w", err)
	}
	return in, nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	period := parsePeriod(r)
	key := string(period)

	if report, found := s.reportCache.Get(key); found {
		slog.DebugContext(r.Context(), "Report cache hit", "period", period)
		writeData(w, http.StatusOK, report)
		return
	}

	in, err := s.fetchReportInput(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Report input fetch failed", "error", err, "period", period)
		writeStoreError(w, err)
		return
	}

	report := core.BuildReport(in, period, time.Now())
	s.reportCache.Set(key, report)
	writeData(w, http.StatusOK, report)
}

func (s *Server) handleProjectReport(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")

	if report, found := s.projectReportCache.Get(projectID); found {
		slog.DebugContext(r.Context(), "Project report cache hit", "project_id", projectID)
		writeData(w, http.StatusOK, report)
		return
	}

	// The project lookup runs first: a missing project is a 404, never an
	// empty report.
	p, err := s.store.GetProject(r.Context(), projectID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var tasks []core.Task
	var expenses []core.Expense
	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		tasks, err = s.store.ListTasks(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListExpenses(gctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.ErrorContext(r.Context(), "Project report fetch failed", "error", err, "project_id", projectID)
		writeStoreError(w, err)
		return
	}

	report := core.BuildProjectReport(p, tasks, expenses)
	s.projectReportCache.Set(projectID, report)
	writeData(w, http.StatusOK, report)
}

func (s *Server) handleReportExport(w http.ResponseWriter, r *http.Request) {
	kind := core.ExportKind(r.URL.Query().Get("type"))
	period := parsePeriod(r)

	in, err := s.fetchReportInput(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Export input fetch failed", "error", err, "type", kind)
		writeStoreError(w, err)
		return
	}

	now := time.Now()
	csv, err := core.ExportCSV(kind, in.Filter(period, now))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown export type: must be projects, tasks or expenses")
		return
	}

	filename := fmt.Sprintf("report_%s_%s_%d.csv", kind, period, now.UnixMilli())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(csv)); err != nil {
		slog.ErrorContext(r.Context(), "CSV write failed", "error", err, "type", kind)
	}
}
