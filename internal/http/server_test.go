package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"proyeksi/internal/auth"
	"proyeksi/internal/core"
	"proyeksi/internal/store/memory"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	st := memory.New()
	s := NewServer(Options{
		Addr:            ":0",
		JWTSecret:       testSecret,
		CORSOrigin:      "*",
		RateLimitPerMin: 1000,
		ReportCacheSize: 16,
		ReportCacheTTL:  time.Minute,
	}, st)
	t.Cleanup(func() { s.rateLimiter.Stop(); s.cacheManager.Stop() })
	return s, st
}

func seedUser(t *testing.T, st *memory.Store, email, password string) core.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := core.User{
		ID:        core.NewID("user"),
		Name:      "Sari",
		Email:     email,
		Role:      "admin",
		Password:  hash,
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func bearerFor(t *testing.T, u core.User) string {
	t.Helper()
	token, err := auth.GenerateJWT(u.ID, testSecret)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return "Bearer " + token
}

func doJSON(t *testing.T, s *Server, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	if !env.Success {
		t.Fatalf("expected success envelope, got error %q", env.Error)
	}
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return out
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz = %d", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/projects", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Fatalf("body = %q", rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/api/projects", "Bearer not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	s, st := newTestServer(t)
	seedUser(t, st, "sari@ikuhub.com", "rahasia123")

	rec := doJSON(t, s, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "sari@ikuhub.com", "password": "rahasia123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeData[map[string]json.RawMessage](t, rec)
	var token string
	if err := json.Unmarshal(data["token"], &token); err != nil || token == "" {
		t.Fatalf("token missing in response: %v", err)
	}
	if bytes.Contains(data["user"], []byte("password")) {
		t.Fatal("password leaked in login response")
	}

	// Token works against a protected route.
	rec = doJSON(t, s, http.MethodGet, "/api/auth/me", "Bearer "+token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me = %d", rec.Code)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s, st := newTestServer(t)
	seedUser(t, st, "sari@ikuhub.com", "rahasia123")

	for _, body := range []map[string]string{
		{"email": "sari@ikuhub.com", "password": "salah"},
		{"email": "nobody@ikuhub.com", "password": "rahasia123"},
	} {
		rec := doJSON(t, s, http.MethodPost, "/api/auth/login", "", body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("login(%v) = %d, want 401", body, rec.Code)
		}
	}
}

func TestProjectCRUD(t *testing.T) {
	s, st := newTestServer(t)
	bearer := bearerFor(t, seedUser(t, st, "sari@ikuhub.com", "x"))

	rec := doJSON(t, s, http.MethodPost, "/api/projects", bearer, map[string]any{
		"name": "Renovasi Gudang", "description": "Tahap 1", "budget": 500000, "status": "in-progress",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeData[core.Project](t, rec)
	if created.ID == "" || created.Status != core.StatusInProgress {
		t.Fatalf("created = %+v", created)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/projects/"+created.ID, bearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/projects/"+created.ID, bearer, map[string]any{
		"status": "completed",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeData[core.Project](t, rec)
	if updated.Status != core.StatusCompleted || updated.Name != "Renovasi Gudang" {
		t.Fatalf("partial update clobbered fields: %+v", updated)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/projects/"+created.ID, bearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete = %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/api/projects/"+created.ID, bearer, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d, want 404", rec.Code)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	s, st := newTestServer(t)
	bearer := bearerFor(t, seedUser(t, st, "sari@ikuhub.com", "x"))

	rec := doJSON(t, s, http.MethodPost, "/api/projects", bearer, map[string]any{"name": ""})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty name = %d, want 422", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/projects", bearer, map[string]any{
		"name": "X", "budget": -5,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("negative budget = %d, want 422", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader("{not json"))
	req.Header.Set("Authorization", bearer)
	rr := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed body = %d, want 400", rr.Code)
	}
}

func TestTaskRequiresExistingProject(t *testing.T) {
	s, st := newTestServer(t)
	bearer := bearerFor(t, seedUser(t, st, "sari@ikuhub.com", "x"))

	rec := doJSON(t, s, http.MethodPost, "/api/tasks", bearer, map[string]any{
		"projectId": "project-missing", "title": "Cek lokasi",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestReportEndpoint(t *testing.T) {
	s, st := newTestServer(t)
	u := seedUser(t, st, "sari@ikuhub.com", "x")
	bearer := bearerFor(t, u)
	ctx := context.Background()

	p := core.Project{ID: core.NewID("project"), Name: "Gudang", Budget: 1000, Status: core.StatusInProgress, CreatedAt: time.Now().UnixMilli()}
	if err := st.CreateProject(ctx, p); err != nil {
		t.Fatalf("seed project: %v", err)
	}
	tasks := []core.Task{
		{ID: core.NewID("task"), ProjectID: p.ID, Title: "a", AssigneeID: u.ID, Completed: true, CreatedAt: time.Now().UnixMilli()},
		{ID: core.NewID("task"), ProjectID: p.ID, Title: "b", CreatedAt: time.Now().UnixMilli()},
	}
	for _, task := range tasks {
		if err := st.CreateTask(ctx, task); err != nil {
			t.Fatalf("seed task: %v", err)
		}
	}
	e := core.Expense{ID: core.NewID("expense"), ProjectID: p.ID, Description: "Semen", Amount: 250, Category: core.CategoryMaterial, Date: time.Now().UnixMilli(), CreatedAt: time.Now().UnixMilli()}
	if err := st.CreateExpense(ctx, e); err != nil {
		t.Fatalf("seed expense: %v", err)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/reports?period=month", bearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("report = %d: %s", rec.Code, rec.Body.String())
	}
	report := decodeData[core.Report](t, rec)
	if report.Stats.TotalProjects != 1 || report.Stats.TotalTasks != 2 || report.Stats.CompletedTasks != 1 {
		t.Fatalf("stats = %+v", report.Stats)
	}
	if report.Stats.TotalExpenses != 250 {
		t.Fatalf("totalExpenses = %d", report.Stats.TotalExpenses)
	}
	if len(report.Projects) != 1 || report.Projects[0].Progress != 50 {
		t.Fatalf("projects = %+v", report.Projects)
	}

	// Unknown period falls back to all-time rather than failing.
	rec = doJSON(t, s, http.MethodGet, "/api/reports?period=bogus", bearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("bogus period = %d", rec.Code)
	}
	fallback := decodeData[core.Report](t, rec)
	if fallback.Stats.Period != core.PeriodAll {
		t.Fatalf("period = %q, want all", fallback.Stats.Period)
	}
}

func TestReportCacheInvalidatedByWrites(t *testing.T) {
	s, st := newTestServer(t)
	bearer := bearerFor(t, seedUser(t, st, "sari@ikuhub.com", "x"))

	rec := doJSON(t, s, http.MethodGet, "/api/reports", bearer, nil)
	before := decodeData[core.Report](t, rec)
	if before.Stats.TotalProjects != 0 {
		t.Fatalf("expected empty report, got %+v", before.Stats)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/projects", bearer, map[string]any{"name": "Baru"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/reports", bearer, nil)
	after := decodeData[core.Report](t, rec)
	if after.Stats.TotalProjects != 1 {
		t.Fatalf("cached stale report: %+v", after.Stats)
	}
}

func TestProjectReportNotFound(t *testing.T) {
	s, st := newTestServer(t)
	bearer := bearerFor(t, seedUser(t, st, "sari@ikuhub.com", "x"))

	rec := doJSON(t, s, http.MethodGet, "/api/reports/project/project-missing", bearer, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestReportExport(t *testing.T) {
	s, st := newTestServer(t)
	bearer := bearerFor(t, seedUser(t, st, "sari@ikuhub.com", "x"))

	p := core.Project{ID: core.NewID("project"), Name: "Gudang, Blok \"A\"", Budget: 100, Status: core.StatusPending, CreatedAt: time.Now().UnixMilli()}
	if err := st.CreateProject(context.Background(), p); err != nil {
		t.Fatalf("seed project: %v", err)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/reports/export?type=projects&period=all", bearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "report_projects_all_") {
		t.Fatalf("content disposition = %q", cd)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "Project ID,Name,Status,Budget,Created At\n") {
		t.Fatalf("csv header missing: %q", body)
	}
	if !strings.Contains(body, `"Gudang, Blok ""A"""`) {
		t.Fatalf("quoting broken: %q", body)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/reports/export?type=bogus", bearer, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bogus type = %d, want 400", rec.Code)
	}
}

func TestCompanySettings(t *testing.T) {
	s, st := newTestServer(t)
	bearer := bearerFor(t, seedUser(t, st, "sari@ikuhub.com", "x"))

	rec := doJSON(t, s, http.MethodGet, "/api/company", bearer, nil)
	defaults := decodeData[core.CompanySettings](t, rec)
	if defaults.Name != "IkuHub Proyeksi" {
		t.Fatalf("default name = %q", defaults.Name)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/company", bearer, map[string]any{
		"name": "PT Iku", "address": "Jl. Merdeka 1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save = %d", rec.Code)
	}
	saved := decodeData[core.CompanySettings](t, rec)
	if saved.Name != "PT Iku" || saved.Address != "Jl. Merdeka 1" {
		t.Fatalf("saved = %+v", saved)
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	s, st := newTestServer(t)
	bearer := bearerFor(t, seedUser(t, st, "sari@ikuhub.com", "x"))

	rec := doJSON(t, s, http.MethodPost, "/api/users", bearer, map[string]any{
		"name": "Sari Dua", "email": "SARI@ikuhub.com", "password": "rahasia123",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "email already in use") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestStatsEndpoint(t *testing.T) {
	s, st := newTestServer(t)
	bearer := bearerFor(t, seedUser(t, st, "sari@ikuhub.com", "x"))

	if rec := doJSON(t, s, http.MethodGet, "/api/projects", bearer, nil); rec.Code != http.StatusOK {
		t.Fatalf("warmup request = %d", rec.Code)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/stats", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated stats = %d, want 401", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/stats", bearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats = %d: %s", rec.Code, rec.Body.String())
	}
	stats := decodeData[map[string]float64](t, rec)
	if stats["totalRequests"] < 1 {
		t.Fatalf("totalRequests = %v", stats["totalRequests"])
	}
	if _, ok := stats["suspiciousRequests"]; !ok {
		t.Fatalf("stats missing suspiciousRequests: %v", stats)
	}
}

func TestRateLimitOnWrites(t *testing.T) {
	st := memory.New()
	s := NewServer(Options{
		Addr:            ":0",
		JWTSecret:       testSecret,
		RateLimitPerMin: 2,
		ReportCacheSize: 16,
		ReportCacheTTL:  time.Minute,
	}, st)
	t.Cleanup(func() { s.rateLimiter.Stop(); s.cacheManager.Stop() })
	bearer := bearerFor(t, seedUser(t, st, "sari@ikuhub.com", "x"))

	var last int
	for i := 0; i < 3; i++ {
		rec := doJSON(t, s, http.MethodPost, "/api/projects", bearer, map[string]any{"name": "P"})
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third write = %d, want 429", last)
	}

	// Reads stay unlimited.
	rec := doJSON(t, s, http.MethodGet, "/api/projects", bearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("read during throttle = %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("allow origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
