package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"proyeksi/internal/core"
	"proyeksi/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testProject(name string) core.Project {
	return core.Project{
		ID:        core.NewID("project"),
		Name:      name,
		Budget:    1000,
		Status:    core.StatusPending,
		CreatedAt: time.Now().UnixMilli(),
	}
}

func TestProjectRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := testProject("Gudang")
	p.Description = "Tahap 1"
	if err := repo.CreateProject(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != p {
		t.Fatalf("got %+v, want %+v", got, p)
	}

	p.Status = core.StatusCompleted
	if err := repo.UpdateProject(ctx, p); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = repo.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Status != core.StatusCompleted {
		t.Fatalf("status = %q", got.Status)
	}

	list, err := repo.ListProjects(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list len = %d", len(list))
	}
}

func TestGetProjectNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetProject(context.Background(), "project-missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := testProject("Gudang")
	if err := repo.CreateProject(ctx, p); err != nil {
		t.Fatalf("create project: %v", err)
	}
	task := core.Task{ID: core.NewID("task"), ProjectID: p.ID, Title: "Survey", CreatedAt: time.Now().UnixMilli()}
	if err := repo.CreateTask(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	exp := core.Expense{ID: core.NewID("expense"), ProjectID: p.ID, Description: "Semen", Amount: 100, Category: core.CategoryMaterial, Date: time.Now().UnixMilli(), CreatedAt: time.Now().UnixMilli()}
	if err := repo.CreateExpense(ctx, exp); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	if err := repo.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := repo.GetTask(ctx, task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("task survived the cascade: %v", err)
	}
	if _, err := repo.GetExpense(ctx, exp.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expense survived the cascade: %v", err)
	}
	if _, err := repo.GetProject(ctx, p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("project survived: %v", err)
	}
}

func TestCreateTaskRequiresProject(t *testing.T) {
	repo := newTestRepo(t)

	task := core.Task{ID: core.NewID("task"), ProjectID: "project-missing", Title: "Survey", CreatedAt: time.Now().UnixMilli()}
	if err := repo.CreateTask(context.Background(), task); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListTasksFiltersByProject(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p1 := testProject("A")
	p2 := testProject("B")
	for _, p := range []core.Project{p1, p2} {
		if err := repo.CreateProject(ctx, p); err != nil {
			t.Fatalf("create project: %v", err)
		}
	}
	for i, pid := range []string{p1.ID, p1.ID, p2.ID} {
		task := core.Task{ID: core.NewID("task"), ProjectID: pid, Title: "t", CreatedAt: time.Now().UnixMilli() + int64(i)}
		if err := repo.CreateTask(ctx, task); err != nil {
			t.Fatalf("create task: %v", err)
		}
	}

	own, err := repo.ListTasks(ctx, p1.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(own) != 2 {
		t.Fatalf("filtered len = %d, want 2", len(own))
	}
	all, err := repo.ListTasks(ctx, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("unfiltered len = %d, want 3", len(all))
	}
}

func TestUserEmailLookupIsCaseInsensitive(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := core.User{ID: core.NewID("user"), Name: "Sari", Email: "Sari@IkuHub.com", Role: "admin", Password: "hash", CreatedAt: time.Now().UnixMilli()}
	if err := repo.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetUserByEmail(ctx, "sari@ikuhub.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("got %q, want %q", got.ID, u.ID)
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := core.User{ID: core.NewID("user"), Name: "Sari", Email: "sari@ikuhub.com", Password: "hash", CreatedAt: time.Now().UnixMilli()}
	if err := repo.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}

	// The unique constraint is case-insensitive, matching the login lookup.
	dup := core.User{ID: core.NewID("user"), Name: "Sari Dua", Email: "SARI@IkuHub.com", Password: "hash", CreatedAt: time.Now().UnixMilli()}
	if err := repo.CreateUser(ctx, dup); !errors.Is(err, store.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestUpdateUserRejectsDuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sari := core.User{ID: core.NewID("user"), Name: "Sari", Email: "sari@ikuhub.com", Password: "hash", CreatedAt: time.Now().UnixMilli()}
	budi := core.User{ID: core.NewID("user"), Name: "Budi", Email: "budi@ikuhub.com", Password: "hash", CreatedAt: time.Now().UnixMilli()}
	for _, u := range []core.User{sari, budi} {
		if err := repo.CreateUser(ctx, u); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	budi.Email = "sari@ikuhub.com"
	if err := repo.UpdateUser(ctx, budi); !errors.Is(err, store.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}

	sari.Name = "Sari Utami"
	if err := repo.UpdateUser(ctx, sari); err != nil {
		t.Fatalf("self update: %v", err)
	}
}

func TestSettingsDefaultAndUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	got, err := repo.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get defaults: %v", err)
	}
	if got != store.DefaultSettings() {
		t.Fatalf("defaults = %+v", got)
	}

	want := core.CompanySettings{Name: "PT Iku", Address: "Jl. Merdeka 1", Email: "info@ikuhub.com"}
	for i := 0; i < 2; i++ { // saving twice exercises the upsert path
		if err := repo.SaveSettings(ctx, want); err != nil {
			t.Fatalf("save #%d: %v", i, err)
		}
	}
	got, err = repo.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestActivityLogRecordAndPrune(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now().UnixMilli()
	old := now - int64((48 * time.Hour).Milliseconds())
	if err := repo.RecordActivity(ctx, "project", "project-1", "created", old); err != nil {
		t.Fatalf("record old: %v", err)
	}
	if err := repo.RecordActivity(ctx, "project", "project-1", "updated", now); err != nil {
		t.Fatalf("record new: %v", err)
	}

	removed, err := repo.PruneActivityBefore(ctx, now-int64((24*time.Hour).Milliseconds()))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
}

func TestCountUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n, err := repo.CountUsers(ctx)
	if err != nil || n != 0 {
		t.Fatalf("empty count = %d, %v", n, err)
	}

	u := core.User{ID: core.NewID("user"), Name: "Sari", Email: "sari@ikuhub.com", Password: "hash", CreatedAt: time.Now().UnixMilli()}
	if err := repo.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	n, err = repo.CountUsers(ctx)
	if err != nil || n != 1 {
		t.Fatalf("count = %d, %v", n, err)
	}
}
