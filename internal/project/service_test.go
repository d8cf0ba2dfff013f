package project

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/storyreel/storyreel-agent/internal/db"
)

const testScript = "The castle gates opened at dawn. Dr. Smith walked through them slowly. Nobody followed."

const testCaptions = `WEBVTT

00:00:00.000 --> 00:00:04.000
The castle gates opened at dawn.

00:00:04.000 --> 00:00:08.000
Dr. Smith walked through them slowly.

00:00:08.000 --> 00:00:12.000
Nobody followed.`

func setupTestDB(t *testing.T) (*db.DB, Repository) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(dbPath, nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := NewRepository(database.Conn())
	return database, repo
}

func TestService_CreateProject(t *testing.T) {
	_, repo := setupTestDB(t)
	svc := NewService(repo, nil)
	defer svc.Close()

	p, err := svc.CreateProject(context.Background(), "My Story", testScript)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	if p.ID == "" {
		t.Error("project.ID is empty")
	}
	if p.Status != ProjectStatusDraft {
		t.Errorf("project.Status = %s, want %s", p.Status, ProjectStatusDraft)
	}
	if len(p.Scenes) != 3 {
		t.Fatalf("scene count = %d, want 3", len(p.Scenes))
	}
	if !strings.Contains(p.Scenes[1].Content, "Dr. Smith") {
		t.Errorf("scene 1 content = %q, want the Dr. Smith sentence intact", p.Scenes[1].Content)
	}

	stored, err := svc.GetProject(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if stored == nil {
		t.Fatal("project not persisted")
	}
	if len(stored.Scenes) != 3 {
		t.Errorf("stored scene count = %d, want 3", len(stored.Scenes))
	}
}

func TestService_CreateProject_Validation(t *testing.T) {
	_, repo := setupTestDB(t)
	svc := NewService(repo, nil)
	defer svc.Close()

	if _, err := svc.CreateProject(context.Background(), "", testScript); err == nil {
		t.Error("CreateProject() should reject empty title")
	}
	if _, err := svc.CreateProject(context.Background(), "Title", "   "); err == nil {
		t.Error("CreateProject() should reject blank script")
	}
}

func TestService_Session_Singleton(t *testing.T) {
	_, repo := setupTestDB(t)
	svc := NewService(repo, nil)
	defer svc.Close()

	p, err := svc.CreateProject(context.Background(), "My Story", testScript)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	sess1, err := svc.Session(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	sess2, err := svc.Session(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("second Session() error = %v", err)
	}

	if sess1 != sess2 {
		t.Error("Session() returned two distinct sessions for one project")
	}
}

func TestService_Session_ProjectNotFound(t *testing.T) {
	_, repo := setupTestDB(t)
	svc := NewService(repo, nil)
	defer svc.Close()

	if _, err := svc.Session(context.Background(), "missing"); err == nil {
		t.Error("Session() should error for an unknown project")
	}
}

func TestService_SaveSession_RoundTrip(t *testing.T) {
	_, repo := setupTestDB(t)
	svc := NewService(repo, nil)
	defer svc.Close()

	ctx := context.Background()
	p, err := svc.CreateProject(ctx, "My Story", testScript)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	sess, err := svc.Session(ctx, p.ID)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if _, err := sess.AddScene(); err != nil {
		t.Fatalf("AddScene() error = %v", err)
	}

	if err := svc.SaveSession(ctx, p.ID); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	stored, err := svc.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if len(stored.Scenes) != 4 {
		t.Errorf("stored scene count = %d, want 4", len(stored.Scenes))
	}
}

func TestService_ApplyCaptions(t *testing.T) {
	_, repo := setupTestDB(t)
	svc := NewService(repo, nil)
	defer svc.Close()

	ctx := context.Background()
	p, err := svc.CreateProject(ctx, "My Story", testScript)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	if err := svc.ApplyCaptions(ctx, p.ID, testCaptions, 12.0); err != nil {
		t.Fatalf("ApplyCaptions() error = %v", err)
	}

	stored, err := svc.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if stored.CaptionsRaw != testCaptions {
		t.Error("captions_raw not persisted")
	}

	total := 0.0
	for _, s := range stored.Scenes {
		total += s.Duration
	}
	if total != 12.0 {
		t.Errorf("total scene duration = %v, want 12.0 (captions span)", total)
	}
}

func TestService_ApplyCaptions_Unparseable(t *testing.T) {
	_, repo := setupTestDB(t)
	svc := NewService(repo, nil)
	defer svc.Close()

	ctx := context.Background()
	p, err := svc.CreateProject(ctx, "My Story", testScript)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	if err := svc.ApplyCaptions(ctx, p.ID, "not captions at all", 0); err == nil {
		t.Error("ApplyCaptions() should reject unparseable input")
	}
}

func TestService_EnqueueJob(t *testing.T) {
	_, repo := setupTestDB(t)
	svc := NewService(repo, nil)
	defer svc.Close()

	ctx := context.Background()
	p, err := svc.CreateProject(ctx, "My Story", testScript)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	job, err := svc.EnqueueJob(ctx, p.ID, JobTypePrompts)
	if err != nil {
		t.Fatalf("EnqueueJob() error = %v", err)
	}
	if job.Status != JobStatusPending {
		t.Errorf("job.Status = %s, want %s", job.Status, JobStatusPending)
	}

	pending, err := repo.ListPendingJobs(ctx)
	if err != nil {
		t.Fatalf("ListPendingJobs() error = %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("pending job count = %d, want 1", len(pending))
	}
}

func TestService_EnqueueJob_UnknownType(t *testing.T) {
	_, repo := setupTestDB(t)
	svc := NewService(repo, nil)
	defer svc.Close()

	ctx := context.Background()
	p, err := svc.CreateProject(ctx, "My Story", testScript)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	if _, err := svc.EnqueueJob(ctx, p.ID, "thumbnails"); err == nil {
		t.Error("EnqueueJob() should reject unknown job types")
	}
}

func TestService_DeleteProject_ClosesSession(t *testing.T) {
	_, repo := setupTestDB(t)
	svc := NewService(repo, nil)
	defer svc.Close()

	ctx := context.Background()
	p, err := svc.CreateProject(ctx, "My Story", testScript)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if _, err := svc.Session(ctx, p.ID); err != nil {
		t.Fatalf("Session() error = %v", err)
	}

	if err := svc.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}

	stored, err := svc.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if stored != nil {
		t.Error("project still present after delete")
	}
}
