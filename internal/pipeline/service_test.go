package pipeline

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/peixuanhu/study-platform/internal/material"
)

type fakeDispatcher struct {
	jobIDs []string
	err    error
}

func (d *fakeDispatcher) DispatchExtraction(ctx context.Context, jobID string) error {
	_ = ctx
	d.jobIDs = append(d.jobIDs, jobID)
	return d.err
}

func seedPlaceholder(t *testing.T, repo *material.Repo, id string, userID uint64, status material.Status) {
	t.Helper()
	path := "stored/notes.pdf"
	fn := "notes.pdf"
	mt := "application/pdf"
	m := &material.Material{
		ID:             id,
		UserID:         userID,
		Kind:           material.KindFlashcards,
		Title:          "notes",
		Status:         status,
		SourceFilename: &fn,
		SourceMIMEType: &mt,
		StoragePath:    &path,
	}
	if err := repo.Create(context.Background(), m); err != nil {
		t.Fatalf("create material: %v", err)
	}
}

func TestInitiate_CreatesJobAndDispatches(t *testing.T) {
	db := openTestDB(t)
	jobs := NewRepo(db)
	materials := material.NewRepo(db)
	disp := &fakeDispatcher{}
	svc := NewService(jobs, materials, disp, quietLogger())

	seedPlaceholder(t, materials, "mat-init-1", 7, material.StatusPendingExtraction)

	jobID, err := svc.Initiate(context.Background(), 7, "mat-init-1", FileDescriptor{
		Filename:    "notes.pdf",
		MIMEType:    "application/pdf",
		StoragePath: "7/notes.pdf",
	}, map[string]string{"count": "10"})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if jobID == "" {
		t.Fatal("expected a job id")
	}
	if len(disp.jobIDs) != 1 || disp.jobIDs[0] != jobID {
		t.Fatalf("dispatcher got %v, want [%s]", disp.jobIDs, jobID)
	}

	j, err := jobs.GetJobByID(context.Background(), jobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if j.Status != JobPendingExtraction {
		t.Fatalf("job status = %s, want %s", j.Status, JobPendingExtraction)
	}
	if j.MaterialID != "mat-init-1" || j.UserID != 7 {
		t.Fatalf("job binding wrong: material=%s user=%d", j.MaterialID, j.UserID)
	}
	if string(j.Params) != `{"count":"10"}` {
		t.Fatalf("params snapshot = %s", j.Params)
	}
}

func TestInitiate_DispatchFailureStillReturnsJob(t *testing.T) {
	db := openTestDB(t)
	jobs := NewRepo(db)
	materials := material.NewRepo(db)
	disp := &fakeDispatcher{err: errors.New("broker down")}
	svc := NewService(jobs, materials, disp, quietLogger())

	seedPlaceholder(t, materials, "mat-init-2", 7, material.StatusPendingExtraction)

	jobID, err := svc.Initiate(context.Background(), 7, "mat-init-2", FileDescriptor{StoragePath: "7/x"}, nil)
	if err != nil {
		t.Fatalf("dispatch failure must not surface: %v", err)
	}

	j, err := jobs.GetJobByID(context.Background(), jobID)
	if err != nil {
		t.Fatalf("job row must still exist: %v", err)
	}
	if j.Status != JobPendingExtraction {
		t.Fatalf("job status = %s, want %s", j.Status, JobPendingExtraction)
	}
}

func TestInitiate_HidesOtherUsersMaterial(t *testing.T) {
	db := openTestDB(t)
	jobs := NewRepo(db)
	materials := material.NewRepo(db)
	svc := NewService(jobs, materials, &fakeDispatcher{}, quietLogger())

	seedPlaceholder(t, materials, "mat-init-3", 7, material.StatusPendingExtraction)

	_, err := svc.Initiate(context.Background(), 8, "mat-init-3", FileDescriptor{StoragePath: "7/x"}, nil)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record-not-found for foreign material, got %v", err)
	}
}

func TestInitiate_RejectsMaterialNotAwaitingExtraction(t *testing.T) {
	db := openTestDB(t)
	jobs := NewRepo(db)
	materials := material.NewRepo(db)
	svc := NewService(jobs, materials, &fakeDispatcher{}, quietLogger())

	seedPlaceholder(t, materials, "mat-init-4", 7, material.StatusPendingAIGeneration)

	_, err := svc.Initiate(context.Background(), 7, "mat-init-4", FileDescriptor{StoragePath: "7/x"}, nil)
	if !errors.Is(err, ErrNotAwaitingExtraction) {
		t.Fatalf("expected ErrNotAwaitingExtraction, got %v", err)
	}
}

func TestGetJobForUser_HidesForeignJob(t *testing.T) {
	db := openTestDB(t)
	jobs := NewRepo(db)
	materials := material.NewRepo(db)
	svc := NewService(jobs, materials, &fakeDispatcher{}, quietLogger())

	seedJob(t, jobs, "01JOBOWNED0000000000000001", JobPendingExtraction)

	if _, err := svc.GetJobForUser(context.Background(), 1, "01JOBOWNED0000000000000001"); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	_, err := svc.GetJobForUser(context.Background(), 2, "01JOBOWNED0000000000000001")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record-not-found for foreign job, got %v", err)
	}
}
