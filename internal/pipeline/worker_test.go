package pipeline

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/peixuanhu/study-platform/internal/extract"
	"github.com/peixuanhu/study-platform/internal/material"
)

type fakeBlobs struct {
	data []byte
	err  error
}

func (f fakeBlobs) Download(ctx context.Context, path string) ([]byte, error) {
	_ = ctx
	_ = path
	return f.data, f.err
}

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	_ = ctx
	_ = data
	return f.text, f.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type workerFixture struct {
	jobs      *Repo
	materials *material.Repo
}

func newWorkerFixture(t *testing.T) workerFixture {
	t.Helper()
	db := openTestDB(t)
	return workerFixture{jobs: NewRepo(db), materials: material.NewRepo(db)}
}

func (f workerFixture) seed(t *testing.T, jobID, mimeType string) *Job {
	t.Helper()
	m := &material.Material{
		ID:     "m-" + jobID,
		UserID: 1,
		Kind:   material.KindTest,
		Title:  "notes",
		Status: material.StatusPendingExtraction,
	}
	if err := f.materials.Create(context.Background(), m); err != nil {
		t.Fatalf("create material: %v", err)
	}
	j := &Job{
		ID:          jobID,
		MaterialID:  m.ID,
		UserID:      1,
		Filename:    "notes.bin",
		MIMEType:    mimeType,
		StoragePath: "1/notes.bin",
		Status:      JobPendingExtraction,
	}
	if err := f.jobs.CreateJob(context.Background(), j); err != nil {
		t.Fatalf("create job: %v", err)
	}
	return j
}

func (f workerFixture) worker(blobs BlobDownloader, reg ExtractorRegistry) *Worker {
	return NewWorker(f.jobs, f.materials, blobs, reg, quietLogger())
}

func registryWith(mime string, e extract.Extractor) *extract.Registry {
	r := extract.NewRegistry()
	r.Register(mime, e)
	return r
}

func TestRunExtraction_Success(t *testing.T) {
	f := newWorkerFixture(t)
	job := f.seed(t, "01JWSUCCESS000000000000001", extract.MIMEPDF)

	w := f.worker(fakeBlobs{data: []byte("pdf bytes")}, registryWith(extract.MIMEPDF, fakeExtractor{text: "chapter one"}))
	if err := w.RunExtraction(context.Background(), job.ID); err != nil {
		t.Fatalf("run extraction: %v", err)
	}

	j, err := f.jobs.GetJobByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if j.Status != JobTextExtracted {
		t.Fatalf("job status = %s, want %s", j.Status, JobTextExtracted)
	}
	if j.ExtractedText == nil || *j.ExtractedText != "chapter one" {
		t.Fatalf("extracted text = %v", j.ExtractedText)
	}
	if j.Error != nil {
		t.Fatalf("error should be nil, got %q", *j.Error)
	}

	m, err := f.materials.GetByID(context.Background(), job.MaterialID)
	if err != nil {
		t.Fatalf("get material: %v", err)
	}
	if m.Status != material.StatusPendingAIGeneration {
		t.Fatalf("material status = %s, want %s", m.Status, material.StatusPendingAIGeneration)
	}
	if m.SourceText == nil || *m.SourceText != "chapter one" {
		t.Fatalf("material source text = %v", m.SourceText)
	}
	if len(m.Content) > 0 {
		t.Fatalf("material content must stay null until generation, got %s", m.Content)
	}
}

func TestRunExtraction_WhitespaceOnlyTextFails(t *testing.T) {
	f := newWorkerFixture(t)
	job := f.seed(t, "01JWBLANK00000000000000001", extract.MIMEPDF)

	w := f.worker(fakeBlobs{data: []byte("x")}, registryWith(extract.MIMEPDF, fakeExtractor{text: "  \n\t "}))
	if err := w.RunExtraction(context.Background(), job.ID); err != nil {
		t.Fatalf("run extraction: %v", err)
	}

	j, _ := f.jobs.GetJobByID(context.Background(), job.ID)
	if j.Status != JobExtractionFailed {
		t.Fatalf("job status = %s, want %s", j.Status, JobExtractionFailed)
	}
	if j.Error == nil || *j.Error != "extraction produced no text" {
		t.Fatalf("unexpected error field: %v", j.Error)
	}
	if j.ExtractedText != nil {
		t.Fatalf("extracted text must be nil on failure")
	}

	m, _ := f.materials.GetByID(context.Background(), job.MaterialID)
	if m.Status != material.StatusExtractionFailed {
		t.Fatalf("material status = %s, want %s", m.Status, material.StatusExtractionFailed)
	}
	if len(m.Content) > 0 {
		t.Fatalf("failed material must keep null content")
	}
}

func TestRunExtraction_UnsupportedFormat(t *testing.T) {
	f := newWorkerFixture(t)
	pptx := "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	job := f.seed(t, "01JWUNSUP00000000000000001", pptx)

	w := f.worker(fakeBlobs{data: []byte("x")}, registryWith(extract.MIMEPDF, fakeExtractor{text: "n/a"}))
	if err := w.RunExtraction(context.Background(), job.ID); err != nil {
		t.Fatalf("run extraction: %v", err)
	}

	j, _ := f.jobs.GetJobByID(context.Background(), job.ID)
	if j.Status != JobExtractionUnsupported {
		t.Fatalf("job status = %s, want %s", j.Status, JobExtractionUnsupported)
	}
	if j.Error == nil || *j.Error != "unsupported file format: "+pptx {
		t.Fatalf("unexpected error field: %v", j.Error)
	}

	m, _ := f.materials.GetByID(context.Background(), job.MaterialID)
	if m.Status != material.StatusExtractionUnsupported {
		t.Fatalf("material status = %s, want %s", m.Status, material.StatusExtractionUnsupported)
	}
}

func TestRunExtraction_DownloadFailure(t *testing.T) {
	f := newWorkerFixture(t)
	job := f.seed(t, "01JWDLFAIL0000000000000001", extract.MIMEPDF)

	w := f.worker(fakeBlobs{err: errors.New("connection refused")}, registryWith(extract.MIMEPDF, fakeExtractor{text: "n/a"}))
	if err := w.RunExtraction(context.Background(), job.ID); err != nil {
		t.Fatalf("run extraction: %v", err)
	}

	j, _ := f.jobs.GetJobByID(context.Background(), job.ID)
	if j.Status != JobExtractionFailed {
		t.Fatalf("job status = %s, want %s", j.Status, JobExtractionFailed)
	}
	if j.Error == nil || *j.Error != "failed to download source file: connection refused" {
		t.Fatalf("unexpected error field: %v", j.Error)
	}
}

func TestRunExtraction_ExtractorError(t *testing.T) {
	f := newWorkerFixture(t)
	job := f.seed(t, "01JWEXERR00000000000000001", extract.MIMEPDF)

	w := f.worker(fakeBlobs{data: []byte("x")}, registryWith(extract.MIMEPDF, fakeExtractor{err: errors.New("corrupt file")}))
	if err := w.RunExtraction(context.Background(), job.ID); err != nil {
		t.Fatalf("run extraction: %v", err)
	}

	j, _ := f.jobs.GetJobByID(context.Background(), job.ID)
	if j.Status != JobExtractionFailed {
		t.Fatalf("job status = %s, want %s", j.Status, JobExtractionFailed)
	}
	if j.Error == nil || *j.Error != "text extraction failed: corrupt file" {
		t.Fatalf("unexpected error field: %v", j.Error)
	}
}

func TestRunExtraction_TerminalJobIsNoOp(t *testing.T) {
	f := newWorkerFixture(t)
	job := f.seed(t, "01JWTERM000000000000000001", extract.MIMEPDF)

	w := f.worker(fakeBlobs{data: []byte("x")}, registryWith(extract.MIMEPDF, fakeExtractor{text: "first pass"}))
	if err := w.RunExtraction(context.Background(), job.ID); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// duplicate invocation must not touch the finished job
	w2 := f.worker(fakeBlobs{data: []byte("x")}, registryWith(extract.MIMEPDF, fakeExtractor{text: "second pass"}))
	if err := w2.RunExtraction(context.Background(), job.ID); err != nil {
		t.Fatalf("second run: %v", err)
	}

	j, _ := f.jobs.GetJobByID(context.Background(), job.ID)
	if j.ExtractedText == nil || *j.ExtractedText != "first pass" {
		t.Fatalf("duplicate invocation overwrote result: %v", j.ExtractedText)
	}
}

func TestRunExtraction_ClaimedElsewhereSkips(t *testing.T) {
	f := newWorkerFixture(t)
	job := f.seed(t, "01JWRACE000000000000000001", extract.MIMEPDF)

	// another worker holds the claim
	if _, err := f.jobs.MarkExtracting(context.Background(), job.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	w := f.worker(fakeBlobs{data: []byte("x")}, registryWith(extract.MIMEPDF, fakeExtractor{text: "late"}))
	if err := w.RunExtraction(context.Background(), job.ID); err != nil {
		t.Fatalf("run extraction: %v", err)
	}

	j, _ := f.jobs.GetJobByID(context.Background(), job.ID)
	if j.Status != JobExtracting {
		t.Fatalf("job status = %s, want %s", j.Status, JobExtracting)
	}
	if j.ExtractedText != nil {
		t.Fatalf("late invocation must not write text")
	}
}

func TestRunExtraction_MissingJobIsNoOp(t *testing.T) {
	f := newWorkerFixture(t)
	w := f.worker(fakeBlobs{}, extract.NewRegistry())
	if err := w.RunExtraction(context.Background(), "01JWNOSUCH0000000000000001"); err != nil {
		t.Fatalf("missing job should be a clean no-op, got %v", err)
	}
}
