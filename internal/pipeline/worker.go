package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/peixuanhu/study-platform/internal/extract"
	"github.com/peixuanhu/study-platform/internal/material"
)

// BlobDownloader is the slice of the blob store the worker needs.
type BlobDownloader interface {
	Download(ctx context.Context, path string) ([]byte, error)
}

// ExtractorRegistry dispatches on MIME type.
type ExtractorRegistry interface {
	ForMIME(mimeType string) (extract.Extractor, error)
}

// Worker is the stateless extraction worker. Everything it needs beyond the
// job id is loaded from the store, so invocations are safe to duplicate.
type Worker struct {
	jobs       *Repo
	materials  *material.Repo
	blobs      BlobDownloader
	extractors ExtractorRegistry
	logger     *logrus.Logger
}

func NewWorker(jobs *Repo, materials *material.Repo, blobs BlobDownloader, extractors ExtractorRegistry, logger *logrus.Logger) *Worker {
	return &Worker{jobs: jobs, materials: materials, blobs: blobs, extractors: extractors, logger: logger}
}

// RunExtraction drives one job from pending_extraction to a terminal status.
//
// Re-entry on a job already past pending_extraction is a no-op: the
// conditional claim update is the only serialization point, approximating
// at-most-once without a lock. Every failure is converted to a stored status
// plus message before returning; an error return means only that the store
// itself was unreachable.
func (w *Worker) RunExtraction(ctx context.Context, jobID string) error {
	job, err := w.jobs.GetJobByID(ctx, jobID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		w.logger.Warnf("extraction job %s not found, nothing to do", jobID)
		return nil
	}
	if err != nil {
		return err
	}
	if job.Status != JobPendingExtraction {
		w.logger.Infof("job %s already in %s, skipping duplicate invocation", jobID, job.Status)
		return nil
	}

	claimed, err := w.jobs.MarkExtracting(ctx, jobID)
	if err != nil {
		return err
	}
	if !claimed {
		w.logger.Infof("job %s claimed elsewhere, skipping", jobID)
		return nil
	}
	// still pre-text on the material side
	w.mirror(ctx, job.MaterialID, material.StatusPendingExtraction)

	data, err := w.blobs.Download(ctx, job.StoragePath)
	if err != nil {
		return w.fail(ctx, job, JobExtractionFailed, fmt.Sprintf("failed to download source file: %v", err))
	}

	extractor, err := w.extractors.ForMIME(job.MIMEType)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			return w.fail(ctx, job, JobExtractionUnsupported, fmt.Sprintf("unsupported file format: %s", job.MIMEType))
		}
		return w.fail(ctx, job, JobExtractionFailed, fmt.Sprintf("extractor lookup failed: %v", err))
	}

	text, err := extractor.Extract(ctx, data)
	if err != nil {
		return w.fail(ctx, job, JobExtractionFailed, fmt.Sprintf("text extraction failed: %v", err))
	}
	if strings.TrimSpace(text) == "" {
		return w.fail(ctx, job, JobExtractionFailed, "extraction produced no text")
	}

	updated, err := w.jobs.MarkExtracted(ctx, job.ID, text)
	if err != nil {
		return err
	}
	if !updated {
		w.logger.Warnf("job %s finished elsewhere, discarding duplicate result", job.ID)
		return nil
	}

	// Copy the text onto the material so it survives job pruning, and move
	// it into the generation phase. Separate write from the job update; a
	// crash in between leaves the job authoritative.
	mirrored, err := w.materials.SetExtractedSource(ctx, job.MaterialID, text)
	if err != nil {
		w.logger.Errorf("mirror material %s for job %s: %v", job.MaterialID, job.ID, err)
		return nil
	}
	if !mirrored {
		w.logger.Warnf("material %s already past pending_extraction, mirror skipped", job.MaterialID)
	}
	w.logger.Infof("job %s extracted %d chars", job.ID, len(text))
	return nil
}

func (w *Worker) fail(ctx context.Context, job *Job, status JobStatus, msg string) error {
	if _, err := w.jobs.MarkFailed(ctx, job.ID, status, msg); err != nil {
		return err
	}
	w.mirror(ctx, job.MaterialID, MaterialStatusFor(status))
	w.logger.Warnf("job %s failed status=%s: %s", job.ID, status, msg)
	return nil
}

// mirror updates the material projection, guarded so it never overwrites a
// material the generation phase has already advanced. Mirror errors are
// logged, not propagated: the job row stays authoritative.
func (w *Worker) mirror(ctx context.Context, materialID string, next material.Status) {
	_, err := w.materials.UpdateStatusIf(ctx, materialID, next, material.StatusPendingExtraction)
	if err != nil {
		w.logger.Errorf("mirror material %s to %s: %v", materialID, next, err)
	}
}
