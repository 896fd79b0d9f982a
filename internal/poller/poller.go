// Package poller is the client-side half of the pipeline: a single-threaded
// cooperative loop that watches one extraction job, drives the local
// view-model and runs the generation phase when extraction completes. It is
// read-only towards the job row.
package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/peixuanhu/study-platform/internal/genai"
	"github.com/peixuanhu/study-platform/internal/pipeline"
)

// Phase extends the remote job status space with the client-only generation
// phases. It exists only for the lifetime of a polling session.
type Phase string

const (
	PhasePendingExtraction     Phase = "pending_extraction"
	PhaseExtracting            Phase = "extracting"
	PhaseAIGenerating          Phase = "ai_generating"
	PhaseCompleted             Phase = "completed_ai_processed"
	PhaseExtractionFailed      Phase = "extraction_failed"
	PhaseExtractionUnsupported Phase = "extraction_unsupported"
	PhaseAIGenerationFailed    Phase = "ai_generation_failed"
)

// Session is the per-job view-model (one active job per session, passed in
// explicitly rather than held as ambient state). Discarded when the loop
// returns.
type Session struct {
	JobID      string
	MaterialID string
	Kind       string
	Phase      Phase
	Message    string
	StartedAt  time.Time
}

type JobReader interface {
	GetJob(ctx context.Context, jobID string) (*pipeline.Job, error)
}

type Generator interface {
	Generate(ctx context.Context, kind string, text string, params map[string]string) (*genai.Artifact, error)
}

type Finalizer interface {
	SaveArtifact(ctx context.Context, materialID string, title string, content []byte) error
	MarkGenerationFailed(ctx context.Context, materialID string) error
}

type Poller struct {
	jobs      JobReader
	gen       Generator
	materials Finalizer
	interval  time.Duration
	timeout   time.Duration
	logger    *logrus.Logger
}

func New(jobs JobReader, gen Generator, materials Finalizer, interval, timeout time.Duration, logger *logrus.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Poller{jobs: jobs, gen: gen, materials: materials, interval: interval, timeout: timeout, logger: logger}
}

// Run polls the job until a terminal-for-extraction state, then runs the
// generation phase. It returns when the session has reached a final phase;
// the returned error is non-nil only on context cancellation.
//
// The loop tolerates skipped transitions (pending straight to a terminal
// status) and duplicate observations. Generation fires exactly once because
// the only path into PhaseAIGenerating also leaves the loop. If no terminal
// status arrives within the ceiling, the session fails locally with a
// timeout; the server-side row is left untouched.
func (p *Poller) Run(ctx context.Context, s *Session) error {
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}
	if s.Phase == "" {
		s.Phase = PhasePendingExtraction
	}

	for {
		if time.Since(s.StartedAt) > p.timeout {
			s.Phase = PhaseExtractionFailed
			s.Message = "timed out"
			p.logger.Warnf("job %s timed out after %s, detaching", s.JobID, p.timeout)
			return nil
		}

		job, err := p.jobs.GetJob(ctx, s.JobID)
		if err != nil {
			s.Phase = PhaseExtractionFailed
			s.Message = fmt.Sprintf("poll failed: %v", err)
			return nil
		}

		switch job.Status {
		case pipeline.JobPendingExtraction:
			s.Phase = PhasePendingExtraction

		case pipeline.JobExtracting:
			s.Phase = PhaseExtracting

		case pipeline.JobTextExtracted:
			// the single edge into the generation phase; polling stops here
			s.Phase = PhaseAIGenerating
			var text string
			if job.ExtractedText != nil {
				text = *job.ExtractedText
			}
			p.generate(ctx, s, text, decodeParams(job.Params))
			return nil

		case pipeline.JobExtractionFailed, pipeline.JobExtractionUnsupported:
			if job.Status == pipeline.JobExtractionUnsupported {
				s.Phase = PhaseExtractionUnsupported
			} else {
				s.Phase = PhaseExtractionFailed
			}
			if job.Error != nil {
				s.Message = *job.Error
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.interval):
		}
	}
}

// RunInline drives the generation phase for a text-only material that never
// had an extraction job.
func (p *Poller) RunInline(ctx context.Context, s *Session, text string, params map[string]string) {
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}
	s.Phase = PhaseAIGenerating
	p.generate(ctx, s, text, params)
}

func (p *Poller) generate(ctx context.Context, s *Session, text string, params map[string]string) {
	artifact, err := p.gen.Generate(ctx, s.Kind, text, params)
	if err != nil {
		p.failGeneration(ctx, s, err)
		return
	}
	if err := p.materials.SaveArtifact(ctx, s.MaterialID, artifact.Title, artifact.Content); err != nil {
		p.failGeneration(ctx, s, err)
		return
	}
	s.Phase = PhaseCompleted
	p.logger.Infof("material %s completed (%s)", s.MaterialID, s.Kind)
}

func (p *Poller) failGeneration(ctx context.Context, s *Session, cause error) {
	if err := p.materials.MarkGenerationFailed(ctx, s.MaterialID); err != nil {
		p.logger.Errorf("mark material %s generation failed: %v", s.MaterialID, err)
	}
	s.Phase = PhaseAIGenerationFailed
	s.Message = cause.Error()
	p.logger.Warnf("generation failed material=%s: %v", s.MaterialID, cause)
}

func decodeParams(raw []byte) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var params map[string]string
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil
	}
	return params
}
