package pipeline

import "github.com/peixuanhu/study-platform/internal/material"

// MaterialStatusFor projects a job status onto the material status space.
// The mapping is pure; the material additionally has completed and
// ai_processing_failed statuses owned by the generation phase.
func MaterialStatusFor(s JobStatus) material.Status {
	switch s {
	case JobPendingExtraction, JobExtracting:
		return material.StatusPendingExtraction
	case JobTextExtracted:
		return material.StatusPendingAIGeneration
	case JobExtractionUnsupported:
		return material.StatusExtractionUnsupported
	default:
		return material.StatusExtractionFailed
	}
}
