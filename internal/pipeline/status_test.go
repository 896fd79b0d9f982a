package pipeline

import (
	"testing"

	"github.com/peixuanhu/study-platform/internal/material"
)

func TestMaterialStatusFor(t *testing.T) {
	cases := []struct {
		job  JobStatus
		want material.Status
	}{
		{JobPendingExtraction, material.StatusPendingExtraction},
		{JobExtracting, material.StatusPendingExtraction},
		{JobTextExtracted, material.StatusPendingAIGeneration},
		{JobExtractionFailed, material.StatusExtractionFailed},
		{JobExtractionUnsupported, material.StatusExtractionUnsupported},
	}
	for _, c := range cases {
		if got := MaterialStatusFor(c.job); got != c.want {
			t.Errorf("MaterialStatusFor(%s) = %s, want %s", c.job, got, c.want)
		}
	}
}

func TestJobStatusTerminal(t *testing.T) {
	terminal := map[JobStatus]bool{
		JobPendingExtraction:     false,
		JobExtracting:            false,
		JobTextExtracted:         true,
		JobExtractionFailed:      true,
		JobExtractionUnsupported: true,
	}
	for s, want := range terminal {
		if got := s.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, got, want)
		}
	}
}
