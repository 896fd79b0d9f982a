package pipeline

import (
	"time"

	"gorm.io/datatypes"
)

// JobStatus is the extraction job's own state machine, distinct from the
// coarser material status it mirrors into.
type JobStatus string

const (
	JobPendingExtraction     JobStatus = "pending_extraction"
	JobExtracting            JobStatus = "extracting"
	JobTextExtracted         JobStatus = "text_extracted_pending_ai"
	JobExtractionFailed      JobStatus = "extraction_failed"
	JobExtractionUnsupported JobStatus = "extraction_unsupported"
)

// Terminal reports whether no further automatic transition occurs.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobTextExtracted, JobExtractionFailed, JobExtractionUnsupported:
		return true
	}
	return false
}

// Job is one extraction attempt for one material. A retried attempt is a new
// row. Only the extraction worker mutates it; the polling client reads it.
type Job struct {
	ID string `gorm:"primaryKey;size:26" json:"id"` // ULID length

	MaterialID string `gorm:"type:varchar(36);index;not null" json:"material_id"`
	UserID     uint64 `gorm:"index;not null" json:"-"`

	Filename    string `gorm:"type:varchar(255);not null" json:"filename"`
	MIMEType    string `gorm:"type:varchar(128);not null" json:"mime_type"`
	StoragePath string `gorm:"type:varchar(512);not null" json:"-"`

	Status JobStatus `gorm:"type:varchar(32);index;not null" json:"status"`

	// Set only in text_extracted_pending_ai.
	ExtractedText *string `gorm:"type:longtext" json:"extracted_text,omitempty"`

	// Set only in a failed/unsupported status.
	Error *string `gorm:"type:text" json:"error,omitempty"`

	// Snapshot of the material's generation params so the worker and the
	// generation phase are self-contained.
	Params datatypes.JSON `gorm:"type:json" json:"params,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Job) TableName() string { return "extraction_jobs" }
