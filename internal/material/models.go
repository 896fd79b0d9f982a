package material

import (
	"time"

	"gorm.io/datatypes"
)

// Kind is the artifact the user asked for.
type Kind string

const (
	KindTest       Kind = "test"
	KindFlashcards Kind = "flashcards"
	KindNotes      Kind = "notes"
)

func ValidKind(k Kind) bool {
	switch k {
	case KindTest, KindFlashcards, KindNotes:
		return true
	}
	return false
}

// Status is the coarse-grained projection of the extraction job lifecycle
// plus the client-driven generation phase. The failure statuses are absorbing.
type Status string

const (
	StatusPendingExtraction     Status = "pending_extraction"
	StatusPendingAIGeneration   Status = "pending_ai_generation"
	StatusCompleted             Status = "completed"
	StatusExtractionFailed      Status = "extraction_failed"
	StatusExtractionUnsupported Status = "extraction_unsupported"
	StatusAIProcessingFailed    Status = "ai_processing_failed"
)

type Material struct {
	ID     string `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID uint64 `gorm:"index;not null" json:"-"`

	Kind   Kind   `gorm:"type:varchar(16);not null" json:"kind"`
	Title  string `gorm:"type:varchar(255);not null" json:"title"`
	Status Status `gorm:"type:varchar(32);index;not null" json:"status"`

	// Content is null until the generation phase finalizes the artifact.
	Content datatypes.JSON `gorm:"type:json" json:"content,omitempty"`

	// Source descriptor: either a stored file or inline text, never both at
	// creation. SourceText is also backfilled with the extracted text on the
	// extraction success path so the artifact source survives job pruning.
	SourceFilename *string `gorm:"type:varchar(255)" json:"source_filename,omitempty"`
	SourceMIMEType *string `gorm:"type:varchar(128)" json:"source_mime_type,omitempty"`
	StoragePath    *string `gorm:"type:varchar(512)" json:"-"`
	SourceText     *string `gorm:"type:longtext" json:"-"`

	Params datatypes.JSON `gorm:"type:json" json:"params,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Material) TableName() string { return "materials" }
