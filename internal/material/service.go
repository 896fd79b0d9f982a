package material

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrInvalidKind   = errors.New("material: invalid artifact kind")
	ErrNoSource      = errors.New("material: either a file or inline text is required")
	ErrTwoSources    = errors.New("material: file and inline text are mutually exclusive")
	ErrNotOwned      = gorm.ErrRecordNotFound // hide existence from other users
	ErrEmptyArtifact = errors.New("material: artifact content is empty")
)

// Uploader is the slice of the blob store the service needs.
type Uploader interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
}

type Service struct {
	repo   *Repo
	blobs  Uploader
	logger *logrus.Logger
}

func NewService(repo *Repo, blobs Uploader, logger *logrus.Logger) *Service {
	return &Service{repo: repo, blobs: blobs, logger: logger}
}

// CreateInput carries the user's submission. Exactly one of {FileData,
// InlineText} must be set.
type CreateInput struct {
	Kind     Kind
	Title    string
	Filename string
	MIMEType string
	FileData []byte
	Text     string
	Params   map[string]string
}

// Create validates the submission, uploads the file bytes (when present) and
// inserts the placeholder material row. File submissions start in
// pending_extraction; inline text skips the extraction job entirely and
// starts in pending_ai_generation.
func (s *Service) Create(ctx context.Context, userID uint64, in CreateInput) (*Material, error) {
	if !ValidKind(in.Kind) {
		return nil, ErrInvalidKind
	}
	hasFile := len(in.FileData) > 0
	hasText := strings.TrimSpace(in.Text) != ""
	if hasFile && hasText {
		return nil, ErrTwoSources
	}
	if !hasFile && !hasText {
		return nil, ErrNoSource
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = in.Filename
	}
	if title == "" {
		title = "Untitled"
	}

	var params datatypes.JSON
	if len(in.Params) > 0 {
		b, err := json.Marshal(in.Params)
		if err != nil {
			return nil, fmt.Errorf("material: encode params: %w", err)
		}
		params = datatypes.JSON(b)
	}

	m := &Material{
		ID:     uuid.NewString(),
		UserID: userID,
		Kind:   in.Kind,
		Title:  title,
		Params: params,
	}

	if hasFile {
		path := objectName(userID, in.Filename)
		if err := s.blobs.Upload(ctx, path, in.FileData, in.MIMEType); err != nil {
			return nil, fmt.Errorf("material: upload source file: %w", err)
		}
		m.Status = StatusPendingExtraction
		m.SourceFilename = &in.Filename
		m.SourceMIMEType = &in.MIMEType
		m.StoragePath = &path
	} else {
		text := in.Text
		m.Status = StatusPendingAIGeneration
		m.SourceText = &text
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("material: create record: %w", err)
	}
	s.logger.Infof("material created id=%s user=%d kind=%s status=%s", m.ID, userID, m.Kind, m.Status)
	return m, nil
}

func (s *Service) GetForUser(ctx context.Context, userID uint64, id string) (*Material, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.UserID != userID {
		return nil, ErrNotOwned
	}
	return m, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uint64, page, pageSize int) ([]Material, int64, error) {
	return s.repo.ListByUser(ctx, userID, page, pageSize)
}

// SaveArtifact persists the generated artifact and completes the material.
// Implements the poller's Finalizer contract.
func (s *Service) SaveArtifact(ctx context.Context, materialID string, title string, content []byte) error {
	if len(content) == 0 {
		return ErrEmptyArtifact
	}
	updated, err := s.repo.FinalizeArtifact(ctx, materialID, title, datatypes.JSON(content))
	if err != nil {
		return err
	}
	if !updated {
		s.logger.Warnf("material %s not in pending_ai_generation, artifact write skipped", materialID)
	}
	return nil
}

func (s *Service) MarkGenerationFailed(ctx context.Context, materialID string) error {
	_, err := s.repo.MarkGenerationFailed(ctx, materialID)
	return err
}

func objectName(userID uint64, filename string) string {
	return fmt.Sprintf("%d/%s%s", userID, uuid.NewString(), filepath.Ext(filename))
}
