package material

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Create(ctx context.Context, m *Material) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Material, error) {
	var m Material
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID uint64, page, pageSize int) ([]Material, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	q := r.db.WithContext(ctx).Model(&Material{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []Material
	if err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	return ms, total, nil
}

// UpdateStatusIf performs a conditional status write. It reports whether the
// row was actually updated, so callers can detect that the material has
// already moved on (e.g. a slow extraction mirror racing the generation
// phase) and treat the write as a no-op.
func (r *Repo) UpdateStatusIf(ctx context.Context, id string, next Status, expected ...Status) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Material{}).
		Where("id = ? AND status IN ?", id, expected).
		Update("status", next)
	return res.RowsAffected > 0, res.Error
}

// SetExtractedSource moves a material from pending_extraction to
// pending_ai_generation and copies the extracted text into the inline-text
// column in the same statement.
func (r *Repo) SetExtractedSource(ctx context.Context, id string, text string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Material{}).
		Where("id = ? AND status = ?", id, StatusPendingExtraction).
		Updates(map[string]any{
			"status":      StatusPendingAIGeneration,
			"source_text": text,
		})
	return res.RowsAffected > 0, res.Error
}

// FinalizeArtifact writes the finished artifact. Guarded on
// pending_ai_generation so a duplicate generation pass cannot clobber a
// completed material.
func (r *Repo) FinalizeArtifact(ctx context.Context, id string, title string, content datatypes.JSON) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Material{}).
		Where("id = ? AND status = ?", id, StatusPendingAIGeneration).
		Updates(map[string]any{
			"status":  StatusCompleted,
			"title":   title,
			"content": content,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *Repo) MarkGenerationFailed(ctx context.Context, id string) (bool, error) {
	return r.UpdateStatusIf(ctx, id, StatusAIProcessingFailed, StatusPendingAIGeneration)
}
