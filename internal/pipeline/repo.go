package pipeline

import (
	"context"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateJob(ctx context.Context, job *Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *Repo) GetJobByID(ctx context.Context, id string) (*Job, error) {
	var j Job
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

// MarkExtracting claims the job. The conditional update is the only
// serialization point between duplicate worker invocations: whoever flips
// pending_extraction to extracting owns the attempt, everyone else sees zero
// rows affected and backs off.
func (r *Repo) MarkExtracting(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ?", id, JobPendingExtraction).
		Update("status", JobExtracting)
	return res.RowsAffected > 0, res.Error
}

func (r *Repo) MarkExtracted(ctx context.Context, id string, text string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ?", id, JobExtracting).
		Updates(map[string]any{
			"status":         JobTextExtracted,
			"extracted_text": text,
			"error":          nil,
		})
	return res.RowsAffected > 0, res.Error
}

// MarkFailed records a terminal failure (extraction_failed or
// extraction_unsupported) with its message. Guarded on the non-terminal
// statuses so a finished job is never overwritten.
func (r *Repo) MarkFailed(ctx context.Context, id string, status JobStatus, errMsg string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status IN ?", id, []JobStatus{JobPendingExtraction, JobExtracting}).
		Updates(map[string]any{
			"status":         status,
			"error":          errMsg,
			"extracted_text": nil,
		})
	return res.RowsAffected > 0, res.Error
}
