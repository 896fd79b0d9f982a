package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/peixuanhu/study-platform/internal/common"
	"github.com/peixuanhu/study-platform/internal/material"
)

var ErrNotAwaitingExtraction = errors.New("pipeline: material is not awaiting extraction")

// Dispatcher fires the extraction worker invocation. Fire-and-forget: the
// initiator never awaits the worker's result.
type Dispatcher interface {
	DispatchExtraction(ctx context.Context, jobID string) error
}

// FileDescriptor references the uploaded source blob.
type FileDescriptor struct {
	Filename    string
	MIMEType    string
	StoragePath string
}

type Service struct {
	jobs       *Repo
	materials  *material.Repo
	dispatcher Dispatcher
	logger     *logrus.Logger
}

func NewService(jobs *Repo, materials *material.Repo, dispatcher Dispatcher, logger *logrus.Logger) *Service {
	return &Service{jobs: jobs, materials: materials, dispatcher: dispatcher, logger: logger}
}

// Initiate creates the extraction job for a placeholder material and
// dispatches the worker. The job id is returned synchronously so the caller
// can begin polling immediately.
//
// A dispatch failure is logged but not surfaced: the job row still correctly
// reads pending_extraction, and the polling client's timeout ceiling covers a
// lost invocation.
func (s *Service) Initiate(ctx context.Context, userID uint64, materialID string, file FileDescriptor, params map[string]string) (string, error) {
	m, err := s.materials.GetByID(ctx, materialID)
	if err != nil {
		return "", err
	}
	if m.UserID != userID {
		// hide existence
		return "", gorm.ErrRecordNotFound
	}
	if m.Status != material.StatusPendingExtraction || len(m.Content) > 0 {
		return "", ErrNotAwaitingExtraction
	}

	jobID, err := common.NewULID()
	if err != nil {
		return "", err
	}

	var paramsJSON datatypes.JSON
	if len(params) > 0 {
		b, err := json.Marshal(params)
		if err != nil {
			return "", fmt.Errorf("pipeline: encode params: %w", err)
		}
		paramsJSON = datatypes.JSON(b)
	}

	job := &Job{
		ID:          jobID,
		MaterialID:  materialID,
		UserID:      userID,
		Filename:    file.Filename,
		MIMEType:    file.MIMEType,
		StoragePath: file.StoragePath,
		Status:      JobPendingExtraction,
		Params:      paramsJSON,
	}
	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return "", fmt.Errorf("pipeline: create job: %w", err)
	}

	if err := s.dispatcher.DispatchExtraction(ctx, jobID); err != nil {
		s.logger.Errorf("dispatch extraction failed job=%s material=%s: %v", jobID, materialID, err)
	}
	return jobID, nil
}

// GetJobForUser is the read-only poll path.
func (s *Service) GetJobForUser(ctx context.Context, userID uint64, jobID string) (*Job, error) {
	j, err := s.jobs.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j.UserID != userID {
		// hide existence
		return nil, gorm.ErrRecordNotFound
	}
	return j, nil
}
