package persistence

import (
	"context"
	"errors"
	"time"

	"DocLink/internal/modules/rag/domain/rag"
	"DocLink/internal/modules/rag/domain/repository"

	"gorm.io/gorm"
)

type ingestJobRepoImpl struct {
	db *gorm.DB
}

func NewIngestJobRepository(db *gorm.DB) repository.IngestJobRepository {
	return &ingestJobRepoImpl{db: db}
}

func (r *ingestJobRepoImpl) Create(ctx context.Context, job *rag.IngestJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *ingestJobRepoImpl) GetByUuid(ctx context.Context, uuid string) (*rag.IngestJob, error) {
	var job rag.IngestJob
	err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// UpdateProgress 终态任务不再更新，percent 只增不减
func (r *ingestJobRepoImpl) UpdateProgress(ctx context.Context, uuid string, stage string, percent int, message string) error {
	return r.db.WithContext(ctx).Model(&rag.IngestJob{}).
		Where("uuid = ? AND stage NOT IN ? AND percent <= ?", uuid, []string{rag.JobStageCompleted, rag.JobStageFailed}, percent).
		Updates(map[string]interface{}{
			"stage":      stage,
			"percent":    percent,
			"message":    message,
			"updated_at": time.Now(),
		}).Error
}

func (r *ingestJobRepoImpl) MarkCompleted(ctx context.Context, uuid string, vectorsUploaded int) error {
	return r.db.WithContext(ctx).Model(&rag.IngestJob{}).
		Where("uuid = ? AND stage NOT IN ?", uuid, []string{rag.JobStageCompleted, rag.JobStageFailed}).
		Updates(map[string]interface{}{
			"stage":            rag.JobStageCompleted,
			"percent":          100,
			"message":          "completed",
			"vectors_uploaded": vectorsUploaded,
			"updated_at":       time.Now(),
		}).Error
}

func (r *ingestJobRepoImpl) MarkFailed(ctx context.Context, uuid string, errorMsg string) error {
	return r.db.WithContext(ctx).Model(&rag.IngestJob{}).
		Where("uuid = ? AND stage NOT IN ?", uuid, []string{rag.JobStageCompleted, rag.JobStageFailed}).
		Updates(map[string]interface{}{
			"stage":      rag.JobStageFailed,
			"percent":    100,
			"error_msg":  errorMsg,
			"updated_at": time.Now(),
		}).Error
}
