package repository

import (
	"context"

	"DocLink/internal/modules/rag/domain/rag"
)

type IngestJobRepository interface {
	Create(ctx context.Context, job *rag.IngestJob) error
	GetByUuid(ctx context.Context, uuid string) (*rag.IngestJob, error)
	// UpdateProgress 推进阶段与百分比；终态任务不再更新
	UpdateProgress(ctx context.Context, uuid string, stage string, percent int, message string) error
	MarkCompleted(ctx context.Context, uuid string, vectorsUploaded int) error
	MarkFailed(ctx context.Context, uuid string, errorMsg string) error
}
