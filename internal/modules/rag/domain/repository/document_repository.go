package repository

import (
	"context"

	"DocLink/internal/modules/rag/domain/rag"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *rag.BotDocument) error
	GetByUuid(ctx context.Context, uuid string) (*rag.BotDocument, error)
	ListByBot(ctx context.Context, botUuid string) ([]rag.BotDocument, error)
	// MarkReady 成功终态，同时回写 chunk_count
	MarkReady(ctx context.Context, uuid string, chunkCount int) error
	MarkFailed(ctx context.Context, uuid string) error
	Delete(ctx context.Context, uuid string) error
}
