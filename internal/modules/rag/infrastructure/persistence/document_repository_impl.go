package persistence

import (
	"context"
	"errors"
	"time"

	"DocLink/internal/modules/rag/domain/rag"
	"DocLink/internal/modules/rag/domain/repository"

	"gorm.io/gorm"
)

type documentRepoImpl struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) repository.DocumentRepository {
	return &documentRepoImpl{db: db}
}

func (r *documentRepoImpl) Create(ctx context.Context, doc *rag.BotDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *documentRepoImpl) GetByUuid(ctx context.Context, uuid string) (*rag.BotDocument, error) {
	var doc rag.BotDocument
	err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepoImpl) ListByBot(ctx context.Context, botUuid string) ([]rag.BotDocument, error) {
	var docs []rag.BotDocument
	err := r.db.WithContext(ctx).
		Where("bot_uuid = ?", botUuid).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}

func (r *documentRepoImpl) MarkReady(ctx context.Context, uuid string, chunkCount int) error {
	return r.db.WithContext(ctx).Model(&rag.BotDocument{}).
		Where("uuid = ?", uuid).
		Updates(map[string]interface{}{
			"status":      rag.DocumentStatusReady,
			"chunk_count": chunkCount,
			"updated_at":  time.Now(),
		}).Error
}

func (r *documentRepoImpl) MarkFailed(ctx context.Context, uuid string) error {
	return r.db.WithContext(ctx).Model(&rag.BotDocument{}).
		Where("uuid = ?", uuid).
		Updates(map[string]interface{}{
			"status":     rag.DocumentStatusFailed,
			"updated_at": time.Now(),
		}).Error
}

func (r *documentRepoImpl) Delete(ctx context.Context, uuid string) error {
	return r.db.WithContext(ctx).Where("uuid = ?", uuid).Delete(&rag.BotDocument{}).Error
}
