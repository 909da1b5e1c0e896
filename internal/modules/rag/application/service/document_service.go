package service

import (
	"context"
	"strings"
	"time"

	botService "DocLink/internal/modules/bot/application/service"
	"DocLink/internal/modules/rag/application/dto/request"
	"DocLink/internal/modules/rag/application/dto/respond"
	"DocLink/internal/modules/rag/domain/rag"
	"DocLink/internal/modules/rag/domain/repository"
	"DocLink/internal/modules/rag/infrastructure/mq"
	"DocLink/pkg/util"
	"DocLink/pkg/xerr"
	"DocLink/pkg/zlog"

	"go.uber.org/zap"
)

type DocumentService interface {
	Upload(ctx context.Context, ownerUserId, botUuid string, req request.UploadDocumentRequest) (*respond.UploadRespond, error)
	List(ctx context.Context, ownerUserId, botUuid string) ([]respond.DocumentItem, error)
	Delete(ctx context.Context, ownerUserId, botUuid, documentUuid string) error
}

type documentService struct {
	bots         botService.BotService
	docs         repository.DocumentRepository
	jobs         repository.IngestJobRepository
	storeFactory repository.VectorStoreFactory
	publisher    mq.Publisher
	ingestTopic  string
}

func NewDocumentService(
	bots botService.BotService,
	docs repository.DocumentRepository,
	jobs repository.IngestJobRepository,
	storeFactory repository.VectorStoreFactory,
	publisher mq.Publisher,
	ingestTopic string,
) DocumentService {
	return &documentService{
		bots:         bots,
		docs:         docs,
		jobs:         jobs,
		storeFactory: storeFactory,
		publisher:    publisher,
		ingestTopic:  ingestTopic,
	}
}

// Upload 落库后立即返回，切片/向量化/写入由消费端异步完成。
// 文档与任务记录先于队列消息创建，消费端拿到的 uuid 一定可查。
func (s *documentService) Upload(ctx context.Context, ownerUserId, botUuid string, req request.UploadDocumentRequest) (*respond.UploadRespond, error) {
	filename := strings.TrimSpace(req.Filename)
	if filename == "" || strings.TrimSpace(req.RawText) == "" {
		return nil, xerr.New(xerr.BadRequest, xerr.ErrParam.Message)
	}

	bot, err := s.bots.GetOwned(ctx, ownerUserId, botUuid)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	doc := &rag.BotDocument{
		Uuid:      util.GenerateUUID(),
		BotUuid:   bot.Uuid,
		Filename:  filename,
		RawText:   req.RawText,
		Status:    rag.DocumentStatusIngesting,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}

	job := &rag.IngestJob{
		Uuid:         util.GenerateUUID(),
		BotUuid:      bot.Uuid,
		DocumentUuid: doc.Uuid,
		Stage:        rag.JobStageQueued,
		Message:      "queued",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	_, err = s.publisher.Publish(ctx, mq.Message{
		Topic: s.ingestTopic,
		Key:   []byte(bot.Uuid),
		Value: []byte(job.Uuid),
	})
	if err != nil {
		_ = s.jobs.MarkFailed(ctx, job.Uuid, "enqueue failed")
		_ = s.docs.MarkFailed(ctx, doc.Uuid)
		return nil, err
	}

	zlog.Info("document upload enqueued",
		zap.String("bot_uuid", bot.Uuid),
		zap.String("document_uuid", doc.Uuid),
		zap.String("job_uuid", job.Uuid))
	return &respond.UploadRespond{DocumentUuid: doc.Uuid, JobUuid: job.Uuid}, nil
}

func (s *documentService) List(ctx context.Context, ownerUserId, botUuid string) ([]respond.DocumentItem, error) {
	bot, err := s.bots.GetOwned(ctx, ownerUserId, botUuid)
	if err != nil {
		return nil, err
	}
	docs, err := s.docs.ListByBot(ctx, bot.Uuid)
	if err != nil {
		return nil, err
	}
	items := make([]respond.DocumentItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, respond.DocumentItem{
			Uuid:       d.Uuid,
			Filename:   d.Filename,
			ChunkCount: d.ChunkCount,
			Status:     d.Status,
			CreatedAt:  d.CreatedAt,
		})
	}
	return items, nil
}

// Delete 先按 documentId 元数据过滤清掉向量，再删文档记录。
// 向量删除幂等，目标不存在也视为成功。
func (s *documentService) Delete(ctx context.Context, ownerUserId, botUuid, documentUuid string) error {
	bot, err := s.bots.GetOwned(ctx, ownerUserId, botUuid)
	if err != nil {
		return err
	}
	doc, err := s.docs.GetByUuid(ctx, strings.TrimSpace(documentUuid))
	if err != nil {
		return err
	}
	if doc == nil || doc.BotUuid != bot.Uuid {
		return xerr.New(xerr.NotFound, xerr.ErrNotFound.Message)
	}

	store := s.storeFactory.New(bot.VectorHost)
	if err := store.DeleteByDocument(ctx, doc.Uuid); err != nil {
		return err
	}
	return s.docs.Delete(ctx, doc.Uuid)
}
