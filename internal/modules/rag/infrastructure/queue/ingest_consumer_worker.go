package queue

import (
	"context"
	"errors"
	"strings"

	botRepo "DocLink/internal/modules/bot/domain/repository"
	"DocLink/internal/modules/rag/domain/rag"
	"DocLink/internal/modules/rag/domain/repository"
	"DocLink/internal/modules/rag/infrastructure/mq"
	"DocLink/internal/modules/rag/infrastructure/pipeline"
	"DocLink/pkg/vault"
	"DocLink/pkg/ws"
	"DocLink/pkg/zlog"

	"go.uber.org/zap"
)

// IngestConsumerWorker 消费摄取任务队列，驱动单个文档的完整摄取流程。
// 消息体就是任务 uuid，任务记录是进度的权威来源。
type IngestConsumerWorker struct {
	consumer mq.Consumer

	jobRepo repository.IngestJobRepository
	docRepo repository.DocumentRepository
	bots    botRepo.BotRepository

	embedderFactory repository.EmbedderFactory
	storeFactory    repository.VectorStoreFactory
	pipeline        *pipeline.IngestPipeline

	hub       *ws.Hub
	masterKey []byte
}

func NewIngestConsumerWorker(
	consumer mq.Consumer,
	jobRepo repository.IngestJobRepository,
	docRepo repository.DocumentRepository,
	bots botRepo.BotRepository,
	embedderFactory repository.EmbedderFactory,
	storeFactory repository.VectorStoreFactory,
	p *pipeline.IngestPipeline,
	hub *ws.Hub,
	masterKey []byte,
) *IngestConsumerWorker {
	return &IngestConsumerWorker{
		consumer:        consumer,
		jobRepo:         jobRepo,
		docRepo:         docRepo,
		bots:            bots,
		embedderFactory: embedderFactory,
		storeFactory:    storeFactory,
		pipeline:        p,
		hub:             hub,
		masterKey:       masterKey,
	}
}

func (w *IngestConsumerWorker) Run(ctx context.Context) error {
	if w == nil || w.consumer == nil {
		return errors.New("consumer is nil")
	}
	if w.jobRepo == nil || w.docRepo == nil || w.bots == nil {
		return errors.New("worker repo is nil")
	}
	if w.pipeline == nil {
		return errors.New("pipeline is nil")
	}
	return w.consumer.Run(ctx, w)
}

// Handle 失败即终态：处理失败写入任务记录后返回 nil 提交位点，
// 重试通过重新上传文档完成，不做队列级自动重投。
func (w *IngestConsumerWorker) Handle(ctx context.Context, msg mq.Message) error {
	jobUuid := strings.TrimSpace(string(msg.Value))
	if jobUuid == "" {
		zlog.Warn("ingest consumer empty job uuid", zap.String("topic", msg.Topic))
		return nil
	}

	job, err := w.jobRepo.GetByUuid(ctx, jobUuid)
	if err != nil {
		zlog.Warn("ingest consumer get job failed", zap.String("job_uuid", jobUuid), zap.Error(err))
		return err
	}
	if job == nil || job.Terminal() {
		return nil
	}

	procErr := w.processJob(ctx, job)
	if procErr != nil {
		errMsg := scrubErrMsg(procErr.Error())
		_ = w.jobRepo.MarkFailed(ctx, job.Uuid, errMsg)
		_ = w.docRepo.MarkFailed(ctx, job.DocumentUuid)
		w.pushProgress(ctx, job, rag.JobStageFailed, 100, errMsg)
		zlog.Warn("ingest consumer job failed",
			zap.String("job_uuid", job.Uuid),
			zap.String("bot_uuid", job.BotUuid),
			zap.String("document_uuid", job.DocumentUuid),
			zap.String("error", errMsg),
		)
		return nil
	}
	return nil
}

func (w *IngestConsumerWorker) processJob(ctx context.Context, job *rag.IngestJob) error {
	doc, err := w.docRepo.GetByUuid(ctx, job.DocumentUuid)
	if err != nil {
		return err
	}
	if doc == nil {
		return errors.New("document not found")
	}

	bot, err := w.bots.GetByUuid(ctx, job.BotUuid)
	if err != nil {
		return err
	}
	if bot == nil {
		return errors.New("bot not found")
	}

	embeddingKey, err := vault.Decrypt(bot.EncryptedEmbeddingKey, w.masterKey)
	if err != nil {
		return err
	}

	embedder := w.embedderFactory.New(embeddingKey)
	store := w.storeFactory.New(bot.VectorHost)

	report := func(stage string, percent int, message string) {
		_ = w.jobRepo.UpdateProgress(ctx, job.Uuid, stage, percent, message)
		w.pushProgress(ctx, job, stage, percent, message)
	}

	res, err := w.pipeline.Ingest(ctx, pipeline.IngestRequest{
		TenantID:   bot.Uuid,
		DocumentID: doc.Uuid,
		Filename:   doc.Filename,
		RawText:    doc.RawText,
	}, embedder, store, report)
	if err != nil {
		return err
	}

	if err := w.jobRepo.MarkCompleted(ctx, job.Uuid, res.VectorsUploaded); err != nil {
		return err
	}
	return w.docRepo.MarkReady(ctx, doc.Uuid, res.Chunks)
}

func (w *IngestConsumerWorker) pushProgress(ctx context.Context, job *rag.IngestJob, stage string, percent int, message string) {
	if w.hub == nil {
		return
	}
	bot, err := w.bots.GetByUuid(ctx, job.BotUuid)
	if err != nil || bot == nil {
		return
	}
	w.hub.PushProgress(bot.OwnerUserId, ws.ProgressFrame{
		JobID:      job.Uuid,
		DocumentID: job.DocumentUuid,
		Stage:      stage,
		Percent:    percent,
		Message:    message,
	})
}

// scrubErrMsg 错误入库前剔除可能携带的凭据并截断长度
func scrubErrMsg(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	low := strings.ToLower(s)
	if strings.Contains(low, "api_key") || strings.Contains(low, "apikey") || strings.Contains(low, "secret") || strings.Contains(s, "AIza") {
		return "redacted"
	}
	if len(s) > 255 {
		return s[:255]
	}
	return s
}
