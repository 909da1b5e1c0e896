package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"DocLink/internal/modules/rag/domain/rag"
	"DocLink/internal/modules/rag/domain/repository"
	"DocLink/internal/modules/rag/infrastructure/chunking"
	"DocLink/pkg/zlog"

	"go.uber.org/zap"
)

// Progress 摄取进度回调，(stage, percent, message)；
// 单次运行内 percent 单调不减。
type Progress func(stage string, percent int, message string)

type IngestRequest struct {
	TenantID   string
	DocumentID string
	Filename   string
	RawText    string
}

type IngestResult struct {
	Chunks          int   `json:"chunks"`
	VectorsUploaded int   `json:"vectors_uploaded"`
	DurationMs      int64 `json:"duration_ms"`
}

// IngestPipeline 驱动单个文档的 切片 → 向量化 → 写入 流程。
// 文档粒度全有或全无：任何阶段失败则终止，不写入任何向量。
type IngestPipeline struct {
	chunker *chunking.Chunker
	dim     int
}

func NewIngestPipeline(chunker *chunking.Chunker, dim int) *IngestPipeline {
	return &IngestPipeline{chunker: chunker, dim: dim}
}

// Ingest 按状态机推进：Chunking → Embedding → Upserting → Completed | Failed。
// embedder 与 store 按租户凭据构造后传入，管道自身无共享可变状态，
// 多个文档可并发摄取互不干扰。
func (p *IngestPipeline) Ingest(ctx context.Context, req IngestRequest, embedder repository.Embedder, store repository.VectorStore, report Progress) (*IngestResult, error) {
	start := time.Now()
	if report == nil {
		report = func(string, int, string) {}
	}
	if strings.TrimSpace(req.TenantID) == "" || strings.TrimSpace(req.DocumentID) == "" {
		return nil, &rag.ValidationError{Msg: "missing tenant/document id"}
	}

	report(rag.JobStageChunking, 10, "正在切分文档")
	chunks := p.chunker.Chunk(req.RawText)
	if len(chunks) == 0 {
		return nil, rag.ErrNoExtractableContent
	}

	report(rag.JobStageEmbedding, 30, fmt.Sprintf("正在向量化 %d 个片段", len(chunks)))
	embeddings, err := embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(chunks) {
		return nil, &rag.PartialIngestionError{Chunks: len(chunks), Embeddings: len(embeddings)}
	}
	for _, vec := range embeddings {
		if len(vec) != p.dim {
			return nil, &rag.DimensionMismatchError{Got: len(vec), Want: p.dim}
		}
	}

	report(rag.JobStageUpserting, 70, "正在写入向量库")
	records := make([]repository.VectorRecord, 0, len(chunks))
	for i := range chunks {
		records = append(records, repository.VectorRecord{
			ID:     fmt.Sprintf("%s-%s-%d", req.Filename, req.DocumentID, i),
			Values: embeddings[i],
			Metadata: repository.RecordMetadata{
				TenantID:    req.TenantID,
				DocumentID:  req.DocumentID,
				ChunkIndex:  i,
				TotalChunks: len(chunks),
				SourceText:  chunks[i],
				Filename:    req.Filename,
			},
		})
	}
	uploaded, err := store.Upsert(ctx, records)
	if err != nil {
		return nil, err
	}

	report(rag.JobStageCompleted, 100, fmt.Sprintf("已写入 %d 个向量", uploaded))
	res := &IngestResult{Chunks: len(chunks), VectorsUploaded: uploaded, DurationMs: time.Since(start).Milliseconds()}
	zlog.Info("rag ingest done",
		zap.String("tenant_id", req.TenantID),
		zap.String("document_id", req.DocumentID),
		zap.Int("chunks", res.Chunks),
		zap.Int("vectors", res.VectorsUploaded),
		zap.Int64("ms", res.DurationMs))
	return res, nil
}
