package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"DocLink/internal/modules/rag/domain/repository"
	"DocLink/pkg/zlog"

	"go.uber.org/zap"
)

// NoContextMarker 未命中任何上下文时写入上下文块的显式标记，
// 让生成阶段能够如实说明，而不是凭空编造依据。
const NoContextMarker = "No relevant context found in the knowledge base."

// RetrieveRequest RAG 召回的输入请求
type RetrieveRequest struct {
	Question string // 用户问题（必填）
	TopK     int    // 返回 Top-K 个匹配（默认 5，范围 1-50）
}

// RetrieveResult RAG 召回的输出结果
type RetrieveResult struct {
	Question      string                   // 原始用户问题
	Matches       []repository.VectorMatch // 向量库命中结果
	ContextBlock  string                   // 拼装好的上下文块
	ContextUsed   bool                     // 是否有真实命中
	Degraded      bool                     // 检索链路出错后降级
	EmbeddingMs   int64                    // 向量化耗时（毫秒）
	SearchMs      int64                    // 向量检索耗时（毫秒）
}

// RetrievePipeline 查询时召回：向量化用户问题 → 向量库 Top-K 检索 → 拼装上下文。
// 检索链路任何一步出错都降级为空上下文，绝不让聊天回合失败。
type RetrievePipeline struct {
	defaultTopK int
}

func NewRetrievePipeline(defaultTopK int) *RetrievePipeline {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	return &RetrievePipeline{defaultTopK: defaultTopK}
}

// Retrieve 向量化必须使用与摄取时相同的模型与维度，该约束由配置保证
func (p *RetrievePipeline) Retrieve(ctx context.Context, req RetrieveRequest, embedder repository.Embedder, store repository.VectorStore) *RetrieveResult {
	res := &RetrieveResult{Question: req.Question, Matches: []repository.VectorMatch{}}

	embedStart := time.Now()
	queryVec, err := embedder.EmbedOne(ctx, req.Question)
	res.EmbeddingMs = time.Since(embedStart).Milliseconds()
	if err != nil {
		zlog.Warn("查询向量化失败，降级为空上下文", zap.Error(err))
		res.Degraded = true
		res.ContextBlock = NoContextMarker
		return res
	}

	searchStart := time.Now()
	matches, err := store.Query(ctx, queryVec, p.normalizeTopK(req.TopK))
	res.SearchMs = time.Since(searchStart).Milliseconds()
	if err != nil {
		zlog.Warn("向量检索失败，降级为空上下文", zap.Error(err))
		res.Degraded = true
		res.ContextBlock = NoContextMarker
		return res
	}

	res.Matches = matches
	res.ContextBlock = buildContextBlock(matches)
	res.ContextUsed = len(matches) > 0
	return res
}

// normalizeTopK 规范化 TopK 参数（默认 5，范围 1-50）
func (p *RetrievePipeline) normalizeTopK(topK int) int {
	if topK <= 0 {
		return p.defaultTopK
	}
	if topK > 50 {
		return 50
	}
	return topK
}

// buildContextBlock 每条命中渲染为 [Source i, Relevance p%] 前缀的一段
func buildContextBlock(matches []repository.VectorMatch) string {
	if len(matches) == 0 {
		return NoContextMarker
	}
	var b strings.Builder
	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(fmt.Sprintf("[Source %d, Relevance %.0f%%] %s", i+1, m.Score*100, m.Metadata.SourceText))
	}
	return b.String()
}
