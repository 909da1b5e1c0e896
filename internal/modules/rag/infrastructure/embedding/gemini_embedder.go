package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"DocLink/internal/modules/rag/domain/rag"
	"DocLink/internal/modules/rag/domain/repository"
	"DocLink/pkg/zlog"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const providerName = "embedding"

// maxBodySnippet 错误响应体截断长度，只用于诊断日志
const maxBodySnippet = 512

type batchEmbedRequest struct {
	Requests []embedContentRequest `json:"requests"`
}

type embedContentRequest struct {
	Model                string       `json:"model"`
	Content              contentParts `json:"content"`
	OutputDimensionality int          `json:"outputDimensionality,omitempty"`
}

type contentParts struct {
	Parts []textPart `json:"parts"`
}

type textPart struct {
	Text string `json:"text"`
}

type batchEmbedResponse struct {
	Embeddings []embeddingValues `json:"embeddings"`
}

type singleEmbedResponse struct {
	Embedding embeddingValues `json:"embedding"`
}

type embeddingValues struct {
	Values []float32 `json:"values"`
}

// GeminiEmbedderFactory 按租户凭据构造 Embedder。
// 同一凭据共享一个令牌桶，多个并发摄取不会叠加突破配额。
type GeminiEmbedderFactory struct {
	baseURL      string
	model        string
	dimension    int
	batchSize    int
	batchDelay   time.Duration
	ratePerSec   float64
	client       *http.Client
	mu           sync.Mutex
	limiters     map[string]*rate.Limiter
}

type FactoryConfig struct {
	BaseURL        string
	Model          string
	Dimension      int
	BatchSize      int
	BatchDelayMs   int
	RatePerSecond  float64
	TimeoutSeconds int
}

func NewGeminiEmbedderFactory(cfg FactoryConfig) *GeminiEmbedderFactory {
	if cfg.Dimension <= 0 {
		cfg.Dimension = 1536
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > 100 {
		cfg.BatchSize = 100
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 5
	}
	timeout := 30 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &GeminiEmbedderFactory{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimension:  cfg.Dimension,
		batchSize:  cfg.BatchSize,
		batchDelay: time.Duration(cfg.BatchDelayMs) * time.Millisecond,
		ratePerSec: cfg.RatePerSecond,
		client:     &http.Client{Timeout: timeout},
		limiters:   make(map[string]*rate.Limiter),
	}
}

func (f *GeminiEmbedderFactory) New(apiKey string) repository.Embedder {
	f.mu.Lock()
	lim, ok := f.limiters[apiKey]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(f.ratePerSec), f.batchSize)
		f.limiters[apiKey] = lim
	}
	f.mu.Unlock()
	return &geminiEmbedder{factory: f, apiKey: apiKey, limiter: lim}
}

func (f *GeminiEmbedderFactory) Close() {
	f.client.CloseIdleConnections()
}

type geminiEmbedder struct {
	factory *GeminiEmbedderFactory
	apiKey  string
	limiter *rate.Limiter
}

func (e *geminiEmbedder) Dimension() int { return e.factory.dimension }

// EmbedBatch 按 batchSize 分组请求，任何一组失败则整体失败。
// 批次之间插入短暂延迟，令牌桶在此之上做硬性限流。
func (e *geminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	out := make([][]float32, 0, len(texts))
	batchSize := e.factory.batchSize
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		if err := e.limiter.WaitN(ctx, end-start); err != nil {
			return nil, err
		}

		vectors, err := e.embedGroup(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)

		if end < len(texts) && e.factory.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.factory.batchDelay):
			}
		}
	}
	return out, nil
}

func (e *geminiEmbedder) embedGroup(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := batchEmbedRequest{Requests: make([]embedContentRequest, 0, len(texts))}
	model := "models/" + e.factory.model
	for _, t := range texts {
		reqBody.Requests = append(reqBody.Requests, embedContentRequest{
			Model:   model,
			Content: contentParts{Parts: []textPart{{Text: t}}},
		})
	}

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents", e.factory.baseURL, e.factory.model)
	raw, err := e.post(ctx, url, reqBody)
	if err != nil {
		return nil, err
	}

	var resp batchEmbedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &rag.ProviderError{Provider: providerName, Status: http.StatusOK, Body: snippet(raw)}
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, &rag.PartialIngestionError{Chunks: len(texts), Embeddings: len(resp.Embeddings)}
	}

	vectors := make([][]float32, 0, len(resp.Embeddings))
	for _, emb := range resp.Embeddings {
		v, err := e.normalize(emb.Values)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}

func (e *geminiEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody := embedContentRequest{
		Model:                "models/" + e.factory.model,
		Content:              contentParts{Parts: []textPart{{Text: text}}},
		OutputDimensionality: e.factory.dimension,
	}
	url := fmt.Sprintf("%s/models/%s:embedContent", e.factory.baseURL, e.factory.model)
	raw, err := e.post(ctx, url, reqBody)
	if err != nil {
		return nil, err
	}

	var resp singleEmbedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &rag.ProviderError{Provider: providerName, Status: http.StatusOK, Body: snippet(raw)}
	}
	return e.normalize(resp.Embedding.Values)
}

// normalize 长于配置维度截断，短于配置维度报错。
// 不对称行为与上游约定保持一致，不要在这里改成对称校验。
func (e *geminiEmbedder) normalize(values []float32) ([]float32, error) {
	dim := e.factory.dimension
	if len(values) < dim {
		return nil, &rag.DimensionMismatchError{Got: len(values), Want: dim}
	}
	if len(values) > dim {
		values = values[:dim]
	}
	return values, nil
}

func (e *geminiEmbedder) post(ctx context.Context, url string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", e.apiKey)

	resp, err := e.factory.client.Do(req)
	if err != nil {
		return nil, &rag.ProviderError{Provider: providerName, Status: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &rag.ProviderError{Provider: providerName, Status: resp.StatusCode, Body: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		zlog.Warn("嵌入服务返回异常状态",
			zap.Int("status", resp.StatusCode),
			zap.String("body", snippet(raw)))
		return nil, &rag.ProviderError{Provider: providerName, Status: resp.StatusCode, Body: snippet(raw)}
	}
	return raw, nil
}

func snippet(raw []byte) string {
	s := string(raw)
	if len(s) > maxBodySnippet {
		return s[:maxBodySnippet]
	}
	return s
}
