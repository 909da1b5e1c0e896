package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"DocLink/internal/modules/rag/domain/rag"
	"DocLink/internal/modules/rag/domain/repository"
	"DocLink/pkg/zlog"

	"go.uber.org/zap"
)

const storeProvider = "vectorstore"

const maxBodySnippet = 512

type upsertRequest struct {
	Vectors   []repository.VectorRecord `json:"vectors"`
	Namespace string                    `json:"namespace"`
}

type upsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
	IncludeValues   bool      `json:"includeValues"`
}

type queryResponse struct {
	Matches []repository.VectorMatch `json:"matches"`
}

type deleteRequest struct {
	Filter map[string]map[string]string `json:"filter"`
}

// PineconeStoreFactory 按租户的索引地址构造客户端。
// API Key 是平台级配置，索引地址来自租户记录。
type PineconeStoreFactory struct {
	apiKey string
	client *http.Client
}

func NewPineconeStoreFactory(apiKey string, timeoutSeconds int) *PineconeStoreFactory {
	timeout := 30 * time.Second
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	return &PineconeStoreFactory{
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

func (f *PineconeStoreFactory) New(host string) repository.VectorStore {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host != "" && !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return &pineconeStore{factory: f, host: host}
}

func (f *PineconeStoreFactory) Close() {
	f.client.CloseIdleConnections()
}

type pineconeStore struct {
	factory *PineconeStoreFactory
	host    string
}

// Upsert 整批一次请求写入，返回向量库报告的写入条数
func (s *pineconeStore) Upsert(ctx context.Context, records []repository.VectorRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	raw, err := s.post(ctx, "/vectors/upsert", upsertRequest{Vectors: records, Namespace: ""})
	if err != nil {
		return 0, err
	}
	var resp upsertResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return 0, &rag.ProviderError{Provider: storeProvider, Status: http.StatusOK, Body: snippet(raw)}
	}
	return resp.UpsertedCount, nil
}

func (s *pineconeStore) Query(ctx context.Context, vector []float32, topK int) ([]repository.VectorMatch, error) {
	raw, err := s.post(ctx, "/query", queryRequest{
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
		IncludeValues:   false,
	})
	if err != nil {
		return []repository.VectorMatch{}, err
	}
	var resp queryResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return []repository.VectorMatch{}, &rag.ProviderError{Provider: storeProvider, Status: http.StatusOK, Body: snippet(raw)}
	}
	if resp.Matches == nil {
		return []repository.VectorMatch{}, nil
	}
	return resp.Matches, nil
}

// DeleteByDocument 按 documentId 元数据等值过滤删除，目标不存在视为成功
func (s *pineconeStore) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.post(ctx, "/vectors/delete", deleteRequest{
		Filter: map[string]map[string]string{
			"documentId": {"$eq": documentID},
		},
	})
	return err
}

func (s *pineconeStore) post(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.host+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", s.factory.apiKey)

	resp, err := s.factory.client.Do(req)
	if err != nil {
		return nil, &rag.ProviderError{Provider: storeProvider, Status: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &rag.ProviderError{Provider: storeProvider, Status: resp.StatusCode, Body: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		zlog.Warn("向量库返回异常状态",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", snippet(raw)))
		return nil, &rag.ProviderError{Provider: storeProvider, Status: resp.StatusCode, Body: snippet(raw)}
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
