package rag

import "fmt"

// ValidationError 输入不合法（空消息、无可提取内容等）
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ErrNoExtractableContent 清洗后文档没有任何可用字符。
// 调用方必须视为摄取失败，不能静默成功写入零个向量。
var ErrNoExtractableContent = &ValidationError{Msg: "no extractable content"}

// ProviderError 外部服务返回非 2xx 或响应无法解析。
// Body 已截断，只用于诊断，绝不进入提示词。
type ProviderError struct {
	Provider string
	Status   int
	Body     string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error: status=%d body=%s", e.Provider, e.Status, e.Body)
}

// DimensionMismatchError 返回的向量维度小于配置维度。
// 超长向量会被截断而不是报错，该不对称行为来自上游约定。
type DimensionMismatchError struct {
	Got  int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: got %d, want %d", e.Got, e.Want)
}

// PartialIngestionError 切片数与向量数不一致。
// embeddings[i] 必须对应 chunks[i]，数量不等时位置对应关系即被破坏。
type PartialIngestionError struct {
	Chunks     int
	Embeddings int
}

func (e *PartialIngestionError) Error() string {
	return fmt.Sprintf("partial ingestion: %d chunks but %d embeddings", e.Chunks, e.Embeddings)
}
