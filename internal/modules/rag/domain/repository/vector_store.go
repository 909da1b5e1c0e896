package repository

import "context"

// RecordMetadata 向量记录元数据，JSON 键与向量库线上格式一一对应。
// 删除按 documentId 元数据等值过滤寻址，记录 id 中的 documentId 只是派生信息。
type RecordMetadata struct {
	TenantID    string `json:"tenantId"`
	DocumentID  string `json:"documentId"`
	ChunkIndex  int    `json:"chunkIndex"`
	TotalChunks int    `json:"totalChunks"`
	SourceText  string `json:"sourceText"`
	Filename    string `json:"filename"`
}

// VectorRecord 待写入的向量记录。ID 确定性生成（filename-documentId-chunkIndex），
// 重复摄取同一文档会覆盖而不是追加。
type VectorRecord struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata RecordMetadata `json:"metadata"`
}

// VectorMatch 相似度查询命中，按 score 降序
type VectorMatch struct {
	ID       string         `json:"id"`
	Score    float32        `json:"score"`
	Metadata RecordMetadata `json:"metadata"`
}

// VectorStore 向量索引客户端。一个实例绑定一个租户的索引地址。
type VectorStore interface {
	// Upsert 整批一次请求写入，返回向量库报告的写入条数
	Upsert(ctx context.Context, records []VectorRecord) (int, error)
	// Query 返回至多 topK 条命中；出错时返回空命中加错误，由调用方决定降级
	Query(ctx context.Context, vector []float32, topK int) ([]VectorMatch, error)
	// DeleteByDocument 按 documentId 等值过滤删除；目标不存在视为成功
	DeleteByDocument(ctx context.Context, documentID string) error
}

// VectorStoreFactory 按租户的索引地址构造客户端，底层连接池共享
type VectorStoreFactory interface {
	New(host string) VectorStore
	Close()
}
