package repository

import "context"

// Embedder 文本向量化客户端。一个实例绑定一个租户的凭据。
// 摄取与查询必须使用同一模型与维度，否则检索质量退化为近似随机。
type Embedder interface {
	// EmbedBatch 分批请求；任何一批失败则整体失败，已算出的向量由调用方丢弃
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedOne 查询时的单条便捷方法，维度契约与批量一致
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// EmbedderFactory 按租户凭据构造 Embedder；同一凭据共享限流桶
type EmbedderFactory interface {
	New(apiKey string) Embedder
	Close()
}
