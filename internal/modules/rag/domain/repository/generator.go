package repository

import "context"

type GenerateInput struct {
	SystemPrompt    string
	ContextBlock    string
	Question        string
	Temperature     float64
	MaxOutputTokens int
}

// GenerateOutput 生成结果。提供方失败时 Text 为固定兜底话术，
// Failed 置位且 Err 保留错误细节供日志使用，绝不上抛到聊天调用方。
type GenerateOutput struct {
	Text        string
	Failed      bool
	Err         error
	TotalTokens int
}

type Generator interface {
	Generate(ctx context.Context, in GenerateInput) GenerateOutput
}

type GeneratorFactory interface {
	New(apiKey string) Generator
	Close()
}
