package respond

import "time"

// BotItem 对外展示的机器人信息，加密凭据绝不回传
type BotItem struct {
	Uuid         string    `json:"uuid"`
	Name         string    `json:"name"`
	BotType      string    `json:"botType"`
	Status       string    `json:"status"`
	VectorHost   string    `json:"vectorHost"`
	IndexName    string    `json:"indexName"`
	SystemPrompt string    `json:"systemPrompt"`
	Temperature  float64   `json:"temperature"`
	MaxTokens    int       `json:"maxTokens"`
	CreatedAt    time.Time `json:"createdAt"`
}
