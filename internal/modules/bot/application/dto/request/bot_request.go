package request

type CreateBotRequest struct {
	Name          string  `json:"name" binding:"required"`
	BotType       string  `json:"botType"`
	VectorHost    string  `json:"vectorHost" binding:"required"`
	IndexName     string  `json:"indexName"`
	EmbeddingKey  string  `json:"embeddingKey" binding:"required"`
	GenerationKey string  `json:"generationKey" binding:"required"`
	SystemPrompt  string  `json:"systemPrompt"`
	Temperature   float64 `json:"temperature"`
	MaxTokens     int     `json:"maxTokens"`
}

type UpdateBotRequest struct {
	Name          string   `json:"name"`
	Status        string   `json:"status"`
	VectorHost    string   `json:"vectorHost"`
	IndexName     string   `json:"indexName"`
	EmbeddingKey  string   `json:"embeddingKey"`
	GenerationKey string   `json:"generationKey"`
	SystemPrompt  *string  `json:"systemPrompt"`
	Temperature   *float64 `json:"temperature"`
	MaxTokens     *int     `json:"maxTokens"`
}
