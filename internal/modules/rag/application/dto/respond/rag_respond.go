package respond

import (
	"time"

	"DocLink/internal/modules/rag/domain/repository"
)

type UploadRespond struct {
	DocumentUuid string `json:"documentUuid"`
	JobUuid      string `json:"jobUuid"`
}

type DocumentItem struct {
	Uuid       string    `json:"uuid"`
	Filename   string    `json:"filename"`
	ChunkCount int       `json:"chunkCount"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

type JobStatusRespond struct {
	Uuid            string `json:"uuid"`
	DocumentUuid    string `json:"documentUuid"`
	Stage           string `json:"stage"`
	Percent         int    `json:"percent"`
	Message         string `json:"message"`
	VectorsUploaded int    `json:"vectorsUploaded"`
	ErrorMsg        string `json:"errorMsg,omitempty"`
}

type ChatRespond struct {
	SessionID      string `json:"sessionId"`
	Answer         string `json:"answer"`
	ContextUsed    bool   `json:"contextUsed"`
	ResponseTimeMs int64  `json:"responseTimeMs"`
	Failed         bool   `json:"failed"`
}

type SessionHistoryRespond struct {
	SessionID string                   `json:"sessionId"`
	Messages  []repository.ChatMessage `json:"messages"`
}
