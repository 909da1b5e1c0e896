package repository

import (
	"context"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type MessageMetadata struct {
	ContextUsed    bool  `json:"contextUsed"`
	ResponseTimeMs int64 `json:"responseTimeMs"`
}

type ChatMessage struct {
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
	Metadata  MessageMetadata `json:"metadata"`
}

// SessionStore 会话历史按 (botUuid, sessionId) 寻址，带 TTL 滚动续期
type SessionStore interface {
	Append(ctx context.Context, botUuid, sessionID string, msgs ...ChatMessage) error
	History(ctx context.Context, botUuid, sessionID string) ([]ChatMessage, error)
}
