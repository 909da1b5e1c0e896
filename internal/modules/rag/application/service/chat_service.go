package service

import (
	"context"
	"strings"
	"time"

	botRepo "DocLink/internal/modules/bot/domain/repository"
	"DocLink/internal/modules/rag/application/dto/request"
	"DocLink/internal/modules/rag/application/dto/respond"
	"DocLink/internal/modules/rag/domain/repository"
	"DocLink/internal/modules/rag/infrastructure/llm"
	"DocLink/internal/modules/rag/infrastructure/pipeline"
	"DocLink/pkg/util"
	"DocLink/pkg/vault"
	"DocLink/pkg/xerr"
	"DocLink/pkg/zlog"

	"go.uber.org/zap"
)

type ChatService interface {
	Chat(ctx context.Context, botUuid string, req request.ChatRequest) (*respond.ChatRespond, error)
	History(ctx context.Context, botUuid, sessionID string) (*respond.SessionHistoryRespond, error)
}

type chatService struct {
	bots            botRepo.BotRepository
	embedderFactory repository.EmbedderFactory
	storeFactory    repository.VectorStoreFactory
	genFactory      repository.GeneratorFactory
	retriever       *pipeline.RetrievePipeline
	sessions        repository.SessionStore
	masterKey       []byte
}

func NewChatService(
	bots botRepo.BotRepository,
	embedderFactory repository.EmbedderFactory,
	storeFactory repository.VectorStoreFactory,
	genFactory repository.GeneratorFactory,
	retriever *pipeline.RetrievePipeline,
	sessions repository.SessionStore,
	masterKey []byte,
) ChatService {
	return &chatService{
		bots:            bots,
		embedderFactory: embedderFactory,
		storeFactory:    storeFactory,
		genFactory:      genFactory,
		retriever:       retriever,
		sessions:        sessions,
		masterKey:       masterKey,
	}
}

// Chat 结构性错误（机器人不存在/未激活、参数缺失、凭据不可用）直接报错；
// 外部服务故障一律降级，聊天回合始终产出可见文本。
func (s *chatService) Chat(ctx context.Context, botUuid string, req request.ChatRequest) (*respond.ChatRespond, error) {
	start := time.Now()
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, xerr.New(xerr.BadRequest, xerr.ErrParam.Message)
	}

	bot, err := s.bots.GetByUuid(ctx, strings.TrimSpace(botUuid))
	if err != nil {
		return nil, err
	}
	if bot == nil {
		return nil, xerr.New(xerr.NotFound, xerr.ErrNotFound.Message)
	}
	if !bot.IsActive() {
		return nil, xerr.New(xerr.Forbidden, xerr.ErrBotInactive.Message)
	}

	embeddingKey, err := vault.Decrypt(bot.EncryptedEmbeddingKey, s.masterKey)
	if err != nil {
		return nil, err
	}
	generationKey, err := vault.Decrypt(bot.EncryptedGenerationKey, s.masterKey)
	if err != nil {
		return nil, err
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = util.GenerateUUID()
	}

	embedder := s.embedderFactory.New(embeddingKey)
	store := s.storeFactory.New(bot.VectorHost)
	ret := s.retriever.Retrieve(ctx, pipeline.RetrieveRequest{Question: message, TopK: req.TopK}, embedder, store)

	generator := s.genFactory.New(generationKey)
	out := generator.Generate(ctx, repository.GenerateInput{
		SystemPrompt:    llm.SystemPromptFor(bot.BotType, bot.SystemPrompt),
		ContextBlock:    ret.ContextBlock,
		Question:        message,
		Temperature:     bot.Temperature,
		MaxOutputTokens: bot.MaxTokens,
	})

	elapsed := time.Since(start).Milliseconds()
	now := time.Now()
	meta := repository.MessageMetadata{ContextUsed: ret.ContextUsed, ResponseTimeMs: elapsed}
	if err := s.sessions.Append(ctx, bot.Uuid, sessionID,
		repository.ChatMessage{Role: repository.RoleUser, Content: message, Timestamp: now},
		repository.ChatMessage{Role: repository.RoleAssistant, Content: out.Text, Timestamp: now, Metadata: meta},
	); err != nil {
		// 会话落库失败不影响已生成的回答
		zlog.Warn("chat session append failed", zap.String("bot_uuid", bot.Uuid), zap.Error(err))
	}

	if out.Failed {
		zlog.Warn("chat generation degraded",
			zap.String("bot_uuid", bot.Uuid),
			zap.String("session_id", sessionID),
			zap.Error(out.Err))
	}

	return &respond.ChatRespond{
		SessionID:      sessionID,
		Answer:         out.Text,
		ContextUsed:    ret.ContextUsed,
		ResponseTimeMs: elapsed,
		Failed:         out.Failed,
	}, nil
}

func (s *chatService) History(ctx context.Context, botUuid, sessionID string) (*respond.SessionHistoryRespond, error) {
	botUuid = strings.TrimSpace(botUuid)
	sessionID = strings.TrimSpace(sessionID)
	if botUuid == "" || sessionID == "" {
		return nil, xerr.New(xerr.BadRequest, xerr.ErrParam.Message)
	}
	bot, err := s.bots.GetByUuid(ctx, botUuid)
	if err != nil {
		return nil, err
	}
	if bot == nil {
		return nil, xerr.New(xerr.NotFound, xerr.ErrNotFound.Message)
	}

	msgs, err := s.sessions.History(ctx, bot.Uuid, sessionID)
	if err != nil {
		return nil, err
	}
	return &respond.SessionHistoryRespond{SessionID: sessionID, Messages: msgs}, nil
}
