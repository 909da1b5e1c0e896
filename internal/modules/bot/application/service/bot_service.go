package service

import (
	"context"
	"strings"
	"time"

	"DocLink/internal/modules/bot/application/dto/request"
	"DocLink/internal/modules/bot/application/dto/respond"
	"DocLink/internal/modules/bot/domain/entity"
	botRepo "DocLink/internal/modules/bot/domain/repository"
	ragRepo "DocLink/internal/modules/rag/domain/repository"
	"DocLink/pkg/util"
	"DocLink/pkg/vault"
	"DocLink/pkg/xerr"
	"DocLink/pkg/zlog"

	"go.uber.org/zap"
)

type BotService interface {
	Create(ctx context.Context, ownerUserId string, req request.CreateBotRequest) (*respond.BotItem, error)
	Get(ctx context.Context, ownerUserId, botUuid string) (*respond.BotItem, error)
	GetOwned(ctx context.Context, ownerUserId, botUuid string) (*entity.Bot, error)
	List(ctx context.Context, ownerUserId string) ([]respond.BotItem, error)
	Update(ctx context.Context, ownerUserId, botUuid string, req request.UpdateBotRequest) (*respond.BotItem, error)
	Delete(ctx context.Context, ownerUserId, botUuid string) error
}

type botService struct {
	bots      botRepo.BotRepository
	docs      ragRepo.DocumentRepository
	stores    ragRepo.VectorStoreFactory
	masterKey []byte
}

func NewBotService(bots botRepo.BotRepository, docs ragRepo.DocumentRepository, stores ragRepo.VectorStoreFactory, masterKey []byte) BotService {
	return &botService{bots: bots, docs: docs, stores: stores, masterKey: masterKey}
}

var validBotTypes = map[string]bool{
	entity.BotTypeSupport: true,
	entity.BotTypeSales:   true,
	entity.BotTypeFAQ:     true,
	entity.BotTypeGeneral: true,
}

func (s *botService) Create(ctx context.Context, ownerUserId string, req request.CreateBotRequest) (*respond.BotItem, error) {
	name := strings.TrimSpace(req.Name)
	host := strings.TrimSpace(req.VectorHost)
	if name == "" || host == "" {
		return nil, xerr.New(xerr.BadRequest, xerr.ErrParam.Message)
	}
	botType := strings.TrimSpace(req.BotType)
	if botType == "" {
		botType = entity.BotTypeGeneral
	}
	if !validBotTypes[botType] {
		return nil, xerr.New(xerr.BadRequest, "unknown bot type")
	}

	encEmbed, err := vault.Encrypt(strings.TrimSpace(req.EmbeddingKey), s.masterKey)
	if err != nil {
		return nil, err
	}
	encGen, err := vault.Encrypt(strings.TrimSpace(req.GenerationKey), s.masterKey)
	if err != nil {
		return nil, err
	}

	temperature := req.Temperature
	if temperature <= 0 || temperature > 2 {
		temperature = 0.7
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	now := time.Now()
	bot := &entity.Bot{
		Uuid:                   util.GenerateUUID(),
		OwnerUserId:            ownerUserId,
		Name:                   name,
		BotType:                botType,
		Status:                 entity.BotStatusActive,
		VectorHost:             host,
		IndexName:              strings.TrimSpace(req.IndexName),
		EncryptedEmbeddingKey:  encEmbed,
		EncryptedGenerationKey: encGen,
		SystemPrompt:           strings.TrimSpace(req.SystemPrompt),
		Temperature:            temperature,
		MaxTokens:              maxTokens,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := s.bots.Create(ctx, bot); err != nil {
		return nil, err
	}

	zlog.Info("bot created", zap.String("bot_uuid", bot.Uuid), zap.String("owner", ownerUserId))
	return toBotItem(bot), nil
}

// GetOwned 校验归属后返回完整实体，供其他服务取加密凭据与索引地址
func (s *botService) GetOwned(ctx context.Context, ownerUserId, botUuid string) (*entity.Bot, error) {
	bot, err := s.bots.GetByUuid(ctx, strings.TrimSpace(botUuid))
	if err != nil {
		return nil, err
	}
	if bot == nil || bot.OwnerUserId != ownerUserId {
		return nil, xerr.New(xerr.NotFound, xerr.ErrNotFound.Message)
	}
	return bot, nil
}

func (s *botService) Get(ctx context.Context, ownerUserId, botUuid string) (*respond.BotItem, error) {
	bot, err := s.GetOwned(ctx, ownerUserId, botUuid)
	if err != nil {
		return nil, err
	}
	return toBotItem(bot), nil
}

func (s *botService) List(ctx context.Context, ownerUserId string) ([]respond.BotItem, error) {
	bots, err := s.bots.ListByOwner(ctx, ownerUserId)
	if err != nil {
		return nil, err
	}
	items := make([]respond.BotItem, 0, len(bots))
	for i := range bots {
		items = append(items, *toBotItem(&bots[i]))
	}
	return items, nil
}

func (s *botService) Update(ctx context.Context, ownerUserId, botUuid string, req request.UpdateBotRequest) (*respond.BotItem, error) {
	bot, err := s.GetOwned(ctx, ownerUserId, botUuid)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		bot.Name = name
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		if status != entity.BotStatusActive && status != entity.BotStatusPaused {
			return nil, xerr.New(xerr.BadRequest, "unknown bot status")
		}
		bot.Status = status
	}
	if host := strings.TrimSpace(req.VectorHost); host != "" {
		bot.VectorHost = host
	}
	if idx := strings.TrimSpace(req.IndexName); idx != "" {
		bot.IndexName = idx
	}
	if key := strings.TrimSpace(req.EmbeddingKey); key != "" {
		enc, err := vault.Encrypt(key, s.masterKey)
		if err != nil {
			return nil, err
		}
		bot.EncryptedEmbeddingKey = enc
	}
	if key := strings.TrimSpace(req.GenerationKey); key != "" {
		enc, err := vault.Encrypt(key, s.masterKey)
		if err != nil {
			return nil, err
		}
		bot.EncryptedGenerationKey = enc
	}
	if req.SystemPrompt != nil {
		bot.SystemPrompt = strings.TrimSpace(*req.SystemPrompt)
	}
	if req.Temperature != nil && *req.Temperature > 0 && *req.Temperature <= 2 {
		bot.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		bot.MaxTokens = *req.MaxTokens
	}

	if err := s.bots.Update(ctx, bot); err != nil {
		return nil, err
	}
	return toBotItem(bot), nil
}

// Delete 删除机器人前先清空其全部文档：向量按 documentId 过滤删除，
// 再删文档行。任何一步失败都中断，机器人记录保留以便重试。
func (s *botService) Delete(ctx context.Context, ownerUserId, botUuid string) error {
	bot, err := s.GetOwned(ctx, ownerUserId, botUuid)
	if err != nil {
		return err
	}

	docs, err := s.docs.ListByBot(ctx, bot.Uuid)
	if err != nil {
		return err
	}
	if len(docs) > 0 {
		store := s.stores.New(bot.VectorHost)
		for i := range docs {
			if err := store.DeleteByDocument(ctx, docs[i].Uuid); err != nil {
				return err
			}
			if err := s.docs.Delete(ctx, docs[i].Uuid); err != nil {
				return err
			}
		}
	}

	if err := s.bots.Delete(ctx, bot.Uuid); err != nil {
		return err
	}
	zlog.Info("bot deleted", zap.String("bot_uuid", bot.Uuid), zap.Int("documents_purged", len(docs)))
	return nil
}

func toBotItem(bot *entity.Bot) *respond.BotItem {
	return &respond.BotItem{
		Uuid:         bot.Uuid,
		Name:         bot.Name,
		BotType:      bot.BotType,
		Status:       bot.Status,
		VectorHost:   bot.VectorHost,
		IndexName:    bot.IndexName,
		SystemPrompt: bot.SystemPrompt,
		Temperature:  bot.Temperature,
		MaxTokens:    bot.MaxTokens,
		CreatedAt:    bot.CreatedAt,
	}
}
