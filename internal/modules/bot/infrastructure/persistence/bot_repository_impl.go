package persistence

import (
	"context"
	"errors"
	"time"

	"DocLink/internal/modules/bot/domain/entity"
	"DocLink/internal/modules/bot/domain/repository"

	"gorm.io/gorm"
)

type botRepoImpl struct {
	db *gorm.DB
}

func NewBotRepository(db *gorm.DB) repository.BotRepository {
	return &botRepoImpl{db: db}
}

func (r *botRepoImpl) Create(ctx context.Context, bot *entity.Bot) error {
	return r.db.WithContext(ctx).Create(bot).Error
}

func (r *botRepoImpl) GetByUuid(ctx context.Context, uuid string) (*entity.Bot, error) {
	var bot entity.Bot
	err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&bot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bot, nil
}

func (r *botRepoImpl) ListByOwner(ctx context.Context, ownerUserId string) ([]entity.Bot, error) {
	var bots []entity.Bot
	err := r.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerUserId).
		Order("created_at DESC").
		Find(&bots).Error
	return bots, err
}

func (r *botRepoImpl) Update(ctx context.Context, bot *entity.Bot) error {
	bot.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(bot).Error
}

func (r *botRepoImpl) Delete(ctx context.Context, uuid string) error {
	return r.db.WithContext(ctx).Where("uuid = ?", uuid).Delete(&entity.Bot{}).Error
}
