package repository

import (
	"context"

	"DocLink/internal/modules/bot/domain/entity"
)

type BotRepository interface {
	Create(ctx context.Context, bot *entity.Bot) error
	GetByUuid(ctx context.Context, uuid string) (*entity.Bot, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]entity.Bot, error)
	Update(ctx context.Context, bot *entity.Bot) error
	Delete(ctx context.Context, uuid string) error
}
