package repository

import (
	"context"

	"DocLink/internal/modules/user/domain/entity"
)

type UserInfoRepository interface {
	Create(ctx context.Context, user *entity.UserInfo) error
	GetByUsername(ctx context.Context, username string) (*entity.UserInfo, error)
	GetByUuid(ctx context.Context, uuid string) (*entity.UserInfo, error)
}
