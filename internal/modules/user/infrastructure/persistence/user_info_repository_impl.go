package persistence

import (
	"context"
	"errors"

	"DocLink/internal/modules/user/domain/entity"
	"DocLink/internal/modules/user/domain/repository"

	"gorm.io/gorm"
)

type userInfoRepoImpl struct {
	db *gorm.DB
}

func NewUserInfoRepository(db *gorm.DB) repository.UserInfoRepository {
	return &userInfoRepoImpl{db: db}
}

func (r *userInfoRepoImpl) Create(ctx context.Context, user *entity.UserInfo) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userInfoRepoImpl) GetByUsername(ctx context.Context, username string) (*entity.UserInfo, error) {
	var user entity.UserInfo
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userInfoRepoImpl) GetByUuid(ctx context.Context, uuid string) (*entity.UserInfo, error) {
	var user entity.UserInfo
	err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
