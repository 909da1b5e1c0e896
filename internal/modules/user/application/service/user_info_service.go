package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"DocLink/internal/modules/user/application/dto/request"
	"DocLink/internal/modules/user/application/dto/respond"
	"DocLink/internal/modules/user/domain/entity"
	"DocLink/internal/modules/user/domain/repository"
	"DocLink/pkg/util"
	"DocLink/pkg/util/myjwt"
	"DocLink/pkg/xerr"
	"DocLink/pkg/zlog"

	"go.uber.org/zap"
)

type UserInfoService interface {
	Register(ctx context.Context, req request.RegisterRequest) (*respond.LoginRespond, error)
	Login(ctx context.Context, req request.LoginRequest) (*respond.LoginRespond, error)
}

type userInfoServiceImpl struct {
	repo repository.UserInfoRepository
}

func NewUserInfoService(repo repository.UserInfoRepository) UserInfoService {
	return &userInfoServiceImpl{repo: repo}
}

func (u *userInfoServiceImpl) Register(ctx context.Context, req request.RegisterRequest) (*respond.LoginRespond, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || len(req.Password) < 8 {
		return nil, xerr.New(xerr.BadRequest, xerr.ErrParam.Message)
	}

	existing, err := u.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, xerr.New(xerr.BadRequest, "用户已存在")
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	saltHex := hex.EncodeToString(salt)

	now := time.Now()
	newUser := &entity.UserInfo{
		Uuid:         util.GenerateUUID(),
		Username:     username,
		PasswordHash: hashPassword(req.Password, saltHex),
		PasswordSalt: saltHex,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.repo.Create(ctx, newUser); err != nil {
		zlog.Error(err.Error())
		return nil, err
	}

	zlog.Info("user registered", zap.String("uuid", newUser.Uuid), zap.String("username", username))
	return u.issueToken(newUser)
}

func (u *userInfoServiceImpl) Login(ctx context.Context, req request.LoginRequest) (*respond.LoginRespond, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, xerr.New(xerr.BadRequest, xerr.ErrParam.Message)
	}

	user, err := u.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, xerr.New(xerr.Unauthorized, "用户名或密码错误")
	}

	got := hashPassword(req.Password, user.PasswordSalt)
	if subtle.ConstantTimeCompare([]byte(got), []byte(user.PasswordHash)) != 1 {
		return nil, xerr.New(xerr.Unauthorized, "用户名或密码错误")
	}
	return u.issueToken(user)
}

func (u *userInfoServiceImpl) issueToken(user *entity.UserInfo) (*respond.LoginRespond, error) {
	token, err := myjwt.GenerateToken(user.Uuid, user.Username)
	if err != nil {
		return nil, err
	}
	return &respond.LoginRespond{Uuid: user.Uuid, Username: user.Username, Token: token}, nil
}

func hashPassword(password, saltHex string) string {
	sum := sha256.Sum256([]byte(saltHex + ":" + password))
	return hex.EncodeToString(sum[:])
}
