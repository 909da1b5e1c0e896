package service

import (
	"context"
	"testing"

	"DocLink/internal/config"
	"DocLink/internal/modules/user/application/dto/request"
	"DocLink/internal/modules/user/domain/entity"
	"DocLink/pkg/util/myjwt"
	"DocLink/pkg/xerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryUserRepo struct {
	users map[string]*entity.UserInfo
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: map[string]*entity.UserInfo{}}
}

func (r *memoryUserRepo) Create(_ context.Context, user *entity.UserInfo) error {
	r.users[user.Username] = user
	return nil
}

func (r *memoryUserRepo) GetByUsername(_ context.Context, username string) (*entity.UserInfo, error) {
	return r.users[username], nil
}

func (r *memoryUserRepo) GetByUuid(_ context.Context, uuid string) (*entity.UserInfo, error) {
	for _, u := range r.users {
		if u.Uuid == uuid {
			return u, nil
		}
	}
	return nil, nil
}

func setTestJwtKey(t *testing.T) {
	t.Helper()
	conf := config.GetConfig()
	old := conf.JwtConfig.Key
	conf.JwtConfig.Key = "unit-test-jwt-key"
	t.Cleanup(func() { conf.JwtConfig.Key = old })
}

func TestRegisterAndLogin(t *testing.T) {
	setTestJwtKey(t)
	repo := newMemoryUserRepo()
	svc := NewUserInfoService(repo)

	reg, err := svc.Register(context.Background(), request.RegisterRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Uuid)
	assert.NotEmpty(t, reg.Token)

	claims, err := myjwt.ParseToken(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.Uuid, claims.Uuid)
	assert.Equal(t, "alice", claims.Username)

	stored := repo.users["alice"]
	require.NotNil(t, stored)
	assert.NotContains(t, stored.PasswordHash, "password123")
	assert.NotEmpty(t, stored.PasswordSalt)

	login, err := svc.Login(context.Background(), request.LoginRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, reg.Uuid, login.Uuid)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	setTestJwtKey(t)
	svc := NewUserInfoService(newMemoryUserRepo())

	_, err := svc.Register(context.Background(), request.RegisterRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), request.RegisterRequest{Username: "alice", Password: "password456"})
	var codeErr *xerr.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, xerr.BadRequest, codeErr.Code)
}

func TestRegisterShortPassword(t *testing.T) {
	svc := NewUserInfoService(newMemoryUserRepo())

	_, err := svc.Register(context.Background(), request.RegisterRequest{Username: "alice", Password: "short"})
	var codeErr *xerr.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, xerr.BadRequest, codeErr.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	setTestJwtKey(t)
	svc := NewUserInfoService(newMemoryUserRepo())

	_, err := svc.Register(context.Background(), request.RegisterRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	// 用户不存在与密码错误返回同样的提示
	_, err = svc.Login(context.Background(), request.LoginRequest{Username: "alice", Password: "wrong-password"})
	var codeErr *xerr.CodeError
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, xerr.Unauthorized, codeErr.Code)

	_, err2 := svc.Login(context.Background(), request.LoginRequest{Username: "nobody", Password: "whatever"})
	require.ErrorAs(t, err2, &codeErr)
	assert.Equal(t, xerr.Unauthorized, codeErr.Code)
	assert.Equal(t, err.Error(), err2.Error())
}

func TestSaltsAreUnique(t *testing.T) {
	setTestJwtKey(t)
	repo := newMemoryUserRepo()
	svc := NewUserInfoService(repo)

	_, err := svc.Register(context.Background(), request.RegisterRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), request.RegisterRequest{Username: "bob", Password: "password123"})
	require.NoError(t, err)

	// 相同口令在不同盐下必须得到不同哈希
	assert.NotEqual(t, repo.users["alice"].PasswordSalt, repo.users["bob"].PasswordSalt)
	assert.NotEqual(t, repo.users["alice"].PasswordHash, repo.users["bob"].PasswordHash)
}
