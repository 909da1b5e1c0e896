package http

import (
	"DocLink/internal/modules/user/application/dto/request"
	"DocLink/internal/modules/user/application/service"
	"DocLink/pkg/back"
	"DocLink/pkg/xerr"
	"DocLink/pkg/zlog"

	"github.com/gin-gonic/gin"
)

type UserInfoHandler struct {
	svc service.UserInfoService
}

func NewUserInfoHandler(svc service.UserInfoService) *UserInfoHandler {
	return &UserInfoHandler{svc: svc}
}

// Login 路由: POST /login
func (h *UserInfoHandler) Login(c *gin.Context) {
	var loginReq request.LoginRequest
	if err := c.BindJSON(&loginReq); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.Login(c.Request.Context(), loginReq)
	back.Result(c, data, err)
}

// Register 路由: POST /register
func (h *UserInfoHandler) Register(c *gin.Context) {
	var registerReq request.RegisterRequest
	if err := c.BindJSON(&registerReq); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.svc.Register(c.Request.Context(), registerReq)
	back.Result(c, data, err)
}
