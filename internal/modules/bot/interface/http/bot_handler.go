package http

import (
	"strings"

	"DocLink/internal/modules/bot/application/dto/request"
	"DocLink/internal/modules/bot/application/service"
	"DocLink/pkg/back"
	"DocLink/pkg/xerr"
	"DocLink/pkg/zlog"

	"github.com/gin-gonic/gin"
)

type BotHandler struct {
	botSvc service.BotService
}

func NewBotHandler(botSvc service.BotService) *BotHandler {
	return &BotHandler{botSvc: botSvc}
}

// Create 路由: POST /api/bots
func (h *BotHandler) Create(c *gin.Context) {
	var req request.CreateBotRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	uuid := strings.TrimSpace(c.GetString("uuid"))
	if uuid == "" {
		back.Error(c, xerr.Unauthorized, "未登录")
		return
	}
	data, err := h.botSvc.Create(c.Request.Context(), uuid, req)
	back.Result(c, data, err)
}

// List 路由: GET /api/bots
func (h *BotHandler) List(c *gin.Context) {
	uuid := strings.TrimSpace(c.GetString("uuid"))
	if uuid == "" {
		back.Error(c, xerr.Unauthorized, "未登录")
		return
	}
	data, err := h.botSvc.List(c.Request.Context(), uuid)
	back.Result(c, data, err)
}

// Get 路由: GET /api/bots/:botId
func (h *BotHandler) Get(c *gin.Context) {
	uuid := strings.TrimSpace(c.GetString("uuid"))
	if uuid == "" {
		back.Error(c, xerr.Unauthorized, "未登录")
		return
	}
	data, err := h.botSvc.Get(c.Request.Context(), uuid, c.Param("botId"))
	back.Result(c, data, err)
}

// Update 路由: PUT /api/bots/:botId
func (h *BotHandler) Update(c *gin.Context) {
	var req request.UpdateBotRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	uuid := strings.TrimSpace(c.GetString("uuid"))
	if uuid == "" {
		back.Error(c, xerr.Unauthorized, "未登录")
		return
	}
	data, err := h.botSvc.Update(c.Request.Context(), uuid, c.Param("botId"), req)
	back.Result(c, data, err)
}

// Delete 路由: DELETE /api/bots/:botId
func (h *BotHandler) Delete(c *gin.Context) {
	uuid := strings.TrimSpace(c.GetString("uuid"))
	if uuid == "" {
		back.Error(c, xerr.Unauthorized, "未登录")
		return
	}
	err := h.botSvc.Delete(c.Request.Context(), uuid, c.Param("botId"))
	back.Result(c, nil, err)
}
