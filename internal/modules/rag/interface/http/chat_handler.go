package http

import (
	"DocLink/internal/modules/rag/application/dto/request"
	"DocLink/internal/modules/rag/application/service"
	"DocLink/pkg/back"
	"DocLink/pkg/xerr"
	"DocLink/pkg/zlog"

	"github.com/gin-gonic/gin"
)

// ChatHandler 嵌入式挂件的公开问答接口，不走控制台 JWT，
// 以机器人 uuid 作为访问凭证，激活状态在服务层校验。
type ChatHandler struct {
	chatSvc service.ChatService
}

func NewChatHandler(chatSvc service.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// Chat 路由: POST /widget/:botId/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req request.ChatRequest
	if err := c.BindJSON(&req); err != nil {
		zlog.Error(err.Error())
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	data, err := h.chatSvc.Chat(c.Request.Context(), c.Param("botId"), req)
	back.Result(c, data, err)
}

// History 路由: GET /widget/:botId/sessions/:sessionId
func (h *ChatHandler) History(c *gin.Context) {
	data, err := h.chatSvc.History(c.Request.Context(), c.Param("botId"), c.Param("sessionId"))
	back.Result(c, data, err)
}
