package http

import (
	"strings"

	"DocLink/internal/modules/rag/application/dto/request"
	"DocLink/internal/modules/rag/application/service"
	"DocLink/pkg/back"
	"DocLink/pkg/xerr"
	"DocLink/pkg/zlog"

	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	docSvc service.DocumentService
}

func NewDocumentHandler(docSvc service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docSvc: docSvc}
}

// Upload 路由: POST /api/bots/:botId/documents
// 接口立即返回 documentUuid/jobUuid，摄取异步进行，进度走任务查询或 ws
func (h *DocumentHandler) Upload(c *gin.Context) {
	var req request.UploadDocumentRequest
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
	data, err := h.docSvc.Upload(c.Request.Context(), uuid, c.Param("botId"), req)
	back.Result(c, data, err)
}

// List 路由: GET /api/bots/:botId/documents
func (h *DocumentHandler) List(c *gin.Context) {
	uuid := strings.TrimSpace(c.GetString("uuid"))
	if uuid == "" {
		back.Error(c, xerr.Unauthorized, "未登录")
		return
	}
	data, err := h.docSvc.List(c.Request.Context(), uuid, c.Param("botId"))
	back.Result(c, data, err)
}

// Delete 路由: DELETE /api/bots/:botId/documents/:documentId
func (h *DocumentHandler) Delete(c *gin.Context) {
	uuid := strings.TrimSpace(c.GetString("uuid"))
	if uuid == "" {
		back.Error(c, xerr.Unauthorized, "未登录")
		return
	}
	err := h.docSvc.Delete(c.Request.Context(), uuid, c.Param("botId"), c.Param("documentId"))
	back.Result(c, nil, err)
}
