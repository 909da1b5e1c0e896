package http

import (
	"strings"

	"DocLink/internal/modules/rag/application/service"
	"DocLink/pkg/back"
	"DocLink/pkg/xerr"

	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	jobSvc service.JobService
}

func NewJobHandler(jobSvc service.JobService) *JobHandler {
	return &JobHandler{jobSvc: jobSvc}
}

// Get 路由: GET /api/jobs/:jobId
// 摄取进度的权威查询入口，ws 推送只是锦上添花
func (h *JobHandler) Get(c *gin.Context) {
	uuid := strings.TrimSpace(c.GetString("uuid"))
	if uuid == "" {
		back.Error(c, xerr.Unauthorized, "未登录")
		return
	}
	data, err := h.jobSvc.Get(c.Request.Context(), uuid, c.Param("jobId"))
	back.Result(c, data, err)
}
