package http

import (
	"net/http"
	"strings"
	"time"

	"DocLink/pkg/util/myjwt"
	"DocLink/pkg/ws"
	"DocLink/pkg/zlog"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ProgressWsHandler 控制台摄取进度推送连接。
// 浏览器原生 WebSocket 无法自定义 Header，token 走 URL 参数手动校验。
type ProgressWsHandler struct {
	hub *ws.Hub
}

func NewProgressWsHandler(hub *ws.Hub) *ProgressWsHandler {
	return &ProgressWsHandler{hub: hub}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Connect 路由: GET /api/ws?token=xxx
// 连接只做下行推送，上行数据仅用于保活
func (h *ProgressWsHandler) Connect(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	claims, err := myjwt.ParseToken(token)
	if err != nil || claims == nil || claims.Uuid == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zlog.Error(err.Error())
		return
	}

	client := ws.NewClient(claims.Uuid, conn)
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go client.WritePump()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	}
}
