package ws

import (
	"encoding/json"
	"sync"
	"time"

	"DocLink/pkg/zlog"

	"github.com/gorilla/websocket"
)

// ProgressFrame 推送给控制台的摄取进度帧
type ProgressFrame struct {
	JobID      string `json:"job_id"`
	DocumentID string `json:"document_id"`
	Stage      string `json:"stage"`
	Percent    int    `json:"percent"`
	Message    string `json:"message"`
}

// Hub 按租户用户维度管理 WebSocket 连接，用于摄取进度实时推送。
// 推送是尽力而为的：轮询接口才是进度的权威来源。
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	if c == nil || c.userID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.userID]
	if set == nil {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) Unregister(c *Client) {
	if c == nil || c.userID == "" {
		return
	}
	h.mu.Lock()
	set := h.clients[c.userID]
	if set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()
	c.Close()
}

// PushProgress 将进度帧推送给指定用户的全部在线连接。
// 没有在线连接或序列化失败时静默丢弃。
func (h *Hub) PushProgress(userID string, frame ProgressFrame) {
	b, err := json.Marshal(frame)
	if err != nil {
		return
	}
	h.send(userID, b)
}

func (h *Hub) send(userID string, payload []byte) {
	if userID == "" || len(payload) == 0 {
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if c == nil {
			continue
		}
		select {
		case <-c.done:
		case c.send <- payload:
		default:
			// 发送缓冲满视为连接已死
			h.Unregister(c)
		}
	}
}

// Client 的 send 通道永不关闭，关闭信号走 done 通道。
// 推送方与 Unregister 并发时向已关闭通道发送会 panic，done 避开这条路径。
type Client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}

	closeOnce sync.Once
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, 64),
		done:   make(chan struct{}),
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) WritePump() {
	if c.conn == nil {
		return
	}
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				zlog.Error(err.Error())
				return
			}
		}
	}
}
