package websocket

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/ujjwalcurry30/Task-Tracker/internal/models"
	"github.com/ujjwalcurry30/Task-Tracker/internal/taskquery"
	"github.com/ujjwalcurry30/Task-Tracker/pkg/logger"
)

// Event types yang dikirim ke client.
const (
	EventTaskCreated = "task.created"
	EventTaskUpdated = "task.updated"
	EventTaskDeleted = "task.deleted"
)

type TaskEvent struct {
	Type string      `json:"type"`
	Task models.Task `json:"task"`
}

// Client merepresentasikan satu koneksi WebSocket milik satu user.
type Client struct {
	Conn   *websocket.Conn
	UserID int
	Mu     sync.Mutex
}

// Hub mengelola koneksi WebSocket dan pengiriman task event. Event hanya
// dikirim ke client yang berhak melihat task-nya (owner atau assignee) —
// aturan visibility yang sama dengan query filter.
type Hub struct {
	Clients    map[*Client]bool
	Events     chan TaskEvent
	Register   chan *Client
	Unregister chan *Client
}

// NewHub membuat instance Hub baru.
func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Events:     make(chan TaskEvent, 16),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Notify menyiarkan satu task event; non-blocking untuk request handler.
// Aman dipanggil pada hub nil (mis. di test handler tanpa WebSocket).
func (h *Hub) Notify(eventType string, task models.Task) {
	if h == nil {
		return
	}
	select {
	case h.Events <- TaskEvent{Type: eventType, Task: task}:
	default:
		logger.SystemLogger.Warn("Event channel full, dropping task event",
			zap.String("type", eventType), zap.Int("task_id", task.ID))
	}
}

// Run menjalankan loop Hub untuk mengelola register, unregister, dan event.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.Clients[client] = true
		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				client.Conn.Close()
			}
		case event := <-h.Events:
			message, err := json.Marshal(event)
			if err != nil {
				logger.ErrorLogger.Error("Error encoding task event", zap.Error(err))
				continue
			}
			for client := range h.Clients {
				if !taskquery.VisibleTo(client.UserID).Matches(event.Task) {
					continue
				}
				client.Mu.Lock()
				err := client.Conn.WriteMessage(websocket.TextMessage, message)
				client.Mu.Unlock()
				if err != nil {
					delete(h.Clients, client)
					client.Conn.Close()
				}
			}
		}
	}
}
