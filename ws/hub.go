package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

type Client struct {
	CourseID uint
	UserID   uint
	Send     chan []byte
	conn     *websocket.Conn
}

// Hub keeps one room of live connections per course.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*Client]struct{}
	log   *utils.Logger
}

func NewHub(log *utils.Logger) *Hub {
	if log == nil {
		log = utils.NopLogger()
	}
	return &Hub{rooms: make(map[uint]map[*Client]struct{}), log: log.With("service", "ChatHub")}
}

// ChatEvent is the frame pushed to subscribers.
type ChatEvent struct {
	Type    string                   `json:"type"`
	Message services.ChatMessageView `json:"message"`
}

func (h *Hub) Register(courseID, userID uint, conn *websocket.Conn) *Client {
	client := &Client{
		CourseID: courseID,
		UserID:   userID,
		Send:     make(chan []byte, sendBuffer),
		conn:     conn,
	}
	h.mu.Lock()
	room, ok := h.rooms[courseID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[courseID] = room
	}
	room[client] = struct{}{}
	h.mu.Unlock()
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[client.CourseID]
	if !ok {
		return
	}
	if _, ok := room[client]; ok {
		delete(room, client)
		close(client.Send)
	}
	if len(room) == 0 {
		delete(h.rooms, client.CourseID)
	}
}

// Broadcast delivers msg to every client in its course room. isOwn is set
// per recipient. Slow clients drop frames instead of blocking the room.
func (h *Hub) Broadcast(msg services.ChatMessageView) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[msg.CourseID] {
		event := ChatEvent{Type: "chat_message", Message: msg}
		event.Message.IsOwn = msg.UserID == client.UserID
		data, err := json.Marshal(event)
		if err != nil {
			h.log.Error("marshal chat event", "error", err)
			return
		}
		select {
		case client.Send <- data:
		default:
			h.log.Warn("dropping chat frame for slow client", "course_id", msg.CourseID)
		}
	}
}

// PublishChat makes the hub usable directly as the single-instance publisher.
func (h *Hub) PublishChat(_ context.Context, msg services.ChatMessageView) error {
	h.Broadcast(msg)
	return nil
}

type Stats struct {
	Rooms   int `json:"rooms"`
	Clients int `json:"clients"`
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s := Stats{Rooms: len(h.rooms)}
	for _, room := range h.rooms {
		s.Clients += len(room)
	}
	return s
}

// readPump drains the connection so pongs and close frames are processed.
// Clients do not send chat over the socket; they POST instead.
func (h *Hub) readPump(client *Client) {
	defer func() {
		h.Unregister(client)
		client.conn.Close()
	}()
	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-client.Send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func jsonFrame(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}
