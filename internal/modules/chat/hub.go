package chat

import (
	"sync"
)

// Hub — реестр открытых соединений по пользователям. Нужен для активного
// отзыва: logout закрывает каналы владельца сессии.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*Client            // connID -> client
	byUser  map[string]map[string]*Client // userID -> connID -> client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		byUser:  make(map[string]map[string]*Client),
	}
}

func (h *Hub) add(cl *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[cl.ID] = cl
	if cl.UserID != "" {
		if h.byUser[cl.UserID] == nil {
			h.byUser[cl.UserID] = make(map[string]*Client)
		}
		h.byUser[cl.UserID][cl.ID] = cl
	}
}

func (h *Hub) remove(cl *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, cl.ID)
	if cl.UserID != "" {
		if conns := h.byUser[cl.UserID]; conns != nil {
			delete(conns, cl.ID)
			if len(conns) == 0 {
				delete(h.byUser, cl.UserID)
			}
		}
	}
}

// CloseUser закрывает все открытые каналы пользователя и возвращает их число.
func (h *Hub) CloseUser(userID string) int {
	h.mu.Lock()
	var targets []*Client
	for _, cl := range h.byUser[userID] {
		targets = append(targets, cl)
	}
	h.mu.Unlock()

	for _, cl := range targets {
		_ = cl.Send("notice", "Сессия завершена")
		cl.Close()
	}
	return len(targets)
}

// Len — текущее число соединений.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
