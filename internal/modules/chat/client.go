package chat

import (
	"encoding/json"
	"strings"
	"sync"
)

// Event — один кадр протокола канала.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsConn — то, что клиенту нужно от websocket-соединения; интерфейс ради
// тестов без реального апгрейда.
type wsConn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

// Client — авторизованное соединение. Личность и ключ неизменны до разрыва.
type Client struct {
	ID     string
	UserID string
	APIKey string

	conn wsConn
	mu   sync.Mutex // WriteJSON не потокобезопасен
}

// Send сериализует data и шлёт кадр {event, data}.
func (cl *Client) Send(name string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.conn.WriteJSON(Event{Name: name, Data: raw})
}

func (cl *Client) Close() {
	_ = cl.conn.Close()
}

// maskAPIKey прячет тело ключа, оставляя хвост для опознания.
func maskAPIKey(key string) string {
	if len(key) <= 30 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", 30) + key[30:]
}

// Relay — коллаборатор доменных событий канала (сообщения, списки историй).
// Хранение переписки и обращения к AI-провайдеру живут за ним.
type Relay interface {
	OnConnect(cl *Client)
	OnEvent(cl *Client, ev Event)
	OnDisconnect(cl *Client)
}

// NopRelay — заглушка: события канала никуда не уходят.
type NopRelay struct{}

func (NopRelay) OnConnect(*Client)      {}
func (NopRelay) OnEvent(*Client, Event) {}
func (NopRelay) OnDisconnect(*Client)   {}
