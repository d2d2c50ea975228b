package chat

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"gemchat/internal/modules/auth/domain"
	phttp "gemchat/internal/platform/http"
	"gemchat/internal/platform/security"
)

type Module struct {
	sessions *security.SessionManager
	users    domain.UserRepo
	hub      *Hub
	relay    Relay
}

func NewModule(sessions *security.SessionManager, users domain.UserRepo, relay Relay) *Module {
	if relay == nil {
		relay = NopRelay{}
	}
	return &Module{
		sessions: sessions,
		users:    users,
		hub:      NewHub(),
		relay:    relay,
	}
}

// Hub отдаёт реестр соединений (auth-модуль закрывает каналы на logout).
func (m *Module) Hub() *Hub { return m.hub }

func (m *Module) Register(r fiber.Router) {
	r.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	r.Get("/ws", websocket.New(m.serve))
}

func (m *Module) serve(conn *websocket.Conn) {
	defer conn.Close()

	// рукопожатие: одна проверка куки на всё соединение
	b, err := Authorize(m.sessions, m.users, conn.Cookies(phttp.SessionCookie))
	if err != nil {
		cl := &Client{conn: conn}
		_ = cl.Send("notice", rejectNotice(err))
		_ = cl.Send("redirect", "/login.html")
		return
	}

	cl := &Client{
		ID:     uuid.New().String(),
		UserID: b.UserID,
		APIKey: b.APIKey,
		conn:   conn,
	}
	m.hub.add(cl)
	defer func() {
		m.hub.remove(cl)
		m.relay.OnDisconnect(cl)
	}()

	if cl.UserID != "" {
		if cl.APIKey != "" {
			_ = cl.Send("apikey", maskAPIKey(cl.APIKey))
		} else {
			_ = cl.Send("notice", "Не настроен API_KEY, добавьте его в настройках")
		}
	}
	log.Printf("channel open: conn=%s user=%q", cl.ID, cl.UserID)
	m.relay.OnConnect(cl)

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			return
		}
		switch ev.Name {
		case "updateApiKey":
			m.updateAPIKey(cl, ev.Data)
		default:
			m.relay.OnEvent(cl, ev)
		}
	}
}

func (m *Module) updateAPIKey(cl *Client, data json.RawMessage) {
	if cl.UserID == "" {
		_ = cl.Send("notice", "API_KEY недоступен в этом режиме")
		return
	}
	var key string
	if err := json.Unmarshal(data, &key); err != nil {
		_ = cl.Send("notice", "Некорректный API_KEY")
		return
	}
	key = strings.TrimSpace(key)
	if err := m.users.UpdateAPIKey(cl.UserID, key); err != nil {
		log.Printf("update api key for user %s failed: %v", cl.UserID, err)
		_ = cl.Send("notice", "Не удалось сохранить API_KEY")
		return
	}
	cl.APIKey = key
	_ = cl.Send("apikey", maskAPIKey(key))
	_ = cl.Send("notice", "API_KEY сохранён")
}
