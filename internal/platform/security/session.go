package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity — полезная нагрузка сессионной куки. Булев шлюз — это просто
// Authenticated=true без UserID; многопользовательский вариант несёт sub.
type Identity struct {
	Authenticated bool
	UserID        string
}

type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL возвращает срок жизни сессии (нужен транспорту для Max-Age куки).
func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Issue выпускает подписанный токен на полный срок сессии.
func (m *SessionManager) Issue(id Identity) (string, error) {
	now := m.now()
	claims := jwt.MapClaims{
		"auth": true,
		"iat":  now.Unix(),
		"exp":  now.Add(m.ttl).Unix(),
	}
	if id.UserID != "" {
		claims["sub"] = id.UserID
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// Verify проверяет подпись и срок. Любая причина отказа (подделка, мусор,
// истечение) выглядит для вызывающего одинаково — пустая Identity и false.
func (m *SessionManager) Verify(token string) (Identity, bool) {
	if token == "" {
		return Identity{}, false
	}
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		// принимаем только HMAC-семейство, иначе alg=none и RSA-путаница
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !tok.Valid {
		return Identity{}, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, false
	}
	if authed, _ := claims["auth"].(bool); !authed {
		return Identity{}, false
	}
	id := Identity{Authenticated: true}
	if sub, _ := claims["sub"].(string); sub != "" {
		id.UserID = sub
	}
	return id, true
}

// Renew перевыпускает действующий токен со свежим сроком — скользящая
// сессия: срок считается от момента продления, не от первоначального входа.
func (m *SessionManager) Renew(token string) (string, bool) {
	id, ok := m.Verify(token)
	if !ok {
		return "", false
	}
	fresh, err := m.Issue(id)
	if err != nil {
		return "", false
	}
	return fresh, true
}
