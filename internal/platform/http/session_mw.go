package http

import (
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"gemchat/internal/platform/security"
)

// SessionCookie — имя куки с подписанным токеном; общая поверхность для
// HTTP-шлюза и рукопожатия realtime-канала.
const SessionCookie = "session_id"

// IdentityKey — ключ в Locals, под которым шлюз кладёт security.Identity.
const IdentityKey = "identity"

type GateOptions struct {
	// Пути, доступные без сессии (точное совпадение).
	AllowPaths []string
	// Префиксы без сессии (эндпоинты регистрации/сброса).
	AllowPrefixes []string
	// Файл страницы входа для не-API запросов без сессии.
	LoginPage string
	// Secure-флаг куки (production за TLS).
	SecureCookie bool
}

// SessionGate — пошлюзовая авторизация запроса:
//  1. путь из allow-списка — пропускаем;
//  2. кука валидна — кладём identity в Locals, продлеваем сессию и пропускаем;
//  3. иначе API-запросы получают 401 без тела, остальные — страницу входа
//     с тем же 401.
func SessionGate(sessions *security.SessionManager, opts GateOptions) fiber.Handler {
	allowed := make(map[string]struct{}, len(opts.AllowPaths))
	for _, p := range opts.AllowPaths {
		allowed[p] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		path := c.Path()
		if _, ok := allowed[path]; ok {
			return c.Next()
		}
		for _, pfx := range opts.AllowPrefixes {
			if strings.HasPrefix(path, pfx) {
				return c.Next()
			}
		}

		token := c.Cookies(SessionCookie)
		if id, ok := sessions.Verify(token); ok {
			c.Locals(IdentityKey, id)
			// скользящее продление: срок считается от этого запроса
			if fresh, ok := sessions.Renew(token); ok {
				SetSessionCookie(c, fresh, sessions.TTL(), opts.SecureCookie)
			}
			return c.Next()
		}

		if strings.HasPrefix(path, "/api") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error_code": "UNAUTHORIZED",
				"message":    "Требуется авторизация",
			})
		}

		// не-API запрос без сессии: страница входа, статус всё равно 401
		if opts.LoginPage != "" {
			if data, err := os.ReadFile(opts.LoginPage); err == nil {
				c.Type("html")
				return c.Status(fiber.StatusUnauthorized).Send(data)
			}
		}
		return c.SendStatus(fiber.StatusUnauthorized)
	}
}

// LocalIdentity достаёт identity, положенную шлюзом.
func LocalIdentity(c *fiber.Ctx) (security.Identity, bool) {
	id, ok := c.Locals(IdentityKey).(security.Identity)
	return id, ok
}

func SetSessionCookie(c *fiber.Ctx, token string, ttl time.Duration, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func ClearSessionCookie(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
