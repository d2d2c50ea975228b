package http

import (
	"crypto/subtle"
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	phttp "gemchat/internal/platform/http"
	"gemchat/internal/platform/security"
)

type loginReq struct {
	// Email пуст в режиме общего пароля доступа (булев шлюз).
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (m *Module) login(c *fiber.Ctx) error {
	var req loginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error_code": "INVALID_FIELDS",
			"message":    "Некорректные данные",
		})
	}

	ip := phttp.ClientIP(c, m.trustProxy)

	// Лимит проверяется до сравнения пароля; отказ не доходит до учётки.
	if res := m.loginLimiter.Check(ip); !res.Allowed {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error_code": "RATE_LIMIT_EXCEEDED",
			"message":    fmt.Sprintf("Попробуйте через %d сек.", res.RetryAfter),
			"retryAfter": res.RetryAfter,
		})
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var id security.Identity
	switch {
	case req.Email == "" && m.accessPassword != "":
		// булев шлюз: один общий пароль, личности в токене нет
		if subtle.ConstantTimeCompare([]byte(req.Password), []byte(m.accessPassword)) != 1 {
			return m.loginFailed(c, ip)
		}
		id = security.Identity{Authenticated: true}

	default:
		u, err := m.users.GetByEmail(req.Email)
		if err != nil || u == nil {
			return m.loginFailed(c, ip)
		}
		ok, _ := security.CheckPassword(u.PasswordHash, req.Password)
		if !ok {
			return m.loginFailed(c, ip)
		}
		id = security.Identity{Authenticated: true, UserID: u.ID}
	}

	token, err := m.sessions.Issue(id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error_code": "SERVER_ERROR",
			"message":    "Не удалось создать сессию",
		})
	}
	phttp.SetSessionCookie(c, token, m.sessions.TTL(), m.secureCookie)

	// метка обновляется и при верном пароле: сразу повторить вход нельзя
	m.loginLimiter.Touch(ip)
	log.Printf("IP: %s - login successful", ip)

	return c.JSON(fiber.Map{"message": "Вход выполнен"})
}

// цена попытки одинакова при верном и неверном пароле, отличается только
// состояние на успехе
func (m *Module) loginFailed(c *fiber.Ctx, ip string) error {
	m.loginLimiter.Touch(ip)
	log.Printf("IP: %s - login failed", ip)
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error_code": "INVALID_CREDENTIALS",
		"message":    "Неверный логин или пароль",
	})
}

func (m *Module) logout(c *fiber.Ctx) error {
	// активный отзыв: валидная пользовательская кука закрывает открытые каналы
	if id, ok := m.sessions.Verify(c.Cookies(phttp.SessionCookie)); ok && id.UserID != "" && m.revoker != nil {
		if n := m.revoker.CloseUser(id.UserID); n > 0 {
			log.Printf("logout: closed %d open channel(s) for user %s", n, id.UserID)
		}
	}
	phttp.ClearSessionCookie(c, m.secureCookie)
	return c.JSON(fiber.Map{"message": "Выход выполнен"})
}
