package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"gemchat/internal/modules/auth/domain"
	"gemchat/internal/modules/auth/verify"
	phttp "gemchat/internal/platform/http"
	"gemchat/internal/platform/security"
)

type registerCodeReq struct {
	Email      string `json:"email" validate:"required,email"`
	InviteCode string `json:"inviteCode"`
}

func (m *Module) registerCode(c *fiber.Ctx) error {
	var req registerCodeReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error_code": "INVALID_FIELDS",
			"message":    "Некорректные данные",
		})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error_code": "INVALID_EMAIL",
			"message":    "Некорректный формат email",
		})
	}

	// приглашение проверяется до выпуска кода; троттлинг по числу провалов
	if m.inviteCode != "" {
		ip := phttp.ClientIP(c, m.trustProxy)
		if !m.inviteLimiter.Allow(ip) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error_code": "RATE_LIMIT_EXCEEDED",
				"message":    "Слишком много неверных кодов приглашения. Попробуйте позже",
			})
		}
		if req.InviteCode != m.inviteCode {
			m.inviteLimiter.Failure(ip)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error_code": "INVALID_INVITE",
				"message":    "Код приглашения неверен, обратитесь к администратору",
			})
		}
		// верный код приглашения сбрасывает счётчик, не дожидаясь
		// подтверждения почты
		m.inviteLimiter.Reset(ip)
	}

	return m.codeRequested(c, m.verify.Request(c.UserContext(), req.Email, verify.ModeRegister))
}

type registerConfirmReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=50"`
	Code     string `json:"code" validate:"required,len=6"`
}

func (m *Module) registerConfirm(c *fiber.Ctx) error {
	var req registerConfirmReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error_code": "INVALID_FIELDS",
			"message":    "Некорректные данные",
		})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Code = strings.TrimSpace(req.Code)
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error_code": "VALIDATION_ERROR",
			"message":    "Проверьте email, пароль (8-50 символов) и код",
		})
	}

	err := m.verify.Confirm(req.Email, req.Code, func() error {
		hash, err := security.HashPassword(req.Password)
		if err != nil {
			return err
		}
		_, err = m.users.Create(domain.CreateUserParams{Email: req.Email, PasswordHash: hash})
		return err
	})
	if err != nil {
		return m.confirmError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Аккаунт создан"})
}

// codeRequested переводит результат verify.Request в ответ HTTP.
func (m *Module) codeRequested(c *fiber.Ctx, err error) error {
	var throttled *verify.ThrottledError
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"message": "Код отправлен, проверьте почту"})
	case errors.Is(err, verify.ErrEmailTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error_code": "EMAIL_TAKEN",
			"message":    "Эта почта уже зарегистрирована",
		})
	case errors.Is(err, verify.ErrEmailUnknown):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error_code": "NOT_FOUND",
			"message":    "Эта почта не зарегистрирована",
		})
	case errors.As(err, &throttled):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error_code": "RATE_LIMIT_EXCEEDED",
			"message":    fmt.Sprintf("Запрос слишком частый. Попробуйте через %d сек.", throttled.RetryAfter),
			"retryAfter": throttled.RetryAfter,
		})
	case errors.Is(err, verify.ErrDelivery):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error_code": "SERVER_ERROR",
			"message":    "Не удалось отправить код",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error_code": "SERVER_ERROR",
			"message":    "Внутренняя ошибка",
		})
	}
}

func (m *Module) confirmError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, verify.ErrCodeMissing):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error_code": "CODE_MISSING",
			"message":    "Код не найден, запросите новый",
		})
	case errors.Is(err, verify.ErrCodeExpired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error_code": "CODE_EXPIRED",
			"message":    "Код истёк, запросите новый",
		})
	case errors.Is(err, verify.ErrTooManyAttempts):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error_code": "TOO_MANY_ATTEMPTS",
			"message":    "Слишком много неверных попыток, запросите новый код",
		})
	case errors.Is(err, verify.ErrCodeMismatch):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error_code": "INVALID_CODE",
			"message":    "Неверный код",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error_code": "SERVER_ERROR",
			"message":    "Внутренняя ошибка",
		})
	}
}
