package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"gemchat/internal/modules/auth/verify"
	"gemchat/internal/platform/security"
)

type resetCodeReq struct {
	Email string `json:"email" validate:"required,email"`
}

func (m *Module) resetCode(c *fiber.Ctx) error {
	var req resetCodeReq
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

	return m.codeRequested(c, m.verify.Request(c.UserContext(), req.Email, verify.ModeReset))
}

type resetConfirmReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=50"`
	Code     string `json:"code" validate:"required,len=6"`
}

func (m *Module) resetConfirm(c *fiber.Ctx) error {
	var req resetConfirmReq
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
		u, err := m.users.GetByEmail(req.Email)
		if err != nil {
			return err
		}
		hash, err := security.HashPassword(req.Password)
		if err != nil {
			return err
		}
		return m.users.UpdatePassword(u.ID, hash)
	})
	if err != nil {
		return m.confirmError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Пароль изменён"})
}
