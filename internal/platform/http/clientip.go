package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ClientIP выбирает IP клиента с учётом прокси: сперва X-Forwarded-For
// (первый адрес в списке), затем X-Real-IP, иначе адрес транспортного
// соединения. Заголовки подделываемы — trustProxy включают только за
// доверенным реверс-прокси.
// Строки fiber/fasthttp ссылаются на переиспользуемый буфер запроса —
// возвращаем копию, чтобы ключ пережил текущий запрос.
func ClientIP(c *fiber.Ctx, trustProxy bool) string {
	if trustProxy {
		if fwd := c.Get("X-Forwarded-For"); fwd != "" {
			return strings.Clone(strings.TrimSpace(strings.Split(fwd, ",")[0]))
		}
		if rip := c.Get("X-Real-IP"); rip != "" {
			return strings.Clone(strings.TrimSpace(rip))
		}
	}
	return strings.Clone(c.IP())
}
