package middleware

import (
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/m3rciful/gastobot/core/logger"
	"log/slog"
)

// apologyBody is sent when a handler panics, so the sender is not left
// waiting on a silent failure.
const apologyBody = "Lo siento, algo salió mal. 😓 Intenta de nuevo."

// RecoverMiddleware catches panics in webhook handlers and prevents the
// process from crashing. The sender receives an apology message and the
// provider gets a valid 200 so it does not retry the same payload.
func RecoverMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		defer func() {
			if r := recover(); r != nil {
				ctx := ContextFrom(c)
				logger.LogEvent(ctx, logger.WA, slog.LevelError, "wa.panic",
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
				SetReplyCount(c, 1)
				c.Status(fiber.StatusOK)
				c.Set(fiber.HeaderContentType, "text/xml; charset=utf-8")
				_ = c.SendString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<Response><Message>" + apologyBody + "</Message></Response>")
			}
		}()
		return c.Next()
	}
}
