package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/m3rciful/gastobot/core/logger"
	"log/slog"
)

// LoggerMiddleware assigns a correlation id to each inbound message, seeds the
// request context with sender metadata, and emits a single summary line after
// the handler finishes. Receipt lines are debug-sampled to keep volume down.
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		c.Locals(startLocal, start)

		// Twilio sends a MessageSid per inbound message; reuse it as the rid
		// so log lines correlate with provider-side debugging tools.
		rid := strings.TrimSpace(c.FormValue("MessageSid"))
		if rid == "" {
			rid = uuid.NewString()
		}

		sender := strings.TrimSpace(c.FormValue("From"))

		ctx := logger.WithRID(logger.Background(), rid)
		ctx = logger.WithSender(ctx, sender)
		ctx = logger.WithLogger(ctx, logger.Component("wa"))
		StoreContext(c, ctx)

		if logger.ShouldSampleDebug() {
			attrs := []slog.Attr{
				slog.String("status", "ok"),
				slog.String("rid", rid),
			}
			if sender != "" {
				attrs = append(attrs, slog.String("sender", logger.SanitizeLimit(sender, 64)))
			}
			if body := c.FormValue("Body"); body != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(body, 256)))
			}
			logger.LogEvent(ctx, logger.WA, slog.LevelDebug, "message.received", attrs...)
		}

		err := c.Next()

		attrs := []slog.Attr{
			slog.String("status", logger.Status(err)),
			slog.Int("http_code", c.Response().StatusCode()),
			slog.Duration("duration", logger.Took(start)),
		}
		if n, ok := replyCountFrom(c); ok {
			attrs = append(attrs, slog.Int("messages", n))
		}
		if err != nil {
			attrs = append(attrs, slog.String("err", err.Error()))
		}
		logger.LogEvent(ctx, logger.WA, slog.LevelInfo, "message.handled", attrs...)

		return err
	}
}
