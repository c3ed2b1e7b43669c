package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/m3rciful/gastobot/core/logger"
	"log/slog"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval time.Duration
}

// pruneThreshold bounds the last-seen table. Once it grows past this many
// senders a stale sweep runs before the next insert.
const pruneThreshold = 1024

// pruneStale drops senders whose last message is at least one interval
// old; those entries can no longer limit a request.
func pruneStale(seen map[string]time.Time, now time.Time, interval time.Duration) {
	for sender, last := range seen {
		if now.Sub(last) >= interval {
			delete(seen, sender)
		}
	}
}

// RateLimitMiddleware enforces a minimum interval between messages from the
// same sender. Limited requests still get an empty TwiML response so the
// provider treats them as handled instead of retrying.
func RateLimitMiddleware(opts RateLimitOptions) fiber.Handler {
	var (
		senderLastSeen   = make(map[string]time.Time)
		senderLastSeenMu sync.Mutex
	)
	return func(c *fiber.Ctx) error {
		sender := strings.TrimSpace(c.FormValue("From"))
		if sender == "" || opts.Interval <= 0 {
			return c.Next()
		}

		now := time.Now()

		senderLastSeenMu.Lock()
		if last, ok := senderLastSeen[sender]; ok && now.Sub(last) < opts.Interval {
			senderLastSeenMu.Unlock()
			ctx := ContextFrom(c)
			logger.LogEvent(ctx, logger.WA, slog.LevelWarn, "wa.rate_limit",
				slog.String("sender", logger.SanitizeLimit(sender, 64)),
				slog.Bool("rate_limited", true),
			)
			SetReplyCount(c, 0)
			c.Set(fiber.HeaderContentType, "text/xml; charset=utf-8")
			return c.SendString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<Response></Response>")
		}

		if len(senderLastSeen) >= pruneThreshold {
			pruneStale(senderLastSeen, now, opts.Interval)
		}
		senderLastSeen[sender] = now
		senderLastSeenMu.Unlock()
		return c.Next()
	}
}
