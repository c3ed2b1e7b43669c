package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

const (
	// ctxLocal stores the request-scoped context.Context in fiber locals.
	ctxLocal = "wa_ctx"
	// repliesLocal stores the reply count set by the webhook handler so the
	// logging middleware can include it in the summary line.
	repliesLocal = "wa_replies"
	// startLocal stores the receipt timestamp for duration accounting.
	startLocal = "wa_start"
)

// StoreContext attaches a request-scoped context to the fiber request.
func StoreContext(c *fiber.Ctx, ctx context.Context) {
	c.Locals(ctxLocal, ctx)
}

// ContextFrom returns the request-scoped context or context.Background().
func ContextFrom(c *fiber.Ctx) context.Context {
	if v := c.Locals(ctxLocal); v != nil {
		if ctx, ok := v.(context.Context); ok {
			return ctx
		}
	}
	return context.Background()
}

// SetReplyCount records how many replies the handler produced.
func SetReplyCount(c *fiber.Ctx, n int) {
	c.Locals(repliesLocal, n)
}

func replyCountFrom(c *fiber.Ctx) (int, bool) {
	if v := c.Locals(repliesLocal); v != nil {
		if n, ok := v.(int); ok {
			return n, true
		}
	}
	return 0, false
}
