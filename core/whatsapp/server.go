package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	coreconfig "github.com/m3rciful/gastobot/core/config"
	"github.com/m3rciful/gastobot/core/logger"
	wamw "github.com/m3rciful/gastobot/core/whatsapp/middleware"
	"log/slog"
)

// healthBody is returned from the root route so uptime probes have
// something cheap to hit.
const healthBody = "WhatsApp Bot funcionando 🚀"

// Handler consumes one inbound message and returns the ordered replies to
// send back to the same sender.
type Handler interface {
	Handle(ctx context.Context, sender, body string) ([]string, error)
}

// RunOptions controls the behaviour of RunServer.
type RunOptions struct {
	Config  *coreconfig.Config
	Handler Handler

	// Middlewares run on the webhook route before the message handler.
	Middlewares []fiber.Handler

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	App *fiber.App
}

// RunServer composes and runs the webhook server until the provided context is done.
func RunServer(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("whatsapp: nil config provided")
	}
	if opts.Handler == nil {
		return fmt.Errorf("whatsapp: nil handler provided")
	}

	cfg := opts.Config

	buildStart := time.Now()
	app := fiber.New(fiber.Config{
		AppName:               "gastobot",
		DisableStartupMessage: true,
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(healthBody)
	})

	handlers := make([]fiber.Handler, 0, len(opts.Middlewares)+1)
	handlers = append(handlers, opts.Middlewares...)
	handlers = append(handlers, webhookHandler(opts.Handler))
	app.Post(cfg.Server.WebhookPath, handlers...)

	rt := Runtime{App: app}

	addr := cfg.Server.Listen + ":" + strconv.Itoa(cfg.Server.Port)
	logger.WA.Info("webhook mode",
		slog.String("event", "mode"),
		slog.String("mode", "webhook"),
		slog.String("listen", addr),
		slog.String("path", cfg.Server.WebhookPath),
		slog.Duration("duration", logger.RoundMS(time.Since(buildStart))),
	)

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runDone := make(chan error, 1)
	go func() {
		runDone <- app.Listen(addr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			logger.WA.Warn("shutdown incomplete",
				slog.String("event", "shutdown"),
				slog.String("err", err.Error()),
			)
		}
		<-runDone
		runErr = ctx.Err()
	case err := <-runDone:
		runErr = err
	}

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(ctx, rt)
	}

	if stopErr != nil {
		return stopErr
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return nil
		}
		return runErr
	}

	return nil
}

// webhookHandler adapts a Handler to the provider's form-encoded webhook.
// A request without a sender address is rejected; everything else gets a
// TwiML response, even if the handler fails, so the provider never retries
// a message the sender already saw an apology for.
func webhookHandler(h Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := wamw.ContextFrom(c)

		from := strings.TrimSpace(c.FormValue("From"))
		if from == "" {
			return c.Status(fiber.StatusBadRequest).SendString("missing sender")
		}
		sender := strings.TrimPrefix(from, "whatsapp:")
		body := c.FormValue("Body")

		replies, err := h.Handle(ctx, sender, body)
		if err != nil {
			logger.LogEvent(ctx, logger.WA, slog.LevelError, "handler.failed",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
			replies = []string{"Lo siento, algo salió mal. 😓 Intenta de nuevo."}
		}

		wamw.SetReplyCount(c, len(replies))
		return SendTwiML(c, replies)
	}
}
