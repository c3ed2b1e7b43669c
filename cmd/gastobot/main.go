package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	corebootstrap "github.com/m3rciful/gastobot/core/bootstrap"
	corecmd "github.com/m3rciful/gastobot/core/cmd"
	coreconfig "github.com/m3rciful/gastobot/core/config"
	corewhatsapp "github.com/m3rciful/gastobot/core/whatsapp"
	wamw "github.com/m3rciful/gastobot/core/whatsapp/middleware"
	"github.com/m3rciful/gastobot/engine"
	"github.com/m3rciful/gastobot/engine/session"
	"github.com/m3rciful/gastobot/expenses"
)

type app struct {
	cfg   *coreconfig.Config
	store *expenses.PostgresStore
}

func (a *app) CoreConfig() *coreconfig.Config { return a.cfg }

func (a *app) WebhookRunOptions() (corewhatsapp.RunOptions, error) {
	loc, err := time.LoadLocation(a.cfg.Analytics.Timezone)
	if err != nil {
		return corewhatsapp.RunOptions{}, fmt.Errorf("load timezone: %w", err)
	}

	eng := engine.New(engine.Options{
		Sessions:     session.NewMemoryManager(a.cfg.SessionTTL()),
		Store:        a.store,
		Users:        a.store,
		USDToPENRate: a.cfg.Analytics.USDToPENRate,
		Location:     loc,
	})

	middlewares := []fiber.Handler{
		wamw.LoggerMiddleware(),
		wamw.RecoverMiddleware(),
	}
	if a.cfg.RateLimit.IntervalMS > 0 {
		middlewares = append(middlewares, wamw.RateLimitMiddleware(wamw.RateLimitOptions{
			Interval: time.Duration(a.cfg.RateLimit.IntervalMS) * time.Millisecond,
		}))
	}

	return corewhatsapp.RunOptions{
		Config:      a.cfg,
		Handler:     eng,
		Middlewares: middlewares,
	}, nil
}

func main() {
	// Optional local overrides; ignored when no .env file is present.
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := coreconfig.Load(path)
			if err != nil {
				return nil, err
			}
			return &app{cfg: cfg}, nil
		},
		Bootstrap: func(carrier corecmd.ConfigCarrier) (corecmd.WebhookApp, error) {
			a, ok := carrier.(*app)
			if !ok {
				return nil, fmt.Errorf("unexpected config carrier %T", carrier)
			}
			res, err := corebootstrap.Run(corebootstrap.Options{Config: a.cfg})
			if err != nil {
				return nil, err
			}
			a.store = expenses.NewPostgresStore(res.DB)
			return a, nil
		},
	})
	if err != nil {
		log.Fatalf("gastobot: %v", err)
	}
}
