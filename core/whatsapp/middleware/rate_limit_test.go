package middleware

import (
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func postFrom(t *testing.T, app *fiber.App, from string) string {
	t.Helper()
	form := url.Values{"From": {from}, "Body": {"hola"}}
	req := httptest.NewRequest("POST", "/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	return string(data)
}

func TestRateLimitBlocksRapidSender(t *testing.T) {
	app := fiber.New()
	app.Post("/whatsapp", RateLimitMiddleware(RateLimitOptions{Interval: time.Minute}), func(c *fiber.Ctx) error {
		return c.SendString("handled")
	})

	if body := postFrom(t, app, "whatsapp:+51911111111"); body != "handled" {
		t.Fatalf("first message body = %q", body)
	}
	body := postFrom(t, app, "whatsapp:+51911111111")
	if body == "handled" {
		t.Fatal("second message within the interval must not reach the handler")
	}
	if !strings.Contains(body, "<Response></Response>") {
		t.Fatalf("limited body = %q, want empty TwiML", body)
	}

	// A different sender is not affected.
	if body := postFrom(t, app, "whatsapp:+51922222222"); body != "handled" {
		t.Fatalf("other sender body = %q", body)
	}
}

func TestPruneStaleDropsExpiredSenders(t *testing.T) {
	now := time.Now()
	seen := map[string]time.Time{
		"stale":  now.Add(-2 * time.Second),
		"recent": now.Add(-100 * time.Millisecond),
	}
	pruneStale(seen, now, time.Second)
	if _, ok := seen["stale"]; ok {
		t.Fatal("stale sender must be pruned")
	}
	if _, ok := seen["recent"]; !ok {
		t.Fatal("recent sender must survive the sweep")
	}
}
