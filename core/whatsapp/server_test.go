package whatsapp

import (
	"context"
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

type fakeHandler struct {
	sender  string
	body    string
	replies []string
	err     error
}

func (f *fakeHandler) Handle(_ context.Context, sender, body string) ([]string, error) {
	f.sender = sender
	f.body = body
	return f.replies, f.err
}

func postForm(t *testing.T, app *fiber.App, path string, form url.Values) (int, string) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
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
	return resp.StatusCode, string(data)
}

func TestWebhookStripsChannelPrefix(t *testing.T) {
	h := &fakeHandler{replies: []string{"ok"}}
	app := fiber.New()
	app.Post("/whatsapp", webhookHandler(h))

	status, body := postForm(t, app, "/whatsapp", url.Values{
		"From": {"whatsapp:+51987654321"},
		"Body": {"hola"},
	})
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if h.sender != "+51987654321" {
		t.Fatalf("sender = %q", h.sender)
	}
	if h.body != "hola" {
		t.Fatalf("body = %q", h.body)
	}
	if !strings.Contains(body, "<Message>ok</Message>") {
		t.Fatalf("unexpected response: %s", body)
	}
}

func TestWebhookRejectsMissingSender(t *testing.T) {
	h := &fakeHandler{replies: []string{"ok"}}
	app := fiber.New()
	app.Post("/whatsapp", webhookHandler(h))

	status, _ := postForm(t, app, "/whatsapp", url.Values{
		"Body": {"hola"},
	})
	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
	if h.body != "" {
		t.Fatal("handler should not run without a sender")
	}
}

func TestWebhookHandlerErrorStillReplies(t *testing.T) {
	h := &fakeHandler{err: context.DeadlineExceeded}
	app := fiber.New()
	app.Post("/whatsapp", webhookHandler(h))

	status, body := postForm(t, app, "/whatsapp", url.Values{
		"From": {"whatsapp:+51911111111"},
		"Body": {"1"},
	})
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if !strings.Contains(body, "<Message>") {
		t.Fatalf("expected apology message, got %s", body)
	}
}
