package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/dumu-tech/wa-relay/internal/core"
)

type fakePublisher struct {
	published []core.Notification
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, n core.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, n)
	return nil
}

func newTestApp(h *Handler) *fiber.App {
	app := fiber.New()
	app.Get("/webhook", h.VerifyWebhook)
	app.Post("/webhook", h.ReceiveMessage)
	app.All("/webhook", h.Default)
	return app
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestVerifyWebhookEchoesChallenge(t *testing.T) {
	h := NewHandler(&fakePublisher{}, "", "", discardLogger())
	app := newTestApp(h)

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.challenge=abc123", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "abc123" {
		t.Errorf("body = %q, want %q", body, "abc123")
	}
}

func TestVerifyWebhookChecksConfiguredToken(t *testing.T) {
	h := NewHandler(&fakePublisher{}, "sekrit", "", discardLogger())
	app := newTestApp(h)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{
			"valid token",
			"/webhook?hub.mode=subscribe&hub.verify_token=sekrit&hub.challenge=xyz",
			http.StatusOK, "xyz",
		},
		{
			"wrong token",
			"/webhook?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=xyz",
			http.StatusForbidden, "",
		},
		{
			"wrong mode",
			"/webhook?hub.mode=unsubscribe&hub.verify_token=sekrit&hub.challenge=xyz",
			http.StatusBadRequest, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.target, nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantBody != "" {
				body, _ := io.ReadAll(resp.Body)
				if string(body) != tt.wantBody {
					t.Errorf("body = %q, want %q", body, tt.wantBody)
				}
			}
		})
	}
}

func TestVerifyWebhookWithoutChallenge(t *testing.T) {
	h := NewHandler(&fakePublisher{}, "", "", discardLogger())
	app := newTestApp(h)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/webhook", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestReceiveMessagePublishesVerbatim(t *testing.T) {
	pub := &fakePublisher{}
	h := NewHandler(pub, "", "", discardLogger())
	app := newTestApp(h)

	payload := `{"object":"whatsapp_business_account","entry":[]}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if len(pub.published) != 1 {
		t.Fatalf("published %d notifications, want 1", len(pub.published))
	}
	n := pub.published[0]
	if string(n.Payload) != payload {
		t.Errorf("payload = %s, want verbatim body", n.Payload)
	}
	if n.ID == "" {
		t.Error("notification id is empty")
	}
	if n.Subject != core.NotificationSubject {
		t.Errorf("subject = %q", n.Subject)
	}
}

func TestReceiveMessageWithoutTopicIs500(t *testing.T) {
	h := NewHandler(nil, "", "", discardLogger())
	app := newTestApp(h)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestReceiveMessageInvalidJSONIs500(t *testing.T) {
	h := NewHandler(&fakePublisher{}, "", "", discardLogger())
	app := newTestApp(h)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`not json {`))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestReceiveMessagePublishFailureIs500(t *testing.T) {
	h := NewHandler(&fakePublisher{err: errors.New("redis down")}, "", "", discardLogger())
	app := newTestApp(h)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestOtherMethodsGetOK(t *testing.T) {
	h := NewHandler(&fakePublisher{}, "", "", discardLogger())
	app := newTestApp(h)

	resp, err := app.Test(httptest.NewRequest(http.MethodPut, "/webhook", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
