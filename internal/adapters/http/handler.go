package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/dumu-tech/wa-relay/internal/core"
)

// Handler handles the inbound WhatsApp webhook: the GET verification
// handshake and the POST pass-through onto the topic. No payload
// interpretation happens here; the body is republished verbatim and
// everything downstream decides what it means.
type Handler struct {
	verifyToken string
	appSecret   string
	topic       core.TopicPublisher
	log         *slog.Logger
}

// NewHandler creates a new webhook handler. topic may be nil when the
// destination is not configured; POSTs then fail with a 500 so the sender
// retries once the deployment is fixed.
func NewHandler(topic core.TopicPublisher, verifyToken, appSecret string, log *slog.Logger) *Handler {
	return &Handler{
		verifyToken: strings.TrimSpace(verifyToken),
		appSecret:   appSecret,
		topic:       topic,
		log:         log,
	}
}

// VerifyWebhook handles GET requests for the webhook subscription handshake.
// When a challenge is present it is echoed back verbatim; with a verify
// token configured the mode/token pair is checked first, matching the
// platform's subscribe flow. GET without a challenge falls through to the
// default OK response.
func (h *Handler) VerifyWebhook(c *fiber.Ctx) error {
	challenge := c.Query("hub.challenge")
	if challenge == "" {
		return c.JSON(fiber.Map{"message": "OK"})
	}

	if h.verifyToken != "" {
		mode := c.Query("hub.mode")
		token := strings.TrimSpace(c.Query("hub.verify_token"))

		if mode != "subscribe" {
			h.log.Warn("webhook verification failed: invalid mode", "mode", mode)
			return c.Status(http.StatusBadRequest).SendString("Invalid mode")
		}
		if token != h.verifyToken {
			h.log.Warn("webhook verification failed: token mismatch")
			return c.Status(http.StatusForbidden).SendString("Invalid verify token")
		}
	}

	h.log.Info("webhook verification successful")
	// Return challenge as plain text (not JSON) - this is what WhatsApp expects
	return c.SendString(challenge)
}

// ReceiveMessage handles POST requests: the body is validated as JSON and
// republished verbatim onto the topic.
func (h *Handler) ReceiveMessage(c *fiber.Ctx) error {
	// Fiber reuses the body buffer across requests
	body := append([]byte(nil), c.Body()...)

	if h.appSecret != "" {
		signature := c.Get("X-Hub-Signature-256")
		if signature == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": "Missing signature"})
		}
		if !h.verifySignature(signature, body) {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid signature"})
		}
	}

	if !json.Valid(body) {
		h.log.Error("webhook body is not valid JSON")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"message": "Error processing webhook: invalid JSON body",
		})
	}

	if h.topic == nil {
		h.log.Error("topic not configured, dropping webhook")
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"message": "Topic not configured",
		})
	}

	n := core.Notification{
		ID:      uuid.NewString(),
		Subject: core.NotificationSubject,
		Payload: body,
	}
	if err := h.topic.Publish(c.Context(), n); err != nil {
		h.log.Error("failed to publish webhook", "notification_id", n.ID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"message": fmt.Sprintf("Error processing webhook: %v", err),
		})
	}

	h.log.Info("webhook published", "notification_id", n.ID)
	return c.JSON(fiber.Map{"message": "Webhook received and published"})
}

// Default answers any other method with a plain OK
func (h *Handler) Default(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "OK"})
}

func (h *Handler) verifySignature(signature string, body []byte) bool {
	expected := strings.TrimPrefix(signature, "sha256=")
	mac := hmac.New(sha256.New, []byte(h.appSecret))
	mac.Write(body)
	computed := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(computed))
}
