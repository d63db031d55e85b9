package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dumu-tech/wa-relay/internal/core"
)

const defaultAPIVersion = "v19.0"

// Client sends messages through the WhatsApp Cloud API. Every send returns a
// core.SendResult value: non-200 statuses and transport failures are folded
// into the result instead of surfacing as errors.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a client bound to an access token and a business phone
// number id. apiVersion falls back to v19.0 when empty.
func NewClient(token, phoneNumberID, apiVersion string, log *slog.Logger) *Client {
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	return &Client{
		baseURL: fmt.Sprintf("https://graph.facebook.com/%s/%s/messages", apiVersion, phoneNumberID),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// SendText sends a plain text message
func (c *Client) SendText(ctx context.Context, to, body string, previewURL bool) core.SendResult {
	payload := TextMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
	}
	payload.Text.PreviewURL = previewURL
	payload.Text.Body = body

	return c.post(ctx, payload)
}

// SendReply sends a text message as a reply referencing an earlier message
func (c *Client) SendReply(ctx context.Context, to, body, replyToID string, previewURL bool) core.SendResult {
	payload := TextMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
	}
	payload.Context = &struct {
		MessageID string `json:"message_id"`
	}{MessageID: replyToID}
	payload.Text.PreviewURL = previewURL
	payload.Text.Body = body

	return c.post(ctx, payload)
}

func (c *Client) post(ctx context.Context, payload TextMessage) core.SendResult {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return core.SendResult{Error: fmt.Sprintf("marshal payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return core.SendResult{Error: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("whatsapp send failed", "to", payload.To, "error", err)
		return core.SendResult{Error: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.SendResult{Error: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		c.log.Error("whatsapp API error", "status", resp.StatusCode, "to", payload.To, "body", string(respBody))
		return core.SendResult{
			StatusCode: resp.StatusCode,
			Error:      string(respBody),
			Response:   json.RawMessage(respBody),
		}
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		// 200 with an unreadable body still counts as delivered
		return core.SendResult{Success: true, Response: json.RawMessage(respBody)}
	}

	result := core.SendResult{
		Success:  true,
		Response: json.RawMessage(respBody),
	}
	if len(parsed.Messages) > 0 {
		result.MessageID = parsed.Messages[0].ID
	}
	c.log.Info("whatsapp message sent", "to", payload.To, "message_id", result.MessageID)
	return result
}
