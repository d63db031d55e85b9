package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const httpTimeout = 60 * time.Second

// Client calls the external reply-generator service. It never surfaces a
// failure: any fault degrades to an echo of the prompt so the conversation
// always gets some answer.
type Client struct {
	url        string
	httpClient *http.Client
	log        *slog.Logger
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Output string `json:"output"`
}

// NewClient creates a processor client for the given endpoint URL
func NewClient(url string, log *slog.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: httpTimeout},
		log:        log,
	}
}

// GenerateReply asks the processor for a reply to the prompt. On transport
// failure, a non-200 status, or a response without an output field it falls
// back to echoing the prompt.
func (c *Client) GenerateReply(ctx context.Context, prompt string) string {
	fallback := fmt.Sprintf("You said: %s", prompt)

	output, err := c.call(ctx, prompt)
	if err != nil {
		c.log.Error("processor call failed, using fallback", "error", err)
		return fallback
	}
	if output == "" {
		c.log.Error("processor returned no output, using fallback")
		return fallback
	}
	return output
}

func (c *Client) call(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("processor returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	return parsed.Output, nil
}
