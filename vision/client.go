// Package vision is a minimal client for OpenAI-compatible chat-completions
// endpoints that accept image content parts. Documents are sent inline as
// base64 data URLs; the model is asked to return Markdown.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// extractPrompt is the fixed instruction sent with every document.
const extractPrompt = "Extract all text content from this document and return it as Markdown. " +
	"Preserve the original formatting and table structure. Ignore watermarks and stamps."

// Config configures the vision client.
type Config struct {
	// BaseURL of the OpenAI-compatible API, e.g. "https://host/v1".
	BaseURL string
	// APIKey sent as a Bearer token. Required.
	APIKey string
	// Model name requested from the endpoint.
	Model string
	// Timeout for one extraction call. Scanned documents take minutes,
	// not seconds (default 5m).
	Timeout time.Duration
	// Logger for debug/error messages.
	Logger *slog.Logger
}

// Client talks to one OpenAI-compatible vision endpoint.
type Client struct {
	cfg    Config
	client *http.Client
}

// New creates a vision client. The API key is mandatory.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("vision: api key is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("vision: base url is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-pro"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// ChatRequest is an OpenAI chat-completions request.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
}

// ChatMessage carries mixed text/image content.
type ChatMessage struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart is one element of a message: text or an image URL.
type ContentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL holds a data: or https: URL.
type ImageURL struct {
	URL string `json:"url"`
}

// ChatResponse is an OpenAI chat-completions response.
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice is one response candidate.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Message is the assistant reply.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ExtractDocument sends the payload inline and returns the model's Markdown.
// Transport, HTTP and schema problems return an error; a model that answers
// with empty content returns ("", nil) so callers can tell the two apart.
func (c *Client) ExtractDocument(ctx context.Context, data []byte, mimeType string) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))

	req := ChatRequest{
		Model: c.cfg.Model,
		Messages: []ChatMessage{{
			Role: "user",
			Content: []ContentPart{
				{Type: "text", Text: extractPrompt},
				{Type: "image_url", ImageURL: &ImageURL{URL: dataURL}},
			},
		}},
		MaxTokens:   4000,
		Temperature: 0.1,
	}

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqJSON))
	if err != nil {
		return "", fmt.Errorf("create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	c.cfg.Logger.Debug("sending vision request",
		"model", c.cfg.Model,
		"mime_type", mimeType,
		"payload_size", len(data))

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.cfg.Logger.Error("vision HTTP error",
			"status", resp.StatusCode,
			"body", string(body),
			"duration", duration)
		return "", fmt.Errorf("vision endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("vision endpoint returned no choices")
	}

	c.cfg.Logger.Debug("vision response received",
		"duration", duration,
		"tokens", chatResp.Usage.TotalTokens,
		"finish_reason", chatResp.Choices[0].FinishReason)

	return chatResp.Choices[0].Message.Content, nil
}
