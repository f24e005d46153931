// Package mistral implements the chat-completion client used by every
// pipeline stage that talks to the model backend. Transport failures, bad
// status codes, timeouts and malformed responses all surface as a single
// error wrapping ErrBackend; callers decide per stage whether such a
// failure blocks, degrades or propagates.
package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrBackend marks any failure of a single backend call. No retries are
// performed; one failed call is one failure.
var ErrBackend = errors.New("mistral backend call failed")

const defaultMaxTokens = 4096

type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func New(apiKey, baseURL, model string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = "https://api.mistral.ai/v1"
	}
	if model == "" {
		model = "mistral-small-latest"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a system/user prompt pair and returns the assistant's
// free-text reply.
func (c *Client) Complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	return c.chat(ctx, system, user, temperature, nil)
}

// CompleteJSON sends a prompt pair requesting a JSON object reply and
// unmarshals it into out. A reply that is not valid JSON for out counts as
// a failed call.
func (c *Client) CompleteJSON(ctx context.Context, system, user string, temperature float64, out any) error {
	content, err := c.chat(ctx, system+"\n\nYou must respond with valid JSON only.", user, temperature, &responseFormat{Type: "json_object"})
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("%w: invalid JSON in response: %v", ErrBackend, err)
	}
	return nil
}

func (c *Client) chat(ctx context.Context, system, user string, temperature float64, format *responseFormat) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    temperature,
		MaxTokens:      defaultMaxTokens,
		ResponseFormat: format,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrBackend, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrBackend, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: API returned status %d", ErrBackend, resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrBackend, err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrBackend)
	}

	return chatResp.Choices[0].Message.Content, nil
}
