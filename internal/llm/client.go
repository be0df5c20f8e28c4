package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultEndpoint points to a local OpenAI-compatible endpoint.
	DefaultEndpoint = "http://127.0.0.1:8845/v1"
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"
)

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	endpointURL string
	apiKey      string
	model       string
	httpClient  *http.Client
}

// New builds a client for the given endpoint, key and model. Empty values
// fall back to the local defaults.
func New(endpoint, apiKey, model string) *Client {
	trimmedModel := strings.TrimSpace(model)
	if trimmedModel == "" {
		trimmedModel = DefaultModel
	}
	return &Client{
		endpointURL: chatCompletionsURL(normalizeEndpoint(endpoint)),
		apiKey:      strings.TrimSpace(apiKey),
		model:       trimmedModel,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string {
	if c == nil {
		return ""
	}
	return c.model
}

// SetHTTPClient overrides the underlying transport, mainly for tests.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if c != nil && hc != nil {
		c.httpClient = hc
	}
}

// Complete sends a single-user-message chat request and returns the first
// choice's text. A blank completion is an error.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("llm client is nil")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt is required")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role:    "user",
				Content: prompt,
			},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errPayload chatErrorResponse
		if unmarshalErr := json.Unmarshal(respBody, &errPayload); unmarshalErr == nil {
			if msg := strings.TrimSpace(errPayload.Error.Message); msg != "" {
				return "", fmt.Errorf("chat endpoint status %d: %s", resp.StatusCode, msg)
			}
		}
		return "", fmt.Errorf("chat endpoint status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response missing choices")
	}

	completion := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if completion == "" {
		return "", fmt.Errorf("chat response was empty")
	}
	return completion, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func normalizeEndpoint(raw string) string {
	endpoint := strings.TrimSpace(raw)
	if endpoint == "" {
		return DefaultEndpoint
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}

	parsed, err := url.Parse(endpoint)
	if err != nil || strings.TrimSpace(parsed.Host) == "" {
		return DefaultEndpoint
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	if parsed.Path == "" {
		parsed.Path = "/v1"
	}
	return parsed.String()
}

func chatCompletionsURL(endpoint string) string {
	parsed, err := url.Parse(endpoint)
	if err != nil || strings.TrimSpace(parsed.Host) == "" {
		return DefaultEndpoint + "/chat/completions"
	}

	path := strings.TrimRight(parsed.Path, "/")
	switch {
	case strings.HasSuffix(path, "/chat/completions"):
		parsed.Path = path
	case strings.HasSuffix(path, "/v1"):
		parsed.Path = path + "/chat/completions"
	case path == "":
		parsed.Path = "/v1/chat/completions"
	default:
		parsed.Path = path + "/v1/chat/completions"
	}

	return parsed.String()
}
