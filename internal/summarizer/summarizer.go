package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aydinmyilmaz/genai-newsflash/internal/llm"
)

// DefaultRetries is how many times an empty or failed generation is retried.
const DefaultRetries = 2

const summaryPrompt = `Summarize the following article. Structure the answer as:

Summary: two or three sentences covering the core news.
Key Points: three to five short bullet points.
Implications: one or two sentences on what this means for the field.

Article:
`

// Client wraps a chat model with bounded retries. An all-whitespace
// completion counts as a failure.
type Client struct {
	llm     *llm.Client
	retries int
	logger  zerolog.Logger
}

func New(llmClient *llm.Client, retries int, logger zerolog.Logger) *Client {
	if retries < 0 {
		retries = DefaultRetries
	}
	return &Client{
		llm:     llmClient,
		retries: retries,
		logger:  logger,
	}
}

// ModelName returns the identifier of the underlying model.
func (c *Client) ModelName() string {
	if c == nil {
		return ""
	}
	return c.llm.ModelName()
}

// Summarize condenses text, retrying on empty or failed generations.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	if c == nil || c.llm == nil {
		return "", fmt.Errorf("summarizer is not configured")
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("text is required")
	}

	var lastErr error
	attempts := c.retries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		summary, err := c.llm.Complete(ctx, summaryPrompt+trimmed)
		if err == nil {
			if cleaned := strings.TrimSpace(summary); cleaned != "" {
				return cleaned, nil
			}
			err = fmt.Errorf("model returned an empty summary")
		}

		lastErr = err
		c.logger.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", attempts).Msg("summarization attempt failed")
	}

	return "", fmt.Errorf("summarize after %d attempts: %w", attempts, lastErr)
}
