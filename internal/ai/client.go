package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nhle/newsdigest/internal/model"
)

const maxErrorBody = 1024

// Completer returns the assistant reply for a list of chat messages.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Client calls an OpenAI-compatible /chat/completions endpoint such as
// Groq's.
type Client struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

var _ Completer = (*Client)(nil)

// NewClient creates a chat client from cfg.
func NewClient(cfg model.LLMConfig) *Client {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		endpoint:    cfg.Endpoint,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      &http.Client{Timeout: timeout},
	}
}

// Complete sends messages in a single request and returns the content
// of the first choice. There is no retry.
func (c *Client) Complete(
	ctx context.Context,
	messages []Message,
) (string, error) {
	bodyBytes, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &model.TransportError{
			Service: "llm",
			Err:     fmt.Errorf("calling %s: %w", c.endpoint, err),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &model.TransportError{
			Service:    "llm",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("reading response: %w", err),
		}
	}

	if resp.StatusCode != http.StatusOK {
		msg := apiErrorMessage(respBody)
		if resp.StatusCode == http.StatusUnauthorized {
			return "", &model.AuthError{Service: "llm", Message: msg}
		}
		return "", &model.TransportError{
			Service:    "llm",
			StatusCode: resp.StatusCode,
			Err:        errors.New(msg),
		}
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &model.ParseError{What: "chat response", Err: err}
	}
	if len(result.Choices) == 0 {
		return "", &model.ParseError{What: "chat response", Err: errors.New("no choices returned")}
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

// apiErrorMessage extracts the error message from an API error body,
// falling back to the (truncated) raw body.
func apiErrorMessage(body []byte) string {
	var apiErr apiErrorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return strings.TrimSpace(string(body))
}

// --- chat completion API types ---

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
