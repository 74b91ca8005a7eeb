package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nhle/newsdigest/internal/model"
)

const maxErrorBody = 200

// Client is a thin HTTP client for the Notion REST API. Each request is
// attempted once.
type Client struct {
	baseURL    string
	token      string
	version    string
	httpClient *http.Client
}

// NewClient creates a Notion client from cfg.
func NewClient(cfg model.NotionConfig) *Client {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		version: cfg.Version,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// QueryDatabase returns one page of rows of databaseID.
func (c *Client) QueryDatabase(
	ctx context.Context,
	databaseID string,
	req QueryRequest,
) (*QueryResponse, error) {
	var resp QueryResponse
	path := "/databases/" + url.PathEscape(databaseID) + "/query"
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreatePage inserts a row.
func (c *Client) CreatePage(
	ctx context.Context,
	req CreatePageRequest,
) (*Page, error) {
	var page Page
	if err := c.do(ctx, http.MethodPost, "/pages", req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ArchivePage soft-deletes a row.
func (c *Client) ArchivePage(ctx context.Context, pageID string) error {
	path := "/pages/" + url.PathEscape(pageID)
	return c.do(ctx, http.MethodPatch, path, updatePageRequest{Archived: true}, nil)
}

// do builds the request, sets auth and version headers, and decodes the
// JSON response into result when it is non-nil.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &model.TransportError{
			Service: "notion",
			Err:     fmt.Errorf("executing request %s %s: %w", method, path, err),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &model.TransportError{
			Service:    "notion",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("reading response body: %w", err),
		}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return &model.AuthError{
			Service: "notion",
			Message: "invalid token: check NOTION_TOKEN and that the integration is active",
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &model.TransportError{
			Service:    "notion",
			StatusCode: resp.StatusCode,
			Err:        errors.New(errorMessage(respBody)),
		}
	}

	if result == nil {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return &model.ParseError{
			What: fmt.Sprintf("response from %s %s", method, path),
			Err:  err,
		}
	}

	return nil
}

// errorMessage formats a Notion error body as "code: message", falling
// back to the truncated raw body.
func errorMessage(body []byte) string {
	var apiErr ErrorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
		if apiErr.Code != "" {
			return apiErr.Code + ": " + apiErr.Message
		}
		return apiErr.Message
	}
	return model.Truncate(strings.TrimSpace(string(body)), maxErrorBody)
}
