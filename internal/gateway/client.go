package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const DefaultBaseURL = "http://localhost:8000/api/v1"

// Client wraps the document QA backend. It holds no state besides its
// configuration: no caching, no retries, no deduplication.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new backend client. A nil logger discards output.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No timeout: calls are bounded only by the caller's context.
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// BaseURL returns the backend root all paths are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListDocuments returns every document known to the backend.
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	const op = "list documents"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/documents", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(op, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var docs []Document
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		return nil, c.decodeFailed(op, resp.StatusCode, err)
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}

// DeleteDocument removes a document and its chunks from the backend.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	const op = "delete document"

	endpoint := c.baseURL + "/documents/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.do(op, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Ask sends a question. An empty documentID searches across all documents.
func (c *Client) Ask(ctx context.Context, query, documentID string) (*ChatResponse, error) {
	const op = "ask"

	jsonData, err := json.Marshal(chatRequest{Query: query, FileID: documentID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(op, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, c.decodeFailed(op, resp.StatusCode, err)
	}
	return &result, nil
}

// do executes req and converts transport failures and non-2xx statuses into
// TransportError and BackendError. On success the caller owns resp.Body.
func (c *Client) do(op string, req *http.Request) (*http.Response, error) {
	c.logger.Debug("sending request", zap.String("op", op), zap.String("method", req.Method), zap.String("url", req.URL.String()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("op", op), zap.Error(err))
		return nil, &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		berr := &BackendError{Op: op, Status: resp.StatusCode, Detail: parseDetail(body)}
		c.logger.Warn("backend returned error",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", berr.Detail),
		)
		return nil, berr
	}

	return resp, nil
}

func (c *Client) decodeFailed(op string, status int, err error) error {
	c.logger.Warn("failed to decode response", zap.String("op", op), zap.Int("status", status), zap.Error(err))
	return &BackendError{Op: op, Status: status, Err: fmt.Errorf("failed to decode response: %w", err)}
}

// parseDetail extracts a string "detail" field. FastAPI sends a list of
// objects for request validation failures; those fall back to the generic
// message like any other missing detail.
func parseDetail(body []byte) string {
	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	detail, _ := payload.Detail.(string)
	return strings.TrimSpace(detail)
}
