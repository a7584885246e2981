package sandbox

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

	"github.com/webforge-labs/webforge-backend/config"
	"github.com/webforge-labs/webforge-backend/internal/apperr"
)

// Client talks to the sandbox provider's REST API.
type Client struct {
	baseURL       string
	apiKey        string
	template      string
	devPort       int
	defaultClient *http.Client // file and control operations
	longClient    *http.Client // provision and dev-server start
}

var _ Gateway = (*Client)(nil)

func NewClient(cfg *config.SandboxConfig) *Client {
	opTimeout := cfg.OpTimeout
	if opTimeout == 0 {
		opTimeout = 30 * time.Second
	}
	longTimeout := cfg.Timeout
	if longTimeout == 0 {
		longTimeout = 3 * time.Minute
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		template:      cfg.Template,
		devPort:       cfg.DevPort,
		defaultClient: &http.Client{Timeout: opTimeout},
		longClient:    &http.Client{Timeout: longTimeout},
	}
}

func (c *Client) Provision(ctx context.Context) (Handle, error) {
	body := map[string]any{"template": c.template}

	var out struct {
		SandboxID string `json:"sandbox_id"`
	}
	if err := c.doJSON(ctx, c.longClient, http.MethodPost, "/sandboxes", nil, body, &out); err != nil {
		return Handle{}, err
	}
	if out.SandboxID == "" {
		return Handle{}, apperr.RemoteOperation("provision returned no sandbox id", nil)
	}
	return Handle{SandboxID: out.SandboxID}, nil
}

func (c *Client) Start(ctx context.Context, h Handle) (string, error) {
	body := map[string]any{"port": c.devPort}

	var out struct {
		URL string `json:"url"`
	}
	path := "/sandboxes/" + url.PathEscape(h.SandboxID) + "/start"
	if err := c.doJSON(ctx, c.longClient, http.MethodPost, path, nil, body, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", apperr.RemoteOperation("start returned no url", nil)
	}
	return out.URL, nil
}

func (c *Client) Reconnect(ctx context.Context, sandboxID string) (Handle, error) {
	path := "/sandboxes/" + url.PathEscape(sandboxID)
	if err := c.doJSON(ctx, c.defaultClient, http.MethodGet, path, nil, nil, nil); err != nil {
		return Handle{}, err
	}
	return Handle{SandboxID: sandboxID}, nil
}

func (c *Client) Terminate(ctx context.Context, h Handle) error {
	path := "/sandboxes/" + url.PathEscape(h.SandboxID)
	return c.doJSON(ctx, c.defaultClient, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) ReadFile(ctx context.Context, h Handle, filePath string) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	p := "/sandboxes/" + url.PathEscape(h.SandboxID) + "/files"
	q := url.Values{"path": {filePath}}
	if err := c.doJSON(ctx, c.defaultClient, http.MethodGet, p, q, nil, &out); err != nil {
		return "", err
	}
	return out.Content, nil
}

func (c *Client) WriteFile(ctx context.Context, h Handle, filePath, content string) error {
	p := "/sandboxes/" + url.PathEscape(h.SandboxID) + "/files"
	q := url.Values{"path": {filePath}}
	return c.doJSON(ctx, c.defaultClient, http.MethodPut, p, q, map[string]any{"content": content}, nil)
}

func (c *Client) CreateEntry(ctx context.Context, h Handle, filePath, kind, content string) error {
	p := "/sandboxes/" + url.PathEscape(h.SandboxID) + "/files"
	body := map[string]any{"path": filePath, "type": kind, "content": content}
	return c.doJSON(ctx, c.defaultClient, http.MethodPost, p, nil, body, nil)
}

func (c *Client) DeleteEntry(ctx context.Context, h Handle, filePath string) error {
	p := "/sandboxes/" + url.PathEscape(h.SandboxID) + "/files"
	q := url.Values{"path": {filePath}}
	return c.doJSON(ctx, c.defaultClient, http.MethodDelete, p, q, nil, nil)
}

func (c *Client) List(ctx context.Context, h Handle, root string) ([]Entry, error) {
	var out struct {
		Entries []Entry `json:"entries"`
	}
	p := "/sandboxes/" + url.PathEscape(h.SandboxID) + "/files/list"
	q := url.Values{"root": {root}}
	if err := c.doJSON(ctx, c.defaultClient, http.MethodGet, p, q, nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// doJSON issues one request and decodes the response into out when out is
// non-nil. Non-2xx responses become RemoteOperation errors carrying the
// status and a snippet of the body.
func (c *Client) doJSON(ctx context.Context, client *http.Client, method, path string, query url.Values, body, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return apperr.RemoteOperation("sandbox provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperr.RemoteOperation(
			fmt.Sprintf("sandbox provider returned status %d", resp.StatusCode),
			fmt.Errorf("%s %s: %s", method, path, strings.TrimSpace(string(snippet))),
		)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.RemoteOperation("decode sandbox provider response", err)
	}
	return nil
}
