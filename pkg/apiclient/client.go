// Package apiclient is a typed HTTP client for the quill workspace API.
package apiclient

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/papercomputeco/quill/pkg/llm"
	"github.com/papercomputeco/quill/pkg/storage"
	"github.com/papercomputeco/quill/pkg/workspace"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned %d: %s", e.Status, e.Message)
}

// Client talks to a quill API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default client (30s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for the API at baseURL (e.g. "http://localhost:8081").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListPages(ctx context.Context, parentID string) ([]*workspace.Page, error) {
	q := url.Values{}
	if parentID != "" {
		q.Set("parentId", parentID)
	}
	var out struct {
		Pages []*workspace.Page `json:"pages"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/workspace/pages", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Pages, nil
}

func (c *Client) GetPage(ctx context.Context, id string) (*workspace.Page, error) {
	var out struct {
		Page *workspace.Page `json:"page"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/workspace/pages/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Page, nil
}

func (c *Client) CreatePage(ctx context.Context, in workspace.PageInput) (*workspace.Page, error) {
	var out struct {
		Page *workspace.Page `json:"page"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/workspace/pages", nil, in, &out); err != nil {
		return nil, err
	}
	return out.Page, nil
}

// DeletePage deletes a page and its descendants.
func (c *Client) DeletePage(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/workspace/pages/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ListTables(ctx context.Context) ([]*workspace.Table, error) {
	var out struct {
		Tables []*workspace.Table `json:"tables"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/workspace/tables", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Tables, nil
}

func (c *Client) GetTable(ctx context.Context, id string) (*workspace.Table, error) {
	var out struct {
		Table *workspace.Table `json:"table"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/workspace/tables/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Table, nil
}

func (c *Client) CreateTable(ctx context.Context, in workspace.TableInput) (*workspace.Table, error) {
	var out struct {
		Table *workspace.Table `json:"table"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/workspace/tables", nil, in, &out); err != nil {
		return nil, err
	}
	return out.Table, nil
}

func (c *Client) AppendRow(ctx context.Context, tableID string, cells map[string]any) (workspace.Row, error) {
	body := struct {
		Cells map[string]any `json:"cells"`
	}{Cells: cells}
	var out struct {
		Row workspace.Row `json:"row"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/workspace/tables/"+url.PathEscape(tableID)+"/rows", nil, body, &out); err != nil {
		return workspace.Row{}, err
	}
	return out.Row, nil
}

// BuildContext renders the referenced documents into relay context text.
func (c *Client) BuildContext(ctx context.Context, refs []workspace.ContextRef) (string, error) {
	body := struct {
		Items []workspace.ContextRef `json:"items"`
	}{Items: refs}
	var out struct {
		Context string `json:"context"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/workspace/context", nil, body, &out); err != nil {
		return "", err
	}
	return out.Context, nil
}

// ListTurns returns recorded relay turns, newest first. A zero limit
// returns all of them.
func (c *Client) ListTurns(ctx context.Context, limit int) ([]*storage.Turn, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	var out struct {
		Turns []*storage.Turn `json:"turns"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/chat/turns", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Turns, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	// Setting Accept-Encoding ourselves turns off the transport's transparent
	// gzip handling, so both encodings are decoded below.
	req.Header.Set("Accept-Encoding", "br, gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request to api: %w", err)
	}
	defer resp.Body.Close()

	reader, err := decodedBody(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e llm.ErrorResponse
		if err := json.NewDecoder(reader).Decode(&e); err == nil && e.Error != "" {
			apiErr.Message = e.Error
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(reader).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodedBody(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "br":
		return brotli.NewReader(resp.Body), nil
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return zr, nil
	default:
		return resp.Body, nil
	}
}
