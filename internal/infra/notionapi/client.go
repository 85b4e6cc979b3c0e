package notionapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	notiondomain "github.com/spullara/notiontoobsidian/internal/domain/notion"
)

const (
	DefaultBaseURL  = "https://api.notion.com"
	DefaultPageSize = 100

	notionVersion = "2022-06-28"
)

// Client is a typed Notion API record source. It exposes database lookup,
// cursor-paginated page queries, and cursor-paginated block listings.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	pageSize   int
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithPageSize(pageSize int) Option {
	return func(c *Client) {
		if pageSize > 0 {
			c.pageSize = pageSize
		}
	}
}

func New(token string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		token:      token,
		pageSize:   DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type listResponse struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor *string           `json:"next_cursor"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FindDatabase resolves a database by id, or by title search when idOrTitle
// does not look like an id.
func (c *Client) FindDatabase(ctx context.Context, idOrTitle string) (notiondomain.Database, error) {
	idOrTitle = strings.TrimSpace(idOrTitle)
	if idOrTitle == "" {
		return notiondomain.Database{}, fmt.Errorf("database id or title is required")
	}
	if isDatabaseID(idOrTitle) {
		return c.getDatabase(ctx, idOrTitle)
	}
	return c.searchDatabase(ctx, idOrTitle)
}

func (c *Client) getDatabase(ctx context.Context, id string) (notiondomain.Database, error) {
	raw, err := c.get(ctx, "/v1/databases/"+url.PathEscape(id), nil)
	if err != nil {
		return notiondomain.Database{}, err
	}
	db, err := decodeDatabase(raw)
	if err != nil {
		return notiondomain.Database{}, fmt.Errorf("decode database %s: %w", id, err)
	}
	return db, nil
}

func (c *Client) searchDatabase(ctx context.Context, title string) (notiondomain.Database, error) {
	body := map[string]any{
		"query":  title,
		"filter": map[string]any{"property": "object", "value": "database"},
	}
	raw, err := c.post(ctx, "/v1/search", body)
	if err != nil {
		return notiondomain.Database{}, err
	}
	var list listResponse
	if err := json.Unmarshal(raw, &list); err != nil {
		return notiondomain.Database{}, fmt.Errorf("decode search response: %w", err)
	}
	for _, result := range list.Results {
		db, err := decodeDatabase(result)
		if err != nil {
			return notiondomain.Database{}, fmt.Errorf("decode search result: %w", err)
		}
		if strings.EqualFold(strings.TrimSpace(db.Title), title) {
			return db, nil
		}
	}
	// No exact title match: fall back to the first database the search ranked.
	for _, result := range list.Results {
		db, err := decodeDatabase(result)
		if err != nil {
			return notiondomain.Database{}, fmt.Errorf("decode search result: %w", err)
		}
		return db, nil
	}
	return notiondomain.Database{}, fmt.Errorf("no database found matching %q", title)
}

// QueryPages fetches one page of database records. The cursor is opaque; an
// empty next cursor signals the last page.
func (c *Client) QueryPages(ctx context.Context, databaseID string, cursor string) ([]notiondomain.Page, string, error) {
	body := map[string]any{"page_size": c.pageSize}
	if cursor != "" {
		body["start_cursor"] = cursor
	}
	raw, err := c.post(ctx, "/v1/databases/"+url.PathEscape(databaseID)+"/query", body)
	if err != nil {
		return nil, "", err
	}
	var list listResponse
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, "", fmt.Errorf("decode query response: %w", err)
	}
	pages := make([]notiondomain.Page, 0, len(list.Results))
	for _, result := range list.Results {
		page, err := decodePage(result)
		if err != nil {
			return nil, "", fmt.Errorf("decode page: %w", err)
		}
		pages = append(pages, page)
	}
	return pages, nextCursor(list), nil
}

// ListBlocks fetches one page of a record's content blocks, in source order.
func (c *Client) ListBlocks(ctx context.Context, pageID string, cursor string) ([]notiondomain.Block, string, error) {
	query := url.Values{}
	query.Set("page_size", strconv.Itoa(c.pageSize))
	if cursor != "" {
		query.Set("start_cursor", cursor)
	}
	raw, err := c.get(ctx, "/v1/blocks/"+url.PathEscape(pageID)+"/children", query)
	if err != nil {
		return nil, "", err
	}
	var list listResponse
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, "", fmt.Errorf("decode block response: %w", err)
	}
	blocks := make([]notiondomain.Block, 0, len(list.Results))
	for _, result := range list.Results {
		block, err := decodeBlock(result)
		if err != nil {
			return nil, "", fmt.Errorf("decode block: %w", err)
		}
		blocks = append(blocks, block)
	}
	return blocks, nextCursor(list), nil
}

func nextCursor(list listResponse) string {
	if !list.HasMore || list.NextCursor == nil {
		return ""
	}
	return *list.NextCursor
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", notionVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", req.URL.Path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("%s %s: %s (%s)", req.Method, req.URL.Path, apiErr.Message, resp.Status)
		}
		return nil, fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, resp.Status)
	}
	return payload, nil
}

// isDatabaseID reports whether s looks like a Notion database id: 32 hex
// digits, optionally dash-grouped as a UUID.
func isDatabaseID(s string) bool {
	s = strings.ReplaceAll(s, "-", "")
	if len(s) != 32 {
		return false
	}
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F') {
			continue
		}
		return false
	}
	return true
}
