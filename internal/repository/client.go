// Package repository is the REST gateway to the RDF-backed store (the Guará
// API): JWT authentication, keyword search over a dataset, and creation of
// dimensional objects.
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RepoConfig addresses one dataset of the triple store for a single
// operation. It travels with each batch and is never cached.
type RepoConfig struct {
	QueryURL  string `json:"repository_query_url"`
	UpdateURL string `json:"repository_update_url"`
	BaseURI   string `json:"repository_base_uri"`
}

// Binding is one SPARQL result row: variable name -> typed cell.
type Binding map[string]BindingValue

type BindingValue struct {
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
}

// URI returns the binding's object URI, the field dedup relies on.
func (b Binding) URI() string {
	return b["obj"].Value
}

// CreateResult is the gateway's answer to a create request.
type CreateResult struct {
	ObjectURI string `json:"object_uri"`
}

type Config struct {
	BaseURL  string
	Email    string
	Password string
	Timeout  time.Duration
}

// Client talks to the Guará API. Safe for use by a single worker plus the
// HTTP handlers; the token is written only during Authenticate.
type Client struct {
	cfg    Config
	token  string
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Authenticate logs in and stores the bearer token for later calls.
// Missing credentials are reported, not fatal: search and create may still
// work against gateways with open datasets.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.cfg.Email == "" || c.cfg.Password == "" {
		c.logger.Warn("gateway.auth.no_credentials")
		return nil
	}

	body := map[string]any{"email": c.cfg.Email, "password": c.cfg.Password}
	raw, _, err := c.postJSON(ctx, c.cfg.BaseURL+"/acesso/login", body)
	if err != nil {
		return fmt.Errorf("gateway login: %w", err)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if resp.Token == "" {
		return fmt.Errorf("gateway login returned no token")
	}
	c.token = resp.Token
	c.logger.Info("gateway.auth.ok")
	return nil
}

// Search looks up existing entries matching a keyword in the dataset's query
// endpoint. Transport failures degrade to an empty result so duplicate
// checking never stalls a batch; an empty slice always means "no match".
func (c *Client) Search(ctx context.Context, keyword string, repo RepoConfig) []Binding {
	body := map[string]any{
		"keyword":    keyword,
		"repository": repo.QueryURL,
	}
	raw, _, err := c.postJSON(ctx, c.cfg.BaseURL+"/dim/list", body)
	if err != nil {
		c.logger.Error("gateway.search.failed", "keyword", keyword, "error", err)
		return nil
	}

	var resp struct {
		Results struct {
			Bindings []Binding `json:"bindings"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.Error("gateway.search.decode_failed", "keyword", keyword, "error", err)
		return nil
	}
	c.logger.Info("gateway.search.ok", "keyword", keyword, "matches", len(resp.Results.Bindings))
	return resp.Results.Bindings
}

// Create stores a new dimensional object. Failures propagate: the
// persistence worker decides what a create fault means for the batch.
func (c *Client) Create(ctx context.Context, payload map[string]any, repo RepoConfig) (CreateResult, error) {
	// The gateway expects item fields and dataset addressing in one body.
	body := make(map[string]any, len(payload)+3)
	for k, v := range payload {
		body[k] = v
	}
	body["repository_query_url"] = repo.QueryURL
	body["repository_update_url"] = repo.UpdateURL
	body["repository_base_uri"] = repo.BaseURI

	raw, _, err := c.postJSON(ctx, c.cfg.BaseURL+"/dim/create", body)
	if err != nil {
		return CreateResult{}, fmt.Errorf("gateway create: %w", err)
	}

	var result CreateResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return CreateResult{}, fmt.Errorf("decode create response: %w", err)
	}
	c.logger.Info("gateway.create.ok", "object_uri", result.ObjectURI)
	return result, nil
}

// ListRepositories fetches the datasets the gateway exposes. Degrades to an
// empty slice on failure, like Search.
func (c *Client) ListRepositories(ctx context.Context) []Binding {
	raw, err := c.getJSON(ctx, c.cfg.BaseURL+"/repositorios/listar_repositorios")
	if err != nil {
		c.logger.Error("gateway.list_repositories.failed", "error", err)
		return nil
	}

	var resp struct {
		Results struct {
			Bindings []Binding `json:"bindings"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.Error("gateway.list_repositories.decode_failed", "error", err)
		return nil
	}
	return resp.Results.Bindings
}

func (c *Client) postJSON(ctx context.Context, url string, body any) ([]byte, int, error) {
	reqID := uuid.New().String()
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("encode json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("gateway.http.send_error", "req_id", reqID, "url", url,
			"error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	c.logger.Debug("gateway.http.response", "req_id", reqID, "url", url,
		"status", resp.StatusCode, "bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds())

	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	return raw, resp.StatusCode, nil
}

func (c *Client) getJSON(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return raw, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	return raw, nil
}
