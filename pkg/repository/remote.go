package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/engram/pkg/model"
	"github.com/m-mizutani/engram/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Remote is a pass-through adapter translating backend calls into HTTP
// requests against a remote memory service. Semantic search,
// deduplication and knowledge-graph logic live server-side; this client
// only maps requests and responses faithfully.
type Remote struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	mu    sync.RWMutex
	ready bool
}

// NewRemote creates a remote backend for the given base URL and API key
func NewRemote(baseURL, apiKey string) *Remote {
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Initialize verifies connectivity to the remote service. A failure here
// is a connectivity error and aborts server startup.
func (r *Remote) Initialize(ctx context.Context) error {
	resp, err := r.do(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return goerr.Wrap(err, "memory service is not reachable", goerr.V("url", r.baseURL))
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return goerr.Wrap(err, "memory service health check failed")
	}

	r.mu.Lock()
	r.ready = true
	r.mu.Unlock()

	logging.From(ctx).Debug("remote memory service connected", "url", r.baseURL)
	return nil
}

type remoteRememberRequest struct {
	Content    string         `json:"content"`
	Type       string         `json:"type,omitempty"`
	Importance *float64       `json:"importance,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Remember stores a memory via the remote service
func (r *Remote) Remember(ctx context.Context, input RememberInput) (*model.Memory, error) {
	if input.Content == "" {
		return nil, goerr.Wrap(model.ErrEmptyContent, "remember")
	}

	resp, err := r.do(ctx, http.MethodPost, "/api/memories", &remoteRememberRequest{
		Content:    input.Content,
		Type:       string(input.Type),
		Importance: input.Importance,
		Metadata:   input.Metadata,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var obj map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&obj); err != nil {
		return nil, goerr.Wrap(err, "failed to decode remember response")
	}

	// Some deployments wrap the record in an envelope
	if inner, ok := obj["memory"].(map[string]any); ok {
		obj = inner
	}

	return decodeMemory(obj)
}

type remoteSearchRequest struct {
	Query         string   `json:"query"`
	Limit         int      `json:"limit"`
	Types         []string `json:"types,omitempty"`
	MinImportance *float64 `json:"min_importance,omitempty"`
	MinScore      *float64 `json:"min_score,omitempty"`
}

// Recall performs a relevance search without the minimum-score floor
func (r *Remote) Recall(ctx context.Context, query string, opts QueryOptions) ([]*model.SearchResult, error) {
	opts.MinScore = nil
	return r.Search(ctx, query, opts)
}

// Search performs a relevance search via the remote service
func (r *Remote) Search(ctx context.Context, query string, opts QueryOptions) ([]*model.SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	var types []string
	for _, t := range opts.Types {
		types = append(types, string(t))
	}

	resp, err := r.do(ctx, http.MethodPost, "/api/memories/search", &remoteSearchRequest{
		Query:         query,
		Limit:         limit,
		Types:         types,
		MinImportance: opts.MinImportance,
		MinScore:      opts.MinScore,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read search response")
	}

	return decodeSearchResults(body)
}

// Forget deletes a memory via the remote service. A 404 means the ID was
// unknown and yields false without error.
func (r *Remote) Forget(ctx context.Context, id model.MemoryID, reason string) (bool, error) {
	path := "/api/memories/" + url.PathEscape(string(id))
	if reason != "" {
		path += "?reason=" + url.QueryEscape(reason)
	}

	resp, err := r.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if err := checkStatus(resp); err != nil {
		return false, err
	}

	return true, nil
}

// Get retrieves a memory by ID. A 404 yields nil without error.
func (r *Remote) Get(ctx context.Context, id model.MemoryID) (*model.Memory, error) {
	resp, err := r.do(ctx, http.MethodGet, "/api/memories/"+url.PathEscape(string(id)), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var obj map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&obj); err != nil {
		return nil, goerr.Wrap(err, "failed to decode get response")
	}
	if inner, ok := obj["memory"].(map[string]any); ok {
		obj = inner
	}

	return decodeMemory(obj)
}

// List retrieves recent memories with pagination
func (r *Remote) List(ctx context.Context, offset, limit int) ([]*model.Memory, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	path := fmt.Sprintf("/api/memories?limit=%d&offset=%d", limit, offset)
	resp, err := r.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read list response")
	}

	return decodeMemoryList(body)
}

// IsReady reports whether Initialize has completed
func (r *Remote) IsReady() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready
}

// Info returns the remote backend capability descriptor
func (r *Remote) Info() *model.BackendInfo {
	return &model.BackendInfo{
		BackendType: "remote",
		Connected:   r.IsReady(),
		SupportedFeatures: []string{
			"semantic-search",
			"deduplication",
			"knowledge-graph",
			"metadata",
		},
	}
}

// do issues a single HTTP request. One outstanding request per call; no
// retry or backoff, a network failure propagates to the caller.
func (r *Remote) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to encode request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request", goerr.V("path", path))
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.apiKey != "" {
		req.Header.Set("X-API-Key", r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send request", goerr.V("path", path))
	}

	return resp, nil
}

// checkStatus converts any non-2xx response into a failure carrying the
// response body text
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	return goerr.New("memory service returned error",
		goerr.V("status", resp.StatusCode),
		goerr.V("body", string(body)))
}
