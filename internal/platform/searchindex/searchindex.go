// Package searchindex is the search-engine collaborator: index
// creation, document upsert, single-shot proximity search, analyzer
// token streams, and scroll-based paginated reads. Modeled as a raw
// HTTP/JSON REST collaborator (no official OpenSearch/Elasticsearch Go
// client is available in this codebase's dependency set), in the same
// shape as the project's other hand-rolled vector-store HTTP client:
// a `doJSON` helper and a typed `OperationError`.
package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/yungbote/neurobridge-backend/internal/pkg/ctxutil"
	"github.com/yungbote/neurobridge-backend/internal/pkg/httpx"
	"github.com/yungbote/neurobridge-backend/internal/pkg/logger"
)

const (
	maxInFlight     = 16
	maxErrorBody    = 1024
	indexRetries    = 3
	indexRetryStart = time.Second
)

// Hit is one search result document.
type Hit struct {
	ID         string              `json:"_id"`
	Score      float64             `json:"_score"`
	Source     map[string]any      `json:"_source"`
	Highlights map[string][]string `json:"highlight,omitempty"`
}

// SearchResult is a single-shot search response.
type SearchResult struct {
	Hits      []Hit
	TotalHits int64
	ScrollID  string
}

// ScrollCursor yields pages of a paginated search using a server-side
// cursor; the consumer must call Close once exhausted or abandoned.
type ScrollCursor struct {
	idx       *Client
	scrollID  string
	keepAlive string
	first     []Hit
	done      bool
}

func (c *ScrollCursor) Next(ctx context.Context) ([]Hit, bool, error) {
	if c.done {
		return nil, false, nil
	}
	if len(c.first) > 0 {
		hits := c.first
		c.first = nil
		return hits, true, nil
	}
	req := map[string]any{
		"scroll":    c.keepAlive,
		"scroll_id": c.scrollID,
	}
	var resp scrollResponse
	if err := c.idx.doJSON(ctx, "scroll", http.MethodPost, "/_search/scroll", req, &resp); err != nil {
		return nil, false, err
	}
	c.scrollID = resp.ScrollID
	hits := resp.Hits.Hits
	if len(hits) == 0 {
		c.done = true
		_ = c.Close(ctx)
		return nil, false, nil
	}
	return hits, true, nil
}

func (c *ScrollCursor) Close(ctx context.Context) error {
	if c.scrollID == "" {
		return nil
	}
	err := c.idx.doJSON(ctx, "clear_scroll", http.MethodDelete, "/_search/scroll", map[string]any{
		"scroll_id": []string{c.scrollID},
	}, nil)
	c.scrollID = ""
	return err
}

type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
	sem     *semaphore.Weighted
}

func New(baseURL string, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
		log:     log,
		sem:     semaphore.NewWeighted(maxInFlight),
	}
}

// CreateIndex is idempotent: a 400 whose body reports the index already
// exists (e.g. "resource_already_exists_exception") is treated as success.
func (c *Client) CreateIndex(ctx context.Context, name string, mappings map[string]any) error {
	if err := c.doJSON(ctx, "index_exists", http.MethodGet, "/"+name, nil, nil); err == nil {
		return nil
	}

	createErr := c.doJSON(ctx, "create_index", http.MethodPut, "/"+name, mappings, nil)
	if createErr == nil {
		return nil
	}
	var ce *OperationError
	if errors.As(createErr, &ce) && ce.StatusCode == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(ce.Message), "already_exists") {
		return nil
	}
	return createErr
}

func (c *Client) RefreshIndex(ctx context.Context, name string) error {
	return c.doJSON(ctx, "refresh_index", http.MethodPost, "/"+name+"/_refresh", nil, nil)
}

// IndexDocument upserts by id, retrying transient failures with
// exponential backoff starting at 1s (3 attempts total).
func (c *Client) IndexDocument(ctx context.Context, index, docID string, body map[string]any, refresh bool) error {
	path := fmt.Sprintf("/%s/_doc/%s", index, docID)
	if refresh {
		path += "?refresh=true"
	}

	var lastErr error
	wait := indexRetryStart
	for attempt := 0; attempt < indexRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
		}
		lastErr = c.doJSON(ctx, "index_document", http.MethodPut, path, body, nil)
		if lastErr == nil {
			return nil
		}
		if !isRetryableOpErr(lastErr) {
			return lastErr
		}
		if c.log != nil {
			c.log.Warn("opensearch index_document retrying", "index", index, "doc_id", docID, "attempt", attempt+1, "error", lastErr)
		}
	}
	return lastErr
}

// UpdateDocument partially updates (or, via doc_as_upsert, creates) a
// document by id, merging partial into the existing source instead of
// replacing it wholesale — the shape the enricher needs to attach one
// signal at a time without clobbering fields written by an earlier pass.
func (c *Client) UpdateDocument(ctx context.Context, index, docID string, partial map[string]any, refresh bool) error {
	path := fmt.Sprintf("/%s/_update/%s", index, docID)
	if refresh {
		path += "?refresh=true"
	}
	body := map[string]any{"doc": partial, "doc_as_upsert": true}
	return c.doJSON(ctx, "update_document", http.MethodPost, path, body, nil)
}

func (c *Client) Search(ctx context.Context, index string, query map[string]any) (SearchResult, error) {
	var resp searchResponse
	if err := c.doJSON(ctx, "search", http.MethodPost, "/"+index+"/_search", query, &resp); err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Hits: resp.Hits.Hits, TotalHits: resp.Hits.Total.Value}, nil
}

// Analyze requests the analyzer's token stream for text under field,
// used to pre-tokenize phrase terms before building span queries.
func (c *Client) Analyze(ctx context.Context, index, field, text string) ([]string, error) {
	req := map[string]any{"field": field, "text": text}
	var resp analyzeResponse
	if err := c.doJSON(ctx, "analyze", http.MethodPost, "/"+index+"/_analyze", req, &resp); err != nil {
		return nil, err
	}
	tokens := make([]string, len(resp.Tokens))
	for i, t := range resp.Tokens {
		tokens[i] = t.Token
	}
	return tokens, nil
}

func (c *Client) PaginatedSearch(ctx context.Context, index string, query map[string]any, keepAlive string) (*ScrollCursor, error) {
	if keepAlive == "" {
		keepAlive = "5m"
	}
	var resp searchResponse
	if err := c.doJSON(ctx, "paginated_search", http.MethodPost, "/"+index+"/_search?scroll="+keepAlive, query, &resp); err != nil {
		return nil, err
	}
	return &ScrollCursor{idx: c, scrollID: resp.ScrollID, keepAlive: keepAlive, first: resp.Hits.Hits}, nil
}

type searchResponse struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []Hit `json:"hits"`
	} `json:"hits"`
}

type scrollResponse struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Hits []Hit `json:"hits"`
	} `json:"hits"`
}

type analyzeResponse struct {
	Tokens []struct {
		Token string `json:"token"`
	} `json:"tokens"`
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return opErr(op, OperationErrorTimeout, "semaphore acquire failed", err)
	}
	defer c.sem.Release(1)

	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, c.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "search index request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 10*maxErrorBody))
	if readErr != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", readErr)
	}

	if resp.StatusCode == http.StatusNotFound {
		return &OperationError{Code: OperationErrorQueryFailed, Operation: op, StatusCode: resp.StatusCode, Message: "not found"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("status=%d body=%q", resp.StatusCode, truncate(raw)),
		}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode response failed", err)
	}
	return nil
}

func classifyHTTPCallError(op, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	return opErr(op, OperationErrorTransportFailed, message, err)
}

func isRetryableOpErr(err error) bool {
	var opErr *OperationError
	if !errors.As(err, &opErr) {
		return false
	}
	if opErr.Code == OperationErrorTimeout || opErr.Code == OperationErrorTransportFailed {
		return true
	}
	return httpx.IsRetryableHTTPStatus(opErr.StatusCode)
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody])
	}
	return string(b)
}
