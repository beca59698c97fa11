// Package embedder wraps the external embedding-model collaborator the
// enricher uses for the embedding-relevance signal: a black-box
// text-in/vector-out HTTP service, not a bundled model.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	gazetteerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
	"github.com/yungbote/neurobridge-backend/internal/pkg/httpx"
	"github.com/yungbote/neurobridge-backend/internal/pkg/logger"
)

// Client embeds batches of text into fixed-width vectors.
type Client interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	log        *logger.Logger
}

func New(baseURL, model string, httpClient *http.Client, log *logger.Logger) Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: httpClient,
		log:        log,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

const maxAttempts = 3

func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	clean := make([]string, len(inputs))
	for i, s := range inputs {
		s = strings.TrimSpace(s)
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	req := embedRequest{Model: c.model, Input: clean}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, gazetteerrors.Wrap("marshal embedding request", err)
	}

	var resp embedResponse
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(httpx.JitterSleep(backoff(attempt))):
			}
		}
		lastErr = c.doEmbed(ctx, payload, &resp)
		if lastErr == nil {
			break
		}
		if gazetteerrors.Classify(lastErr) != gazetteerrors.CategoryTransient {
			return nil, lastErr
		}
		if c.log != nil {
			c.log.Warn("embedding request retrying", "attempt", attempt+1, "error", lastErr)
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}

	out := make([][]float32, len(clean))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		out[d.Index] = vec
	}
	return out, nil
}

func (c *client) doEmbed(ctx context.Context, payload []byte, out *embedResponse) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return gazetteerrors.Wrap("build embedding request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return gazetteerrors.Transient("embedding request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gazetteerrors.Transient("read embedding response", err)
	}
	if httpx.IsRetryableHTTPStatus(resp.StatusCode) {
		return gazetteerrors.Transient(fmt.Sprintf("embedding service status %d", resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return gazetteerrors.Wrap(fmt.Sprintf("embedding service status %d: %s", resp.StatusCode, string(body)), gazetteerrors.ErrInvalidInput)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return gazetteerrors.Wrap("decode embedding response", err)
	}
	return nil
}

func backoff(attempt int) time.Duration {
	d := time.Second
	for i := 0; i < attempt; i++ {
		d *= 2
	}
	return d
}

// CosineMaxTopK returns, for each excerpt vector, the max cosine similarity
// against any query vector in queries — the embedding-relevance signal the
// enricher attaches to each excerpt.
func CosineMaxTopK(excerptVec []float32, queryVecs [][]float32) float64 {
	best := 0.0
	for _, q := range queryVecs {
		if sim := cosine(excerptVec, q); sim > best {
			best = sim
		}
	}
	return best
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
