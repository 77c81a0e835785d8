// Package ai provides REST clients for the local inference endpoints used by
// the semantic layer: sentence embeddings (feature extraction) and zero-shot
// classification. Both are optional; callers probe availability once at
// startup and fall back to deterministic heuristics when a backend is
// missing.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config points the client at the inference endpoints. An empty URL disables
// the corresponding capability.
type Config struct {
	EmbeddingURL string
	ZeroShotURL  string
	Token        string
	Timeout      time.Duration
}

// Capabilities reports which semantic backends answered the startup probe.
type Capabilities struct {
	Embeddings bool
	ZeroShot   bool
}

// Client calls the inference endpoints over HTTP. Embeddings are cached per
// input string for the lifetime of the process.
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
	cache  sync.Map
}

// NewClient builds a Client; it performs no network I/O until Probe or the
// first call.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Probe checks each configured backend once with a tiny request. A backend
// that is unconfigured or unreachable is reported unavailable; the pipeline
// then runs on its fallbacks instead of failing per call.
func (c *Client) Probe(ctx context.Context) Capabilities {
	caps := Capabilities{}
	if c.cfg.EmbeddingURL != "" {
		if _, err := c.Embed(ctx, []string{"ping"}); err != nil {
			c.logger.Warn("embedding backend unavailable, using token-overlap fallback", zap.Error(err))
		} else {
			caps.Embeddings = true
		}
	}
	if c.cfg.ZeroShotURL != "" {
		if _, err := c.Classify(ctx, "ping", []string{"Person", "Organization"}); err != nil {
			c.logger.Warn("zero-shot backend unavailable, using keyword fallback", zap.Error(err))
		} else {
			caps.ZeroShot = true
		}
	}
	return caps
}

type embeddingRequest struct {
	Inputs []string `json:"inputs"`
}

// Embed returns one vector per input text, serving repeats from the cache.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	var missing []string
	var missingIdx []int
	for i, t := range texts {
		if v, ok := c.cache.Load(t); ok {
			out[i] = v.([]float64)
			continue
		}
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	var vectors [][]float64
	if err := c.post(ctx, c.cfg.EmbeddingURL, embeddingRequest{Inputs: missing}, &vectors); err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(missing) {
		return nil, fmt.Errorf("embed: got %d vectors for %d inputs", len(vectors), len(missing))
	}
	for i, v := range vectors {
		c.cache.Store(missing[i], v)
		out[missingIdx[i]] = v
	}
	return out, nil
}

type zeroShotRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters zeroShotParameters `json:"parameters"`
}

type zeroShotParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
}

type zeroShotResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// Classify returns the best-matching label for text from the candidate set.
func (c *Client) Classify(ctx context.Context, text string, labels []string) (string, error) {
	var resp zeroShotResponse
	req := zeroShotRequest{
		Inputs:     text,
		Parameters: zeroShotParameters{CandidateLabels: labels},
	}
	if err := c.post(ctx, c.cfg.ZeroShotURL, req, &resp); err != nil {
		return "", fmt.Errorf("zero-shot classify: %w", err)
	}
	if len(resp.Labels) == 0 {
		return "", fmt.Errorf("zero-shot classify: empty label list in response")
	}
	return resp.Labels[0], nil
}

func (c *Client) post(ctx context.Context, url string, payload, result any) error {
	if url == "" {
		return fmt.Errorf("endpoint not configured")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", url, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("close response body", zap.Error(cerr))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("call %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Cosine computes the cosine similarity between two vectors, in [-1, 1].
// Mismatched or empty vectors score 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
