// Package qdrant provides a vector index adapter backed by the Qdrant
// REST API. It assumes cosine distance.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
	"github.com/custodia-labs/ragd/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// DefaultTimeout is the request timeout when none is configured.
const DefaultTimeout = 15 * time.Second

// Config holds configuration for the Qdrant index.
type Config struct {
	// URL is the Qdrant base URL, e.g. http://localhost:6333 (required).
	URL string

	// APIKey is the optional api-key header value.
	APIKey string

	// Timeout is the request timeout (default: 15s).
	Timeout time.Duration
}

// Index is a minimal REST client to Qdrant.
type Index struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewIndex creates a new Qdrant index client.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: Qdrant URL is required", domain.ErrNotConfigured)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Index{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
	}, nil
}

// collectionInfo is the subset of the collection description we need.
type collectionInfo struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size int `json:"size"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// searchResponse is the Qdrant search result format.
type searchResponse struct {
	Result []struct {
		Score   float64              `json:"score"`
		Payload domain.RecordPayload `json:"payload"`
	} `json:"result"`
}

// EnsureCollection creates the collection with the given dimension if it
// does not exist. An existing collection with a different vector size
// fails with ErrDimensionMismatch.
func (x *Index) EnsureCollection(ctx context.Context, name string, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrInvalidInput, dim)
	}

	status, body, err := x.do(ctx, http.MethodGet, "/collections/"+name, nil)
	if err != nil {
		return err
	}

	switch {
	case status == http.StatusOK:
		return x.checkDimension(name, body, dim)

	case status == http.StatusNotFound:
		logger.Debug("Creating collection %q (dim %d)", name, dim)
		create := map[string]any{
			"vectors": map[string]any{
				"size":     dim,
				"distance": "Cosine",
			},
		}
		status, body, err = x.do(ctx, http.MethodPut, "/collections/"+name, create)
		if err != nil {
			return err
		}
		if status == http.StatusConflict {
			// A concurrent caller created it between the describe and
			// the create. That is fine as long as the dimension agrees.
			status, body, err = x.do(ctx, http.MethodGet, "/collections/"+name, nil)
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("qdrant: describe collection %q: status %d: %s", name, status, body)
			}
			return x.checkDimension(name, body, dim)
		}
		if status >= 300 {
			return fmt.Errorf("qdrant: create collection %q: status %d: %s", name, status, body)
		}
		return nil

	default:
		return fmt.Errorf("qdrant: describe collection %q: status %d: %s", name, status, body)
	}
}

// checkDimension verifies a described collection matches the expected
// vector dimension.
func (x *Index) checkDimension(name string, body []byte, dim int) error {
	var info collectionInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return fmt.Errorf("decode collection info: %w", err)
	}
	existing := info.Result.Config.Params.Vectors.Size
	if existing != dim {
		return fmt.Errorf("%w: collection %q has dimension %d, want %d",
			domain.ErrDimensionMismatch, name, existing, dim)
	}
	return nil
}

// Upsert writes records into the collection, waiting for the write to
// be applied. All vectors must share the same dimension.
func (x *Index) Upsert(ctx context.Context, name string, records []domain.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}

	dim := len(records[0].Vector)
	points := make([]map[string]any, len(records))
	for i, r := range records {
		if len(r.Vector) != dim {
			return fmt.Errorf("%w: record %d has dimension %d, want %d",
				domain.ErrDimensionMismatch, i, len(r.Vector), dim)
		}
		points[i] = map[string]any{
			"id":      r.ID,
			"vector":  r.Vector,
			"payload": r.Payload,
		}
	}

	status, body, err := x.do(ctx, http.MethodPut, "/collections/"+name+"/points?wait=true",
		map[string]any{"points": points})
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("%w: %q", domain.ErrCollectionNotFound, name)
	}
	if status >= 300 {
		return fmt.Errorf("qdrant: upsert into %q: status %d: %s", name, status, body)
	}
	return nil
}

// Search returns the k nearest records by cosine similarity, best first.
func (x *Index) Search(ctx context.Context, name string, query []float32, k int) ([]domain.RetrievedChunk, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: query vector is empty", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrInvalidInput)
	}

	req := map[string]any{
		"vector":       query,
		"limit":        k,
		"with_payload": true,
	}
	status, body, err := x.do(ctx, http.MethodPost, "/collections/"+name+"/points/search", req)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %q", domain.ErrCollectionNotFound, name)
	}
	if status >= 300 {
		return nil, fmt.Errorf("qdrant: search %q: status %d: %s", name, status, body)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	chunks := make([]domain.RetrievedChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunks = append(chunks, domain.RetrievedChunk{
			Text: r.Payload.Text,
			Metadata: domain.Metadata{
				Source: r.Payload.Source,
				Page:   r.Payload.Page,
			},
			Score: r.Score,
		})
	}
	return chunks, nil
}

// Close releases resources.
func (x *Index) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// do sends one JSON request and returns the status code and body.
// Network timeouts map to ErrTimeout.
func (x *Index) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, x.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return 0, nil, fmt.Errorf("%w: qdrant %s %s: %v", domain.ErrTimeout, method, path, err)
		}
		return 0, nil, fmt.Errorf("qdrant %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// isTimeout reports whether err stems from a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}
