package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragd/internal/core/domain"
)

// newTestServer returns a server that echoes one embedding per input,
// deliberately reversing the response order to exercise index sorting.
func newTestServer(t *testing.T, dims int) (*httptest.Server, *[]embeddingRequest) {
	t.Helper()
	var requests []embeddingRequest

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)

		type datum struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]datum, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			vec := make([]float64, dims)
			vec[0] = float64(len(req.Input[i]))
			data = append(data, datum{Embedding: vec, Index: i})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, &requests
}

func newService(t *testing.T, cfg Config) *EmbeddingService {
	t.Helper()
	svc, err := NewEmbeddingService(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestNewEmbeddingService_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := newService(t, Config{APIKey: "test-key"})
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, 1536, svc.Dimensions())
}

func TestEmbedBatch_PreservesInputOrder(t *testing.T) {
	server, _ := newTestServer(t, 8)
	svc := newService(t, Config{APIKey: "test-key", BaseURL: server.URL, Dimensions: 8})

	texts := []string{"a", "bb", "ccc"}
	vectors, err := svc.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	for i, text := range texts {
		require.Len(t, vectors[i], 8)
		assert.Equal(t, float32(len(text)), vectors[i][0], "vector %d out of order", i)
	}
}

func TestEmbedBatch_SplitsLargeBatches(t *testing.T) {
	server, requests := newTestServer(t, 4)
	svc := newService(t, Config{
		APIKey:       "test-key",
		BaseURL:      server.URL,
		Dimensions:   4,
		MaxBatchSize: 2,
	})

	texts := []string{"one", "twoo", "three", "fourr", "fivee"}
	vectors, err := svc.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 5)

	require.Len(t, *requests, 3)
	assert.Equal(t, []string{"one", "twoo"}, (*requests)[0].Input)
	assert.Equal(t, []string{"three", "fourr"}, (*requests)[1].Input)
	assert.Equal(t, []string{"fivee"}, (*requests)[2].Input)

	for i, text := range texts {
		assert.Equal(t, float32(len(text)), vectors[i][0])
	}
}

func TestEmbedBatch_EmptyInput(t *testing.T) {
	svc := newService(t, Config{APIKey: "test-key"})
	vectors, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedBatch_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid api key", "type": "auth"},
		})
	}))
	t.Cleanup(server.Close)

	svc := newService(t, Config{APIKey: "bad-key", BaseURL: server.URL})
	_, err := svc.EmbedBatch(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	t.Cleanup(server.Close)

	svc := newService(t, Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := svc.EmbedBatch(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
}

func TestEmbedBatch_DuplicatedIndex(t *testing.T) {
	// Right count, but the same index twice: one input has no vector,
	// which must fail here rather than as a mismatch at upsert time.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{
			map[string]any{"index": 0, "embedding": []float64{0.1, 0.2}},
			map[string]any{"index": 0, "embedding": []float64{0.3, 0.4}},
		}})
	}))
	t.Cleanup(server.Close)

	svc := newService(t, Config{APIKey: "test-key", BaseURL: server.URL})
	_, err := svc.EmbedBatch(context.Background(), []string{"first", "second"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Contains(t, err.Error(), "no embedding returned for input 1")
}

func TestEmbedBatch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, "{}")
	}))
	t.Cleanup(server.Close)

	svc := newService(t, Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 20 * time.Millisecond,
	})
	_, err := svc.EmbedBatch(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestEmbed_SingleText(t *testing.T) {
	server, _ := newTestServer(t, 4)
	svc := newService(t, Config{APIKey: "test-key", BaseURL: server.URL, Dimensions: 4})

	vector, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, vector, 4)
	assert.Equal(t, float32(5), vector[0])
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		fmt.Fprint(w, `{"data":[]}`)
	}))
	t.Cleanup(server.Close)

	svc := newService(t, Config{APIKey: "test-key", BaseURL: server.URL})
	assert.NoError(t, svc.Ping(context.Background()))
}
