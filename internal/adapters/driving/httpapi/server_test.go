package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragd/internal/core/domain"
)

// --- test doubles -----------------------------------------------------------

type stubIngestor struct {
	inputs     []domain.RawInput
	collection string
	report     *domain.IngestReport
	err        error
}

func (s *stubIngestor) Ingest(_ context.Context, inputs []domain.RawInput, collection string) (*domain.IngestReport, error) {
	s.inputs = inputs
	s.collection = collection
	if s.err != nil {
		return nil, s.err
	}
	if s.report != nil {
		return s.report, nil
	}
	return &domain.IngestReport{
		Collection:      collection,
		Documents:       len(inputs),
		Chunks:          len(inputs),
		RecordsUpserted: len(inputs),
	}, nil
}

type stubChat struct {
	message    string
	collection string
	deltas     []string
	midErr     error
	startErr   error
}

func (s *stubChat) StreamAnswer(_ context.Context, message, collection string) (<-chan domain.StreamChunk, error) {
	s.message = message
	s.collection = collection
	if s.startErr != nil {
		return nil, s.startErr
	}

	out := make(chan domain.StreamChunk, len(s.deltas)+1)
	for _, d := range s.deltas {
		out <- domain.StreamChunk{Delta: d}
	}
	if s.midErr != nil {
		out <- domain.StreamChunk{Err: s.midErr}
	}
	close(out)
	return out, nil
}

type stubRetriever struct {
	query      string
	collection string
	k          int
	results    []domain.RetrievedChunk
	err        error
}

func (s *stubRetriever) Retrieve(_ context.Context, query, collection string, k int) ([]domain.RetrievedChunk, error) {
	s.query = query
	s.collection = collection
	s.k = k
	return s.results, s.err
}

type stubLog struct {
	stats []domain.CollectionStats
	err   error
}

func (s *stubLog) Record(_ context.Context, _ domain.IngestionEntry) error { return nil }

func (s *stubLog) Collections(_ context.Context) ([]domain.CollectionStats, error) {
	return s.stats, s.err
}

func (s *stubLog) Close() error { return nil }

func newTestServer(deps Dependencies) *Server {
	return New(Config{DefaultCollection: "research_papers"}, deps)
}

// --- upload -----------------------------------------------------------------

func TestUpload_JSONTexts(t *testing.T) {
	ingestor := &stubIngestor{}
	server := newTestServer(Dependencies{Ingestor: ingestor})

	body := `{"texts":["first text","second text"],"collection":"papers"}`
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "papers", ingestor.collection)
	require.Len(t, ingestor.inputs, 2)
	assert.Equal(t, domain.KindText, ingestor.inputs[0].Kind)
	assert.Equal(t, domain.JSONTextSource, ingestor.inputs[0].SourceName)
	assert.Equal(t, "first text", string(ingestor.inputs[0].Content))

	var report map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, float64(2), report["documentsFound"])
	assert.Equal(t, float64(2), report["chunksIndexed"])
	assert.Equal(t, "papers", report["collection"])
}

func TestUpload_JSONSingleText(t *testing.T) {
	ingestor := &stubIngestor{}
	server := newTestServer(Dependencies{Ingestor: ingestor})

	body := `{"text":"only one","collection":"papers"}`
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ingestor.inputs, 1)
	assert.Equal(t, "only one", string(ingestor.inputs[0].Content))
}

func TestUpload_MissingCollectionPassedThrough(t *testing.T) {
	// No implicit default for uploads; the service decides.
	ingestor := &stubIngestor{err: fmt.Errorf("%w: collection name is empty", domain.ErrInvalidInput)}
	server := newTestServer(Dependencies{Ingestor: ingestor})

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(`{"text":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ingestor.collection)
}

func TestUpload_Multipart(t *testing.T) {
	ingestor := &stubIngestor{}
	server := newTestServer(Dependencies{Ingestor: ingestor})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	pdfPart, err := writer.CreateFormFile("files", "paper.PDF")
	require.NoError(t, err)
	_, _ = pdfPart.Write([]byte("%PDF-1.4 fake"))

	txtPart, err := writer.CreateFormFile("files", "notes.txt")
	require.NoError(t, err)
	_, _ = txtPart.Write([]byte("plain notes"))

	require.NoError(t, writer.WriteField("texts", "pasted text"))
	require.NoError(t, writer.WriteField("collection", "papers"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "papers", ingestor.collection)
	require.Len(t, ingestor.inputs, 3)

	assert.Equal(t, domain.KindPDF, ingestor.inputs[0].Kind)
	assert.Equal(t, "paper.PDF", ingestor.inputs[0].SourceName)
	assert.Equal(t, domain.KindText, ingestor.inputs[1].Kind)
	assert.Equal(t, "notes.txt", ingestor.inputs[1].SourceName)
	assert.Equal(t, domain.KindText, ingestor.inputs[2].Kind)
	assert.Empty(t, ingestor.inputs[2].SourceName)
	assert.Equal(t, "pasted text", string(ingestor.inputs[2].Content))
}

func TestUpload_UnsupportedContentType(t *testing.T) {
	server := newTestServer(Dependencies{Ingestor: &stubIngestor{}})

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("plain body"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_input", resp.Error)
	assert.NotEmpty(t, resp.Message)
}

func TestUpload_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"not configured", fmt.Errorf("%w: no API key", domain.ErrNotConfigured), http.StatusInternalServerError, "not_configured"},
		{"empty input", fmt.Errorf("%w: nothing to index", domain.ErrEmptyInput), http.StatusBadRequest, "empty_input"},
		{"timeout", fmt.Errorf("%w: embeddings", domain.ErrTimeout), http.StatusGatewayTimeout, "timeout"},
		{"embedding", fmt.Errorf("%w: upstream 500", domain.ErrEmbedding), http.StatusInternalServerError, "embedding_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(Dependencies{Ingestor: &stubIngestor{err: tt.err}})

			req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(`{"text":"x"}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantKind, resp.Error)
		})
	}
}

// --- chat -------------------------------------------------------------------

func TestChat_StreamsPlainText(t *testing.T) {
	chat := &stubChat{deltas: []string{"The answer ", "is ", "42."}}
	server := newTestServer(Dependencies{Chat: chat})

	req := httptest.NewRequest(http.MethodPost, "/api/rag-chat",
		strings.NewReader(`{"message":"what is the answer?","collection":"papers"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, "The answer is 42.", rec.Body.String())
	assert.Equal(t, "what is the answer?", chat.message)
	assert.Equal(t, "papers", chat.collection)
}

func TestChat_DefaultCollection(t *testing.T) {
	chat := &stubChat{deltas: []string{"ok"}}
	server := newTestServer(Dependencies{Chat: chat})

	req := httptest.NewRequest(http.MethodPost, "/api/rag-chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "research_papers", chat.collection)
}

func TestChat_MidStreamErrorTruncates(t *testing.T) {
	chat := &stubChat{
		deltas: []string{"partial "},
		midErr: fmt.Errorf("%w: connection reset", domain.ErrGeneration),
	}
	server := newTestServer(Dependencies{Chat: chat})

	req := httptest.NewRequest(http.MethodPost, "/api/rag-chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	// Status was already committed; the body is simply cut short.
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "partial ", rec.Body.String())
}

func TestChat_StartErrorsBeforeStreaming(t *testing.T) {
	chat := &stubChat{startErr: fmt.Errorf("%w: message is empty", domain.ErrInvalidInput)}
	server := newTestServer(Dependencies{Chat: chat})

	req := httptest.NewRequest(http.MethodPost, "/api/rag-chat", strings.NewReader(`{"message":""}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_input", resp.Error)
}

func TestChat_MalformedBody(t *testing.T) {
	server := newTestServer(Dependencies{Chat: &stubChat{}})

	req := httptest.NewRequest(http.MethodPost, "/api/rag-chat", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- search -----------------------------------------------------------------

func TestSearch_ReturnsScoredPassages(t *testing.T) {
	retriever := &stubRetriever{results: []domain.RetrievedChunk{
		{Text: "the quick brown fox", Metadata: domain.Metadata{Source: "animals.txt"}, Score: 0.91},
		{Text: "a lazy dog", Metadata: domain.Metadata{Source: "animals.txt"}, Score: 0.42},
	}}
	server := newTestServer(Dependencies{Retriever: retriever})

	body := `{"query":"fox","collection":"papers","topK":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fox", retriever.query)
	assert.Equal(t, "papers", retriever.collection)
	assert.Equal(t, 2, retriever.k)

	var resp struct {
		Results []domain.RetrievedChunk `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "the quick brown fox", resp.Results[0].Text)
	assert.InDelta(t, 0.91, resp.Results[0].Score, 1e-9)
}

func TestSearch_DefaultCollectionAndEmptyResults(t *testing.T) {
	retriever := &stubRetriever{}
	server := newTestServer(Dependencies{Retriever: retriever})

	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"query":"fox"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "research_papers", retriever.collection)
	assert.JSONEq(t, `{"results":[]}`, rec.Body.String())
}

func TestSearch_MissingCollection(t *testing.T) {
	retriever := &stubRetriever{
		err: fmt.Errorf("%w: %q", domain.ErrCollectionNotFound, "ghost"),
	}
	server := newTestServer(Dependencies{Retriever: retriever})

	body := `{"query":"fox","collection":"ghost"}`
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "collection_not_found")
}

// --- collections and health -------------------------------------------------

func TestCollections_ReturnsStats(t *testing.T) {
	log := &stubLog{stats: []domain.CollectionStats{
		{Collection: "papers", Batches: 2, Documents: 3, Chunks: 14, LastIngestedAt: time.Now()},
	}}
	server := newTestServer(Dependencies{IngestLog: log})

	req := httptest.NewRequest(http.MethodGet, "/api/collections", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Collections []domain.CollectionStats `json:"collections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Collections, 1)
	assert.Equal(t, "papers", resp.Collections[0].Collection)
}

func TestCollections_EmptyListNotNull(t *testing.T) {
	server := newTestServer(Dependencies{IngestLog: &stubLog{}})

	req := httptest.NewRequest(http.MethodGet, "/api/collections", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"collections":[]}`, rec.Body.String())
}

func TestCollections_NoLogConfigured(t *testing.T) {
	server := newTestServer(Dependencies{})

	req := httptest.NewRequest(http.MethodGet, "/api/collections", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthz(t *testing.T) {
	server := newTestServer(Dependencies{Ingestor: &stubIngestor{}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, true, resp["ingestion"])
	assert.Equal(t, false, resp["chat"])
}
