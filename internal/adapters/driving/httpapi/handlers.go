package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/logger"
)

// uploadJSONRequest is the JSON body of POST /api/upload.
type uploadJSONRequest struct {
	Texts      []string `json:"texts"`
	Text       string   `json:"text"`
	Collection string   `json:"collection"`
}

// chatRequest is the JSON body of POST /api/rag-chat.
type chatRequest struct {
	Message    string `json:"message"`
	Collection string `json:"collection"`
}

// searchRequest is the JSON body of POST /api/search.
type searchRequest struct {
	Query      string `json:"query"`
	Collection string `json:"collection"`
	TopK       int    `json:"topK"`
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handleHealth reports liveness and which backends are wired.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"ingestion": s.deps.Ingestor != nil,
		"chat":      s.deps.Chat != nil,
	})
}

// handleUpload accepts documents as multipart form data or JSON and
// indexes them into the requested collection.
func (s *Server) handleUpload(c *gin.Context) {
	var (
		inputs     []domain.RawInput
		collection string
		err        error
	)

	contentType := c.ContentType()
	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		inputs, collection, err = s.parseMultipartUpload(c)
	case contentType == "application/json":
		inputs, collection, err = s.parseJSONUpload(c)
	default:
		err = fmt.Errorf("%w: unsupported content type %q", domain.ErrInvalidInput, contentType)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	// No implicit default at ingestion time: a missing collection name
	// is rejected by the service rather than silently mixing corpora.
	report, err := s.deps.Ingestor.Ingest(c.Request.Context(), inputs, collection)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// parseMultipartUpload reads "files", "texts" and "collection" parts.
func (s *Server) parseMultipartUpload(c *gin.Context) ([]domain.RawInput, string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, "", fmt.Errorf("%w: parse multipart form: %v", domain.ErrInvalidInput, err)
	}

	var inputs []domain.RawInput
	for _, header := range form.File["files"] {
		file, err := header.Open()
		if err != nil {
			return nil, "", fmt.Errorf("%w: open %q: %v", domain.ErrInvalidInput, header.Filename, err)
		}
		content, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, "", fmt.Errorf("%w: read %q: %v", domain.ErrInvalidInput, header.Filename, err)
		}
		inputs = append(inputs, domain.RawInput{
			Kind:       kindForFilename(header.Filename),
			SourceName: header.Filename,
			Content:    content,
		})
	}
	for _, text := range form.Value["texts"] {
		inputs = append(inputs, domain.RawInput{
			Kind:    domain.KindText,
			Content: []byte(text),
		})
	}

	collection := ""
	if values := form.Value["collection"]; len(values) > 0 {
		collection = values[0]
	}
	return inputs, collection, nil
}

// parseJSONUpload reads a {texts, text, collection} body.
func (s *Server) parseJSONUpload(c *gin.Context) ([]domain.RawInput, string, error) {
	var req uploadJSONRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, "", fmt.Errorf("%w: parse JSON body: %v", domain.ErrInvalidInput, err)
	}

	texts := req.Texts
	if req.Text != "" {
		texts = append(texts, req.Text)
	}

	inputs := make([]domain.RawInput, 0, len(texts))
	for _, text := range texts {
		inputs = append(inputs, domain.RawInput{
			Kind:       domain.KindText,
			SourceName: domain.JSONTextSource,
			Content:    []byte(text),
		})
	}
	return inputs, req.Collection, nil
}

// handleChat streams a retrieval-grounded answer as plain text.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: parse JSON body: %v", domain.ErrInvalidInput, err))
		return
	}

	collection := req.Collection
	if collection == "" {
		collection = s.config.DefaultCollection
	}

	stream, err := s.deps.Chat.StreamAnswer(c.Request.Context(), req.Message, collection)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	flusher, canFlush := c.Writer.(http.Flusher)
	for chunk := range stream {
		if chunk.Err != nil {
			// Headers are gone; all we can do is truncate the body.
			logger.Warn("Chat stream aborted: %v", chunk.Err)
			return
		}
		if _, err := c.Writer.WriteString(chunk.Delta); err != nil {
			logger.Debug("Client went away: %v", err)
			return
		}
		if canFlush {
			flusher.Flush()
		}
	}
}

// handleSearch returns the raw scored passages for a query, without
// invoking generation. Useful for inspecting what the chat would be
// grounded on.
func (s *Server) handleSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: parse JSON body: %v", domain.ErrInvalidInput, err))
		return
	}

	collection := req.Collection
	if collection == "" {
		collection = s.config.DefaultCollection
	}

	results, err := s.deps.Retriever.Retrieve(c.Request.Context(), req.Query, collection, req.TopK)
	if err != nil {
		respondError(c, err)
		return
	}
	if results == nil {
		results = []domain.RetrievedChunk{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// handleCollections lists collections known to the ingestion log.
func (s *Server) handleCollections(c *gin.Context) {
	if s.deps.IngestLog == nil {
		respondError(c, fmt.Errorf("%w: ingestion log unavailable", domain.ErrNotConfigured))
		return
	}

	stats, err := s.deps.IngestLog.Collections(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if stats == nil {
		stats = []domain.CollectionStats{}
	}
	c.JSON(http.StatusOK, gin.H{"collections": stats})
}

// respondError maps domain errors to HTTP status codes with a uniform
// machine-readable body.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrEmptyInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrCollectionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrTimeout):
		status = http.StatusGatewayTimeout
	}

	kind := domain.ErrorKind(err)
	if kind == "" {
		kind = "internal"
	}
	c.AbortWithStatusJSON(status, errorResponse{
		Error:   kind,
		Message: err.Error(),
	})
}

// kindForFilename picks the input kind from the file extension.
func kindForFilename(name string) domain.InputKind {
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		return domain.KindPDF
	}
	return domain.KindText
}
