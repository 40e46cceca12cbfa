// Package pdf normalises PDF inputs into per-page documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser extracts text from PDF files. Each page with extractable
// text becomes its own document carrying the 1-based page number.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Kind returns the input kind this normaliser handles.
func (n *Normaliser) Kind() domain.InputKind {
	return domain.KindPDF
}

// Normalise parses the PDF and emits one document per non-empty page.
// Pages that cannot be decoded are skipped rather than failing the
// whole file; a PDF that yields no text at all produces no documents.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawInput) ([]domain.Document, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: raw input is nil", domain.ErrInvalidInput)
	}
	if len(raw.Content) == 0 {
		return nil, fmt.Errorf("%w: PDF input %q is empty", domain.ErrInvalidInput, raw.SourceName)
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: parse PDF %q: %v", domain.ErrInvalidInput, raw.SourceName, err)
	}

	var docs []domain.Document
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Corrupt or unsupported page content. Keep the rest.
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		docs = append(docs, domain.Document{
			PageContent: text,
			Metadata: domain.Metadata{
				Source: raw.SourceName,
				Page:   i,
			},
		})
	}

	return docs, nil
}
