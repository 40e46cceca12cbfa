// Package plaintext normalises plain text inputs into documents.
package plaintext

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text inputs. Each input becomes exactly one
// document whose page content is the input text verbatim.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Kind returns the input kind this normaliser handles.
func (n *Normaliser) Kind() domain.InputKind {
	return domain.KindText
}

// Normalise converts a raw text input into a single document.
// Inputs that are not valid UTF-8 are rejected. Whitespace-only
// inputs produce no documents.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawInput) ([]domain.Document, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: raw input is nil", domain.ErrInvalidInput)
	}
	if !utf8.Valid(raw.Content) {
		return nil, fmt.Errorf("%w: text input %q is not valid UTF-8", domain.ErrInvalidInput, raw.SourceName)
	}

	content := string(raw.Content)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	source := raw.SourceName
	if source == "" {
		source = domain.InlineTextSource
	}

	return []domain.Document{
		{
			PageContent: content,
			Metadata:    domain.Metadata{Source: source},
		},
	}, nil
}
