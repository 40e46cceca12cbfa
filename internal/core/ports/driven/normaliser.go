package driven

import (
	"context"

	"github.com/custodia-labs/ragd/internal/core/domain"
)

// Normaliser transforms one raw input into normalised documents.
// Each normaliser handles a single input kind.
type Normaliser interface {
	// Kind returns the input kind this normaliser handles.
	Kind() domain.InputKind

	// Normalise turns raw bytes into zero or more documents. A PDF yields
	// one document per page; plain text yields a single document. Inputs
	// whose bytes cannot be decoded fail with domain.ErrInvalidInput.
	Normalise(ctx context.Context, raw *domain.RawInput) ([]domain.Document, error)
}

// NormaliserRegistry selects the normaliser for an input kind.
type NormaliserRegistry interface {
	// Lookup returns the normaliser registered for kind, or
	// domain.ErrInvalidInput when none is registered.
	Lookup(kind domain.InputKind) (Normaliser, error)
}
