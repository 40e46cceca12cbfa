package normalisers

import (
	"fmt"

	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry maps input kinds to their normalisers.
type Registry struct {
	normalisers map[domain.InputKind]driven.Normaliser
}

// NewRegistry creates a registry holding the given normalisers.
// Later normalisers with the same kind replace earlier ones.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{
		normalisers: make(map[domain.InputKind]driven.Normaliser, len(normalisers)),
	}
	for _, n := range normalisers {
		r.normalisers[n.Kind()] = n
	}
	return r
}

// Register adds a normaliser for its declared kind.
func (r *Registry) Register(n driven.Normaliser) {
	r.normalisers[n.Kind()] = n
}

// Lookup returns the normaliser for the given input kind.
func (r *Registry) Lookup(kind domain.InputKind) (driven.Normaliser, error) {
	n, ok := r.normalisers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no normaliser for input kind %q", domain.ErrInvalidInput, kind)
	}
	return n, nil
}
