// Package chunker provides a recursive character text splitter.
//
// Text is split on a priority-ordered list of separators (paragraph break,
// line break, sentence end, word boundary, character). Units at the current
// level are greedily accumulated up to the chunk size; a unit that alone
// exceeds the chunk size is split again at the next finer level. Adjacent
// chunks share a configured amount of trailing text.
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
)

var _ driven.PostProcessor = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// defaultSeparators is the priority order for splitting, coarsest first.
// The final empty separator splits on characters so no unit is indivisible.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Processor splits document content into overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize  int
	overlap    int
	separators []string
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithSeparators overrides the separator priority list, coarsest first.
func WithSeparators(separators []string) Option {
	return func(p *Processor) {
		p.separators = separators
	}
}

// New creates a chunker processor with the given options.
// An overlap equal to or larger than the chunk size is a configuration
// error, rejected here so it never reaches document processing.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: defaultSeparators,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, p.chunkSize)
	}
	if p.overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", domain.ErrInvalidInput, p.overlap)
	}
	if p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidInput, p.overlap, p.chunkSize)
	}
	if len(p.separators) == 0 {
		return nil, fmt.Errorf("%w: at least one separator is required", domain.ErrInvalidInput)
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks. Metadata is copied
// unchanged onto every chunk; Index is the zero-based position within
// the document. Empty content produces no chunks.
// Input chunks are ignored; this processor creates new chunks.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	text := strings.TrimSpace(doc.PageContent)
	if text == "" {
		return nil, nil
	}

	parts := p.split(text, p.separators)

	chunks := make([]domain.Chunk, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			Text:     part,
			Metadata: doc.Metadata,
			Index:    len(chunks),
		})
	}

	return chunks, nil
}

// split recursively splits text using the coarsest separator present,
// descending to finer separators only for units that alone exceed the
// chunk size. A unit that exceeds the chunk size at the finest level is
// emitted as-is: an indivisible unit is the accepted escape valve, not
// an error.
func (p *Processor) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var finer []string
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			sep = s
			finer = separators[i+1:]
			break
		}
	}

	units := splitUnits(text, sep)

	var out []string
	var fitting []string
	for _, unit := range units {
		if len(unit) <= p.chunkSize {
			fitting = append(fitting, unit)
			continue
		}
		if len(fitting) > 0 {
			out = append(out, p.merge(fitting)...)
			fitting = nil
		}
		if len(finer) == 0 {
			out = append(out, unit)
		} else {
			out = append(out, p.split(unit, finer)...)
		}
	}
	if len(fitting) > 0 {
		out = append(out, p.merge(fitting)...)
	}

	return out
}

// merge greedily accumulates units into chunks of at most chunkSize
// characters. When a chunk is emitted, trailing units up to the overlap
// budget are kept to start the next chunk, so neighbours share context.
func (p *Processor) merge(units []string) []string {
	var chunks []string
	var window []string
	total := 0

	for _, unit := range units {
		if total+len(unit) > p.chunkSize && total > 0 {
			chunks = append(chunks, strings.Join(window, ""))
			for total > p.overlap || (total+len(unit) > p.chunkSize && total > 0) {
				total -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, unit)
		total += len(unit)
	}

	if total > 0 {
		chunks = append(chunks, strings.Join(window, ""))
	}

	return chunks
}

// splitUnits splits text on sep, keeping the separator attached to the
// preceding unit so chunks join back without loss. The empty separator
// splits into single characters.
func splitUnits(text, sep string) []string {
	if sep == "" {
		units := make([]string, 0, len(text))
		for _, r := range text {
			units = append(units, string(r))
		}
		return units
	}

	parts := strings.SplitAfter(text, sep)
	units := parts[:0]
	for _, part := range parts {
		if part != "" {
			units = append(units, part)
		}
	}
	return units
}
