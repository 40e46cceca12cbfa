// Package normalisers provides implementations of the Normaliser interface
// for the supported input kinds. Each normaliser knows how to extract text
// content from a specific input format.
//
// Normalisers are registered with the Registry at startup.
package normalisers
