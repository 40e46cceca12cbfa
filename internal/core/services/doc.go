// Package services implements the core business logic of the indexing and
// retrieval pipeline. Services depend only on domain types and port
// interfaces, never on concrete adapters.
//
// # Import Rules
//
//   - MAY import: internal/core/domain, internal/core/ports/driven,
//     internal/core/ports/driving, internal/logger
//   - MUST NOT import: internal/adapters (wiring happens in the CLI layer)
package services
