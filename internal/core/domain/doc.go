// Package domain defines the core domain models for docmirror.
//
// Domain models are pure value objects without any IO dependencies
// or framework coupling. This package contains:
//
//   - Document: a schemaless record keyed by its "_id" field
//   - ID: the identifier isomorphism between object ids and plain strings
//   - Diff: the insert/update/delete sets computed between two document sets
//   - Errors: domain-specific error definitions
//
// Canonical encoding and structural equality live here because the
// reconciliation diff depends on them agreeing with each other.
package domain
