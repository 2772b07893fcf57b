// Package storage defines the document store collaborator for docmirror.
//
// The Store interface is the boundary between the reconciliation core and
// whatever holds the live documents. Two engines implement it:
//
//   - memory: a sharded in-memory store, used by tests and ephemeral runs
//   - badgerdoc: an embedded Badger-backed store for durable data
//
// Identifier coercion between serialized strings and native id types
// happens at this boundary via domain.ID; the reconciliation logic never
// sees raw identifier values.
package storage
