// Package service provides domain services for docmirror.
//
// Domain services contain the dump and restore business logic and
// orchestrate operations on the document store and the snapshot
// directory. They depend on the storage.Store interface, allowing for
// dependency injection and testability.
//
// This package contains:
//
//   - Dumper: exports every collection of the live store into a new
//     point-in-time snapshot directory
//   - Reconciler: diffs a snapshot against the live store and applies
//     the minimal set of inserts, deletes, and field replacements
//
// Services are stateless between runs and safe for sequential reuse.
package service
