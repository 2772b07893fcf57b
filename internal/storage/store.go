// Package storage defines the document store collaborator for docmirror.
package storage

import (
	"context"

	"github.com/docmirror/docmirror-go/internal/core/domain"
)

// Store is the document store collaborator consumed by the snapshot writer
// and the reconciler.
//
// Implementation requirements:
//   - Operations block until completion; cancellation and timeouts are the
//     caller's responsibility via ctx.
//   - Identifier lookups must honor domain.ID coercion: an id serialized as
//     a hex string matches a natively stored ObjectID.
//   - No operation is transactional across documents; partial application
//     of a bulk call on failure is permitted and surfaced as an error.
type Store interface {
	// Collections enumerates the names of all collections currently present.
	Collections(ctx context.Context) ([]string, error)

	// ReadAll materializes the full document set of a named collection.
	// A collection that does not exist yields an empty set, not an error.
	ReadAll(ctx context.Context, collection string) ([]domain.Document, error)

	// BulkInsert inserts documents verbatim, original identifiers included.
	// Inserting an identifier that already exists fails with ErrDuplicateID.
	BulkInsert(ctx context.Context, collection string, docs []domain.Document) error

	// BulkDelete removes the documents whose identifiers are given.
	// Missing identifiers are ignored.
	BulkDelete(ctx context.Context, collection string, ids []domain.ID) error

	// ReplaceFields replaces the non-identifier fields of the document
	// matching id with exactly the given fields. Fields present live but
	// absent from fields are removed. Fails with ErrDocumentNotFound when
	// no document matches.
	ReplaceFields(ctx context.Context, collection string, id domain.ID, fields domain.Document) error

	// Close releases the engine's resources.
	Close() error
}
