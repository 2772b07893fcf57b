// Package memory provides an in-memory document store.
//
// It implements storage.Store using concurrent-safe sharded maps. It backs
// tests and ephemeral runs; durable data belongs in badgerdoc.
package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/docmirror/docmirror-go/internal/core/domain"
	"github.com/docmirror/docmirror-go/pkg/cmap"
)

// Store is an in-memory document store.
//
// Documents are deep-copied on the way in and out, so callers can never
// alias live store state.
type Store struct {
	// collections: collection name -> document map keyed by id string.
	collections *cmap.Map[string, *collection]

	// mu guards collection creation so two concurrent inserts into a new
	// collection do not race on registration.
	mu sync.Mutex

	closed atomic.Bool
}

type collection struct {
	docs *cmap.Map[string, domain.Document]
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		collections: cmap.New[string, *collection](),
	}
}

// Collections enumerates collection names in sorted order.
func (s *Store) Collections(_ context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, domain.ErrStoreClosed
	}
	names := s.collections.Keys()
	sort.Strings(names)
	return names, nil
}

// ReadAll materializes the full document set of a collection, sorted by
// identifier string. An unknown collection yields an empty set.
func (s *Store) ReadAll(_ context.Context, name string) ([]domain.Document, error) {
	if s.closed.Load() {
		return nil, domain.ErrStoreClosed
	}
	coll, ok := s.collections.Get(name)
	if !ok {
		return nil, nil
	}

	ids := coll.docs.Keys()
	sort.Strings(ids)

	docs := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := coll.docs.Get(id); ok {
			docs = append(docs, doc.Clone())
		}
	}
	return docs, nil
}

// BulkInsert inserts documents verbatim. A document without an identifier
// is assigned a fresh ObjectID, mirroring store-native id generation.
func (s *Store) BulkInsert(_ context.Context, name string, docs []domain.Document) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}
	coll := s.getOrCreate(name)

	for _, doc := range docs {
		stored := doc.Clone()
		id, ok := stored.ID()
		if !ok {
			oid := domain.NewObjectID()
			stored[domain.IDField] = oid
			id = domain.IDFromObjectID(oid)
		}
		if !coll.docs.SetIfAbsent(id.String(), stored) {
			return domain.ErrDuplicateID.WithDetails(name + "/" + id.String())
		}
	}
	return nil
}

// BulkDelete removes the documents whose identifiers are given; missing
// identifiers are ignored.
func (s *Store) BulkDelete(_ context.Context, name string, ids []domain.ID) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}
	coll, ok := s.collections.Get(name)
	if !ok {
		return nil
	}
	for _, id := range ids {
		coll.docs.Delete(id.String())
	}
	return nil
}

// ReplaceFields replaces the non-identifier fields of the matching document
// with exactly the given fields. Fields present live but absent from the
// replacement are removed.
func (s *Store) ReplaceFields(_ context.Context, name string, id domain.ID, fields domain.Document) error {
	if s.closed.Load() {
		return domain.ErrStoreClosed
	}
	coll, ok := s.collections.Get(name)
	if !ok {
		return domain.ErrDocumentNotFound.WithDetails(name + "/" + id.String())
	}

	current, ok := coll.docs.Get(id.String())
	if !ok {
		return domain.ErrDocumentNotFound.WithDetails(name + "/" + id.String())
	}

	replaced := make(domain.Document, len(fields)+1)
	replaced[domain.IDField] = current[domain.IDField]
	for k, v := range fields.Content() {
		replaced[k] = v
	}
	coll.docs.Set(id.String(), replaced.Clone())
	return nil
}

// Close marks the store closed; subsequent operations fail.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}

// Count returns the number of documents in a collection. Test helper.
func (s *Store) Count(name string) int {
	coll, ok := s.collections.Get(name)
	if !ok {
		return 0
	}
	return coll.docs.Count()
}

func (s *Store) getOrCreate(name string) *collection {
	if coll, ok := s.collections.Get(name); ok {
		return coll
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if coll, ok := s.collections.Get(name); ok {
		return coll
	}
	coll := &collection{docs: cmap.New[string, domain.Document]()}
	s.collections.Set(name, coll)
	return coll
}
