// Package badgerdoc provides a Badger-backed document store.
//
// Documents are stored as canonical JSON values under
// "doc/<collection>/<id>" keys, with collection names registered under
// "coll/<collection>". Collection names must not contain '/', which the
// snapshot file naming already guarantees.
package badgerdoc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/docmirror/docmirror-go/internal/core/domain"
)

const (
	collPrefix = "coll/"
	docPrefix  = "doc/"
)

// Config configures the Badger document store.
type Config struct {
	// Dir is the storage directory.
	Dir string

	// GCInterval is the interval between automatic value-log GC runs.
	GCInterval time.Duration

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	GCThreshold float64

	// SyncWrites enables fsync after each write.
	SyncWrites bool

	// CacheSize is the block cache size in bytes.
	CacheSize int64
}

// DefaultConfig returns the default store configuration.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:         dir,
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
		SyncWrites:  true,
		CacheSize:   64 << 20,
	}
}

// Store is a Badger-backed document store implementing storage.Store.
type Store struct {
	db     *badger.DB
	cfg    Config
	logger *slog.Logger

	// Prometheus metrics
	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge

	stopCh chan struct{}
	doneCh chan struct{}
}

// New opens (creating if necessary) a Badger document store.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("badgerdoc: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = 10 * time.Minute
	}
	if cfg.GCThreshold <= 0 {
		cfg.GCThreshold = 0.5
	}

	opts := badger.DefaultOptions(cfg.Dir)
	opts.Logger = &badgerLogger{logger: logger}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.CacheSize > 0 {
		opts.BlockCacheSize = cfg.CacheSize
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerdoc: open db: %w", err)
	}

	s := &Store{
		db:     db,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go s.gcLoop()

	logger.Info("badger document store opened", "dir", cfg.Dir)
	return s, nil
}

// Collections enumerates registered collection names.
func (s *Store) Collections(_ context.Context) ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(collPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			names = append(names, strings.TrimPrefix(key, collPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badgerdoc: list collections: %w", err)
	}
	return names, nil
}

// ReadAll materializes the full document set of a collection, ordered by
// identifier string (Badger iterates keys in sorted order).
func (s *Store) ReadAll(_ context.Context, collection string) ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(docKey(collection, ""))
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			doc, err := decodeDocument(value)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badgerdoc: read %s: %w", collection, err)
	}
	return docs, nil
}

// BulkInsert inserts documents verbatim. A document without an identifier
// is assigned a fresh ObjectID. The collection is registered on first use.
func (s *Store) BulkInsert(_ context.Context, collection string, docs []domain.Document) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(collPrefix+collection), nil); err != nil {
			return err
		}
		for _, doc := range docs {
			stored := doc
			id, ok := stored.ID()
			if !ok {
				oid := domain.NewObjectID()
				stored = doc.Set(domain.IDField, oid)
				id = domain.IDFromObjectID(oid)
			}

			key := []byte(docKey(collection, id.String()))
			if _, err := txn.Get(key); err == nil {
				return domain.ErrDuplicateID.WithDetails(collection + "/" + id.String())
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			value, err := domain.CanonicalJSON(stored)
			if err != nil {
				return err
			}
			if err := txn.Set(key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// BulkDelete removes the documents whose identifiers are given.
// Missing identifiers are ignored.
func (s *Store) BulkDelete(_ context.Context, collection string, ids []domain.ID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, id := range ids {
			if err := txn.Delete([]byte(docKey(collection, id.String()))); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceFields replaces the non-identifier fields of the matching document
// with exactly the given fields; live-only fields are removed.
func (s *Store) ReplaceFields(_ context.Context, collection string, id domain.ID, fields domain.Document) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(docKey(collection, id.String()))

		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrDocumentNotFound.WithDetails(collection + "/" + id.String())
		}
		if err != nil {
			return err
		}
		current, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		currentDoc, err := decodeDocument(current)
		if err != nil {
			return err
		}

		replaced := make(domain.Document, len(fields)+1)
		replaced[domain.IDField] = currentDoc[domain.IDField]
		for k, v := range fields.Content() {
			replaced[k] = v
		}

		value, err := domain.CanonicalJSON(replaced)
		if err != nil {
			return err
		}
		return txn.Set(key, value)
	})
}

// Close stops the GC loop and closes the database.
func (s *Store) Close() error {
	close(s.stopCh)
	<-s.doneCh

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("badgerdoc: close db: %w", err)
	}
	s.logger.Info("badger document store closed")
	return nil
}

// RegisterMetrics registers store size gauges with the given registry
// and starts the periodic updater. Call once during initialization.
func (s *Store) RegisterMetrics(registry *prometheus.Registry) *Store {
	s.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "docmirror",
		Subsystem: "store",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})
	s.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "docmirror",
		Subsystem: "store",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})
	registry.MustRegister(s.metricsLSMSize, s.metricsValueLogSize)

	go s.metricsUpdateLoop()
	return s
}

func (s *Store) metricsUpdateLoop() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lsm, vlog := s.db.Size()
			s.metricsLSMSize.Set(float64(lsm))
			s.metricsValueLogSize.Set(float64(vlog))
		case <-s.stopCh:
			return
		}
	}
}

// gcLoop runs periodic value-log garbage collection.
func (s *Store) gcLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for {
				err := s.db.RunValueLogGC(s.cfg.GCThreshold)
				if errors.Is(err, badger.ErrNoRewrite) {
					break
				}
				if err != nil {
					s.logger.Error("value log gc failed", "error", err)
					break
				}
			}
		case <-s.stopCh:
			return
		}
	}
}

func docKey(collection, id string) string {
	return docPrefix + collection + "/" + id
}

func decodeDocument(data []byte) (domain.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return domain.Document(m), nil
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
