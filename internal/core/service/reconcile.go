// Package service provides domain services for docmirror.
package service

import (
	"context"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/docmirror/docmirror-go/internal/core/domain"
	"github.com/docmirror/docmirror-go/internal/storage"
	"github.com/docmirror/docmirror-go/internal/storage/snapshot"
	"github.com/docmirror/docmirror-go/internal/telemetry/logger"
	"github.com/docmirror/docmirror-go/internal/telemetry/metric"
)

// CollectionSummary reports the reconciliation outcome for a single
// collection.
type CollectionSummary struct {
	Collection string
	Inserted   int
	Updated    int
	Deleted    int
	UpToDate   bool
}

// Summary aggregates the outcome of one restore run.
type Summary struct {
	// Snapshot is the path of the snapshot directory that was applied.
	Snapshot string

	// Collections lists per-collection results in processing order.
	Collections []CollectionSummary

	Inserted int
	Updated  int
	Deleted  int
}

// Empty reports whether the run applied no mutations at all.
func (s Summary) Empty() bool {
	return s.Inserted == 0 && s.Updated == 0 && s.Deleted == 0
}

// Reconciler applies a snapshot to the live store incrementally: only
// the documents that differ are touched.
// ProgressFunc receives progress updates while a collection is being
// reconciled. applied counts mutations done so far out of total.
type ProgressFunc func(collection string, applied, total int)

type Reconciler struct {
	store    storage.Store
	reader   *snapshot.Reader
	metrics  *metric.Registry
	limiter  *rate.Limiter
	progress ProgressFunc
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithRestoreMetrics attaches a metrics registry to the reconciler.
func WithRestoreMetrics(m *metric.Registry) ReconcilerOption {
	return func(r *Reconciler) { r.metrics = m }
}

// WithWriteLimit throttles applied mutations to the given rate,
// measured in documents per second. Useful when the live store serves
// traffic during a restore.
func WithWriteLimit(limiter *rate.Limiter) ReconcilerOption {
	return func(r *Reconciler) { r.limiter = limiter }
}

// WithProgress registers a callback invoked as mutations are applied.
func WithProgress(fn ProgressFunc) ReconcilerOption {
	return func(r *Reconciler) { r.progress = fn }
}

// NewReconciler creates a new Reconciler reading snapshots through the
// given reader.
func NewReconciler(store storage.Store, reader *snapshot.Reader, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		store:  store,
		reader: reader,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile diffs every collection file in the snapshot directory
// against the live store and applies inserts, deletes, and field
// replacements so the live data converges to the snapshot. Collections
// are processed in lexicographic order; the first error aborts the run
// and the returned summary covers the work applied up to that point.
//
// Live collections with no corresponding snapshot file are left
// untouched.
func (r *Reconciler) Reconcile(ctx context.Context, snapshotPath string) (Summary, error) {
	log := logger.L(ctx)
	start := time.Now()
	summary := Summary{Snapshot: snapshotPath}

	files, err := r.reader.CollectionFiles(snapshotPath)
	if err != nil {
		r.countFailure("restore")
		return summary, err
	}

	log.Info("restore started",
		"snapshot", filepath.Base(snapshotPath),
		"collections", len(files),
	)

	for _, file := range files {
		cs, err := r.reconcileCollection(ctx, file)
		if err != nil {
			r.countFailure("restore")
			log.Error("restore aborted",
				"collection", file.Collection,
				"error", err.Error(),
			)
			return summary, err
		}

		summary.Collections = append(summary.Collections, cs)
		summary.Inserted += cs.Inserted
		summary.Updated += cs.Updated
		summary.Deleted += cs.Deleted

		if cs.UpToDate {
			log.Info("collection up to date", "collection", cs.Collection)
			if r.metrics != nil {
				r.metrics.CollectionsUpToDate.Inc()
			}
			continue
		}

		log.Info("collection reconciled",
			"collection", cs.Collection,
			"inserted", cs.Inserted,
			"updated", cs.Updated,
			"deleted", cs.Deleted,
		)
		if r.metrics != nil {
			r.metrics.DocumentsInserted.WithLabelValues(cs.Collection).Add(float64(cs.Inserted))
			r.metrics.DocumentsUpdated.WithLabelValues(cs.Collection).Add(float64(cs.Updated))
			r.metrics.DocumentsDeleted.WithLabelValues(cs.Collection).Add(float64(cs.Deleted))
		}
	}

	elapsed := time.Since(start)
	log.Info("restore finished",
		"inserted", summary.Inserted,
		"updated", summary.Updated,
		"deleted", summary.Deleted,
		"duration", elapsed.String(),
	)
	if r.metrics != nil {
		r.metrics.RestoreDuration.Observe(elapsed.Seconds())
	}

	return summary, nil
}

// RestoreLatest selects the most recent snapshot under root and applies
// it. The returned bool reports whether a snapshot existed; a root with
// no snapshots is an informational no-op, not an error.
func (r *Reconciler) RestoreLatest(ctx context.Context, root string) (Summary, bool, error) {
	info, ok, err := snapshot.SelectLatest(root)
	if err != nil {
		return Summary{}, false, err
	}
	if !ok {
		logger.L(ctx).Info("no snapshots found", "root", root)
		return Summary{}, false, nil
	}

	summary, err := r.Reconcile(ctx, info.Path)
	return summary, true, err
}

func (r *Reconciler) reconcileCollection(ctx context.Context, file snapshot.CollectionFile) (CollectionSummary, error) {
	cs := CollectionSummary{Collection: file.Collection}

	imported, err := r.reader.Load(file)
	if err != nil {
		return cs, err
	}

	live, err := r.store.ReadAll(ctx, file.Collection)
	if err != nil {
		return cs, err
	}

	diff, err := domain.ComputeDiff(imported, live)
	if err != nil {
		return cs, err
	}

	if diff.Empty() {
		cs.UpToDate = true
		return cs, nil
	}

	total := len(diff.ToInsert) + len(diff.ToDelete) + len(diff.ToUpdate)
	applied := 0
	report := func() {
		if r.progress != nil {
			r.progress(file.Collection, applied, total)
		}
	}
	report()

	// Inserts first, then deletes, then per-document field
	// replacements. Each mutation is counted against the write limit.
	if len(diff.ToInsert) > 0 {
		if err := r.waitN(ctx, len(diff.ToInsert)); err != nil {
			return cs, err
		}
		if err := r.store.BulkInsert(ctx, file.Collection, diff.ToInsert); err != nil {
			return cs, err
		}
		cs.Inserted = len(diff.ToInsert)
		applied += cs.Inserted
		report()
	}

	if len(diff.ToDelete) > 0 {
		if err := r.waitN(ctx, len(diff.ToDelete)); err != nil {
			return cs, err
		}
		if err := r.store.BulkDelete(ctx, file.Collection, diff.ToDelete); err != nil {
			return cs, err
		}
		cs.Deleted = len(diff.ToDelete)
		applied += cs.Deleted
		report()
	}

	for _, doc := range diff.ToUpdate {
		id, ok := doc.ID()
		if !ok {
			// ComputeDiff never emits id-less updates; guard anyway.
			return cs, domain.ErrInternal.WithDetails("update candidate without identifier")
		}
		if err := r.waitN(ctx, 1); err != nil {
			return cs, err
		}
		if err := r.store.ReplaceFields(ctx, file.Collection, id, doc.Content()); err != nil {
			return cs, err
		}
		cs.Updated++
		applied++
		report()
	}

	return cs, nil
}

func (r *Reconciler) countFailure(operation string) {
	if r.metrics != nil {
		r.metrics.RunsFailed.WithLabelValues(operation).Inc()
	}
}

// waitN blocks until the limiter admits n mutations. Bursts smaller
// than n are drained in chunks so a large bulk insert cannot exceed
// the limiter's burst size.
func (r *Reconciler) waitN(ctx context.Context, n int) error {
	if r.limiter == nil {
		return nil
	}
	for n > 0 {
		chunk := n
		if burst := r.limiter.Burst(); chunk > burst {
			chunk = burst
		}
		if err := r.limiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
