package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/docmirror/docmirror-go/internal/core/domain"
	"github.com/docmirror/docmirror-go/internal/storage/memory"
	"github.com/docmirror/docmirror-go/internal/storage/snapshot"
)

func doc(id string, fields map[string]any) domain.Document {
	d := domain.Document{"_id": id}
	for k, v := range fields {
		d[k] = v
	}
	return d
}

func mustInsert(t *testing.T, store *memory.Store, collection string, docs ...domain.Document) {
	t.Helper()
	if err := store.BulkInsert(context.Background(), collection, docs); err != nil {
		t.Fatalf("BulkInsert(%q) error = %v", collection, err)
	}
}

// writeSnapshot dumps the given store into a fresh snapshot root and
// returns the snapshot directory path.
func writeSnapshot(t *testing.T, store *memory.Store) string {
	t.Helper()
	root := t.TempDir()
	path, err := NewDumper(store, snapshot.NewWriter()).Dump(context.Background(), root)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	return path
}

func newReconciler(store *memory.Store, opts ...ReconcilerOption) *Reconciler {
	return NewReconciler(store, snapshot.NewReader(nil), opts...)
}

func TestReconcile_UpdatesChangedDocuments(t *testing.T) {
	// Snapshot and live hold the same ids; one document's fields differ.
	snapStore := memory.New()
	mustInsert(t, snapStore, "users",
		doc("64f000000000000000000001", map[string]any{"name": "ada", "role": "admin"}),
		doc("64f000000000000000000002", map[string]any{"name": "grace"}),
	)
	path := writeSnapshot(t, snapStore)

	live := memory.New()
	mustInsert(t, live, "users",
		doc("64f000000000000000000001", map[string]any{"name": "ada", "role": "viewer", "extra": true}),
		doc("64f000000000000000000002", map[string]any{"name": "grace"}),
	)

	summary, err := newReconciler(live).Reconcile(context.Background(), path)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if summary.Inserted != 0 || summary.Deleted != 0 || summary.Updated != 1 {
		t.Errorf("summary = %+v, want 1 update only", summary)
	}

	docs, err := live.ReadAll(context.Background(), "users")
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	for _, d := range docs {
		if id, _ := d.ID(); id.String() == "64f000000000000000000001" {
			if d["role"] != "admin" {
				t.Errorf("role = %v, want %q", d["role"], "admin")
			}
			if _, ok := d["extra"]; ok {
				t.Error("live-only field survived the field replacement")
			}
		}
	}
}

func TestReconcile_InsertsMissingDocuments(t *testing.T) {
	snapStore := memory.New()
	mustInsert(t, snapStore, "users",
		doc("64f000000000000000000001", map[string]any{"name": "ada"}),
		doc("64f000000000000000000002", map[string]any{"name": "grace"}),
	)
	path := writeSnapshot(t, snapStore)

	live := memory.New()
	mustInsert(t, live, "users",
		doc("64f000000000000000000001", map[string]any{"name": "ada"}),
	)

	summary, err := newReconciler(live).Reconcile(context.Background(), path)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if summary.Inserted != 1 || summary.Updated != 0 || summary.Deleted != 0 {
		t.Errorf("summary = %+v, want 1 insert only", summary)
	}
	if got := live.Count("users"); got != 2 {
		t.Errorf("live count = %d, want 2", got)
	}
}

func TestReconcile_DeletesExtraDocuments(t *testing.T) {
	snapStore := memory.New()
	mustInsert(t, snapStore, "users",
		doc("64f000000000000000000001", map[string]any{"name": "ada"}),
	)
	path := writeSnapshot(t, snapStore)

	live := memory.New()
	mustInsert(t, live, "users",
		doc("64f000000000000000000001", map[string]any{"name": "ada"}),
		doc("64f000000000000000000002", map[string]any{"name": "grace"}),
	)

	summary, err := newReconciler(live).Reconcile(context.Background(), path)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if summary.Deleted != 1 || summary.Inserted != 0 || summary.Updated != 0 {
		t.Errorf("summary = %+v, want 1 delete only", summary)
	}
	if got := live.Count("users"); got != 1 {
		t.Errorf("live count = %d, want 1", got)
	}
}

func TestReconcile_IdenticalSetsNoOp(t *testing.T) {
	snapStore := memory.New()
	mustInsert(t, snapStore, "users",
		doc("64f000000000000000000001", map[string]any{"name": "ada", "age": 36}),
	)
	path := writeSnapshot(t, snapStore)

	live := memory.New()
	mustInsert(t, live, "users",
		doc("64f000000000000000000001", map[string]any{"age": 36, "name": "ada"}),
	)

	summary, err := newReconciler(live).Reconcile(context.Background(), path)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !summary.Empty() {
		t.Errorf("summary = %+v, want empty", summary)
	}
	if len(summary.Collections) != 1 || !summary.Collections[0].UpToDate {
		t.Errorf("collections = %+v, want single up-to-date entry", summary.Collections)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	snapStore := memory.New()
	mustInsert(t, snapStore, "orders",
		doc("64f000000000000000000001", map[string]any{"total": 10}),
		doc("64f000000000000000000002", map[string]any{"total": 20}),
	)
	path := writeSnapshot(t, snapStore)

	live := memory.New()
	mustInsert(t, live, "orders",
		doc("64f000000000000000000002", map[string]any{"total": 25}),
		doc("64f000000000000000000003", map[string]any{"total": 30}),
	)

	r := newReconciler(live)

	first, err := r.Reconcile(context.Background(), path)
	if err != nil {
		t.Fatalf("first Reconcile() error = %v", err)
	}
	if first.Inserted != 1 || first.Updated != 1 || first.Deleted != 1 {
		t.Errorf("first summary = %+v, want one of each", first)
	}

	second, err := r.Reconcile(context.Background(), path)
	if err != nil {
		t.Fatalf("second Reconcile() error = %v", err)
	}
	if !second.Empty() {
		t.Errorf("second summary = %+v, want empty", second)
	}
}

func TestReconcile_RoundTrip(t *testing.T) {
	// Dumping a store and reconciling the dump against the same store
	// must apply nothing.
	store := memory.New()
	mustInsert(t, store, "users",
		doc("64f000000000000000000001", map[string]any{"name": "ada", "tags": []any{"a", "b"}}),
	)
	mustInsert(t, store, "orders",
		doc("64f000000000000000000002", map[string]any{"total": json.Number("19.99")}),
	)
	path := writeSnapshot(t, store)

	summary, err := newReconciler(store).Reconcile(context.Background(), path)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !summary.Empty() {
		t.Errorf("summary = %+v, want empty after round trip", summary)
	}
}

func TestReconcile_UntouchedLiveCollections(t *testing.T) {
	snapStore := memory.New()
	mustInsert(t, snapStore, "users",
		doc("64f000000000000000000001", map[string]any{"name": "ada"}),
	)
	path := writeSnapshot(t, snapStore)

	live := memory.New()
	mustInsert(t, live, "users",
		doc("64f000000000000000000001", map[string]any{"name": "ada"}),
	)
	mustInsert(t, live, "audit",
		doc("64f000000000000000000009", map[string]any{"event": "login"}),
	)

	if _, err := newReconciler(live).Reconcile(context.Background(), path); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if got := live.Count("audit"); got != 1 {
		t.Errorf("audit count = %d, want 1 (collection absent from snapshot)", got)
	}
}

func TestReconcile_MalformedSnapshotAborts(t *testing.T) {
	snapStore := memory.New()
	mustInsert(t, snapStore, "users",
		doc("64f000000000000000000001", map[string]any{"name": "ada"}),
	)
	path := writeSnapshot(t, snapStore)

	// Corrupt the collection file after the dump.
	file := filepath.Join(path, "users"+snapshot.FileExtension)
	if err := os.WriteFile(file, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupting file: %v", err)
	}

	live := memory.New()
	_, err := newReconciler(live).Reconcile(context.Background(), path)
	if !errors.Is(err, domain.ErrMalformedSnapshot) {
		t.Errorf("Reconcile() error = %v, want ErrMalformedSnapshot", err)
	}
	if got := live.Count("users"); got != 0 {
		t.Errorf("live count = %d, want 0 after aborted run", got)
	}
}

func TestReconcile_WriteLimit(t *testing.T) {
	snapStore := memory.New()
	var docs []domain.Document
	for i := 0; i < 6; i++ {
		docs = append(docs, doc(
			domain.NewObjectIDFromTime(time.Unix(int64(1700000000+i), 0)).Hex(),
			map[string]any{"n": i},
		))
	}
	mustInsert(t, snapStore, "items", docs...)
	path := writeSnapshot(t, snapStore)

	live := memory.New()
	limiter := rate.NewLimiter(rate.Limit(1000), 2)

	start := time.Now()
	summary, err := newReconciler(live, WithWriteLimit(limiter)).Reconcile(context.Background(), path)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if summary.Inserted != 6 {
		t.Errorf("inserted = %d, want 6", summary.Inserted)
	}
	// Six permits at burst two means at least two waits were taken.
	if time.Since(start) > 5*time.Second {
		t.Error("limiter stalled the run")
	}
}

func TestReconcile_ReportsProgress(t *testing.T) {
	snapStore := memory.New()
	mustInsert(t, snapStore, "items",
		doc("64f000000000000000000001", map[string]any{"n": 1}),
		doc("64f000000000000000000002", map[string]any{"n": 2}),
	)
	path := writeSnapshot(t, snapStore)

	live := memory.New()
	mustInsert(t, live, "items",
		doc("64f000000000000000000002", map[string]any{"n": 99}),
		doc("64f000000000000000000003", map[string]any{"n": 3}),
	)

	type update struct{ applied, total int }
	var updates []update
	r := newReconciler(live, WithProgress(func(collection string, applied, total int) {
		if collection != "items" {
			t.Errorf("progress collection = %q, want items", collection)
		}
		updates = append(updates, update{applied, total})
	}))

	if _, err := r.Reconcile(context.Background(), path); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if len(updates) == 0 {
		t.Fatal("no progress updates delivered")
	}
	last := updates[len(updates)-1]
	// One insert, one delete, one update.
	if last.applied != 3 || last.total != 3 {
		t.Errorf("final progress = %d/%d, want 3/3", last.applied, last.total)
	}
}

func TestRestoreLatest(t *testing.T) {
	snapStore := memory.New()
	mustInsert(t, snapStore, "users",
		doc("64f000000000000000000001", map[string]any{"name": "ada"}),
	)

	root := t.TempDir()
	if _, err := NewDumper(snapStore, snapshot.NewWriter()).Dump(context.Background(), root); err != nil {
		t.Fatalf("Dump() error = %v", err)
	}

	live := memory.New()
	summary, found, err := newReconciler(live).RestoreLatest(context.Background(), root)
	if err != nil {
		t.Fatalf("RestoreLatest() error = %v", err)
	}
	if !found {
		t.Fatal("RestoreLatest() found = false, want true")
	}
	if summary.Inserted != 1 {
		t.Errorf("inserted = %d, want 1", summary.Inserted)
	}
}

func TestRestoreLatest_NoSnapshots(t *testing.T) {
	live := memory.New()
	summary, found, err := newReconciler(live).RestoreLatest(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("RestoreLatest() error = %v, want nil (informational outcome)", err)
	}
	if found {
		t.Error("RestoreLatest() found = true, want false")
	}
	if !summary.Empty() {
		t.Errorf("summary = %+v, want empty", summary)
	}
}

func TestRestoreLatest_PicksNewest(t *testing.T) {
	root := t.TempDir()

	older := memory.New()
	mustInsert(t, older, "users", doc("64f000000000000000000001", map[string]any{"v": 1}))
	newer := memory.New()
	mustInsert(t, newer, "users", doc("64f000000000000000000001", map[string]any{"v": 2}))

	base := time.Date(2026, 8, 26, 10, 0, 0, 0, time.Local)
	for i, st := range []*memory.Store{older, newer} {
		at := base.Add(time.Duration(i) * time.Minute)
		w := snapshot.NewWriter(snapshot.WithClock(func() time.Time { return at }))
		if _, err := NewDumper(st, w).Dump(context.Background(), root); err != nil {
			t.Fatalf("Dump() error = %v", err)
		}
	}

	live := memory.New()
	if _, _, err := newReconciler(live).RestoreLatest(context.Background(), root); err != nil {
		t.Fatalf("RestoreLatest() error = %v", err)
	}

	docs, _ := live.ReadAll(context.Background(), "users")
	if len(docs) != 1 {
		t.Fatalf("live count = %d, want 1", len(docs))
	}
	if got := docs[0]["v"]; got != json.Number("2") {
		t.Errorf("v = %v (%T), want 2 from the newest snapshot", got, got)
	}
}
