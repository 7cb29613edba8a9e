package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/becomeliminal/holomem-go/core"
	"github.com/becomeliminal/holomem-go/memory"
	"github.com/becomeliminal/holomem-go/memory/store/sqlite"
)

func newStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, _ := newStoreAt(t)
	return store
}

func newStoreAt(t *testing.T) (*sqlite.SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "traces.db")
	store, err := sqlite.New(path)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, path
}

func record(id string, created time.Time) memory.TraceRecord {
	return memory.TraceRecord{
		ID:            id,
		CreatedAt:     created,
		InputSize:     4,
		NumModels:     2,
		Seed:          -7,
		Convolution:   core.ConvDirectCircular,
		Normalization: core.NormalizeComplexModulus,
		KeyType:       core.KeyNormal,
		Memory:        [][]float64{{0.1, 0.2, 0.3, 0.4}, {1e-17, -2.5, 3, 1.0 / 3}},
		Keys:          [][]float64{{1, 0, 0, 0}},
		Metadata:      map[string]string{"source": "test"},
	}
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	created := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)
	want := record("a", created)
	if err := store.Save(ctx, memory.NewTraceFromStorage(want)); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	trace, err := store.Load(ctx, "a")
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	got := trace.Record()

	if got.ID != want.ID || got.InputSize != 4 || got.NumModels != 2 || got.Seed != -7 {
		t.Errorf("Unexpected scalar fields: %+v", got)
	}
	if got.Convolution != want.Convolution || got.Normalization != want.Normalization || got.KeyType != want.KeyType {
		t.Errorf("Unexpected modes: %s %s %s", got.Convolution, got.Normalization, got.KeyType)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("Expected created_at %v, got %v", created, got.CreatedAt)
	}
	for m := range want.Memory {
		for i := range want.Memory[m] {
			if got.Memory[m][i] != want.Memory[m][i] {
				t.Fatalf("Memory[%d][%d]: expected %v, got %v", m, i, want.Memory[m][i], got.Memory[m][i])
			}
		}
	}
	if len(got.Keys) != 1 || got.Keys[0][0] != 1 {
		t.Errorf("Unexpected keys: %v", got.Keys)
	}
	if got.Metadata["source"] != "test" {
		t.Errorf("Unexpected metadata: %v", got.Metadata)
	}
}

func TestSQLiteStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"second", "first", "third"} {
		offset := map[string]time.Duration{"first": 0, "second": time.Hour, "third": 2 * time.Hour}[id]
		if err := store.Save(ctx, memory.NewTraceFromStorage(record(id, base.Add(offset)))); err != nil {
			t.Fatalf("Failed to save #%d: %v", i, err)
		}
	}

	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(ids) != 3 || ids[0] != "first" || ids[1] != "second" || ids[2] != "third" {
		t.Errorf("Expected oldest first, got %v", ids)
	}

	if err := store.Delete(ctx, "second"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := store.Load(ctx, "second"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "never-saved"); err != nil {
		t.Errorf("Expected deleting unknown trace to succeed, got %v", err)
	}
}

func TestSQLiteStore_CorruptTimestamp(t *testing.T) {
	ctx := context.Background()
	store, path := newStoreAt(t)

	if err := store.Save(ctx, memory.NewTraceFromStorage(record("bad", time.Now()))); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`UPDATE traces SET created_at = 'yesterday' WHERE id = 'bad'`); err != nil {
		t.Fatalf("Failed to corrupt row: %v", err)
	}

	_, err = store.Load(ctx, "bad")
	if err == nil || !strings.Contains(err.Error(), "parse created_at") {
		t.Errorf("Expected created_at parse error, got %v", err)
	}
}
