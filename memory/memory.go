package memory

import (
	"context"

	"github.com/becomeliminal/holomem-go/core"
)

// KeyGenerator produces one key per value.
// Implementations: see package keygen (onehot, normal, uniform, data-derived).
//
// Note: the manager normalizes generated keys; generators return raw keys.
type KeyGenerator interface {
	// Generate returns len(values) keys of the same length as the values.
	Generate(ctx context.Context, values [][]float64) ([][]float64, error)

	// Type identifies the policy.
	Type() core.KeyType
}

// Item is an original value kept for cleanup after recall.
type Item struct {
	TraceID string
	Index   int
	Value   []float64
	Label   string
}

// Match is a cleanup hit: the stored original closest to a recalled vector.
type Match struct {
	TraceID    string
	Index      int
	Label      string
	Value      []float64
	Similarity float64
}

// Store is the cleanup backend.
// Implementations: ChromemStore (embedded vector database).
type Store interface {
	// Store saves an original value under its trace.
	Store(ctx context.Context, item Item) error

	// Query returns the stored values of a trace closest to vector, most
	// similar first.
	Query(ctx context.Context, traceID string, vector []float64, limit int) ([]Match, error)

	// Delete drops everything stored for a trace.
	Delete(ctx context.Context, traceID string) error

	// Close releases resources.
	Close() error
}

// TraceStore persists encoded traces.
// Implementations: SQLiteStore.
type TraceStore interface {
	Save(ctx context.Context, trace *Trace) error

	// Load returns core.ErrNotFound for unknown IDs.
	Load(ctx context.Context, id string) (*Trace, error)

	Delete(ctx context.Context, id string) error

	// List returns stored trace IDs, oldest first.
	List(ctx context.Context) ([]string, error)

	Close() error
}
