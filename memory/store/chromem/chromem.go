package chromem

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/becomeliminal/holomem-go/core"
	"github.com/becomeliminal/holomem-go/memory"
)

// ChromemStore keeps the original values of every trace in chromem-go so a
// noisy recall can be snapped to its nearest original (cosine similarity).
type ChromemStore struct {
	db          *chromem.DB
	collections map[string]*chromem.Collection // Per-trace collections
	mu          sync.RWMutex
}

// New creates a new chromem-based store.
func New() (*ChromemStore, error) {
	db := chromem.NewDB()

	return &ChromemStore{
		db:          db,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

// collection returns the collection for a trace, creating it if asked.
func (s *ChromemStore) collection(traceID string, create bool) (*chromem.Collection, error) {
	s.mu.RLock()
	col, exists := s.collections[traceID]
	s.mu.RUnlock()

	if exists || !create {
		return col, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if col, exists := s.collections[traceID]; exists {
		return col, nil
	}

	col, err := s.db.CreateCollection(
		collectionName(traceID),
		map[string]string{"trace_id": traceID},
		nil, // Embeddings are always supplied
	)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	s.collections[traceID] = col
	return col, nil
}

// Store saves an original value under its trace.
func (s *ChromemStore) Store(ctx context.Context, item memory.Item) error {
	embedding, err := toEmbedding(item.Value)
	if err != nil {
		return err
	}
	col, err := s.collection(item.TraceID, true)
	if err != nil {
		return err
	}

	content, err := json.Marshal(item.Value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	doc := chromem.Document{
		ID:        fmt.Sprintf("%s/%d", item.TraceID, item.Index),
		Content:   string(content),
		Embedding: embedding,
		Metadata: map[string]string{
			"trace_id": item.TraceID,
			"index":    strconv.Itoa(item.Index),
			"label":    item.Label,
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Query returns the originals of a trace closest to vector.
func (s *ChromemStore) Query(ctx context.Context, traceID string, vector []float64, limit int) ([]memory.Match, error) {
	col, err := s.collection(traceID, false)
	if err != nil {
		return nil, err
	}
	if col == nil {
		log.Printf("[CHROMEM] No originals stored for trace %s", traceID)
		return nil, nil
	}

	// chromem-go requires nResults <= collection size
	if n := col.Count(); limit > n {
		limit = n
	}
	if limit <= 0 {
		return nil, nil
	}

	embedding, err := toEmbedding(vector)
	if err != nil {
		return nil, err
	}
	results, err := col.QueryEmbedding(ctx, embedding, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	matches := make([]memory.Match, 0, len(results))
	for i, r := range results {
		m, err := toMatch(r)
		if err != nil {
			log.Printf("[CHROMEM] Skipping result #%d: %v", i+1, err)
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Delete drops the collection of a trace.
func (s *ChromemStore) Delete(ctx context.Context, traceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[traceID]; !ok {
		return nil
	}
	if err := s.db.DeleteCollection(collectionName(traceID)); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	delete(s.collections, traceID)
	return nil
}

// Close releases resources.
func (s *ChromemStore) Close() error {
	// chromem-go keeps everything in memory, nothing to close
	return nil
}

func collectionName(traceID string) string {
	return "trace_" + traceID
}

// toEmbedding converts to chromem's float32 vectors. A zero vector has no
// direction and cannot be compared by cosine similarity.
func toEmbedding(v []float64) ([]float32, error) {
	out := make([]float32, len(v))
	nonZero := false
	for i, x := range v {
		out[i] = float32(x)
		if out[i] != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		return nil, fmt.Errorf("%w: zero vector cannot be stored or queried", core.ErrDimension)
	}
	return out, nil
}

func toMatch(r chromem.Result) (memory.Match, error) {
	var value []float64
	if err := json.Unmarshal([]byte(r.Content), &value); err != nil {
		return memory.Match{}, fmt.Errorf("unmarshal value: %w", err)
	}
	index, err := strconv.Atoi(r.Metadata["index"])
	if err != nil {
		return memory.Match{}, fmt.Errorf("parse index: %w", err)
	}
	return memory.Match{
		TraceID:    r.Metadata["trace_id"],
		Index:      index,
		Label:      r.Metadata["label"],
		Value:      value,
		Similarity: float64(r.Similarity),
	}, nil
}
