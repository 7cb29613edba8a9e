package memory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/dgraph-io/ristretto"

	"github.com/becomeliminal/holomem-go/core"
)

// SimpleManager is the default orchestration around a HolographicMemory.
//
// Record: keys → normalize → verify → encode → keep trace → store originals
// Retrieve: load trace → recall → cleanup against stored originals
//
// The Store and TraceStore are optional. Without a TraceStore traces live
// only in this process; with one, recently used traces are kept in a
// bounded cache and everything else is loaded on demand.
type SimpleManager struct {
	holo   *HolographicMemory
	keys   KeyGenerator
	store  Store
	traces TraceStore
	cache  *PermutationCache
	config *Config

	mu   sync.RWMutex
	live map[string]*Trace // Only used without a TraceStore

	recent *ristretto.Cache // Only used with a TraceStore
}

// Recollection is the result of a retrieval.
type Recollection struct {
	TraceID string
	Index   int

	// Value is the raw recalled estimate.
	Value []float64

	// Match is the nearest stored original, when cleanup ran.
	Match *Match
}

// NewSimpleManager creates a new SimpleManager. store and traces may be nil.
func NewSimpleManager(keys KeyGenerator, store Store, traces TraceStore, config *Config, opts ...ManagerOption) (*SimpleManager, error) {
	if config == nil {
		config = DefaultConfig
	}
	if keys == nil {
		return nil, errors.New("key generator is required")
	}
	conv, err := NewConvolver(config.Convolution)
	if err != nil {
		return nil, err
	}
	if err := checkNormalization(config.Normalization); err != nil {
		return nil, err
	}

	m := &SimpleManager{
		keys:   keys,
		store:  store,
		traces: traces,
		config: config,
		live:   make(map[string]*Trace),
	}
	for _, opt := range opts {
		opt(m)
	}

	holoOpts := []Option{WithConvolver(conv), WithPermutationCache(m.cache)}
	if config.Seed != nil {
		holoOpts = append(holoOpts, WithSeed(*config.Seed))
	}
	m.holo, err = NewHolographicMemory(config.InputSize, config.NumModels, holoOpts...)
	if err != nil {
		return nil, err
	}

	if traces != nil {
		m.recent, err = ristretto.NewCache(&ristretto.Config{
			NumCounters: 1e4,
			MaxCost:     config.liveCacheBytes(),
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("create trace cache: %w", err)
		}
	}

	log.Printf("[HOLO] Memory ready: input_size=%d models=%d seed=%d keys=%s normalization=%s convolution=%s",
		m.holo.InputSize(), m.holo.NumModels(), m.holo.Seed(), keys.Type(), config.Normalization, conv.Mode())
	return m, nil
}

// ManagerOption configures a SimpleManager.
type ManagerOption func(*SimpleManager)

// WithSharedPermutations makes the manager draw permutations from cache,
// including when rebuilding memories for stored traces.
func WithSharedPermutations(cache *PermutationCache) ManagerOption {
	return func(m *SimpleManager) {
		m.cache = cache
	}
}

// Memory returns the underlying holographic memory.
func (m *SimpleManager) Memory() *HolographicMemory {
	return m.holo
}

// Record encodes a batch of values into a new trace. Values shorter than
// input_size are zero-padded.
func (m *SimpleManager) Record(ctx context.Context, values [][]float64) (*Trace, error) {
	values, err := m.fit(values)
	if err != nil {
		return nil, err
	}

	keys, err := m.keys.Generate(ctx, values)
	if err != nil {
		return nil, fmt.Errorf("generate keys: %w", err)
	}
	keys, err = NormalizeKeys(keys, m.config.Normalization)
	if err != nil {
		return nil, fmt.Errorf("normalize keys: %w", err)
	}

	// One-hot keys have zero complex pairs that no rescaling can fix.
	if m.config.VerifyKeys && m.config.Normalization == core.NormalizeComplexModulus && m.keys.Type() != core.KeyOneHot {
		if err := VerifyKeyMod(keys, m.config.keyModTolerance()); err != nil {
			return nil, err
		}
		log.Printf("[HOLO] |keys| ~= 1.0: verified")
	}

	encoded, err := m.holo.Encode(values, keys)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	trace := NewTrace(m.holo, encoded, keys, m.keys.Type(), m.config.Normalization)
	if m.traces != nil {
		if err := m.traces.Save(ctx, trace); err != nil {
			return nil, fmt.Errorf("save trace: %w", err)
		}
	}
	m.keep(trace)

	if m.config.Cleanup && m.store != nil {
		for i, v := range values {
			item := Item{TraceID: trace.ID(), Index: i, Value: v, Label: fmt.Sprintf("item_%d", i)}
			if err := m.store.Store(ctx, item); err != nil {
				log.Printf("[HOLO] Failed to store original #%d: %v", i, err)
				continue
			}
		}
	}

	log.Printf("[HOLO] Recorded trace %s: %d items x %d models", trace.ID(), len(values), m.holo.NumModels())
	return trace, nil
}

// Trace finds a trace by ID, in this process first and then in the trace
// store.
func (m *SimpleManager) Trace(ctx context.Context, id string) (*Trace, error) {
	if m.traces == nil {
		m.mu.RLock()
		trace, ok := m.live[id]
		m.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: trace %s", core.ErrNotFound, id)
		}
		return trace, nil
	}

	if v, ok := m.recent.Get(id); ok {
		if trace, ok := v.(*Trace); ok {
			return trace, nil
		}
	}
	trace, err := m.traces.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	m.keep(trace)
	return trace, nil
}

// List returns the IDs of all known traces, oldest first.
func (m *SimpleManager) List(ctx context.Context) ([]string, error) {
	if m.traces != nil {
		return m.traces.List(ctx)
	}

	m.mu.RLock()
	traces := make([]*Trace, 0, len(m.live))
	for _, t := range m.live {
		traces = append(traces, t)
	}
	m.mu.RUnlock()

	sort.Slice(traces, func(i, j int) bool {
		if traces[i].CreatedAt().Equal(traces[j].CreatedAt()) {
			return traces[i].ID() < traces[j].ID()
		}
		return traces[i].CreatedAt().Before(traces[j].CreatedAt())
	})
	ids := make([]string, len(traces))
	for i, t := range traces {
		ids[i] = t.ID()
	}
	return ids, nil
}

// Close releases the trace cache. Stores are owned by the caller.
func (m *SimpleManager) Close() {
	if m.recent != nil {
		m.recent.Close()
	}
}

// keep holds a trace in process: in the map when it is the only copy,
// otherwise in the bounded cache.
func (m *SimpleManager) keep(trace *Trace) {
	if m.traces == nil {
		m.mu.Lock()
		m.live[trace.ID()] = trace
		m.mu.Unlock()
		return
	}
	m.recent.Set(trace.ID(), trace, trace.cost())
}

// Retrieve recalls item index of a trace and, with cleanup enabled, attaches
// the nearest stored original.
func (m *SimpleManager) Retrieve(ctx context.Context, traceID string, index int) (*Recollection, error) {
	trace, err := m.Trace(ctx, traceID)
	if err != nil {
		return nil, err
	}
	key, err := trace.Key(index)
	if err != nil {
		return nil, err
	}

	holo := m.holo
	if !trace.Compatible(holo) {
		holo, err = trace.Rebuild(m.cache)
		if err != nil {
			return nil, fmt.Errorf("rebuild memory for trace %s: %w", traceID, err)
		}
	}

	recalled, err := holo.Recall(trace.Memory(), [][]float64{key})
	if err != nil {
		return nil, fmt.Errorf("recall: %w", err)
	}
	rec := &Recollection{TraceID: traceID, Index: index, Value: recalled[0]}

	if m.config.Cleanup && m.store != nil {
		matches, err := m.store.Query(ctx, traceID, rec.Value, 1)
		if err != nil {
			return nil, fmt.Errorf("cleanup query: %w", err)
		}
		if len(matches) > 0 {
			rec.Match = &matches[0]
			log.Printf("[HOLO] Retrieved item %d of %s: nearest=%s similarity=%.3f",
				index, traceID, rec.Match.Label, rec.Match.Similarity)
		}
	}
	return rec, nil
}

// Forget drops a trace everywhere it is kept.
func (m *SimpleManager) Forget(ctx context.Context, traceID string) error {
	m.mu.Lock()
	delete(m.live, traceID)
	m.mu.Unlock()
	if m.recent != nil {
		m.recent.Del(traceID)
	}

	if m.traces != nil {
		if err := m.traces.Delete(ctx, traceID); err != nil {
			return fmt.Errorf("delete trace: %w", err)
		}
	}
	if m.store != nil {
		if err := m.store.Delete(ctx, traceID); err != nil {
			return fmt.Errorf("delete originals: %w", err)
		}
	}
	return nil
}

// fit zero-pads values up to input_size and rejects anything wider.
func (m *SimpleManager) fit(values [][]float64) ([][]float64, error) {
	n, err := checkBatch(values, "values")
	if err != nil {
		return nil, err
	}
	size := m.holo.InputSize()
	if n > size {
		return nil, fmt.Errorf("%w: values have length %d, memory input_size is %d", core.ErrDimension, n, size)
	}
	return ZeroPad(values, size-n, 1)
}

// Config holds SimpleManager configuration.
type Config struct {
	// InputSize is the vector length. Must be even.
	// Default: 784 (a 28x28 image).
	InputSize int

	// NumModels is the number of permuted copies per key.
	// Default: 3
	NumModels int

	// Seed fixes the permutation set. nil draws a random seed.
	Seed *int64

	// Normalization applied to generated keys.
	// Default: none
	Normalization core.Normalization

	// Convolution selects binding semantics.
	// Default: circular
	Convolution core.Convolution

	// VerifyKeys checks complex-modulus normalization after it runs.
	VerifyKeys bool

	// KeyModTolerance bounds VerifyKeys. Default: 1e-9
	KeyModTolerance float64

	// Cleanup stores originals and maps each recall to its nearest one.
	Cleanup bool

	// LiveCacheBytes bounds the traces kept in process when a TraceStore
	// holds the durable copy. Default: 64 MiB
	LiveCacheBytes int64
}

// DefaultLiveCacheBytes is the trace cache budget when none is set.
const DefaultLiveCacheBytes = 64 << 20

func (c *Config) liveCacheBytes() int64 {
	if c.LiveCacheBytes <= 0 {
		return DefaultLiveCacheBytes
	}
	return c.LiveCacheBytes
}

func (c *Config) keyModTolerance() float64 {
	if c.KeyModTolerance <= 0 {
		return DefaultKeyModTolerance
	}
	return c.KeyModTolerance
}

// DefaultConfig suits 28x28 images stored in three copies.
var DefaultConfig = &Config{
	InputSize:       784,
	NumModels:       3,
	Normalization:   core.NormalizeNone,
	Convolution:     core.ConvCircular,
	VerifyKeys:      true,
	KeyModTolerance: DefaultKeyModTolerance,
	Cleanup:         true,
	LiveCacheBytes:  DefaultLiveCacheBytes,
}
