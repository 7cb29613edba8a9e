package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/becomeliminal/holomem-go/core"
)

// Trace is an encoded memory: one superposed row per model, the keys it was
// encoded with, and the parameters needed to rebuild the permutation set
// that produced it.
type Trace struct {
	id            string
	createdAt     time.Time
	inputSize     int
	numModels     int
	seed          int64
	convolution   core.Convolution
	normalization core.Normalization
	keyType       core.KeyType
	memory        [][]float64
	keys          [][]float64
	metadata      map[string]string
}

// NewTrace wraps the output of h.Encode.
func NewTrace(h *HolographicMemory, memory, keys [][]float64, keyType core.KeyType, normalization core.Normalization) *Trace {
	return &Trace{
		id:            uuid.New().String(),
		createdAt:     time.Now(),
		inputSize:     h.InputSize(),
		numModels:     h.NumModels(),
		seed:          h.Seed(),
		convolution:   h.Convolution(),
		normalization: normalization,
		keyType:       keyType,
		memory:        memory,
		keys:          keys,
		metadata:      map[string]string{},
	}
}

// TraceRecord is the flat form of a Trace used by TraceStore implementations.
type TraceRecord struct {
	ID            string
	CreatedAt     time.Time
	InputSize     int
	NumModels     int
	Seed          int64
	Convolution   core.Convolution
	Normalization core.Normalization
	KeyType       core.KeyType
	Memory        [][]float64
	Keys          [][]float64
	Metadata      map[string]string
}

// NewTraceFromStorage rebuilds a Trace from a stored record.
func NewTraceFromStorage(r TraceRecord) *Trace {
	md := r.Metadata
	if md == nil {
		md = map[string]string{}
	}
	return &Trace{
		id:            r.ID,
		createdAt:     r.CreatedAt,
		inputSize:     r.InputSize,
		numModels:     r.NumModels,
		seed:          r.Seed,
		convolution:   r.Convolution,
		normalization: r.Normalization,
		keyType:       r.KeyType,
		memory:        r.Memory,
		keys:          r.Keys,
		metadata:      md,
	}
}

// Record returns the flat form of t.
func (t *Trace) Record() TraceRecord {
	return TraceRecord{
		ID:            t.id,
		CreatedAt:     t.createdAt,
		InputSize:     t.inputSize,
		NumModels:     t.numModels,
		Seed:          t.seed,
		Convolution:   t.convolution,
		Normalization: t.normalization,
		KeyType:       t.keyType,
		Memory:        t.memory,
		Keys:          t.keys,
		Metadata:      t.metadata,
	}
}

func (t *Trace) ID() string                        { return t.id }
func (t *Trace) CreatedAt() time.Time              { return t.createdAt }
func (t *Trace) InputSize() int                    { return t.inputSize }
func (t *Trace) NumModels() int                    { return t.numModels }
func (t *Trace) Seed() int64                       { return t.seed }
func (t *Trace) Convolution() core.Convolution     { return t.convolution }
func (t *Trace) Normalization() core.Normalization { return t.normalization }
func (t *Trace) KeyType() core.KeyType             { return t.keyType }
func (t *Trace) Memory() [][]float64               { return t.memory }
func (t *Trace) Metadata() map[string]string       { return t.metadata }

// Len is the number of items superposed in the trace.
func (t *Trace) Len() int { return len(t.keys) }

// Key returns the key item i was bound with.
func (t *Trace) Key(i int) ([]float64, error) {
	if i < 0 || i >= len(t.keys) {
		return nil, fmt.Errorf("%w: item %d of trace %s (has %d)", core.ErrNotFound, i, t.id, len(t.keys))
	}
	return t.keys[i], nil
}

// Compatible reports whether h decodes this trace: same size, model count,
// seed and binding semantics.
func (t *Trace) Compatible(h *HolographicMemory) bool {
	return h.InputSize() == t.inputSize &&
		h.NumModels() == t.numModels &&
		h.Seed() == t.seed &&
		h.Convolution() == t.convolution
}

// Rebuild reconstructs the HolographicMemory that encoded this trace.
func (t *Trace) Rebuild(cache *PermutationCache) (*HolographicMemory, error) {
	conv, err := NewConvolver(t.convolution)
	if err != nil {
		return nil, err
	}
	return NewHolographicMemory(t.inputSize, t.numModels,
		WithSeed(t.seed),
		WithConvolver(conv),
		WithPermutationCache(cache),
	)
}

// cost approximates the bytes held by the trace's rows and keys.
func (t *Trace) cost() int64 {
	var n int
	for _, r := range t.memory {
		n += len(r)
	}
	for _, k := range t.keys {
		n += len(k)
	}
	return int64(n) * 8
}

// Format summarizes the trace for logs and the CLI.
func (t *Trace) Format() string {
	parts := []string{
		fmt.Sprintf("trace %s", t.id),
		fmt.Sprintf("  items=%d models=%d input_size=%d seed=%d", len(t.keys), t.numModels, t.inputSize, t.seed),
		fmt.Sprintf("  keys=%s normalization=%s convolution=%s", t.keyType, t.normalization, t.convolution),
	}
	return strings.Join(parts, "\n")
}
