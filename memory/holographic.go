package memory

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/becomeliminal/holomem-go/core"
)

// HolographicMemory binds values to keys through num_models independently
// permuted copies of each key. It holds only the permutation set, built once
// in the constructor and read-only afterwards, so concurrent Encode and
// Decode calls need no synchronization.
type HolographicMemory struct {
	inputSize int
	numModels int
	seed      int64
	perms     []*Permutation
	conv      Convolver
}

// Option configures a HolographicMemory.
type Option func(*holoOptions)

type holoOptions struct {
	seed  *int64
	conv  Convolver
	cache *PermutationCache
}

// WithSeed fixes the base seed of the permutation set. Without it a random
// seed in [0, 9999) is drawn.
func WithSeed(seed int64) Option {
	return func(o *holoOptions) {
		o.seed = &seed
	}
}

// WithConvolver sets the binding backend. Default: Circular.
func WithConvolver(c Convolver) Option {
	return func(o *holoOptions) {
		o.conv = c
	}
}

// WithPermutationCache shares permutation matrices through cache.
func WithPermutationCache(c *PermutationCache) Option {
	return func(o *holoOptions) {
		o.cache = c
	}
}

// NewHolographicMemory builds the permutation set for inputSize (even,
// positive) and numModels copies.
func NewHolographicMemory(inputSize, numModels int, opts ...Option) (*HolographicMemory, error) {
	if inputSize <= 0 || inputSize%2 != 0 {
		return nil, fmt.Errorf("%w: input_size must be even and positive, got %d", core.ErrDimension, inputSize)
	}
	if numModels <= 0 {
		return nil, fmt.Errorf("%w: num_models must be positive, got %d", core.ErrDimension, numModels)
	}

	o := holoOptions{conv: Circular{}}
	for _, opt := range opts {
		opt(&o)
	}
	seed := rand.Int64N(9999)
	if o.seed != nil {
		seed = *o.seed
	}

	perms, err := GeneratePermutations(inputSize, numModels, seed, o.cache)
	if err != nil {
		return nil, err
	}

	return &HolographicMemory{
		inputSize: inputSize,
		numModels: numModels,
		seed:      seed,
		perms:     perms,
		conv:      o.conv,
	}, nil
}

func (h *HolographicMemory) InputSize() int                { return h.inputSize }
func (h *HolographicMemory) NumModels() int                { return h.numModels }
func (h *HolographicMemory) Seed() int64                   { return h.seed }
func (h *HolographicMemory) Convolution() core.Convolution { return h.conv.Mode() }

// Permutations returns the permutation set, one per model.
func (h *HolographicMemory) Permutations() []*Permutation {
	return append([]*Permutation(nil), h.perms...)
}

// Encode binds values[b] to keys[b] in every model and returns the traces,
// one row of length input_size per model, each the sum over the batch.
func (h *HolographicMemory) Encode(values, keys [][]float64) ([][]float64, error) {
	if err := h.checkRows(values, "values"); err != nil {
		return nil, err
	}
	if err := h.checkRows(keys, "keys"); err != nil {
		return nil, err
	}
	if len(keys) != len(values) {
		return nil, fmt.Errorf("%w: %d keys for %d values", core.ErrDimension, len(keys), len(values))
	}

	permuted, err := PermKeys(keys, h.perms)
	if err != nil {
		return nil, err
	}
	return CircConv1D(h.conv, values, permuted, false)
}

// Decode unbinds every key from every model's trace. Row m*len(keys)+j holds
// the estimate of key j's value read from model m; callers combine models
// themselves, or use Recall.
func (h *HolographicMemory) Decode(memory, keys [][]float64) ([][]float64, error) {
	if err := h.checkMemory(memory); err != nil {
		return nil, err
	}
	if err := h.checkRows(keys, "keys"); err != nil {
		return nil, err
	}

	permuted, err := PermKeys(keys, h.perms)
	if err != nil {
		return nil, err
	}

	K := len(keys)
	out := make([][]float64, 0, h.numModels*K)
	for m := 0; m < h.numModels; m++ {
		rows, err := CircConv1D(h.conv, memory[m:m+1], permuted[m*K:(m+1)*K], true)
		if err != nil {
			return nil, fmt.Errorf("decode model %d: %w", m, err)
		}
		out = append(out, rows...)
	}
	return out, nil
}

// Recall returns one estimate per key: the mean over models of the decoded
// rows. Cross-talk from other stored items averages down as num_models
// grows.
func (h *HolographicMemory) Recall(memory, keys [][]float64) ([][]float64, error) {
	if err := h.checkMemory(memory); err != nil {
		return nil, err
	}
	if err := h.checkRows(keys, "keys"); err != nil {
		return nil, err
	}

	permuted, err := PermKeys(keys, h.perms)
	if err != nil {
		return nil, err
	}

	K := len(keys)
	out := make([][]float64, K)
	for j := 0; j < K; j++ {
		perKey := make([][]float64, h.numModels)
		for m := range perKey {
			perKey[m] = permuted[m*K+j]
		}
		rows, err := CircConv1D(h.conv, memory, perKey, true)
		if err != nil {
			return nil, fmt.Errorf("recall key %d: %w", j, err)
		}
		floats.Scale(1/float64(h.numModels), rows[0])
		out[j] = rows[0]
	}
	return out, nil
}

func (h *HolographicMemory) checkRows(rows [][]float64, what string) error {
	n, err := checkBatch(rows, what)
	if err != nil {
		return err
	}
	if n != h.inputSize {
		return fmt.Errorf("%w: %s have length %d, memory input_size is %d", core.ErrDimension, what, n, h.inputSize)
	}
	return nil
}

func (h *HolographicMemory) checkMemory(memory [][]float64) error {
	if err := h.checkRows(memory, "memory"); err != nil {
		return err
	}
	if len(memory) != h.numModels {
		return fmt.Errorf("%w: memory has %d traces, want one per model (%d)", core.ErrDimension, len(memory), h.numModels)
	}
	return nil
}
