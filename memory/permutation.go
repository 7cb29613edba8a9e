package memory

import (
	"fmt"
	"math/rand/v2"

	"github.com/dgraph-io/ristretto"
	"gonum.org/v1/gonum/mat"

	"github.com/becomeliminal/holomem-go/core"
)

// Permutation is an immutable size×size permutation matrix: exactly one 1
// per row and per column. Encode and decode must see the identical matrix
// for a model, so nothing mutates it after construction.
type Permutation struct {
	size   int
	seed   int64
	index  []int // index[row] is the column holding the 1
	matrix *mat.Dense
}

// CreatePermutationMatrix shuffles [0..size) with a generator seeded from
// seed and places a 1 at (i, shuffled[i]). The same (size, seed) always
// yields the same matrix. Size need not be even.
func CreatePermutationMatrix(size int, seed int64) (*Permutation, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: permutation size must be positive, got %d", core.ErrDimension, size)
	}

	rng := rand.New(rand.NewPCG(uint64(seed), 0))
	shuffled := rng.Perm(size)

	m := mat.NewDense(size, size, nil)
	for i, j := range shuffled {
		m.Set(i, j, 1)
	}
	return &Permutation{size: size, seed: seed, index: shuffled, matrix: m}, nil
}

func (p *Permutation) Size() int   { return p.size }
func (p *Permutation) Seed() int64 { return p.seed }

// Matrix returns a read-only view of the permutation matrix.
func (p *Permutation) Matrix() mat.Matrix { return p.matrix }

// Index returns a copy of the row-to-column mapping.
func (p *Permutation) Index() []int { return append([]int(nil), p.index...) }

// Apply computes the row-vector product key · P.
func (p *Permutation) Apply(key []float64) ([]float64, error) {
	if len(key) != p.size {
		return nil, fmt.Errorf("%w: key length %d does not match permutation size %d", core.ErrDimension, len(key), p.size)
	}
	var out mat.VecDense
	out.MulVec(p.matrix.T(), mat.NewVecDense(p.size, key))
	return out.RawVector().Data, nil
}

// PermutationCache shares permutation matrices across memory instances that
// use the same (size, seed). Matrices are immutable, so sharing is safe.
type PermutationCache struct {
	cache *ristretto.Cache
}

// NewPermutationCache creates a cache bounded by maxBytes of matrix data.
func NewPermutationCache(maxBytes int64) (*PermutationCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create permutation cache: %w", err)
	}
	return &PermutationCache{cache: cache}, nil
}

// Get returns the cached permutation for (size, seed), building it on a miss.
// Admission is asynchronous, so a Get right after a miss may build again;
// the result is identical either way.
func (c *PermutationCache) Get(size int, seed int64) (*Permutation, error) {
	key := fmt.Sprintf("%d:%d", size, seed)
	if v, ok := c.cache.Get(key); ok {
		if p, ok := v.(*Permutation); ok {
			return p, nil
		}
	}
	p, err := CreatePermutationMatrix(size, seed)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, p, int64(size)*int64(size)*8)
	return p, nil
}

// Wait blocks until pending admissions are visible to Get.
func (c *PermutationCache) Wait() { c.cache.Wait() }

func (c *PermutationCache) Close() { c.cache.Close() }

// GeneratePermutations builds one permutation per model, model i seeded
// with baseSeed+i so that models stay decorrelated. cache may be nil.
func GeneratePermutations(size, numModels int, baseSeed int64, cache *PermutationCache) ([]*Permutation, error) {
	if numModels <= 0 {
		return nil, fmt.Errorf("%w: num_models must be positive, got %d", core.ErrDimension, numModels)
	}
	perms := make([]*Permutation, numModels)
	for i := range perms {
		var (
			p   *Permutation
			err error
		)
		if cache != nil {
			p, err = cache.Get(size, baseSeed+int64(i))
		} else {
			p, err = CreatePermutationMatrix(size, baseSeed+int64(i))
		}
		if err != nil {
			return nil, fmt.Errorf("permutation for model %d: %w", i, err)
		}
		perms[i] = p
	}
	return perms, nil
}
