// Package keygen provides the key-generation policies: one-hot, normal,
// uniform and data-derived keys. Seeded generators are deterministic; key i
// draws from its own generator seeded seed*17+2*i.
package keygen

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/becomeliminal/holomem-go/core"
	"github.com/becomeliminal/holomem-go/memory"
)

// New returns the generator for kind. seed may be nil for non-reproducible
// keys. stddev only applies to normal keys; zero means 1/batch_size.
func New(kind core.KeyType, seed *int64, stddev float64) (memory.KeyGenerator, error) {
	switch kind {
	case core.KeyOneHot:
		return OneHot{}, nil
	case core.KeyNormal:
		return &Normal{Seed: seed, StdDev: stddev}, nil
	case core.KeyUniform:
		return &Uniform{Seed: seed}, nil
	case core.KeyDataDerived:
		return &DataDerived{Seed: seed}, nil
	}
	return nil, fmt.Errorf("%w: %q", core.ErrUnknownKeyType, kind)
}

// OneHot gives key i a single 1 at coordinate i.
type OneHot struct{}

func (OneHot) Type() core.KeyType { return core.KeyOneHot }

func (OneHot) Generate(ctx context.Context, values [][]float64) ([][]float64, error) {
	n, err := shape(ctx, values)
	if err != nil {
		return nil, err
	}
	if len(values) > n {
		return nil, fmt.Errorf("%w: %d one-hot keys do not fit in %d coordinates", core.ErrDimension, len(values), n)
	}
	keys := make([][]float64, len(values))
	for i := range keys {
		keys[i] = make([]float64, n)
		keys[i][i] = 1
	}
	return keys, nil
}

// Normal draws keys from N(0, StdDev²).
type Normal struct {
	Seed   *int64
	StdDev float64
}

func (g *Normal) Type() core.KeyType { return core.KeyNormal }

func (g *Normal) Generate(ctx context.Context, values [][]float64) ([][]float64, error) {
	n, err := shape(ctx, values)
	if err != nil {
		return nil, err
	}
	stddev := g.StdDev
	if stddev <= 0 {
		stddev = 1 / float64(len(values))
	}
	keys := make([][]float64, len(values))
	for i := range keys {
		rng := source(g.Seed, i)
		k := make([]float64, n)
		for j := range k {
			k[j] = rng.NormFloat64() * stddev
		}
		keys[i] = k
	}
	return keys, nil
}

// Uniform draws keys from U[0, 1).
type Uniform struct {
	Seed *int64
}

func (g *Uniform) Type() core.KeyType { return core.KeyUniform }

func (g *Uniform) Generate(ctx context.Context, values [][]float64) ([][]float64, error) {
	n, err := shape(ctx, values)
	if err != nil {
		return nil, err
	}
	keys := make([][]float64, len(values))
	for i := range keys {
		rng := source(g.Seed, i)
		k := make([]float64, n)
		for j := range k {
			k[j] = rng.Float64()
		}
		keys[i] = k
	}
	return keys, nil
}

// DataDerived uses a noisy copy of each value as its key: value + N(0, 1).
type DataDerived struct {
	Seed *int64
}

func (g *DataDerived) Type() core.KeyType { return core.KeyDataDerived }

func (g *DataDerived) Generate(ctx context.Context, values [][]float64) ([][]float64, error) {
	n, err := shape(ctx, values)
	if err != nil {
		return nil, err
	}
	keys := make([][]float64, len(values))
	for i, v := range values {
		rng := source(g.Seed, i)
		k := make([]float64, n)
		for j := range k {
			k[j] = v[j] + rng.NormFloat64()
		}
		keys[i] = k
	}
	return keys, nil
}

// source returns the generator for key i.
func source(seed *int64, i int) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s := uint64(*seed*17 + 2*int64(i))
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

func shape(ctx context.Context, values [][]float64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("%w: no values to generate keys for", core.ErrEmptyInput)
	}
	n := len(values[0])
	if n == 0 {
		return 0, fmt.Errorf("%w: values have zero length", core.ErrEmptyInput)
	}
	for i, v := range values {
		if len(v) != n {
			return 0, fmt.Errorf("%w: values[%d] has length %d, want %d", core.ErrDimension, i, len(v), n)
		}
	}
	return n, nil
}
