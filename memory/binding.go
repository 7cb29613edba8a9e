package memory

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/becomeliminal/holomem-go/core"
)

// PermKeys returns key·P for every (permutation, key) pair. The permutation
// index is the outer loop and the key index the inner one, so the permuted
// key for model m and key j sits at m*len(keys)+j.
func PermKeys(keys [][]float64, perms []*Permutation) ([][]float64, error) {
	if _, err := checkBatch(keys, "keys"); err != nil {
		return nil, err
	}
	if len(perms) == 0 {
		return nil, fmt.Errorf("%w: no permutations supplied", core.ErrEmptyInput)
	}

	out := make([][]float64, 0, len(perms)*len(keys))
	for m, p := range perms {
		for j, k := range keys {
			pk, err := p.Apply(k)
			if err != nil {
				return nil, fmt.Errorf("model %d key %d: %w", m, j, err)
			}
			out = append(out, pk)
		}
	}
	return out, nil
}

// CircConv1D binds a batch of B value rows against G*B keys and returns G
// rows: row g is Σ_b conv(X[b], keys[g*B+b]). When conj is set every key is
// replaced by its index-reversal conjugate first, which turns binding into
// unbinding. Groups are computed in parallel.
func CircConv1D(conv Convolver, X, keys [][]float64, conj bool) ([][]float64, error) {
	n, err := checkBatch(X, "values")
	if err != nil {
		return nil, err
	}
	kn, err := checkBatch(keys, "keys")
	if err != nil {
		return nil, err
	}
	if kn != n {
		return nil, fmt.Errorf("%w: key length %d does not match value length %d", core.ErrDimension, kn, n)
	}
	if len(keys)%len(X) != 0 {
		return nil, fmt.Errorf("%w: %d keys cannot be grouped over %d values", core.ErrDimension, len(keys), len(X))
	}
	if conj && n%2 != 0 {
		return nil, fmt.Errorf("%w: input size %d not divisible by 2", core.ErrDimension, n)
	}

	batch := len(X)
	groups := len(keys) / batch
	C := make([][]float64, groups)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for gi := 0; gi < groups; gi++ {
		g.Go(func() error {
			row := make([]float64, n)
			for b, x := range X {
				k := keys[gi*batch+b]
				if conj {
					k = involution(k)
				}
				floats.Add(row, conv.Convolve(x, k))
			}
			C[gi] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return C, nil
}

// ZeroPad appends numPad zeros along axis 1 (to every row) or axis 0 (as
// extra rows). It returns x untouched when numPad is zero.
func ZeroPad(x [][]float64, numPad int, axis int) ([][]float64, error) {
	if numPad == 0 {
		return x, nil
	}
	if numPad < 0 {
		return nil, fmt.Errorf("%w: negative padding %d", core.ErrDimension, numPad)
	}

	switch axis {
	case 1:
		out := make([][]float64, len(x))
		for i, row := range x {
			out[i] = ZeroPadVector(row, numPad)
		}
		return out, nil
	case 0:
		width := 0
		if len(x) > 0 {
			width = len(x[0])
		}
		out := make([][]float64, len(x), len(x)+numPad)
		copy(out, x)
		for i := 0; i < numPad; i++ {
			out = append(out, make([]float64, width))
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: cannot pad axis %d of a batch", core.ErrDimension, axis)
}

// ZeroPadVector returns x followed by numPad zeros.
func ZeroPadVector(x []float64, numPad int) []float64 {
	if numPad <= 0 {
		return x
	}
	out := make([]float64, len(x)+numPad)
	copy(out, x)
	return out
}
