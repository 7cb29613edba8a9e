package memory

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/becomeliminal/holomem-go/core"
)

const (
	// normEpsilon keeps the complex-modulus division finite for zero pairs.
	normEpsilon = 1e-10

	// DefaultKeyModTolerance bounds the half squared deviation of a key's
	// complex modulus from the all-ones vector.
	DefaultKeyModTolerance = 1e-9
)

// NormalizeRealByComplexAbs rescales each key so that its complex modulus
// is ~1.0. The modulus of every complex pair is broadcast back to both
// halves and divided out. The input keys are not modified.
func NormalizeRealByComplexAbs(keys [][]float64) ([][]float64, error) {
	n, err := checkBatch(keys, "keys")
	if err != nil {
		return nil, err
	}
	if n%2 != 0 {
		return nil, fmt.Errorf("%w: input size %d not divisible by 2", core.ErrDimension, n)
	}

	mid := n / 2
	out := make([][]float64, len(keys))
	for i, k := range keys {
		mag, _ := ComplexModOfReal(k)
		nk := make([]float64, n)
		for j := 0; j < mid; j++ {
			d := mag[j] + normEpsilon
			nk[j] = k[j] / d
			nk[mid+j] = k[mid+j] / d
		}
		out[i] = nk
	}
	return out, nil
}

// VerifyKeyMod checks that every key has complex modulus ~1.0. The
// deviation measure is half the squared distance between the modulus and the
// all-ones vector. The first offending key aborts the check.
func VerifyKeyMod(keys [][]float64, tolerance float64) error {
	if _, err := checkBatch(keys, "keys"); err != nil {
		return err
	}
	for i, k := range keys {
		mod, err := ComplexModOfReal(k)
		if err != nil {
			return fmt.Errorf("key %d: %w", i, err)
		}
		var loss float64
		for _, m := range mod {
			d := m - 1
			loss += d * d
		}
		loss /= 2
		if !(loss < tolerance) {
			return fmt.Errorf("%w: key %d is not normalized, l2 = %g", core.ErrNormalization, i, loss)
		}
	}
	return nil
}

// L2Normalize divides each key by its Euclidean norm. All-zero keys are
// returned unchanged.
func L2Normalize(keys [][]float64) ([][]float64, error) {
	if _, err := checkBatch(keys, "keys"); err != nil {
		return nil, err
	}
	out := make([][]float64, len(keys))
	for i, k := range keys {
		nk := append([]float64(nil), k...)
		norm := floats.Norm(nk, 2)
		if norm > 0 && !math.IsInf(norm, 0) {
			floats.Scale(1/norm, nk)
		}
		out[i] = nk
	}
	return out, nil
}

// NormalizeKeys applies the requested normalization mode.
func NormalizeKeys(keys [][]float64, mode core.Normalization) ([][]float64, error) {
	switch mode {
	case core.NormalizeNone, "":
		if _, err := checkBatch(keys, "keys"); err != nil {
			return nil, err
		}
		return keys, nil
	case core.NormalizeComplexModulus:
		return NormalizeRealByComplexAbs(keys)
	case core.NormalizeL2:
		return L2Normalize(keys)
	}
	return nil, checkNormalization(mode)
}

func checkNormalization(mode core.Normalization) error {
	switch mode {
	case core.NormalizeNone, core.NormalizeComplexModulus, core.NormalizeL2, "":
		return nil
	}
	return fmt.Errorf("%w: %q", core.ErrUnknownNormalization, mode)
}

// checkBatch verifies a batch is non-empty and rectangular, returning the
// shared row length.
func checkBatch(rows [][]float64, what string) (int, error) {
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: no %s supplied", core.ErrEmptyInput, what)
	}
	n := len(rows[0])
	if n == 0 {
		return 0, fmt.Errorf("%w: %s have zero length", core.ErrEmptyInput, what)
	}
	for i, r := range rows {
		if len(r) != n {
			return 0, fmt.Errorf("%w: %s[%d] has length %d, want %d", core.ErrDimension, what, i, len(r), n)
		}
	}
	return n, nil
}
