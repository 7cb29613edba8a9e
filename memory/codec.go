package memory

import (
	"fmt"
	"math/cmplx"

	"github.com/becomeliminal/holomem-go/core"
)

// A real vector of even length n doubles as a complex vector of length n/2:
// x[0:n/2] holds the real parts and x[n/2:n] the imaginary parts, in matching
// index order.

// SplitToComplex interprets x as a complex vector.
func SplitToComplex(x []float64) ([]complex128, error) {
	if len(x)%2 != 0 {
		return nil, fmt.Errorf("%w: vector of length %d is not evenly divisible into complex", core.ErrDimension, len(x))
	}
	mid := len(x) / 2
	z := make([]complex128, mid)
	for i := range z {
		z[i] = complex(x[i], x[mid+i])
	}
	return z, nil
}

// UnsplitFromComplex is the inverse of SplitToComplex.
func UnsplitFromComplex(z []complex128) []float64 {
	mid := len(z)
	x := make([]float64, 2*mid)
	for i, c := range z {
		x[i] = real(c)
		x[mid+i] = imag(c)
	}
	return x
}

// ComplexModOfReal returns |re + i·im| for every complex element of x.
func ComplexModOfReal(x []float64) ([]float64, error) {
	z, err := SplitToComplex(x)
	if err != nil {
		return nil, err
	}
	mod := make([]float64, len(z))
	for i, c := range z {
		mod[i] = cmplx.Abs(c)
	}
	return mod, nil
}

// ConjRealByComplex returns the conjugate of x under circular convolution:
// index 0 stays put and indices 1..n-1 are reversed. Conjugating the
// spectrum of a circular convolution is an index reversal in the time
// domain; flipping the sign of the imaginary half is not.
func ConjRealByComplex(x []float64) ([]float64, error) {
	if len(x)%2 != 0 {
		return nil, fmt.Errorf("%w: input size %d not divisible by 2", core.ErrDimension, len(x))
	}
	return involution(x), nil
}

func involution(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	out[0] = x[0]
	for i := 1; i < n; i++ {
		out[i] = x[n-i]
	}
	return out
}
