package memory

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/becomeliminal/holomem-go/core"
)

// Convolver combines a value with a key of the same length. Implementations
// must be safe for concurrent use; the binding engine fans calls out across
// goroutines.
type Convolver interface {
	Convolve(x, k []float64) []float64
	Mode() core.Convolution
}

// NewConvolver returns the backend for a convolution mode.
func NewConvolver(mode core.Convolution) (Convolver, error) {
	switch mode {
	case core.ConvCircular, "":
		return Circular{}, nil
	case core.ConvDirectCircular:
		return DirectCircular{}, nil
	case core.ConvLinear:
		return Linear{}, nil
	}
	return nil, fmt.Errorf("%w: %q", core.ErrUnknownConvolution, mode)
}

// Circular computes wrap-around convolution by multiplying spectra.
type Circular struct{}

func (Circular) Mode() core.Convolution { return core.ConvCircular }

func (Circular) Convolve(x, k []float64) []float64 {
	n := len(x)
	// CmplxFFT keeps scratch space, so each call gets its own.
	fft := fourier.NewCmplxFFT(n)
	xc := fft.Coefficients(nil, toComplex(x))
	kc := fft.Coefficients(nil, toComplex(k))
	for i := range xc {
		xc[i] *= kc[i]
	}
	seq := fft.Sequence(nil, xc)

	// Sequence is unnormalized.
	out := make([]float64, n)
	scale := 1 / float64(n)
	for i, c := range seq {
		out[i] = real(c) * scale
	}
	return out
}

// DirectCircular computes the same operator as Circular in the time domain:
// out[i] = Σ_j k[j]·x[(i-j) mod n].
type DirectCircular struct{}

func (DirectCircular) Mode() core.Convolution { return core.ConvDirectCircular }

func (DirectCircular) Convolve(x, k []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	for j, kj := range k {
		if kj == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			idx := i - j
			if idx < 0 {
				idx += n
			}
			out[i] += kj * x[idx]
		}
	}
	return out
}

// Linear is zero-padded "same" convolution with stride 1, oriented as a
// cross-correlation with floor((n-1)/2) zeros before the signal. It does not
// wrap, so unbinding with the conjugate key only approximates the value.
type Linear struct{}

func (Linear) Mode() core.Convolution { return core.ConvLinear }

func (Linear) Convolve(x, k []float64) []float64 {
	n := len(x)
	w := len(k)
	padBefore := (w - 1) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < w; j++ {
			idx := i + j - padBefore
			if idx < 0 || idx >= n {
				continue
			}
			sum += x[idx] * k[j]
		}
		out[i] = sum
	}
	return out
}

func toComplex(x []float64) []complex128 {
	z := make([]complex128, len(x))
	for i, v := range x {
		z[i] = complex(v, 0)
	}
	return z
}
