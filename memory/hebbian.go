package memory

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/becomeliminal/holomem-go/core"
)

// DefaultHebbianDecay is the forgetting factor used when none is given.
const DefaultHebbianDecay = 0.9

// UpdateHebbWeights returns gamma·A + xᵗx. A is not modified. Repeated
// presentation of x reinforces xᵗx while gamma < 1 fades older associations.
func UpdateHebbWeights(A mat.Matrix, x []float64, gamma float64) (*mat.Dense, error) {
	return UpdateHebbWeightsBatch(A, [][]float64{x}, gamma)
}

// UpdateHebbWeightsBatch returns gamma·A + XᵗX, the sum of the outer
// products of every row of X.
func UpdateHebbWeightsBatch(A mat.Matrix, X [][]float64, gamma float64) (*mat.Dense, error) {
	if gamma < 0 || gamma > 1 {
		return nil, fmt.Errorf("%w: gamma %g outside [0, 1]", core.ErrInvalidDecay, gamma)
	}
	r, c := A.Dims()
	if r != c {
		return nil, fmt.Errorf("%w: weight matrix is %dx%d, want square", core.ErrDimension, r, c)
	}
	n, err := checkBatch(X, "patterns")
	if err != nil {
		return nil, err
	}
	if n != r {
		return nil, fmt.Errorf("%w: pattern length %d does not match weight matrix size %d", core.ErrDimension, n, r)
	}

	var out mat.Dense
	out.Scale(gamma, A)
	for _, x := range X {
		v := mat.NewVecDense(n, x)
		var outer mat.Dense
		outer.Outer(1, v, v)
		out.Add(&out, &outer)
	}
	return &out, nil
}

// HebbianRecall returns A·q, the auto-associative completion of cue q.
func HebbianRecall(A mat.Matrix, q []float64) ([]float64, error) {
	r, c := A.Dims()
	if len(q) != c {
		return nil, fmt.Errorf("%w: cue length %d does not match weight matrix size %dx%d", core.ErrDimension, len(q), r, c)
	}
	var out mat.VecDense
	out.MulVec(A, mat.NewVecDense(len(q), q))
	return out.RawVector().Data, nil
}
