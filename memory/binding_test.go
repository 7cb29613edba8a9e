package memory_test

import (
	"errors"
	"testing"

	"github.com/becomeliminal/holomem-go/core"
	"github.com/becomeliminal/holomem-go/memory"
)

func TestPermKeys_Ordering(t *testing.T) {
	perms, err := memory.GeneratePermutations(4, 2, 11, nil)
	if err != nil {
		t.Fatalf("GeneratePermutations failed: %v", err)
	}
	keys := [][]float64{{1, 2, 3, 4}, {5, 6, 7, 8}}

	permuted, err := memory.PermKeys(keys, perms)
	if err != nil {
		t.Fatalf("PermKeys failed: %v", err)
	}
	if len(permuted) != 4 {
		t.Fatalf("Expected 4 permuted keys, got %d", len(permuted))
	}
	for m, p := range perms {
		for j, k := range keys {
			want, _ := p.Apply(k)
			if d := maxAbsDiff(permuted[m*len(keys)+j], want); d != 0 {
				t.Errorf("permuted[%d] should be model %d applied to key %d", m*len(keys)+j, m, j)
			}
		}
	}
}

func TestPermKeys_Preconditions(t *testing.T) {
	perms, _ := memory.GeneratePermutations(4, 1, 1, nil)
	if _, err := memory.PermKeys(nil, perms); !errors.Is(err, core.ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}
	if _, err := memory.PermKeys([][]float64{{1, 2}}, perms); !errors.Is(err, core.ErrDimension) {
		t.Errorf("Expected ErrDimension, got %v", err)
	}
	if _, err := memory.PermKeys([][]float64{{1, 2, 3, 4}}, nil); !errors.Is(err, core.ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput for no permutations, got %v", err)
	}
}

func TestCircConv1D_Grouping(t *testing.T) {
	X := [][]float64{{1, 2, 3, 4}, {0, 1, 0, 0}}
	e0 := []float64{1, 0, 0, 0}
	e1 := []float64{0, 1, 0, 0}
	keys := [][]float64{e0, e0, e1, e0}

	C, err := memory.CircConv1D(memory.DirectCircular{}, X, keys, false)
	if err != nil {
		t.Fatalf("CircConv1D failed: %v", err)
	}
	if len(C) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(C))
	}
	// group 0: X[0]⊛e0 + X[1]⊛e0; group 1: X[0]⊛e1 + X[1]⊛e0
	want0 := []float64{1, 3, 3, 4}
	want1 := []float64{4, 2, 2, 3}
	if d := maxAbsDiff(C[0], want0); d > 1e-12 {
		t.Errorf("group 0: expected %v, got %v", want0, C[0])
	}
	if d := maxAbsDiff(C[1], want1); d > 1e-12 {
		t.Errorf("group 1: expected %v, got %v", want1, C[1])
	}
}

func TestCircConv1D_ConjUndoesShift(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	shift := []float64{0, 0, 1, 0}

	bound, err := memory.CircConv1D(memory.Circular{}, [][]float64{x}, [][]float64{shift}, false)
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	unbound, err := memory.CircConv1D(memory.Circular{}, bound, [][]float64{shift}, true)
	if err != nil {
		t.Fatalf("unbind failed: %v", err)
	}
	if d := maxAbsDiff(unbound[0], x); d > 1e-9 {
		t.Errorf("Expected %v, got %v", x, unbound[0])
	}
}

func TestCircConv1D_Preconditions(t *testing.T) {
	X := [][]float64{{1, 2, 3, 4}, {1, 2, 3, 4}}
	cases := []struct {
		name string
		X    [][]float64
		keys [][]float64
		conj bool
		want error
	}{
		{"no values", nil, [][]float64{{1, 0, 0, 0}}, false, core.ErrEmptyInput},
		{"no keys", X, nil, false, core.ErrEmptyInput},
		{"length mismatch", X, [][]float64{{1, 0}, {1, 0}}, false, core.ErrDimension},
		{"ungroupable", X, [][]float64{{1, 0, 0, 0}, {1, 0, 0, 0}, {1, 0, 0, 0}}, false, core.ErrDimension},
		{"odd conj", [][]float64{{1, 2, 3}}, [][]float64{{1, 0, 0}}, true, core.ErrDimension},
	}
	for _, tc := range cases {
		if _, err := memory.CircConv1D(memory.Circular{}, tc.X, tc.keys, tc.conj); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestZeroPad(t *testing.T) {
	x := [][]float64{{1, 2}, {3, 4}}

	same, err := memory.ZeroPad(x, 0, 1)
	if err != nil || &same[0][0] != &x[0][0] {
		t.Errorf("Expected zero padding to be a no-op")
	}

	cols, err := memory.ZeroPad(x, 2, 1)
	if err != nil {
		t.Fatalf("ZeroPad axis 1 failed: %v", err)
	}
	if len(cols[1]) != 4 || cols[1][0] != 3 || cols[1][3] != 0 {
		t.Errorf("Expected [3 4 0 0], got %v", cols[1])
	}

	rows, err := memory.ZeroPad(x, 1, 0)
	if err != nil {
		t.Fatalf("ZeroPad axis 0 failed: %v", err)
	}
	if len(rows) != 3 || len(rows[2]) != 2 || rows[2][0] != 0 {
		t.Errorf("Expected an extra zero row, got %v", rows)
	}

	if _, err := memory.ZeroPad(x, 1, 2); !errors.Is(err, core.ErrDimension) {
		t.Errorf("Expected ErrDimension for axis 2, got %v", err)
	}
	if _, err := memory.ZeroPad(x, -1, 1); !errors.Is(err, core.ErrDimension) {
		t.Errorf("Expected ErrDimension for negative padding, got %v", err)
	}
}
