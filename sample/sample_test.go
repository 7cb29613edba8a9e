package sample_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/becomeliminal/holomem-go/core"
	"github.com/becomeliminal/holomem-go/sample"
)

func TestSynthetic(t *testing.T) {
	ctx := context.Background()
	src, err := sample.NewSynthetic(8, 1)
	if err != nil {
		t.Fatalf("Failed to create source: %v", err)
	}
	if src.Size() != 64 {
		t.Errorf("Expected size 64, got %d", src.Size())
	}

	batch, err := src.NextBatch(ctx, 3)
	if err != nil {
		t.Fatalf("NextBatch failed: %v", err)
	}
	if len(batch) != 3 {
		t.Fatalf("Expected 3 images, got %d", len(batch))
	}
	for i, img := range batch {
		if len(img) != 64 {
			t.Fatalf("image %d: expected 64 pixels, got %d", i, len(img))
		}
		var lit bool
		for _, v := range img {
			if v < 0 || v > 1 {
				t.Fatalf("image %d: pixel %v outside [0, 1]", i, v)
			}
			if v > 0.1 {
				lit = true
			}
		}
		if !lit {
			t.Errorf("image %d is blank", i)
		}
	}

	again, _ := sample.NewSynthetic(8, 1)
	first, _ := again.NextBatch(ctx, 1)
	for j := range first[0] {
		if first[0][j] != batch[0][j] {
			t.Fatal("Expected identical images for identical seeds")
		}
	}
}

func TestSynthetic_Errors(t *testing.T) {
	if _, err := sample.NewSynthetic(3, 1); !errors.Is(err, core.ErrDimension) {
		t.Errorf("Expected ErrDimension for odd image, got %v", err)
	}
	src, _ := sample.NewSynthetic(2, 1)
	if _, err := src.NextBatch(context.Background(), 0); !errors.Is(err, core.ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}
}

func TestSlice_PadsAndCycles(t *testing.T) {
	src, err := sample.NewSlice([][]float64{{1, 2, 3}, {4, 5, 6}})
	if err != nil {
		t.Fatalf("Failed to create source: %v", err)
	}
	if src.Size() != 4 {
		t.Fatalf("Expected odd rows padded to 4, got %d", src.Size())
	}

	batch, err := src.NextBatch(context.Background(), 3)
	if err != nil {
		t.Fatalf("NextBatch failed: %v", err)
	}
	want := [][]float64{{1, 2, 3, 0}, {4, 5, 6, 0}, {1, 2, 3, 0}}
	for i := range want {
		for j := range want[i] {
			if batch[i][j] != want[i][j] {
				t.Fatalf("Expected %v, got %v", want, batch)
			}
		}
	}

	// Batches are copies.
	batch[0][0] = 99
	next, _ := src.NextBatch(context.Background(), 2)
	if next[1][0] != 1 {
		t.Errorf("Expected source rows to be unaffected, got %v", next[1])
	}

	if _, err := sample.NewSlice([][]float64{{1, 2}, {1}}); !errors.Is(err, core.ErrDimension) {
		t.Errorf("Expected ErrDimension for ragged rows, got %v", err)
	}
	if _, err := sample.NewSlice(nil); !errors.Is(err, core.ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}
}

func TestReadCSV(t *testing.T) {
	src, err := sample.ReadCSV(strings.NewReader("0,0.5,1,0.25\n1,1,0,0\n"))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if src.Size() != 4 {
		t.Errorf("Expected size 4, got %d", src.Size())
	}
	batch, _ := src.NextBatch(context.Background(), 1)
	if batch[0][1] != 0.5 || batch[0][3] != 0.25 {
		t.Errorf("Unexpected first row: %v", batch[0])
	}

	if _, err := sample.ReadCSV(strings.NewReader("1,x\n")); err == nil {
		t.Error("Expected error for non-numeric field")
	}
}
