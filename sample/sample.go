// Package sample supplies batches of raw value vectors to encode.
package sample

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/becomeliminal/holomem-go/core"
	"github.com/becomeliminal/holomem-go/memory"
)

// Source yields batches of real-valued vectors of one fixed, even length.
type Source interface {
	NextBatch(ctx context.Context, n int) ([][]float64, error)
	Size() int
}

// Synthetic draws smooth blob images in [0, 1]: a few Gaussian bumps on a
// side×side grid. Deterministic for a given seed.
type Synthetic struct {
	side int
	rng  *rand.Rand
}

// NewSynthetic creates a source of side×side images. side*side must be even.
func NewSynthetic(side int, seed int64) (*Synthetic, error) {
	if side <= 0 || (side*side)%2 != 0 {
		return nil, fmt.Errorf("%w: image side %d gives odd or empty vectors", core.ErrDimension, side)
	}
	return &Synthetic{
		side: side,
		rng:  rand.New(rand.NewPCG(uint64(seed), 0x5eed)),
	}, nil
}

func (s *Synthetic) Size() int { return s.side * s.side }

func (s *Synthetic) NextBatch(ctx context.Context, n int) ([][]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: batch size %d", core.ErrEmptyInput, n)
	}
	batch := make([][]float64, n)
	for b := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch[b] = s.image()
	}
	return batch, nil
}

func (s *Synthetic) image() []float64 {
	side := float64(s.side)
	img := make([]float64, s.side*s.side)
	bumps := 2 + s.rng.IntN(3)
	for i := 0; i < bumps; i++ {
		cx, cy := s.rng.Float64()*side, s.rng.Float64()*side
		sigma := side / (4 + 4*s.rng.Float64())
		for y := 0; y < s.side; y++ {
			for x := 0; x < s.side; x++ {
				dx, dy := float64(x)-cx, float64(y)-cy
				img[y*s.side+x] += math.Exp(-(dx*dx + dy*dy) / (2 * sigma * sigma))
			}
		}
	}
	for i, v := range img {
		img[i] = math.Min(v, 1)
	}
	return img
}

// Slice cycles over a fixed set of rows.
type Slice struct {
	rows [][]float64
	next int
}

// NewSlice wraps rows of equal length. Odd-length rows are zero-padded by
// one so that they admit a complex interpretation.
func NewSlice(rows [][]float64) (*Slice, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no samples", core.ErrEmptyInput)
	}
	width := len(rows[0])
	for i, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("%w: sample %d has length %d, want %d", core.ErrDimension, i, len(r), width)
		}
	}
	padded, err := memory.ZeroPad(rows, width%2, 1)
	if err != nil {
		return nil, err
	}
	return &Slice{rows: padded}, nil
}

func (s *Slice) Size() int { return len(s.rows[0]) }

func (s *Slice) NextBatch(ctx context.Context, n int) ([][]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: batch size %d", core.ErrEmptyInput, n)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	batch := make([][]float64, n)
	for i := range batch {
		batch[i] = append([]float64(nil), s.rows[s.next]...)
		s.next = (s.next + 1) % len(s.rows)
	}
	return batch, nil
}

// ReadCSV loads one sample per record. Every field must parse as a float.
func ReadCSV(r io.Reader) (*Slice, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	rows := make([][]float64, len(records))
	for i, rec := range records {
		row := make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("record %d field %d: %w", i+1, j+1, err)
			}
			row[j] = v
		}
		rows[i] = row
	}
	return NewSlice(rows)
}
