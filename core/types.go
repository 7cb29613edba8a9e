package core

import (
	"fmt"
	"strings"
)

// KeyType selects the key-generation policy.
type KeyType string

const (
	KeyOneHot      KeyType = "onehot"
	KeyNormal      KeyType = "normal"
	KeyUniform     KeyType = "uniform"
	KeyDataDerived KeyType = "data"
)

// ParseKeyType accepts the canonical names plus the short aliases the
// command line has always taken ("std", "unif").
func ParseKeyType(s string) (KeyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "onehot", "one-hot":
		return KeyOneHot, nil
	case "normal", "std":
		return KeyNormal, nil
	case "uniform", "unif":
		return KeyUniform, nil
	case "data", "data_derived", "data-derived":
		return KeyDataDerived, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKeyType, s)
}

// Normalization selects how keys are rescaled before binding.
// The modes are mutually exclusive.
type Normalization string

const (
	NormalizeNone           Normalization = "none"
	NormalizeComplexModulus Normalization = "complex_modulus"
	NormalizeL2             Normalization = "l2"
)

// ParseNormalization maps a flag value to a Normalization. Empty means none.
func ParseNormalization(s string) (Normalization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return NormalizeNone, nil
	case "complex", "complex_modulus", "complex-modulus":
		return NormalizeComplexModulus, nil
	case "l2":
		return NormalizeL2, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownNormalization, s)
}

// Convolution selects the binding semantics used by encode and decode.
type Convolution string

const (
	// ConvCircular is wrap-around convolution computed in the frequency
	// domain. It is exactly invertible through index-reversal conjugation.
	ConvCircular Convolution = "circular"

	// ConvDirectCircular is the same operator computed in the time domain.
	ConvDirectCircular Convolution = "direct"

	// ConvLinear is zero-padded, same-length, stride-1 convolution. Decode is
	// only an approximation under this mode, even for a single stored item.
	ConvLinear Convolution = "linear"
)

// ParseConvolution maps a flag value to a Convolution. Empty means circular.
func ParseConvolution(s string) (Convolution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "circular", "fft":
		return ConvCircular, nil
	case "direct":
		return ConvDirectCircular, nil
	case "linear", "same":
		return ConvLinear, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownConvolution, s)
}
