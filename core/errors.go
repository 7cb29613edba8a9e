package core

import "errors"

// Error kinds raised by the holographic memory. All of them are detected by
// precondition checks before any numeric work starts, so a failed call never
// leaves partial results behind. Wrap with fmt.Errorf("%w: ...") and test
// with errors.Is.
var (
	// ErrDimension reports an odd length where a complex interpretation is
	// required, or mismatched lengths between keys, values and permutations.
	ErrDimension = errors.New("dimension error")

	// ErrNormalization reports a key whose complex modulus deviates from 1.0
	// beyond tolerance after a claimed normalization step.
	ErrNormalization = errors.New("normalization error")

	// ErrUnknownKeyType reports an unrecognized key-generation mode.
	ErrUnknownKeyType = errors.New("unknown key type")

	// ErrEmptyInput reports an empty key or value collection.
	ErrEmptyInput = errors.New("empty input")

	// ErrUnknownNormalization reports a key normalization mode other than
	// none, complex_modulus or l2.
	ErrUnknownNormalization = errors.New("unknown normalization mode")

	// ErrUnknownConvolution reports an unrecognized binding backend.
	ErrUnknownConvolution = errors.New("unknown convolution mode")

	// ErrInvalidDecay reports a Hebbian decay factor outside [0, 1].
	ErrInvalidDecay = errors.New("invalid decay factor")

	// ErrNotFound reports a trace ID that no store knows about.
	ErrNotFound = errors.New("not found")
)
