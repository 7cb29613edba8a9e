package core_test

import (
	"errors"
	"testing"

	"github.com/becomeliminal/holomem-go/core"
)

func TestParseKeyType(t *testing.T) {
	cases := map[string]core.KeyType{
		"onehot": core.KeyOneHot,
		"normal": core.KeyNormal,
		"std":    core.KeyNormal,
		"unif":   core.KeyUniform,
		"DATA":   core.KeyDataDerived,
	}
	for in, want := range cases {
		got, err := core.ParseKeyType(in)
		if err != nil {
			t.Fatalf("ParseKeyType(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseKeyType(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := core.ParseKeyType("gaussian-ish"); !errors.Is(err, core.ErrUnknownKeyType) {
		t.Errorf("Expected ErrUnknownKeyType, got %v", err)
	}
}

func TestParseNormalization(t *testing.T) {
	got, err := core.ParseNormalization("")
	if err != nil || got != core.NormalizeNone {
		t.Errorf("Expected empty string to mean none, got %q (%v)", got, err)
	}
	got, err = core.ParseNormalization("complex")
	if err != nil || got != core.NormalizeComplexModulus {
		t.Errorf("Expected complex_modulus, got %q (%v)", got, err)
	}
	if _, err := core.ParseNormalization("max"); !errors.Is(err, core.ErrUnknownNormalization) {
		t.Errorf("Expected ErrUnknownNormalization, got %v", err)
	}
}

func TestParseConvolution(t *testing.T) {
	got, err := core.ParseConvolution("same")
	if err != nil || got != core.ConvLinear {
		t.Errorf("Expected linear, got %q (%v)", got, err)
	}
	if _, err := core.ParseConvolution("toeplitz"); !errors.Is(err, core.ErrUnknownConvolution) {
		t.Errorf("Expected ErrUnknownConvolution, got %v", err)
	}
}
