package nn

import (
	"errors"
	"testing"
)

func TestParseActivation(t *testing.T) {
	cases := map[string]Activation{
		"identity":      Identity,
		"BINARY":        Binary,
		" pdm ":         PulseDensity,
		"pulse_density": PulseDensity,
		"sigmoid":       Sigmoid,
	}
	for in, want := range cases {
		got, err := ParseActivation(in)
		if err != nil {
			t.Fatalf("ParseActivation(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseActivation(%q)=%s want=%s", in, got, want)
		}
	}
	if _, err := ParseActivation("relu"); !errors.Is(err, ErrActivationNotFound) {
		t.Fatalf("expected ErrActivationNotFound, got %v", err)
	}
}

func TestActivationTextRoundTrip(t *testing.T) {
	for _, a := range []Activation{Identity, Binary, PulseDensity, Sigmoid} {
		text, err := a.MarshalText()
		if err != nil {
			t.Fatalf("marshal %s: %v", a, err)
		}
		var back Activation
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("unmarshal %s: %v", text, err)
		}
		if back != a {
			t.Fatalf("round trip mismatch: got=%s want=%s", back, a)
		}
	}
	if _, err := Activation(42).MarshalText(); err == nil {
		t.Fatal("expected error for unknown activation tag")
	}
}

func TestListActivations(t *testing.T) {
	names := ListActivations()
	want := []string{"binary", "identity", "pulse_density", "sigmoid"}
	if len(names) != len(want) {
		t.Fatalf("unexpected activations: %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("unexpected activation order: %v", names)
		}
	}
	if Identity.Spiking() || !Binary.Spiking() {
		t.Fatal("unexpected spiking classification")
	}
}
