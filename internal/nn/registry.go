package nn

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrActivationNotFound = errors.New("activation not found")

var activationNames = map[Activation]string{
	Identity:     "identity",
	Binary:       "binary",
	PulseDensity: "pulse_density",
	Sigmoid:      "sigmoid",
}

var activationAliases = map[string]Activation{
	"identity":      Identity,
	"binary":        Binary,
	"pulse_density": PulseDensity,
	"pdm":           PulseDensity,
	"sigmoid":       Sigmoid,
}

func (a Activation) String() string {
	if name, ok := activationNames[a]; ok {
		return name
	}
	return fmt.Sprintf("activation(%d)", uint8(a))
}

func (a Activation) Valid() bool {
	_, ok := activationNames[a]
	return ok
}

// Spiking reports whether the activation emits 0/1 events rather than a raw value.
func (a Activation) Spiking() bool {
	return a != Identity
}

func ParseActivation(name string) (Activation, error) {
	a, ok := activationAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrActivationNotFound, name)
	}
	return a, nil
}

func (a Activation) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrActivationNotFound, uint8(a))
	}
	return []byte(a.String()), nil
}

func (a *Activation) UnmarshalText(text []byte) error {
	parsed, err := ParseActivation(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func ListActivations() []string {
	names := make([]string, 0, len(activationNames))
	for _, name := range activationNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
