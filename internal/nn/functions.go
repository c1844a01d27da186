package nn

import "math"

// Activation selects how a neuron turns its membrane potential into output.
// Dispatch is by tag; each kind has a pure step function below.
type Activation uint8

const (
	// Identity passes the raw potential downstream as a real value.
	Identity Activation = iota
	// Binary emits 1 when the potential exceeds theta.
	Binary
	// PulseDensity emits a pulse train whose density follows potential-theta.
	PulseDensity
	// Sigmoid compares potential-theta against LFSR-generated gaussian noise.
	Sigmoid
)

const (
	// MembraneLimit bounds the membrane potential to a signed 20-bit range.
	MembraneLimit = 524287

	pulseDensityLimit = 32767
	pulseDensityWrap  = 65536

	gaussianOrder = 8
	gaussianMean  = gaussianOrder * 4096
	lfsrSeed      = 1
)

// Sat clamps value to [min, max].
func Sat(value, max, min float64) float64 {
	if value > max {
		return max
	}
	if value < min {
		return min
	}
	return value
}

func binaryStep(potential, theta float64) bool {
	return potential > theta
}

// pulseDensityStep is a first order sigma-delta modulator over a 16-bit
// accumulator. Drives beyond the saturation limit pin the output.
func pulseDensityStep(drive float64, acc int) (bool, int) {
	if drive > pulseDensityLimit {
		return true, pulseDensityLimit
	}
	if drive < -pulseDensityLimit {
		return false, pulseDensityLimit
	}
	next := int(float64(acc) + drive + pulseDensityLimit + 1)
	if next >= pulseDensityWrap {
		return true, next - pulseDensityWrap
	}
	return false, next
}

// gaussianNoise sums gaussianOrder draws of a 15-bit LFSR and returns the sum
// and the advanced register.
func gaussianNoise(pn uint16) (int, uint16) {
	noise := 0
	for i := 0; i < gaussianOrder; i++ {
		noise += int(pn & 0x1fff)
		pn = (pn >> 1) | ((pn & 0x4000) ^ ((pn & 0x0001) << 14))
	}
	return noise, pn
}

func sigmoidStep(drive float64, pn uint16) (bool, int, uint16) {
	noise, next := gaussianNoise(pn)
	return drive+gaussianMean > float64(noise), noise, next
}

// leak applies one decay step: potential loses potential/2^factor.
func leak(potential float64, factor int) float64 {
	return potential - math.Ldexp(potential, -factor)
}

func dot(weights, inputs []float64) float64 {
	total := 0.0
	for i, w := range weights {
		total += w * inputs[i]
	}
	return total
}
