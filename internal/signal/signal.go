// Package signal generates test waveforms and turns spike-event lists into
// rolling spike-count envelopes.
package signal

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmpty          = errors.New("values must not be empty")
	ErrLengthMismatch = errors.New("length mismatch")
)

// Sine samples sin(2π·freq·t) over [0, duration] seconds at clk samples per
// second. The first and last samples sit exactly on the interval ends.
func Sine(freq float64, clk int, duration float64) []float64 {
	n := int(duration * float64(clk))
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	step := duration / float64(n-1)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * step * float64(i))
	}
	return out
}

// Chirp returns n samples of a linear chirp whose instantaneous frequency
// starts at start Hz and rises by step Hz every sample.
func Chirp(start, step float64, n, clk int) []float64 {
	out := make([]float64, n)
	phase := 0.0
	for i := range out {
		freq := start + step*float64(i)
		phase += 2 * math.Pi * freq / float64(clk)
		out[i] = math.Sin(phase)
	}
	return out
}

// ChirpFrequencies returns the instantaneous frequency of each Chirp sample.
func ChirpFrequencies(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

// WindowEvents returns the events strictly inside (lo, hi).
func WindowEvents(events []int, lo, hi float64) []int {
	out := make([]int, 0)
	for _, e := range events {
		if float64(e) > lo && float64(e) < hi {
			out = append(out, e)
		}
	}
	return out
}

// Shift subtracts offset from every event.
func Shift(events []int, offset int) []int {
	out := make([]int, len(events))
	for i, e := range events {
		out[i] = e - offset
	}
	return out
}

// EventsToSpikes marks events on a zero train of length size and, when
// window > 0, returns its rolling sum in "valid" mode. A negative size sizes
// the train to the last event. Events outside the train are dropped.
func EventsToSpikes(events []int, window, size int) []float64 {
	if size < 0 {
		size = 0
		if len(events) > 0 {
			size = events[len(events)-1] + 1
		}
	}
	train := make([]float64, size)
	for _, e := range events {
		if e >= 0 && e < size {
			train[e] = 1
		}
	}
	if window <= 0 {
		return train
	}
	return rollingSum(train, window)
}

// rollingSum matches a full-overlap convolution with a window of ones. When
// the train is shorter than the window every output is the train's total.
func rollingSum(train []float64, window int) []float64 {
	if len(train) == 0 {
		return []float64{}
	}
	if len(train) < window {
		total := 0.0
		for _, v := range train {
			total += v
		}
		out := make([]float64, window-len(train)+1)
		for i := range out {
			out[i] = total
		}
		return out
	}
	out := make([]float64, len(train)-window+1)
	sum := 0.0
	for i := 0; i < window; i++ {
		sum += train[i]
	}
	out[0] = sum
	for i := 1; i < len(out); i++ {
		sum += train[i+window-1] - train[i-1]
		out[i] = sum
	}
	return out
}

func Avg(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmpty
	}
	sum := 0.0
	for _, value := range values {
		sum += value
	}
	return sum / float64(len(values)), nil
}

// Std returns population standard deviation.
func Std(values []float64) (float64, error) {
	mean, err := Avg(values)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, value := range values {
		diff := mean - value
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(values))), nil
}

// Span is max minus min.
func Span(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmpty
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return max - min, nil
}

func ArgMax(values []float64) int {
	best := -1
	for i, v := range values {
		if best < 0 || v > values[best] {
			best = i
		}
	}
	return best
}

// MSE is the mean squared difference of two equal-length series.
func MSE(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, ErrEmpty
	}
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum / float64(len(a)), nil
}

// MeanSquare is the mean of the squared values.
func MeanSquare(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmpty
	}
	sum := 0.0
	for _, v := range values {
		sum += v * v
	}
	return sum / float64(len(values)), nil
}

// Slice returns xs[lo:hi] with both bounds clamped into range.
func Slice(xs []float64, lo, hi int) []float64 {
	lo = clamp(lo, 0, len(xs))
	hi = clamp(hi, lo, len(xs))
	return xs[lo:hi]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
