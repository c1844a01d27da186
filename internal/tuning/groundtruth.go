package tuning

import (
	"errors"
	"fmt"

	"sctnet/internal/nn"
	"sctnet/internal/signal"
)

var ErrNoEncoderSpikes = errors.New("encoder produced no spikes in the scored cycle")

// PhaseShifts are the lags, in degrees, of the four stage targets behind the
// encoder's response.
var PhaseShifts = [4]float64{45, 90, 135, 180}

// cycleEvents keeps the events of the phase-th cycle of a freq Hz signal,
// optionally shifted by shiftDegrees.
func cycleEvents(events []int, clk int, freq float64, phase int, shiftDegrees float64) []int {
	samplesPerCycle := float64(clk) / freq
	shift := float64(int(shiftDegrees * samplesPerCycle / 360))
	lo := float64(phase-1)/freq*float64(clk) + shift
	hi := float64(phase)/freq*float64(clk) + shift
	return signal.WindowEvents(events, lo, hi)
}

type groundTruth struct {
	// anchor is the encoder's first spike in the scored cycle; envelopes are
	// measured from it.
	anchor  int
	events  [][]int
	rolling [][]float64
	spans   []float64
}

// buildGroundTruth drives a lone encoder with sine and records its response
// to phase-shifted copies of the same sine, one per stage.
func (t *Trainer) buildGroundTruth(sine []float64, freq0 float64, phase int) (groundTruth, error) {
	clk := t.ClockFrequency
	encoderNet := nn.NewNetwork(clk)
	encoderNet.SetLogger(t.logger())
	encoderNet.AddAmplitude(t.Amplitude)
	encoder := nn.NewNeuron()
	encoder.Activation = nn.PulseDensity
	encoder.LogOutSpikes = true
	if err := encoderNet.AddLayer(nn.NewLayer(encoder), true, false); err != nil {
		return groundTruth{}, err
	}
	if _, err := encoderNet.FeedSequence(sine); err != nil {
		return groundTruth{}, err
	}

	input := cycleEvents(encoder.OutSpikes(), clk, freq0, phase, 0)
	if len(input) == 0 {
		return groundTruth{}, fmt.Errorf("%w: phase %d", ErrNoEncoderSpikes, phase)
	}
	gt := groundTruth{anchor: input[0]}

	waveLength := int(float64(clk) / freq0)
	size := waveLength + 1
	for _, degrees := range PhaseShifts {
		s := degrees / 360
		start := int((1 - s) * float64(waveLength))
		if _, err := encoderNet.FeedSequence(signal.Slice(sine, start, int((20-s)*float64(waveLength)))); err != nil {
			return groundTruth{}, err
		}
		encoderNet.ForgetLogs()

		tail := signal.Slice(sine, start, len(sine))
		boosted := make([]float64, len(tail))
		for i, v := range tail {
			boosted[i] = 10 * v
		}
		if _, err := encoderNet.FeedSequence(boosted); err != nil {
			return groundTruth{}, err
		}

		events := cycleEvents(encoder.OutSpikes(), clk, freq0, phase, 0)
		rolling := signal.EventsToSpikes(signal.Shift(events, gt.anchor), t.SpikesWindow, size)
		span, err := signal.Span(rolling)
		if err != nil {
			return groundTruth{}, fmt.Errorf("ground truth at %v degrees: %w", degrees, err)
		}
		gt.events = append(gt.events, events)
		gt.rolling = append(gt.rolling, rolling)
		gt.spans = append(gt.spans, span)
	}
	return gt, nil
}
