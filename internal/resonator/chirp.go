package resonator

import (
	"context"
	"fmt"
	"math"

	"sctnet/internal/nn"
	"sctnet/internal/signal"
)

// DefaultChirpSkip drops the start of a sweep from peak and SNR analysis,
// where the envelope is still settling.
const DefaultChirpSkip = 3000

// Response summarises one neuron's spike envelope over a chirp.
type Response struct {
	NeuronID int     `json:"neuron_id"`
	Spikes   int     `json:"spikes"`
	Peak     float64 `json:"peak"`
	SNR      float64 `json:"snr"`
}

// ChirpLength is the number of samples a sweep over spectrum Hz takes at the
// given per-sample step, rounded to the nearest sample.
func ChirpLength(spectrum, step float64) int {
	if !(step > 0) {
		return 0
	}
	return int(math.Round(spectrum / step))
}

// ChirpResponse feeds a linear chirp of n samples through net, checking ctx
// every few thousand samples.
func ChirpResponse(ctx context.Context, net *nn.Network, start, step float64, n int) error {
	for i, sample := range signal.Chirp(start, step, n, net.ClockFrequency()) {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if _, err := net.FeedSample(sample); err != nil {
			return err
		}
	}
	return nil
}

// AnalyzeChirp turns a neuron's spike events over an n-sample sweep of
// [start, start+spectrum] into the envelope's peak frequency and SNR, the
// envelope span over its standard deviation. The first skip envelope points
// are ignored, capped at half the envelope.
func AnalyzeChirp(events []int, n, window int, start, spectrum float64, skip int) (peak, snr float64, err error) {
	envelope := signal.EventsToSpikes(events, window, n)
	if len(envelope) == 0 {
		return 0, 0, fmt.Errorf("analyse chirp: %w", signal.ErrEmpty)
	}
	if skip > len(envelope)/2 {
		skip = len(envelope) / 2
	}
	tail := signal.Slice(envelope, skip, len(envelope))

	span, err := signal.Span(tail)
	if err != nil {
		return 0, 0, err
	}
	std, err := signal.Std(tail)
	if err != nil {
		return 0, 0, err
	}
	if std > 0 {
		snr = span / std
	}

	step := 0.0
	if len(envelope) > 1 {
		step = spectrum / float64(len(envelope)-1)
	}
	peak = start + step*float64(skip+signal.ArgMax(tail))
	return peak, snr, nil
}

// AnalyzeStages runs AnalyzeChirp over every stage's recorded spikes.
func AnalyzeStages(net *nn.Network, n, window int, start, spectrum float64, skip int) ([]Response, error) {
	out := make([]Response, 0, Stages)
	for _, id := range StageIDs {
		neuron, err := net.Neuron(id)
		if err != nil {
			return nil, err
		}
		events := neuron.OutSpikes()
		peak, snr, err := AnalyzeChirp(events, n, window, start, spectrum, skip)
		if err != nil {
			return nil, fmt.Errorf("neuron %d: %w", id, err)
		}
		out = append(out, Response{NeuronID: id, Spikes: len(events), Peak: peak, SNR: snr})
	}
	return out, nil
}

// BestStage picks the stage with the highest SNR per Hz of peak error against
// freq0 and returns its neuron id.
func BestStage(responses []Response, freq0 float64) int {
	best, bestScore := -1, math.Inf(-1)
	for _, r := range responses {
		score := r.SNR / math.Abs(r.Peak-freq0)
		if math.IsNaN(score) {
			continue
		}
		if best < 0 || score > bestScore {
			best, bestScore = r.NeuronID, score
		}
	}
	return best
}
