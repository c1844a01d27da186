// Package resonator builds the four-stage SCTN band-pass resonator and
// analyses its response to frequency sweeps.
package resonator

import (
	"errors"
	"fmt"
	"math"

	"sctnet/internal/nn"
)

const (
	EncoderID = 0
	Stages    = 4
	// WeightCount is one feed-forward and one feedback weight into the first
	// stage plus one weight per later stage.
	WeightCount = Stages + 1
)

var ErrInvalidParams = errors.New("invalid resonator parameters")

// StageIDs are the neuron ids of the four resonator stages, in feed order.
var StageIDs = [Stages]int{1, 2, 3, 4}

type Params struct {
	Freq0         float64   `json:"freq0" yaml:"freq0"`
	LeakageFactor int       `json:"lf" yaml:"lf"`
	LeakagePeriod int       `json:"lp,omitempty" yaml:"lp,omitempty"`
	Thetas        []float64 `json:"thetas" yaml:"thetas"`
	Weights       []float64 `json:"weights" yaml:"weights"`
}

// LeakagePeriodFor returns the leakage period that tunes a resonator with
// leakage factor lf to freq0 at clock clk.
func LeakagePeriodFor(lf int, freq0 float64, clk int) int {
	lp := int(math.Round(float64(clk) / (2 * math.Pi * math.Ldexp(freq0, lf))))
	if lp < 1 {
		return 1
	}
	return lp
}

// Frequency is the centre frequency of a resonator with the given leakage.
func Frequency(clk, lf, lp int) float64 {
	return float64(clk) / (2 * math.Pi * math.Ldexp(float64(lp), lf))
}

// Period returns the explicit leakage period or derives it from Freq0.
func (p Params) Period(clk int) int {
	if p.LeakagePeriod > 0 {
		return p.LeakagePeriod
	}
	return LeakagePeriodFor(p.LeakageFactor, p.Freq0, clk)
}

func (p Params) Validate() error {
	if !(p.Freq0 > 0) || math.IsInf(p.Freq0, 0) {
		return fmt.Errorf("%w: freq0 %v", ErrInvalidParams, p.Freq0)
	}
	if len(p.Thetas) != Stages {
		return fmt.Errorf("%w: %d thetas, want %d", ErrInvalidParams, len(p.Thetas), Stages)
	}
	if len(p.Weights) != WeightCount {
		return fmt.Errorf("%w: %d weights, want %d", ErrInvalidParams, len(p.Weights), WeightCount)
	}
	return nil
}

// New builds encoder -> SCTN1 -> SCTN2 -> SCTN3 -> SCTN4 with SCTN4 fed back
// into SCTN1 through a negative weight.
func New(clk int, amplitude float64, p Params) (*nn.Network, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	lp := p.Period(clk)

	net := nn.NewNetwork(clk)
	net.AddAmplitude(amplitude)

	encoder := nn.NewNeuron()
	encoder.Activation = nn.PulseDensity
	encoder.Label = "encoder"
	if err := net.AddLayer(nn.NewLayer(encoder), true, false); err != nil {
		return nil, err
	}

	for i := 0; i < Stages; i++ {
		stage := nn.NewNeuron()
		stage.Activation = nn.PulseDensity
		stage.LeakageFactor = p.LeakageFactor
		stage.LeakagePeriod = lp
		stage.Theta = p.Thetas[i]
		stage.MembraneShouldReset = false
		stage.Label = fmt.Sprintf("sctn%d", i+1)
		if i == 0 {
			stage.Weights = []float64{p.Weights[0], -p.Weights[1]}
		} else {
			stage.Weights = []float64{p.Weights[1+i]}
		}
		if err := net.AddLayer(nn.NewLayer(stage), true, true); err != nil {
			return nil, err
		}
	}

	if err := net.ConnectByID(StageIDs[Stages-1], StageIDs[0]); err != nil {
		return nil, err
	}
	return net, nil
}

// NewLearning is New with a supervised STDP rule on every stage. Stage i
// learns towards groundTruths[i].
func NewLearning(clk int, amplitude float64, p Params, rule nn.STDPConfig, groundTruths [][]int) (*nn.Network, error) {
	if len(groundTruths) != Stages {
		return nil, fmt.Errorf("%w: %d ground truths, want %d", ErrInvalidParams, len(groundTruths), Stages)
	}
	net, err := New(clk, amplitude, p)
	if err != nil {
		return nil, err
	}
	for i, id := range StageIDs {
		learning, err := nn.NewSupervisedSTDP(rule, groundTruths[i])
		if err != nil {
			return nil, err
		}
		neuron, err := net.Neuron(id)
		if err != nil {
			return nil, err
		}
		neuron.SetSupervisedSTDP(learning)
	}
	return net, nil
}

// LogStages turns on spike recording for the encoder and every stage.
func LogStages(net *nn.Network) error {
	if err := net.LogOutSpikes(EncoderID); err != nil {
		return err
	}
	for _, id := range StageIDs {
		if err := net.LogOutSpikes(id); err != nil {
			return err
		}
	}
	return nil
}

// FlatWeights returns the stage weights as stored in Params: magnitudes,
// rounded to three decimals.
func FlatWeights(net *nn.Network) []float64 {
	out := make([]float64, 0, WeightCount)
	for _, id := range StageIDs {
		neuron, err := net.Neuron(id)
		if err != nil {
			continue
		}
		for _, w := range neuron.Weights {
			out = append(out, round3(math.Abs(w)))
		}
	}
	return out
}

func FlatThetas(net *nn.Network) []float64 {
	out := make([]float64, 0, Stages)
	for _, id := range StageIDs {
		neuron, err := net.Neuron(id)
		if err != nil {
			continue
		}
		out = append(out, round3(neuron.Theta))
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
