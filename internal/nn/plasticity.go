package nn

import (
	"fmt"
	"math"
	"sort"
)

type STDPConfig struct {
	// A is the learning rate. Trainers may change it between presentations.
	A         float64 `json:"a" yaml:"a"`
	Tau       float64 `json:"tau" yaml:"tau"`
	MaxWeight float64 `json:"max_weight" yaml:"max_weight"`
	MinWeight float64 `json:"min_weight" yaml:"min_weight"`
}

// SupervisedSTDP nudges a neuron's weights towards a ground-truth spike
// train. It belongs to exactly one neuron.
type SupervisedSTDP struct {
	STDPConfig
	groundTruth []int

	cursor      int
	lastTick    int
	lastEmitted int
	lastDesired int
}

// NewSupervisedSTDP validates cfg and copies groundTruth, a sorted list of
// tick indices at which the neuron should fire.
func NewSupervisedSTDP(cfg STDPConfig, groundTruth []int) (*SupervisedSTDP, error) {
	if !(cfg.Tau > 0) || math.IsInf(cfg.Tau, 0) {
		return nil, fmt.Errorf("%w: tau must be positive and finite, got %v", ErrInvalidParameter, cfg.Tau)
	}
	if math.IsNaN(cfg.A) || math.IsInf(cfg.A, 0) {
		return nil, fmt.Errorf("%w: learning rate %v", ErrInvalidParameter, cfg.A)
	}
	if math.IsNaN(cfg.MinWeight) || math.IsNaN(cfg.MaxWeight) || cfg.MinWeight > cfg.MaxWeight {
		return nil, fmt.Errorf("%w: weight bounds [%v, %v]", ErrInvalidParameter, cfg.MinWeight, cfg.MaxWeight)
	}
	if !sort.IntsAreSorted(groundTruth) {
		return nil, fmt.Errorf("%w: ground truth ticks must be sorted", ErrInvalidParameter)
	}
	r := &SupervisedSTDP{
		STDPConfig:  cfg,
		groundTruth: append([]int(nil), groundTruth...),
	}
	r.Reset()
	return r, nil
}

func (r *SupervisedSTDP) GroundTruth() []int {
	return r.groundTruth
}

// Reset forgets the rule's position in the ground truth and its event memory.
func (r *SupervisedSTDP) Reset() {
	r.cursor = 0
	r.lastTick = -1
	r.lastEmitted = -1
	r.lastDesired = -1
}

func (r *SupervisedSTDP) Clone() *SupervisedSTDP {
	out := *r
	out.groundTruth = append([]int(nil), r.groundTruth...)
	return &out
}

// Apply runs one tick of the rule against the neuron's weights. inputs are the
// values that reached the neuron this tick, in weight order. It reports
// whether the weights changed.
func (r *SupervisedSTDP) Apply(weights, inputs []float64, emitted bool, tick int) bool {
	if tick <= r.lastTick {
		r.Reset()
	}
	r.lastTick = tick
	if len(r.groundTruth) == 0 || tick > r.groundTruth[len(r.groundTruth)-1] {
		return false
	}

	for r.cursor < len(r.groundTruth) && r.groundTruth[r.cursor] < tick {
		r.cursor++
	}
	desired := r.cursor < len(r.groundTruth) && r.groundTruth[r.cursor] == tick

	var changed bool
	if emitted != desired {
		sign := 1.0
		since := r.lastEmitted
		if emitted {
			sign = -1
			since = r.lastDesired
		}
		delta := r.A * r.window(since, tick)
		for i := range weights {
			weights[i] = Sat(weights[i]+sign*delta*inputs[i], r.MaxWeight, r.MinWeight)
		}
		changed = delta != 0
	}

	if emitted {
		r.lastEmitted = tick
	}
	if desired {
		r.lastDesired = tick
	}
	return changed
}

// window is 1-exp(-dt/tau): errors far from the nearest opposite event get the
// full learning rate, errors right next to one get almost none.
func (r *SupervisedSTDP) window(since, tick int) float64 {
	if since < 0 {
		return 1
	}
	dt := float64(tick - since)
	return 1 - math.Exp(-dt/r.Tau)
}
