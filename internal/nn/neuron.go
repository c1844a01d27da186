package nn

import "math"

// Neuron is a spiking continuous-time neuron. Parameters are exported and set
// by the topology builder before the first tick; runtime state is private.
type Neuron struct {
	Weights             []float64
	LeakageFactor       int
	LeakagePeriod       int
	Theta               float64
	Activation          Activation
	MembraneShouldReset bool
	UseClockInput       bool
	ClockQuadrature     bool
	Label               string

	LogMembranePotential bool
	LogNoise             bool
	LogOutSpikes         bool

	id                int
	membranePotential float64
	injected          float64
	leakageTimer      int
	noise             int
	pn                uint16
	index             int

	outSpikes    []int
	membraneLog  []float64
	noiseLog     []float64
	learningRule *SupervisedSTDP
}

// NewNeuron returns a neuron with default parameters: no synapses, full decay
// every tick, zero threshold, identity activation, reset on fire.
func NewNeuron() *Neuron {
	return &Neuron{
		LeakageFactor:       0,
		LeakagePeriod:       1,
		Activation:          Identity,
		MembraneShouldReset: true,
		id:                  -1,
		pn:                  lfsrSeed,
	}
}

func (n *Neuron) ID() int {
	return n.id
}

func (n *Neuron) MembranePotential() float64 {
	return n.membranePotential
}

// Tick is the index the next cycle will record.
func (n *Neuron) Tick() int {
	return n.index
}

// OutSpikes returns the recorded spike ticks. The slice must not be modified.
func (n *Neuron) OutSpikes() []int {
	return n.outSpikes
}

func (n *Neuron) MembraneLog() []float64 {
	return n.membraneLog
}

func (n *Neuron) NoiseLog() []float64 {
	return n.noiseLog
}

// Inject sets the external potential added during the next cycle.
func (n *Neuron) Inject(potential float64) {
	n.injected = potential
}

func (n *Neuron) SetSupervisedSTDP(rule *SupervisedSTDP) {
	n.learningRule = rule
}

func (n *Neuron) SupervisedSTDP() *SupervisedSTDP {
	return n.learningRule
}

// Cycle advances the neuron by one tick and returns the value it emits: a raw
// potential for Identity, 0 or 1 otherwise. A disabled neuron keeps evolving
// but emits 0.
func (n *Neuron) Cycle(inputs []float64, enabled bool) float64 {
	weighted := dot(n.Weights, inputs)

	n.leakageTimer++
	if n.leakageTimer >= n.LeakagePeriod {
		n.membranePotential = leak(n.membranePotential, n.LeakageFactor)
		n.leakageTimer = 0
	}
	n.membranePotential = Sat(n.membranePotential+weighted+n.injected, MembraneLimit, -MembraneLimit)
	n.injected = 0

	var (
		out   float64
		spike bool
	)
	switch n.Activation {
	case Identity:
		out = n.membranePotential
	case Binary:
		spike = binaryStep(n.membranePotential, n.Theta)
	case PulseDensity:
		spike, n.noise = pulseDensityStep(n.membranePotential-n.Theta, n.noise)
	case Sigmoid:
		spike, n.noise, n.pn = sigmoidStep(n.membranePotential-n.Theta, n.pn)
	}
	if spike {
		out = 1
		if n.MembraneShouldReset {
			n.membranePotential = 0
		}
	}
	if !enabled {
		out = 0
		spike = false
	}

	if n.LogMembranePotential {
		n.membraneLog = append(n.membraneLog, n.membranePotential)
	}
	if n.LogNoise {
		n.noiseLog = append(n.noiseLog, float64(n.noise))
	}
	if spike && n.LogOutSpikes {
		n.outSpikes = append(n.outSpikes, n.index)
	}
	// spike is already gated, so a disabled neuron learns as if silent.
	if n.learningRule != nil {
		n.learningRule.Apply(n.Weights, inputs, spike, n.index)
	}
	n.index++
	return out
}

// ForgetLogs clears the spike history and traces and restarts the tick index.
// Parameters and integration state are kept.
func (n *Neuron) ForgetLogs() {
	n.outSpikes = n.outSpikes[:0]
	n.membraneLog = n.membraneLog[:0]
	n.noiseLog = n.noiseLog[:0]
	n.index = 0
}

// ResetState returns the integration state to its initial values.
func (n *Neuron) ResetState() {
	n.membranePotential = 0
	n.injected = 0
	n.leakageTimer = 0
	n.noise = 0
	n.pn = lfsrSeed
}

func (n *Neuron) ResetLearning() {
	if n.learningRule != nil {
		n.learningRule.Reset()
	}
}

// Clone returns a deep copy, including runtime state and the learning rule.
func (n *Neuron) Clone() *Neuron {
	out := *n
	out.Weights = append([]float64(nil), n.Weights...)
	out.outSpikes = append([]int(nil), n.outSpikes...)
	out.membraneLog = append([]float64(nil), n.membraneLog...)
	out.noiseLog = append([]float64(nil), n.noiseLog...)
	if n.learningRule != nil {
		out.learningRule = n.learningRule.Clone()
	}
	return &out
}

func (n *Neuron) finite() bool {
	if math.IsNaN(n.Theta) || math.IsInf(n.Theta, 0) {
		return false
	}
	for _, w := range n.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return false
		}
	}
	return true
}
