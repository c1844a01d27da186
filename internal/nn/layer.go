package nn

// Layer groups neurons for topology construction and bulk updates. It has no
// identity of its own.
type Layer struct {
	Neurons []*Neuron
}

func NewLayer(neurons ...*Neuron) *Layer {
	return &Layer{Neurons: neurons}
}

func (l *Layer) Len() int {
	return len(l.Neurons)
}

func (l *Layer) IDs() []int {
	ids := make([]int, len(l.Neurons))
	for i, neuron := range l.Neurons {
		ids[i] = neuron.id
	}
	return ids
}

// Merge appends other's neurons to l.
func (l *Layer) Merge(other *Layer) {
	l.Neurons = append(l.Neurons, other.Neurons...)
}

func (l *Layer) SetTheta(theta float64) {
	for _, neuron := range l.Neurons {
		neuron.Theta = theta
	}
}

func (l *Layer) SetLeakage(factor, period int) {
	for _, neuron := range l.Neurons {
		neuron.LeakageFactor = factor
		neuron.LeakagePeriod = period
	}
}

func (l *Layer) SetActivation(a Activation) {
	for _, neuron := range l.Neurons {
		neuron.Activation = a
	}
}

func (l *Layer) SetMembraneShouldReset(reset bool) {
	for _, neuron := range l.Neurons {
		neuron.MembraneShouldReset = reset
	}
}

// SetWeights gives every neuron its own copy of weights.
func (l *Layer) SetWeights(weights []float64) {
	for _, neuron := range l.Neurons {
		neuron.Weights = append([]float64(nil), weights...)
	}
}
