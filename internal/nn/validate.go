package nn

import "fmt"

const maxLeakageFactor = 62

// Validate checks the topology once before the first tick and again after
// any topology change. It also sizes the buffers the tick path reuses.
func (n *Network) Validate() error {
	if n.validated {
		return nil
	}
	if len(n.layers) == 0 {
		return ErrNoLayers
	}
	input := n.layers[0]
	if len(n.amplitude) != len(input.Neurons) {
		return fmt.Errorf("%w: %d amplitudes for %d input neurons", ErrAmplitudeMismatch, len(n.amplitude), len(input.Neurons))
	}

	seen := make(map[int]int, len(n.neurons))
	for li, layer := range n.layers {
		for _, neuron := range layer.Neurons {
			if !n.owns(neuron) {
				return fmt.Errorf("%w: layer %d holds an unregistered neuron", ErrUnknownNeuron, li)
			}
			if prev, ok := seen[neuron.id]; ok {
				return fmt.Errorf("%w: neuron %d in layers %d and %d", ErrNeuronInManyLayers, neuron.id, prev, li)
			}
			seen[neuron.id] = li
			if neuron.UseClockInput {
				if li != 0 {
					return fmt.Errorf("%w: neuron %d reads the clock outside the input layer", ErrInvalidParameter, neuron.id)
				}
				if len(n.clock.table) == 0 {
					return fmt.Errorf("%w: frequency %d", ErrClockUnavailable, n.clockFrequency)
				}
			}
		}
	}

	rules := make(map[*SupervisedSTDP]int)
	for _, neuron := range n.neurons {
		if err := n.validateNeuron(neuron); err != nil {
			return err
		}
		rule := neuron.SupervisedSTDP()
		if rule == nil {
			continue
		}
		if prev, ok := rules[rule]; ok {
			return fmt.Errorf("%w: neurons %d and %d share a learning rule", ErrInvalidParameter, prev, neuron.id)
		}
		rules[rule] = neuron.id
	}
	if err := n.validateEnableChains(); err != nil {
		return err
	}

	last := n.layers[len(n.layers)-1]
	n.output = make([]float64, len(last.Neurons))
	n.quantized = make([]float64, len(n.amplitude))
	n.scratch = make([]float64, 0, n.graph.MaxFanIn())
	n.validated = true
	n.logger.Debug("network validated",
		"neurons", len(n.neurons),
		"edges", n.graph.EdgeCount(),
		"layers", len(n.layers),
	)
	return nil
}

func (n *Network) validateNeuron(neuron *Neuron) error {
	id := neuron.id
	if fanIn := n.graph.FanIn(id); len(neuron.Weights) != fanIn {
		return fmt.Errorf("%w: neuron %d has %d weights for %d incoming edges", ErrFanInMismatch, id, len(neuron.Weights), fanIn)
	}
	if neuron.LeakagePeriod < 1 {
		return fmt.Errorf("%w: neuron %d leakage period %d", ErrInvalidParameter, id, neuron.LeakagePeriod)
	}
	if neuron.LeakageFactor < 0 || neuron.LeakageFactor > maxLeakageFactor {
		return fmt.Errorf("%w: neuron %d leakage factor %d", ErrInvalidParameter, id, neuron.LeakageFactor)
	}
	if !neuron.Activation.Valid() {
		return fmt.Errorf("%w: neuron %d activation %d", ErrInvalidParameter, id, uint8(neuron.Activation))
	}
	if !neuron.finite() {
		return fmt.Errorf("%w: neuron %d has non-finite theta or weights", ErrInvalidParameter, id)
	}
	return nil
}

// validateEnableChains rejects gates that eventually gate themselves.
func (n *Network) validateEnableChains() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]uint8, len(n.neurons))
	for start := range n.enableBy {
		var path []int
		id := start
		for id != noController && state[id] == unvisited {
			state[id] = visiting
			path = append(path, id)
			id = n.enableBy[id]
		}
		if id != noController && state[id] == visiting {
			return fmt.Errorf("%w: through neuron %d", ErrEnableCycle, id)
		}
		for _, p := range path {
			state[p] = done
		}
	}
	return nil
}
