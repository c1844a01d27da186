package nn

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"sctnet/internal/spikegraph"
)

var (
	ErrUnknownNeuron      = errors.New("unknown neuron")
	ErrNeuronOwned        = errors.New("neuron already belongs to a network")
	ErrFanInMismatch      = errors.New("weight count does not match fan-in")
	ErrAmplitudeMismatch  = errors.New("amplitude count does not match input layer")
	ErrEnableCycle        = errors.New("enable-by chain forms a cycle")
	ErrInputLength        = errors.New("input length does not match input layer")
	ErrInvalidParameter   = errors.New("invalid neuron parameter")
	ErrNoLayers           = errors.New("network has no layers")
	ErrSimulationStarted  = errors.New("network has already been ticked")
	ErrClockUnavailable   = errors.New("clock frequency too low for clock input")
	ErrLayerOutOfRange    = errors.New("layer index out of range")
	ErrNeuronInManyLayers = errors.New("neuron appears in more than one layer")
)

const noController = -1

// Network owns the neurons of a simulation, the spike graph connecting them,
// and the shared quadrature clock. It is not safe for concurrent use.
type Network struct {
	clockFrequency int
	clock          quadratureClock
	amplitude      []float64
	enableBy       []int
	neurons        []*Neuron
	graph          *spikegraph.Graph
	layers         []*Layer

	validated bool
	ticks     int
	scratch   []float64
	output    []float64
	quantized []float64
	logger    *slog.Logger
}

func NewNetwork(clockFrequency int) *Network {
	return &Network{
		clockFrequency: clockFrequency,
		clock:          newQuadratureClock(clockFrequency),
		graph:          spikegraph.New(),
		logger:         slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger used for topology and validation events. The
// per-tick path never logs.
func (n *Network) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	n.logger = logger
}

func (n *Network) ClockFrequency() int {
	return n.clockFrequency
}

// ClockPeriod is the number of ticks in one full clock waveform.
func (n *Network) ClockPeriod() int {
	return 4 * len(n.clock.table)
}

func (n *Network) AddAmplitude(amplitude float64) {
	n.amplitude = append(n.amplitude, amplitude)
	n.validated = false
}

func (n *Network) Amplitudes() []float64 {
	return append([]float64(nil), n.amplitude...)
}

// AddNeuron assigns the next id to neuron and registers it in the spike graph.
func (n *Network) AddNeuron(neuron *Neuron) error {
	if neuron.id >= 0 {
		return fmt.Errorf("%w: id %d", ErrNeuronOwned, neuron.id)
	}
	id := len(n.neurons)
	if err := n.graph.AddNode(id); err != nil {
		return err
	}
	neuron.id = id
	n.neurons = append(n.neurons, neuron)
	n.enableBy = append(n.enableBy, noController)
	n.validated = false
	return nil
}

// AddLayer appends layer. With addNeurons its neurons are registered first;
// with connectNeurons every neuron of the previous layer feeds every neuron of
// this one, previous-layer order first.
func (n *Network) AddLayer(layer *Layer, addNeurons, connectNeurons bool) error {
	if n.ticks > 0 {
		return ErrSimulationStarted
	}
	if err := n.checkLayer(layer, addNeurons); err != nil {
		return err
	}
	for _, neuron := range layer.Neurons {
		if addNeurons {
			if err := n.AddNeuron(neuron); err != nil {
				return err
			}
		}
		if connectNeurons && len(n.layers) > 0 {
			for _, source := range n.layers[len(n.layers)-1].Neurons {
				if err := n.ConnectByID(source.id, neuron.id); err != nil {
					return err
				}
			}
		}
	}
	n.layers = append(n.layers, layer)
	n.validated = false
	n.logger.Debug("layer added", "index", len(n.layers)-1, "neurons", layer.Len(), "connected", connectNeurons)
	return nil
}

// checkLayer rejects a layer AddLayer could only partly register.
func (n *Network) checkLayer(layer *Layer, addNeurons bool) error {
	if !addNeurons {
		for _, neuron := range layer.Neurons {
			if !n.owns(neuron) {
				return fmt.Errorf("%w: layer neuron is not registered", ErrUnknownNeuron)
			}
		}
		return nil
	}
	fresh := make(map[*Neuron]struct{}, len(layer.Neurons))
	for i, neuron := range layer.Neurons {
		if neuron.id >= 0 {
			return fmt.Errorf("%w: layer position %d has id %d", ErrNeuronOwned, i, neuron.id)
		}
		if _, dup := fresh[neuron]; dup {
			return fmt.Errorf("%w: layer position %d repeats a neuron", ErrNeuronOwned, i)
		}
		fresh[neuron] = struct{}{}
	}
	return nil
}

func (n *Network) Connect(source, target *Neuron) error {
	return n.ConnectByID(source.id, target.id)
}

func (n *Network) ConnectByID(sourceID, targetID int) error {
	if n.ticks > 0 {
		return ErrSimulationStarted
	}
	if err := n.graph.Connect(sourceID, targetID); err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownNeuron, err)
	}
	n.validated = false
	return nil
}

// ConnectEnableByID makes controllerID the enable gate of targetID: the target
// only emits on ticks where the controller's last value is 1. A negative
// controllerID removes the gate.
func (n *Network) ConnectEnableByID(controllerID, targetID int) error {
	if !n.hasID(targetID) {
		return fmt.Errorf("%w: target %d", ErrUnknownNeuron, targetID)
	}
	if controllerID >= 0 && !n.hasID(controllerID) {
		return fmt.Errorf("%w: controller %d", ErrUnknownNeuron, controllerID)
	}
	if controllerID < 0 {
		controllerID = noController
	}
	n.enableBy[targetID] = controllerID
	n.validated = false
	return nil
}

// EnableLayerBy gates every neuron of layer index with controllerID.
func (n *Network) EnableLayerBy(layerIndex, controllerID int) error {
	layer, err := n.Layer(layerIndex)
	if err != nil {
		return err
	}
	for _, neuron := range layer.Neurons {
		if err := n.ConnectEnableByID(controllerID, neuron.id); err != nil {
			return err
		}
	}
	return nil
}

func (n *Network) EnabledBy(id int) (int, error) {
	if !n.hasID(id) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownNeuron, id)
	}
	return n.enableBy[id], nil
}

// AddNetwork merges a copy of other into n and returns the id offset applied
// to other's neurons. Layers are merged index by index. other is not modified.
func (n *Network) AddNetwork(other *Network) (int, error) {
	if n.ticks > 0 || other.ticks > 0 {
		return 0, ErrSimulationStarted
	}
	if len(n.neurons) != n.graph.NodeCount() {
		return 0, fmt.Errorf("%w: graph has %d nodes for %d neurons", ErrUnknownNeuron, n.graph.NodeCount(), len(n.neurons))
	}
	for i, layer := range other.layers {
		for _, neuron := range layer.Neurons {
			if !other.owns(neuron) {
				return 0, fmt.Errorf("%w: layer %d holds an unregistered neuron", ErrUnknownNeuron, i)
			}
		}
	}

	clones := make(map[*Neuron]*Neuron, len(other.neurons))
	offset := n.graph.AddGraph(other.graph)
	for _, neuron := range other.neurons {
		clone := neuron.Clone()
		clone.id = neuron.id + offset
		clones[neuron] = clone
		n.neurons = append(n.neurons, clone)
	}
	n.amplitude = append(n.amplitude, other.amplitude...)
	for _, controller := range other.enableBy {
		if controller != noController {
			controller += offset
		}
		n.enableBy = append(n.enableBy, controller)
	}
	for i, layer := range other.layers {
		mapped := &Layer{Neurons: make([]*Neuron, len(layer.Neurons))}
		for j, neuron := range layer.Neurons {
			mapped.Neurons[j] = clones[neuron]
		}
		if i == len(n.layers) {
			n.layers = append(n.layers, mapped)
		} else {
			n.layers[i].Merge(mapped)
		}
	}
	n.validated = false
	n.logger.Debug("network merged", "offset", offset, "neurons", len(other.neurons))
	return offset, nil
}

// Compose returns a new network holding a followed by b, and the id offset
// applied to b. Neither argument is modified.
func Compose(a, b *Network) (*Network, int, error) {
	out := a.Clone()
	offset, err := out.AddNetwork(b)
	if err != nil {
		return nil, 0, err
	}
	return out, offset, nil
}

// Clone returns a deep copy of the network, including runtime state.
func (n *Network) Clone() *Network {
	out := &Network{
		clockFrequency: n.clockFrequency,
		clock: quadratureClock{
			table:    n.clock.table,
			index:    n.clock.index,
			quadrant: n.clock.quadrant,
		},
		amplitude: append([]float64(nil), n.amplitude...),
		enableBy:  append([]int(nil), n.enableBy...),
		neurons:   make([]*Neuron, len(n.neurons)),
		graph:     n.graph.Clone(),
		layers:    make([]*Layer, len(n.layers)),
		ticks:     n.ticks,
		logger:    n.logger,
	}
	byID := make(map[*Neuron]*Neuron, len(n.neurons))
	for i, neuron := range n.neurons {
		out.neurons[i] = neuron.Clone()
		byID[neuron] = out.neurons[i]
	}
	for i, layer := range n.layers {
		mapped := &Layer{Neurons: make([]*Neuron, len(layer.Neurons))}
		for j, neuron := range layer.Neurons {
			if clone, ok := byID[neuron]; ok {
				mapped.Neurons[j] = clone
			} else {
				mapped.Neurons[j] = neuron.Clone()
			}
		}
		out.layers[i] = mapped
	}
	return out
}

func (n *Network) Layer(i int) (*Layer, error) {
	if i < 0 || i >= len(n.layers) {
		return nil, fmt.Errorf("%w: %d", ErrLayerOutOfRange, i)
	}
	return n.layers[i], nil
}

func (n *Network) Layers() []*Layer {
	return n.layers
}

func (n *Network) Neuron(id int) (*Neuron, error) {
	if !n.hasID(id) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNeuron, id)
	}
	return n.neurons[id], nil
}

func (n *Network) Neurons() []*Neuron {
	return n.neurons
}

func (n *Network) NeuronCount() int {
	return len(n.neurons)
}

func (n *Network) Graph() *spikegraph.Graph {
	return n.graph
}

// Ticks is the number of ticks run since construction or ResetState.
func (n *Network) Ticks() int {
	return n.ticks
}

// Labels returns the labels of the output layer.
func (n *Network) Labels() []string {
	if len(n.layers) == 0 {
		return nil
	}
	last := n.layers[len(n.layers)-1]
	labels := make([]string, len(last.Neurons))
	for i, neuron := range last.Neurons {
		labels[i] = neuron.Label
	}
	return labels
}

// Tick runs one clock step. values are injected as potentials into the input
// layer, one per neuron; clock-driven input neurons take the clock sample
// instead. The returned slice holds the output layer values and is reused by
// the next tick.
func (n *Network) Tick(values []float64) ([]float64, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	input := n.layers[0]
	if len(values) != len(input.Neurons) {
		return nil, fmt.Errorf("%w: got %d values for %d input neurons", ErrInputLength, len(values), len(input.Neurons))
	}

	n.clock.advance()
	for i, neuron := range input.Neurons {
		p := values[i]
		if neuron.UseClockInput {
			if neuron.ClockQuadrature {
				p = n.clock.cosine()
			} else {
				p = n.clock.sine()
			}
		}
		neuron.Inject(p)
	}

	for _, layer := range n.layers {
		for _, neuron := range layer.Neurons {
			n.scratch = n.graph.InputSpikesTo(neuron.id, n.scratch)
			out := neuron.Cycle(n.scratch, n.enabled(neuron.id))
			n.graph.UpdateSpike(neuron.id, out)
		}
	}
	n.ticks++

	last := n.layers[len(n.layers)-1]
	for i, neuron := range last.Neurons {
		n.output[i] = n.graph.Spike(neuron.id)
	}
	return n.output, nil
}

// FeedSample broadcasts one sample to every amplitude channel, scales and
// quantizes it, and runs one tick.
func (n *Network) FeedSample(sample float64) ([]float64, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	for i, amplitude := range n.amplitude {
		n.quantized[i] = quantize(sample * amplitude)
	}
	return n.Tick(n.quantized)
}

// FeedVector is FeedSample with one sample per amplitude channel.
func (n *Network) FeedVector(samples []float64) ([]float64, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	if len(samples) != len(n.amplitude) {
		return nil, fmt.Errorf("%w: got %d samples for %d channels", ErrInputLength, len(samples), len(n.amplitude))
	}
	for i, amplitude := range n.amplitude {
		n.quantized[i] = quantize(samples[i] * amplitude)
	}
	return n.Tick(n.quantized)
}

// FeedSequence feeds samples one tick each and returns the summed output layer
// values.
func (n *Network) FeedSequence(samples []float64) ([]float64, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	totals := make([]float64, len(n.output))
	for _, sample := range samples {
		out, err := n.FeedSample(sample)
		if err != nil {
			return nil, err
		}
		for i, v := range out {
			totals[i] += v
		}
	}
	return totals, nil
}

func (n *Network) LogMembranePotential(id int) error {
	neuron, err := n.Neuron(id)
	if err != nil {
		return err
	}
	neuron.LogMembranePotential = true
	return nil
}

func (n *Network) LogNoise(id int) error {
	neuron, err := n.Neuron(id)
	if err != nil {
		return err
	}
	neuron.LogNoise = true
	return nil
}

func (n *Network) LogOutSpikes(id int) error {
	neuron, err := n.Neuron(id)
	if err != nil {
		return err
	}
	neuron.LogOutSpikes = true
	return nil
}

// ForgetLogs clears every neuron's spike history and traces. Weights,
// thresholds and integration state are untouched.
func (n *Network) ForgetLogs() {
	for _, neuron := range n.neurons {
		neuron.ForgetLogs()
	}
}

// ResetState zeroes every neuron's integration state, the spike graph values
// and the clock, so the next tick behaves like the first one.
func (n *Network) ResetState() {
	for _, neuron := range n.neurons {
		neuron.ResetState()
	}
	n.graph.Reset()
	n.clock.reset()
	n.ticks = 0
}

// ResetLearning resets every attached learning rule without touching weights.
func (n *Network) ResetLearning() {
	for _, neuron := range n.neurons {
		neuron.ResetLearning()
	}
}

func (n *Network) enabled(id int) bool {
	controller := n.enableBy[id]
	return controller == noController || n.graph.Spike(controller) == 1
}

func (n *Network) hasID(id int) bool {
	return id >= 0 && id < len(n.neurons)
}

func (n *Network) owns(neuron *Neuron) bool {
	return n.hasID(neuron.id) && n.neurons[neuron.id] == neuron
}

// quantize truncates toward zero into the int16 range, saturating at the ends.
func quantize(v float64) float64 {
	return math.Trunc(Sat(v, math.MaxInt16, math.MinInt16))
}
