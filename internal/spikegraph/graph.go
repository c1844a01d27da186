// Package spikegraph holds the directed spike-propagation graph of a network.
//
// Nodes are dense integer ids. Edges are kept as parallel source/target arrays
// in insertion order, and a per-target index preserves that order, because a
// neuron's weight vector is matched against its incoming edges positionally.
package spikegraph

import (
	"errors"
	"fmt"
)

var ErrUnknownNode = errors.New("unknown node")

type Graph struct {
	spikes   []float64
	sources  []int
	targets  []int
	incoming [][]int
}

func New() *Graph {
	return &Graph{}
}

// AddNode registers id, growing the graph to id+1 nodes if needed.
func (g *Graph) AddNode(id int) error {
	if id < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	for len(g.spikes) <= id {
		g.spikes = append(g.spikes, 0)
		g.incoming = append(g.incoming, nil)
	}
	return nil
}

func (g *Graph) NodeCount() int {
	return len(g.spikes)
}

func (g *Graph) EdgeCount() int {
	return len(g.sources)
}

func (g *Graph) HasNode(id int) bool {
	return id >= 0 && id < len(g.spikes)
}

// Connect appends the edge source -> target. Both nodes must exist.
func (g *Graph) Connect(source, target int) error {
	if !g.HasNode(source) {
		return fmt.Errorf("%w: source %d", ErrUnknownNode, source)
	}
	if !g.HasNode(target) {
		return fmt.Errorf("%w: target %d", ErrUnknownNode, target)
	}
	g.sources = append(g.sources, source)
	g.targets = append(g.targets, target)
	g.incoming[target] = append(g.incoming[target], source)
	return nil
}

// UpdateSpike overwrites the current value of id. No history is retained.
// The caller guarantees id is a registered node.
func (g *Graph) UpdateSpike(id int, value float64) {
	g.spikes[id] = value
}

func (g *Graph) Spike(id int) float64 {
	return g.spikes[id]
}

func (g *Graph) FanIn(id int) int {
	return len(g.incoming[id])
}

// Sources returns the source ids feeding id, in edge-insertion order.
func (g *Graph) Sources(id int) []int {
	out := make([]int, len(g.incoming[id]))
	copy(out, g.incoming[id])
	return out
}

// InputSpikesTo writes the current values of every edge targeting id into dst,
// in edge-insertion order, and returns the filled slice. dst is reused when it
// has enough capacity.
func (g *Graph) InputSpikesTo(id int, dst []float64) []float64 {
	in := g.incoming[id]
	if cap(dst) < len(in) {
		dst = make([]float64, len(in))
	}
	dst = dst[:len(in)]
	for i, source := range in {
		dst[i] = g.spikes[source]
	}
	return dst
}

type Edge struct {
	Source int
	Target int
}

func (g *Graph) Edges() []Edge {
	edges := make([]Edge, len(g.sources))
	for i := range g.sources {
		edges[i] = Edge{Source: g.sources[i], Target: g.targets[i]}
	}
	return edges
}

// MaxFanIn is the largest incoming edge count over all nodes.
func (g *Graph) MaxFanIn() int {
	max := 0
	for _, in := range g.incoming {
		if len(in) > max {
			max = len(in)
		}
	}
	return max
}

// Reset zeroes every node value.
func (g *Graph) Reset() {
	for i := range g.spikes {
		g.spikes[i] = 0
	}
}

func (g *Graph) Clone() *Graph {
	out := &Graph{
		spikes:   append([]float64(nil), g.spikes...),
		sources:  append([]int(nil), g.sources...),
		targets:  append([]int(nil), g.targets...),
		incoming: make([][]int, len(g.incoming)),
	}
	for i, in := range g.incoming {
		out.incoming[i] = append([]int(nil), in...)
	}
	return out
}

// AddGraph appends other's nodes and edges to g, re-basing other's ids by the
// current node count of g, and returns that offset. other is not modified.
func (g *Graph) AddGraph(other *Graph) int {
	offset := len(g.spikes)
	g.spikes = append(g.spikes, other.spikes...)
	for range other.incoming {
		g.incoming = append(g.incoming, nil)
	}
	for i := range other.sources {
		source := other.sources[i] + offset
		target := other.targets[i] + offset
		g.sources = append(g.sources, source)
		g.targets = append(g.targets, target)
		g.incoming[target] = append(g.incoming[target], source)
	}
	return offset
}

// Merge returns a new graph holding a followed by b, and the id offset applied
// to b's nodes. Neither argument is modified.
func Merge(a, b *Graph) (*Graph, int) {
	out := a.Clone()
	offset := out.AddGraph(b)
	return out, offset
}
