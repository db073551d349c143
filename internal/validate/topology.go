package validate

import (
	"fmt"

	"github.com/pashuvision/modelport/internal/graph"
)

// Visitation states of the cycle search.
const (
	white = iota // not visited
	gray         // on the current path
	black        // fully explored
)

// fromGraph marks tensors produced by a graph input or initializer.
const fromGraph = -1

// edge is a dependency of a node on the producer of one of its inputs.
type edge struct {
	producer int
	tensor   string
}

// checkTopology re-derives the single-producer and declaration-order
// invariants over the whole node list.
func checkTopology(g *graph.Graph) *ValidationError {
	producer := make(map[string]int, len(g.Inputs)+len(g.Initializers)+len(g.Nodes))
	for _, in := range g.Inputs {
		producer[in.Name] = fromGraph
	}
	for _, init := range g.Initializers {
		producer[init.Name()] = fromGraph
	}
	for i, n := range g.Nodes {
		for _, out := range n.Outputs {
			if out == "" {
				continue
			}
			if prev, ok := producer[out]; ok {
				by := "a graph input or initializer"
				if prev != fromGraph {
					by = fmt.Sprintf("node %q", nodeLabel(g.Nodes[prev], prev))
				}
				return fail(ReasonCycleOrMultiProducer, out, nodeLabel(n, i), "tensor is already produced by %s", by)
			}
			producer[out] = i
		}
	}

	deps := make([][]edge, len(g.Nodes))
	for i, n := range g.Nodes {
		for _, in := range n.Inputs {
			if in == "" {
				continue
			}
			p, ok := producer[in]
			if !ok {
				return fail(ReasonCycleOrMultiProducer, in, nodeLabel(n, i), "input has no producer")
			}
			if p != fromGraph {
				deps[i] = append(deps[i], edge{producer: p, tensor: in})
			}
		}
	}

	if at, ok := findCycle(deps); ok {
		return fail(ReasonCycleOrMultiProducer, "", nodeLabel(g.Nodes[at], at), "dependency cycle")
	}

	for i, n := range g.Nodes {
		for _, d := range deps[i] {
			if d.producer > i {
				return fail(ReasonCycleOrMultiProducer, d.tensor, nodeLabel(n, i),
					"input is produced by later node %q", nodeLabel(g.Nodes[d.producer], d.producer))
			}
		}
	}

	for _, out := range g.Outputs {
		if _, ok := producer[out.Name]; !ok {
			return fail(ReasonCycleOrMultiProducer, out.Name, "", "graph output has no producer")
		}
	}
	return nil
}

// findCycle runs a depth-first search over node dependencies and returns a
// node on the first cycle found.
func findCycle(deps [][]edge) (int, bool) {
	state := make([]int, len(deps))

	var visit func(i int) (int, bool)
	visit = func(i int) (int, bool) {
		state[i] = gray
		for _, d := range deps[i] {
			switch state[d.producer] {
			case gray:
				return d.producer, true
			case white:
				if at, ok := visit(d.producer); ok {
					return at, true
				}
			}
		}
		state[i] = black
		return 0, false
	}

	for i := range deps {
		if state[i] == white {
			if at, ok := visit(i); ok {
				return at, true
			}
		}
	}
	return 0, false
}
