package compiler

import (
	"fmt"
	"slices"

	"github.com/roach88/stepwire/internal/ir"
)

// Adjacency maps a node name to its neighbours in insertion order.
type Adjacency map[string][]string

// dag is the validated, indexed form of an input graph.
type dag struct {
	nodes  []ir.StepNode
	order  []string // node names in insertion order
	byName map[string]ir.StepNode
	succ   Adjacency
	pred   Adjacency
}

// buildDAG validates structure and indexes g. Every problem is reported,
// not just the first. Duplicate edges are collapsed.
func buildDAG(g ir.Graph) (*dag, error) {
	d := &dag{
		byName: make(map[string]ir.StepNode, len(g.Nodes)),
		succ:   make(Adjacency, len(g.Nodes)),
		pred:   make(Adjacency, len(g.Nodes)),
	}
	var problems []GraphProblem

	for i, n := range g.Nodes {
		if n.Name == "" {
			problems = append(problems, GraphProblem{
				Code:    CodeNodeNameEmpty,
				Message: fmt.Sprintf("nodes[%d] has no name", i),
			})
			continue
		}
		if _, dup := d.byName[n.Name]; dup {
			problems = append(problems, GraphProblem{
				Code:    CodeDuplicateNode,
				Node:    n.Name,
				Message: fmt.Sprintf("duplicate node name %q", n.Name),
			})
			continue
		}
		if n.StepType == "" {
			problems = append(problems, GraphProblem{
				Code:    CodeStepTypeEmpty,
				Node:    n.Name,
				Message: fmt.Sprintf("node %q has no step type", n.Name),
			})
		}
		d.byName[n.Name] = n
		d.nodes = append(d.nodes, n)
		d.order = append(d.order, n.Name)
	}

	for _, e := range g.Edges {
		edge := e
		_, fromOK := d.byName[e.From]
		_, toOK := d.byName[e.To]
		if !fromOK {
			problems = append(problems, GraphProblem{
				Code:    CodeEdgeUnknownSource,
				Edge:    &edge,
				Message: fmt.Sprintf("edge %s → %s: unknown source node %q", e.From, e.To, e.From),
			})
		}
		if !toOK {
			problems = append(problems, GraphProblem{
				Code:    CodeEdgeUnknownTarget,
				Edge:    &edge,
				Message: fmt.Sprintf("edge %s → %s: unknown target node %q", e.From, e.To, e.To),
			})
		}
		if !fromOK || !toOK || slices.Contains(d.succ[e.From], e.To) {
			continue
		}
		d.succ[e.From] = append(d.succ[e.From], e.To)
		d.pred[e.To] = append(d.pred[e.To], e.From)
	}

	if len(problems) > 0 {
		return nil, &GraphError{Problems: problems}
	}
	return d, nil
}

// distancesTo returns, for every ancestor of target, the number of edges on
// the shortest path from that ancestor to target.
func (d *dag) distancesTo(target string) map[string]int {
	dist := map[string]int{target: 0}
	queue := []string{target}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range d.pred[cur] {
			if _, seen := dist[p]; !seen {
				dist[p] = dist[cur] + 1
				queue = append(queue, p)
			}
		}
	}
	delete(dist, target)
	return dist
}
