package compiler

import "slices"

// stableTopoOrder returns a topological order of an acyclic graph. When
// several nodes are ready at once the one inserted first is taken, so the
// same input always yields the same order.
func stableTopoOrder(order []string, succ, pred Adjacency) []string {
	position := make(map[string]int, len(order))
	indegree := make(map[string]int, len(order))
	var ready []int
	for i, v := range order {
		position[v] = i
		indegree[v] = len(pred[v])
		if indegree[v] == 0 {
			ready = append(ready, i)
		}
	}

	out := make([]string, 0, len(order))
	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]
		v := order[i]
		out = append(out, v)

		for _, w := range succ[v] {
			indegree[w]--
			if indegree[w] == 0 {
				p := position[w]
				at, _ := slices.BinarySearch(ready, p)
				ready = slices.Insert(ready, at, p)
			}
		}
	}
	return out
}
