package compiler

import "slices"

// FindCycle returns the first cycle reached by depth-first search, visiting
// roots in order and neighbours in adjacency order. The path is closed
// ([a b c a]); a self-loop is [a a]. It returns nil for an acyclic graph.
func FindCycle(order []string, adj Adjacency) []string {
	const (
		white = iota // unvisited
		grey         // on the recursion stack
		black        // finished
	)
	color := make(map[string]int, len(order))
	var stack []string
	var cycle []string

	var visit func(string) bool
	visit = func(v string) bool {
		color[v] = grey
		stack = append(stack, v)
		for _, w := range adj[v] {
			switch color[w] {
			case grey:
				start := slices.Index(stack, w)
				cycle = append(slices.Clone(stack[start:]), w)
				return true
			case white:
				if visit(w) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[v] = black
		return false
	}

	for _, v := range order {
		if color[v] == white && visit(v) {
			return cycle
		}
	}
	return nil
}

// Cycles returns one closed cycle path per cyclic strongly connected
// component, using Tarjan's algorithm. Each path starts at the component
// member that comes first in order, and paths are sorted by that position.
func Cycles(order []string, adj Adjacency) [][]string {
	position := make(map[string]int, len(order))
	for i, v := range order {
		position[v] = i
	}

	var cycles [][]string
	for _, scc := range tarjanSCC(order, adj) {
		if len(scc) == 1 && !slices.Contains(adj[scc[0]], scc[0]) {
			continue
		}
		slices.SortFunc(scc, func(a, b string) int { return position[a] - position[b] })
		cycles = append(cycles, reconstructCyclePath(scc, adj))
	}
	slices.SortFunc(cycles, func(a, b []string) int { return position[a[0]] - position[b[0]] })
	return cycles
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Single-node components without self-loops are returned too.
func tarjanSCC(order []string, adj Adjacency) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root: pop its component.
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, v := range order {
		if _, visited := indices[v]; !visited {
			strongConnect(v)
		}
	}
	return sccs
}

// reconstructCyclePath walks edges inside an SCC from its first member
// back to itself. Within a strongly connected component a depth-first walk
// restricted to members always finds the way back.
func reconstructCyclePath(scc []string, adj Adjacency) []string {
	start := scc[0]
	if len(scc) == 1 {
		return []string{start, start}
	}

	members := make(map[string]bool, len(scc))
	for _, v := range scc {
		members[v] = true
	}

	visited := map[string]bool{start: true}
	path := []string{start}
	var walk func(string) bool
	walk = func(v string) bool {
		for _, w := range adj[v] {
			if w == start && len(path) > 1 {
				path = append(path, start)
				return true
			}
			if !members[w] || visited[w] {
				continue
			}
			visited[w] = true
			path = append(path, w)
			if walk(w) {
				return true
			}
			path = path[:len(path)-1]
		}
		return false
	}
	walk(start)
	return path
}
