package ir

// StepNode is one node of a user-supplied pipeline graph.
type StepNode struct {
	Name     string `json:"name"`
	StepType string `json:"step_type"`
	JobType  string `json:"job_type,omitempty"`
}

// Edge denotes allowed data flow from one node to another.
// It does not name which slots connect.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the compiler input: nodes in insertion order plus edges.
type Graph struct {
	Name  string     `json:"name,omitempty"`
	Nodes []StepNode `json:"nodes"`
	Edges []Edge     `json:"edges"`
}

// AddNode appends a node and returns the graph for chaining.
func (g *Graph) AddNode(name, stepType string) *Graph {
	g.Nodes = append(g.Nodes, StepNode{Name: name, StepType: stepType})
	return g
}

// AddEdge appends an edge and returns the graph for chaining.
func (g *Graph) AddEdge(from, to string) *Graph {
	g.Edges = append(g.Edges, Edge{From: from, To: to})
	return g
}
