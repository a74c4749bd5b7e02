// Package callgraph builds a procedure call graph and orders it into
// reverse-topological strongly-connected components (leaves first), the
// shape the Houdini engine's initial work queue needs (SPEC_FULL §4.F
// step 2/6).
package callgraph

// Graph is a directed graph of implementation names, edge A->B meaning
// "A calls B".
type Graph struct {
	nodes map[string]bool
	order []string // insertion order, for deterministic SCC discovery
	edges map[string][]string
}

// New constructs an empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]bool), edges: make(map[string][]string)}
}

// AddNode registers name even if it has no edges.
func (g *Graph) AddNode(name string) {
	if !g.nodes[name] {
		g.nodes[name] = true
		g.order = append(g.order, name)
	}
}

// AddEdge records that caller calls callee.
func (g *Graph) AddEdge(caller, callee string) {
	g.AddNode(caller)
	g.AddNode(callee)
	g.edges[caller] = append(g.edges[caller], callee)
}

// Callees returns the direct callees of name.
func (g *Graph) Callees(name string) []string {
	return g.edges[name]
}

// Callers returns every node with an edge into name, in insertion order.
func (g *Graph) Callers(name string) []string {
	var callers []string
	for _, from := range g.order {
		for _, to := range g.edges[from] {
			if to == name {
				callers = append(callers, from)
			}
		}
	}
	return callers
}

// tarjan state for one run of SCC discovery.
type tarjan struct {
	g        *Graph
	index    map[string]int
	lowlink  map[string]int
	onStack  map[string]bool
	stack    []string
	counter  int
	sccs     [][]string
}

// SCCs returns the graph's strongly connected components in
// reverse-topological order: a component that is called by another
// appears before it (leaves first). Within a component, node order is
// discovery order and is not otherwise meaningful.
func (g *Graph) SCCs() [][]string {
	t := &tarjan{
		g:       g,
		index:   make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
	}
	for _, n := range g.order {
		if _, seen := t.index[n]; !seen {
			t.strongConnect(n)
		}
	}
	// Tarjan's algorithm emits components in reverse topological order of
	// the condensation graph: a callee's component finishes (and is
	// appended) before its caller's, which is already "leaves first".
	return t.sccs
}

func (t *tarjan) strongConnect(v string) {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.g.edges[v] {
		if _, seen := t.index[w]; !seen {
			t.strongConnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] == t.index[v] {
		var component []string
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			component = append(component, w)
			if w == v {
				break
			}
		}
		t.sccs = append(t.sccs, component)
	}
}

