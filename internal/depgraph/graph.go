package depgraph

import "github.com/vk/girder/internal/collect"

// Node is a single vertex: a service definition plus its ordered dependency
// token ids. Repeats are allowed; a constructor may take the same dependency
// twice.
type Node struct {
	ID string
	// Injection is the defining registration, local or inherited.
	Injection *collect.Injection
	// Deps are dependency token ids in constructor parameter order.
	Deps []string
	// FromAbove marks nodes contributed by the inherited closure rather than
	// the config's own registrations.
	FromAbove bool
}

// Graph is the per-config dependency graph, scoped to one composite config's
// closure. Graphs are never merged across configs; each analysis builds its
// own after validation and the orderer consumes it once.
type Graph struct {
	Config string
	Nodes  map[string]*Node
	// Order lists node ids in insertion order (locals in registration order,
	// then inherited entries) so traversal is deterministic.
	Order []string
}

func newGraph(config string) *Graph {
	return &Graph{
		Config: config,
		Nodes:  make(map[string]*Node),
	}
}

func (g *Graph) addNode(n *Node) {
	if _, ok := g.Nodes[n.ID]; ok {
		return
	}
	g.Nodes[n.ID] = n
	g.Order = append(g.Order, n.ID)
}

// Has reports whether a token id has a node in this graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.Nodes[id]
	return ok
}
