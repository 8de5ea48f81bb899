package depgraph

// TopoOrder returns node ids in dependencies-before-dependents order: a
// depth-first postorder walk started from every node, visiting each node
// exactly once. Edges to nodes outside the graph are defensively ignored;
// validation should already have excluded anything unreachable, and
// externally declared tokens are served by the emitter's delegation chain.
func (g *Graph) TopoOrder() []string {
	visited := make(map[string]bool, len(g.Nodes))
	order := make([]string, 0, len(g.Nodes))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, dep := range g.Nodes[id].Deps {
			if g.Has(dep) {
				visit(dep)
			}
		}
		order = append(order, id)
	}

	for _, id := range g.Order {
		visit(id)
	}
	return order
}
