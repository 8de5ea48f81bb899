package depgraph

import (
	"strings"

	"github.com/vk/girder/internal/analysis"
)

// Walk colors for cycle detection: unvisited, in-progress, done.
const (
	colorWhite = iota
	colorGray
	colorBlack
)

// DetectCycles runs a three-color depth-first walk over the graph and
// reports every service-dependency cycle, each with the chain of token names
// back to the entry point. A token depending directly on itself is the
// degenerate one-node case and is caught the same way. Service cycles are a
// distinct class from inheritance-chain cycles; the context disambiguates.
func (g *Graph) DetectCycles() []analysis.Error {
	color := make(map[string]int, len(g.Nodes))
	var path []string
	var errs []analysis.Error

	var visit func(id string)
	visit = func(id string) {
		color[id] = colorGray
		path = append(path, id)

		for _, dep := range g.Nodes[id].Deps {
			if !g.Has(dep) {
				continue
			}
			switch color[dep] {
			case colorGray:
				errs = append(errs, g.cycleError(path, dep))
			case colorWhite:
				visit(dep)
			}
		}

		path = path[:len(path)-1]
		color[id] = colorBlack
	}

	for _, id := range g.Order {
		if color[id] == colorWhite {
			visit(id)
		}
	}
	return errs
}

// cycleError builds the finding for a back edge closing at `to`, naming the
// tokens along the cycle rather than their hashed ids.
func (g *Graph) cycleError(path []string, to string) analysis.Error {
	start := 0
	for i, id := range path {
		if id == to {
			start = i
			break
		}
	}
	cycle := append(append([]string(nil), path[start:]...), to)

	names := make([]string, len(cycle))
	for i, id := range cycle {
		names[i] = g.Nodes[id].Injection.SourceText
	}

	offender := g.Nodes[path[len(path)-1]].Injection
	return analysis.Errorf(
		analysis.KindCycle,
		offender.Range,
		map[string]string{
			"kind":   "service",
			"config": g.Config,
			"chain":  strings.Join(names, " -> "),
		},
		"service dependency cycle: %s", strings.Join(names, " -> "),
	)
}
