package emit

import (
	"context"

	"github.com/vk/girder/internal/collect"
	"github.com/vk/girder/internal/depgraph"
)

// Node is one emitted service: its definition plus resolved dependency token
// ids, already placed so that every dependency appears strictly earlier in
// the plan.
type Node struct {
	ID      string
	Service collect.Service
	Deps    []string
	// FromAbove marks definitions contributed by the inherited closure.
	FromAbove bool
}

// Plan is the per-composite payload handed to a code emitter: the ordered
// node list, the declared parent and the ordered legacy delegation targets.
// The emitter contract: instantiate strictly dependencies-before-dependents
// in the given order; cache singleton instances by token id and return the
// cached instance on repeat resolution; always re-invoke for transients; on
// an unresolved token try locally, then the declared parent, then each legacy
// delegate in order, then fail.
type Plan struct {
	Container string
	Nodes     []Node
	Parent    string
	Delegates []string
}

// NodeIDs returns the ordered token ids, mostly for tests and logging.
func (p *Plan) NodeIDs() []string {
	ids := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Emitter turns a validated, ordered plan into output. Implementations are
// external collaborators; the engine only guarantees the plan's ordering
// invariant.
type Emitter interface {
	Emit(ctx context.Context, plan *Plan) error
}

// BuildPlan assembles the emitter payload from a validated config and its
// ordered dependency graph.
func BuildPlan(cfg *collect.ConfigGraph, g *depgraph.Graph, order []string) *Plan {
	plan := &Plan{
		Container: cfg.Name,
		Parent:    cfg.Parent,
	}
	if cfg.ExternalName != "" {
		plan.Delegates = append(plan.Delegates, cfg.ExternalName)
	}
	for _, id := range order {
		node := g.Nodes[id]
		plan.Nodes = append(plan.Nodes, Node{
			ID:        id,
			Service:   node.Injection.Service,
			Deps:      append([]string(nil), node.Deps...),
			FromAbove: node.FromAbove,
		})
	}
	return plan
}
