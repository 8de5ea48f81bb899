package depgraph

import (
	"context"
	"fmt"

	"github.com/vk/girder/internal/collect"
	"github.com/vk/girder/internal/ctxlog"
	"github.com/vk/girder/internal/inherit"
	"github.com/vk/girder/internal/source"
	"github.com/vk/girder/internal/token"
)

// Build constructs the dependency graph for one composite config's closure:
// its local registrations plus the inherited definitions, so emission can
// order the whole container. Two passes, like any graph build here: create
// every node first, then link constructor dependencies against the full node
// set.
func Build(ctx context.Context, cfg *collect.ConfigGraph, inherited *inherit.Map, src source.Model, tokens *token.Service) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting graph construction.", "config", cfg.Name)

	g := newGraph(cfg.Name)

	// First pass: nodes for every definition in the closure.
	for _, id := range cfg.Order {
		g.addNode(&Node{ID: id, Injection: cfg.Injections[id]})
	}
	if inherited != nil {
		for _, id := range inherited.Order {
			entry, _ := inherited.Get(id)
			g.addNode(&Node{ID: id, Injection: entry.Injection, FromAbove: true})
		}
	}
	logger.Debug("Build: node creation complete.", "node_count", len(g.Nodes))

	// Second pass: link constructor dependencies.
	for _, id := range g.Order {
		if err := linkNode(g, g.Nodes[id], src, tokens); err != nil {
			return nil, err
		}
	}
	logger.Debug("Build: node linking complete.")

	return g, nil
}

// linkNode resolves one node's constructor needs to token ids. The property
// token scoped to this implementation's parameter wins when the graph holds
// one; otherwise the parameter's declared type decides. Factory-backed
// definitions contribute no edges: their dependencies resolve dynamically.
func linkNode(g *Graph, n *Node, src source.Model, tokens *token.Service) error {
	inj := n.Injection
	if inj.IsFactory() || inj.IsProperty() || inj.Provider == "" {
		return nil
	}

	implRef, ok := src.Resolve(inj.Provider)
	if !ok {
		// Validation already reported the undeclared implementation; an
		// unlinkable node simply has no edges.
		return nil
	}
	implRef = src.FollowAlias(implRef)

	for _, param := range src.ConstructorParams(implRef) {
		dep, typed, err := tokens.ForParameter(implRef.Name, param, g.Has)
		if err != nil {
			return fmt.Errorf("config %q: constructor of %q: %w", g.Config, implRef.Name, err)
		}
		if !typed {
			continue
		}
		n.Deps = append(n.Deps, dep.ID)
	}
	return nil
}
