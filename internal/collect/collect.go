package collect

import (
	"context"
	"fmt"

	"github.com/vk/girder/internal/config"
	"github.com/vk/girder/internal/ctxlog"
	"github.com/vk/girder/internal/source"
	"github.com/vk/girder/internal/token"
)

// Collector builds one read-only ConfigGraph per declared configuration unit.
type Collector struct {
	tokens *token.Service
	src    source.Model
}

// New returns a Collector over the given token service and source model.
func New(tokens *token.Service, src source.Model) *Collector {
	return &Collector{tokens: tokens, src: src}
}

// Collect walks every declared unit and produces the configuration set for
// one analysis call. Collection is deterministic: unchanged input yields
// identical names, token ids and ordering. Hard configuration errors abort
// immediately; collectible findings (duplicates) are recorded on the graphs
// for the validation pipeline to report.
func (c *Collector) Collect(ctx context.Context, model *config.Model) (*Set, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Collector started.", "unit_count", len(model.Units))

	set := &Set{ByName: make(map[string]*ConfigGraph)}

	// Explicit names must be unique per declaring file before anything else
	// can be trusted; a clash leaves no sensible partial result.
	if err := checkExplicitNames(model.Units); err != nil {
		return nil, err
	}

	for _, unit := range model.Units {
		cfg, err := c.collectUnit(ctx, model, unit)
		if err != nil {
			return nil, err
		}
		if prev, ok := set.ByName[cfg.Name]; ok {
			return nil, fmt.Errorf("configuration %q at %s already declared at %s", cfg.Name, unit.DeclRange, prev.DeclRange)
		}
		set.ByName[cfg.Name] = cfg
		set.Order = append(set.Order, cfg.Name)
	}

	logger.Debug("Collector finished.", "config_count", len(set.Order))
	return set, nil
}

// checkExplicitNames rejects two identically named units in one declaring
// file. This is a hard, non-collectible error.
func checkExplicitNames(units []*config.Unit) error {
	type key struct{ file, name string }
	seen := make(map[key]*config.Unit)
	for _, u := range units {
		if !u.ExplicitName {
			continue
		}
		k := key{u.File, u.Name}
		if prev, ok := seen[k]; ok {
			return fmt.Errorf("duplicate container name %q in %s: declared at %s and %s", u.Name, u.File, prev.DeclRange, u.DeclRange)
		}
		seen[k] = u
	}
	return nil
}

func (c *Collector) collectUnit(ctx context.Context, model *config.Model, unit *config.Unit) (*ConfigGraph, error) {
	logger := ctxlog.FromContext(ctx)

	cfg := &ConfigGraph{
		Name:       c.identityFor(unit),
		Kind:       unit.Kind,
		Injections: make(map[string]*Injection),
		DeclRange:  unit.DeclRange,
	}
	logger.Debug("Collecting unit.", "name", cfg.Name, "kind", cfg.Kind.String())

	if unit.Kind == config.UnitComposite {
		cfg.Fragments = append(cfg.Fragments, unit.Fragments...)
		if unit.Parent != "" {
			// A "parent" identifier may dereference to an externally declared
			// token set from a trusted non-composite source; capture the set
			// directly in that case.
			if ext, ok := model.Externals[unit.Parent]; ok {
				cfg.ExternalName = ext.Name
				cfg.External = make(map[string]struct{}, len(ext.Tokens))
				for _, name := range ext.Tokens {
					id, err := c.tokens.Identify(name)
					if err != nil {
						return nil, fmt.Errorf("external set %q: %w", ext.Name, err)
					}
					cfg.External[id.ID] = struct{}{}
				}
				logger.Debug("Captured external token set as parent.", "external", ext.Name, "tokens", len(cfg.External))
			} else {
				cfg.Parent = unit.Parent
			}
		}
	}

	for _, reg := range unit.Registers {
		inj, err := c.collectRegister(reg)
		if err != nil {
			return nil, err
		}
		cfg.add(inj)
	}

	for _, prop := range unit.Properties {
		inj, err := c.collectProperty(prop)
		if err != nil {
			return nil, err
		}
		cfg.add(inj)
	}

	return cfg, nil
}

// identityFor prefers the unit's explicit name and otherwise synthesizes one
// from the declaring file, the declaration position and the raw declaration
// text, through the same deterministic hash scheme tokens use.
func (c *Collector) identityFor(unit *config.Unit) string {
	if unit.ExplicitName {
		return unit.Name
	}
	pos := fmt.Sprintf("%d:%d", unit.DeclRange.Start.Line, unit.DeclRange.Start.Column)
	return "girder:" + token.HashParts(unit.File, pos, unit.SourceText)
}

func (c *Collector) collectRegister(reg *config.Register) (*Injection, error) {
	ident, err := c.tokens.Identify(reg.Token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", reg.TokenRange, err)
	}

	svc := Service{
		Token:    ident,
		Override: reg.Override,
		Args:     append([]string(nil), reg.Args...),
	}

	switch reg.Lifecycle {
	case "", "singleton":
		svc.Lifecycle = LifecycleSingleton
	case "transient":
		svc.Lifecycle = LifecycleTransient
	default:
		return nil, fmt.Errorf("%s: invalid lifecycle %q: must be 'singleton' or 'transient'", reg.DeclRange, reg.Lifecycle)
	}

	switch {
	case reg.Factory != nil:
		svc.Registration = RegFactory
		svc.FactorySource = c.src.SourceText(reg.Factory.Range())
	case reg.To == nil:
		svc.Registration = RegSelfBound
		svc.Provider = providerNameFor(ident)
	default:
		if name, ok := c.src.ProviderName(reg.To); ok {
			svc.Registration = RegExplicitBinding
			svc.Provider = name
		} else {
			// Not reference-shaped: an anonymous callable, which
			// auto-detects as a factory.
			svc.Registration = RegFactory
			svc.FactorySource = c.src.SourceText(reg.To.Range())
		}
	}

	return &Injection{
		Service:    svc,
		SourceText: reg.Token,
		Range:      reg.DeclRange,
	}, nil
}

// providerNameFor extracts the implementation name a self-bound token
// provides through. Capability and anonymous tokens have no implementation of
// their own.
func providerNameFor(ident token.Identity) string {
	if ident.Kind == token.KindClass {
		return ident.Display
	}
	return ""
}

func (c *Collector) collectProperty(prop *config.Property) (*Injection, error) {
	ident, err := c.tokens.IdentifyProperty(prop.Implementation, prop.Parameter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", prop.DeclRange, err)
	}

	return &Injection{
		Service: Service{
			Token:         ident,
			Registration:  RegSelfBound,
			Lifecycle:     LifecycleSingleton,
			PropertyValue: prop.Value,
			Override:      prop.Override,
			Args:          []string{prop.ValueText},
		},
		SourceText: ident.Display,
		Range:      prop.DeclRange,
	}, nil
}

// add applies the scoped-override mechanism: a second registration of an
// already-present token replaces the first silently when marked an override,
// and is queued as a duplicate pair otherwise, with the first kept effective.
func (g *ConfigGraph) add(inj *Injection) {
	id := inj.Token.ID
	existing, ok := g.Injections[id]
	if !ok {
		g.Injections[id] = inj
		g.Order = append(g.Order, id)
		return
	}
	if inj.Override {
		g.Injections[id] = inj
		return
	}
	g.Duplicates = append(g.Duplicates, Duplicate{First: existing, Second: inj})
}
