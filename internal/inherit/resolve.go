package inherit

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/girder/internal/analysis"
	"github.com/vk/girder/internal/collect"
	"github.com/vk/girder/internal/config"
	"github.com/vk/girder/internal/ctxlog"
)

// OriginKind says which side of the composition an inherited token came from.
type OriginKind int

const (
	// OriginParent marks tokens contributed by the parent chain.
	OriginParent OriginKind = iota
	// OriginFragment marks tokens contributed by a fragment.
	OriginFragment
)

// String returns the origin label used in diagnostics.
func (k OriginKind) String() string {
	if k == OriginFragment {
		return "fragment"
	}
	return "parent"
}

// Provenance records where an inherited token came from, for diagnostics
// only. Chain is the traversal path for parent-origin entries, outermost
// first, ending at the defining configuration.
type Provenance struct {
	Source string
	Origin OriginKind
	Chain  []string
}

// Token is one entry of the inherited map: a token visible "from above" plus
// the injection that defines it and its provenance.
type Token struct {
	ID         string
	Injection  *collect.Injection
	Provenance Provenance
}

// Map is the resolved inherited token set of one composite, with a
// deterministic iteration order.
type Map struct {
	ByID  map[string]Token
	Order []string
}

// Has reports whether a token id is inherited.
func (m *Map) Has(id string) bool {
	if m == nil {
		return false
	}
	_, ok := m.ByID[id]
	return ok
}

// Get returns the inherited entry for a token id.
func (m *Map) Get(id string) (Token, bool) {
	if m == nil {
		return Token{}, false
	}
	t, ok := m.ByID[id]
	return t, ok
}

// add is first-write-wins: a token id already present is never overwritten.
// This yields the precedence parent's ancestors > parent's own tokens >
// earlier fragments > later fragments.
func (m *Map) add(t Token) {
	if _, ok := m.ByID[t.ID]; ok {
		return
	}
	m.ByID[t.ID] = t
	m.Order = append(m.Order, t.ID)
}

// Resolver computes inherited token maps over one collected configuration
// set. Resolution is purely input-dependent, so it is memoized by
// configuration name; diamond-shaped fragment reuse costs one resolution.
type Resolver struct {
	configs *collect.Set
	memo    map[string]*Map
}

// New returns a Resolver over the given configuration set.
func New(configs *collect.Set) *Resolver {
	return &Resolver{
		configs: configs,
		memo:    make(map[string]*Map),
	}
}

// Resolve computes the map of tokens visible "from above" for a composite
// config: the recursively resolved parent chain merged with the ordered
// fragment list. Inheritance cycles surface as collectible cycle errors
// carrying the full traversed chain; unknown references are hard errors.
func (r *Resolver) Resolve(ctx context.Context, cfg *collect.ConfigGraph) (*Map, []analysis.Error, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving inheritance.", "config", cfg.Name)

	m, errs, err := r.resolve(ctx, cfg, []string{cfg.Name})
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Inheritance resolved.", "config", cfg.Name, "inherited", len(m.Order), "errors", len(errs))
	return m, errs, nil
}

// resolve carries the per-branch visited chain. The chain is cloned before
// recursing into the parent so the same config reachable via two different
// paths never falsely triggers a cycle.
func (r *Resolver) resolve(ctx context.Context, cfg *collect.ConfigGraph, chain []string) (*Map, []analysis.Error, error) {
	if cached, ok := r.memo[cfg.Name]; ok {
		return cached, nil, nil
	}

	out := &Map{ByID: make(map[string]Token)}
	var errs []analysis.Error

	if cfg.Parent != "" {
		parent, ok := r.configs.ByName[cfg.Parent]
		if !ok {
			return nil, nil, fmt.Errorf("config %q: unknown parent %q", cfg.Name, cfg.Parent)
		}

		if contains(chain, parent.Name) {
			full := append(cloneChain(chain), parent.Name)
			errs = append(errs, analysis.Errorf(
				analysis.KindCycle,
				cfg.DeclRange,
				map[string]string{"kind": "inheritance", "chain": strings.Join(full, " -> ")},
				"inheritance cycle: %s", strings.Join(full, " -> "),
			))
		} else {
			branch := append(cloneChain(chain), parent.Name)
			parentInherited, parentErrs, err := r.resolve(ctx, parent, branch)
			if err != nil {
				return nil, nil, err
			}
			errs = append(errs, parentErrs...)

			// Highest precedence first: the parent's own inherited set, then
			// the parent's local tokens.
			for _, id := range parentInherited.Order {
				entry := parentInherited.ByID[id]
				out.add(Token{
					ID:        id,
					Injection: entry.Injection,
					Provenance: Provenance{
						Source: entry.Provenance.Source,
						Origin: OriginParent,
						Chain:  append([]string{parent.Name}, entry.Provenance.Chain...),
					},
				})
			}
			for _, id := range parent.Order {
				out.add(Token{
					ID:        id,
					Injection: parent.Injections[id],
					Provenance: Provenance{
						Source: parent.Name,
						Origin: OriginParent,
						Chain:  []string{parent.Name},
					},
				})
			}
		}
	}

	// Fragments contribute only their local tokens, in declared array order.
	for _, fragName := range cfg.Fragments {
		frag, ok := r.configs.ByName[fragName]
		if !ok {
			return nil, nil, fmt.Errorf("config %q: unknown fragment %q", cfg.Name, fragName)
		}
		if frag.Kind != config.UnitFragment {
			return nil, nil, fmt.Errorf("config %q: fragment reference %q names a %s", cfg.Name, fragName, frag.Kind)
		}
		for _, id := range frag.Order {
			out.add(Token{
				ID:        id,
				Injection: frag.Injections[id],
				Provenance: Provenance{
					Source: fragName,
					Origin: OriginFragment,
				},
			})
		}
	}

	// Memoize only clean resolutions; a map truncated by a cycle depends on
	// the path that reached it.
	if len(errs) == 0 {
		r.memo[cfg.Name] = out
	}
	return out, errs, nil
}

func contains(chain []string, name string) bool {
	for _, c := range chain {
		if c == name {
			return true
		}
	}
	return false
}

func cloneChain(chain []string) []string {
	return append([]string(nil), chain...)
}
