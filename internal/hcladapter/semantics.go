package hcladapter

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/girder/internal/config"
	"github.com/vk/girder/internal/source"
)

// semantics is the HCL implementation of the semantic source model: it
// answers the engine's declaration questions from the loaded model and the
// raw file bytes, and holds no per-analysis state.
type semantics struct {
	model   *config.Model
	sources map[string][]byte
}

func newSemantics(model *config.Model, sources map[string][]byte) source.Model {
	return &semantics{model: model, sources: sources}
}

// Resolve reports the ref for a declaration name. Alias names resolve to a
// ref carrying the alias's own name but the kind of its final target;
// FollowAlias canonicalizes the name.
func (s *semantics) Resolve(name string) (source.Ref, bool) {
	final, ok := s.canonical(name)
	if !ok {
		return source.Ref{}, false
	}
	kind, ok := s.kindOf(final)
	if !ok {
		return source.Ref{}, false
	}
	return source.Ref{Name: name, Kind: kind}, true
}

// ProviderName extracts the name a provider expression references: a bare
// identifier or a literal string. Anything else (function calls, templates
// with interpolation) is not reference-shaped.
func (s *semantics) ProviderName(expr hcl.Expression) (string, bool) {
	if st, ok := expr.(*hclsyntax.ScopeTraversalExpr); ok && len(st.Traversal) == 1 {
		return st.Traversal.RootName(), true
	}
	if s.IsCallableLiteral(expr) {
		return "", false
	}
	if v, diags := expr.Value(nil); !diags.HasErrors() && v.Type().Equals(cty.String) && v.IsKnown() && !v.IsNull() {
		return v.AsString(), true
	}
	return "", false
}

// FollowAlias resolves through alias chains to the canonical declaration.
func (s *semantics) FollowAlias(ref source.Ref) source.Ref {
	final, ok := s.canonical(ref.Name)
	if !ok {
		return ref
	}
	return source.Ref{Name: final, Kind: ref.Kind}
}

// canonical follows alias chains with a visited guard so malformed
// self-referential aliases resolve to nothing instead of spinning.
func (s *semantics) canonical(name string) (string, bool) {
	visited := make(map[string]struct{})
	for {
		if _, ok := visited[name]; ok {
			return "", false
		}
		visited[name] = struct{}{}
		alias, ok := s.model.Aliases[name]
		if !ok {
			break
		}
		name = alias.For
	}
	_, ok := s.kindOf(name)
	return name, ok
}

func (s *semantics) kindOf(name string) (source.RefKind, bool) {
	if _, ok := s.model.Contracts[name]; ok {
		return source.RefContract, true
	}
	if _, ok := s.model.Implementations[name]; ok {
		return source.RefImplementation, true
	}
	if _, ok := s.model.Externals[name]; ok {
		return source.RefExternal, true
	}
	return 0, false
}

// DeclaringLocation reports the root-relative path and name a declaration
// lives under. Token identity hashes exactly this.
func (s *semantics) DeclaringLocation(ref source.Ref) source.Location {
	name, _ := s.canonical(ref.Name)
	if c, ok := s.model.Contracts[name]; ok {
		return source.Location{Path: c.File, Name: c.Name}
	}
	if impl, ok := s.model.Implementations[name]; ok {
		return source.Location{Path: impl.File, Name: impl.Name}
	}
	return source.Location{Name: ref.Name}
}

// IsAssignable answers the one type question the engine asks: can the
// implementation's produced type satisfy the contract's declared type? A
// declared `implements` entry decides nominally; otherwise structural cty
// convertibility decides.
func (s *semantics) IsAssignable(implRef, contractRef source.Ref) bool {
	implName, _ := s.canonical(implRef.Name)
	contractName, _ := s.canonical(contractRef.Name)

	impl, ok := s.model.Implementations[implName]
	if !ok {
		return false
	}
	contract, ok := s.model.Contracts[contractName]
	if !ok {
		return false
	}

	for _, declared := range impl.Implements {
		if canon, ok := s.canonical(declared); ok && canon == contractName {
			return true
		}
	}

	if impl.Produces == cty.NilType {
		return false
	}
	if impl.Produces.Equals(contract.Type) {
		return true
	}
	return convert.GetConversion(impl.Produces, contract.Type) != nil
}

// MembersOf returns the attributes of a composite contract type, name-sorted
// for determinism.
func (s *semantics) MembersOf(ref source.Ref) []source.Member {
	name, _ := s.canonical(ref.Name)

	var t cty.Type
	if c, ok := s.model.Contracts[name]; ok {
		t = c.Type
	} else if impl, ok := s.model.Implementations[name]; ok {
		t = impl.Produces
	}
	if t == cty.NilType || !t.IsObjectType() {
		return nil
	}

	attrs := t.AttributeTypes()
	names := make([]string, 0, len(attrs))
	for n := range attrs {
		names = append(names, n)
	}
	sort.Strings(names)

	members := make([]source.Member, len(names))
	for i, n := range names {
		members[i] = source.Member{Name: n, Type: attrs[n]}
	}
	return members
}

// ConstructorParams returns the ordered constructor parameter list of an
// implementation, nil otherwise.
func (s *semantics) ConstructorParams(ref source.Ref) []source.Param {
	name, _ := s.canonical(ref.Name)
	impl, ok := s.model.Implementations[name]
	if !ok {
		return nil
	}

	params := make([]source.Param, len(impl.Params))
	for i, p := range impl.Params {
		params[i] = source.Param{
			Name:     p.Name,
			HasType:  p.HasType,
			TypeName: p.TypeName,
			Type:     p.Type,
		}
	}
	return params
}

// IsCallableLiteral reports whether a provider expression is an anonymous
// callable: a function call or an interpolating template rather than a plain
// reference.
func (s *semantics) IsCallableLiteral(expr hcl.Expression) bool {
	switch e := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		return true
	case *hclsyntax.TemplateExpr:
		return !e.IsStringLiteral()
	case *hclsyntax.ForExpr:
		return true
	default:
		return false
	}
}

// SourceText returns the verbatim text covered by a range, for diagnostics
// and factory capture only.
func (s *semantics) SourceText(rng hcl.Range) string {
	b, ok := s.sources[rng.Filename]
	if !ok {
		return ""
	}
	return string(rng.SliceBytes(b))
}
