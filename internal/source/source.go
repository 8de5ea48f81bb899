// Package source defines the semantic source model: the engine's only window
// into the declaration substrate. The core never inspects declarations
// directly; it asks a Model, which keeps the engine host-agnostic. One small
// adapter per front end implements this interface (see internal/hcladapter).
package source

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// RefKind classifies what a resolved declaration is.
type RefKind int

const (
	// RefContract is an abstract capability declaration.
	RefContract RefKind = iota
	// RefImplementation is a concrete provider declaration.
	RefImplementation
	// RefExternal is an externally declared, trusted token set.
	RefExternal
)

// Ref is an opaque handle to a resolved declaration.
type Ref struct {
	Name string
	Kind RefKind
}

// Location is the declaring location of a declaration, with Path already
// normalized to a root-relative, slash-separated form.
type Location struct {
	Path string
	Name string
}

// Member is one attribute of a composite contract type, in declared order.
type Member struct {
	Name string
	Type cty.Type
}

// Param is one constructor parameter of an implementation, in declared order.
// Exactly one of TypeName/Type is meaningful when HasType is set: TypeName for
// a reference to another declaration, Type for a concrete structural type. A
// parameter with HasType unset carries no declared type and is skipped by
// dependency analysis.
type Param struct {
	Name     string
	HasType  bool
	TypeName string
	Type     cty.Type
}

// Model answers the semantic questions the engine needs about declarations.
// Implementations must be stateless with respect to analysis calls: the same
// inputs always yield the same answers.
type Model interface {
	// Resolve maps a declaration name to its Ref. The second return is false
	// when no declaration with that name exists.
	Resolve(name string) (Ref, bool)

	// ProviderName extracts the declaration name a provider expression
	// references. The second return is false when the expression is not
	// reference-shaped, e.g. an anonymous callable. The name is not checked
	// against the declaration set; Resolve does that.
	ProviderName(expr hcl.Expression) (string, bool)

	// FollowAlias resolves through alias chains to the canonical declaration.
	// Non-alias refs are returned unchanged.
	FollowAlias(ref Ref) Ref

	// DeclaringLocation reports where a declaration lives. Token identity is
	// derived from this, so it must be stable for a given declaration.
	DeclaringLocation(ref Ref) Location

	// IsAssignable reports whether the implementation's produced type can
	// satisfy the contract's declared type.
	IsAssignable(impl Ref, contract Ref) bool

	// MembersOf returns the ordered members of a composite contract type, or
	// nil when the ref has no composite type.
	MembersOf(ref Ref) []Member

	// ConstructorParams returns the ordered constructor parameter list of an
	// implementation. Nil for non-implementations.
	ConstructorParams(ref Ref) []Param

	// IsCallableLiteral reports whether a provider expression is an anonymous
	// callable rather than a reference to a declaration.
	IsCallableLiteral(expr hcl.Expression) bool

	// SourceText returns the verbatim source text covered by the range. Used
	// for diagnostics and factory capture only; the core never parses it.
	SourceText(rng hcl.Range) string
}
