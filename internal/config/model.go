package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of everything the
// loader found: the declaration substrate (contracts, implementations,
// aliases, external token sets) and the configuration units to compile.
type Model struct {
	Contracts       map[string]*Contract
	Implementations map[string]*Implementation
	Aliases         map[string]*Alias
	Externals       map[string]*External
	// Units preserves file-then-declaration order so every analysis pass
	// iterates deterministically.
	Units []*Unit
}

// NewModel returns an empty model with all maps initialized.
func NewModel() *Model {
	return &Model{
		Contracts:       make(map[string]*Contract),
		Implementations: make(map[string]*Implementation),
		Aliases:         make(map[string]*Alias),
		Externals:       make(map[string]*External),
	}
}

// Contract is an abstract capability declaration. Type is its declared
// contract type; every capability token requires one.
type Contract struct {
	Name string
	Type cty.Type
	// File is the root-relative, slash-separated declaring path; token
	// identity hashes it.
	File      string
	DeclRange hcl.Range
}

// Implementation is a concrete provider declaration with an ordered
// constructor parameter list.
type Implementation struct {
	Name       string
	Implements []string
	// Produces is the structural type the implementation yields, when
	// declared. Zero value (cty.NilType) means undeclared.
	Produces  cty.Type
	Params    []*Param
	File      string
	DeclRange hcl.Range
}

// Param is one constructor parameter. TypeName is set when the declared type
// references another declaration by name; Type when it is a concrete
// structural type. Both empty means the parameter is untyped.
type Param struct {
	Name     string
	TypeName string
	Type     cty.Type
	HasType  bool
}

// Alias is a transparent rename of another declaration.
type Alias struct {
	Name      string
	For       string
	DeclRange hcl.Range
}

// External is an externally declared, trusted token set. Referencing it as a
// unit's parent captures the set instead of a parent configuration.
type External struct {
	Name      string
	Tokens    []string
	DeclRange hcl.Range
}

// UnitKind distinguishes composite containers from reusable fragments.
type UnitKind int

const (
	// UnitComposite may declare a parent and fragments and is compiled into
	// a container plan.
	UnitComposite UnitKind = iota
	// UnitFragment contributes only local tokens and is validated against
	// local scope.
	UnitFragment
)

// String returns the block keyword for the kind.
func (k UnitKind) String() string {
	if k == UnitFragment {
		return "fragment"
	}
	return "container"
}

// Unit is one declared configuration unit, before collection.
type Unit struct {
	// Name is the explicit name when ExplicitName is set; otherwise empty
	// and the collector synthesizes one.
	Name         string
	ExplicitName bool
	Kind         UnitKind

	// Composite-only: at most one parent reference plus ordered fragments.
	Parent    string
	Fragments []string

	Registers  []*Register
	Properties []*Property

	// File is the root-relative, slash-separated path of the declaring file.
	File string
	// DeclRange covers the whole block; SourceText is its verbatim text.
	// Both feed synthesized-name hashing.
	DeclRange  hcl.Range
	SourceText string
}

// Register is one `register "Token" { ... }` entry.
type Register struct {
	// Token is the raw token expression text from the block label.
	Token      string
	TokenRange hcl.Range

	// To is the provider expression, nil for self-bound registrations. A
	// bare declaration reference is an explicit binding; any other
	// expression form is an auto-detected factory.
	To hcl.Expression
	// Factory, when set, forces factory registration regardless of the
	// expression's shape.
	Factory hcl.Expression

	Lifecycle string
	Override  bool
	// Args are opaque build-time argument strings passed through to the
	// emitter untouched.
	Args []string

	DeclRange hcl.Range
}

// Property is one `property "Impl" "param" { ... }` entry registering a
// property token scoped to a single constructor parameter.
type Property struct {
	Implementation string
	Parameter      string
	// Value is the declared build-time value; it must be statically
	// evaluable. ValueText is its verbatim source, emitter-only.
	Value     cty.Value
	ValueText string
	Override  bool
	DeclRange hcl.Range
}
