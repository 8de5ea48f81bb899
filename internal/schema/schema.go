// Package schema defines the gohcl-decodable shapes of the girder declaration
// language. Block headers and ranges are handled by the loader against the
// syntax tree directly; these structs cover block bodies only.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// ContractBody is the body of a `contract "Name"` block. The type attribute
// is mandatory: a capability token over a typeless contract is malformed.
type ContractBody struct {
	Type hcl.Expression `hcl:"type"`
}

// ImplementationBody is the body of an `implementation "Name"` block. The
// produces attribute and the param blocks carry optional expressions, which
// gohcl cannot report as absent (it substitutes a synthesized null expression
// for a missing optional hcl.Expression field), so the loader reads them off
// the syntax body and Remain absorbs them here.
type ImplementationBody struct {
	Implements []string `hcl:"implements,optional"`
	Remain     hcl.Body `hcl:",remain"`
}

// AliasBody is the body of an `alias "Name"` block.
type AliasBody struct {
	Target string `hcl:"target"`
}

// ExternalBody is the body of an `external "Name"` block declaring a trusted
// token set vouched for by an outside system.
type ExternalBody struct {
	Tokens []string `hcl:"tokens"`
}

// UnitAttrs covers the attributes of a `container`/`fragment` block. The
// register and property blocks inside are decoded by the loader from the
// syntax body so their ranges survive into diagnostics.
type UnitAttrs struct {
	Name      string   `hcl:"name,optional"`
	Parent    string   `hcl:"parent,optional"`
	Fragments []string `hcl:"fragments,optional"`
	Remain    hcl.Body `hcl:",remain"`
}

// RegisterBody is the body of a `register "Token"` block. The optional to and
// factory expressions are read off the syntax body for the same reason as in
// ImplementationBody; Remain absorbs them.
type RegisterBody struct {
	Lifecycle string   `hcl:"lifecycle,optional"`
	Override  bool     `hcl:"override,optional"`
	Args      []string `hcl:"args,optional"`
	Remain    hcl.Body `hcl:",remain"`
}

// PropertyBody is the body of a `property "Impl" "param"` block.
type PropertyBody struct {
	Value    hcl.Expression `hcl:"value"`
	Override bool           `hcl:"override,optional"`
}
