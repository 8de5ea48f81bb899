// Parsing of HCL type expressions (`string`, `list(number)`,
// `object({ ... })`) into cty types, plus bare identifiers as references to
// other declarations.

package hcladapter

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// translateTypeExpr converts a type expression into either a declaration
// reference (non-empty name, when the expression is a bare identifier that is
// not a primitive keyword) or a concrete cty type.
func translateTypeExpr(expr hcl.Expression) (string, cty.Type, error) {
	switch v := expr.(type) {
	case *hclsyntax.ScopeTraversalExpr:
		if len(v.Traversal) != 1 {
			return "", cty.NilType, fmt.Errorf("%s: type references cannot traverse attributes", expr.Range())
		}
		name := v.Traversal.RootName()
		switch name {
		case "string":
			return "", cty.String, nil
		case "number":
			return "", cty.Number, nil
		case "bool":
			return "", cty.Bool, nil
		case "any":
			return "", cty.DynamicPseudoType, nil
		default:
			// A reference to a contract or implementation by name.
			return name, cty.NilType, nil
		}

	case *hclsyntax.FunctionCallExpr:
		t, err := translateTypeCall(v)
		return "", t, err

	default:
		return "", cty.NilType, fmt.Errorf("%s: unsupported type expression", expr.Range())
	}
}

// translateConcrete rejects declaration references where only a concrete type
// makes sense, e.g. collection element types.
func translateConcrete(expr hcl.Expression) (cty.Type, error) {
	name, t, err := translateTypeExpr(expr)
	if err != nil {
		return cty.NilType, err
	}
	if name != "" {
		return cty.NilType, fmt.Errorf("%s: expected a concrete type, got a reference to %q", expr.Range(), name)
	}
	return t, nil
}

func translateTypeCall(v *hclsyntax.FunctionCallExpr) (cty.Type, error) {
	switch v.Name {
	case "list", "set", "map":
		if len(v.Args) != 1 {
			return cty.NilType, fmt.Errorf("%s: the %s() type constructor requires exactly one argument, got %d", v.Range(), v.Name, len(v.Args))
		}
		elem, err := translateConcrete(v.Args[0])
		if err != nil {
			return cty.NilType, err
		}
		switch v.Name {
		case "list":
			return cty.List(elem), nil
		case "set":
			return cty.Set(elem), nil
		default:
			return cty.Map(elem), nil
		}

	case "object":
		if len(v.Args) != 1 {
			return cty.NilType, fmt.Errorf("%s: the object() type constructor requires exactly one argument, got %d", v.Range(), len(v.Args))
		}
		objExpr, ok := v.Args[0].(*hclsyntax.ObjectConsExpr)
		if !ok {
			return cty.NilType, fmt.Errorf("%s: the argument to object() must be an object literal like { key = type, ... }", v.Range())
		}

		attrTypes := make(map[string]cty.Type)
		for _, item := range objExpr.Items {
			key := objectKeyName(item.KeyExpr)
			if key == "" {
				return cty.NilType, fmt.Errorf("%s: object attribute keys must be bare identifiers or literal strings", item.KeyExpr.Range())
			}
			attrType, err := translateConcrete(item.ValueExpr)
			if err != nil {
				return cty.NilType, err
			}
			attrTypes[key] = attrType
		}
		return cty.Object(attrTypes), nil

	default:
		return cty.NilType, fmt.Errorf("%s: unsupported type constructor %q", v.Range(), v.Name)
	}
}

// objectKeyName unwraps the special object-key wrapper expression and returns
// the literal key name, or "" when the key is not statically known.
func objectKeyName(expr hclsyntax.Expression) string {
	keyExpr, ok := expr.(*hclsyntax.ObjectConsKeyExpr)
	if !ok {
		return ""
	}
	switch kexpr := keyExpr.Wrapped.(type) {
	case *hclsyntax.ScopeTraversalExpr:
		if len(kexpr.Traversal) == 1 {
			return kexpr.Traversal.RootName()
		}
	case *hclsyntax.TemplateExpr:
		if len(kexpr.Parts) == 1 {
			if lit, isLit := kexpr.Parts[0].(*hclsyntax.LiteralValueExpr); isLit && lit.Val.Type().Equals(cty.String) {
				return lit.Val.AsString()
			}
		}
	}
	return ""
}
