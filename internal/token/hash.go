package token

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// HashParts returns an 8-hex-digit FNV-1a hash over the given parts. It is
// deterministic and non-cryptographic: the goal is collision avoidance across
// same-named declarations, not any security property. Callers are expected to
// pass locations already normalized to root-relative, slash-separated form.
func HashParts(parts ...string) string {
	h := fnv.New32a()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return fmt.Sprintf("%08x", h.Sum32())
}

// Signature renders a cty type as a canonical structural signature string.
// Object attributes are emitted in sorted order so the signature is a pure
// function of the type.
func Signature(t cty.Type) string {
	switch {
	case t == cty.NilType:
		return "nil"
	case t.Equals(cty.DynamicPseudoType):
		return "any"
	case t.IsPrimitiveType():
		return t.FriendlyName()
	case t.IsListType():
		return "list(" + Signature(t.ElementType()) + ")"
	case t.IsSetType():
		return "set(" + Signature(t.ElementType()) + ")"
	case t.IsMapType():
		return "map(" + Signature(t.ElementType()) + ")"
	case t.IsTupleType():
		elems := t.TupleElementTypes()
		sigs := make([]string, len(elems))
		for i, e := range elems {
			sigs[i] = Signature(e)
		}
		return "tuple(" + strings.Join(sigs, ",") + ")"
	case t.IsObjectType():
		attrs := t.AttributeTypes()
		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		var sb strings.Builder
		sb.WriteString("object({")
		for i, name := range names {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(name)
			sb.WriteString("=")
			sb.WriteString(Signature(attrs[name]))
		}
		sb.WriteString("})")
		return sb.String()
	default:
		return t.FriendlyName()
	}
}
