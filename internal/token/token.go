package token

import (
	"fmt"
	"strings"

	"github.com/vk/girder/internal/source"
)

// Kind classifies a token identity.
type Kind int

const (
	// KindClass derives from a concrete implementation's declaration.
	KindClass Kind = iota
	// KindCapability derives from an abstract contract type and requires an
	// explicit binding.
	KindCapability
	// KindProperty is scoped to one implementation's one constructor
	// parameter.
	KindProperty
	// KindAnonymous is a structural signature fallback for expressions with
	// no stable declaration behind them.
	KindAnonymous
)

// String returns the kind label used in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindCapability:
		return "capability"
	case KindProperty:
		return "property"
	default:
		return "anonymous"
	}
}

// Identity is a stable token id plus its kind. Display is the human-facing
// name for messages; ids never appear in user output.
type Identity struct {
	ID      string
	Kind    Kind
	Display string
}

// propertyPrefix is the literal, intentionally unhashed prefix of property
// token ids, so two distinct property tokens can never collide by name alone.
const propertyPrefix = "PropertyToken:"

// PropertyID returns the id of the property token scoped to one
// implementation's one constructor parameter. The literal join is only
// unambiguous for dot-free names; IdentifyProperty rejects the rest.
func PropertyID(impl, param string) string {
	return propertyPrefix + impl + "." + param
}

// Service computes token identities. All identity computation funnels through
// here; no other component may invent ids.
type Service struct {
	src source.Model
}

// NewService returns a Service backed by the given semantic source model.
func NewService(src source.Model) *Service {
	return &Service{src: src}
}

// Identify computes the identity of a token expression. Declared
// contracts/implementations get a declaration-derived id: display name plus
// an 8-hex-digit hash of the declaring location, so two same-named
// declarations in different locations stay distinct. Undeclared expressions
// fall back to an anonymous structural signature.
func (s *Service) Identify(expr string) (Identity, error) {
	if expr == "" {
		return Identity{}, fmt.Errorf("malformed token expression: empty")
	}

	ref, ok := s.src.Resolve(expr)
	if !ok {
		// No stable declaration exists; the raw expression text is the
		// structural signature.
		return Identity{ID: expr, Kind: KindAnonymous, Display: expr}, nil
	}

	ref = s.src.FollowAlias(ref)
	switch ref.Kind {
	case source.RefContract, source.RefImplementation:
		// Declared below.
	case source.RefExternal:
		return Identity{}, fmt.Errorf("malformed token expression: %q names an external token set, not a registrable declaration", expr)
	default:
		return Identity{}, fmt.Errorf("malformed token expression: %q resolves to an unsupported declaration kind", expr)
	}

	loc := s.src.DeclaringLocation(ref)
	id := fmt.Sprintf("%s@%s", ref.Name, HashParts(loc.Path, loc.Name))

	kind := KindClass
	if ref.Kind == source.RefContract {
		kind = KindCapability
	}
	return Identity{ID: id, Kind: kind, Display: expr}, nil
}

// IdentifyProperty computes the identity of a property token. Both names must
// be literal, non-empty and dot-free: a dot would make the id's
// implementation/parameter split ambiguous, so two distinct scopes could mint
// the same id.
func (s *Service) IdentifyProperty(impl, param string) (Identity, error) {
	if impl == "" || param == "" {
		return Identity{}, fmt.Errorf("malformed property token: implementation and parameter names are required")
	}
	if strings.Contains(impl, ".") || strings.Contains(param, ".") {
		return Identity{}, fmt.Errorf("malformed property token %q.%q: names must not contain '.'", impl, param)
	}
	return Identity{
		ID:      PropertyID(impl, param),
		Kind:    KindProperty,
		Display: impl + "." + param,
	}, nil
}

// ForParameter computes the dependency token a constructor parameter resolves
// to, within the scope described by inScope. The property token scoped to
// this exact parameter wins when one is in scope; otherwise the parameter's
// declared type decides. The second return is false for untyped parameters,
// which dependency analysis skips entirely.
func (s *Service) ForParameter(impl string, p source.Param, inScope func(id string) bool) (Identity, bool, error) {
	if !p.HasType {
		return Identity{}, false, nil
	}

	if propID := PropertyID(impl, p.Name); inScope(propID) {
		return Identity{ID: propID, Kind: KindProperty, Display: impl + "." + p.Name}, true, nil
	}

	if p.TypeName != "" {
		id, err := s.Identify(p.TypeName)
		if err != nil {
			return Identity{}, false, err
		}
		return id, true, nil
	}

	sig := Signature(p.Type)
	return Identity{ID: sig, Kind: KindAnonymous, Display: sig}, true, nil
}
