package collect

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/girder/internal/config"
	"github.com/vk/girder/internal/token"
)

// RegistrationKind describes how a service definition provides its value.
type RegistrationKind int

const (
	// RegExplicitBinding binds a token to a named implementation.
	RegExplicitBinding RegistrationKind = iota
	// RegSelfBound registers a declaration under its own token.
	RegSelfBound
	// RegFactory defers to an opaque callable; its dependencies resolve
	// dynamically and are out of scope for static analysis.
	RegFactory
)

// Lifecycle controls instance caching in the emitted container.
type Lifecycle int

const (
	// LifecycleSingleton caches the instance by token id after first
	// resolution.
	LifecycleSingleton Lifecycle = iota
	// LifecycleTransient re-invokes the provider on every resolution.
	LifecycleTransient
)

// String returns the lifecycle keyword.
func (l Lifecycle) String() string {
	if l == LifecycleTransient {
		return "transient"
	}
	return "singleton"
}

// Service is one resolved service definition.
type Service struct {
	Token        token.Identity
	Registration RegistrationKind
	Lifecycle    Lifecycle

	// Provider is the implementation name the token is bound to: the binding
	// target for explicit bindings, the declaration's own name when
	// self-bound, empty for factories and properties.
	Provider string

	// FactorySource is the opaque source text of an auto-detected factory.
	// Emitter-only; never parsed by the core.
	FactorySource string

	// PropertyValue is the statically evaluated value of a property token.
	PropertyValue cty.Value

	// Override marks a scoped override: the registration may replace an
	// existing one, local or inherited, without a duplicate error.
	Override bool

	// Args are opaque build-time argument strings for the emitter.
	Args []string
}

// IsFactory reports whether the definition is factory-backed.
func (s *Service) IsFactory() bool { return s.Registration == RegFactory }

// IsCapability reports whether the token is a capability token.
func (s *Service) IsCapability() bool { return s.Token.Kind == token.KindCapability }

// IsProperty reports whether the token is a property token.
func (s *Service) IsProperty() bool { return s.Token.Kind == token.KindProperty }

// Injection is a service definition plus the raw source text and exact site
// of its registration, for diagnostics.
type Injection struct {
	Service
	SourceText string
	Range      hcl.Range
}

// Duplicate is a pair of local registrations that resolved to the same token
// id without an override. The first stays effective; the second is queued for
// reporting.
type Duplicate struct {
	First  *Injection
	Second *Injection
}

// ConfigGraph is the read-only result of collecting one configuration unit.
// It is built once and never mutated afterwards.
type ConfigGraph struct {
	// Name is the container identity: the explicit name when one was
	// declared, otherwise a deterministically synthesized one.
	Name string
	Kind config.UnitKind

	// Injections maps token id to the effective local registration. Keys are
	// unique at any snapshot; losers of duplicate races live in Duplicates.
	Injections map[string]*Injection
	// Order lists token ids in registration order for deterministic
	// iteration.
	Order []string

	Duplicates []Duplicate

	// Parent is the parent configuration name. Empty when the unit has no
	// parent or when the parent identifier dereferenced to an external token
	// set instead.
	Parent string
	// Fragments are the ordered fragment references.
	Fragments []string

	// External is the captured externally declared token id set, with
	// ExternalName naming the trusted source block (a delegation target for
	// the emitter).
	External     map[string]struct{}
	ExternalName string

	DeclRange hcl.Range
}

// IsComposite reports whether the config may inherit.
func (g *ConfigGraph) IsComposite() bool { return g.Kind == config.UnitComposite }

// Set is the collected configuration universe for one analysis call.
type Set struct {
	ByName map[string]*ConfigGraph
	// Order lists config names in declaration order.
	Order []string
}

// Composites returns the composite configs in declaration order.
func (s *Set) Composites() []*ConfigGraph {
	var out []*ConfigGraph
	for _, name := range s.Order {
		if cfg := s.ByName[name]; cfg.IsComposite() {
			out = append(out, cfg)
		}
	}
	return out
}
