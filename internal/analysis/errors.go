// Package analysis defines the typed error model shared by every validation
// and graph pass. The four collectible kinds accumulate across a single
// analysis call; hard configuration errors are ordinary Go errors that abort
// the call instead.
package analysis

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// Sentinel errors for programmatic checks via errors.Is().
var (
	ErrDuplicate    = errors.New("duplicate registration")
	ErrTypeMismatch = errors.New("type mismatch")
	ErrMissing      = errors.New("missing dependency")
	ErrCycle        = errors.New("cycle detected")
)

// Kind discriminates the collectible error categories.
type Kind int

const (
	KindDuplicate Kind = iota
	KindTypeMismatch
	KindMissing
	KindCycle
)

// String returns the short label used in rendered diagnostics.
func (k Kind) String() string {
	switch k {
	case KindDuplicate:
		return "duplicate"
	case KindTypeMismatch:
		return "type-mismatch"
	case KindMissing:
		return "missing"
	case KindCycle:
		return "cycle"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindDuplicate:
		return ErrDuplicate
	case KindTypeMismatch:
		return ErrTypeMismatch
	case KindMissing:
		return ErrMissing
	case KindCycle:
		return ErrCycle
	default:
		return nil
	}
}

// Error is one collectible analysis finding. Message cites the original
// source text of the offending token, never its hashed id, and Subject points
// at the exact registration site rather than the enclosing configuration.
type Error struct {
	Kind    Kind
	Message string
	Subject hcl.Range
	// Context carries free-form detail for disambiguation, e.g. whether a
	// cycle is an inheritance-chain cycle or a service-dependency cycle.
	Context map[string]string
}

// Error implements the error interface.
func (e Error) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Subject)
}

// Unwrap maps the error onto its kind's sentinel for errors.Is().
func (e Error) Unwrap() error {
	return e.Kind.sentinel()
}

// Errorf builds an Error with a formatted message.
func Errorf(kind Kind, subject hcl.Range, context map[string]string, format string, args ...any) Error {
	return Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Subject: subject,
		Context: context,
	}
}

// Diagnostic converts the error into an HCL diagnostic for rendering against
// the original source files.
func (e Error) Diagnostic() *hcl.Diagnostic {
	subject := e.Subject
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  e.Kind.String(),
		Detail:   e.Message,
		Subject:  &subject,
	}
}

// Diagnostics converts a slice of errors into hcl.Diagnostics.
func Diagnostics(errs []Error) hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, e := range errs {
		diags = append(diags, e.Diagnostic())
	}
	return diags
}
