package validate

import (
	"context"

	"github.com/vk/girder/internal/analysis"
	"github.com/vk/girder/internal/collect"
	"github.com/vk/girder/internal/ctxlog"
	"github.com/vk/girder/internal/inherit"
	"github.com/vk/girder/internal/source"
	"github.com/vk/girder/internal/token"
)

// Context is the resolution context a rule checks one configuration against.
// Inherited is nil for fragments, which validate against local scope only.
type Context struct {
	Config    *collect.ConfigGraph
	Inherited *inherit.Map
	Tokens    *token.Service
	Source    source.Model
}

// Available reports whether a token id is reachable from the configuration:
// local tokens always, plus inherited and externally declared tokens for
// composites. Every rule and the graph builder share this exact notion of
// what is in scope.
func (vc *Context) Available(id string) bool {
	if _, ok := vc.Config.Injections[id]; ok {
		return true
	}
	if vc.Inherited.Has(id) {
		return true
	}
	_, ok := vc.Config.External[id]
	return ok
}

// Rule is one pure validation pass. Rules accumulate every applicable
// finding; they never short-circuit. The error return is reserved for hard
// configuration errors that abort the analysis.
type Rule interface {
	Name() string
	Check(ctx context.Context, vc *Context) ([]analysis.Error, error)
}

// Rules returns the fixed rule set, in reporting order.
func Rules() []Rule {
	return []Rule{
		duplicateRule{},
		typeCompatibilityRule{},
		missingDependencyRule{},
	}
}

// Run executes every rule against the context and gathers all findings.
func Run(ctx context.Context, vc *Context) ([]analysis.Error, error) {
	logger := ctxlog.FromContext(ctx)
	var all []analysis.Error
	for _, rule := range Rules() {
		errs, err := rule.Check(ctx, vc)
		if err != nil {
			return nil, err
		}
		if len(errs) > 0 {
			logger.Debug("Validation rule reported findings.", "rule", rule.Name(), "config", vc.Config.Name, "count", len(errs))
		}
		all = append(all, errs...)
	}
	return all, nil
}
