package validate

import (
	"context"

	"github.com/vk/girder/internal/analysis"
	"github.com/vk/girder/internal/collect"
)

// typeCompatibilityRule asks the semantic source model one assignability
// question per explicit capability binding. Self-bound and factory
// registrations are exempt; the core never checks types itself.
type typeCompatibilityRule struct{}

func (typeCompatibilityRule) Name() string { return "type-compatibility" }

func (typeCompatibilityRule) Check(_ context.Context, vc *Context) ([]analysis.Error, error) {
	var errs []analysis.Error

	for _, id := range vc.Config.Order {
		inj := vc.Config.Injections[id]
		if !inj.IsCapability() || inj.Registration != collect.RegExplicitBinding {
			continue
		}

		implRef, ok := vc.Source.Resolve(inj.Provider)
		if !ok {
			// An undeclared binding target is the missing rule's finding.
			continue
		}
		implRef = vc.Source.FollowAlias(implRef)

		contractRef, ok := vc.Source.Resolve(inj.SourceText)
		if !ok {
			continue
		}
		contractRef = vc.Source.FollowAlias(contractRef)

		if !vc.Source.IsAssignable(implRef, contractRef) {
			errs = append(errs, analysis.Errorf(
				analysis.KindTypeMismatch,
				inj.Range,
				map[string]string{
					"config":         vc.Config.Name,
					"capability":     contractRef.Name,
					"implementation": implRef.Name,
				},
				"implementation %q is not assignable to capability %q",
				implRef.Name, contractRef.Name,
			))
		}
	}

	return errs, nil
}
