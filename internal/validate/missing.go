package validate

import (
	"context"
	"fmt"

	"github.com/vk/girder/internal/analysis"
	"github.com/vk/girder/internal/collect"
)

// missingDependencyRule resolves every typed constructor parameter of every
// non-factory local registration to a dependency token and reports the ones
// no reachable registration satisfies. Untyped parameters are skipped, not
// errored; factory dependencies resolve dynamically and are out of scope.
type missingDependencyRule struct{}

func (missingDependencyRule) Name() string { return "missing-dependency" }

func (missingDependencyRule) Check(_ context.Context, vc *Context) ([]analysis.Error, error) {
	var errs []analysis.Error

	for _, id := range vc.Config.Order {
		inj := vc.Config.Injections[id]
		if inj.IsFactory() || inj.IsProperty() {
			continue
		}
		if inj.Provider == "" {
			// A self-bound capability has nothing concrete behind its token:
			// the emitter could not name a constructor for it.
			if inj.IsCapability() && inj.Registration == collect.RegSelfBound {
				errs = append(errs, analysis.Errorf(
					analysis.KindMissing,
					inj.Range,
					map[string]string{"config": vc.Config.Name, "token": inj.SourceText},
					"capability token %q has no implementation; bind it with 'to' or register a factory",
					inj.SourceText,
				))
			}
			continue
		}

		implRef, ok := vc.Source.Resolve(inj.Provider)
		if !ok {
			if inj.Registration == collect.RegExplicitBinding {
				errs = append(errs, analysis.Errorf(
					analysis.KindMissing,
					inj.Range,
					map[string]string{"config": vc.Config.Name, "token": inj.SourceText},
					"implementation %q bound to token %q is not declared",
					inj.Provider, inj.SourceText,
				))
			}
			continue
		}
		implRef = vc.Source.FollowAlias(implRef)

		for _, param := range vc.Source.ConstructorParams(implRef) {
			dep, typed, err := vc.Tokens.ForParameter(implRef.Name, param, vc.Available)
			if err != nil {
				return nil, fmt.Errorf("%s: constructor of %q: %w", inj.Range, implRef.Name, err)
			}
			if !typed {
				continue
			}
			if vc.Available(dep.ID) {
				continue
			}
			errs = append(errs, analysis.Errorf(
				analysis.KindMissing,
				inj.Range,
				map[string]string{
					"config":    vc.Config.Name,
					"dependent": implRef.Name,
					"parameter": param.Name,
				},
				"no registration satisfies dependency %q of %q (parameter %q)",
				dep.Display, implRef.Name, param.Name,
			))
		}
	}

	return errs, nil
}
