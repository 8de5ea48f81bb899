package validate

import (
	"context"
	"strings"

	"github.com/vk/girder/internal/analysis"
)

// duplicateRule reports the duplicate pairs the collector pre-recorded, and
// flags every non-overriding local registration that shadows an inherited
// token, naming the conflicting ancestor.
type duplicateRule struct{}

func (duplicateRule) Name() string { return "duplicate" }

func (duplicateRule) Check(_ context.Context, vc *Context) ([]analysis.Error, error) {
	var errs []analysis.Error

	for _, dup := range vc.Config.Duplicates {
		errs = append(errs, analysis.Errorf(
			analysis.KindDuplicate,
			dup.Second.Range,
			map[string]string{
				"config": vc.Config.Name,
				"first":  dup.First.Range.String(),
			},
			"token %q is already registered in %q at %s; set override = true to replace it intentionally",
			dup.Second.SourceText, vc.Config.Name, dup.First.Range,
		))
	}

	if vc.Inherited == nil {
		return errs, nil
	}

	for _, id := range vc.Config.Order {
		inj := vc.Config.Injections[id]
		if inj.Override {
			continue
		}
		inherited, ok := vc.Inherited.Get(id)
		if !ok {
			continue
		}
		ctxMap := map[string]string{
			"config":   vc.Config.Name,
			"ancestor": inherited.Provenance.Source,
			"origin":   inherited.Provenance.Origin.String(),
		}
		if len(inherited.Provenance.Chain) > 0 {
			ctxMap["chain"] = strings.Join(inherited.Provenance.Chain, " -> ")
		}
		errs = append(errs, analysis.Errorf(
			analysis.KindDuplicate,
			inj.Range,
			ctxMap,
			"token %q is already provided by %s %q; set override = true to replace it intentionally",
			inj.SourceText, inherited.Provenance.Origin, inherited.Provenance.Source,
		))
	}

	return errs, nil
}
