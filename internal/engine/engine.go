package engine

import (
	"context"

	"github.com/vk/girder/internal/analysis"
	"github.com/vk/girder/internal/collect"
	"github.com/vk/girder/internal/config"
	"github.com/vk/girder/internal/ctxlog"
	"github.com/vk/girder/internal/depgraph"
	"github.com/vk/girder/internal/emit"
	"github.com/vk/girder/internal/inherit"
	"github.com/vk/girder/internal/source"
	"github.com/vk/girder/internal/token"
	"github.com/vk/girder/internal/validate"
)

// Result is the outcome of analyzing one configuration unit. Plan is non-nil
// only for composite configs whose analysis produced no findings.
type Result struct {
	Config *collect.ConfigGraph
	Errors []analysis.Error
	Plan   *emit.Plan
}

// Engine runs the full analysis pipeline: collect, resolve inheritance,
// validate, build and order the dependency graph. Engines hold no state
// across Analyze calls; concurrent analyses just use separate calls.
type Engine struct {
	tokens *token.Service
	src    source.Model
}

// New returns an Engine over the given semantic source model.
func New(src source.Model) *Engine {
	return &Engine{
		tokens: token.NewService(src),
		src:    src,
	}
}

// Analyze processes every declared unit and returns one Result per unit, in
// declaration order. All collectible findings of one unit accumulate on its
// Result; hard configuration errors abort the whole call.
func (e *Engine) Analyze(ctx context.Context, model *config.Model) ([]Result, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Analysis started.", "units", len(model.Units))

	set, err := collect.New(e.tokens, e.src).Collect(ctx, model)
	if err != nil {
		return nil, err
	}

	// One resolver per call: memoization is valid within a single immutable
	// configuration set and must not leak across calls.
	resolver := inherit.New(set)

	results := make([]Result, 0, len(set.Order))
	for _, name := range set.Order {
		res, err := e.analyzeConfig(ctx, resolver, set.ByName[name])
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	logger.Debug("Analysis finished.", "configs", len(results))
	return results, nil
}

func (e *Engine) analyzeConfig(ctx context.Context, resolver *inherit.Resolver, cfg *collect.ConfigGraph) (Result, error) {
	ctx = ctxlog.With(ctx, "config", cfg.Name)
	logger := ctxlog.FromContext(ctx)
	res := Result{Config: cfg}

	// Only composites inherit; fragments validate against local scope.
	var inherited *inherit.Map
	if cfg.IsComposite() {
		m, errs, err := resolver.Resolve(ctx, cfg)
		if err != nil {
			return Result{}, err
		}
		inherited = m
		res.Errors = append(res.Errors, errs...)
	}

	verrs, err := validate.Run(ctx, &validate.Context{
		Config:    cfg,
		Inherited: inherited,
		Tokens:    e.tokens,
		Source:    e.src,
	})
	if err != nil {
		return Result{}, err
	}
	res.Errors = append(res.Errors, verrs...)

	if !cfg.IsComposite() {
		return res, nil
	}

	// Build the graph even when validation found problems: service cycles
	// belong to the same pass and must be gathered, not hidden behind
	// earlier findings.
	g, err := depgraph.Build(ctx, cfg, inherited, e.src, e.tokens)
	if err != nil {
		return Result{}, err
	}
	res.Errors = append(res.Errors, g.DetectCycles()...)

	if len(res.Errors) == 0 {
		res.Plan = emit.BuildPlan(cfg, g, g.TopoOrder())
		logger.Debug("Plan built.", "config", cfg.Name, "nodes", len(res.Plan.Nodes))
	}
	return res, nil
}
