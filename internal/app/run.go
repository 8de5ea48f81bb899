package app

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/hashicorp/hcl/v2"

	"github.com/vk/girder/internal/analysis"
	"github.com/vk/girder/internal/ctxlog"
	"github.com/vk/girder/internal/emit"
	"github.com/vk/girder/internal/engine"
)

// Run executes one full compile: analyze every declared configuration, render
// findings against the original source, and emit container code for every
// clean composite when an output directory is configured.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	results, err := a.engine.Analyze(ctx, a.model)
	if err != nil {
		return fmt.Errorf("analysis aborted: %w", err)
	}

	total := a.report(results)
	if total > 0 {
		return fmt.Errorf("analysis failed with %d error(s)", total)
	}

	if a.config.OutDir != "" {
		if err := a.emit(ctx, results); err != nil {
			return err
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// report prints a per-config summary plus full diagnostics, and returns the
// total finding count.
func (a *App) report(results []engine.Result) int {
	okMark := color.New(color.FgGreen).Sprint("ok")
	failMark := color.New(color.FgRed).Sprint("fail")
	if a.config.NoColor {
		okMark, failMark = "ok", "fail"
	}

	total := 0
	var diags hcl.Diagnostics
	for _, res := range results {
		if len(res.Errors) == 0 {
			fmt.Fprintf(a.outW, "%s  %s %q: %d service(s)\n", okMark, res.Config.Kind, res.Config.Name, len(res.Config.Order))
			continue
		}
		total += len(res.Errors)
		fmt.Fprintf(a.outW, "%s %s %q: %d error(s)\n", failMark, res.Config.Kind, res.Config.Name, len(res.Errors))
		diags = append(diags, analysis.Diagnostics(res.Errors)...)
	}

	if len(diags) > 0 {
		writer := hcl.NewDiagnosticTextWriter(a.outW, a.files, 100, !a.config.NoColor)
		// Best effort: diagnostics rendering must never mask the findings
		// themselves.
		_ = writer.WriteDiagnostics(diags)
	}
	return total
}

// emit writes one generated container per validated composite plan.
func (a *App) emit(ctx context.Context, results []engine.Result) error {
	emitter := &emit.GoEmitter{OutDir: a.config.OutDir, Package: a.config.Package}
	for _, res := range results {
		if res.Plan == nil {
			continue
		}
		if err := emitter.Emit(ctx, res.Plan); err != nil {
			return fmt.Errorf("emitting %q: %w", res.Plan.Container, err)
		}
	}
	return nil
}
