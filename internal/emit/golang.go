package emit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/girder/internal/collect"
	"github.com/vk/girder/internal/ctxlog"
)

// GoEmitter is the reference emitter: it writes one runtime-free Go source
// file per plan. No reflection anywhere in the output; resolution is a map
// lookup over values constructed in plan order.
type GoEmitter struct {
	// OutDir receives the generated files.
	OutDir string
	// Package is the package name of the generated files.
	Package string
}

// Emit writes the container implementation for one plan.
func (e *GoEmitter) Emit(ctx context.Context, plan *Plan) error {
	logger := ctxlog.FromContext(ctx)

	name := goName(plan.Container)
	path := filepath.Join(e.OutDir, strings.ToLower(name)+"_container.go")
	logger.Debug("Emitting container.", "container", plan.Container, "path", path)

	if err := os.MkdirAll(e.OutDir, 0o755); err != nil {
		return fmt.Errorf("emit: %w", err)
	}

	var sb strings.Builder
	e.writeHeader(&sb, plan, name)
	e.writeConstructor(&sb, plan, name)
	e.writeResolve(&sb, name)

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("emit %s: %w", plan.Container, err)
	}
	logger.Info("Container emitted.", "container", plan.Container, "path", path, "services", len(plan.Nodes))
	return nil
}

func (e *GoEmitter) writeHeader(sb *strings.Builder, plan *Plan, name string) {
	fmt.Fprintf(sb, "// Code generated by girder; DO NOT EDIT.\n\npackage %s\n\n", e.Package)
	fmt.Fprintf(sb, "// %s resolves the %q configuration.\n", name, plan.Container)
	if plan.Parent != "" {
		fmt.Fprintf(sb, "// Parent: %s\n", plan.Parent)
	}
	for _, d := range plan.Delegates {
		fmt.Fprintf(sb, "// Legacy delegate: %s\n", d)
	}
	fmt.Fprintf(sb, "type %s struct {\n", name)
	sb.WriteString("\tsingletons map[string]any\n")
	sb.WriteString("\tproviders  map[string]func() any\n\n")
	sb.WriteString("\t// Factories supplies the opaque factory-backed tokens; callers\n")
	sb.WriteString("\t// populate it before first resolution.\n")
	sb.WriteString("\tFactories map[string]func() any\n\n")
	sb.WriteString("\tdelegates []func(token string) (any, bool)\n")
	sb.WriteString("}\n\n")
}

func (e *GoEmitter) writeConstructor(sb *strings.Builder, plan *Plan, name string) {
	fmt.Fprintf(sb, "// New%s builds every singleton strictly dependencies-first. Delegates\n", name)
	sb.WriteString("// are tried, in order, for tokens this container cannot resolve locally.\n")
	fmt.Fprintf(sb, "func New%s(delegates ...func(string) (any, bool)) *%s {\n", name, name)
	fmt.Fprintf(sb, "\tc := &%s{\n", name)
	sb.WriteString("\t\tsingletons: make(map[string]any),\n")
	sb.WriteString("\t\tproviders:  make(map[string]func() any),\n")
	sb.WriteString("\t\tFactories:  make(map[string]func() any),\n")
	sb.WriteString("\t\tdelegates:  delegates,\n")
	sb.WriteString("\t}\n")

	for _, node := range plan.Nodes {
		id := strconv.Quote(node.ID)
		switch {
		case node.Service.IsFactory():
			// The factory source is opaque configuration text; the generated
			// container defers to a caller-supplied Go factory for it.
			fmt.Fprintf(sb, "\tc.providers[%s] = func() any { return c.factory(%s) } // factory: %s\n",
				id, id, sanitizeComment(node.Service.FactorySource))
		case node.Service.IsProperty():
			fmt.Fprintf(sb, "\tc.singletons[%s] = %s\n", id, goLiteral(node.Service))
		case node.Service.Lifecycle == collect.LifecycleTransient:
			fmt.Fprintf(sb, "\tc.providers[%s] = func() any { return %s }\n", id, constructorCall(node))
		default:
			fmt.Fprintf(sb, "\tc.singletons[%s] = %s\n", id, constructorCall(node))
		}
	}

	sb.WriteString("\treturn c\n}\n\n")
}

func (e *GoEmitter) writeResolve(sb *strings.Builder, name string) {
	fmt.Fprintf(sb, "// Resolve looks a token up locally first, then through the delegate\n")
	sb.WriteString("// chain in declared order.\n")
	fmt.Fprintf(sb, "func (c *%s) Resolve(token string) (any, bool) {\n", name)
	sb.WriteString("\tif v, ok := c.singletons[token]; ok {\n\t\treturn v, true\n\t}\n")
	sb.WriteString("\tif p, ok := c.providers[token]; ok {\n\t\treturn p(), true\n\t}\n")
	sb.WriteString("\tfor _, d := range c.delegates {\n\t\tif v, ok := d(token); ok {\n\t\t\treturn v, true\n\t\t}\n\t}\n")
	sb.WriteString("\treturn nil, false\n}\n\n")

	fmt.Fprintf(sb, "func (c *%s) mustResolve(token string) any {\n", name)
	sb.WriteString("\tv, ok := c.Resolve(token)\n")
	sb.WriteString("\tif !ok {\n\t\tpanic(\"unresolved token: \" + token)\n\t}\n")
	sb.WriteString("\treturn v\n}\n\n")

	fmt.Fprintf(sb, "func (c *%s) factory(token string) any {\n", name)
	sb.WriteString("\tf, ok := c.Factories[token]\n")
	sb.WriteString("\tif !ok {\n\t\tpanic(\"no factory registered for token: \" + token)\n\t}\n")
	sb.WriteString("\treturn f()\n}\n")
}

// constructorCall renders the provider invocation for a class or capability
// node, resolving each dependency through the container in parameter order.
func constructorCall(node Node) string {
	args := make([]string, len(node.Deps))
	for i, dep := range node.Deps {
		args[i] = fmt.Sprintf("c.mustResolve(%s)", strconv.Quote(dep))
	}
	return fmt.Sprintf("New%s(%s)", goName(node.Service.Provider), strings.Join(args, ", "))
}

// goLiteral renders a property value as a Go literal. Primitive values map
// directly; anything richer falls back to its quoted source text.
func goLiteral(svc collect.Service) string {
	v := svc.PropertyValue
	switch {
	case v.Type().Equals(cty.String):
		return strconv.Quote(v.AsString())
	case v.Type().Equals(cty.Number):
		return v.AsBigFloat().Text('f', -1)
	case v.Type().Equals(cty.Bool):
		if v.True() {
			return "true"
		}
		return "false"
	default:
		if len(svc.Args) > 0 {
			return strconv.Quote(svc.Args[0])
		}
		return "nil"
	}
}

// goName turns a container or implementation name into an exported Go
// identifier.
func goName(name string) string {
	var sb strings.Builder
	upperNext := true
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if upperNext {
				sb.WriteRune(unicode.ToUpper(r))
				upperNext = false
			} else {
				sb.WriteRune(r)
			}
		default:
			upperNext = true
		}
	}
	if sb.Len() == 0 {
		return "Container"
	}
	return sb.String()
}

// sanitizeComment keeps opaque source text from breaking out of a line
// comment.
func sanitizeComment(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}
