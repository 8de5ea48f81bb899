package hcladapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/vk/girder/internal/config"
	"github.com/vk/girder/internal/ctxlog"
	"github.com/vk/girder/internal/fsutil"
	"github.com/vk/girder/internal/schema"
	"github.com/vk/girder/internal/source"
)

// Loader is the HCL implementation of config.Loader: it reads .hcl
// declaration files, translates them into the format-agnostic model and
// returns the matching semantic source model.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a new HCL declaration loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Files exposes the parsed files for diagnostic rendering against original
// source.
func (l *Loader) Files() map[string]*hcl.File {
	return l.parser.Files()
}

// Load parses every .hcl file under the given paths and builds the model.
// Malformed declarations are hard errors; nothing partial is returned.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, source.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := l.findFiles(paths)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := config.NewModel()
	for _, f := range files {
		if err := l.loadFile(ctx, model, f); err != nil {
			return nil, nil, err
		}
	}

	logger.Debug("HCL loading complete.",
		"contracts", len(model.Contracts),
		"implementations", len(model.Implementations),
		"aliases", len(model.Aliases),
		"externals", len(model.Externals),
		"units", len(model.Units),
	)
	return model, newSemantics(model, l.parser.Sources()), nil
}

// loadedFile pairs a parseable path with its root-relative, slash-canonical
// form used for declaring locations.
type loadedFile struct {
	path string
	rel  string
}

// findFiles resolves each input path to the .hcl files beneath it. Relative
// forms are taken against the input directory (or the file's own directory
// for single-file inputs) so declaring locations stay stable regardless of
// where the tool runs from.
func (l *Loader) findFiles(paths []string) ([]loadedFile, error) {
	var out []loadedFile
	seen := make(map[string]struct{})

	add := func(path, rel string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		out = append(out, loadedFile{path: path, rel: filepath.ToSlash(rel)})
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", p, err)
		}
		if !info.IsDir() {
			add(p, filepath.Base(p))
			continue
		}
		files, err := fsutil.FindFilesByExtension(p, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			rel, err := filepath.Rel(p, f)
			if err != nil {
				rel = filepath.Base(f)
			}
			add(f, rel)
		}
	}
	return out, nil
}

func (l *Loader) loadFile(ctx context.Context, model *config.Model, f loadedFile) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing HCL file.", "path", f.path)

	hclFile, diags := l.parser.ParseHCLFile(f.path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse %s: %s", f.path, diags.Error())
	}

	body, ok := hclFile.Body.(*hclsyntax.Body)
	if !ok {
		return fmt.Errorf("%s: not native HCL syntax", f.path)
	}

	src := hclFile.Bytes
	for _, block := range body.Blocks {
		var err error
		switch block.Type {
		case "contract":
			err = l.loadContract(model, f, block)
		case "implementation":
			err = l.loadImplementation(model, f, block)
		case "alias":
			err = l.loadAlias(model, block)
		case "external":
			err = l.loadExternal(model, block)
		case "container":
			err = l.loadUnit(model, f, block, src, config.UnitComposite)
		case "fragment":
			err = l.loadUnit(model, f, block, src, config.UnitFragment)
		default:
			err = fmt.Errorf("%s: unsupported block type %q", block.DefRange(), block.Type)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) loadContract(model *config.Model, f loadedFile, block *hclsyntax.Block) error {
	name, err := oneLabel(block)
	if err != nil {
		return err
	}
	if prev, ok := model.Contracts[name]; ok {
		return fmt.Errorf("%s: contract %q already declared at %s", block.DefRange(), name, prev.DeclRange)
	}

	var body schema.ContractBody
	if diags := gohcl.DecodeBody(block.Body, nil, &body); diags.HasErrors() {
		return fmt.Errorf("contract %q: %s", name, diags.Error())
	}

	// A capability token over a typeless contract is malformed, so the type
	// must be a concrete type expression, not a reference.
	typeName, ctype, err := translateTypeExpr(body.Type)
	if err != nil {
		return fmt.Errorf("contract %q: %w", name, err)
	}
	if typeName != "" {
		return fmt.Errorf("%s: contract %q: type must be a type expression, not a reference to %q", block.DefRange(), name, typeName)
	}

	model.Contracts[name] = &config.Contract{
		Name:      name,
		Type:      ctype,
		File:      f.rel,
		DeclRange: block.DefRange(),
	}
	return nil
}

func (l *Loader) loadImplementation(model *config.Model, f loadedFile, block *hclsyntax.Block) error {
	name, err := oneLabel(block)
	if err != nil {
		return err
	}
	if prev, ok := model.Implementations[name]; ok {
		return fmt.Errorf("%s: implementation %q already declared at %s", block.DefRange(), name, prev.DeclRange)
	}

	var body schema.ImplementationBody
	if diags := gohcl.DecodeBody(block.Body, nil, &body); diags.HasErrors() {
		return fmt.Errorf("implementation %q: %s", name, diags.Error())
	}

	impl := &config.Implementation{
		Name:       name,
		Implements: body.Implements,
		File:       f.rel,
		DeclRange:  block.DefRange(),
	}

	if produces := syntaxAttr(block.Body, "produces"); produces != nil {
		typeName, ctype, err := translateTypeExpr(produces)
		if err != nil {
			return fmt.Errorf("implementation %q: %w", name, err)
		}
		if typeName != "" {
			return fmt.Errorf("implementation %q: produces must be a type expression, not a reference to %q", name, typeName)
		}
		impl.Produces = ctype
	}

	for _, inner := range block.Body.Blocks {
		if inner.Type != "param" {
			return fmt.Errorf("%s: unsupported block type %q inside implementation", inner.DefRange(), inner.Type)
		}
		pname, err := oneLabel(inner)
		if err != nil {
			return err
		}
		param := &config.Param{Name: pname}
		if typeExpr := syntaxAttr(inner.Body, "type"); typeExpr != nil {
			typeName, ctype, err := translateTypeExpr(typeExpr)
			if err != nil {
				return fmt.Errorf("implementation %q, param %q: %w", name, pname, err)
			}
			param.HasType = true
			param.TypeName = typeName
			param.Type = ctype
		}
		impl.Params = append(impl.Params, param)
	}

	model.Implementations[name] = impl
	return nil
}

func (l *Loader) loadAlias(model *config.Model, block *hclsyntax.Block) error {
	name, err := oneLabel(block)
	if err != nil {
		return err
	}
	if prev, ok := model.Aliases[name]; ok {
		return fmt.Errorf("%s: alias %q already declared at %s", block.DefRange(), name, prev.DeclRange)
	}

	var body schema.AliasBody
	if diags := gohcl.DecodeBody(block.Body, nil, &body); diags.HasErrors() {
		return fmt.Errorf("alias %q: %s", name, diags.Error())
	}

	model.Aliases[name] = &config.Alias{
		Name:      name,
		For:       body.Target,
		DeclRange: block.DefRange(),
	}
	return nil
}

func (l *Loader) loadExternal(model *config.Model, block *hclsyntax.Block) error {
	name, err := oneLabel(block)
	if err != nil {
		return err
	}
	if prev, ok := model.Externals[name]; ok {
		return fmt.Errorf("%s: external %q already declared at %s", block.DefRange(), name, prev.DeclRange)
	}

	var body schema.ExternalBody
	if diags := gohcl.DecodeBody(block.Body, nil, &body); diags.HasErrors() {
		return fmt.Errorf("external %q: %s", name, diags.Error())
	}

	model.Externals[name] = &config.External{
		Name:      name,
		Tokens:    body.Tokens,
		DeclRange: block.DefRange(),
	}
	return nil
}

func (l *Loader) loadUnit(model *config.Model, f loadedFile, block *hclsyntax.Block, src []byte, kind config.UnitKind) error {
	if len(block.Labels) != 0 {
		return fmt.Errorf("%s: %s blocks take no labels; use the name attribute", block.DefRange(), block.Type)
	}

	var attrs schema.UnitAttrs
	if diags := gohcl.DecodeBody(block.Body, nil, &attrs); diags.HasErrors() {
		return fmt.Errorf("%s: %s", block.DefRange(), diags.Error())
	}

	if kind == config.UnitFragment && (attrs.Parent != "" || len(attrs.Fragments) > 0) {
		return fmt.Errorf("%s: fragments cannot declare a parent or fragments; only containers compose", block.DefRange())
	}

	unit := &config.Unit{
		Name:         attrs.Name,
		ExplicitName: attrs.Name != "",
		Kind:         kind,
		Parent:       attrs.Parent,
		Fragments:    attrs.Fragments,
		File:         f.rel,
		DeclRange:    block.DefRange(),
		SourceText:   string(block.Range().SliceBytes(src)),
	}

	for _, inner := range block.Body.Blocks {
		switch inner.Type {
		case "register":
			reg, err := l.loadRegister(inner)
			if err != nil {
				return err
			}
			unit.Registers = append(unit.Registers, reg)
		case "property":
			prop, err := l.loadProperty(inner, src)
			if err != nil {
				return err
			}
			unit.Properties = append(unit.Properties, prop)
		default:
			return fmt.Errorf("%s: unsupported block type %q inside %s", inner.DefRange(), inner.Type, block.Type)
		}
	}

	model.Units = append(model.Units, unit)
	return nil
}

func (l *Loader) loadRegister(block *hclsyntax.Block) (*config.Register, error) {
	if len(block.Labels) != 1 {
		return nil, fmt.Errorf("%s: register blocks take exactly one label, the token expression", block.DefRange())
	}

	var body schema.RegisterBody
	if diags := gohcl.DecodeBody(block.Body, nil, &body); diags.HasErrors() {
		return nil, fmt.Errorf("%s: %s", block.DefRange(), diags.Error())
	}

	to := syntaxAttr(block.Body, "to")
	factory := syntaxAttr(block.Body, "factory")
	if to != nil && factory != nil {
		return nil, fmt.Errorf("%s: register %q: 'to' and 'factory' are mutually exclusive", block.DefRange(), block.Labels[0])
	}

	return &config.Register{
		Token:      block.Labels[0],
		TokenRange: block.LabelRanges[0],
		To:         to,
		Factory:    factory,
		Lifecycle:  body.Lifecycle,
		Override:   body.Override,
		Args:       body.Args,
		DeclRange:  block.DefRange(),
	}, nil
}

func (l *Loader) loadProperty(block *hclsyntax.Block, src []byte) (*config.Property, error) {
	if len(block.Labels) != 2 {
		return nil, fmt.Errorf("%s: property blocks take exactly two labels: implementation and parameter", block.DefRange())
	}

	var body schema.PropertyBody
	if diags := gohcl.DecodeBody(block.Body, nil, &body); diags.HasErrors() {
		return nil, fmt.Errorf("%s: %s", block.DefRange(), diags.Error())
	}

	// Property values feed the emitted container directly, so they must be
	// determinable without executing anything: a static expression only.
	val, diags := body.Value.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s: property %s.%s: value must be statically evaluable: %s",
			block.DefRange(), block.Labels[0], block.Labels[1], diags.Error())
	}

	return &config.Property{
		Implementation: block.Labels[0],
		Parameter:      block.Labels[1],
		Value:          val,
		ValueText:      string(body.Value.Range().SliceBytes(src)),
		Override:       body.Override,
		DeclRange:      block.DefRange(),
	}, nil
}

func oneLabel(block *hclsyntax.Block) (string, error) {
	if len(block.Labels) != 1 || block.Labels[0] == "" {
		return "", fmt.Errorf("%s: %s blocks take exactly one non-empty label", block.DefRange(), block.Type)
	}
	return block.Labels[0], nil
}

// syntaxAttr returns a native-syntax attribute's expression, or nil when the
// attribute is absent. gohcl substitutes a synthesized null expression for an
// absent optional hcl.Expression field, so presence must be read off the
// syntax body.
func syntaxAttr(body *hclsyntax.Body, name string) hcl.Expression {
	if attr, ok := body.Attributes[name]; ok {
		return attr.Expr
	}
	return nil
}
