// Package refengine implements a small arithmetic stylesheet language
// against the engine.Engine interface: flat rule blocks of
// "selector { property: expr; ... }" declarations, where expr is a sum of
// numeric literals with optional units; "@import 'url';" statements
// resolved through engine.Services the way a real Sass compiler resolves
// imports through its host; "@warn"/"@debug"/"@deprecated" directives
// that report back through engine.Services.Log, tagged with whether they
// were raised from an imported (dependency) stylesheet or the
// compilation's own entry point; and a "call(name, arg, ...)"/
// "call#id(arg, ...)" declaration-value form that routes a custom
// function invocation through engine.Services.Call, by name or by id.
//
// It exists to exercise the full worker/dispatcher callback surface
// (canonicalize, load, file-import, function-call, log) the way the
// teacher's samples/memfs exercises fuseutil.FileSystem: a minimal,
// self-contained stand-in for an external collaborator, built only on the
// standard library (see DESIGN.md's "Standard-library justifications" —
// there is no Sass-parser library in the retrieved example pack, and this
// engine's grammar is deliberately invented, not borrowed, so nothing in
// the pack could ground a dependency choice here).
package refengine

import (
	"context"
	"fmt"
	"strings"

	"github.com/sass-embedded/compiler-host/engine"
)

// Engine is the reference engine.Engine implementation.
type Engine struct{}

// New returns a ready-to-use reference engine.
func New() *Engine { return &Engine{} }

var _ engine.Engine = (*Engine)(nil)

// Compile parses req's stylesheet, resolving any @import through svc, and
// renders the result according to req.Style.
func (e *Engine) Compile(ctx context.Context, req *engine.Request, svc engine.Services) (*engine.Result, error) {
	source, url, err := resolveInput(ctx, req, svc)
	if err != nil {
		return nil, err
	}

	rules, loaded, err := parseAndExpand(ctx, source, url, req, svc, false)
	if err != nil {
		return nil, err
	}

	css := render(rules, req.Style, req.Charset)
	return &engine.Result{
		CSS:        css,
		LoadedURLs: loaded,
	}, nil
}

func resolveInput(ctx context.Context, req *engine.Request, svc engine.Services) (source, url string, err error) {
	switch {
	case req.Input.String != nil:
		return req.Input.String.Source, req.Input.String.URL, nil
	case req.Input.Path != nil:
		path := req.Input.Path.Path
		contents, ferr := readPath(path)
		if ferr != nil {
			return "", "", &engine.Failure{
				Message: ferr.Error(),
				Span:    &engine.Span{URL: "file://" + path},
			}
		}
		return contents, "file://" + path, nil
	default:
		return "", "", fmt.Errorf("refengine: request has no input set")
	}
}

// rule is one selector block with its ordered declarations.
type rule struct {
	selector string
	decls    []decl
}

type decl struct {
	property string
	value    value
}

// parseAndExpand parses source, resolving every @import statement
// encountered (depth-first, in source order) through svc, and returns the
// flattened sequence of rules plus the set of canonical URLs loaded.
// fromDependency is true while parsing any source reached through an
// @import, so log events raised here can be attributed correctly for
// quiet_deps (spec/SPEC_FULL.md); it is always true for everything
// expandImport recurses into, however deeply nested.
func parseAndExpand(ctx context.Context, source, url string, req *engine.Request, svc engine.Services, fromDependency bool) ([]rule, []string, error) {
	var rules []rule
	var loaded []string

	stmts, err := parse(source)
	if err != nil {
		return nil, nil, &engine.Failure{
			Message:   err.Error(),
			Span:      &engine.Span{URL: url},
			Formatted: fmt.Sprintf("Error: %s", err),
		}
	}

	for _, st := range stmts {
		switch s := st.(type) {
		case importStmt:
			sub, subLoaded, err := expandImport(ctx, s.url, req, svc)
			if err != nil {
				return nil, nil, err
			}
			rules = append(rules, sub...)
			loaded = append(loaded, subLoaded...)
		case logStmt:
			svc.Log(engine.LogEvent{
				Level:          logLevel(s.keyword),
				Message:        s.message,
				Span:           &engine.Span{URL: url},
				FromDependency: fromDependency,
			})
		case ruleStmt:
			decls := make([]decl, 0, len(s.decls))
			for _, d := range s.decls {
				v, err := evalDecl(ctx, d.expr, svc)
				if err != nil {
					return nil, nil, &engine.Failure{
						Message: err.Error(),
						Span:    &engine.Span{URL: url},
					}
				}
				decls = append(decls, decl{property: d.property, value: v})
			}
			rules = append(rules, rule{selector: s.selector, decls: decls})
		}
	}

	if url != "" {
		loaded = append([]string{url}, loaded...)
	}
	return rules, loaded, nil
}

// evalDecl evaluates a declaration's expression: a "call(...)"/"call#id(...)"
// custom-function invocation routed through svc.Call, or an ordinary
// numeric-sum/literal expression handled entirely locally.
func evalDecl(ctx context.Context, expr string, svc engine.Services) (value, error) {
	ce, ok := parseCallExpr(expr)
	if !ok {
		return evalExpr(expr)
	}

	args := make([]*engine.Value, 0, len(ce.args))
	for _, a := range ce.args {
		av, err := evalExpr(a)
		if err != nil {
			return value{}, err
		}
		args = append(args, toEngineValue(av))
	}

	result, err := svc.Call(ctx, ce.name, ce.functionID, args)
	if err != nil {
		return value{}, err
	}
	return fromEngineValue(result), nil
}

func toEngineValue(v value) *engine.Value {
	if v.isNumber {
		return &engine.Value{Number: &engine.NumberValue{Value: v.number, Unit: v.unit}}
	}
	literal := v.literal
	return &engine.Value{String: &literal}
}

func fromEngineValue(v *engine.Value) value {
	switch {
	case v == nil:
		return value{literal: ""}
	case v.Number != nil:
		return value{isNumber: true, number: v.Number.Value, unit: v.Number.Unit}
	case v.String != nil:
		return value{literal: *v.String}
	case v.IsBool:
		if v.Bool {
			return value{literal: "true"}
		}
		return value{literal: "false"}
	case v.IsNull:
		return value{literal: "null"}
	default:
		return value{literal: ""}
	}
}

func logLevel(keyword string) engine.LogLevel {
	switch keyword {
	case "@debug":
		return engine.LogDebug
	case "@deprecated":
		return engine.LogDeprecationWarning
	default:
		return engine.LogWarning
	}
}

func expandImport(ctx context.Context, importURL string, req *engine.Request, svc engine.Services) ([]rule, []string, error) {
	importers := req.Importers
	if len(importers) == 0 {
		return nil, nil, &engine.Failure{
			Message: fmt.Sprintf("Can't find stylesheet to import: %s", importURL),
		}
	}

	for _, im := range importers {
		contents, canonical, ok, err := loadThroughImporter(ctx, im, importURL, svc)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		return parseAndExpand(ctx, contents, canonical, req, svc, true)
	}

	return nil, nil, &engine.Failure{
		Message: fmt.Sprintf("Can't find stylesheet to import: %s", importURL),
	}
}

// loadThroughImporter resolves url through a single importer, returning
// ok=false when that importer reports "not found" (expandImport tries the
// next importer in that case, per spec §6.1's load-resolution semantics).
func loadThroughImporter(ctx context.Context, im *engine.Importer, url string, svc engine.Services) (contents, canonicalURL string, ok bool, err error) {
	switch {
	case im.BasePath != "":
		path := strings.TrimSuffix(im.BasePath, "/") + "/" + url
		text, ferr := readPath(path)
		if ferr != nil {
			return "", "", false, nil
		}
		return text, "file://" + path, true, nil

	case im.ImporterID != nil:
		canonical, cerr := svc.Canonicalize(ctx, *im.ImporterID, url, false)
		if cerr != nil {
			return "", "", false, &engine.Failure{Message: cerr.Error()}
		}
		if canonical == nil {
			return "", "", false, nil
		}
		res, lerr := svc.Load(ctx, *im.ImporterID, *canonical)
		if lerr != nil {
			return "", "", false, &engine.Failure{Message: lerr.Error()}
		}
		if res == nil {
			return "", "", false, &engine.Failure{
				Message: fmt.Sprintf("importer canonicalized %q but could not load it", url),
			}
		}
		return res.Contents, *canonical, true, nil

	case im.FileImporterID != nil:
		fileURL, ferr := svc.FileImport(ctx, *im.FileImporterID, url, false)
		if ferr != nil {
			return "", "", false, &engine.Failure{Message: ferr.Error()}
		}
		if fileURL == nil {
			return "", "", false, nil
		}
		path := strings.TrimPrefix(*fileURL, "file://")
		text, rerr := readPath(path)
		if rerr != nil {
			return "", "", false, &engine.Failure{Message: rerr.Error()}
		}
		return text, *fileURL, true, nil

	default:
		return "", "", false, fmt.Errorf("refengine: importer has no kind set")
	}
}
