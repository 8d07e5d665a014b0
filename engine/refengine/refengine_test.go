package refengine

import (
	"context"
	"strings"
	"testing"

	"github.com/sass-embedded/compiler-host/engine"
)

// fakeServices is a minimal engine.Services double for tests: it answers
// canonicalize/load for one fixed URL, answers custom function calls by
// name or id, and records every Log/Call invocation.
type fakeServices struct {
	canonical map[string]string
	contents  map[string]string
	logs      []engine.LogEvent

	callsByName map[string]*engine.Value
	callsByID   map[uint32]*engine.Value
	calls       []callRecord
}

type callRecord struct {
	name       *string
	functionID *uint32
	args       []*engine.Value
}

func (f *fakeServices) Canonicalize(ctx context.Context, importerID uint32, url string, fromImport bool) (*string, error) {
	c, ok := f.canonical[url]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *fakeServices) Load(ctx context.Context, importerID uint32, canonicalURL string) (*engine.ImportResult, error) {
	c, ok := f.contents[canonicalURL]
	if !ok {
		return nil, nil
	}
	return &engine.ImportResult{Contents: c}, nil
}

func (f *fakeServices) FileImport(ctx context.Context, importerID uint32, url string, fromImport bool) (*string, error) {
	return nil, nil
}

func (f *fakeServices) Call(ctx context.Context, name *string, functionID *uint32, args []*engine.Value) (*engine.Value, error) {
	f.calls = append(f.calls, callRecord{name: name, functionID: functionID, args: args})
	if name != nil {
		if v, ok := f.callsByName[*name]; ok {
			return v, nil
		}
	}
	if functionID != nil {
		if v, ok := f.callsByID[*functionID]; ok {
			return v, nil
		}
	}
	return nil, nil
}

func (f *fakeServices) Log(event engine.LogEvent) {
	f.logs = append(f.logs, event)
}

func TestCompileArithmeticSum(t *testing.T) {
	req := &engine.Request{
		Input: engine.Input{String: &engine.StringInput{Source: "a {b: 1px + 2px}"}},
	}
	res, err := New().Compile(context.Background(), req, &fakeServices{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(res.CSS, "b: 3px;") {
		t.Errorf("CSS = %q, want it to contain %q", res.CSS, "b: 3px;")
	}
	if !strings.Contains(res.CSS, "a {") {
		t.Errorf("CSS = %q, want selector %q", res.CSS, "a {")
	}
}

func TestCompileImport(t *testing.T) {
	svc := &fakeServices{
		canonical: map[string]string{"x": "u:x"},
		contents:  map[string]string{"u:x": "c{d:1}"},
	}
	id := uint32(0)
	req := &engine.Request{
		Input:     engine.Input{String: &engine.StringInput{Source: "@import 'x';"}},
		Importers: []*engine.Importer{{ImporterID: &id}},
	}
	res, err := New().Compile(context.Background(), req, svc)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(res.CSS, "c {") || !strings.Contains(res.CSS, "d: 1;") {
		t.Errorf("CSS = %q, want compiled contents of the imported stylesheet", res.CSS)
	}

	found := false
	for _, u := range res.LoadedURLs {
		if u == "u:x" {
			found = true
		}
	}
	if !found {
		t.Errorf("LoadedURLs = %v, want it to include %q", res.LoadedURLs, "u:x")
	}
}

func TestCompileImportNotFound(t *testing.T) {
	id := uint32(0)
	req := &engine.Request{
		Input:     engine.Input{String: &engine.StringInput{Source: "@import 'missing';"}},
		Importers: []*engine.Importer{{ImporterID: &id}},
	}
	_, err := New().Compile(context.Background(), req, &fakeServices{})
	if err == nil {
		t.Fatal("expected an error for an unresolvable import")
	}
	if _, ok := err.(*engine.Failure); !ok {
		t.Errorf("error type = %T, want *engine.Failure", err)
	}
}

func TestCompileMalformedSource(t *testing.T) {
	req := &engine.Request{
		Input: engine.Input{String: &engine.StringInput{Source: "a { b: 1px"}},
	}
	_, err := New().Compile(context.Background(), req, &fakeServices{})
	if err == nil {
		t.Fatal("expected a parse error for an unterminated rule")
	}
}

func TestCompileWarnFromEntryPoint(t *testing.T) {
	req := &engine.Request{
		Input: engine.Input{String: &engine.StringInput{Source: "@warn 'careful';\na {b: 1px}"}},
	}
	svc := &fakeServices{}
	if _, err := New().Compile(context.Background(), req, svc); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(svc.logs) != 1 {
		t.Fatalf("logs = %#v, want exactly one", svc.logs)
	}
	got := svc.logs[0]
	if got.Level != engine.LogWarning || got.Message != "careful" || got.FromDependency {
		t.Errorf("log event = %#v, want an entry-point LogWarning %q", got, "careful")
	}
}

func TestCompileDeprecationFromDependencyIsTagged(t *testing.T) {
	svc := &fakeServices{
		canonical: map[string]string{"x": "u:x"},
		contents:  map[string]string{"u:x": "@deprecated 'old feature';\nc{d:1}"},
	}
	id := uint32(0)
	req := &engine.Request{
		Input:     engine.Input{String: &engine.StringInput{Source: "@import 'x';"}},
		Importers: []*engine.Importer{{ImporterID: &id}},
	}
	if _, err := New().Compile(context.Background(), req, svc); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(svc.logs) != 1 {
		t.Fatalf("logs = %#v, want exactly one", svc.logs)
	}
	got := svc.logs[0]
	if got.Level != engine.LogDeprecationWarning || !got.FromDependency {
		t.Errorf("log event = %#v, want a dependency-attributed LogDeprecationWarning", got)
	}
}

func TestCompileDebugDirective(t *testing.T) {
	req := &engine.Request{
		Input: engine.Input{String: &engine.StringInput{Source: "@debug 'checkpoint';"}},
	}
	svc := &fakeServices{}
	if _, err := New().Compile(context.Background(), req, svc); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(svc.logs) != 1 || svc.logs[0].Level != engine.LogDebug || svc.logs[0].Message != "checkpoint" {
		t.Fatalf("logs = %#v, want a single Debug event %q", svc.logs, "checkpoint")
	}
}

func TestCompileCharsetPrependedForNonASCII(t *testing.T) {
	req := &engine.Request{
		Charset: true,
		Input:   engine.Input{String: &engine.StringInput{Source: "a {content: 'é'}"}},
	}
	res, err := New().Compile(context.Background(), req, &fakeServices{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.HasPrefix(res.CSS, `@charset "UTF-8";`+"\n") {
		t.Errorf("CSS = %q, want it to start with an @charset rule", res.CSS)
	}
}

func TestCompileCharsetOmittedForASCII(t *testing.T) {
	req := &engine.Request{
		Charset: true,
		Input:   engine.Input{String: &engine.StringInput{Source: "a {b: 1px}"}},
	}
	res, err := New().Compile(context.Background(), req, &fakeServices{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if strings.Contains(res.CSS, "@charset") {
		t.Errorf("CSS = %q, want no @charset rule for ASCII-only output", res.CSS)
	}
}

func TestCompileCharsetUsesBOMWhenCompressed(t *testing.T) {
	req := &engine.Request{
		Charset: true,
		Style:   engine.OutputStyleCompressed,
		Input:   engine.Input{String: &engine.StringInput{Source: "a {content: 'é'}"}},
	}
	res, err := New().Compile(context.Background(), req, &fakeServices{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.HasPrefix(res.CSS, "\xef\xbb\xbf") {
		t.Errorf("CSS = %q, want it to start with a UTF-8 BOM", res.CSS)
	}
	if strings.Contains(res.CSS, "@charset") {
		t.Errorf("CSS = %q, compressed style should use a BOM, not an @charset rule", res.CSS)
	}
}

func TestCompileCharsetFlagOffLeavesNonASCIIAlone(t *testing.T) {
	req := &engine.Request{
		Input: engine.Input{String: &engine.StringInput{Source: "a {content: 'é'}"}},
	}
	res, err := New().Compile(context.Background(), req, &fakeServices{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if strings.Contains(res.CSS, "@charset") || strings.HasPrefix(res.CSS, "\xef\xbb\xbf") {
		t.Errorf("CSS = %q, want no charset marker when req.Charset is false", res.CSS)
	}
}

func TestCompileFunctionCallByName(t *testing.T) {
	result := &engine.Value{Number: &engine.NumberValue{Value: 42, Unit: "px"}}
	svc := &fakeServices{callsByName: map[string]*engine.Value{"double": result}}
	req := &engine.Request{
		Input: engine.Input{String: &engine.StringInput{Source: "a {b: call(double, 21px)}"}},
	}
	res, err := New().Compile(context.Background(), req, svc)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(res.CSS, "b: 42px;") {
		t.Errorf("CSS = %q, want it to contain the function's translated result %q", res.CSS, "b: 42px;")
	}
	if len(svc.calls) != 1 || svc.calls[0].name == nil || *svc.calls[0].name != "double" {
		t.Fatalf("calls = %#v, want exactly one by-name call to %q", svc.calls, "double")
	}
	if len(svc.calls[0].args) != 1 || svc.calls[0].args[0].Number == nil || svc.calls[0].args[0].Number.Value != 21 {
		t.Errorf("call args = %#v, want a single 21px numeric argument", svc.calls[0].args)
	}
}

func TestCompileFunctionCallByID(t *testing.T) {
	result := &engine.Value{IsBool: true, Bool: true}
	id := uint32(7)
	svc := &fakeServices{callsByID: map[uint32]*engine.Value{7: result}}
	req := &engine.Request{
		Input: engine.Input{String: &engine.StringInput{Source: "a {b: call#7()}"}},
	}
	res, err := New().Compile(context.Background(), req, svc)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(res.CSS, "b: true;") {
		t.Errorf("CSS = %q, want the translated boolean result %q", res.CSS, "b: true;")
	}
	if len(svc.calls) != 1 || svc.calls[0].functionID == nil || *svc.calls[0].functionID != id {
		t.Fatalf("calls = %#v, want exactly one by-id call to %d", svc.calls, id)
	}
}

func TestCompileCompressedStyle(t *testing.T) {
	req := &engine.Request{
		Style: engine.OutputStyleCompressed,
		Input: engine.Input{String: &engine.StringInput{Source: "a {b: 1px + 2px}"}},
	}
	res, err := New().Compile(context.Background(), req, &fakeServices{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.CSS != "a{b:3px}" {
		t.Errorf("CSS = %q, want %q", res.CSS, "a{b:3px}")
	}
}
