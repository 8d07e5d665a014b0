package worker

import (
	"github.com/sass-embedded/compiler-host/engine"
	"github.com/sass-embedded/compiler-host/protocol"
)

func wireSyntaxToEngine(s protocol.Syntax) engine.Syntax {
	switch s {
	case protocol.SyntaxIndented:
		return engine.SyntaxIndented
	case protocol.SyntaxCSS:
		return engine.SyntaxCSS
	default:
		return engine.SyntaxSCSS
	}
}

func wireStyleToEngine(s protocol.OutputStyle) engine.OutputStyle {
	if s == protocol.OutputStyleCompressed {
		return engine.OutputStyleCompressed
	}
	return engine.OutputStyleExpanded
}

func wireImporterToEngine(im *protocol.Importer) *engine.Importer {
	out := &engine.Importer{}
	switch {
	case im.Path != nil:
		out.BasePath = *im.Path
	case im.ImporterID != nil:
		out.ImporterID = im.ImporterID
	case im.FileImporterID != nil:
		out.FileImporterID = im.FileImporterID
	}
	return out
}

func wireValueToEngine(v *protocol.Value) *engine.Value {
	if v == nil {
		return nil
	}
	out := &engine.Value{
		String: v.String,
		IsBool: v.IsBool,
		Bool:   v.Bool,
		IsNull: v.IsNull,
	}
	if v.Number != nil {
		out.Number = &engine.NumberValue{Value: v.Number.Value, Unit: v.Number.Unit}
	}
	return out
}

func engineValueToWire(v *engine.Value) *protocol.Value {
	if v == nil {
		return nil
	}
	out := &protocol.Value{
		String: v.String,
		IsBool: v.IsBool,
		Bool:   v.Bool,
		IsNull: v.IsNull,
	}
	if v.Number != nil {
		out.Number = &protocol.NumberValue{Value: v.Number.Value, Unit: v.Number.Unit}
	}
	return out
}

func engineSpanToWire(s *engine.Span) *protocol.SourceSpan {
	if s == nil {
		return nil
	}
	return &protocol.SourceSpan{
		Text:        s.Text,
		StartLine:   s.StartLine,
		StartColumn: s.StartColumn,
		StartOffset: s.StartOffset,
		EndLine:     s.EndLine,
		EndColumn:   s.EndColumn,
		EndOffset:   s.EndOffset,
		URL:         s.URL,
		Context:     s.Context,
	}
}

// buildEngineRequest translates a wire CompileRequest into the vocabulary
// engine.Engine speaks (spec §4.C step 1).
func buildEngineRequest(r *protocol.CompileRequest) *engine.Request {
	req := &engine.Request{
		Style:                   wireStyleToEngine(r.Style),
		SourceMap:               r.SourceMap,
		SourceMapIncludeSources: r.SourceMapIncludeSources,
		Charset:                 r.Charset,
	}
	for _, im := range r.Importers {
		req.Importers = append(req.Importers, wireImporterToEngine(im))
	}
	for _, f := range r.GlobalFunctions {
		req.GlobalFunctions = append(req.GlobalFunctions, string(f))
	}
	switch {
	case r.Input.String != nil:
		s := r.Input.String
		si := &engine.StringInput{
			Source: s.Source,
			Syntax: wireSyntaxToEngine(s.Syntax),
			URL:    s.URL,
		}
		if s.Importer != nil {
			si.Importer = wireImporterToEngine(s.Importer)
		}
		req.Input.String = si
	case r.Input.Path != nil:
		req.Input.Path = &engine.PathInput{Path: r.Input.Path.Path}
	}
	return req
}
