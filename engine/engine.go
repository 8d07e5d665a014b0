// Package engine defines the interfaces a worker uses to invoke a
// compilation and the callbacks a compilation may make back into the host
// (spec §6.1). The compilation engine itself is an external collaborator —
// out of scope per spec's PURPOSE & SCOPE — so this package only defines
// the seam; engine/refengine supplies a concrete implementation used by
// this repository's own tests and as a default for the process.
//
// The split mirrors the teacher's fuseutil.FileSystem pattern: a narrow
// interface with one method per op, implemented by whatever backend is
// plugged in, and driven by a caller that never knows which backend it
// has.
package engine

import "context"

// Syntax names the grammar a stylesheet source is parsed with.
type Syntax int

const (
	SyntaxSCSS Syntax = iota
	SyntaxIndented
	SyntaxCSS
)

// OutputStyle selects the formatting of generated CSS.
type OutputStyle int

const (
	OutputStyleExpanded OutputStyle = iota
	OutputStyleCompressed
)

// Importer names where a compilation should resolve "@import"/"@use" URLs:
// directly against a base filesystem path, or by proxying canonicalize/load
// calls back through Services to the host.
type Importer struct {
	// Exactly one of these is set.
	BasePath       string
	ImporterID     *uint32
	FileImporterID *uint32
}

// StringInput is an inline stylesheet source.
type StringInput struct {
	Source   string
	Syntax   Syntax
	URL      string
	Importer *Importer
}

// PathInput names a stylesheet to read from the filesystem.
type PathInput struct {
	Path string
}

// Input is the oneof of ways a Request supplies its stylesheet. Exactly
// one field is non-nil.
type Input struct {
	String *StringInput
	Path   *PathInput
}

// Request is everything an Engine needs to run one compilation, translated
// from the wire CompileRequest (spec §4.C step 1) into the engine's own
// vocabulary.
type Request struct {
	Style                   OutputStyle
	Input                   Input
	Importers               []*Importer
	GlobalFunctions         []string
	SourceMap               bool
	SourceMapIncludeSources bool
	Charset                 bool
}

// Span locates a range of source text for a diagnostic.
type Span struct {
	Text        string
	StartLine   uint32
	StartColumn uint32
	StartOffset uint32
	EndLine     uint32
	EndColumn   uint32
	EndOffset   uint32
	URL         string
	Context     string
}

// Result is the successful outcome of a compilation.
type Result struct {
	CSS        string
	SourceMap  string
	LoadedURLs []string
}

// Failure is the outcome of a compilation that could not produce CSS. A
// Failure is not a Go error in the traditional sense — it still carries
// structured diagnostic data the worker must forward verbatim (spec §4.C
// step 4) — but it satisfies the error interface so an Engine may return
// it through the ordinary (Result, error) shape.
type Failure struct {
	Message    string
	Span       *Span
	StackTrace string
	Formatted  string
}

func (f *Failure) Error() string { return f.Message }

// NumberValue is a Sass number: a float64 magnitude with an optional unit.
type NumberValue struct {
	Value float64
	Unit  string
}

// Value is the oneof of Sass value kinds passed to or returned from a
// custom function call.
type Value struct {
	String *string
	Number *NumberValue
	IsBool bool
	Bool   bool
	IsNull bool
}

// LogLevel distinguishes the severities a compilation may log at.
type LogLevel int

const (
	LogWarning LogLevel = iota
	LogDeprecationWarning
	LogDebug
)

// LogEvent is one fire-and-forget diagnostic emitted during a compile.
type LogEvent struct {
	Level   LogLevel
	Message string
	Span    *Span

	// FromDependency is true when the event was raised while compiling a
	// stylesheet reached through an @import rather than the compilation's
	// own entry-point source. quiet_deps (spec/SPEC_FULL.md "suppresses
	// warnings attributed to dependency stylesheets") is meaningless
	// without this distinction: it must still surface a warning the
	// entry-point stylesheet raises itself.
	FromDependency bool
}

// ImportResult is the successful payload of a Load callback.
type ImportResult struct {
	Contents     string
	Syntax       Syntax
	SourceMapURL string
}

// Services is the set of blocking callbacks an Engine may invoke while
// compiling (spec §6.1). Every method may block for an arbitrary duration
// and must be called at most once at a time per compilation (the worker's
// Services implementation relies on this and does not guard against
// concurrent calls).
type Services interface {
	// Canonicalize resolves url through the named importer to a canonical
	// URL. A (nil, nil) result means "not found"; try the next importer.
	Canonicalize(ctx context.Context, importerID uint32, url string, fromImport bool) (canonicalURL *string, err error)

	// Load returns the contents behind a canonical URL previously returned
	// by Canonicalize. A (nil, nil) result means "not found".
	Load(ctx context.Context, importerID uint32, canonicalURL string) (*ImportResult, error)

	// FileImport resolves url through a file importer to a file: URL. A
	// (nil, nil) result means "not found".
	FileImport(ctx context.Context, importerID uint32, url string, fromImport bool) (fileURL *string, err error)

	// Call invokes a custom function by name or by id (exactly one of
	// name/functionID is set) with the given arguments.
	Call(ctx context.Context, name *string, functionID *uint32, args []*Value) (*Value, error)

	// Log emits a fire-and-forget diagnostic.
	Log(event LogEvent)
}

// Engine compiles a stylesheet, invoking Services for anything it cannot
// resolve on its own (imports, custom functions, logging).
type Engine interface {
	Compile(ctx context.Context, req *Request, svc Services) (*Result, error)
}
