// Package protocol defines the wire message types exchanged between the
// compiler host and the external host application, and the registry
// operations (Which, ID, SetID) the root dispatcher uses to route them.
//
// Field names and oneof shapes are grounded in the real Embedded Sass
// protocol, as observed through a Go client of that protocol
// (embeddedsassv1.InboundMessage / OutboundMessage): CompileRequest carries
// Importers/Style/Input, CanonicalizeRequest carries CompilationId, and so
// on. Each oneof here is represented the simple way — a struct with exactly
// one of several pointer fields set — rather than with the
// marker-interface-per-case pattern protoc-gen-go emits, since these types
// are hand-marshaled (see wire.go) and the extra indirection buys nothing
// here.
package protocol

// OutputStyle selects the formatting of generated CSS.
type OutputStyle int32

const (
	OutputStyleExpanded OutputStyle = iota
	OutputStyleCompressed
)

// Syntax selects how an input's source text is parsed.
type Syntax int32

const (
	SyntaxSCSS Syntax = iota
	SyntaxIndented
	SyntaxCSS
)

// LogEventType distinguishes the two warning levels and the plain debug
// level a worker's logger can emit (spec §4.C step 2).
type LogEventType int32

const (
	LogEventWarning LogEventType = iota
	LogEventDeprecationWarning
	LogEventDebug
)

////////////////////////////////////////////////////////////////////////////
// Inbound (host -> compiler)
////////////////////////////////////////////////////////////////////////////

// InboundMessage is the tagged union over every message the host may send.
// Exactly one field is non-nil; Which reports which one.
type InboundMessage struct {
	CompileRequest        *CompileRequest
	VersionRequest        *VersionRequest
	CanonicalizeResponse  *CanonicalizeResponse
	ImportResponse        *ImportResponse
	FileImportResponse    *FileImportResponse
	FunctionCallResponse  *FunctionCallResponse
}

// VersionRequest asks the compiler to identify itself.
type VersionRequest struct {
	ID uint32
}

// Importer is the oneof of ways a CompileRequest can name an importer:
// a direct filesystem path, or a proxy back to the host addressed by id.
type Importer struct {
	Path            *string
	ImporterID      *uint32
	FileImporterID  *uint32
}

// StringInput is an inline stylesheet source.
type StringInput struct {
	Source   string
	Syntax   Syntax
	URL      string
	Importer *Importer
}

// PathInput names a stylesheet to be read from the filesystem.
type PathInput struct {
	Path string
}

// CompileInput is the oneof of ways to supply the stylesheet to compile.
type CompileInput struct {
	String *StringInput
	Path   *PathInput
}

// GlobalFunction is one custom-function signature declared for a compile,
// e.g. "my-func($arg)".
type GlobalFunction string

// CompileRequest starts a new compilation (spec §4.C step 1).
type CompileRequest struct {
	ID                      uint32
	Importers               []*Importer
	Style                   OutputStyle
	Input                   CompileInput
	GlobalFunctions         []GlobalFunction
	AlertColor              bool
	AlertAscii              bool
	QuietDeps               bool
	Verbose                 bool
	SourceMap               bool
	SourceMapIncludeSources bool
	Charset                 bool
}

// CanonicalizeResponse answers an outstanding CanonicalizeRequest.
type CanonicalizeResponse struct {
	ID     uint32
	URL    *string // nil means "not found"
	Error  *string
}

// ImportSuccess is the successful payload of an ImportResponse.
type ImportSuccess struct {
	Contents     string
	Syntax       Syntax
	SourceMapURL string
}

// ImportResponse answers an outstanding ImportRequest.
type ImportResponse struct {
	ID      uint32
	Success *ImportSuccess
	Error   *string
}

// FileImportResponse answers an outstanding FileImportRequest.
type FileImportResponse struct {
	ID       uint32
	FileURL  *string
	Error    *string
}

// FunctionCallResponse answers an outstanding FunctionCallRequest.
type FunctionCallResponse struct {
	ID      uint32
	Success *Value
	Error   *string
}

////////////////////////////////////////////////////////////////////////////
// Outbound (compiler -> host)
////////////////////////////////////////////////////////////////////////////

// OutboundMessage is the tagged union over every message the compiler may
// send. Exactly one field is non-nil; Which reports which one.
type OutboundMessage struct {
	CompileResponse      *CompileResponse
	VersionResponse      *VersionResponse
	LogEvent             *LogEvent
	CanonicalizeRequest  *CanonicalizeRequest
	ImportRequest        *ImportRequest
	FunctionCallRequest  *FunctionCallRequest
	FileImportRequest    *FileImportRequest
	Error                *ProtocolError
}

// VersionResponse answers a VersionRequest with build-time constants.
type VersionResponse struct {
	ID                     uint32
	ProtocolVersion        string
	CompilerVersion        string
	ImplementationVersion  string
	ImplementationName     string
}

// SourceSpan locates a range of source text for diagnostics.
type SourceSpan struct {
	Text          string
	StartLine     uint32
	StartColumn   uint32
	StartOffset   uint32
	EndLine       uint32
	EndColumn     uint32
	EndOffset     uint32
	URL           string
	Context       string
}

// CompileFailure is the unsuccessful payload of a CompileResponse.
type CompileFailure struct {
	Message    string
	Span       *SourceSpan
	StackTrace string
	Formatted  string
}

// CompileSuccess is the successful payload of a CompileResponse.
type CompileSuccess struct {
	CSS        string
	SourceMap  string // empty if not requested
	LoadedURLs []string
}

// CompileResponse reports the result of a compilation.
type CompileResponse struct {
	ID      uint32
	Success *CompileSuccess
	Failure *CompileFailure
}

// LogEvent is a fire-and-forget diagnostic emitted during a compile (spec
// §4.C step 2). It is not a request/response message and carries no
// outstanding-table id; CompilationID identifies the originating worker.
type LogEvent struct {
	CompilationID uint32
	Type          LogEventType
	Message       string
	Formatted     string
	Span          *SourceSpan
}

// CanonicalizeRequest asks the host to resolve an import URL through one of
// its importers.
type CanonicalizeRequest struct {
	ID            uint32
	CompilationID uint32
	ImporterID    uint32
	URL           string
	FromImport    bool
}

// ImportRequest asks the host to load the contents behind a canonical URL.
type ImportRequest struct {
	ID            uint32
	CompilationID uint32
	ImporterID    uint32
	URL           string
}

// FileImportRequest asks a file importer to resolve a URL to a file: URL.
type FileImportRequest struct {
	ID             uint32
	CompilationID  uint32
	ImporterID     uint32
	URL            string
	FromImport     bool
}

// FunctionCallRequest invokes a custom function registered by the host.
//
// Exactly one of Name or FunctionID identifies which function to call.
type FunctionCallRequest struct {
	ID            uint32
	CompilationID uint32
	Name          *string
	FunctionID    *uint32
	Arguments     []*Value
}

////////////////////////////////////////////////////////////////////////////
// Values (arguments/return values for custom functions)
////////////////////////////////////////////////////////////////////////////

// NumberValue is a Sass number: a float64 magnitude with an optional unit
// (e.g. "px", "em"). This is a deliberately small subset of the real
// protocol's number representation (which also carries numerator/
// denominator unit lists for compound units).
type NumberValue struct {
	Value float64
	Unit  string
}

// Value is the oneof of Sass value kinds a custom function can receive or
// return. Only the handful of kinds SPEC_FULL.md's reference engine and
// wire tests need are represented; exactly one field is non-nil, except
// for Null and Boolean which are represented by dedicated flags because
// Go has no natural "non-nil bool pointer that's always present" idiom
// worth adding indirection for.
type Value struct {
	String  *string
	Number  *NumberValue
	IsBool  bool
	Bool    bool
	IsNull  bool
}
