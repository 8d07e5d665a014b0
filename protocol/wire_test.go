package protocol

import (
	"testing"

	"github.com/kylelemons/godebug/pretty"
)

func strp(s string) *string { return &s }
func u32p(v uint32) *uint32 { return &v }

func TestInboundRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		msg  *InboundMessage
	}{
		{
			name: "version request",
			msg:  &InboundMessage{VersionRequest: &VersionRequest{ID: 9}},
		},
		{
			name: "compile request with string input",
			msg: &InboundMessage{CompileRequest: &CompileRequest{
				ID:    1,
				Style: OutputStyleCompressed,
				Input: CompileInput{String: &StringInput{
					Source: "a{b: 1px + 2px}",
					Syntax: SyntaxSCSS,
					URL:    "stdin",
					Importer: &Importer{
						ImporterID: u32p(4),
					},
				}},
				GlobalFunctions: []GlobalFunction{"double($n)"},
				Verbose:         true,
				Charset:         true,
			}},
		},
		{
			name: "compile request with path input",
			msg: &InboundMessage{CompileRequest: &CompileRequest{
				ID:    2,
				Input: CompileInput{Path: &PathInput{Path: "/tmp/style.scss"}},
				Importers: []*Importer{
					{Path: strp("/tmp")},
					{FileImporterID: u32p(7)},
				},
			}},
		},
		{
			name: "canonicalize response found",
			msg: &InboundMessage{CanonicalizeResponse: &CanonicalizeResponse{
				ID:  3,
				URL: strp("file:///tmp/x.scss"),
			}},
		},
		{
			name: "canonicalize response error",
			msg: &InboundMessage{CanonicalizeResponse: &CanonicalizeResponse{
				ID:    3,
				Error: strp("not found"),
			}},
		},
		{
			name: "import response success",
			msg: &InboundMessage{ImportResponse: &ImportResponse{
				ID: 5,
				Success: &ImportSuccess{
					Contents: "a{b:1px}",
					Syntax:   SyntaxCSS,
				},
			}},
		},
		{
			name: "file import response",
			msg: &InboundMessage{FileImportResponse: &FileImportResponse{
				ID:      6,
				FileURL: strp("file:///tmp/x.scss"),
			}},
		},
		{
			name: "function call response by value",
			msg: &InboundMessage{FunctionCallResponse: &FunctionCallResponse{
				ID: 8,
				Success: &Value{Number: &NumberValue{Value: 3, Unit: "px"}},
			}},
		},
		{
			name: "function call response boolean false",
			msg: &InboundMessage{FunctionCallResponse: &FunctionCallResponse{
				ID:      9,
				Success: &Value{IsBool: true, Bool: false},
			}},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b, err := MarshalInbound(c.msg)
			if err != nil {
				t.Fatalf("MarshalInbound: %v", err)
			}
			got, err := UnmarshalInbound(b)
			if err != nil {
				t.Fatalf("UnmarshalInbound: %v", err)
			}
			if diff := pretty.Compare(c.msg, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOutboundRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		msg  *OutboundMessage
	}{
		{
			name: "version response",
			msg: &OutboundMessage{VersionResponse: &VersionResponse{
				ID:                    0,
				ProtocolVersion:       "1.0.0",
				CompilerVersion:       "0.1.0",
				ImplementationVersion: "0.1.0",
				ImplementationName:    "arith-sass",
			}},
		},
		{
			name: "compile response success",
			msg: &OutboundMessage{CompileResponse: &CompileResponse{
				ID: 1,
				Success: &CompileSuccess{
					CSS:        "a {\n  b: 3px;\n}\n",
					LoadedURLs: []string{"stdin"},
				},
			}},
		},
		{
			name: "compile response failure",
			msg: &OutboundMessage{CompileResponse: &CompileResponse{
				ID: 2,
				Failure: &CompileFailure{
					Message: "unexpected token",
					Span: &SourceSpan{
						Text:      "}",
						StartLine: 3,
						URL:       "stdin",
					},
					Formatted: "Error: unexpected token",
				},
			}},
		},
		{
			name: "log event",
			msg: &OutboundMessage{LogEvent: &LogEvent{
				CompilationID: 1,
				Type:          LogEventDeprecationWarning,
				Message:       "division operator",
			}},
		},
		{
			name: "canonicalize request",
			msg: &OutboundMessage{CanonicalizeRequest: &CanonicalizeRequest{
				ID:            10,
				CompilationID: 1,
				ImporterID:    4,
				URL:           "util",
				FromImport:    true,
			}},
		},
		{
			name: "import request",
			msg: &OutboundMessage{ImportRequest: &ImportRequest{
				ID:            11,
				CompilationID: 1,
				ImporterID:    4,
				URL:           "file:///tmp/util.scss",
			}},
		},
		{
			name: "function call request by name",
			msg: &OutboundMessage{FunctionCallRequest: &FunctionCallRequest{
				ID:            12,
				CompilationID: 1,
				Name:          strp("double"),
				Arguments:     []*Value{{Number: &NumberValue{Value: 2}}},
			}},
		},
		{
			name: "function call request by id",
			msg: &OutboundMessage{FunctionCallRequest: &FunctionCallRequest{
				ID:            13,
				CompilationID: 1,
				FunctionID:    u32p(2),
			}},
		},
		{
			name: "file import request",
			msg: &OutboundMessage{FileImportRequest: &FileImportRequest{
				ID:            14,
				CompilationID: 1,
				ImporterID:    7,
				URL:           "util",
			}},
		},
		{
			name: "protocol error",
			msg: &OutboundMessage{Error: &ProtocolError{
				ID:      NoRequestID,
				Type:    ErrorParse,
				Message: "invalid varint",
			}},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b, err := MarshalOutbound(c.msg)
			if err != nil {
				t.Fatalf("MarshalOutbound: %v", err)
			}
			got, err := UnmarshalOutbound(b)
			if err != nil {
				t.Fatalf("UnmarshalOutbound: %v", err)
			}
			if diff := pretty.Compare(c.msg, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMarshalEmptyMessageFails(t *testing.T) {
	if _, err := MarshalInbound(&InboundMessage{}); err == nil {
		t.Error("expected error marshaling empty InboundMessage")
	}
	if _, err := MarshalOutbound(&OutboundMessage{}); err == nil {
		t.Error("expected error marshaling empty OutboundMessage")
	}
}

func TestMarshalCompileRequestMissingInputFails(t *testing.T) {
	_, err := MarshalInbound(&InboundMessage{CompileRequest: &CompileRequest{ID: 1}})
	if err == nil {
		t.Error("expected error marshaling a CompileRequest with no input set")
	}
}

func TestMarshalFunctionCallRequestMissingIdentifierFails(t *testing.T) {
	_, err := MarshalOutbound(&OutboundMessage{FunctionCallRequest: &FunctionCallRequest{ID: 1, CompilationID: 1}})
	if err == nil {
		t.Error("expected error marshaling a FunctionCallRequest with neither name nor id set")
	}
}
