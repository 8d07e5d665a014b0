package worker

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jacobsa/timeutil"

	"github.com/sass-embedded/compiler-host/engine"
	"github.com/sass-embedded/compiler-host/engine/refengine"
	"github.com/sass-embedded/compiler-host/protocol"
)

// panickingEngine simulates an engine bug surfacing as a Go panic, to
// exercise Worker.runEngine's recovery path.
type panickingEngine struct{}

func (panickingEngine) Compile(ctx context.Context, req *engine.Request, svc engine.Services) (*engine.Result, error) {
	panic("simulated engine crash")
}

func TestWorkerCompileSimple(t *testing.T) {
	w := New(1, refengine.New(), timeutil.RealClock())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	src := "a {b: 1px + 2px}"
	w.Inbound <- &protocol.InboundMessage{CompileRequest: &protocol.CompileRequest{
		ID:    1,
		Input: protocol.CompileInput{String: &protocol.StringInput{Source: src}},
	}}

	select {
	case out := <-w.Outbound:
		if out.CompileResponse == nil {
			t.Fatalf("expected a CompileResponse, got %#v", out)
		}
		if out.CompileResponse.Success == nil {
			t.Fatalf("expected success, got failure: %#v", out.CompileResponse.Failure)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for CompileResponse")
	}
}

func TestWorkerCompileWithImportCallback(t *testing.T) {
	w := New(2, refengine.New(), timeutil.RealClock())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	importerID := uint32(0)
	w.Inbound <- &protocol.InboundMessage{CompileRequest: &protocol.CompileRequest{
		ID:        2,
		Input:     protocol.CompileInput{String: &protocol.StringInput{Source: "@import 'x';"}},
		Importers: []*protocol.Importer{{ImporterID: &importerID}},
	}}

	// Simulate the dispatcher's half of the round trip: the worker issues
	// a CanonicalizeRequest, then an ImportRequest, each of which this test
	// answers directly on the worker's channels the way the root
	// dispatcher would after routing through the host.
	msg := <-w.Outbound
	if msg.CanonicalizeRequest == nil {
		t.Fatalf("expected a CanonicalizeRequest, got %#v", msg)
	}
	if msg.CanonicalizeRequest.URL != "x" {
		t.Errorf("CanonicalizeRequest.URL = %q, want %q", msg.CanonicalizeRequest.URL, "x")
	}
	url := "u:x"
	w.Inbound <- &protocol.InboundMessage{CanonicalizeResponse: &protocol.CanonicalizeResponse{URL: &url}}

	msg = <-w.Outbound
	if msg.ImportRequest == nil {
		t.Fatalf("expected an ImportRequest, got %#v", msg)
	}
	if msg.ImportRequest.URL != "u:x" {
		t.Errorf("ImportRequest.URL = %q, want %q", msg.ImportRequest.URL, "u:x")
	}
	w.Inbound <- &protocol.InboundMessage{ImportResponse: &protocol.ImportResponse{
		Success: &protocol.ImportSuccess{Contents: "c{d:1}"},
	}}

	select {
	case out := <-w.Outbound:
		if out.CompileResponse == nil {
			t.Fatalf("expected a CompileResponse, got %#v", out)
		}
		if out.CompileResponse.Success == nil {
			t.Fatalf("expected success, got failure: %#v", out.CompileResponse.Failure)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for CompileResponse")
	}
}

func TestWorkerRecoversEnginePanic(t *testing.T) {
	w := New(4, panickingEngine{}, timeutil.RealClock())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Inbound <- &protocol.InboundMessage{CompileRequest: &protocol.CompileRequest{
		ID:    4,
		Input: protocol.CompileInput{String: &protocol.StringInput{Source: "a {b: 1px}"}},
	}}

	select {
	case out := <-w.Outbound:
		if out.CompileResponse == nil || out.CompileResponse.Failure == nil {
			t.Fatalf("expected a Failure CompileResponse, got %#v", out)
		}
		if !strings.Contains(out.CompileResponse.Failure.Message, "simulated engine crash") {
			t.Errorf("Failure.Message = %q, want it to mention the panic value", out.CompileResponse.Failure.Message)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for CompileResponse")
	}

	// The worker's goroutine must survive the panic so the pool can still
	// reuse it for a later compilation.
	w.Inbound <- &protocol.InboundMessage{CompileRequest: &protocol.CompileRequest{
		ID:    5,
		Input: protocol.CompileInput{String: &protocol.StringInput{Source: "a {b: 1px}"}},
	}}
	select {
	case out := <-w.Outbound:
		if out.CompileResponse == nil {
			t.Fatalf("expected a CompileResponse after recovery, got %#v", out)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for worker to serve a compile after recovering from a panic")
	}
}

func TestWorkerFunctionCallByName(t *testing.T) {
	w := New(6, refengine.New(), timeutil.RealClock())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Inbound <- &protocol.InboundMessage{CompileRequest: &protocol.CompileRequest{
		ID:    6,
		Input: protocol.CompileInput{String: &protocol.StringInput{Source: "a {b: call(double, 21px)}"}},
	}}

	msg := <-w.Outbound
	if msg.FunctionCallRequest == nil {
		t.Fatalf("expected a FunctionCallRequest, got %#v", msg)
	}
	req := msg.FunctionCallRequest
	if req.Name == nil || *req.Name != "double" {
		t.Fatalf("FunctionCallRequest.Name = %v, want %q", req.Name, "double")
	}
	if req.FunctionID != nil {
		t.Errorf("FunctionCallRequest.FunctionID = %v, want nil for a by-name call", req.FunctionID)
	}
	if len(req.Arguments) != 1 || req.Arguments[0].Number == nil || req.Arguments[0].Number.Value != 21 || req.Arguments[0].Number.Unit != "px" {
		t.Fatalf("FunctionCallRequest.Arguments = %#v, want a single 21px numeric argument", req.Arguments)
	}

	result := float64(42)
	w.Inbound <- &protocol.InboundMessage{FunctionCallResponse: &protocol.FunctionCallResponse{
		Success: &protocol.Value{Number: &protocol.NumberValue{Value: result, Unit: "px"}},
	}}

	select {
	case out := <-w.Outbound:
		if out.CompileResponse == nil || out.CompileResponse.Success == nil {
			t.Fatalf("expected a successful CompileResponse, got %#v", out)
		}
		if !strings.Contains(out.CompileResponse.Success.CSS, "b: 42px;") {
			t.Errorf("CSS = %q, want it to contain the translated return value %q", out.CompileResponse.Success.CSS, "b: 42px;")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for CompileResponse")
	}
}

func TestWorkerFunctionCallByID(t *testing.T) {
	w := New(7, refengine.New(), timeutil.RealClock())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Inbound <- &protocol.InboundMessage{CompileRequest: &protocol.CompileRequest{
		ID:    7,
		Input: protocol.CompileInput{String: &protocol.StringInput{Source: "a {b: call#7()}"}},
	}}

	msg := <-w.Outbound
	if msg.FunctionCallRequest == nil {
		t.Fatalf("expected a FunctionCallRequest, got %#v", msg)
	}
	req := msg.FunctionCallRequest
	if req.Name != nil {
		t.Errorf("FunctionCallRequest.Name = %v, want nil for a by-id call", req.Name)
	}
	if req.FunctionID == nil || *req.FunctionID != 7 {
		t.Fatalf("FunctionCallRequest.FunctionID = %v, want 7", req.FunctionID)
	}
	if len(req.Arguments) != 0 {
		t.Errorf("FunctionCallRequest.Arguments = %#v, want none", req.Arguments)
	}

	w.Inbound <- &protocol.InboundMessage{FunctionCallResponse: &protocol.FunctionCallResponse{
		Success: &protocol.Value{IsBool: true, Bool: true},
	}}

	select {
	case out := <-w.Outbound:
		if out.CompileResponse == nil || out.CompileResponse.Success == nil {
			t.Fatalf("expected a successful CompileResponse, got %#v", out)
		}
		if !strings.Contains(out.CompileResponse.Success.CSS, "b: true;") {
			t.Errorf("CSS = %q, want it to contain the translated boolean return value %q", out.CompileResponse.Success.CSS, "b: true;")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for CompileResponse")
	}
}

func TestWorkerMissingPathFailure(t *testing.T) {
	w := New(3, refengine.New(), timeutil.RealClock())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Inbound <- &protocol.InboundMessage{CompileRequest: &protocol.CompileRequest{
		ID:    3,
		Input: protocol.CompileInput{Path: &protocol.PathInput{Path: "/nonexistent/path.scss"}},
	}}

	select {
	case out := <-w.Outbound:
		if out.CompileResponse == nil || out.CompileResponse.Failure == nil {
			t.Fatalf("expected a Failure CompileResponse, got %#v", out)
		}
		f := out.CompileResponse.Failure
		if f.Span == nil || f.Span.URL != "file:///nonexistent/path.scss" {
			t.Errorf("Failure.Span = %#v, want a zero-location span with a file: URL", f.Span)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for CompileResponse")
	}
}
