package worker

import (
	"context"
	"fmt"

	"github.com/sass-embedded/compiler-host/engine"
	"github.com/sass-embedded/compiler-host/protocol"
)

// workerServices bridges engine.Services to the worker's outbound/inbound
// channel pair. Each method builds the matching outbound request, sends it
// (spec §4.C step 3a/3b — the dispatcher assigns the outbound id, not the
// worker), and blocks on the worker's inbound channel for the answering
// response (step 3c), translating a Failure subfield into a Go error
// (step 3d). Because every method here runs to completion before the next
// one is called — the engine never issues two outstanding callbacks from
// one compilation at a time (spec §9) — a single shared channel pair is
// enough to enforce the "strictly sequential" invariant of §4.C without
// any additional locking.
type workerServices struct {
	compilationID uint32
	outbound      chan<- *protocol.OutboundMessage
	inbound       <-chan *protocol.InboundMessage
	logger        *compileLogger
}

var _ engine.Services = (*workerServices)(nil)

func (s *workerServices) Canonicalize(ctx context.Context, importerID uint32, url string, fromImport bool) (*string, error) {
	s.outbound <- &protocol.OutboundMessage{CanonicalizeRequest: &protocol.CanonicalizeRequest{
		CompilationID: s.compilationID,
		ImporterID:    importerID,
		URL:           url,
		FromImport:    fromImport,
	}}

	in, ok := s.await(ctx)
	if !ok {
		return nil, ctx.Err()
	}
	resp := in.CanonicalizeResponse
	if resp == nil {
		return nil, fmt.Errorf("expected a CanonicalizeResponse, got %v", protocol.WhichInbound(in))
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%s", *resp.Error)
	}
	return resp.URL, nil
}

func (s *workerServices) Load(ctx context.Context, importerID uint32, canonicalURL string) (*engine.ImportResult, error) {
	s.outbound <- &protocol.OutboundMessage{ImportRequest: &protocol.ImportRequest{
		CompilationID: s.compilationID,
		ImporterID:    importerID,
		URL:           canonicalURL,
	}}

	in, ok := s.await(ctx)
	if !ok {
		return nil, ctx.Err()
	}
	resp := in.ImportResponse
	if resp == nil {
		return nil, fmt.Errorf("expected an ImportResponse, got %v", protocol.WhichInbound(in))
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%s", *resp.Error)
	}
	if resp.Success == nil {
		return nil, nil
	}
	return &engine.ImportResult{
		Contents:     resp.Success.Contents,
		Syntax:       wireSyntaxToEngine(resp.Success.Syntax),
		SourceMapURL: resp.Success.SourceMapURL,
	}, nil
}

func (s *workerServices) FileImport(ctx context.Context, importerID uint32, url string, fromImport bool) (*string, error) {
	s.outbound <- &protocol.OutboundMessage{FileImportRequest: &protocol.FileImportRequest{
		CompilationID: s.compilationID,
		ImporterID:    importerID,
		URL:           url,
		FromImport:    fromImport,
	}}

	in, ok := s.await(ctx)
	if !ok {
		return nil, ctx.Err()
	}
	resp := in.FileImportResponse
	if resp == nil {
		return nil, fmt.Errorf("expected a FileImportResponse, got %v", protocol.WhichInbound(in))
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%s", *resp.Error)
	}
	return resp.FileURL, nil
}

func (s *workerServices) Call(ctx context.Context, name *string, functionID *uint32, args []*engine.Value) (*engine.Value, error) {
	var wireArgs []*protocol.Value
	for _, a := range args {
		wireArgs = append(wireArgs, engineValueToWire(a))
	}
	s.outbound <- &protocol.OutboundMessage{FunctionCallRequest: &protocol.FunctionCallRequest{
		CompilationID: s.compilationID,
		Name:          name,
		FunctionID:    functionID,
		Arguments:     wireArgs,
	}}

	in, ok := s.await(ctx)
	if !ok {
		return nil, ctx.Err()
	}
	resp := in.FunctionCallResponse
	if resp == nil {
		return nil, fmt.Errorf("expected a FunctionCallResponse, got %v", protocol.WhichInbound(in))
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%s", *resp.Error)
	}
	return wireValueToEngine(resp.Success), nil
}

func (s *workerServices) Log(event engine.LogEvent) {
	s.logger.Log(event)
}

// await blocks for the next message on the worker's inbound channel,
// unless ctx is canceled first.
func (s *workerServices) await(ctx context.Context) (*protocol.InboundMessage, bool) {
	select {
	case msg, ok := <-s.inbound:
		return msg, ok
	case <-ctx.Done():
		return nil, false
	}
}
