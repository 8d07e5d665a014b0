// Package worker implements the per-compilation execution context of
// spec §4.C: a long-lived goroutine that sits idle awaiting a
// CompileRequest, drives the compilation engine to completion (forwarding
// any callback it issues to the root dispatcher and blocking for the
// matching response), and returns a CompileResponse before going idle
// again for reuse by the pool.
//
// The shape — a persistent goroutine driven by an inbound channel, paired
// with an outbound channel the owner drains — is grounded in the
// teacher's Connection/Server split: a Connection reads one kernel
// request at a time and a Server dispatches it to a per-op handler while
// the request's response channel is threaded through a context value.
// Here the channel pair is explicit struct state instead of a context
// value, since a worker serves many compiles in sequence rather than one
// op each.
package worker

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/jacobsa/timeutil"

	"github.com/sass-embedded/compiler-host/engine"
	"github.com/sass-embedded/compiler-host/protocol"
)

// Worker runs compilations one at a time against a fixed Engine
// implementation, translating wire messages to/from the engine's
// vocabulary.
type Worker struct {
	// CompilationID identifies this worker in every LogEvent it emits
	// (spec glossary, "Compilation id"). Assigned once at spawn by the
	// pool and never reused while the worker is alive.
	CompilationID uint32

	Engine engine.Engine
	Clock  timeutil.Clock

	// Inbound carries both the CompileRequest that starts a compile and,
	// once the compile begins issuing callbacks, the responses to those
	// callbacks. Outbound carries callback requests, LogEvents, and the
	// final CompileResponse.
	Inbound  chan *protocol.InboundMessage
	Outbound chan *protocol.OutboundMessage
}

// New constructs an idle worker with the given compilation id. The
// returned worker's Run method must be started in its own goroutine
// before the pool hands it out.
func New(compilationID uint32, eng engine.Engine, clock timeutil.Clock) *Worker {
	return &Worker{
		CompilationID: compilationID,
		Engine:        eng,
		Clock:         clock,
		Inbound:       make(chan *protocol.InboundMessage),
		Outbound:      make(chan *protocol.OutboundMessage),
	}
}

// Run loops forever, awaiting a CompileRequest on Inbound, running it to
// completion, and emitting its CompileResponse on Outbound, until ctx is
// canceled. It is meant to run on its own goroutine for the worker's
// entire lifetime; the pool reuses the worker (and this same goroutine)
// across many compilations (spec §4.E, "Worker reuse" design note).
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-w.Inbound:
			if !ok {
				return
			}
			if msg.CompileRequest == nil {
				// The dispatcher only ever hands a freshly acquired worker a
				// CompileRequest; anything else is a dispatcher bug, not a wire
				// error, so there is no protocol.Error path for it here.
				continue
			}
			resp := w.compile(ctx, msg.CompileRequest)
			select {
			case w.Outbound <- &protocol.OutboundMessage{CompileResponse: resp}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (w *Worker) compile(ctx context.Context, req *protocol.CompileRequest) *protocol.CompileResponse {
	logger := newCompileLogger(w.CompilationID, w.Outbound, req.AlertColor, req.AlertAscii, req.QuietDeps, req.Verbose)
	svc := &workerServices{
		compilationID: w.CompilationID,
		outbound:      w.Outbound,
		inbound:       w.Inbound,
		logger:        logger,
	}

	result, err := w.runEngine(ctx, req, svc)
	if err != nil {
		return &protocol.CompileResponse{Failure: translateFailure(req, err)}
	}
	return &protocol.CompileResponse{Success: &protocol.CompileSuccess{
		CSS:        result.CSS,
		SourceMap:  result.SourceMap,
		LoadedURLs: result.LoadedURLs,
	}}
}

// runEngine drives the engine and recovers a panic raised anywhere inside
// it, reporting the panic as an ordinary compile failure instead of
// letting it unwind onto this worker's persistent goroutine. Engine.Compile
// runs on that same goroutine across every compilation this worker will
// ever serve (spec §4.E's "Worker reuse"), so an unrecovered panic here
// would kill the goroutine and, with it, every future compile routed to
// this worker — not just the one in progress.
func (w *Worker) runEngine(ctx context.Context, req *protocol.CompileRequest, svc engine.Services) (result *engine.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return w.Engine.Compile(ctx, buildEngineRequest(req), svc)
}

// translateFailure converts an engine-reported error into the wire
// Failure shape (spec §4.C step 4). A missing-file failure for a
// PathInput compile gets the special zero-location span whose URL is the
// path rendered as a file: URI (spec §4.C step 4, §7).
func translateFailure(req *protocol.CompileRequest, err error) *protocol.CompileFailure {
	if f, ok := err.(*engine.Failure); ok {
		return &protocol.CompileFailure{
			Message:    f.Message,
			Span:       engineSpanToWire(f.Span),
			StackTrace: f.StackTrace,
			Formatted:  f.Formatted,
		}
	}

	if req.Input.Path != nil {
		return &protocol.CompileFailure{
			Message: err.Error(),
			Span:    &protocol.SourceSpan{URL: "file://" + req.Input.Path.Path},
		}
	}

	return &protocol.CompileFailure{Message: fmt.Sprintf("%v", err)}
}
